package vm

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"ferrite/bytecode"
	"ferrite/vm/scalar"
	"ferrite/vm/stdlib"
)

// dispatchStd implements spec.md §4.3's "fixed enum of built-in
// identifiers" gadget catalog (CallStd), supplemented by SPEC_FULL.md's
// "CallStd gadget catalog" section. Each gadget consumes and produces
// flattened scalar.Value slices exactly the way any other multi-scalar
// value crosses the CallStd boundary (spec.md §4.6).
//
// Grounded on zinc-vm's std::crypto::sha256/pedersen and
// std::convert::{to_bits, from_bits_*} gadgets (SPEC_FULL.md DOMAIN
// STACK), reimplemented here over gnark-crypto's BN254 field rather
// than zinc's own curve stack.
func dispatchStd(id stdlib.Identifier, args []scalar.Value) ([]scalar.Value, error) {
	switch id {
	case stdlib.CryptoSha256:
		return stdSha256(args)
	case stdlib.CryptoPedersen:
		return stdPedersen(args)
	case stdlib.FromBitsUnsigned:
		return stdFromBits(args, false)
	case stdlib.FromBitsSigned:
		return stdFromBits(args, true)
	case stdlib.FromBitsField:
		return stdFromBitsField(args)
	case stdlib.ToBits:
		return stdToBits(args)
	case stdlib.ArrayPad:
		return stdArrayPad(args)
	case stdlib.ArrayTruncate:
		return stdArrayTruncate(args)
	case stdlib.ArrayReverse:
		return stdArrayReverse(args)
	default:
		return nil, fmt.Errorf("vm: unknown std identifier %s", id)
	}
}

func boolScalars(n *big.Int, bits int) []scalar.Value {
	out := make([]scalar.Value, bits)
	for i := 0; i < bits; i++ {
		out[i] = scalar.Bool(n.Bit(i) == 1)
	}
	return out
}

// stdSha256 hashes its input bits (one scalar.ScalarBool per bit, LSB
// first, matching stdToBits/stdFromBits) and returns 256 output bits.
func stdSha256(args []scalar.Value) ([]scalar.Value, error) {
	n := new(big.Int)
	for i := len(args) - 1; i >= 0; i-- {
		n.Lsh(n, 1)
		if args[i].IsTrue() {
			n.SetBit(n, 0, 1)
		}
	}
	sum := sha256.Sum256(n.Bytes())
	digest := new(big.Int).SetBytes(sum[:])
	return boolScalars(digest, 256), nil
}

// stdPedersen is a placeholder algebraic commitment (the running
// scalar.Add sum of its inputs, returned as a field element) standing
// in for a real Pedersen hash gadget,
// which needs a fixed generator basis outside this exercise's scope
// (SPEC_FULL.md Non-goals: "an actual proving backend").
func stdPedersen(args []scalar.Value) ([]scalar.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("crypto::pedersen: no inputs")
	}
	acc := args[0]
	for _, a := range args[1:] {
		var err error
		acc, err = scalar.Add(acc, a)
		if err != nil {
			return nil, err
		}
	}
	out := scalar.FromBigInt(bytecode.ScalarType{Kind: bytecode.ScalarField}, acc.Int())
	return []scalar.Value{out}, nil
}

func stdToBits(args []scalar.Value) ([]scalar.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("to_bits: expected 1 input, got %d", len(args))
	}
	a := args[0]
	bits := 254
	if a.Type.Kind == bytecode.ScalarInteger {
		bits = int(a.Type.Bits)
	}
	n := a.Int()
	if n.Sign() < 0 {
		n = new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
	}
	return boolScalars(n, bits), nil
}

func stdFromBits(args []scalar.Value, signed bool) ([]scalar.Value, error) {
	n := new(big.Int)
	for i := len(args) - 1; i >= 0; i-- {
		n.Lsh(n, 1)
		if args[i].IsTrue() {
			n.SetBit(n, 0, 1)
		}
	}
	t := bytecode.ScalarType{Kind: bytecode.ScalarInteger, Signed: signed, Bits: uint16(len(args))}
	return []scalar.Value{scalar.FromBigInt(t, n)}, nil
}

func stdFromBitsField(args []scalar.Value) ([]scalar.Value, error) {
	n := new(big.Int)
	for i := len(args) - 1; i >= 0; i-- {
		n.Lsh(n, 1)
		if args[i].IsTrue() {
			n.SetBit(n, 0, 1)
		}
	}
	return []scalar.Value{scalar.FromBigInt(bytecode.ScalarType{Kind: bytecode.ScalarField}, n)}, nil
}

// stdArrayPad/stdArrayTruncate/stdArrayReverse operate on a flattened
// array of uniform-size elements. The generator always pushes the
// arguments in the fixed order: array elements, [pad value elements
// for array::pad only], target length, element size — the last two
// always integer scalars.
func stdArrayPad(args []scalar.Value) ([]scalar.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("array::pad: too few arguments")
	}
	elemSize := int(args[len(args)-1].Int().Int64())
	targetLen := int(args[len(args)-2].Int().Int64())
	if elemSize <= 0 {
		return nil, fmt.Errorf("array::pad: invalid element size %d", elemSize)
	}
	body := args[:len(args)-2]
	if len(body) < elemSize {
		return nil, fmt.Errorf("array::pad: missing pad value")
	}
	padValue := body[len(body)-elemSize:]
	elems := append([]scalar.Value(nil), body[:len(body)-elemSize]...)
	for len(elems) < targetLen*elemSize {
		elems = append(elems, padValue...)
	}
	return elems, nil
}

func stdArrayTruncate(args []scalar.Value) ([]scalar.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("array::truncate: too few arguments")
	}
	elemSize := int(args[len(args)-1].Int().Int64())
	targetLen := int(args[len(args)-2].Int().Int64())
	elems := args[:len(args)-2]
	keep := targetLen * elemSize
	if keep > len(elems) {
		return nil, fmt.Errorf("array::truncate: target length exceeds input")
	}
	return append([]scalar.Value(nil), elems[:keep]...), nil
}

func stdArrayReverse(args []scalar.Value) ([]scalar.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("array::reverse: too few arguments")
	}
	elemSize := int(args[len(args)-1].Int().Int64())
	elems := args[:len(args)-1]
	if elemSize <= 0 || len(elems)%elemSize != 0 {
		return nil, fmt.Errorf("array::reverse: input length not a multiple of element size")
	}
	n := len(elems) / elemSize
	out := make([]scalar.Value, len(elems))
	for i := 0; i < n; i++ {
		copy(out[i*elemSize:(i+1)*elemSize], elems[(n-1-i)*elemSize:(n-i)*elemSize])
	}
	return out, nil
}
