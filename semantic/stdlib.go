package semantic

import (
	"ferrite/types"
	"ferrite/vm/stdlib"
)

// stdlibSignature computes the CallStd input/output scalar-slot sizes
// and Ferrite return type for a resolved standard-library identifier
// given its call-site argument types (spec.md §4.3 "Standard library
// dispatch": "CallStd with fixed input_size/output_size derived from
// the call's typed arguments").
func stdlibSignature(id stdlib.Identifier, args []types.Type) (inputSize, outputSize int, ret types.Type, err error) {
	for _, a := range args {
		inputSize += a.Size()
	}
	switch id {
	case stdlib.CryptoSha256:
		ret = &types.Array{Elem: mustU8(), Len: 32}
		outputSize = 32
	case stdlib.CryptoPedersen:
		ret = types.Field{}
		outputSize = 1
	case stdlib.FromBitsUnsigned, stdlib.FromBitsSigned:
		bits := inputSize
		it, e := types.NewInteger(id == stdlib.FromBitsSigned, bits)
		if e != nil {
			return 0, 0, nil, newErrorNoPos(InvalidBitLength, e.Error())
		}
		ret = it
		outputSize = 1
	case stdlib.FromBitsField:
		ret = types.Field{}
		outputSize = 1
	case stdlib.ToBits:
		bits := 1
		if len(args) > 0 {
			if it, ok := args[0].(*types.Integer); ok {
				bits = it.Bits
			}
		}
		ret = &types.Array{Elem: mustU1(), Len: bits}
		outputSize = bits
	case stdlib.ArrayPad, stdlib.ArrayTruncate, stdlib.ArrayReverse:
		if len(args) == 0 {
			return 0, 0, nil, newErrorNoPos(ArgumentCountMismatch, "array gadget requires at least one argument")
		}
		arr, ok := args[0].(*types.Array)
		if !ok {
			return 0, 0, nil, newErrorNoPos(TypeMismatch, "array gadget requires an array argument")
		}
		ret = arr
		outputSize = arr.Size()
	default:
		return 0, 0, nil, newErrorNoPos(UndeclaredName, "unknown standard library gadget")
	}
	return inputSize, outputSize, ret, nil
}

func mustU8() *types.Integer {
	it, _ := types.NewInteger(false, 8)
	return it
}

func mustU1() *types.Integer {
	it, _ := types.NewInteger(false, 1)
	return it
}

func newErrorNoPos(kind ErrorKind, msg string) SemanticError {
	return SemanticError{Kind: kind, Message: msg}
}
