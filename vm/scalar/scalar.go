// Package scalar implements spec.md §3/§4.6's runtime scalar
// representation: every value on the VM's evaluation stack carries a
// type tag ("Every scalar on the evaluation stack carries a type
// tag"), and arithmetic is "computed in the field, then proved equal
// to an n-bit representation" (spec.md §4.6 "Arithmetic semantics").
//
// Grounded on SPEC_FULL.md's DOMAIN STACK decision to back the "native
// prime field element" of spec.md §3 with gnark-crypto's BN254 scalar
// field (github.com/consensys/gnark-crypto/ecc/bn254/fr), the same
// family of field-arithmetic package other_examples' go-corset
// constraint compiler is built against.
package scalar

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"ferrite/bytecode"
)

// Value is one scalar on the evaluation stack: a BN254 field element
// together with the declared type that governs its range checks and
// operator legality (spec.md §4.6 "Typing at runtime").
type Value struct {
	Type bytecode.ScalarType
	Elem fr.Element
}

// TypeError reports an operator applied to operands whose type tags
// disagree, or disagree with what the operator requires (spec.md §7
// RuntimeError.TypeError).
type TypeError struct {
	Expected string
	Found    string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, found %s", e.Expected, e.Found)
}

// Overflow reports an integer arithmetic result that does not fit its
// declared bitlength (spec.md §3 Invariants, §7 RuntimeError.Overflow).
type Overflow struct {
	Type bytecode.ScalarType
}

func (e Overflow) Error() string { return fmt.Sprintf("overflow: value does not fit %s", e.Type) }

// DivisionByZero reports Div/Rem by a runtime-zero divisor (spec.md §7).
type DivisionByZero struct{}

func (DivisionByZero) Error() string { return "division by zero" }

// Bool is the canonical boolean Value for true/false.
func Bool(b bool) Value {
	v := Value{Type: bytecode.ScalarType{Kind: bytecode.ScalarBool}}
	if b {
		v.Elem.SetOne()
	}
	return v
}

// IsTrue reports whether v, which must be ScalarBool, is true.
func (v Value) IsTrue() bool { return !v.Elem.IsZero() }

// FromBigInt builds a Value of type t from an arbitrary-precision
// integer, reducing it into the field and, for Integer types, range
// narrowing it into the declared n-bit two's-complement window first
// (spec.md §4.6 "signed values use two's-complement inside the
// n-bit window").
func FromBigInt(t bytecode.ScalarType, n *big.Int) Value {
	v := Value{Type: t}
	switch t.Kind {
	case bytecode.ScalarBool:
		if n.Sign() != 0 {
			v.Elem.SetOne()
		}
	case bytecode.ScalarInteger:
		v.Elem.SetBigInt(windowed(n, t))
	default: // ScalarField
		v.Elem.SetBigInt(n)
	}
	return v
}

// Int reinterprets v's field element as an arbitrary-precision integer
// in its declared type's domain: the regular nonnegative residue for a
// field or unsigned integer, or the two's-complement-recentered signed
// value for a signed integer (spec.md §4.6 "two's-complement inside
// the n-bit window").
func (v Value) Int() *big.Int {
	raw := new(big.Int)
	v.Elem.BigInt(raw)
	if v.Type.Kind != bytecode.ScalarInteger || !v.Type.Signed {
		return raw
	}
	bits := uint(v.Type.Bits)
	half := new(big.Int).Lsh(big.NewInt(1), bits-1)
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	m := new(big.Int).Mod(raw, mod)
	if m.Cmp(half) >= 0 {
		m.Sub(m, mod)
	}
	return m
}

// windowed reduces n into its declared bitlength window: [0, 2^bits)
// for unsigned, recentered into [-2^(bits-1), 2^(bits-1)) then stored
// as the nonnegative residue mod 2^bits for signed (the VM always
// stores the unsigned bit pattern in the field; Int() recovers sign).
func windowed(n *big.Int, t bytecode.ScalarType) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	r := new(big.Int).Mod(n, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

func sameIntegerType(a, b bytecode.ScalarType) error {
	if a.Kind != b.Kind || a.Kind != bytecode.ScalarInteger {
		return TypeError{Expected: "integer", Found: a.String() + "/" + b.String()}
	}
	if a.Signed != b.Signed || a.Bits != b.Bits {
		return TypeError{Expected: a.String(), Found: b.String()}
	}
	return nil
}

func sameNumeric(a, b bytecode.ScalarType) error {
	if a.Kind == bytecode.ScalarField && b.Kind == bytecode.ScalarField {
		return nil
	}
	return sameIntegerType(a, b)
}

func rangeCheck(t bytecode.ScalarType, n *big.Int) error {
	if t.Kind != bytecode.ScalarInteger {
		return nil
	}
	bits := uint(t.Bits)
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	if !t.Signed {
		if n.Sign() < 0 || n.Cmp(mod) >= 0 {
			return Overflow{Type: t}
		}
		return nil
	}
	half := new(big.Int).Rsh(mod, 1)
	min := new(big.Int).Neg(half)
	max := new(big.Int).Sub(half, big.NewInt(1))
	if n.Cmp(min) < 0 || n.Cmp(max) > 0 {
		return Overflow{Type: t}
	}
	return nil
}

// Add implements the Add opcode: "computed in the field, then proved
// equal to an n-bit representation" (spec.md §4.6).
func Add(a, b Value) (Value, error) {
	if err := sameNumeric(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	sum := new(big.Int).Add(a.Int(), b.Int())
	if err := rangeCheck(a.Type, sum); err != nil {
		return Value{}, err
	}
	return FromBigInt(a.Type, sum), nil
}

func Sub(a, b Value) (Value, error) {
	if err := sameNumeric(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	diff := new(big.Int).Sub(a.Int(), b.Int())
	if err := rangeCheck(a.Type, diff); err != nil {
		return Value{}, err
	}
	return FromBigInt(a.Type, diff), nil
}

func Mul(a, b Value) (Value, error) {
	if err := sameNumeric(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	prod := new(big.Int).Mul(a.Int(), b.Int())
	if err := rangeCheck(a.Type, prod); err != nil {
		return Value{}, err
	}
	return FromBigInt(a.Type, prod), nil
}

// Div implements Euclidean division (spec.md §4.6 "Div is Euclidean:
// quotient and remainder satisfy a = b*q + r with 0 <= r < |b|").
func Div(a, b Value) (Value, error) {
	if err := sameIntegerType(a.Type, b.Type); err != nil {
		if a.Type.Kind != bytecode.ScalarField || b.Type.Kind != bytecode.ScalarField {
			return Value{}, err
		}
	}
	bi := b.Int()
	if bi.Sign() == 0 {
		return Value{}, DivisionByZero{}
	}
	if a.Type.Kind == bytecode.ScalarField {
		var out fr.Element
		var bInv fr.Element
		bInv.Inverse(&b.Elem)
		out.Mul(&a.Elem, &bInv)
		return Value{Type: a.Type, Elem: out}, nil
	}
	q, _ := euclidDivMod(a.Int(), bi)
	if err := rangeCheck(a.Type, q); err != nil {
		return Value{}, err
	}
	return FromBigInt(a.Type, q), nil
}

func Rem(a, b Value) (Value, error) {
	if err := sameIntegerType(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	bi := b.Int()
	if bi.Sign() == 0 {
		return Value{}, DivisionByZero{}
	}
	_, r := euclidDivMod(a.Int(), bi)
	return FromBigInt(a.Type, r), nil
}

// euclidDivMod computes Euclidean quotient/remainder: 0 <= r < |b|.
func euclidDivMod(a, b *big.Int) (q, r *big.Int) {
	q, r = new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() < 0 {
		if b.Sign() > 0 {
			r.Add(r, b)
			q.Sub(q, big.NewInt(1))
		} else {
			r.Sub(r, b)
			q.Add(q, big.NewInt(1))
		}
	}
	return q, r
}

func Neg(a Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarInteger || !a.Type.Signed {
		if a.Type.Kind != bytecode.ScalarField {
			return Value{}, TypeError{Expected: "signed integer or field", Found: a.Type.String()}
		}
		var out fr.Element
		out.Neg(&a.Elem)
		return Value{Type: a.Type, Elem: out}, nil
	}
	n := new(big.Int).Neg(a.Int())
	if err := rangeCheck(a.Type, n); err != nil {
		return Value{}, err
	}
	return FromBigInt(a.Type, n), nil
}

func Not(a Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarBool {
		return Value{}, TypeError{Expected: "bool", Found: a.Type.String()}
	}
	return Bool(!a.IsTrue()), nil
}

func And(a, b Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarBool || b.Type.Kind != bytecode.ScalarBool {
		return Value{}, TypeError{Expected: "bool", Found: a.Type.String() + "/" + b.Type.String()}
	}
	return Bool(a.IsTrue() && b.IsTrue()), nil
}

func Or(a, b Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarBool || b.Type.Kind != bytecode.ScalarBool {
		return Value{}, TypeError{Expected: "bool", Found: a.Type.String() + "/" + b.Type.String()}
	}
	return Bool(a.IsTrue() || b.IsTrue()), nil
}

func Xor(a, b Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarBool || b.Type.Kind != bytecode.ScalarBool {
		return Value{}, TypeError{Expected: "bool", Found: a.Type.String() + "/" + b.Type.String()}
	}
	return Bool(a.IsTrue() != b.IsTrue()), nil
}

func cmp(a, b Value) (int, error) {
	if err := sameNumeric(a.Type, b.Type); err != nil {
		return 0, err
	}
	return a.Int().Cmp(b.Int()), nil
}

func Lt(a, b Value) (Value, error) { c, err := cmp(a, b); return Bool(c < 0), err }
func Le(a, b Value) (Value, error) { c, err := cmp(a, b); return Bool(c <= 0), err }
func Gt(a, b Value) (Value, error) { c, err := cmp(a, b); return Bool(c > 0), err }
func Ge(a, b Value) (Value, error) { c, err := cmp(a, b); return Bool(c >= 0), err }

// Eq/Ne implement spec.md §4.3's structural equality, but at the VM
// level only ever compare two individual scalars; structural equality
// across a multi-scalar struct/array/tuple is lowered by the generator
// to a sequence of per-scalar Eq/And comparisons.
func Eq(a, b Value) (Value, error) {
	if a.Type.Kind != b.Type.Kind {
		return Value{}, TypeError{Expected: a.Type.String(), Found: b.Type.String()}
	}
	return Bool(a.Elem.Equal(&b.Elem)), nil
}

func Ne(a, b Value) (Value, error) {
	v, err := Eq(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(!v.IsTrue()), nil
}

func BitAnd(a, b Value) (Value, error) {
	if err := sameIntegerType(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	n := new(big.Int).And(a.Int(), b.Int())
	return FromBigInt(a.Type, n), nil
}

func BitOr(a, b Value) (Value, error) {
	if err := sameIntegerType(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	n := new(big.Int).Or(a.Int(), b.Int())
	return FromBigInt(a.Type, n), nil
}

func BitXor(a, b Value) (Value, error) {
	if err := sameIntegerType(a.Type, b.Type); err != nil {
		return Value{}, err
	}
	n := new(big.Int).Xor(a.Int(), b.Int())
	return FromBigInt(a.Type, n), nil
}

func BitNot(a Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarInteger {
		return Value{}, TypeError{Expected: "integer", Found: a.Type.String()}
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(a.Type.Bits)), big.NewInt(1))
	n := new(big.Int).Xor(a.Int(), mask)
	return FromBigInt(a.Type, n), nil
}

// Shl/Shr implement bitwise shifts: "shift count must be an unsigned
// integer" (spec.md §4.3 Operator resolution).
func Shl(a, shift Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarInteger {
		return Value{}, TypeError{Expected: "integer", Found: a.Type.String()}
	}
	if shift.Type.Kind != bytecode.ScalarInteger || shift.Type.Signed {
		return Value{}, TypeError{Expected: "unsigned integer", Found: shift.Type.String()}
	}
	n := new(big.Int).Lsh(a.Int(), uint(shift.Int().Uint64()))
	return FromBigInt(a.Type, n), nil
}

func Shr(a, shift Value) (Value, error) {
	if a.Type.Kind != bytecode.ScalarInteger {
		return Value{}, TypeError{Expected: "integer", Found: a.Type.String()}
	}
	if shift.Type.Kind != bytecode.ScalarInteger || shift.Type.Signed {
		return Value{}, TypeError{Expected: "unsigned integer", Found: shift.Type.String()}
	}
	n := new(big.Int).Rsh(a.Int(), uint(shift.Int().Uint64()))
	return FromBigInt(a.Type, n), nil
}

// Cast implements integer<->integer width changes, integer->field, and
// bool->integer conversions (spec.md §4.3 "Cast").
func Cast(a Value, target bytecode.ScalarType) (Value, error) {
	switch target.Kind {
	case bytecode.ScalarField:
		return Value{Type: target, Elem: a.Elem}, nil
	case bytecode.ScalarInteger:
		switch a.Type.Kind {
		case bytecode.ScalarBool:
			n := big.NewInt(0)
			if a.IsTrue() {
				n = big.NewInt(1)
			}
			return FromBigInt(target, n), nil
		case bytecode.ScalarInteger, bytecode.ScalarField:
			return FromBigInt(target, a.Int()), nil
		}
	}
	return Value{}, TypeError{Expected: "castable scalar", Found: a.Type.String()}
}
