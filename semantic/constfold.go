// constfold.go implements the constant-expression evaluator spec.md
// §4.3 "Constant evaluation" requires: "Arithmetic on two constants is
// performed immediately in arbitrary-precision integers and then
// range-checked against the result type." It is grounded on the
// teacher's interpreter.TreeWalkInterpreter (a tree-walking evaluator
// over the same ast.Expression shape as the analyzer), generalized from
// any-typed Go values to math/big.Int-backed constants with bitlength
// range checks, per SPEC_FULL.md's "Supplemented features" section.
package semantic

import (
	"math/big"

	"ferrite/ast"
	"ferrite/token"
	"ferrite/types"
)

// ConstValue is a fully-evaluated compile-time constant: an integer
// (arbitrary precision until narrowed), a boolean, or a field element
// (represented the same as Integer pre-narrowing, distinguished by
// Type.Kind()).
type ConstValue struct {
	Type    types.Type
	Int     *big.Int // valid for Integer/Field
	Bool    bool      // valid for Bool
}

func constInt(t types.Type, v *big.Int) *ConstValue { return &ConstValue{Type: t, Int: v} }
func constBool(v bool) *ConstValue                  { return &ConstValue{Type: types.Bool{}, Bool: v} }

// foldConst attempts to evaluate expr as a compile-time constant against
// the given scope. ok is false (with a nil error) when expr is not
// constant-foldable (e.g. it reads a mutable local) rather than ill
// typed; err is non-nil only for an actual semantic error (division by
// a constant zero, an out-of-range literal, ...).
func (an *Analyzer) foldConst(expr ast.Expression, sc scopeHandle) (val *ConstValue, ok bool, err error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		n, convErr := parseIntegerDigits(e.Digits, e.Base)
		if convErr != nil {
			return nil, false, newError(ConstantOutOfRange, e.Position, "%s", convErr.Error())
		}
		it, fitErr := types.SmallestUnsigned(func(bits int) bool { return fitsUnsigned(n, bits) })
		if fitErr != nil {
			return nil, false, newError(ConstantOutOfRange, e.Position, "%s", fitErr.Error())
		}
		return constInt(it, n), true, nil

	case *ast.BoolLiteral:
		return constBool(e.Value), true, nil

	case *ast.Grouping:
		return an.foldConst(e.Expression, sc)

	case *ast.Identifier:
		b, found := an.scopes.lookup(sc, e.Name)
		if !found || b.Kind != ItemConstant {
			return nil, false, nil
		}
		return b.Constant, true, nil

	case *ast.Unary:
		right, rok, rerr := an.foldConst(e.Right, sc)
		if rerr != nil || !rok {
			return nil, rok, rerr
		}
		return an.foldUnary(e, right)

	case *ast.Binary:
		left, lok, lerr := an.foldConst(e.Left, sc)
		if lerr != nil || !lok {
			return nil, lok, lerr
		}
		right, rok, rerr := an.foldConst(e.Right, sc)
		if rerr != nil || !rok {
			return nil, rok, rerr
		}
		return an.foldBinary(e, left, right)

	case *ast.Cast:
		operand, ok, operr := an.foldConst(e.Operand, sc)
		if operr != nil || !ok {
			return nil, ok, operr
		}
		target, terr := an.resolveTypeName(e.Target, sc)
		if terr != nil {
			return nil, false, terr
		}
		return an.foldCast(e.Position, operand, target)
	}
	return nil, false, nil
}

func (an *Analyzer) foldUnary(e *ast.Unary, right *ConstValue) (*ConstValue, bool, error) {
	switch e.Operator.TokenType {
	case token.MINUS:
		it, ok := right.Type.(*types.Integer)
		if !ok {
			return nil, false, nil
		}
		n := new(big.Int).Neg(right.Int)
		if !it.Signed {
			return nil, false, newError(TypeMismatch, e.Position, "cannot negate unsigned constant")
		}
		if !fitsSigned(n, it.Bits) {
			return nil, false, newError(ConstantOutOfRange, e.Position, "negation out of range for %s", it.String())
		}
		return constInt(it, n), true, nil
	case token.BANG:
		if right.Type.Kind() != types.KindBool {
			return nil, false, nil
		}
		return constBool(!right.Bool), true, nil
	case token.TILDE:
		it, ok := right.Type.(*types.Integer)
		if !ok {
			return nil, false, nil
		}
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(it.Bits)), big.NewInt(1))
		n := new(big.Int).Xor(right.Int, mask)
		return constInt(it, n), true, nil
	}
	return nil, false, nil
}

func (an *Analyzer) foldBinary(e *ast.Binary, left, right *ConstValue) (*ConstValue, bool, error) {
	if !types.Equal(left.Type, right.Type) {
		return nil, false, newError(TypeMismatch, e.Position, "mismatched constant types %s and %s", left.Type, right.Type)
	}
	switch e.Operator.TokenType {
	case token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL:
		return an.foldCompare(e, left, right)
	}
	if left.Type.Kind() == types.KindBool {
		return nil, false, nil
	}
	a, b := left.Int, right.Int
	var r big.Int
	switch e.Operator.TokenType {
	case token.PLUS:
		r.Add(a, b)
	case token.MINUS:
		r.Sub(a, b)
	case token.STAR:
		r.Mul(a, b)
	case token.SLASH:
		if b.Sign() == 0 {
			return nil, false, newError(DivisionByZero, e.Position, "division by constant zero")
		}
		r.Quo(a, b)
	case token.PERCENT:
		if b.Sign() == 0 {
			return nil, false, newError(DivisionByZero, e.Position, "modulo by constant zero")
		}
		r.Rem(a, b)
	case token.AMP:
		r.And(a, b)
	case token.PIPE:
		r.Or(a, b)
	case token.CARET:
		r.Xor(a, b)
	case token.SHL:
		r.Lsh(a, uint(b.Int64()))
	case token.SHR:
		r.Rsh(a, uint(b.Int64()))
	default:
		return nil, false, nil
	}
	it := left.Type.(*types.Integer)
	if err := rangeCheck(it, &r, e.Position); err != nil {
		return nil, false, err
	}
	return constInt(it, &r), true, nil
}

func (an *Analyzer) foldCompare(e *ast.Binary, left, right *ConstValue) (*ConstValue, bool, error) {
	var cmp int
	if left.Type.Kind() == types.KindBool {
		cmp = 0
		if left.Bool != right.Bool {
			cmp = 1
		}
	} else {
		cmp = left.Int.Cmp(right.Int)
	}
	var res bool
	switch e.Operator.TokenType {
	case token.EQUAL_EQUAL:
		res = cmp == 0
	case token.NOT_EQUAL:
		res = cmp != 0
	case token.LESS:
		res = cmp < 0
	case token.LESS_EQUAL:
		res = cmp <= 0
	case token.LARGER:
		res = cmp > 0
	case token.LARGER_EQUAL:
		res = cmp >= 0
	}
	return constBool(res), true, nil
}

func (an *Analyzer) foldCast(pos token.Position, v *ConstValue, target types.Type) (*ConstValue, bool, error) {
	switch t := target.(type) {
	case *types.Integer:
		switch src := v.Type.(type) {
		case *types.Integer:
			n := new(big.Int).Set(v.Int)
			narrowed := narrow(n, t)
			return constInt(t, narrowed), true, nil
		case types.Bool:
			_ = src
			n := big.NewInt(0)
			if v.Bool {
				n = big.NewInt(1)
			}
			return constInt(t, n), true, nil
		}
	case types.Field:
		if it, ok := v.Type.(*types.Integer); ok {
			_ = it
			return constInt(types.Field{}, new(big.Int).Set(v.Int)), true, nil
		}
	}
	return nil, false, newError(TypeMismatch, pos, "unsupported constant cast to %s", target)
}

// rangeCheck fails if n does not fit it's declared bit length in its
// natural (non-wrapping) representation, matching spec.md's "overflow
// is a runtime error reported with location" carried into compile-time
// constant folding as ConstantOutOfRange.
func rangeCheck(it *types.Integer, n *big.Int, pos token.Position) error {
	ok := fitsUnsigned(n, it.Bits)
	if it.Signed {
		ok = fitsSigned(n, it.Bits)
	}
	if !ok {
		return newError(ConstantOutOfRange, pos, "constant %s does not fit in %s", n.String(), it.String())
	}
	return nil
}

// narrow reduces n modulo 2^bits and re-centers it into it's signed or
// unsigned window (two's complement), matching the VM's runtime
// narrowing semantics (spec.md §4.6 "Arithmetic semantics").
func narrow(n *big.Int, it *types.Integer) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(it.Bits))
	r := new(big.Int).Mod(n, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	if it.Signed {
		half := new(big.Int).Rsh(mod, 1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, mod)
		}
	}
	return r
}

func fitsUnsigned(n *big.Int, bits int) bool {
	if n.Sign() < 0 {
		return false
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return n.Cmp(limit) < 0
}

func fitsSigned(n *big.Int, bits int) bool {
	half := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	min := new(big.Int).Neg(half)
	max := new(big.Int).Sub(half, big.NewInt(1))
	return n.Cmp(min) >= 0 && n.Cmp(max) <= 0
}

func parseIntegerDigits(digits string, base token.IntegerBase) (*big.Int, error) {
	n := new(big.Int)
	radix := 10
	switch base {
	case token.Binary:
		radix = 2
	case token.Octal:
		radix = 8
	case token.Hex:
		radix = 16
	}
	if _, ok := n.SetString(digits, radix); !ok {
		return nil, errInvalidDigits(digits)
	}
	return n, nil
}

type errInvalidDigits string

func (e errInvalidDigits) Error() string { return "invalid integer literal digits: " + string(e) }
