package generator

import (
	"encoding/json"
	"fmt"
	"math/big"

	"ferrite/bytecode"
	"ferrite/types"
	"ferrite/vm/scalar"
)

// Package-level witness/public-data templating (spec.md §6 "Witness
// template: a JSON skeleton matching the entry's input type" / "Public-
// data template: JSON skeleton matching the entry's output type"),
// supplemented per SPEC_FULL.md's "Witness/public-data input builder"
// from zinc-build/src/build/input.rs and src/syntax/input/builder.rs:
// a structural skeleton-builder keyed off a types.Type rather than a
// re-parsed type name, since the generator already has the resolved
// type to hand.

// ValueTemplate builds a JSON-marshalable skeleton of zero-valued
// leaves matching t's shape: false for bool, "0" for integer/field,
// nested arrays/objects for composite types.
func ValueTemplate(t types.Type) any {
	switch tt := t.(type) {
	case types.Unit:
		return nil
	case types.Bool:
		return false
	case *types.Integer:
		return "0"
	case types.Field:
		return "0"
	case *types.Array:
		elems := make([]any, tt.Len)
		for i := range elems {
			elems[i] = ValueTemplate(tt.Elem)
		}
		return elems
	case *types.Tuple:
		elems := make([]any, len(tt.Elems))
		for i, e := range tt.Elems {
			elems[i] = ValueTemplate(e)
		}
		return elems
	case *types.Struct:
		obj := make(map[string]any, len(tt.Fields))
		for _, f := range tt.Fields {
			obj[f.Name] = ValueTemplate(f.Type)
		}
		return obj
	case *types.Enum:
		return "0"
	default:
		return nil
	}
}

// leafScalarType returns the bytecode.ScalarType a leaf (non-composite)
// type lowers to, or false if t is not a leaf.
func leafScalarType(t types.Type) (bytecode.ScalarType, bool) {
	switch tt := t.(type) {
	case types.Bool:
		return bytecode.ScalarType{Kind: bytecode.ScalarBool}, true
	case types.Field:
		return bytecode.ScalarType{Kind: bytecode.ScalarField}, true
	case *types.Integer:
		return bytecode.ScalarType{Kind: bytecode.ScalarInteger, Signed: tt.Signed, Bits: uint16(tt.Bits)}, true
	case *types.Enum:
		return bytecode.ScalarType{Kind: bytecode.ScalarInteger, Signed: tt.Underlying.Signed, Bits: uint16(tt.Underlying.Bits)}, true
	default:
		return bytecode.ScalarType{}, false
	}
}

// ParseValues decodes raw (as produced by filling in a ValueTemplate
// skeleton) into t's flattened scalar.Value sequence, in the same
// depth-first field/element order types.Type.Size() counts (spec.md §3
// "size is the total scalar-slot count of the type"). This is the
// witness input path `ferrite run` uses to turn a user-supplied JSON
// value into RunCircuit's argument slice.
func ParseValues(t types.Type, raw json.RawMessage) ([]scalar.Value, error) {
	var out []scalar.Value
	if err := appendValues(t, raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func appendValues(t types.Type, raw json.RawMessage, out *[]scalar.Value) error {
	if _, isUnit := t.(types.Unit); isUnit {
		return nil
	}
	if st, ok := leafScalarType(t); ok {
		n, err := parseScalarLiteral(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", t.String(), err)
		}
		*out = append(*out, scalar.FromBigInt(st, n))
		return nil
	}
	switch tt := t.(type) {
	case *types.Array:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return fmt.Errorf("%s: expected a JSON array: %w", t.String(), err)
		}
		if len(elems) != tt.Len {
			return fmt.Errorf("%s: expected %d elements, found %d", t.String(), tt.Len, len(elems))
		}
		for _, e := range elems {
			if err := appendValues(tt.Elem, e, out); err != nil {
				return err
			}
		}
		return nil
	case *types.Tuple:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return fmt.Errorf("%s: expected a JSON array: %w", t.String(), err)
		}
		if len(elems) != len(tt.Elems) {
			return fmt.Errorf("%s: expected %d elements, found %d", t.String(), len(tt.Elems), len(elems))
		}
		for i, e := range tt.Elems {
			if err := appendValues(e, elems[i], out); err != nil {
				return err
			}
		}
		return nil
	case *types.Struct:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("%s: expected a JSON object: %w", t.String(), err)
		}
		for _, f := range tt.Fields {
			fv, ok := obj[f.Name]
			if !ok {
				return fmt.Errorf("%s: missing field %q", t.String(), f.Name)
			}
			if err := appendValues(f.Type, fv, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: no witness encoding for this type", t.String())
	}
}

// parseScalarLiteral accepts either a JSON string (decimal, or "0x"/
// "0b"/"0o"-prefixed), a JSON number, or a JSON bool and returns its
// arbitrary-precision integer value.
func parseScalarLiteral(raw json.RawMessage) (*big.Int, error) {
	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		if asBool {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, ok := parseBigIntLiteral(asString)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", asString)
		}
		return n, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		n, ok := new(big.Int).SetString(asNumber.String(), 10)
		if !ok {
			return nil, fmt.Errorf("invalid numeric literal %q", asNumber.String())
		}
		return n, nil
	}
	return nil, fmt.Errorf("expected a string, number, or bool, found %s", string(raw))
}

func parseBigIntLiteral(s string) (*big.Int, bool) {
	base := 10
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	switch {
	case len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
		base, s = 16, s[2:]
	case len(s) > 2 && s[0] == '0' && (s[1] == 'o' || s[1] == 'O'):
		base, s = 8, s[2:]
	case len(s) > 2 && s[0] == '0' && (s[1] == 'b' || s[1] == 'B'):
		base, s = 2, s[2:]
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

// ValuesToJSON is ParseValues's inverse: it consumes t's flattened
// scalar.Value prefix of values and builds the JSON-marshalable tree
// spec.md §6's public-data output takes, returning the number of
// scalars consumed.
func ValuesToJSON(t types.Type, values []scalar.Value) (any, int, error) {
	if _, isUnit := t.(types.Unit); isUnit {
		return nil, 0, nil
	}
	if _, ok := leafScalarType(t); ok {
		if len(values) < 1 {
			return nil, 0, fmt.Errorf("%s: ran out of output scalars", t.String())
		}
		v := values[0]
		if tt, ok := t.(types.Bool); ok {
			_ = tt
			return v.IsTrue(), 1, nil
		}
		return v.Int().String(), 1, nil
	}
	switch tt := t.(type) {
	case *types.Array:
		out := make([]any, tt.Len)
		off := 0
		for i := 0; i < tt.Len; i++ {
			v, n, err := ValuesToJSON(tt.Elem, values[off:])
			if err != nil {
				return nil, 0, err
			}
			out[i] = v
			off += n
		}
		return out, off, nil
	case *types.Tuple:
		out := make([]any, len(tt.Elems))
		off := 0
		for i, e := range tt.Elems {
			v, n, err := ValuesToJSON(e, values[off:])
			if err != nil {
				return nil, 0, err
			}
			out[i] = v
			off += n
		}
		return out, off, nil
	case *types.Struct:
		out := make(map[string]any, len(tt.Fields))
		off := 0
		for _, f := range tt.Fields {
			v, n, err := ValuesToJSON(f.Type, values[off:])
			if err != nil {
				return nil, 0, err
			}
			out[f.Name] = v
			off += n
		}
		return out, off, nil
	default:
		return nil, 0, fmt.Errorf("%s: no output encoding for this type", t.String())
	}
}
