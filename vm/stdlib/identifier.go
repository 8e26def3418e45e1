// Package stdlib implements the closed standard-library gadget catalog
// spec.md §4.3 "Standard library dispatch" names ("A fixed enum of
// built-in identifiers ... maps to CallStd with fixed input_size/
// output_size"), supplemented per SPEC_FULL.md's "CallStd gadget
// catalog" section grounded on zinc-vm's instruction set.
package stdlib

import "fmt"

// Identifier is the closed enum of CallStd targets. Its byte value is
// also the bytecode encoding of a CallStd instruction's identifier
// operand (bytecode.Instruction.Identifier).
type Identifier byte

const (
	CryptoSha256 Identifier = iota
	CryptoPedersen
	FromBitsUnsigned
	FromBitsSigned
	FromBitsField
	ToBits
	ArrayPad
	ArrayTruncate
	ArrayReverse
)

// names is the "path::segments" spelling the semantic analyzer resolves
// a Path expression against (spec.md §4.3).
var names = map[string]Identifier{
	"crypto::sha256":     CryptoSha256,
	"crypto::pedersen":   CryptoPedersen,
	"from_bits_unsigned": FromBitsUnsigned,
	"from_bits_signed":   FromBitsSigned,
	"from_bits_field":    FromBitsField,
	"to_bits":            ToBits,
	"array::pad":         ArrayPad,
	"array::truncate":    ArrayTruncate,
	"array::reverse":     ArrayReverse,
}

var displayNames = func() map[Identifier]string {
	m := map[Identifier]string{}
	for k, v := range names {
		m[v] = k
	}
	return m
}()

func (id Identifier) String() string {
	if s, ok := displayNames[id]; ok {
		return s
	}
	return fmt.Sprintf("Identifier(%d)", byte(id))
}

// Lookup resolves a "::"-joined path (as parsed into ast.Path.Segments)
// against the catalog.
func Lookup(segments []string) (Identifier, bool) {
	key := ""
	for i, s := range segments {
		if i > 0 {
			key += "::"
		}
		key += s
	}
	id, ok := names[key]
	return id, ok
}
