// Package varset implements the Key/VariableSet/ShapeSpec data model: named,
// typed handles for context slots, the declarative container that owns
// them, and the disjunctive-conjunctive shape constraints used to describe
// admissible input and terminal-output states.
//
// Key and VariableSet are deliberately kept in one package. The source
// system models them as a cyclic pair (a Key carries a back-reference to
// its owning VariableSet, and the VariableSet owns the Key), which in a
// strict-ownership language needs a weak handle or registry indirection.
// Go has neither the problem nor the need for the workaround: a Key simply
// holds a plain *Set pointer, and the garbage collector resolves the cycle
// for free.
package varset

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TypeTag carries the fully qualified type identity of a Key, used for
// structural hashing and for dispatching (de)serialization. GoName is the
// fully qualified type string folded into the structural hash; Cty is a
// best-effort structural representation used by the persistence layer's
// structured-text encoder, and is the zero cty.Type (cty.NilType) when
// gocty cannot represent the Go type.
type TypeTag struct {
	GoName string
	Cty    cty.Type
}

// String renders the tag the way it appears in structural hashes and error
// messages.
func (t TypeTag) String() string {
	return t.GoName
}

// tagFor computes the TypeTag for T. It never fails: types gocty cannot
// describe structurally (arbitrary structs without cty tags, interfaces,
// channels, funcs) fall back to cty.NilType, and EncodeValue/DecodeValue
// fall back to encoding/json for those.
func tagFor[T any]() TypeTag {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	tag := TypeTag{GoName: rt.String(), Cty: cty.NilType}

	var zero T
	if ct, err := gocty.ImpliedType(zero); err == nil {
		tag.Cty = ct
	}
	return tag
}

// Unrepresentable reports whether gocty could not derive a cty.Type for
// this tag, i.e. persistence must fall back to plain JSON for it.
func (t TypeTag) Unrepresentable() bool {
	return t.Cty == cty.NilType
}
