package varset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndLookup(t *testing.T) {
	s := New("widgets")
	nameKey := Declare[string](s, "name", false)
	countKey := Declare[int](s, "count", true)
	s.WithShapes(nil, nil)

	assert.Equal(t, "name", nameKey.Name())
	assert.False(t, nameKey.Transient())
	assert.True(t, countKey.Transient())
	assert.Same(t, s, nameKey.Owner())

	keys := s.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "name", keys[0].Name())
	assert.Equal(t, "count", keys[1].Name())
}

func TestDeclareDuplicateNamePanics(t *testing.T) {
	s := New("widgets")
	Declare[string](s, "name", false)
	assert.Panics(t, func() { Declare[int](s, "name", false) })
}

func TestDeclareAfterFreezePanics(t *testing.T) {
	s := New("widgets")
	s.WithShapes(nil, nil)
	assert.Panics(t, func() { Declare[string](s, "name", false) })
}

func TestStructuralHashStableUnderFieldReorder(t *testing.T) {
	a := New("a")
	Declare[string](a, "name", false)
	Declare[int](a, "count", false)
	a.WithShapes(nil, nil)

	b := New("b")
	Declare[int](b, "count", false)
	Declare[string](b, "name", false)
	b.WithShapes(nil, nil)

	assert.Equal(t, a.StructuralHash(false), b.StructuralHash(false))
}

func TestStructuralHashChangesOnTypeChange(t *testing.T) {
	a := New("a")
	Declare[string](a, "value", false)
	a.WithShapes(nil, nil)

	b := New("b")
	Declare[int](b, "value", false)
	b.WithShapes(nil, nil)

	assert.NotEqual(t, a.StructuralHash(false), b.StructuralHash(false))
}

func TestStructuralHashChangesOnTransienceFlip(t *testing.T) {
	a := New("a")
	Declare[string](a, "value", false)
	a.WithShapes(nil, nil)

	b := New("b")
	Declare[string](b, "value", true)
	b.WithShapes(nil, nil)

	assert.NotEqual(t, a.StructuralHash(true), b.StructuralHash(true))
}

func TestStructuralHashExcludesTransientByDefault(t *testing.T) {
	a := New("a")
	Declare[string](a, "value", false)
	a.WithShapes(nil, nil)

	b := New("b")
	Declare[string](b, "value", false)
	Declare[int](b, "scratch", true)
	b.WithShapes(nil, nil)

	assert.Equal(t, a.StructuralHash(false), b.StructuralHash(false))
	assert.NotEqual(t, a.StructuralHash(true), b.StructuralHash(true))
}
