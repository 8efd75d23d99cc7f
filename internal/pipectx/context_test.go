package pipectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkazantsev/flowcore/internal/varset"
)

func testSet() (*varset.Set, varset.Key[string], varset.Key[int]) {
	s := varset.New("test")
	name := varset.Declare[string](s, "name", false)
	count := varset.Declare[int](s, "count", false)
	s.WithShapes(nil, nil)
	return s, name, count
}

func TestPlainGetMissing(t *testing.T) {
	_, name, _ := testSet()
	p := NewPlain(nil)

	_, err := Get(p, name)
	require.Error(t, err)
	var mv *MissingValue
	assert.ErrorAs(t, err, &mv)
}

func TestPlainGetOrNull(t *testing.T) {
	_, name, _ := testSet()
	p := NewPlain(map[varset.KeyID]any{name.ID(): "alice"})

	v, ok := GetOrNull(p, name)
	require.True(t, ok)
	assert.Equal(t, "alice", v)

	_, ok = GetOrNull(p, varset.Declare[string](varset.New("other"), "name", false))
	assert.False(t, ok)
}

func TestTrackedSetGetRemove(t *testing.T) {
	_, name, _ := testSet()
	tr := NewTracked()

	Set(tr, name, "bob", &Source{Step: "greet", InputHash: 42})
	v, src, err := GetTracked(tr, name)
	require.NoError(t, err)
	assert.Equal(t, "bob", v)
	require.NotNil(t, src)
	assert.Equal(t, "greet", src.Step)
	assert.Equal(t, uint64(42), src.InputHash)

	Remove(tr, name)
	assert.False(t, tr.Exists(name.ID()))
}

func TestTrackedFromAnyLiftsPlain(t *testing.T) {
	_, name, _ := testSet()
	p := NewPlain(map[varset.KeyID]any{name.ID(): "carol"})

	tr := FromAny(p)
	v, src, err := GetTracked(tr, name)
	require.NoError(t, err)
	assert.Equal(t, "carol", v)
	assert.Nil(t, src)
}

func TestTrackedFromAnyClonesTracked(t *testing.T) {
	_, name, _ := testSet()
	original := NewTracked()
	Set(original, name, "dave", nil)

	clone := FromAny(original)
	Set(clone, name, "erin", nil)

	v, _, err := GetTracked(original, name)
	require.NoError(t, err)
	assert.Equal(t, "dave", v, "cloning must not mutate the source Tracked")
}

func TestCloneIsIndependent(t *testing.T) {
	_, name, _ := testSet()
	tr := NewTracked()
	Set(tr, name, "frank", nil)

	clone := tr.Clone()
	clone.RemoveID(name.ID())

	assert.True(t, tr.Exists(name.ID()))
	assert.False(t, clone.Exists(name.ID()))
}
