package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddReportsChange(t *testing.T) {
	s := New(10)
	assert.True(t, s.Add(3))
	assert.False(t, s.Add(3), "second add of the same element is not a change")
	assert.True(t, s.Has(3))
	assert.False(t, s.Has(4))
}

func TestUnionReportsChange(t *testing.T) {
	a := New(100)
	b := New(100)
	b.Add(0)
	b.Add(64)
	b.Add(100)
	assert.True(t, a.Union(b))
	assert.False(t, a.Union(b), "a second union with the same set is not a change")
	assert.Equal(t, []int{0, 64, 100}, a.AppendTo(nil))
	assert.Equal(t, 3, a.Len())
}

func TestEmptySet(t *testing.T) {
	s := New(5)
	assert.Zero(t, s.Len())
	assert.Equal(t, "{}", s.String())
	assert.Nil(t, s.AppendTo(nil))
}

func TestString(t *testing.T) {
	s := New(5)
	s.Add(1)
	s.Add(4)
	assert.Equal(t, "{1 4}", s.String())
}
