/*
Package bitset implements fixed-width sets over the terminal index space
of a grammar. FIRST-sets and configuration follow-sets are bitsets; the
fixed-point loops of grammar analysis are driven by the change flags
returned from Add and Union.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package bitset

import (
	"strconv"
	"strings"
)

// TermSet is a set of terminal indices 0…n. All sets created for one
// grammar share the same width, fixed once the symbols have been sorted.
type TermSet struct {
	words []uint64
	n     int
}

// New creates an empty set for elements 0…n.
func New(n int) *TermSet {
	return &TermSet{
		words: make([]uint64, (n+64)/64+1),
		n:     n,
	}
}

// Has returns true if e is in the set.
func (s *TermSet) Has(e int) bool {
	return s.words[e/64]&(1<<uint(e%64)) != 0
}

// Add puts e into the set. It returns true if the element was added and
// false if it was already there.
func (s *TermSet) Add(e int) bool {
	w, b := e/64, uint64(1)<<uint(e%64)
	if s.words[w]&b != 0 {
		return false
	}
	s.words[w] |= b
	return true
}

// Union adds every element of other to s. It returns true if s changed.
func (s *TermSet) Union(other *TermSet) bool {
	change := false
	for i, w := range other.words {
		if w&^s.words[i] != 0 {
			change = true
			s.words[i] |= w
		}
	}
	return change
}

// AppendTo appends the elements of s to dst in increasing order.
func (s *TermSet) AppendTo(dst []int) []int {
	for e := 0; e <= s.n; e++ {
		if s.Has(e) {
			dst = append(dst, e)
		}
	}
	return dst
}

// Len returns the number of elements in the set.
func (s *TermSet) Len() int {
	cnt := 0
	for e := 0; e <= s.n; e++ {
		if s.Has(e) {
			cnt++
		}
	}
	return cnt
}

func (s *TermSet) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, e := range s.AppendTo(nil) {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strconv.Itoa(e))
	}
	b.WriteString("}")
	return b.String()
}
