// Copyright (c) 2024 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package view maintains the ordered partial view a gossiping node keeps of
// the network, together with the permutation, aging, and eviction operations
// the exchange protocol is built from.
//
// A View is not safe for concurrent use. The service that owns it performs
// every read and mutation under its own lock, so the operations here are free
// to work on the underlying slice without further synchronization.
package view

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/peersample/api/peer"
)

// Entry pairs a peer with the number of exchange cycles it has survived since
// its owner last introduced it.
type Entry struct {
	Peer peer.Identifier
	Age  uint16
}

// View is an ordered list of peer entries, at most one per remote peer
// between exchanges. Insertion order is significant: head and tail
// operations rely on it.
type View struct {
	entries []Entry
	rng     *rand.Rand
}

// New returns an empty view drawing its randomness from rng. The same source
// backs peer selection, permutation, and random eviction so a seeded service
// behaves deterministically.
func New(rng *rand.Rand) *View {
	return &View{rng: rng}
}

// Len returns the number of entries.
func (v *View) Len() int {
	return len(v.entries)
}

// Entries returns a copy of the entries in order.
func (v *View) Entries() []Entry {
	return append([]Entry(nil), v.entries...)
}

// Copy returns an independent view with the same entries, sharing the
// randomness source.
func (v *View) Copy() *View {
	return &View{entries: v.Entries(), rng: v.rng}
}

// SelectPeer draws a peer uniformly at random. The second return is false iff
// the view is empty. The view itself is not mutated.
func (v *View) SelectPeer() (peer.Identifier, bool) {
	if len(v.entries) == 0 {
		return "", false
	}
	return v.entries[v.rng.Intn(len(v.entries))].Peer, true
}

// Permute reorders the entries uniformly at random in place.
func (v *View) Permute() {
	v.rng.Shuffle(len(v.entries), func(i, j int) {
		v.entries[i], v.entries[j] = v.entries[j], v.entries[i]
	})
}

// MoveOldestToEnd moves the n entries with the greatest age to the tail.
// Ties are broken by position, earlier entries first. Relative order is
// preserved within both the moved and the unmoved entries.
func (v *View) MoveOldestToEnd(n int) {
	if n <= 0 || len(v.entries) == 0 {
		return
	}
	if n > len(v.entries) {
		n = len(v.entries)
	}
	order := make([]int, len(v.entries))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps equal-age entries in position order.
	sort.SliceStable(order, func(i, j int) bool {
		return v.entries[order[i]].Age > v.entries[order[j]].Age
	})
	moved := make([]bool, len(v.entries))
	for _, i := range order[:n] {
		moved[i] = true
	}
	reordered := make([]Entry, 0, len(v.entries))
	for i, e := range v.entries {
		if !moved[i] {
			reordered = append(reordered, e)
		}
	}
	for i, e := range v.entries {
		if moved[i] {
			reordered = append(reordered, e)
		}
	}
	v.entries = reordered
}

// Head returns a copy of the first min(n, len) entries.
func (v *View) Head(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n > len(v.entries) {
		n = len(v.entries)
	}
	return append([]Entry(nil), v.entries[:n]...)
}

// IncreaseAge increments every entry's age by one, saturating rather than
// wrapping at the top of the 16-bit range.
func (v *View) IncreaseAge() {
	for i := range v.entries {
		if v.entries[i].Age < math.MaxUint16 {
			v.entries[i].Age++
		}
	}
}

// Append concatenates entries to the tail.
func (v *View) Append(entries []Entry) {
	v.entries = append(v.entries, entries...)
}

// RemoveDuplicates retains, for every peer that appears more than once, the
// occurrence with the smallest age; among equal ages the earliest occurrence
// wins. Order of the retained entries is preserved.
func (v *View) RemoveDuplicates() {
	best := make(map[peer.Identifier]int, len(v.entries))
	for i, e := range v.entries {
		j, seen := best[e.Peer]
		if !seen || e.Age < v.entries[j].Age {
			best[e.Peer] = i
		}
	}
	if len(best) == len(v.entries) {
		return
	}
	kept := v.entries[:0]
	for i, e := range v.entries {
		if best[e.Peer] == i {
			kept = append(kept, e)
		}
	}
	v.entries = kept
}

// RemoveOldest deletes up to n entries with the greatest age, breaking ties
// by position with later entries deleted first. It reports how many entries
// were removed.
func (v *View) RemoveOldest(n int) int {
	if n <= 0 || len(v.entries) == 0 {
		return 0
	}
	if n > len(v.entries) {
		n = len(v.entries)
	}
	order := make([]int, len(v.entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if v.entries[a].Age != v.entries[b].Age {
			return v.entries[a].Age > v.entries[b].Age
		}
		return a > b
	})
	return v.removeIndexes(order[:n])
}

// RemoveHead deletes up to n entries from the front and reports how many
// were removed.
func (v *View) RemoveHead(n int) int {
	if n <= 0 {
		return 0
	}
	if n > len(v.entries) {
		n = len(v.entries)
	}
	v.entries = v.entries[n:]
	return n
}

// RemoveRandom deletes up to n entries chosen uniformly without replacement
// and reports how many were removed.
func (v *View) RemoveRandom(n int) int {
	if n <= 0 || len(v.entries) == 0 {
		return 0
	}
	if n > len(v.entries) {
		n = len(v.entries)
	}
	return v.removeIndexes(v.rng.Perm(len(v.entries))[:n])
}

// Remove deletes every entry matching the given peer.
func (v *View) Remove(id peer.Identifier) {
	kept := v.entries[:0]
	for _, e := range v.entries {
		if e.Peer != id {
			kept = append(kept, e)
		}
	}
	v.entries = kept
}

// removeIndexes drops the entries at the given positions, preserving the
// order of everything else.
func (v *View) removeIndexes(indexes []int) int {
	doomed := make([]bool, len(v.entries))
	for _, i := range indexes {
		doomed[i] = true
	}
	kept := v.entries[:0]
	for i, e := range v.entries {
		if !doomed[i] {
			kept = append(kept, e)
		}
	}
	removed := len(doomed) - len(kept)
	v.entries = kept
	return removed
}
