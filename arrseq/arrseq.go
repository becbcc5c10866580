/*
 * arrseq.go, part of gotrk.
 *
 * Copyright 2024 The gotrk Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package arrseq implements ArraySequence, a compact container for a sequence of
//variable-length sub-sequences. All the elements live in one flat slice, and a slice
//of offsets tells where each sub-sequence starts and ends. gotrk uses it to store
//streamlines (sub-sequences of points) and their scalars and properties.
package arrseq

import (
	"fmt"
	"iter"
)

//ArraySequence holds len(Offsets)-1 sub-sequences. Sub-sequence i is
//Data[Offsets[i]:Offsets[i+1]]. Offsets[0] is always 0 and the last offset is
//always len(Data), except for elements pushed but not yet committed with EndPush.
type ArraySequence[T any] struct {
	Offsets []int
	Data    []T
}

//Empty returns an ArraySequence with no sub-sequences.
func Empty[T any]() *ArraySequence[T] {
	return &ArraySequence[T]{Offsets: []int{0}, Data: []T{}}
}

//WithCapacity returns an empty ArraySequence with room for n elements.
func WithCapacity[T any](n int) *ArraySequence[T] {
	return &ArraySequence[T]{Offsets: []int{0}, Data: make([]T, 0, n)}
}

//New builds an ArraySequence from the length of each sub-sequence and the
//flat data. It returns an error if the lengths don't add up to len(data).
func New[T any](lengths []int, data []T) (*ArraySequence[T], error) {
	offsets := make([]int, 1, len(lengths)+1)
	sum := 0
	for i, l := range lengths {
		if l < 0 {
			return nil, fmt.Errorf("arrseq: negative length %d for sub-sequence %d", l, i)
		}
		sum += l
		offsets = append(offsets, sum)
	}
	if sum != len(data) {
		return nil, fmt.Errorf("arrseq: lengths declare %d elements but data contains %d", sum, len(data))
	}
	return &ArraySequence[T]{Offsets: offsets, Data: data}, nil
}

//Push adds v to the sub-sequence being built. The sub-sequence is
//only committed when EndPush is called.
func (A *ArraySequence[T]) Push(v T) {
	A.Data = append(A.Data, v)
}

//PushDone returns the number of elements pushed since the last commit.
func (A *ArraySequence[T]) PushDone() int {
	return len(A.Data) - A.Offsets[len(A.Offsets)-1]
}

//EndPush commits the elements pushed since the last commit as a new
//sub-sequence. If nothing was pushed, it does nothing: EndPush never
//creates an empty sub-sequence.
func (A *ArraySequence[T]) EndPush() {
	if A.PushDone() > 0 {
		A.Offsets = append(A.Offsets, len(A.Data))
	}
}

//Extend appends the elements of sub and commits them, with the same
//semantics as EndPush, so an empty sub adds nothing.
func (A *ArraySequence[T]) Extend(sub []T) {
	A.Data = append(A.Data, sub...)
	A.EndPush()
}

//Append adds sub as a new sub-sequence. Unlike Extend, the offset is
//always committed, so Append with no elements adds an empty sub-sequence.
//Any pending pushed elements become part of the new sub-sequence.
func (A *ArraySequence[T]) Append(sub ...T) {
	A.Data = append(A.Data, sub...)
	A.Offsets = append(A.Offsets, len(A.Data))
}

//Len returns the number of committed sub-sequences.
func (A *ArraySequence[T]) Len() int {
	return len(A.Offsets) - 1
}

//IsEmpty is true when the sequence holds no sub-sequence and no pending element.
func (A *ArraySequence[T]) IsEmpty() bool {
	return A.Len() == 0 && len(A.Data) == 0
}

//LengthOf returns the length of the ith sub-sequence without building a slice.
//It panics if i is out of range.
func (A *ArraySequence[T]) LengthOf(i int) int {
	return A.Offsets[i+1] - A.Offsets[i]
}

//Get returns the ith sub-sequence. The returned slice shares memory with A.
//Get is meant for callers that already know that i is valid (i.e. iterating
//0..Len()), it panics otherwise, as a slice index would.
func (A *ArraySequence[T]) Get(i int) []T {
	return A.Data[A.Offsets[i]:A.Offsets[i+1]:A.Offsets[i+1]]
}

//At returns the ith sub-sequence, or an error if i is out of range.
func (A *ArraySequence[T]) At(i int) ([]T, error) {
	if i < 0 || i >= A.Len() {
		return nil, fmt.Errorf("arrseq: index %d out of range [0,%d)", i, A.Len())
	}
	return A.Get(i), nil
}

//Filter returns a new ArraySequence with copies of the sub-sequences for which
//pred returns true, in the same order.
func (A *ArraySequence[T]) Filter(pred func([]T) bool) *ArraySequence[T] {
	ret := Empty[T]()
	for _, sub := range A.All() {
		if pred(sub) {
			ret.Append(sub...)
		}
	}
	return ret
}

//All iterates over the sub-sequences, from first to last, yielding the index
//and the sub-sequence. The slices are views on A, so modifying their elements
//modifies A.
func (A *ArraySequence[T]) All() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for i := 0; i < A.Len(); i++ {
			if !yield(i, A.Get(i)) {
				return
			}
		}
	}
}

//Backward is like All, but goes from the last sub-sequence to the first.
func (A *ArraySequence[T]) Backward() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for i := A.Len() - 1; i >= 0; i-- {
			if !yield(i, A.Get(i)) {
				return
			}
		}
	}
}

//Clone returns a deep copy of A.
func (A *ArraySequence[T]) Clone() *ArraySequence[T] {
	ret := &ArraySequence[T]{
		Offsets: make([]int, len(A.Offsets)),
		Data:    make([]T, len(A.Data)),
	}
	copy(ret.Offsets, A.Offsets)
	copy(ret.Data, A.Data)
	return ret
}

//Equal returns true if a and b hold the same sub-sequences with
//the same elements.
func Equal[T comparable](a, b *ArraySequence[T]) bool {
	if len(a.Offsets) != len(b.Offsets) || len(a.Data) != len(b.Data) {
		return false
	}
	for i, v := range a.Offsets {
		if b.Offsets[i] != v {
			return false
		}
	}
	for i, v := range a.Data {
		if b.Data[i] != v {
			return false
		}
	}
	return true
}
