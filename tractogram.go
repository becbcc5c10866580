/*
 * tractogram.go, part of gotrk.
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

package trk

import (
	"fmt"
	"iter"

	"github.com/rmera/gotrk/arrseq"
)

//Tractogram holds a set of streamlines and their channels.
//Scalars has one sub-sequence per streamline, with the S scalars of each point,
//point after point (so len = S*number of points). Properties has one sub-sequence
//of P values per streamline. When there are no scalars (or properties),
//the corresponding sequence is empty.
type Tractogram struct {
	Streamlines *arrseq.ArraySequence[Point]
	Scalars     *arrseq.ArraySequence[float32]
	Properties  *arrseq.ArraySequence[float32]
}

//NewTractogram returns a tractogram with the given streamlines, scalars and
//properties. nil sequences are replaced by empty ones.
func NewTractogram(streamlines *arrseq.ArraySequence[Point], scalars, properties *arrseq.ArraySequence[float32]) *Tractogram {
	if streamlines == nil {
		streamlines = arrseq.Empty[Point]()
	}
	if scalars == nil {
		scalars = arrseq.Empty[float32]()
	}
	if properties == nil {
		properties = arrseq.Empty[float32]()
	}
	return &Tractogram{Streamlines: streamlines, Scalars: scalars, Properties: properties}
}

//EmptyTractogram returns a tractogram without streamlines.
func EmptyTractogram() *Tractogram {
	return NewTractogram(nil, nil, nil)
}

//Len returns the number of streamlines.
func (T *Tractogram) Len() int {
	return T.Streamlines.Len()
}

//nScalars returns the number of scalars per point in T, deduced from
//the first streamline with points.
func (T *Tractogram) nScalars() int {
	if T.Scalars.Len() == 0 {
		return 0
	}
	for i := 0; i < T.Streamlines.Len(); i++ {
		if n := T.Streamlines.LengthOf(i); n > 0 {
			return T.Scalars.LengthOf(i) / n
		}
	}
	return 0
}

//Item returns the ith streamline with its channels. The slices returned
//share memory with T.
func (T *Tractogram) Item(i int) (*TractogramItem, error) {
	if i < 0 || i >= T.Len() {
		return nil, fmt.Errorf("trk: streamline %d out of range [0,%d)", i, T.Len())
	}
	item := T.item(i, T.nScalars())
	return &item, nil
}

func (T *Tractogram) item(i, nScalars int) TractogramItem {
	ret := TractogramItem{Streamline: T.Streamlines.Get(i)}
	if nScalars > 0 && i < T.Scalars.Len() {
		flat := T.Scalars.Get(i)
		ret.Scalars = make([][]float32, 0, len(ret.Streamline))
		for p := 0; p+nScalars <= len(flat); p += nScalars {
			ret.Scalars = append(ret.Scalars, flat[p:p+nScalars:p+nScalars])
		}
	}
	if i < T.Properties.Len() {
		ret.Properties = T.Properties.Get(i)
	}
	return ret
}

//Items iterates over the streamlines of T and their channels. The items
//are views on T.
func (T *Tractogram) Items() iter.Seq2[int, TractogramItem] {
	return func(yield func(int, TractogramItem) bool) {
		nScalars := T.nScalars()
		for i := 0; i < T.Len(); i++ {
			if !yield(i, T.item(i, nScalars)) {
				return
			}
		}
	}
}

//Add appends a copy of item to T. Every streamline gets a
//scalar and a property sub-sequence if T has any channels, even if empty.
func (T *Tractogram) Add(item *TractogramItem) {
	T.Streamlines.Append(item.Streamline...)
	if len(item.Scalars) > 0 || T.Scalars.Len() > 0 {
		for _, s := range item.Scalars {
			for _, v := range s {
				T.Scalars.Push(v)
			}
		}
		T.Scalars.Append()
	}
	if len(item.Properties) > 0 || T.Properties.Len() > 0 {
		T.Properties.Append(item.Properties...)
	}
}

//TractogramItem is one streamline, with its channels. Scalars has one
//slice of S values for each point, Properties has the P values of the streamline.
type TractogramItem struct {
	Streamline []Point
	Scalars    [][]float32
	Properties []float32
}

//NewTractogramItem returns a TractogramItem with the given data.
func NewTractogramItem(streamline []Point, scalars [][]float32, properties []float32) *TractogramItem {
	return &TractogramItem{Streamline: streamline, Scalars: scalars, Properties: properties}
}

//ItemFromPoints returns an item with a copy of p and no channels.
func ItemFromPoints(p []Point) *TractogramItem {
	s := make([]Point, len(p))
	copy(s, p)
	return &TractogramItem{Streamline: s}
}
