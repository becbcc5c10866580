/*
 * reader.go, part of gotrk.
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
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"iter"
	"slices"

	"github.com/rmera/gotrk/arrseq"
	"github.com/rmera/gotrk/internal/binio"
)

//Reader reads streamlines from a TrackVis file, one at a time or all at once.
//By default, the points are transformed to world space (RAS+, mm). Raw and
//ToVoxelSpace change that, and must be called before the first read.
//A Reader is not safe for concurrent use.
type Reader struct {
	rc       io.Closer //nil if we don't own the stream
	b        *binio.Reader
	filename string
	header   *Header

	affine      Affine
	translation Translation
	raw         bool
	modeSet     bool

	nScalars    int
	nProperties int
	stride      int
	floats      []float32 //scratch, reused for every streamline.
	props       []float32

	started  bool
	readable bool
}

//Open opens the TrackVis file in path for reading. Files ending in .gz or
//.zst/.zstd are decompressed on the fly.
func Open(path string) (*Reader, error) {
	rc, err := openDecompressed(path)
	if err != nil {
		return nil, errDecorate(err, "Open")
	}
	R, err := NewReader(rc, path)
	if err != nil {
		rc.Close()
		return nil, errDecorate(err, "Open")
	}
	R.rc = rc
	return R, nil
}

//NewReader returns a Reader reading from r, which must be positioned at
//the start of the header. name is only used in error messages. The caller
//is responsible for closing r.
func NewReader(r io.Reader, name string) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	H, err := readHeader(br, name)
	if err != nil {
		return nil, errDecorate(err, "NewReader")
	}
	a4, err := H.AffineToRASMM()
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.filename = name
		}
		return nil, errDecorate(err, "NewReader")
	}
	R := &Reader{
		b:           binio.NewReader(br, H.Endian),
		filename:    name,
		header:      H,
		nScalars:    H.NScalars(),
		nProperties: H.NProperties(),
		props:       make([]float32, H.NProperties()),
		floats:      make([]float32, 0, 300),
		readable:    true,
	}
	R.stride = 3 + R.nScalars
	R.affine, R.translation = Decompose(a4)
	return R, nil
}

//Header returns the header of the file.
func (R *Reader) Header() *Header {
	return R.header
}

//Affine returns the linear part of the transformation applied to the points.
func (R *Reader) Affine() Affine {
	return R.affine
}

//Translation returns the translation applied to the points.
func (R *Reader) Translation() Translation {
	return R.translation
}

//Endian returns the byte order of the file.
func (R *Reader) Endian() binary.ByteOrder {
	return R.header.Endian
}

func (R *Reader) setMode(caller string) error {
	if R.started || R.modeSet {
		return newError(ErrMode, R.filename, caller, "the mode can only be set once, before reading")
	}
	R.modeSet = true
	return nil
}

//Raw makes the reader return the points as they are stored in the file, without
//any transformation.
func (R *Reader) Raw() error {
	if err := R.setMode("Raw"); err != nil {
		return err
	}
	R.raw = true
	R.affine, R.translation = Decompose(Identity4())
	return nil
}

//ToVoxelSpace makes the reader return the points in voxel coordinates, by
//dividing each coordinate by the given spacing. The spacing is usually the voxel
//size in the header, or the one of a reference image.
func (R *Reader) ToVoxelSpace(spacing [3]float32) error {
	for i, v := range spacing {
		if v == 0 {
			return newError(ErrGeometry, R.filename, "ToVoxelSpace", "spacing %d is 0", i)
		}
	}
	if err := R.setMode("ToVoxelSpace"); err != nil {
		return err
	}
	R.affine, R.translation = Decompose(Scale4(1/spacing[0], 1/spacing[1], 1/spacing[2]))
	return nil
}

//readChunk is the maximum number of floats read at once for a streamline.
const readChunk = 1 << 16

//readRecord reads the next streamline into the scratch buffers, and returns its
//number of points.
func (R *Reader) readRecord(caller string) (int, error) {
	if !R.readable {
		return 0, newError(ErrClosed, R.filename, caller, "reader already closed")
	}
	R.started = true
	n := R.b.Int32()
	if err := R.b.Err(); err != nil {
		switch {
		case errors.Is(err, io.ErrUnexpectedEOF):
			return 0, newError(ErrTruncated, R.filename, caller, "incomplete streamline count")
		case errors.Is(err, io.EOF):
			return 0, newLastStreamlineError(R.filename, caller)
		default:
			return 0, wrapError(ErrIO, R.filename, caller, err)
		}
	}
	if n < 0 {
		return 0, newError(ErrFormat, R.filename, caller, "negative number of points (%d)", n)
	}
	//the count can't be trusted, so the buffer only grows as the data arrives.
	need := int(n) * R.stride
	R.floats = R.floats[:0]
	for len(R.floats) < need && R.b.Err() == nil {
		start := len(R.floats)
		k := min(need-start, readChunk)
		R.floats = slices.Grow(R.floats, k)[:start+k]
		R.b.Float32s(R.floats[start:])
	}
	R.b.Float32s(R.props)
	if err := R.b.Err(); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, newError(ErrTruncated, R.filename, caller, "streamline with %d points cut short", n)
		}
		return 0, wrapError(ErrIO, R.filename, caller, err)
	}
	return int(n), nil
}

//point returns the kth point of the current record, transformed.
func (R *Reader) point(k int) Point {
	f := R.floats[k*R.stride:]
	p := Point{f[0], f[1], f[2]}
	if R.raw {
		return p
	}
	p = R.affine.Apply(p)
	for i := range p {
		p[i] += R.translation[i]
	}
	return p
}

//scalars returns the scalars of the kth point of the current record. The slice
//shares memory with the scratch buffer.
func (R *Reader) scalars(k int) []float32 {
	start := k*R.stride + 3
	return R.floats[start : start+R.nScalars]
}

//ReadAll reads all the remaining streamlines, with their scalars and properties.
func (R *Reader) ReadAll() (*Tractogram, error) {
	T := EmptyTractogram()
	for {
		n, err := R.readRecord("ReadAll")
		if IsLast(err) {
			break
		} else if err != nil {
			return nil, err
		}
		for k := 0; k < n; k++ {
			T.Streamlines.Push(R.point(k))
		}
		T.Streamlines.Append()
		if R.nScalars > 0 {
			for k := 0; k < n; k++ {
				for _, v := range R.scalars(k) {
					T.Scalars.Push(v)
				}
			}
			T.Scalars.Append()
		}
		if R.nProperties > 0 {
			T.Properties.Append(R.props...)
		}
	}
	return T, nil
}

//ReadStreamlines reads all the remaining streamlines, discarding scalars
//and properties.
func (R *Reader) ReadStreamlines() (*arrseq.ArraySequence[Point], error) {
	S := arrseq.Empty[Point]()
	for {
		n, err := R.readRecord("ReadStreamlines")
		if IsLast(err) {
			break
		} else if err != nil {
			return nil, err
		}
		for k := 0; k < n; k++ {
			S.Push(R.point(k))
		}
		S.Append()
	}
	return S, nil
}

//Next reads the next streamline with its channels. The item owns its data.
//At the end of the file, it returns an error that implements LastStreamlineError.
func (R *Reader) Next() (*TractogramItem, error) {
	n, err := R.readRecord("Next")
	if err != nil {
		return nil, err
	}
	item := &TractogramItem{Streamline: make([]Point, n)}
	for k := range item.Streamline {
		item.Streamline[k] = R.point(k)
	}
	if R.nScalars > 0 {
		flat := make([]float32, n*R.nScalars)
		item.Scalars = make([][]float32, n)
		for k := 0; k < n; k++ {
			s := flat[k*R.nScalars : (k+1)*R.nScalars : (k+1)*R.nScalars]
			copy(s, R.scalars(k))
			item.Scalars[k] = s
		}
	}
	if R.nProperties > 0 {
		item.Properties = make([]float32, R.nProperties)
		copy(item.Properties, R.props)
	}
	return item, nil
}

//NextStreamline reads the next streamline, discarding its channels.
//At the end of the file, it returns an error that implements LastStreamlineError.
func (R *Reader) NextStreamline() ([]Point, error) {
	n, err := R.readRecord("NextStreamline")
	if err != nil {
		return nil, err
	}
	ret := make([]Point, n)
	for k := range ret {
		ret[k] = R.point(k)
	}
	return ret, nil
}

//All iterates over the remaining streamlines of the file. The iteration ends
//at the end of the file, or after yielding the first error.
func (R *Reader) All() iter.Seq2[*TractogramItem, error] {
	return func(yield func(*TractogramItem, error) bool) {
		for {
			item, err := R.Next()
			if IsLast(err) {
				return
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

//Streamlines is like All, but without the channels.
func (R *Reader) Streamlines() iter.Seq2[[]Point, error] {
	return func(yield func([]Point, error) bool) {
		for {
			s, err := R.NextStreamline()
			if IsLast(err) {
				return
			}
			if !yield(s, err) || err != nil {
				return
			}
		}
	}
}

//Close closes the file, if the Reader opened it. Reading after Close
//is an error. Closing twice does nothing.
func (R *Reader) Close() error {
	if R == nil || !R.readable {
		return nil
	}
	R.readable = false
	if R.rc != nil {
		if err := R.rc.Close(); err != nil {
			return wrapError(ErrIO, R.filename, "Close", err)
		}
	}
	return nil
}
