/*
 * writer.go, part of gotrk.
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
	"io"
	"iter"
	"math"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/rmera/gotrk/internal/binio"
)

//Writer writes streamlines to a TrackVis file. The header is written when
//the Writer is created, with a streamline count of 0. The real count is
//written by Close, which must always be called. A Writer that is garbage-collected
//without being closed is closed then, but errors can only be logged at that point.
//A Writer is not safe for concurrent use.
type Writer struct {
	ws       io.WriteSeeker
	file     *os.File    //nil if we don't own the destination
	staged   *stagedFile //nil if the destination is not compressed
	bw       *bufio.Writer
	b        *binio.Writer
	filename string
	header   *Header

	affine4     Affine4
	affine      Affine
	translation Translation

	nScalars    int
	nProperties int
	floats      []float32 //scratch, reused for every streamline.

	count     int32
	started   bool
	writeable bool
}

//Create creates the TrackVis file path and writes the header ref (or a
//default header, if ref is nil) to it. Files ending in .gz or .zst/.zstd are
//compressed, with the optional compression level given.
func Create(path string, ref *Header, level ...int) (*Writer, error) {
	lev := -1
	if len(level) > 0 {
		lev = level[0]
	}
	var f *os.File
	var staged *stagedFile
	var err error
	c := codecFor(path)
	if c == plain {
		f, err = os.Create(path)
	} else {
		staged, err = newStagedFile(path, c, lev)
		if err == nil {
			f = staged.tmp
		}
	}
	if err != nil {
		return nil, wrapError(ErrIO, path, "Create", err)
	}
	W, err := newWriter(f, ref, path)
	if err != nil {
		if staged != nil {
			staged.discard()
		} else {
			f.Close()
		}
		return nil, errDecorate(err, "Create")
	}
	W.file = f
	W.staged = staged
	runtime.SetFinalizer(W, func(W *Writer) {
		if err := W.Close(); err != nil {
			logrus.WithField("file", W.filename).Errorf("Writer garbage-collected without Close, and closing it failed: %v", err)
		}
	})
	return W, nil
}

//NewWriter writes the header ref (or a default one, if ref is nil) to ws and
//returns a Writer for it. ws must be positioned at its start. Close patches
//the streamline count, but doesn't close ws.
func NewWriter(ws io.WriteSeeker, ref *Header) (*Writer, error) {
	return newWriter(ws, ref, "")
}

func newWriter(ws io.WriteSeeker, ref *Header, name string) (*Writer, error) {
	var H *Header
	if ref == nil {
		H = DefaultHeader()
	} else {
		H = ref.Clone()
	}
	H.NCount = 0
	H.Endian = binary.LittleEndian
	inv, err := H.AffineToTrackvis()
	if err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	W := &Writer{
		ws:          ws,
		bw:          bufio.NewWriterSize(ws, 1<<16),
		filename:    name,
		header:      H,
		nScalars:    H.NScalars(),
		nProperties: H.NProperties(),
		floats:      make([]float32, 0, 300),
		writeable:   true,
	}
	W.b = binio.NewWriter(W.bw, binary.LittleEndian)
	if _, err := H.WriteTo(W.bw); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	W.setAffine(inv)
	return W, nil
}

//Header returns the header written to the file. The streamline count
//in it is not updated.
func (W *Writer) Header() *Header {
	return W.header
}

//Count returns the number of streamlines written so far.
func (W *Writer) Count() int32 {
	return W.count
}

//Affine4 returns the transformation applied to the points before writing them.
func (W *Writer) Affine4() Affine4 {
	return W.affine4
}

func (W *Writer) setAffine(a Affine4) {
	W.affine4 = a
	W.affine, W.translation = Decompose(a)
}

func (W *Writer) checkMode(caller string) error {
	if !W.writeable {
		return newError(ErrClosed, W.filename, caller, "writer already closed")
	}
	if W.started {
		return newError(ErrMode, W.filename, caller, "the transformation can't change after the first streamline")
	}
	return nil
}

//ResetAffine makes the writer store the points as given, without transformation.
func (W *Writer) ResetAffine() error {
	if err := W.checkMode("ResetAffine"); err != nil {
		return err
	}
	W.setAffine(Identity4())
	return nil
}

//ApplyAffine adds a to the transformation of the points. a is applied
//first, so it should take the points to world space (RAS+, mm).
func (W *Writer) ApplyAffine(a Affine4) error {
	if err := W.checkMode("ApplyAffine"); err != nil {
		return err
	}
	W.setAffine(W.affine4.Mul(a))
	return nil
}

//ToVoxelSpace makes the writer take points in voxel coordinates, which are
//multiplied by spacing before writing them. It mirrors Reader.ToVoxelSpace.
func (W *Writer) ToVoxelSpace(spacing [3]float32) error {
	if err := W.checkMode("ToVoxelSpace"); err != nil {
		return err
	}
	W.setAffine(Scale4(spacing[0], spacing[1], spacing[2]))
	return nil
}

//transform returns the point p, in file space, appended to dst.
func (W *Writer) transform(dst []float32, p Point) []float32 {
	q := W.affine.Apply(p)
	return append(dst, q[0]+W.translation[0], q[1]+W.translation[1], q[2]+W.translation[2])
}

//record writes the count and the point data for one streamline, plus the scratch
//buffer (which must contain the points, scalars and properties), and counts it.
func (W *Writer) record(caller string, n int) error {
	if n > math.MaxInt32 {
		return newError(ErrFormat, W.filename, caller, "streamline with %d points", n)
	}
	W.started = true
	W.b.Int32(int32(n))
	W.b.Float32s(W.floats)
	if err := W.b.Err(); err != nil {
		return wrapError(ErrIO, W.filename, caller, err)
	}
	W.count++
	return nil
}

func (W *Writer) checkWrite(caller string, noChannels bool) error {
	if !W.writeable {
		return newError(ErrClosed, W.filename, caller, "writer already closed")
	}
	if noChannels && (W.nScalars > 0 || W.nProperties > 0) {
		return newError(ErrChannels, W.filename, caller, "the header declares %d scalars and %d properties, but none were given", W.nScalars, W.nProperties)
	}
	return nil
}

//WritePoints writes a streamline without channels. It fails if the header
//declares scalars or properties.
func (W *Writer) WritePoints(p []Point) error {
	if err := W.checkWrite("WritePoints", true); err != nil {
		return err
	}
	W.floats = W.floats[:0]
	for _, v := range p {
		W.floats = W.transform(W.floats, v)
	}
	return W.record("WritePoints", len(p))
}

//WriteFrom writes a streamline of n points taken from seq. It fails, without
//writing anything, if seq doesn't yield exactly n points or if the header declares
//scalars or properties.
func (W *Writer) WriteFrom(seq iter.Seq[Point], n int) error {
	if err := W.checkWrite("WriteFrom", true); err != nil {
		return err
	}
	W.floats = W.floats[:0]
	got := 0
	for p := range seq {
		W.floats = W.transform(W.floats, p)
		got++
	}
	if got != n {
		return newError(ErrFormat, W.filename, "WriteFrom", "%d points announced, but %d given", n, got)
	}
	return W.record("WriteFrom", n)
}

//WriteItem writes a streamline with its channels, which must match the header.
func (W *Writer) WriteItem(item *TractogramItem) error {
	if err := W.checkWrite("WriteItem", false); err != nil {
		return err
	}
	if len(item.Properties) != W.nProperties {
		return newError(ErrChannels, W.filename, "WriteItem", "%d properties given, the header declares %d", len(item.Properties), W.nProperties)
	}
	W.floats = W.floats[:0]
	if W.nScalars == 0 {
		if len(item.Scalars) > 0 {
			return newError(ErrChannels, W.filename, "WriteItem", "scalars given, but the header declares none")
		}
		for _, p := range item.Streamline {
			W.floats = W.transform(W.floats, p)
		}
	} else {
		if len(item.Scalars) != len(item.Streamline) {
			return newError(ErrChannels, W.filename, "WriteItem", "%d points but scalars for %d", len(item.Streamline), len(item.Scalars))
		}
		for k, p := range item.Streamline {
			if len(item.Scalars[k]) != W.nScalars {
				return newError(ErrChannels, W.filename, "WriteItem", "point %d has %d scalars, the header declares %d", k, len(item.Scalars[k]), W.nScalars)
			}
			W.floats = W.transform(W.floats, p)
			W.floats = append(W.floats, item.Scalars[k]...)
		}
	}
	W.floats = append(W.floats, item.Properties...)
	return W.record("WriteItem", len(item.Streamline))
}

//WriteTractogram writes all the streamlines in T, with their channels.
func (W *Writer) WriteTractogram(T *Tractogram) error {
	for _, item := range T.Items() {
		if err := W.WriteItem(&item); err != nil {
			return errDecorate(err, "WriteTractogram")
		}
	}
	return nil
}

//Close flushes the data, writes the real streamline count in the header and, if
//the Writer created the file, closes it (compressing it first, if needed).
//Closing an already closed Writer does nothing.
func (W *Writer) Close() error {
	if W == nil || !W.writeable {
		return nil
	}
	W.writeable = false
	runtime.SetFinalizer(W, nil)
	if err := W.bw.Flush(); err != nil {
		W.release()
		return wrapError(ErrFinalize, W.filename, "Close", err)
	}
	if err := PatchCount(W.ws, W.count); err != nil {
		W.release()
		return wrapError(ErrFinalize, W.filename, "Close", err)
	}
	if W.file == nil {
		//not ours, we just leave it at the end.
		if _, err := W.ws.Seek(0, io.SeekEnd); err != nil {
			return wrapError(ErrIO, W.filename, "Close", err)
		}
		return nil
	}
	if W.staged != nil {
		if err := W.staged.finish(); err != nil {
			return wrapError(ErrIO, W.filename, "Close", err)
		}
		return nil
	}
	if err := W.file.Close(); err != nil {
		return wrapError(ErrIO, W.filename, "Close", err)
	}
	return nil
}

//release closes what the Writer owns after a failure.
func (W *Writer) release() {
	if W.staged != nil {
		W.staged.discard()
	} else if W.file != nil {
		W.file.Close()
	}
}
