/*
 * header.go, part of gotrk.
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
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"slices"

	"github.com/rmera/gotrk/internal/binio"
)

//Layout of the TrackVis header. See http://www.trackvis.org/docs/?subsect=fileformat
const (
	HeaderSize    = 1000
	NCountOffset  = HeaderSize - 12 //988
	VersionOffset = HeaderSize - 8  //992
	MaxNames      = 10
	NameSlotSize  = 20
	NameTableSize = MaxNames * NameSlotSize
	reservedSize  = 444
)

//Header contains the fields of the 1000-byte TrackVis header.
//The scalar and property counts are not stored, they are the lengths
//of ScalarNames and PropertyNames.
type Header struct {
	IDString                [6]byte
	Dim                     [3]int16
	VoxelSize               [3]float32
	Origin                  [3]float32
	ScalarNames             []string
	PropertyNames           []string
	VoxToRAS                [4][4]float32 //VoxToRAS[row][column], as on disk.
	Reserved                [reservedSize]byte
	VoxelOrder              [4]byte
	Pad2                    [4]byte
	ImageOrientationPatient [6]float32
	Pad1                    [2]byte
	InvertX                 uint8
	InvertY                 uint8
	InvertZ                 uint8
	SwapX                   uint8
	SwapY                   uint8
	SwapZ                   uint8
	NCount                  int32
	Version                 int32
	HdrSize                 int32

	Endian binary.ByteOrder //Byte order of the file the header was read from. Headers are always written little-endian.
}

//DefaultHeader returns a header for an empty RAS volume of 1 mm voxels with an identity VoxToRAS.
func DefaultHeader() *Header {
	H := &Header{
		IDString:      [6]byte{'T', 'R', 'A', 'C', 'K', 0},
		VoxelSize:     [3]float32{1, 1, 1},
		VoxToRAS:      [4][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		VoxelOrder:    [4]byte{'R', 'A', 'S', 0},
		ScalarNames:   []string{},
		PropertyNames: []string{},
		Version:       2,
		HdrSize:       HeaderSize,
		Endian:        binary.LittleEndian,
	}
	return H
}

//NScalars returns the number of scalar values stored for each point.
func (H *Header) NScalars() int {
	return len(H.ScalarNames)
}

//NProperties returns the number of property values stored for each streamline.
func (H *Header) NProperties() int {
	return len(H.PropertyNames)
}

//VoxelOrderString returns the voxel order without its trailing NUL bytes.
func (H *Header) VoxelOrderString() string {
	return string(bytes.TrimRight(H.VoxelOrder[:], "\x00"))
}

//AddScalar adds a scalar channel called name to the header.
func (H *Header) AddScalar(name string) error {
	if err := checkName(name, len(H.ScalarNames)); err != nil {
		return errDecorate(err, "AddScalar")
	}
	H.ScalarNames = append(H.ScalarNames, name)
	return nil
}

//AddProperty adds a property channel called name to the header.
func (H *Header) AddProperty(name string) error {
	if err := checkName(name, len(H.PropertyNames)); err != nil {
		return errDecorate(err, "AddProperty")
	}
	H.PropertyNames = append(H.PropertyNames, name)
	return nil
}

//Clone returns a deep copy of H.
func (H *Header) Clone() *Header {
	ret := *H
	ret.ScalarNames = slices.Clone(H.ScalarNames)
	ret.PropertyNames = slices.Clone(H.PropertyNames)
	if ret.ScalarNames == nil {
		ret.ScalarNames = []string{}
	}
	if ret.PropertyNames == nil {
		ret.PropertyNames = []string{}
	}
	return &ret
}

//Equal returns true if H and o have the same fields, without considering
//the streamline count and the byte order.
func (H *Header) Equal(o *Header) bool {
	if !slices.Equal(H.ScalarNames, o.ScalarNames) || !slices.Equal(H.PropertyNames, o.PropertyNames) {
		return false
	}
	a, b := *H, *o
	a.NCount, b.NCount = 0, 0
	a.Endian, b.Endian = nil, nil
	a.ScalarNames, b.ScalarNames = nil, nil
	a.PropertyNames, b.PropertyNames = nil, nil
	return reflect.DeepEqual(a, b)
}

//DetectEndian returns the byte order of a header, given at least its first
//VersionOffset+4 bytes. The version is 1 or 2, so, read as little-endian,
//it only goes above 255 if the file is big-endian.
func DetectEndian(buf []byte) binary.ByteOrder {
	if binary.LittleEndian.Uint32(buf[VersionOffset:VersionOffset+4]) > 255 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

//ReadHeader reads and validates a header from r, detecting its byte order.
func ReadHeader(r io.Reader) (*Header, error) {
	return readHeader(r, "")
}

//ReadHeaderFile reads the header of the file in path, which
//can be compressed (see Open).
func ReadHeaderFile(path string) (*Header, error) {
	rc, err := openDecompressed(path)
	if err != nil {
		return nil, errDecorate(err, "ReadHeaderFile")
	}
	defer rc.Close()
	return readHeader(rc, path)
}

func readHeader(r io.Reader, filename string) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newError(ErrTruncated, filename, "ReadHeader", "header shorter than %d bytes", HeaderSize)
		}
		return nil, wrapError(ErrIO, filename, "ReadHeader", err)
	}
	order := DetectEndian(buf)
	H := &Header{Endian: order}
	b := binio.NewReader(bytes.NewReader(buf), order)
	b.Bytes(H.IDString[:])
	for i := range H.Dim {
		H.Dim[i] = b.Int16()
	}
	for i := range H.VoxelSize {
		H.VoxelSize[i] = b.Float32()
	}
	for i := range H.Origin {
		H.Origin[i] = b.Float32()
	}
	nScalars := b.Int16()
	var scalarTable [NameTableSize]byte
	b.Bytes(scalarTable[:])
	nProperties := b.Int16()
	var propertyTable [NameTableSize]byte
	b.Bytes(propertyTable[:])
	for i := range H.VoxToRAS {
		b.Float32s(H.VoxToRAS[i][:])
	}
	b.Bytes(H.Reserved[:])
	b.Bytes(H.VoxelOrder[:])
	b.Bytes(H.Pad2[:])
	b.Float32s(H.ImageOrientationPatient[:])
	b.Bytes(H.Pad1[:])
	H.InvertX = b.Uint8()
	H.InvertY = b.Uint8()
	H.InvertZ = b.Uint8()
	H.SwapX = b.Uint8()
	H.SwapY = b.Uint8()
	H.SwapZ = b.Uint8()
	H.NCount = b.Int32()
	H.Version = b.Int32()
	H.HdrSize = b.Int32()
	if err := b.Err(); err != nil {
		//really shouldn't happen, the buffer has the right size.
		return nil, wrapError(ErrIO, filename, "ReadHeader", err)
	}

	if string(H.IDString[:5]) != "TRACK" {
		return nil, newError(ErrFormat, filename, "ReadHeader", "wrong magic string %q", H.IDString[:5])
	}
	if H.HdrSize != HeaderSize {
		return nil, newError(ErrFormat, filename, "ReadHeader", "hdr_size is %d, should be %d", H.HdrSize, HeaderSize)
	}
	if nScalars < 0 || nScalars > MaxNames {
		return nil, newError(ErrFormat, filename, "ReadHeader", "%d scalars declared, the maximum is %d", nScalars, MaxNames)
	}
	if nProperties < 0 || nProperties > MaxNames {
		return nil, newError(ErrFormat, filename, "ReadHeader", "%d properties declared, the maximum is %d", nProperties, MaxNames)
	}
	H.ScalarNames = DecodeNames(scalarTable[:], int(nScalars))
	H.PropertyNames = DecodeNames(propertyTable[:], int(nProperties))
	return H, nil
}

//WriteTo writes the header to w, little-endian, field by field.
//It implements io.WriterTo.
func (H *Header) WriteTo(w io.Writer) (int64, error) {
	scalarTable, err := EncodeNames(H.ScalarNames)
	if err != nil {
		return 0, errDecorate(err, "WriteTo")
	}
	propertyTable, err := EncodeNames(H.PropertyNames)
	if err != nil {
		return 0, errDecorate(err, "WriteTo")
	}
	b := binio.NewWriter(w, binary.LittleEndian)
	b.Bytes(H.IDString[:])
	for _, v := range H.Dim {
		b.Int16(v)
	}
	b.Float32s(H.VoxelSize[:])
	b.Float32s(H.Origin[:])
	b.Int16(int16(len(H.ScalarNames)))
	b.Bytes(scalarTable[:])
	b.Int16(int16(len(H.PropertyNames)))
	b.Bytes(propertyTable[:])
	for i := range H.VoxToRAS {
		b.Float32s(H.VoxToRAS[i][:])
	}
	b.Bytes(H.Reserved[:])
	b.Bytes(H.VoxelOrder[:])
	b.Bytes(H.Pad2[:])
	b.Float32s(H.ImageOrientationPatient[:])
	b.Bytes(H.Pad1[:])
	for _, v := range []uint8{H.InvertX, H.InvertY, H.InvertZ, H.SwapX, H.SwapY, H.SwapZ} {
		b.Uint8(v)
	}
	b.Int32(H.NCount)
	b.Int32(H.Version)
	b.Int32(H.HdrSize)
	if err := b.Err(); err != nil {
		return b.Count(), wrapError(ErrIO, "", "WriteTo", err)
	}
	return b.Count(), nil
}

//PatchCount overwrites the streamline count of the header at the beginning of ws
//with n, little-endian. The position of ws after the call is right after the count field.
func PatchCount(ws io.WriteSeeker, n int32) error {
	if _, err := ws.Seek(NCountOffset, io.SeekStart); err != nil {
		return err
	}
	b := binio.NewWriter(ws, binary.LittleEndian)
	b.Int32(n)
	return b.Err()
}

//ReadCount reads the streamline count from the header at the beginning of rs.
func ReadCount(rs io.ReadSeeker, order binary.ByteOrder) (int32, error) {
	if _, err := rs.Seek(NCountOffset, io.SeekStart); err != nil {
		return 0, err
	}
	b := binio.NewReader(rs, order)
	n := b.Int32()
	return n, b.Err()
}
