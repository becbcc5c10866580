package trk

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//identityHeader returns a header for which the transformation to world space
//is exactly the identity: the -0.5 voxel offset is undone by VoxToRAS.
func identityHeader() *Header {
	H := DefaultHeader()
	H.Dim = [3]int16{10, 10, 10}
	for i := 0; i < 3; i++ {
		H.VoxToRAS[i][3] = 0.5
	}
	return H
}

//lpsHeader returns a header with an LPS voxel order and an identity VoxToRAS.
func lpsHeader() *Header {
	H := DefaultHeader()
	H.Dim = [3]int16{4, 14, 2}
	H.VoxelOrder = [4]byte{'L', 'P', 'S', 0}
	return H
}

//headerBytes encodes H with WriteTo.
func headerBytes(Te *testing.T, H *Header) []byte {
	var b bytes.Buffer
	n, err := H.WriteTo(&b)
	require.NoError(Te, err)
	require.Equal(Te, int64(HeaderSize), n)
	return b.Bytes()
}

//numeric fields of the header, as offset, size of each value, number of values.
var headerFields = [][3]int{
	{6, 2, 3},    //dim
	{12, 4, 3},   //voxel_size
	{24, 4, 3},   //origin
	{36, 2, 1},   //n_scalars
	{238, 2, 1},  //n_properties
	{440, 4, 16}, //vox_to_ras
	{956, 4, 6},  //image_orientation_patient
	{988, 4, 3},  //n_count, version, hdr_size
}

//swapHeader converts an encoded header from one byte order to the other.
func swapHeader(b []byte) []byte {
	ret := bytes.Clone(b)
	for _, f := range headerFields {
		for i := 0; i < f[2]; i++ {
			start := f[0] + i*f[1]
			v := ret[start : start+f[1]]
			for l, r := 0, len(v)-1; l < r; l, r = l+1, r-1 {
				v[l], v[r] = v[r], v[l]
			}
		}
	}
	return ret
}

//record encodes a streamline with n points. floats has the 3+S values of each point,
//point after point, and props the P properties.
func record(order binary.AppendByteOrder, n int, floats []float32, props []float32) []byte {
	b := order.AppendUint32(nil, uint32(int32(n)))
	for _, f := range append(append([]float32{}, floats...), props...) {
		b = order.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

//pointFloats flattens points.
func pointFloats(p ...Point) []float32 {
	ret := make([]float32, 0, 3*len(p))
	for _, v := range p {
		ret = append(ret, v[0], v[1], v[2])
	}
	return ret
}

//simpleStreamlines are 3 streamlines of 1, 2 and 5 points.
var simpleStreamlines = [][]Point{
	{{0, 1, 2}},
	{{0, 1, 2}, {3, 4, 5}},
	{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, {9, 10, 11}, {12, 13, 14}},
}

//writeFile writes the concatenation of parts to a new file in a temporary
//directory, and returns its path.
func writeFile(Te *testing.T, name string, parts ...[]byte) string {
	path := filepath.Join(Te.TempDir(), name)
	require.NoError(Te, os.WriteFile(path, bytes.Join(parts, nil), 0o644))
	return path
}

//simpleFile returns the path of a file with simpleStreamlines, an identity
//transformation and n_count set to 3.
func simpleFile(Te *testing.T) string {
	H := identityHeader()
	H.NCount = 3
	parts := [][]byte{headerBytes(Te, H)}
	for _, s := range simpleStreamlines {
		parts = append(parts, record(binary.LittleEndian, len(s), pointFloats(s...), nil))
	}
	return writeFile(Te, "simple.trk", parts...)
}

//complexParts returns the parts of a file with 3 scalars per point (colors x3, fa)
//and 3 properties per streamline, with a legacy scalar name table. The first
//streamline has 1 point, the second 2, the third 5.
func complexParts(Te *testing.T, order binary.AppendByteOrder) ([][]byte, *Tractogram) {
	H := identityHeader()
	H.NCount = 3
	H.ScalarNames = []string{"colors", "colors", "colors", "fa"}
	H.PropertyNames = []string{"mean_colors", "mean_curvature", "mean_torsion"}
	hdr := headerBytes(Te, H)
	//legacy table: "colors\x003", then "fa".
	table := make([]byte, NameTableSize)
	copy(table, "colors\x003")
	copy(table[NameSlotSize:], "fa")
	copy(hdr[38:38+NameTableSize], table)
	if order == binary.BigEndian {
		hdr = swapHeader(hdr)
	}
	parts := [][]byte{hdr}
	T := EmptyTractogram()
	for i, s := range simpleStreamlines {
		var floats []float32
		var scalars [][]float32
		for k, p := range s {
			sc := []float32{float32(k), float32(i), 1, float32(10*i + k)}
			scalars = append(scalars, sc)
			floats = append(floats, p[0], p[1], p[2])
			floats = append(floats, sc...)
		}
		props := []float32{float32(i), float32(i) * 0.5, -float32(i)}
		parts = append(parts, record(order, len(s), floats, props))
		T.Add(NewTractogramItem(s, scalars, props))
	}
	return parts, T
}

//writeTrk writes streamlines, given in world space, to a new file with header H.
func writeTrk(Te *testing.T, H *Header, streamlines ...[]Point) string {
	Te.Helper()
	path := filepath.Join(Te.TempDir(), "out.trk")
	W, err := Create(path, H)
	require.NoError(Te, err)
	for _, s := range streamlines {
		require.NoError(Te, W.WritePoints(s))
	}
	require.NoError(Te, W.Close())
	return path
}
