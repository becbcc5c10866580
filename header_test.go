package trk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHeaderRoundTrip(Te *testing.T) {
	H := DefaultHeader()
	b := headerBytes(Te, H)
	assert.Len(Te, b, HeaderSize)
	assert.Equal(Te, "TRACK\x00", string(b[:6]))
	assert.Equal(Te, uint32(2), binary.LittleEndian.Uint32(b[VersionOffset:]))
	assert.Equal(Te, uint32(HeaderSize), binary.LittleEndian.Uint32(b[VersionOffset+4:]))

	H2, err := ReadHeader(bytes.NewReader(b))
	require.NoError(Te, err)
	assert.True(Te, H.Equal(H2))
	assert.Equal(Te, binary.LittleEndian, H2.Endian)
	assert.Equal(Te, "RAS", H2.VoxelOrderString())
	assert.Equal(Te, 0, H2.NScalars())
	assert.Equal(Te, 0, H2.NProperties())
}

func TestHeaderFieldsRoundTrip(Te *testing.T) {
	H := lpsHeader()
	H.Origin = [3]float32{1, 2, 3}
	H.VoxelSize = [3]float32{2, 2.5, 3}
	H.ImageOrientationPatient = [6]float32{1, 0, 0, 0, 1, 0}
	H.InvertY = 1
	H.SwapZ = 1
	H.NCount = 42
	H.Reserved[10] = 7
	require.NoError(Te, H.AddScalar("fa"))
	require.NoError(Te, H.AddProperty("length"))
	H2, err := ReadHeader(bytes.NewReader(headerBytes(Te, H)))
	require.NoError(Te, err)
	assert.True(Te, H.Equal(H2))
	assert.Equal(Te, int32(42), H2.NCount)
	assert.Equal(Te, []string{"fa"}, H2.ScalarNames)
	assert.Equal(Te, []string{"length"}, H2.PropertyNames)

	//the count and the byte order don't count for equality
	H2.NCount = 0
	H2.Endian = binary.BigEndian
	assert.True(Te, H.Equal(H2))
	H2.InvertX = 1
	assert.False(Te, H.Equal(H2))
}

func TestDetectEndian(Te *testing.T) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[VersionOffset:], 2)
	assert.Equal(Te, binary.LittleEndian, DetectEndian(buf))
	//bytes 00 02 00 00 read as 512 little-endian
	copy(buf[VersionOffset:], []byte{0, 2, 0, 0})
	assert.Equal(Te, uint32(512), binary.LittleEndian.Uint32(buf[VersionOffset:]))
	assert.Equal(Te, binary.BigEndian, DetectEndian(buf))
	//version 2 written big-endian reads as 0x02000000
	binary.BigEndian.PutUint32(buf[VersionOffset:], 2)
	assert.Equal(Te, uint32(0x02000000), binary.LittleEndian.Uint32(buf[VersionOffset:]))
	assert.Equal(Te, binary.BigEndian, DetectEndian(buf))
	binary.LittleEndian.PutUint32(buf[VersionOffset:], 255)
	assert.Equal(Te, binary.LittleEndian, DetectEndian(buf))
}

func TestBigEndianHeader(Te *testing.T) {
	H := lpsHeader()
	H.NCount = 3
	H.VoxelSize = [3]float32{1.5, 2, 3}
	H.VoxToRAS[0][3] = 12.25
	require.NoError(Te, H.AddScalar("colors"))
	le := headerBytes(Te, H)
	be := swapHeader(le)
	require.NotEqual(Te, le, be)

	Hle, err := ReadHeader(bytes.NewReader(le))
	require.NoError(Te, err)
	Hbe, err := ReadHeader(bytes.NewReader(be))
	require.NoError(Te, err)
	assert.Equal(Te, binary.BigEndian, Hbe.Endian)
	assert.True(Te, Hle.Equal(Hbe))
	assert.Equal(Te, int32(3), Hbe.NCount)
	assert.Equal(Te, float32(12.25), Hbe.VoxToRAS[0][3])
}

func TestDecodeNames(Te *testing.T) {
	for _, legacy := range []string{"colors\x003", "colors\x00\x03"} {
		table := make([]byte, NameTableSize)
		copy(table, legacy)
		copy(table[NameSlotSize:], "fa")
		assert.Equal(Te, []string{"colors", "colors", "colors", "fa"}, DecodeNames(table, 4), "%q", legacy)
		//extra repetitions are cut
		assert.Equal(Te, []string{"colors", "colors"}, DecodeNames(table, 2))
		//missing names are empty
		assert.Equal(Te, []string{"colors", "colors", "colors", "fa", ""}, DecodeNames(table, 5))
	}

	//a 20-byte name fills its slot
	table := make([]byte, NameTableSize)
	name := strings.Repeat("a", NameSlotSize)
	copy(table, name)
	copy(table[NameSlotSize:], "b")
	assert.Equal(Te, []string{name, "b"}, DecodeNames(table, 2))

	//decoding stops at the first empty slot
	table = make([]byte, NameTableSize)
	copy(table, "x")
	copy(table[2*NameSlotSize:], "z")
	assert.Equal(Te, []string{"x", ""}, DecodeNames(table, 2))

	assert.Empty(Te, DecodeNames(table, 0))
}

func TestEncodeNames(Te *testing.T) {
	table, err := EncodeNames([]string{"fa", "md"})
	require.NoError(Te, err)
	assert.Equal(Te, "fa", string(bytes.TrimRight(table[:NameSlotSize], "\x00")))
	assert.Equal(Te, "md", string(bytes.TrimRight(table[NameSlotSize:2*NameSlotSize], "\x00")))
	assert.Equal(Te, []string{"fa", "md"}, DecodeNames(table[:], 2))

	_, err = EncodeNames(make([]string, MaxNames+1))
	assert.ErrorIs(Te, err, ErrCapacity)

	//a gap would end the table early
	_, err = EncodeNames([]string{"", "fa"})
	assert.ErrorIs(Te, err, ErrFormat)
	//trailing empty names are empty slots
	table, err = EncodeNames([]string{"fa", ""})
	require.NoError(Te, err)
	assert.Equal(Te, []string{"fa", ""}, DecodeNames(table[:], 2))
}

func TestEmptyNameRoundTrip(Te *testing.T) {
	H := DefaultHeader()
	assert.ErrorIs(Te, H.AddScalar(""), ErrFormat)
	assert.ErrorIs(Te, H.AddProperty(""), ErrFormat)
	require.NoError(Te, H.AddScalar("fa"))
	assert.Equal(Te, []string{"fa"}, H.ScalarNames)
	assert.Empty(Te, H.PropertyNames)

	H.ScalarNames = []string{"", "fa"}
	_, err := H.WriteTo(&bytes.Buffer{})
	assert.ErrorIs(Te, err, ErrFormat)
}

func TestAddNames(Te *testing.T) {
	H := DefaultHeader()
	for i := 0; i < MaxNames; i++ {
		require.NoError(Te, H.AddScalar(string(rune('a'+i))))
	}
	err := H.AddScalar("k")
	assert.ErrorIs(Te, err, ErrCapacity)
	assert.Equal(Te, MaxNames, H.NScalars())

	assert.NoError(Te, H.AddProperty(strings.Repeat("p", NameSlotSize)))
	err = H.AddProperty(strings.Repeat("p", NameSlotSize+1))
	assert.ErrorIs(Te, err, ErrNameTooLong)
	err = H.AddProperty("anisotropé")
	assert.ErrorIs(Te, err, ErrNonASCII)
	assert.Equal(Te, 1, H.NProperties())

	var e *Error
	require.True(Te, errors.As(err, &e))
	assert.True(Te, e.Critical())
	assert.Equal(Te, "trk", e.Format())
	assert.Contains(Te, e.Decorate(""), "AddProperty")
}

func TestHeaderClone(Te *testing.T) {
	H := DefaultHeader()
	require.NoError(Te, H.AddScalar("fa"))
	C := H.Clone()
	require.NoError(Te, C.AddScalar("md"))
	C.VoxToRAS[0][0] = 3
	assert.Equal(Te, []string{"fa"}, H.ScalarNames)
	assert.Equal(Te, float32(1), H.VoxToRAS[0][0])
	assert.False(Te, H.Equal(C))
}

func TestReadHeaderErrors(Te *testing.T) {
	good := headerBytes(Te, DefaultHeader())

	_, err := ReadHeader(bytes.NewReader(good[:500]))
	assert.ErrorIs(Te, err, ErrTruncated)
	_, err = ReadHeader(bytes.NewReader(nil))
	assert.ErrorIs(Te, err, ErrTruncated)

	bad := bytes.Clone(good)
	copy(bad, "TRACE")
	_, err = ReadHeader(bytes.NewReader(bad))
	assert.ErrorIs(Te, err, ErrFormat)

	bad = bytes.Clone(good)
	binary.LittleEndian.PutUint32(bad[VersionOffset+4:], 348)
	_, err = ReadHeader(bytes.NewReader(bad))
	assert.ErrorIs(Te, err, ErrFormat)

	bad = bytes.Clone(good)
	binary.LittleEndian.PutUint16(bad[36:], 11)
	_, err = ReadHeader(bytes.NewReader(bad))
	assert.ErrorIs(Te, err, ErrFormat)

	bad = bytes.Clone(good)
	binary.LittleEndian.PutUint16(bad[238:], 0xffff)
	_, err = ReadHeader(bytes.NewReader(bad))
	assert.ErrorIs(Te, err, ErrFormat)
}

func TestReadHeaderFile(Te *testing.T) {
	path := simpleFile(Te)
	H, err := ReadHeaderFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, int32(3), H.NCount)

	_, err = ReadHeaderFile(filepath.Join(Te.TempDir(), "missing.trk"))
	assert.ErrorIs(Te, err, ErrIO)

	short := writeFile(Te, "short.trk", []byte("TRACK"))
	_, err = ReadHeaderFile(short)
	assert.ErrorIs(Te, err, ErrTruncated)
	var e *Error
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, short, e.FileName())
}

func TestPatchCount(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "count.trk")
	f, err := os.Create(path)
	require.NoError(Te, err)
	defer f.Close()
	_, err = DefaultHeader().WriteTo(f)
	require.NoError(Te, err)

	require.NoError(Te, PatchCount(f, 17))
	n, err := ReadCount(f, binary.LittleEndian)
	require.NoError(Te, err)
	assert.Equal(Te, int32(17), n)

	H, err := ReadHeaderFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, int32(17), H.NCount)
}
