package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	trk "github.com/rmera/gotrk"
)

func testFile(Te *testing.T, name string) string {
	path := filepath.Join(Te.TempDir(), name)
	H := trk.DefaultHeader()
	H.Dim = [3]int16{4, 14, 2}
	H.VoxelOrder = [4]byte{'L', 'P', 'S', 0}
	require.NoError(Te, H.AddScalar("fa"))
	W, err := trk.Create(path, H)
	require.NoError(Te, err)
	item := trk.NewTractogramItem([]trk.Point{{1, 2, 3}, {4, 5, 6}}, [][]float32{{0.5}, {0.25}}, nil)
	require.NoError(Te, W.WriteItem(item))
	require.NoError(Te, W.Close())
	return path
}

func TestPrintText(Te *testing.T) {
	path := testFile(Te, "h.trk.gz")
	var b bytes.Buffer
	require.NoError(Te, printText(&b, path, false))
	out := b.String()
	assert.Contains(Te, out, "id_string: [84 82 65 67 75 0] (TRACK)\n")
	assert.Contains(Te, out, "dim: [4 14 2]\n")
	assert.Contains(Te, out, "n_scalars: 1\n  0: fa\n")
	assert.Contains(Te, out, "voxel_order: [76 80 83 0] (LPS)\n")
	assert.Contains(Te, out, "n_count: 1\n")
	assert.NotContains(Te, out, "Computed")

	b.Reset()
	require.NoError(Te, printText(&b, path, true))
	out = b.String()
	assert.Contains(Te, out, "---------- Computed fields ----------")
	assert.Contains(Te, out, "endianness: little\n")
	assert.Contains(Te, out, "to_rasmm:\n")
}

func TestPrintYAML(Te *testing.T) {
	path := testFile(Te, "h.trk")
	var b bytes.Buffer
	require.NoError(Te, printYAML(&b, path, true))
	var d headerDoc
	require.NoError(Te, yaml.Unmarshal(b.Bytes(), &d))
	assert.Equal(Te, "TRACK", d.IDString)
	assert.Equal(Te, [3]int16{4, 14, 2}, d.Dim)
	assert.Equal(Te, []string{"fa"}, d.ScalarNames)
	assert.Equal(Te, "LPS", d.VoxelOrder)
	assert.Equal(Te, int32(1), d.NCount)
	require.NotNil(Te, d.Computed)
	assert.Equal(Te, "little", d.Computed.Endianness)
	assert.Equal(Te, float32(-1), d.Computed.ToRASMM[0][0])
	assert.Equal(Te, float32(3.5), d.Computed.ToRASMM[0][3])
}

func TestPrintMissing(Te *testing.T) {
	var b bytes.Buffer
	err := printText(&b, filepath.Join(Te.TempDir(), "none.trk"), false)
	assert.ErrorIs(Te, err, trk.ErrIO)
	err = printYAML(&b, filepath.Join(Te.TempDir(), "none.trk"), false)
	assert.ErrorIs(Te, err, trk.ErrIO)
}
