package orient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineToAxcodes(Te *testing.T) {
	id := [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	assert.Equal(Te, "RAS", AffineToAxcodes(id))

	a := [3][3]float32{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}
	assert.Equal(Te, "PRS", AffineToAxcodes(a))
	assert.Equal(Te, "PRS", AffineToAxcodes(a), "a second call must give the same answer")

	//zooms don't change the orientation
	scaled := [3][3]float32{{-2, 0, 0}, {0, 0.5, 0}, {0, 0, 3}}
	assert.Equal(Te, "LAS", AffineToAxcodes(scaled))

	//a small shear doesn't either
	sheared := [3][3]float32{{1, 0.1, 0}, {0, 1, 0}, {0.2, 0, -1}}
	assert.Equal(Te, "RAI", AffineToAxcodes(sheared))
}

func TestFromAxcodes(Te *testing.T) {
	tests := []struct {
		codes string
		want  Orientations
	}{
		{"RAS", Orientations{{0, Normal}, {1, Normal}, {2, Normal}}},
		{"LPI", Orientations{{0, Reversed}, {1, Reversed}, {2, Reversed}}},
		{"SAR", Orientations{{2, Normal}, {1, Normal}, {0, Normal}}},
		{"AIR", Orientations{{1, Normal}, {2, Reversed}, {0, Normal}}},
		{"LPS\x00", Orientations{{0, Reversed}, {1, Reversed}, {2, Normal}}},
	}
	for _, t := range tests {
		got, err := FromAxcodes(t.codes)
		require.NoError(Te, err, t.codes)
		assert.Equal(Te, t.want, got, t.codes)
		assert.True(Te, got.Valid())
	}
}

func TestFromAxcodesErrors(Te *testing.T) {
	for _, bad := range []string{"", "RA", "RAX", "RRS", "LAR", "ras"} {
		_, err := FromAxcodes(bad)
		assert.Error(Te, err, bad)
	}
}

func TestToAxcodes(Te *testing.T) {
	assert.Equal(Te, "RAS", ToAxcodes(Orientations{{0, Normal}, {1, Normal}, {2, Normal}}))
	assert.Equal(Te, "LPI", ToAxcodes(Orientations{{0, Reversed}, {1, Reversed}, {2, Reversed}}))
	assert.Equal(Te, "IPL", ToAxcodes(Orientations{{2, Reversed}, {1, Reversed}, {0, Reversed}}))
	assert.Equal(Te, "AIR", ToAxcodes(Orientations{{1, Normal}, {2, Reversed}, {0, Normal}}))
}

func TestTransform(Te *testing.T) {
	got := Transform(
		Orientations{{0, Normal}, {1, Normal}, {2, Reversed}},
		Orientations{{1, Normal}, {0, Normal}, {2, Normal}},
	)
	assert.Equal(Te, Orientations{{1, Normal}, {0, Normal}, {2, Reversed}}, got)

	got = Transform(
		Orientations{{0, Normal}, {1, Normal}, {2, Normal}},
		Orientations{{2, Normal}, {0, Reversed}, {1, Normal}},
	)
	assert.Equal(Te, Orientations{{1, Reversed}, {2, Normal}, {0, Normal}}, got)
}

//Transforming any orientation into itself must leave every axis in place.
func TestTransformSelf(Te *testing.T) {
	letters := [3][2]byte{{'L', 'R'}, {'P', 'A'}, {'I', 'S'}}
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	n := 0
	for _, p := range perms {
		for signs := 0; signs < 8; signs++ {
			codes := make([]byte, 3)
			for i := 0; i < 3; i++ {
				codes[i] = letters[p[i]][(signs>>i)&1]
			}
			O, err := FromAxcodes(string(codes))
			require.NoError(Te, err)
			assert.Equal(Te, Identity(), Transform(O, O), string(codes))
			n++
		}
	}
	assert.Equal(Te, 48, n)
}

func TestInverseAffine(Te *testing.T) {
	id := InverseAffine(Identity(), [3]int16{10, 20, 30})
	assert.Equal(Te, [4][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}, id)

	O, err := FromAxcodes("LPS")
	require.NoError(Te, err)
	got := InverseAffine(O, [3]int16{4, 14, 2})
	want := [4][4]float32{
		{-1, 0, 0, 3},
		{0, -1, 0, 13},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	assert.Equal(Te, want, got)

	//a permutation without flips
	O = Orientations{{1, Normal}, {0, Normal}, {2, Normal}}
	got = InverseAffine(O, [3]int16{4, 14, 2})
	want = [4][4]float32{
		{0, 1, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	assert.Equal(Te, want, got)
}

func TestValid(Te *testing.T) {
	assert.True(Te, Identity().Valid())
	assert.False(Te, Orientations{{0, Normal}, {0, Normal}, {2, Normal}}.Valid())
	assert.False(Te, Orientations{{0, Normal}, {1, Normal}, {3, Normal}}.Valid())
}
