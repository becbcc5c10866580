/*
 * orient.go, part of gotrk.
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
 * The orientation algebra follows the one in NiBabel (MIT licensed).
 */

//Package orient finds which world axis each voxel axis of an affine is closest to,
//and converts between that information and the 3-letter axis codes (RAS, LPS...) used
//in neuroimaging headers.
package orient

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//Direction tells whether an axis keeps the direction of the axis it maps to
//or reverses it.
type Direction int

const (
	Normal Direction = iota
	Reversed
)

func (d Direction) String() string {
	if d == Reversed {
		return "Reversed"
	}
	return "Normal"
}

//Sign returns 1 for Normal and -1 for Reversed.
func (d Direction) Sign() float32 {
	if d == Reversed {
		return -1
	}
	return 1
}

//Orientation is the output axis an input axis maps to, and in which direction.
type Orientation struct {
	Axis int
	Dir  Direction
}

//Orientations holds an Orientation for each of the 3 input axes.
//A valid Orientations is a signed permutation: each output axis appears once.
type Orientations [3]Orientation

//Identity returns the orientations that leave every axis in place.
func Identity() Orientations {
	return Orientations{{0, Normal}, {1, Normal}, {2, Normal}}
}

//Valid returns true if O is a signed permutation of the 3 axes.
func (O Orientations) Valid() bool {
	var seen [3]bool
	for _, o := range O {
		if o.Axis < 0 || o.Axis > 2 || seen[o.Axis] {
			return false
		}
		seen[o.Axis] = true
	}
	return true
}

//labels[axis] = {reversed letter, normal letter}
var labels = [3][2]byte{{'L', 'R'}, {'P', 'A'}, {'I', 'S'}}

//ToAxcodes converts orientations to a 3-letter axis code such as "RAS".
func ToAxcodes(O Orientations) string {
	b := make([]byte, 3)
	for i, o := range O {
		if o.Dir == Normal {
			b[i] = labels[o.Axis][1]
		} else {
			b[i] = labels[o.Axis][0]
		}
	}
	return string(b)
}

//FromAxcodes converts the first 3 letters of codes (i.e. "RAS", "LPS\x00") to
//orientations. Unknown letters, short strings and codes that use an axis twice are
//errors.
func FromAxcodes(codes string) (Orientations, error) {
	var O Orientations
	if len(codes) < 3 {
		return O, fmt.Errorf("orient: axis codes %q too short", codes)
	}
	var seen [3]bool
	for i := 0; i < 3; i++ {
		c := codes[i]
		found := false
		for axis, l := range labels {
			switch c {
			case l[0]:
				O[i] = Orientation{axis, Reversed}
			case l[1]:
				O[i] = Orientation{axis, Normal}
			default:
				continue
			}
			found = true
			break
		}
		if !found {
			return O, fmt.Errorf("orient: invalid axis code %q in %q", c, codes)
		}
		if seen[O[i].Axis] {
			return O, fmt.Errorf("orient: axis codes %q use an axis twice", codes[:3])
		}
		seen[O[i].Axis] = true
	}
	return O, nil
}

//AffineToAxcodes returns the axis codes for the 3x3 linear map a.
func AffineToAxcodes(a [3][3]float32) string {
	return ToAxcodes(IOOrientations(a))
}

//IOOrientations returns, for each input axis (column) of a, the output axis (row)
//that changes most when that input axis changes, and the sign of the change.
//Scale and shear are removed first, by normalizing the columns and taking the closest
//rotation to the result (polar decomposition). Output axes are assigned greedily,
//column by column; once an output axis is taken it can't be picked again. Ties are
//resolved in favor of the first row found.
func IOOrientations(a [3][3]float32) Orientations {
	var zooms [3]float64
	for c := 0; c < 3; c++ {
		var s float64
		for r := 0; r < 3; r++ {
			s += float64(a[r][c]) * float64(a[r][c])
		}
		zooms[c] = math.Sqrt(s)
		if zooms[c] == 0 {
			//the whole column is zero, we leave it as it is.
			zooms[c] = 1
		}
	}
	rs := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rs.Set(r, c, float64(a[r][c])/zooms[c])
		}
	}
	R := polar(rs)
	O := Identity()
	for c := 0; c < 3; c++ {
		argmax := 0
		max := 0.0
		sign := 0.0
		for r := 0; r < 3; r++ {
			v := R.At(r, c)
			if math.Abs(v) > max {
				argmax = r
				max = math.Abs(v)
				sign = v
			}
		}
		if sign >= 0 {
			O[c] = Orientation{argmax, Normal}
		} else {
			O[c] = Orientation{argmax, Reversed}
		}
		//the output axis is taken, remove it from further consideration.
		for k := 0; k < 3; k++ {
			R.Set(argmax, k, 0)
		}
	}
	return O
}

//polar returns U*V^T, from the SVD of m, with the singular vectors of singular
//values smaller than max(s)*3*eps (float32) removed.
func polar(m *mat.Dense) *mat.Dense {
	var svd mat.SVD
	R := mat.NewDense(3, 3, nil)
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return R
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	max := 0.0
	for _, val := range s {
		max = math.Max(max, val)
	}
	tol := max * 3 * float64(math.Nextafter32(1, 2)-1)
	for k, val := range s {
		if val <= tol {
			continue
		}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				R.Set(r, c, R.At(r, c)+u.At(r, k)*v.At(c, k))
			}
		}
	}
	return R
}

//Transform returns the orientations that take the axes of start to
//those of end. For each input axis of end, the input axis of start that
//maps to the same output axis is found, and the directions are compared.
func Transform(start, end Orientations) Orientations {
	ret := Identity()
	for endIn, e := range end {
		for startIn, s := range start {
			if e.Axis != s.Axis {
				continue
			}
			if e.Dir == s.Dir {
				ret[startIn] = Orientation{endIn, Normal}
			} else {
				ret[startIn] = Orientation{endIn, Reversed}
			}
			break
		}
	}
	return ret
}

//InverseAffine returns the 4x4 affine that reverses the transformation implied by
//O on an array of shape dim. Given an array index in the transformed array, the
//affine returns the corresponding index in the original one. Flips act around
//the center of the grid, -(dim-1)/2.
func InverseAffine(O Orientations, dim [3]int16) [4][4]float32 {
	var reorder [4][4]float32
	for i, o := range O {
		reorder[i][o.Axis] = 1
	}
	reorder[3][3] = 1

	var flip [4][4]float32
	for i, o := range O {
		center := -float32(dim[i]-1) / 2
		sign := o.Dir.Sign()
		flip[i][i] = sign
		flip[i][3] = sign*center - center
	}
	flip[3][3] = 1

	var ret [4][4]float32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += flip[i][k] * reorder[k][j]
			}
			ret[i][j] = s
		}
	}
	return ret
}
