/*
 * affine.go, part of gotrk.
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
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/gotrk/orient"
)

//Point is a 3D point, in voxel, TrackVis or world (RAS+ mm) space.
type Point [3]float32

//Affine is a 3x3 linear map, Affine[row][column].
type Affine [3][3]float32

//Affine4 is a 4x4 homogeneous transformation, Affine4[row][column].
//The last row is always 0 0 0 1.
type Affine4 [4][4]float32

//Translation is the translation part of an Affine4.
type Translation [3]float32

//Identity4 returns the 4x4 identity.
func Identity4() Affine4 {
	return Affine4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

//Scale4 returns a transformation that scales each axis by the given factor.
func Scale4(x, y, z float32) Affine4 {
	return Affine4{{x, 0, 0, 0}, {0, y, 0, 0}, {0, 0, z, 0}, {0, 0, 0, 1}}
}

//Mul returns the product A*B, the transformation that applies B first, then A.
func (A Affine4) Mul(B Affine4) Affine4 {
	var ret Affine4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += A[i][k] * B[k][j]
			}
			ret[i][j] = s
		}
	}
	return ret
}

func (A Affine4) dense() *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d.Set(i, j, float64(A[i][j]))
		}
	}
	return d
}

//Inverse returns the inverse of A. The inversion is done in double precision.
//It returns an error if A is singular, or too close to singular for the result to be useful.
func (A Affine4) Inverse() (Affine4, error) {
	var inv mat.Dense
	if err := inv.Inverse(A.dense()); err != nil {
		return Affine4{}, wrapError(ErrSingular, "", "Inverse", err)
	}
	var ret Affine4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			ret[i][j] = float32(inv.At(i, j))
		}
	}
	//exact, so the result is still a valid affine.
	ret[3] = [4]float32{0, 0, 0, 1}
	return ret, nil
}

//Decompose splits a into its linear part and its translation.
func Decompose(a Affine4) (Affine, Translation) {
	var A Affine
	var t Translation
	for i := 0; i < 3; i++ {
		A[i] = [3]float32{a[i][0], a[i][1], a[i][2]}
		t[i] = a[i][3]
	}
	return A, t
}

//Compose builds the Affine4 with linear part a and translation t.
func Compose(a Affine, t Translation) Affine4 {
	ret := Identity4()
	for i := 0; i < 3; i++ {
		ret[i] = [4]float32{a[i][0], a[i][1], a[i][2], t[i]}
	}
	return ret
}

//Apply returns A*p.
func (A Affine) Apply(p Point) Point {
	var ret Point
	for i := 0; i < 3; i++ {
		ret[i] = A[i][0]*p[0] + A[i][1]*p[1] + A[i][2]*p[2]
	}
	return ret
}

//Apply returns the transformation of the point p by A.
func (A Affine4) Apply(p Point) Point {
	a, t := Decompose(A)
	ret := a.Apply(p)
	for i := range ret {
		ret[i] += t[i]
	}
	return ret
}

//voxToRAS returns the VoxToRAS matrix of the header, as an Affine4. Files written
//by TrackVis 1 have all zeros there, so the identity is used for them.
func (H *Header) voxToRAS() Affine4 {
	if H.VoxToRAS[3][3] == 0 {
		logrus.WithField("field", "vox_to_ras").Warn("vox_to_ras[3][3] is 0, using the identity instead. The file was probably written by TrackVis 1.")
		return Identity4()
	}
	return Affine4(H.VoxToRAS)
}

//AffineToRASMM returns the transformation from the TrackVis space of the
//points in the file (voxel units times the voxel size, origin in the corner
//of the first voxel) to world space (RAS+, mm).
//The voxel order declared in the header can disagree with the one implied
//by VoxToRAS. The transformation corrects for that.
func (H *Header) AffineToRASMM() (Affine4, error) {
	for i, v := range H.VoxelSize {
		if v == 0 {
			return Affine4{}, newError(ErrGeometry, "", "AffineToRASMM", "voxel size %d is 0", i)
		}
	}
	affine := Scale4(1/H.VoxelSize[0], 1/H.VoxelSize[1], 1/H.VoxelSize[2])

	//the points are measured from the corner of the voxel, not its center.
	offset := Identity4()
	for i := 0; i < 3; i++ {
		offset[i][3] = -0.5
	}
	affine = offset.Mul(affine)

	order := strings.ToUpper(H.VoxelOrderString())
	if order == "" {
		logrus.WithField("field", "voxel_order").Warn("Voxel order not specified, assuming 'LPS' as TrackVis does.")
		order = "LPS"
	}
	headerOrnt, err := orient.FromAxcodes(order)
	if err != nil {
		return Affine4{}, wrapError(ErrFormat, "", "AffineToRASMM", err)
	}
	voxToRAS := H.voxToRAS()
	linear, _ := Decompose(voxToRAS)
	affineOrnt := orient.IOOrientations(linear)
	ornt := orient.Transform(headerOrnt, affineOrnt)
	affine = Affine4(orient.InverseAffine(ornt, H.Dim)).Mul(affine)

	return voxToRAS.Mul(affine), nil
}

//AffineToTrackvis returns the inverse of AffineToRASMM.
func (H *Header) AffineToTrackvis() (Affine4, error) {
	a, err := H.AffineToRASMM()
	if err != nil {
		return a, errDecorate(err, "AffineToTrackvis")
	}
	inv, err := a.Inverse()
	if err != nil {
		return inv, errDecorate(err, "AffineToTrackvis")
	}
	return inv, nil
}
