/*
 * nifti.go, part of gotrk.
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
 * The sform/qform logic follows the one in NiBabel (MIT licensed).
 */

//Package nifti obtains the voxel to world transformation of a NIfTI-1 image from
//the geometry fields of its header, and sets those fields from a transformation.
//It doesn't read or write images: the caller supplies the fields.
package nifti

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//QuaternionThreshold is the default tolerance for FillPositive.
const QuaternionThreshold = 3 * 2.220446049250313e-16

//Geometry holds the fields of a NIfTI-1 header that define the
//position of the image in space.
type Geometry struct {
	Dim       [8]int16
	Pixdim    [8]float32
	QformCode int16
	SformCode int16
	QuaternB  float32
	QuaternC  float32
	QuaternD  float32
	QoffsetX  float32
	QoffsetY  float32
	QoffsetZ  float32
	SrowX     [4]float32
	SrowY     [4]float32
	SrowZ     [4]float32
}

//Quaternion is a quaternion W + Xi + Yj + Zk.
type Quaternion struct {
	W, X, Y, Z float64
}

//Dot returns the dot product of q and o.
func (q Quaternion) Dot(o Quaternion) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

//Affine returns the voxel to world transformation of the image: the sform if
//SformCode is set, if not, the qform if QformCode is set, and the base affine
//if none is.
func (g *Geometry) Affine() ([4][4]float32, error) {
	switch {
	case g.SformCode != 0:
		return g.SformAffine(), nil
	case g.QformCode != 0:
		return g.QformAffine()
	default:
		return g.BaseAffine(), nil
	}
}

//SformAffine returns the transformation stored in the srow fields.
func (g *Geometry) SformAffine() [4][4]float32 {
	return [4][4]float32{g.SrowX, g.SrowY, g.SrowZ, {0, 0, 0, 1}}
}

//QformAffine returns the transformation defined by the quaternion, the
//voxel spacings and the offsets. pixdim[0] must be 1 or -1 and the spacings
//can't be negative.
func (g *Geometry) QformAffine() ([4][4]float32, error) {
	var ret [4][4]float32
	if g.Pixdim[1] < 0 || g.Pixdim[2] < 0 || g.Pixdim[3] < 0 {
		return ret, fmt.Errorf("nifti: negative spacing in pixdim %v", g.Pixdim[1:4])
	}
	qfac := g.Pixdim[0]
	if qfac != 1 && qfac != -1 {
		return ret, fmt.Errorf("nifti: qfac (pixdim[0]) should be 1 or -1, not %v", qfac)
	}
	q, err := g.Quaternion()
	if err != nil {
		return ret, err
	}
	r := QuaternionToMatrix(q)
	s := [3]float64{float64(g.Pixdim[1]), float64(g.Pixdim[2]), float64(g.Pixdim[3] * qfac)}
	offset := [3]float32{g.QoffsetX, g.QoffsetY, g.QoffsetZ}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret[i][j] = float32(r[i][j] * s[j])
		}
		ret[i][3] = offset[i]
	}
	ret[3][3] = 1
	return ret, nil
}

//BaseAffine returns the transformation implied by the shape and the spacing
//alone, centered in the image. Missing dimensions are taken as 1.
func (g *Geometry) BaseAffine() [4][4]float32 {
	shape := [3]int{1, 1, 1}
	zooms := [3]float32{1, 1, 1}
	for i := 0; i < 3 && i < int(g.Dim[0]); i++ {
		shape[i] = int(g.Dim[i+1])
		zooms[i] = g.Pixdim[i+1]
	}
	return ShapeZoomAffine(shape, zooms)
}

//ShapeZoomAffine returns the transformation for an image of the given shape and
//spacing, with the world origin in the center of the image and the first axis
//going right to left.
func ShapeZoomAffine(shape [3]int, zooms [3]float32) [4][4]float32 {
	spacing := [3]float32{-zooms[0], zooms[1], zooms[2]}
	var ret [4][4]float32
	for i := 0; i < 3; i++ {
		origin := (float32(shape[i]) - 1) / 2
		ret[i][i] = spacing[i]
		ret[i][3] = -origin * spacing[i]
	}
	ret[3][3] = 1
	return ret
}

//Quaternion returns the unit quaternion stored in the header.
func (g *Geometry) Quaternion() (Quaternion, error) {
	return FillPositive([3]float64{float64(g.QuaternB), float64(g.QuaternC), float64(g.QuaternD)})
}

//FillPositive returns the unit quaternion with the given x, y and z, and a
//non-negative w. It fails if x*x+y*y+z*z exceeds 1 by more than the threshold,
//which is QuaternionThreshold unless given.
func FillPositive(xyz [3]float64, threshold ...float64) (Quaternion, error) {
	thresh := QuaternionThreshold
	if len(threshold) > 0 {
		thresh = threshold[0]
	}
	q := Quaternion{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	w2 := 1 - floats.Dot(xyz[:], xyz[:])
	if w2 < 0 {
		if w2 < -thresh {
			return q, fmt.Errorf("nifti: w2 should be positive, but is %g", w2)
		}
		return q, nil
	}
	q.W = math.Sqrt(w2)
	return q, nil
}

//QuaternionToMatrix returns the rotation matrix for q, which doesn't
//need to be a unit quaternion. A near-zero q gives the identity.
func QuaternionToMatrix(q Quaternion) [3][3]float64 {
	nq := q.Dot(q)
	if nq < 2.220446049250313e-16 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	s := 2 / nq
	x, y, z := q.X*s, q.Y*s, q.Z*s
	wx, wy, wz := q.W*x, q.W*y, q.W*z
	xx, xy, xz := q.X*x, q.X*y, q.X*z
	yy, yz, zz := q.Y*y, q.Y*z, q.Z*z
	return [3][3]float64{
		{1 - (yy + zz), xy - wz, xz + wy},
		{xy + wz, 1 - (xx + zz), yz - wx},
		{xz - wy, yz + wx, 1 - (xx + yy)},
	}
}

//MatrixToQuaternion returns the quaternion for the rotation matrix m, with
//a non-negative w. The quaternion is the eigenvector of largest eigenvalue of
//a symmetric matrix built from m, which is robust to small errors in m.
//See Bar-Itzhack, J. Guid. Control Dyn. 23(6):1085-1087, 2000.
func MatrixToQuaternion(m [3][3]float64) (Quaternion, error) {
	//qyx is the contribution of the y input to the x output.
	qxx, qyx, qzx := m[0][0], m[0][1], m[0][2]
	qxy, qyy, qzy := m[1][0], m[1][1], m[1][2]
	qxz, qyz, qzz := m[2][0], m[2][1], m[2][2]
	K := mat.NewSymDense(4, []float64{
		qxx - qyy - qzz, qyx + qxy, qzx + qxz, qyz - qzy,
		qyx + qxy, qyy - qxx - qzz, qzy + qyz, qzx - qxz,
		qzx + qxz, qzy + qyz, qzz - qxx - qyy, qxy - qyx,
		qyz - qzy, qzx - qxz, qxy - qyx, qxx + qyy + qzz,
	})
	var es mat.EigenSym
	if ok := es.Factorize(K, true); !ok {
		return Quaternion{}, fmt.Errorf("nifti: eigendecomposition failed for %v", m)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	best := 0
	for i, v := range vals {
		if v >= vals[best] {
			best = i
		}
	}
	q := Quaternion{W: vecs.At(3, best), X: vecs.At(0, best), Y: vecs.At(1, best), Z: vecs.At(2, best)}
	//q and -q are the same rotation.
	if q.W < 0 || (q.W == 0 && firstNonZero(q.X, q.Y, q.Z) < 0) {
		q = Quaternion{-q.W, -q.X, -q.Y, -q.Z}
	}
	return q, nil
}

func firstNonZero(v ...float64) float64 {
	for _, f := range v {
		if f != 0 {
			return f
		}
	}
	return 0
}

//SetSform stores a in the srow fields, with the given code.
func (g *Geometry) SetSform(a [4][4]float64, code int16) {
	g.SformCode = code
	for j := 0; j < 4; j++ {
		g.SrowX[j] = float32(a[0][j])
		g.SrowY[j] = float32(a[1][j])
		g.SrowZ[j] = float32(a[2][j])
	}
}

//SetQform stores a in the quaternion, spacing and offset fields, with the given code.
//A quaternion can only store a rotation, so any shear in a is lost: the
//closest rotation is stored.
func (g *Geometry) SetQform(a [4][4]float64, code int16) error {
	var spacing [3]float64
	r := mat.NewDense(3, 3, nil)
	col := make([]float64, 3)
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			col[i] = a[i][j]
		}
		spacing[j] = floats.Norm(col, 2)
		if spacing[j] == 0 {
			return fmt.Errorf("nifti: column %d of the affine is zero", j)
		}
		for i := 0; i < 3; i++ {
			r.Set(i, j, col[i]/spacing[j])
		}
	}
	qfac := 1.0
	if mat.Det(r) <= 0 {
		qfac = -1
		for i := 0; i < 3; i++ {
			r.Set(i, 2, -r.At(i, 2))
		}
	}
	//closest orthogonal matrix to r, U*V^T.
	var svd mat.SVD
	if ok := svd.Factorize(r, mat.SVDFull); !ok {
		return fmt.Errorf("nifti: SVD failed for the rotation of %v", a)
	}
	var u, v, pr mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	pr.Mul(&u, v.T())
	var rot [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot[i][j] = pr.At(i, j)
		}
	}
	q, err := MatrixToQuaternion(rot)
	if err != nil {
		return err
	}
	g.QformCode = code
	g.Pixdim[0] = float32(qfac)
	for i := 0; i < 3; i++ {
		g.Pixdim[i+1] = float32(spacing[i])
	}
	g.QuaternB, g.QuaternC, g.QuaternD = float32(q.X), float32(q.Y), float32(q.Z)
	g.QoffsetX, g.QoffsetY, g.QoffsetZ = float32(a[0][3]), float32(a[1][3]), float32(a[2][3])
	return nil
}

//SetAffine stores a as the sform (code 2, aligned to another image) and marks
//the qform as unknown.
func (g *Geometry) SetAffine(a [4][4]float64) error {
	g.SetSform(a, 2)
	return g.SetQform(a, 0)
}
