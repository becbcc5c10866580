package trk

import (
	"github.com/rmera/gotrk/nifti"
	"github.com/rmera/gotrk/orient"
)

//HeaderFromNifti returns a header for streamlines in the space of a NIfTI-1
//image, given the dim, pixdim and srow fields of the image's header.
func HeaderFromNifti(dim [8]int16, pixdim [8]float32, srowX, srowY, srowZ [4]float32) *Header {
	return headerFromAffine(dim, pixdim, [4][4]float32{srowX, srowY, srowZ, {0, 0, 0, 1}})
}

//HeaderFromGeometry is like HeaderFromNifti, but the voxel to world transformation
//is chosen from the sform, the qform or the shape of the image, as NIfTI readers do.
func HeaderFromGeometry(g *nifti.Geometry) (*Header, error) {
	a, err := g.Affine()
	if err != nil {
		return nil, newError(ErrGeometry, "", "HeaderFromGeometry", "%v", err)
	}
	return headerFromAffine(g.Dim, g.Pixdim, a), nil
}

func headerFromAffine(dim [8]int16, pixdim [8]float32, a [4][4]float32) *Header {
	H := DefaultHeader()
	copy(H.Dim[:], dim[1:4])
	copy(H.VoxelSize[:], pixdim[1:4])
	H.VoxToRAS = a
	linear, _ := Decompose(Affine4(a))
	copy(H.VoxelOrder[:3], orient.AffineToAxcodes(linear))
	H.VoxelOrder[3] = 0
	return H
}

//TrackvisToRASMM returns the transformation from the TrackVis space of
//streamlines drawn on the image with geometry g to world space.
func TrackvisToRASMM(g *nifti.Geometry) (Affine4, error) {
	H, err := HeaderFromGeometry(g)
	if err != nil {
		return Affine4{}, errDecorate(err, "TrackvisToRASMM")
	}
	a, err := H.AffineToRASMM()
	return a, errDecorate(err, "TrackvisToRASMM")
}

//RASMMToTrackvis is the inverse of TrackvisToRASMM.
func RASMMToTrackvis(g *nifti.Geometry) (Affine4, error) {
	H, err := HeaderFromGeometry(g)
	if err != nil {
		return Affine4{}, errDecorate(err, "RASMMToTrackvis")
	}
	a, err := H.AffineToTrackvis()
	return a, errDecorate(err, "RASMMToTrackvis")
}
