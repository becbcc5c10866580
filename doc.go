/*
 * doc.go, part of gotrk.
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

/*Package trk reads and writes TrackVis .trk files, the streamline format
produced by many diffusion MRI tractography programs.

A .trk file is a 1000-byte header followed by one record per streamline:
the number of points N, N points (each with its x, y and z, followed by
the scalars of the point, if any), and the properties of the streamline, if any.
All numbers are 4 bytes. Files can be little or big-endian, this package
detects which, and always writes little-endian.

	**gotrk Capabilities**

    Reads .trk files one streamline at a time (Reader.Next, Reader.All)
    or all at once (Reader.ReadAll) into a Tractogram, which stores all
    the points in a compact arrseq.ArraySequence.

    Writes .trk files from streamlines, tractogram items or whole tractograms.
    The streamline count in the header is patched when the Writer is closed.

    Reads and writes .trk.gz and .trk.zst files transparently.

    Transforms the points between the TrackVis space of the file and world
    space (RAS+, mm), taking into account the voxel order declared in the header.
    Points can also be read or written raw, or in voxel coordinates.

    Builds headers from the geometry of a NIfTI-1 image (see the nifti package),
    so streamlines can be stored in the space of that image.

The orient subpackage deals with axis codes ("RAS", "LPS", ...) and the
reorientations between them.

Errors returned by this package are *Error values. Their kind can be checked with
errors.Is and the Err* variables. The normal end of a file is reported by Next with
an error for which IsLast returns true.
*/
package trk
