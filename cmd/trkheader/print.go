package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	trk "github.com/rmera/gotrk"
)

//headerDoc is the YAML form of a header. Computed is only filled with --all.
type headerDoc struct {
	IDString                string         `yaml:"id_string"`
	Dim                     [3]int16       `yaml:"dim,flow"`
	VoxelSize               [3]float32     `yaml:"voxel_size,flow"`
	Origin                  [3]float32     `yaml:"origin,flow"`
	ScalarNames             []string       `yaml:"scalar_names"`
	PropertyNames           []string       `yaml:"property_names"`
	VoxToRAS                [4][4]float32  `yaml:"vox_to_ras,flow"`
	VoxelOrder              string         `yaml:"voxel_order"`
	ImageOrientationPatient [6]float32     `yaml:"image_orientation_patient,flow"`
	Invert                  [3]uint8       `yaml:"invert,flow"`
	Swap                    [3]uint8       `yaml:"swap,flow"`
	NCount                  int32          `yaml:"n_count"`
	Version                 int32          `yaml:"version"`
	HdrSize                 int32          `yaml:"hdr_size"`
	Computed                *computedField `yaml:"computed,omitempty"`
}

type computedField struct {
	Endianness string        `yaml:"endianness"`
	ToRASMM    [4][4]float32 `yaml:"to_rasmm,flow"`
	ToTrackvis [4][4]float32 `yaml:"to_trackvis,flow"`
}

func endianName(o binary.ByteOrder) string {
	if o == binary.BigEndian {
		return "big"
	}
	return "little"
}

func computed(H *trk.Header) (*computedField, error) {
	to, err := H.AffineToRASMM()
	if err != nil {
		return nil, err
	}
	from, err := H.AffineToTrackvis()
	if err != nil {
		return nil, err
	}
	return &computedField{Endianness: endianName(H.Endian), ToRASMM: to, ToTrackvis: from}, nil
}

func newHeaderDoc(H *trk.Header, all bool) (*headerDoc, error) {
	d := &headerDoc{
		IDString:                string(trimNUL(H.IDString[:])),
		Dim:                     H.Dim,
		VoxelSize:               H.VoxelSize,
		Origin:                  H.Origin,
		ScalarNames:             H.ScalarNames,
		PropertyNames:           H.PropertyNames,
		VoxToRAS:                H.VoxToRAS,
		VoxelOrder:              H.VoxelOrderString(),
		ImageOrientationPatient: H.ImageOrientationPatient,
		Invert:                  [3]uint8{H.InvertX, H.InvertY, H.InvertZ},
		Swap:                    [3]uint8{H.SwapX, H.SwapY, H.SwapZ},
		NCount:                  H.NCount,
		Version:                 H.Version,
		HdrSize:                 H.HdrSize,
	}
	if all {
		c, err := computed(H)
		if err != nil {
			return nil, err
		}
		d.Computed = c
	}
	return d, nil
}

func trimNUL(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

//printYAML prints the header of the file in path as a YAML document.
func printYAML(w io.Writer, path string, all bool) error {
	H, err := trk.ReadHeaderFile(path)
	if err != nil {
		return err
	}
	d, err := newHeaderDoc(H, all)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

//printText prints the header of the file in path, one field per line.
func printText(w io.Writer, path string, all bool) error {
	H, err := trk.ReadHeaderFile(path)
	if err != nil {
		return err
	}
	var c *computedField
	if all {
		if c, err = computed(H); err != nil {
			return err
		}
		fmt.Fprintln(w, "---------- Actual fields ----------")
	}
	fmt.Fprintf(w, "id_string: %v (%s)\n", H.IDString, trimNUL(H.IDString[:]))
	fmt.Fprintf(w, "dim: %v\n", H.Dim)
	fmt.Fprintf(w, "voxel_size: %v\n", H.VoxelSize)
	fmt.Fprintf(w, "origin: %v\n", H.Origin)
	fmt.Fprintf(w, "n_scalars: %d\n", H.NScalars())
	for i, name := range H.ScalarNames {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	fmt.Fprintf(w, "n_properties: %d\n", H.NProperties())
	for i, name := range H.PropertyNames {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	fmt.Fprintf(w, "vox_to_ras: %v\n", H.VoxToRAS[0])
	for _, row := range H.VoxToRAS[1:] {
		fmt.Fprintf(w, "            %v\n", row)
	}
	fmt.Fprintf(w, "voxel_order: %v (%s)\n", H.VoxelOrder, H.VoxelOrderString())
	fmt.Fprintf(w, "image_orientation_patient: %v\n", H.ImageOrientationPatient)
	fmt.Fprintf(w, "invert: %d %d %d\n", H.InvertX, H.InvertY, H.InvertZ)
	fmt.Fprintf(w, "swap: %d %d %d\n", H.SwapX, H.SwapY, H.SwapZ)
	fmt.Fprintf(w, "n_count: %d\n", H.NCount)
	fmt.Fprintf(w, "version: %d\n", H.Version)
	fmt.Fprintf(w, "hdr_size: %d\n", H.HdrSize)
	if c == nil {
		return nil
	}
	fmt.Fprintln(w, "\n---------- Computed fields ----------")
	fmt.Fprintf(w, "endianness: %s\n", c.Endianness)
	printMatrix(w, "to_rasmm", c.ToRASMM)
	printMatrix(w, "to_trackvis", c.ToTrackvis)
	return nil
}

func printMatrix(w io.Writer, name string, m [4][4]float32) {
	fmt.Fprintf(w, "%s:\n", name)
	for _, row := range m {
		fmt.Fprintf(w, "  %10.4f %10.4f %10.4f %10.4f\n", row[0], row[1], row[2], row[3])
	}
}
