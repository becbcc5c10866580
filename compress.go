/*
 * compress.go, part of gotrk.
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
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

type codec int

const (
	plain codec = iota
	gzipCodec
	zstdCodec
)

func (c codec) String() string {
	switch c {
	case gzipCodec:
		return "gzip"
	case zstdCodec:
		return "zstd"
	default:
		return "none"
	}
}

//codecFor picks the compression from the suffix of the file name.
//Unknown suffixes are read and written as plain .trk files.
func codecFor(name string) codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return gzipCodec
	case ".zst", ".zstd":
		return zstdCodec
	case ".trk":
		return plain
	default:
		logrus.WithField("file", name).Warn("Unknown file extension, the file will be treated as an uncompressed .trk")
		return plain
	}
}

//readCloser reads from a decompressor and closes it, and then
//the file under it.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}

//openDecompressed opens the file in path, decompressing it if its
//suffix says so.
func openDecompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(ErrIO, path, "Open", err)
	}
	br := bufio.NewReader(f)
	switch codecFor(path) {
	case gzipCodec:
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, wrapError(ErrIO, path, "Open", err)
		}
		return &readCloser{gz, []func() error{gz.Close, f.Close}}, nil
	case zstdCodec:
		d, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, wrapError(ErrIO, path, "Open", err)
		}
		closeDecoder := func() error { d.Close(); return nil }
		return &readCloser{d, []func() error{closeDecoder, f.Close}}, nil
	default:
		return &readCloser{br, []func() error{f.Close}}, nil
	}
}

//newCompressor returns a writer that compresses to w. A negative level
//means the default level of the codec.
func newCompressor(w io.Writer, c codec, level int) (io.WriteCloser, error) {
	switch c {
	case gzipCodec:
		if level < 0 {
			level = gzip.DefaultCompression
		}
		return gzip.NewWriterLevel(w, level)
	case zstdCodec:
		zlevel := zstd.SpeedDefault
		if level >= 0 {
			zlevel = zstd.EncoderLevelFromZstd(level)
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zlevel))
	default:
		return nil, errors.New("no compression requested")
	}
}

//stagedFile is where a compressed target is written before compression.
//The streamline count is patched at the end, which can't be done on a compressed stream.
type stagedFile struct {
	tmp    *os.File
	target string
	codec  codec
	level  int
}

func newStagedFile(target string, c codec, level int) (*stagedFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &stagedFile{tmp: tmp, target: target, codec: c, level: level}, nil
}

//finish compresses the staged data into the target, and removes the staging file.
func (S *stagedFile) finish() error {
	defer os.Remove(S.tmp.Name())
	defer S.tmp.Close()
	if _, err := S.tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	out, err := os.Create(S.target)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	cw, err := newCompressor(bw, S.codec, S.level)
	if err != nil {
		out.Close()
		return err
	}
	_, err = io.Copy(cw, bufio.NewReader(S.tmp))
	err = errors.Join(err, cw.Close())
	err = errors.Join(err, bw.Flush())
	return errors.Join(err, out.Close())
}

//discard removes the staging file without writing the target.
func (S *stagedFile) discard() {
	S.tmp.Close()
	os.Remove(S.tmp.Name())
}
