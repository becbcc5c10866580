//Package binio provides small byte-order aware readers and writers used to
//decode and encode the fixed TrackVis header and the streamline records field
//by field, never relying on the memory layout of the host.
//
//Both types keep the first error they find. Once an error happens, the
//following calls do nothing, and the error is returned by Err. This allows
//decoding a long list of fields and checking for errors only once.
package binio

import (
	"encoding/binary"
	"io"
	"math"
)

//Reader decodes values from an io.Reader with a given byte order.
type Reader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   []byte
	n     int64
	err   error
}

//NewReader returns a Reader reading from r with the byte order order.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{r: r, order: order, buf: make([]byte, 8)}
}

//Err returns the first error found, if any. Short reads are reported as
//io.ErrUnexpectedEOF, except when nothing at all could be read for a value,
//in which case io.EOF is returned.
func (R *Reader) Err() error {
	return R.err
}

//Order returns the byte order used by the reader.
func (R *Reader) Order() binary.ByteOrder {
	return R.order
}

//Count returns the number of bytes consumed so far.
func (R *Reader) Count() int64 {
	return R.n
}

func (R *Reader) fill(n int) []byte {
	if R.err != nil {
		return nil
	}
	if cap(R.buf) < n {
		R.buf = make([]byte, n)
	}
	b := R.buf[:n]
	read, err := io.ReadFull(R.r, b)
	R.n += int64(read)
	if err != nil {
		R.err = err
		return nil
	}
	return b
}

//Bytes fills dst with the next len(dst) bytes.
func (R *Reader) Bytes(dst []byte) {
	if R.err != nil {
		return
	}
	read, err := io.ReadFull(R.r, dst)
	R.n += int64(read)
	if err != nil {
		R.err = err
	}
}

//Uint8 reads one byte.
func (R *Reader) Uint8() uint8 {
	b := R.fill(1)
	if b == nil {
		return 0
	}
	return b[0]
}

//Int16 reads a signed 16-bit integer.
func (R *Reader) Int16() int16 {
	b := R.fill(2)
	if b == nil {
		return 0
	}
	return int16(R.order.Uint16(b))
}

//Int32 reads a signed 32-bit integer.
func (R *Reader) Int32() int32 {
	b := R.fill(4)
	if b == nil {
		return 0
	}
	return int32(R.order.Uint32(b))
}

//Float32 reads an IEEE-754 single precision float.
func (R *Reader) Float32() float32 {
	b := R.fill(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(R.order.Uint32(b))
}

//Float32s fills dst with len(dst) floats, using a single read.
func (R *Reader) Float32s(dst []float32) {
	b := R.fill(4 * len(dst))
	if b == nil {
		return
	}
	for i := range dst {
		dst[i] = math.Float32frombits(R.order.Uint32(b[4*i:]))
	}
}

//Writer encodes values to an io.Writer with a given byte order.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	buf   []byte
	n     int64
	err   error
}

//NewWriter returns a Writer writing to w with the byte order order.
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	return &Writer{w: w, order: order, buf: make([]byte, 8)}
}

//Err returns the first error found, if any.
func (W *Writer) Err() error {
	return W.err
}

//Count returns the number of bytes written so far.
func (W *Writer) Count() int64 {
	return W.n
}

func (W *Writer) flush(b []byte) {
	if W.err != nil {
		return
	}
	n, err := W.w.Write(b)
	W.n += int64(n)
	if err != nil {
		W.err = err
	}
}

//Bytes writes b as is.
func (W *Writer) Bytes(b []byte) {
	W.flush(b)
}

//Uint8 writes one byte.
func (W *Writer) Uint8(v uint8) {
	W.buf[0] = v
	W.flush(W.buf[:1])
}

//Int16 writes a signed 16-bit integer.
func (W *Writer) Int16(v int16) {
	W.order.PutUint16(W.buf, uint16(v))
	W.flush(W.buf[:2])
}

//Int32 writes a signed 32-bit integer.
func (W *Writer) Int32(v int32) {
	W.order.PutUint32(W.buf, uint32(v))
	W.flush(W.buf[:4])
}

//Float32 writes an IEEE-754 single precision float.
func (W *Writer) Float32(v float32) {
	W.order.PutUint32(W.buf, math.Float32bits(v))
	W.flush(W.buf[:4])
}

//Float32s writes all the floats in src with a single call to the
//underlying writer.
func (W *Writer) Float32s(src []float32) {
	if cap(W.buf) < 4*len(src) {
		W.buf = make([]byte, 4*len(src))
	}
	b := W.buf[:4*len(src)]
	for i, v := range src {
		W.order.PutUint32(b[4*i:], math.Float32bits(v))
	}
	W.flush(b)
}
