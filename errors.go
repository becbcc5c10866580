/*
 * errors.go, part of gotrk.
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
	"errors"
	"fmt"
	"strings"
)

//Kinds of errors. Every *Error returned by this package wraps exactly one of these,
//so they can be checked with errors.Is.
var (
	ErrIO          = errors.New("I/O error")
	ErrTruncated   = errors.New("truncated file")
	ErrFormat      = errors.New("format violation")
	ErrCapacity    = errors.New("too many names")
	ErrNameTooLong = errors.New("name too long")
	ErrNonASCII    = errors.New("name is not ASCII")
	ErrGeometry    = errors.New("degenerate geometry")
	ErrSingular    = errors.New("singular affine")
	ErrFinalize    = errors.New("can't patch the streamline count")
	ErrMode        = errors.New("mode set after the first read or write")
	ErrClosed      = errors.New("file already closed")
	ErrChannels    = errors.New("channel count mismatch")
)

//Error is the general structure for errors in this package. It fulfills the
//trk.TrkError interface.
type Error struct {
	message  string
	filename string //the file that has problems, or an empty string if none.
	deco     []string
	critical bool
	kind     error
	cause    error
}

func (err *Error) Error() string {
	ret := fmt.Sprintf("trk file %s error: %s", err.filename, err.message)
	if len(err.deco) > 0 {
		ret = ret + " (in " + strings.Join(err.deco, " < ") + ")"
	}
	return ret
}

//Decorate adds deco to the list of functions the error went through, and returns
//the list. An empty deco only returns the list.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file the failing reader or writer was associated to
func (err *Error) FileName() string { return err.filename }

//Format returns the format of the file (always "trk") associated to the error
func (err *Error) Format() string { return "trk" }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

//Unwrap returns the kind of the error and, if there is one, the error that caused it.
func (err *Error) Unwrap() []error {
	if err.cause == nil {
		return []error{err.kind}
	}
	return []error{err.kind, err.cause}
}

//newError returns a critical *Error of the given kind.
func newError(kind error, filename, caller string, format string, args ...any) *Error {
	return &Error{
		message:  fmt.Sprintf(format, args...),
		filename: filename,
		deco:     []string{caller},
		critical: true,
		kind:     kind,
	}
}

//wrapError returns a critical *Error of the given kind, caused by cause.
func wrapError(kind error, filename, caller string, cause error) *Error {
	return &Error{
		message:  fmt.Sprintf("%v: %v", kind, cause),
		filename: filename,
		deco:     []string{caller},
		critical: true,
		kind:     kind,
		cause:    cause,
	}
}

//errDecorate decorates err with the caller's name, if err is a TrkError.
//Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	var e TrkError
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//lastStreamlineError implements trk.LastStreamlineError
type lastStreamlineError struct {
	deco     []string
	filename string
}

//NormalLastStreamlineTermination does nothing
func (E *lastStreamlineError) NormalLastStreamlineTermination() {}

func (E *lastStreamlineError) FileName() string { return E.filename }

func (E *lastStreamlineError) Error() string { return "EOF" }

func (E *lastStreamlineError) Critical() bool { return false }

func (E *lastStreamlineError) Format() string { return "trk" }

func (E *lastStreamlineError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastStreamlineError(filename string, caller string) *lastStreamlineError {
	return &lastStreamlineError{filename: filename, deco: []string{caller}}
}

//IsLast returns true if err signals the normal end of a streamline stream.
func IsLast(err error) bool {
	var l LastStreamlineError
	return errors.As(err, &l)
}
