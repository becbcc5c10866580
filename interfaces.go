/*
 * interfaces.go, part of gotrk.
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

// StreamlineReader is an interface for anything that produces streamlines one at a time.
// *Reader implements it.
type StreamlineReader interface {
	//Returns the next streamline, with its scalars and properties, or an error.
	//At the end of the stream, the error implements LastStreamlineError.
	Next() (*TractogramItem, error)

	//The header describing the stream.
	Header() *Header
}

// StreamlineWriter is an interface for anything that takes streamlines one at a time.
// *Writer implements it.
type StreamlineWriter interface {
	WriteItem(item *TractogramItem) error
	Close() error
}

// TrkError is the interface for errors that all readers and writers in this library return.
// The Decorate method allows to add and retrieve info from the error, without changing its
// type or wrapping it around something else.
type TrkError interface {
	Error() string
	Decorate(string) []string //adds the name of a function the error went through, returns the whole list. "" only returns it.
	FileName() string
	Format() string
	Critical() bool
}

// LastStreamlineError is returned when a stream ends where a streamline could start. It is not
// a failure, and can be told apart from real errors with IsLast or a type switch.
type LastStreamlineError interface {
	TrkError
	NormalLastStreamlineTermination() //no-op marker
}
