package midiio

// This file contains the forward-only cursors used to read and write the raw
// bytes of an SMF file. All multi-byte integers in SMF files are big-endian.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Reads from an in-memory buffer. A ReadCursor is never rewound; every read
// either advances it or fails with an error wrapping ErrOutOfData.
type ReadCursor struct {
	data []byte
	pos  int
	// The offset of data[0] in the original buffer, so that errors from
	// cursors over a chunk's payload still report file offsets.
	base int
}

// Returns a new cursor at the start of data.
func NewReadCursor(data []byte) *ReadCursor {
	return &ReadCursor{
		data: data,
	}
}

// Returns the offset of the next unread byte, relative to the start of the
// buffer the outermost cursor was created over.
func (c *ReadCursor) Offset() int {
	return c.base + c.pos
}

// Returns true if every byte has been consumed.
func (c *ReadCursor) EOF() bool {
	return c.pos >= len(c.data)
}

// Returns the number of unread bytes.
func (c *ReadCursor) Remaining() int {
	return len(c.data) - c.pos
}

func (c *ReadCursor) outOfData(n int) error {
	return fmt.Errorf("Need %d byte(s) at offset 0x%x, but only %d remain: %w",
		n, c.Offset(), c.Remaining(), ErrOutOfData)
}

// Satisfies io.ByteReader. Returns io.EOF at the end of the buffer, so that
// ReadVariableInt can distinguish a clean end from a truncated integer.
func (c *ReadCursor) ReadByte() (byte, error) {
	if c.EOF() {
		return 0, io.EOF
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// Reads a single byte. If signed is set, the byte is sign-extended, so 0xff
// is returned as -1.
func (c *ReadCursor) ReadInt8(signed bool) (int, error) {
	if c.EOF() {
		return 0, c.outOfData(1)
	}
	b := c.data[c.pos]
	c.pos++
	if signed {
		return int(int8(b)), nil
	}
	return int(b), nil
}

// Reads an unsigned big-endian 16-bit integer.
func (c *ReadCursor) ReadInt16() (uint16, error) {
	b, e := c.ReadFixed(2)
	if e != nil {
		return 0, e
	}
	return binary.BigEndian.Uint16(b), nil
}

// Reads an unsigned big-endian 32-bit integer.
func (c *ReadCursor) ReadInt32() (uint32, error) {
	b, e := c.ReadFixed(4)
	if e != nil {
		return 0, e
	}
	return binary.BigEndian.Uint32(b), nil
}

// Reads exactly n bytes. The returned slice aliases the underlying buffer
// and must not be modified.
func (c *ReadCursor) ReadFixed(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, c.outOfData(n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Reads a MIDI variable-length quantity. Unlike ReadVariableInt, running out
// of data at any point is reported as ErrOutOfData.
func (c *ReadCursor) ReadVarInt() (uint32, error) {
	start := c.Offset()
	n, e := ReadVariableInt(c)
	if e == io.EOF {
		return 0, c.outOfData(1)
	}
	if e != nil {
		return 0, fmt.Errorf("Bad variable-length integer at offset 0x%x: %w",
			start, e)
	}
	return n, nil
}

// Consumes the next n bytes and returns a new cursor limited to them.
func (c *ReadCursor) Sub(n int) (*ReadCursor, error) {
	start := c.Offset()
	b, e := c.ReadFixed(n)
	if e != nil {
		return nil, e
	}
	return &ReadCursor{
		data: b,
		base: start,
	}, nil
}

// Accumulates output bytes in memory.
type WriteCursor struct {
	buf bytes.Buffer
}

// Writes the low 8 bits of v.
func (c *WriteCursor) WriteInt8(v uint8) {
	c.buf.WriteByte(v)
}

// Writes v as a big-endian 16-bit integer.
func (c *WriteCursor) WriteInt16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	c.buf.Write(tmp[:])
}

// Writes v as a big-endian 32-bit integer.
func (c *WriteCursor) WriteInt32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	c.buf.Write(tmp[:])
}

// Appends raw bytes.
func (c *WriteCursor) Write(b []byte) {
	c.buf.Write(b)
}

// Appends a MIDI variable-length quantity. Fails if n doesn't fit in a
// four-byte quantity.
func (c *WriteCursor) WriteVarInt(n uint32) error {
	return WriteVariableInt(&c.buf, n)
}

// Returns the bytes written so far. The slice is only valid until the next
// write.
func (c *WriteCursor) Bytes() []byte {
	return c.buf.Bytes()
}

// Returns the number of bytes written so far.
func (c *WriteCursor) Len() int {
	return c.buf.Len()
}
