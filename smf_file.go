package midiio

// This file contains the chunk framing and the top-level Song type used for
// reading and writing .mid SMF-format files.

import (
	"fmt"
	"io"
)

const (
	headerChunkID = "MThd"
	trackChunkID  = "MTrk"
	// The header chunk's payload is always exactly this long.
	headerLength = 6
)

// The format field of the MThd chunk.
type FormatType uint16

const (
	// The file contains exactly one track.
	FormatSingle FormatType = 0
	// The file contains one or more tracks that are played simultaneously.
	FormatSimultaneous FormatType = 1
	// The file contains one or more independent sequences.
	FormatIndependent FormatType = 2
)

func (f FormatType) String() string {
	switch f {
	case FormatSingle:
		return "single"
	case FormatSimultaneous:
		return "simultaneous"
	case FormatIndependent:
		return "independent"
	}
	return fmt.Sprintf("format(%d)", uint16(f))
}

// Holds the content of the MThd chunk.
type Header struct {
	Format FormatType `json:"formatType"`
	// The number of tracks in the file. This is set when decoding, but is
	// ignored when encoding; the length of Song.Tracks is written instead.
	TrackCount uint16 `json:"trackCount"`
	// Specifies what the delta-times mean in this file. The top bit must be
	// clear; SMPTE-based time divisions aren't supported.
	TicksPerQuarter uint16 `json:"ticksPerQuarter"`
}

func (h *Header) String() string {
	return fmt.Sprintf("Format %d, with %d track(s), %d ticks per quarter "+
		"note", uint16(h.Format), h.TrackCount, h.TicksPerQuarter)
}

func (h *Header) validate() error {
	if h.Format > FormatIndependent {
		return fmt.Errorf("Unsupported SMF format %d: %w", uint16(h.Format),
			ErrFormat)
	}
	if (h.TicksPerQuarter & 0x8000) != 0 {
		return fmt.Errorf("Time division 0x%04x is in SMPTE frames, which "+
			"isn't supported: %w", h.TicksPerQuarter, ErrFormat)
	}
	if h.TicksPerQuarter == 0 {
		return fmt.Errorf("Time division can't be 0 ticks per quarter note: "+
			"%w", ErrFormat)
	}
	return nil
}

// The list of events in a single track, in the order they appear.
type Track []Event

// Tracks an entire MIDI file, consisting of a header and one or more tracks.
type Song struct {
	Header Header
	Tracks []Track
}

// Reads a chunk with the given ID from c, returning a cursor over its
// payload.
func readChunk(c *ReadCursor, id string) (*ReadCursor, error) {
	start := c.Offset()
	chunkType, e := c.ReadFixed(4)
	if e != nil {
		return nil, fmt.Errorf("Failed reading chunk type: %w", e)
	}
	if string(chunkType) != id {
		return nil, fmt.Errorf("Bad chunk type at offset 0x%x: expected %q "+
			"but found %q: %w", start, id, string(chunkType), ErrFormat)
	}
	length, e := c.ReadInt32()
	if e != nil {
		return nil, fmt.Errorf("Failed reading %s chunk length: %w", id, e)
	}
	if uint64(length) > uint64(c.Remaining()) {
		return nil, fmt.Errorf("%s chunk at offset 0x%x claims %d bytes, "+
			"but only %d remain: %w", id, start, length, c.Remaining(),
			ErrOutOfData)
	}
	return c.Sub(int(length))
}

// Appends a chunk to w. The length is always taken from the payload.
func writeChunk(w *WriteCursor, id string, payload []byte) error {
	if uint64(len(payload)) > 0xffffffff {
		return fmt.Errorf("%s chunk content is too big: %d bytes: %w", id,
			len(payload), ErrFormat)
	}
	w.Write([]byte(id))
	w.WriteInt32(uint32(len(payload)))
	w.Write(payload)
	return nil
}

func readHeader(c *ReadCursor) (Header, error) {
	var h Header
	payload, e := readChunk(c, headerChunkID)
	if e != nil {
		return h, e
	}
	if payload.Remaining() != headerLength {
		return h, fmt.Errorf("Expected a header length of %d but found %d: "+
			"%w", headerLength, payload.Remaining(), ErrFormat)
	}
	// The payload is known to be 6 bytes, so these can't fail.
	format, _ := payload.ReadInt16()
	h.TrackCount, _ = payload.ReadInt16()
	h.TicksPerQuarter, _ = payload.ReadInt16()
	h.Format = FormatType(format)
	return h, h.validate()
}

// Decodes a complete SMF file held in data. Any error aborts the decode; no
// partial song is returned.
func Decode(data []byte) (*Song, error) {
	c := NewReadCursor(data)
	header, e := readHeader(c)
	if e != nil {
		return nil, fmt.Errorf("Failed parsing SMF header: %w", e)
	}
	song := &Song{
		Header: header,
		Tracks: make([]Track, header.TrackCount),
	}
	for i := range song.Tracks {
		payload, e := readChunk(c, trackChunkID)
		if e != nil {
			return nil, fmt.Errorf("Failed parsing SMF track %d: %w", i, e)
		}
		song.Tracks[i], e = newTrackDecoder(payload).readAll()
		if e != nil {
			return nil, fmt.Errorf("Failed parsing SMF track %d: %w", i, e)
		}
	}
	return song, nil
}

// Encodes the song as an SMF file. The header's track count is derived from
// s.Tracks.
func Encode(s *Song) ([]byte, error) {
	if len(s.Tracks) > 0xffff {
		return nil, fmt.Errorf("Have too many tracks (%d), limited to %d: %w",
			len(s.Tracks), 0xffff, ErrFormat)
	}
	e := s.Header.validate()
	if e != nil {
		return nil, fmt.Errorf("Invalid SMF header: %w", e)
	}
	var header, file WriteCursor
	header.WriteInt16(uint16(s.Header.Format))
	header.WriteInt16(uint16(len(s.Tracks)))
	header.WriteInt16(s.Header.TicksPerQuarter)
	e = writeChunk(&file, headerChunkID, header.Bytes())
	if e != nil {
		return nil, e
	}
	for i, t := range s.Tracks {
		// The chunk size needs to go in the header, so we'll just encode the
		// track's content first.
		content, e := t.encode()
		if e == nil {
			e = writeChunk(&file, trackChunkID, content)
		}
		if e != nil {
			return nil, fmt.Errorf("Failed writing SMF track %d: %w", i, e)
		}
	}
	return file.Bytes(), nil
}

// Reads all of r, then decodes it as an SMF file.
func ReadSong(r io.Reader) (*Song, error) {
	data, e := io.ReadAll(r)
	if e != nil {
		return nil, fmt.Errorf("Failed reading SMF data: %w", e)
	}
	return Decode(data)
}

// Encodes the song and writes it to w in a single write. Nothing is written
// if encoding fails.
func (s *Song) WriteTo(w io.Writer) (int64, error) {
	data, e := Encode(s)
	if e != nil {
		return 0, e
	}
	n, e := w.Write(data)
	return int64(n), e
}
