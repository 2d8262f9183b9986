package midiio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This SMF file is defined in the MIDI specification, in the section on SMF
// files. It uses running status.
var specExampleFile = []byte{
	// MThd
	0x4d, 0x54, 0x68, 0x64,
	// Chunk length
	0, 0, 0, 6,
	// Format 1
	0, 1,
	// Four tracks,
	0, 4,
	// 96 ticks per quarter note
	0, 0x60,
	// Track chunk for the time signature/tempo track, starting with the
	// MTrk:
	0x4d, 0x54, 0x72, 0x6b,
	// Chunk length:
	0, 0, 0, 0x14,
	// Time signature, with delta-time
	0, 0xff, 0x58, 4, 4, 2, 0x18, 8,
	// Tempo
	0, 0xff, 0x51, 3, 7, 0xa1, 0x20,
	// End of track
	0x83, 0, 0xff, 0x2f, 0,
	// The first music track, starting with MTrk
	0x4d, 0x54, 0x72, 0x6b,
	// The chunk length
	0, 0, 0, 0x10,
	// Change program for channel 0 to 5.
	0, 0xc0, 5,
	// Note 0x4c on, at time delta, setting running status.
	0x81, 0x40, 0x90, 0x4c, 0x20,
	// Note off, using running status for note on, but velocity=0
	0x81, 0x40, 0x4c, 0,
	// End of track.
	0, 0xff, 0x2f, 0,
	// Track chunk for second music track, starting with MTrk:
	0x4d, 0x54, 0x72, 0x6b,
	// Chunk length
	0, 0, 0, 0xf,
	// Program change for channel 1, to 0x2e
	0, 0xc1, 0x2e,
	// Note 0x43 on
	0x60, 0x91, 0x43, 0x40,
	// Note 0x43 off, using running status.
	0x82, 0x20, 0x43, 0,
	// End of track
	0, 0xff, 0x2f, 0,
	// The third track, starting with MTrk:
	0x4d, 0x54, 0x72, 0x6b,
	// Chunk length
	0, 0, 0, 0x15,
	// Program change for channel 2 to 0x46.
	0, 0xc2, 0x46,
	// Note 0x30 on
	0, 0x92, 0x30, 0x60,
	// Note 0x3c on, using running status
	0, 0x3c, 0x60,
	// Note 0x30 off, using running status
	0x83, 0, 0x30, 0,
	// Note 0x3c off, using running status
	0, 0x3c, 0,
	// End of track
	0, 0xff, 0x2f, 0,
}

func TestParseSMFFile(t *testing.T) {
	song, e := ReadSong(bytes.NewReader(specExampleFile))
	require.NoError(t, e, "Failed parsing SMF file")
	assert.Equal(t, FormatSimultaneous, song.Header.Format)
	require.Len(t, song.Tracks, 4)
	for trackNumber, track := range song.Tracks {
		t.Logf("Track %d, %d messages:\n", trackNumber, len(track))
		for i, event := range track {
			t.Logf("  %d. Time-delta %d: %s\n", i+1, event.DeltaTime(), event)
		}
	}
	assert.Equal(t, Track{
		&TimeSignatureEvent{Timing{0}, 4, 4, 24, 8},
		&SetTempoEvent{Timing{0}, 500000},
		&EndOfTrackEvent{Timing{384}},
	}, song.Tracks[0])
	assert.Equal(t, Track{
		&ProgramChangeEvent{Timing{0}, 2, 0x46},
		&NoteOnEvent{Timing{0}, 2, 0x30, 0x60},
		&NoteOnEvent{Timing{0}, 2, 0x3c, 0x60},
		&NoteOffEvent{Timing{384}, 2, 0x30, 0},
		&NoteOffEvent{Timing{0}, 2, 0x3c, 0},
		&EndOfTrackEvent{Timing{0}},
	}, song.Tracks[3])

	// We never write running status, so the output is longer than the input
	// by one byte per running-status event, but it must decode to the same
	// song.
	var outputFile bytes.Buffer
	n, e := song.WriteTo(&outputFile)
	require.NoError(t, e, "Failed writing SMF file")
	assert.Equal(t, int64(len(specExampleFile)+5), n)
	rewritten, e := Decode(outputFile.Bytes())
	require.NoError(t, e)
	assert.Equal(t, song, rewritten)

	// The rewritten file has no running status, so it must now survive a
	// second round trip byte-for-byte.
	again, e := Encode(rewritten)
	require.NoError(t, e)
	assert.Equal(t, outputFile.Bytes(), again)
}

func TestRoundTripExplicitStatus(t *testing.T) {
	data := buildFile(2, 480,
		[]byte{
			0x00, 0xff, 0x00, 0x02, 0x00, 0x01,
			0x00, 0xff, 0x03, 0x04, 'L', 'e', 'a', 'd',
			0x00, 0xff, 0x54, 0x05, 0x20, 0x00, 0x00, 0x00, 0x00,
			0x00, 0xff, 0x59, 0x02, 0xfe, 0x00,
			0x00, 0xb0, 0x07, 0x64,
			0x00, 0xe0, 0x00, 0x40,
			0x8f, 0x00, 0x90, 0x45, 0x50,
			0x83, 0x60, 0x80, 0x45, 0x40,
			0x00, 0xff, 0x21, 0x01, 0x00,
			0x00, 0xff, 0x2f, 0x00,
		},
		[]byte{
			0x00, 0xff, 0x20, 0x01, 0x09,
			0x00, 0x99, 0x24, 0x7f,
			0x10, 0xa9, 0x24, 0x10,
			0x10, 0xd9, 0x08,
			0x00, 0xff, 0x7f, 0x02, 0x00, 0x41,
			0x00, 0xff, 0x2f, 0x00,
		},
	)
	song, e := Decode(data)
	require.NoError(t, e)
	assert.Equal(t, FormatIndependent, song.Header.Format)
	output, e := Encode(song)
	require.NoError(t, e)
	assert.Equal(t, data, output)
}

func TestEncodeDerivesTrackCount(t *testing.T) {
	song := &Song{
		Header: Header{
			Format:          FormatSimultaneous,
			TrackCount:      7,
			TicksPerQuarter: 96,
		},
		Tracks: []Track{
			{&EndOfTrackEvent{}},
			{&EndOfTrackEvent{}},
		},
	}
	output, e := Encode(song)
	require.NoError(t, e)
	assert.Equal(t, []byte{0, 2}, output[10:12])
	decoded, e := Decode(output)
	require.NoError(t, e)
	assert.Equal(t, uint16(2), decoded.Header.TrackCount)
}

func TestDecodeHeaderErrors(t *testing.T) {
	smpte := buildFile(0, 0xe728, []byte{0x00, 0xff, 0x2f, 0x00})
	badID := append([]byte("MThD"), smpte[4:]...)
	shortHeader := []byte{'M', 'T', 'h', 'd', 0, 0, 0, 5, 0, 0, 0, 1, 0}
	longHeader := []byte{'M', 'T', 'h', 'd', 0, 0, 0, 8, 0, 0, 0, 0, 0, 0x60,
		0, 0}
	badFormat := buildFile(3, 96)
	zeroDivision := buildFile(1, 0)
	cases := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"SMPTE division", smpte, ErrFormat},
		{"bad chunk ID", badID, ErrFormat},
		{"short header", shortHeader, ErrFormat},
		{"long header", longHeader, ErrFormat},
		{"bad format", badFormat, ErrFormat},
		{"zero division", zeroDivision, ErrFormat},
		{"truncated ID", []byte("MTh"), ErrOutOfData},
		{"truncated header", []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 1},
			ErrOutOfData},
		{"empty", nil, ErrOutOfData},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			song, e := Decode(c.data)
			assert.Nil(t, song)
			require.Error(t, e)
			assert.True(t, errors.Is(e, c.expected), "%s", e)
			t.Logf("Got expected error: %s\n", e)
		})
	}
}

func TestDecodeSMPTEDivisionIsDeterministic(t *testing.T) {
	data := buildFile(0, 0x8000|25<<8|40)
	_, first := Decode(data)
	_, second := Decode(data)
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
	assert.Contains(t, first.Error(), "SMPTE")
}

func TestDecodeTrackErrors(t *testing.T) {
	missingTrack := buildFile(1, 96, []byte{0x00, 0xff, 0x2f, 0x00})
	// Claim two tracks, but only supply one.
	missingTrack[11] = 2
	_, e := Decode(missingTrack)
	assert.True(t, errors.Is(e, ErrOutOfData), "%s", e)
	assert.Contains(t, e.Error(), "track 1")

	wrongID := buildFile(1, 96, []byte{0x00, 0xff, 0x2f, 0x00})
	copy(wrongID[14:], "XTrk")
	_, e = Decode(wrongID)
	assert.True(t, errors.Is(e, ErrFormat), "%s", e)
	assert.Contains(t, e.Error(), "XTrk")

	tooLong := buildFile(1, 96, []byte{0x00, 0xff, 0x2f, 0x00})
	tooLong[21] = 0x40
	_, e = Decode(tooLong)
	assert.True(t, errors.Is(e, ErrOutOfData), "%s", e)

	// An event that runs past the end of its chunk fails, even if the next
	// chunk would have supplied the bytes.
	spill := buildFile(1, 96, []byte{0x00, 0x90, 0x3c}, []byte{0x40})
	_, e = Decode(spill)
	assert.True(t, errors.Is(e, ErrOutOfData), "%s", e)
}

func TestEncodeHeaderErrors(t *testing.T) {
	for _, h := range []Header{
		{Format: FormatSingle, TicksPerQuarter: 0x8060},
		{Format: FormatSingle, TicksPerQuarter: 0},
		{Format: FormatType(3), TicksPerQuarter: 96},
	} {
		_, e := Encode(&Song{Header: h})
		assert.True(t, errors.Is(e, ErrFormat), "%s", e)
	}
	_, e := Encode(&Song{
		Header: Header{Format: FormatSimultaneous, TicksPerQuarter: 96},
		Tracks: make([]Track, 0x10000),
	})
	assert.True(t, errors.Is(e, ErrFormat))
}

type failingWriter struct{}

func (w failingWriter) Write(data []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteToErrors(t *testing.T) {
	song := &Song{
		Header: Header{Format: FormatSingle, TicksPerQuarter: 96},
		Tracks: []Track{{&SysExEvent{}}},
	}
	var output bytes.Buffer
	n, e := song.WriteTo(&output)
	assert.True(t, errors.Is(e, ErrNotImplemented))
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0, output.Len())

	song.Tracks = []Track{{&EndOfTrackEvent{}}}
	_, e = song.WriteTo(failingWriter{})
	assert.EqualError(t, e, "disk full")
}
