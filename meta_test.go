package midiio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaEventRoundTrip(t *testing.T) {
	cases := []struct {
		data     []byte
		expected Event
	}{
		{[]byte{0x00, 0xff, 0x00, 0x02, 0x01, 0x02},
			&SequenceNumberEvent{Timing{0}, 0x0102}},
		{[]byte{0x00, 0xff, 0x01, 0x02, 'h', 'i'},
			&TextEvent{Timing{0}, SubtypeText, "hi"}},
		{[]byte{0x00, 0xff, 0x02, 0x01, 'c'},
			&TextEvent{Timing{0}, SubtypeCopyrightNotice, "c"}},
		{[]byte{0x00, 0xff, 0x03, 0x05, 'P', 'i', 'a', 'n', 'o'},
			&TextEvent{Timing{0}, SubtypeTrackName, "Piano"}},
		{[]byte{0x00, 0xff, 0x04, 0x00},
			&TextEvent{Timing{0}, SubtypeInstrumentName, ""}},
		{[]byte{0x05, 0xff, 0x05, 0x02, 'l', 'a'},
			&TextEvent{Timing{5}, SubtypeLyrics, "la"}},
		{[]byte{0x00, 0xff, 0x06, 0x01, 'A'},
			&TextEvent{Timing{0}, SubtypeMarker, "A"}},
		{[]byte{0x00, 0xff, 0x07, 0x02, 0xc3, 0x28},
			&TextEvent{Timing{0}, SubtypeCuePoint, "\xc3\x28"}},
		{[]byte{0x00, 0xff, 0x20, 0x01, 0x09},
			&ChannelPrefixEvent{Timing{0}, 9}},
		{[]byte{0x83, 0x00, 0xff, 0x2f, 0x00},
			&EndOfTrackEvent{Timing{0x180}}},
		{[]byte{0x00, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20},
			&SetTempoEvent{Timing{0}, 500000}},
		{[]byte{0x00, 0xff, 0x54, 0x05, 0x61, 0x02, 0x03, 0x04, 0x05},
			&SMPTEOffsetEvent{Timing{0}, 30, 1, 2, 3, 4, 5}},
		{[]byte{0x00, 0xff, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08},
			&TimeSignatureEvent{Timing{0}, 4, 4, 24, 8}},
		{[]byte{0x00, 0xff, 0x58, 0x04, 0x06, 0x03, 0x24, 0x08},
			&TimeSignatureEvent{Timing{0}, 6, 8, 36, 8}},
		{[]byte{0x00, 0xff, 0x59, 0x02, 0xfd, 0x01},
			&KeySignatureEvent{Timing{0}, -3, ScaleMinor}},
		{[]byte{0x00, 0xff, 0x59, 0x02, 0x07, 0x00},
			&KeySignatureEvent{Timing{0}, 7, ScaleMajor}},
		{[]byte{0x00, 0xff, 0x7f, 0x03, 0x00, 0x00, 0x41},
			&SequencerSpecificEvent{Timing{0}, []byte{0x00, 0x00, 0x41}}},
		{[]byte{0x00, 0xff, 0x60, 0x02, 0xab, 0xcd},
			&UnknownMetaEvent{Timing{0}, 0x60, []byte{0xab, 0xcd}}},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("% x", c.data), func(t *testing.T) {
			track := decodeTrack(t, c.data)
			require.Len(t, track, 1)
			assert.Equal(t, c.expected, track[0])
			assert.Equal(t, EventTypeMeta, track[0].Type())
			t.Logf("Decoded: %s\n", track[0])
			output, e := track.encode()
			require.NoError(t, e)
			assert.Equal(t, c.data, output)
		})
	}
}

func TestMetaEventLengthMismatch(t *testing.T) {
	cases := map[string][]byte{
		"sequenceNumber":    {0x00, 0xff, 0x00, 0x01, 0x01},
		"midiChannelPrefix": {0x00, 0xff, 0x20, 0x02, 0x01, 0x02},
		"endOfTrack":        {0x00, 0xff, 0x2f, 0x01, 0x00},
		"setTempo":          {0x00, 0xff, 0x51, 0x02, 0x07, 0xa1},
		"smpteOffset":       {0x00, 0xff, 0x54, 0x04, 0, 0, 0, 0},
		"timeSignature":     {0x00, 0xff, 0x58, 0x03, 4, 2, 24},
		"keySignature":      {0x00, 0xff, 0x59, 0x01, 0x00},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			e := decodeTrackError(payload)
			require.Error(t, e)
			assert.True(t, errors.Is(e, ErrFormat), "%s", e)
			assert.Contains(t, e.Error(), name)
		})
	}
}

func TestSetTempoRange(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x7fffff, 0xabcdef, 0xffffff} {
		track := Track{&SetTempoEvent{Timing{0}, v}}
		output, e := track.encode()
		require.NoError(t, e)
		decoded := decodeTrack(t, output)
		assert.Equal(t, track, decoded)
	}
	_, e := Track{&SetTempoEvent{Timing{0}, 0x1000000}}.encode()
	assert.True(t, errors.Is(e, ErrFormat))
}

func TestTimeSignatureDenominator(t *testing.T) {
	output, e := Track{&TimeSignatureEvent{Timing{0}, 3, 4, 24, 8}}.encode()
	require.NoError(t, e)
	assert.Equal(t, []byte{0x00, 0xff, 0x58, 0x04, 0x03, 0x02, 0x18, 0x08},
		output)
	for k := uint8(0); k < 32; k++ {
		track := decodeTrack(t, []byte{0x00, 0xff, 0x58, 0x04, 1, k, 0, 0})
		assert.Equal(t, uint32(1)<<k,
			track[0].(*TimeSignatureEvent).Denominator)
	}
	for _, d := range []uint32{0, 3, 6, 12} {
		_, e = Track{&TimeSignatureEvent{Timing{0}, 3, d, 24, 8}}.encode()
		assert.True(t, errors.Is(e, ErrFormat), "Denominator %d", d)
	}
	e = decodeTrackError([]byte{0x00, 0xff, 0x58, 0x04, 1, 32, 0, 0})
	assert.True(t, errors.Is(e, ErrFormat))
}

func TestSMPTEOffsetFrameRates(t *testing.T) {
	for code, rate := range []uint8{24, 25, 29, 30} {
		first := uint8(code<<5) | 23
		data := []byte{0x00, 0xff, 0x54, 0x05, first, 59, 58, 10, 99}
		track := decodeTrack(t, data)
		event := track[0].(*SMPTEOffsetEvent)
		assert.Equal(t, rate, event.FrameRate)
		assert.Equal(t, uint8(23), event.Hour)
		output, e := track.encode()
		require.NoError(t, e)
		assert.Equal(t, data, output)
	}
	// Codes 4 through 7 have no frame rate.
	e := decodeTrackError([]byte{0x00, 0xff, 0x54, 0x05, 0x80, 0, 0, 0, 0})
	assert.True(t, errors.Is(e, ErrFormat))
	_, e = Track{&SMPTEOffsetEvent{Timing: Timing{0}, FrameRate: 60}}.encode()
	assert.True(t, errors.Is(e, ErrFormat))
	_, e = Track{&SMPTEOffsetEvent{Timing: Timing{0}, FrameRate: 25,
		Hour: 32}}.encode()
	assert.True(t, errors.Is(e, ErrFormat))
}

func TestKeySignatureRange(t *testing.T) {
	for _, payload := range [][]byte{{0xf8, 0x00}, {0x08, 0x00},
		{0x00, 0x02}} {
		e := decodeTrackError(append([]byte{0x00, 0xff, 0x59, 0x02},
			payload...))
		assert.True(t, errors.Is(e, ErrFormat), "% x", payload)
	}
	_, e := Track{&KeySignatureEvent{Timing{0}, -8, ScaleMajor}}.encode()
	assert.True(t, errors.Is(e, ErrFormat))
	_, e = Track{&KeySignatureEvent{Timing{0}, 0, Scale(2)}}.encode()
	assert.True(t, errors.Is(e, ErrFormat))
}

func TestUnknownMetaEventTypeCollision(t *testing.T) {
	_, e := Track{&UnknownMetaEvent{Timing{0}, 0x51, []byte{1, 2, 3}}}.encode()
	require.Error(t, e)
	assert.True(t, errors.Is(e, ErrUnknownEvent))
	assert.Contains(t, e.Error(), "setTempo")
}

func TestInvalidTextKind(t *testing.T) {
	_, e := Track{&TextEvent{Timing{0}, SubtypeSetTempo, "x"}}.encode()
	assert.True(t, errors.Is(e, ErrUnknownEvent))
	_, e = Track{&TextEvent{Timing{0}, SubtypeNoteOn, "x"}}.encode()
	assert.True(t, errors.Is(e, ErrUnknownEvent))
}

func TestMetaTableIsConsistent(t *testing.T) {
	assert.Len(t, metaKindsByType, len(metaKinds))
	assert.Len(t, metaKindsBySubtype, len(metaKinds))
	for _, k := range metaKinds {
		assert.NotEqual(t, SubtypeUnknown, k.subtype)
		assert.Equal(t, k, metaKindsBySubtype[k.subtype])
	}
}
