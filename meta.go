package midiio

// This file contains the meta-event types, and the table describing how each
// of them is laid out in an SMF file. The decoder and encoder both go through
// metaKinds, so the two directions can't disagree about a type byte or a
// payload length.

import (
	"fmt"
	"math/bits"
)

// Used in metaKind.length for meta-events that may have any length.
const variableLength = -1

// Describes a single meta-event type.
type metaKind struct {
	// The byte following 0xff in the file.
	typeByte uint8
	subtype  EventSubtype
	// The required payload length, or variableLength.
	length int
	// Builds the event from its payload. The payload cursor contains exactly
	// the number of bytes given in the file.
	decode func(k *metaKind, delta uint32, payload *ReadCursor) (Event, error)
	// Returns the payload bytes for the event, not including the type or
	// length.
	encode func(e Event) ([]byte, error)
}

var metaKinds = []*metaKind{
	{0x00, SubtypeSequenceNumber, 2, decodeSequenceNumber, encodeSequenceNumber},
	{0x01, SubtypeText, variableLength, decodeText, encodeText},
	{0x02, SubtypeCopyrightNotice, variableLength, decodeText, encodeText},
	{0x03, SubtypeTrackName, variableLength, decodeText, encodeText},
	{0x04, SubtypeInstrumentName, variableLength, decodeText, encodeText},
	{0x05, SubtypeLyrics, variableLength, decodeText, encodeText},
	{0x06, SubtypeMarker, variableLength, decodeText, encodeText},
	{0x07, SubtypeCuePoint, variableLength, decodeText, encodeText},
	{0x20, SubtypeMidiChannelPrefix, 1, decodeChannelPrefix, encodeChannelPrefix},
	{0x2f, SubtypeEndOfTrack, 0, decodeEndOfTrack, encodeEndOfTrack},
	{0x51, SubtypeSetTempo, 3, decodeSetTempo, encodeSetTempo},
	{0x54, SubtypeSmpteOffset, 5, decodeSMPTEOffset, encodeSMPTEOffset},
	{0x58, SubtypeTimeSignature, 4, decodeTimeSignature, encodeTimeSignature},
	{0x59, SubtypeKeySignature, 2, decodeKeySignature, encodeKeySignature},
	{0x7f, SubtypeSequencerSpecific, variableLength, decodeSequencerSpecific,
		encodeSequencerSpecific},
}

var (
	metaKindsByType    = make(map[uint8]*metaKind)
	metaKindsBySubtype = make(map[EventSubtype]*metaKind)
)

func init() {
	for _, k := range metaKinds {
		metaKindsByType[k.typeByte] = k
		metaKindsBySubtype[k.subtype] = k
	}
}

// Returns true for the seven subtypes carried by a TextEvent.
func IsTextSubtype(s EventSubtype) bool {
	return (s >= SubtypeText) && (s <= SubtypeCuePoint)
}

func wrongEventType(k *metaKind, e Event) error {
	return fmt.Errorf("Event of type %T can't be written as a %s "+
		"meta-event: %w", e, k.subtype, ErrUnknownEvent)
}

// Returns a copy of the remaining payload bytes, so events don't alias the
// buffer they were decoded from.
func copyPayload(payload *ReadCursor) []byte {
	b, _ := payload.ReadFixed(payload.Remaining())
	return append([]byte{}, b...)
}

// A meta-event holding a sequence number.
type SequenceNumberEvent struct {
	Timing
	Number uint16
}

func (n *SequenceNumberEvent) Type() EventType       { return EventTypeMeta }
func (n *SequenceNumberEvent) Subtype() EventSubtype { return SubtypeSequenceNumber }

func (n *SequenceNumberEvent) String() string {
	return fmt.Sprintf("Sequence number: %d", n.Number)
}

func decodeSequenceNumber(k *metaKind, delta uint32, payload *ReadCursor) (
	Event, error) {
	n, e := payload.ReadInt16()
	if e != nil {
		return nil, e
	}
	return &SequenceNumberEvent{
		Timing: Timing{delta},
		Number: n,
	}, nil
}

func encodeSequenceNumber(e Event) ([]byte, error) {
	n, ok := e.(*SequenceNumberEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeSequenceNumber], e)
	}
	return []byte{uint8(n.Number >> 8), uint8(n.Number)}, nil
}

// Holds any of the seven text meta-events; Kind says which one.
type TextEvent struct {
	Timing
	// One of SubtypeText through SubtypeCuePoint.
	Kind EventSubtype
	// The raw text bytes. SMF files don't specify an encoding, so this may
	// not be valid UTF-8.
	Text string
}

func (t *TextEvent) Type() EventType       { return EventTypeMeta }
func (t *TextEvent) Subtype() EventSubtype { return t.Kind }

func (t *TextEvent) String() string {
	var eventType string
	switch t.Kind {
	case SubtypeText:
		eventType = "Generic text event"
	case SubtypeCopyrightNotice:
		eventType = "Copyright notice"
	case SubtypeTrackName:
		eventType = "Track/sequence name"
	case SubtypeInstrumentName:
		eventType = "Instrument name"
	case SubtypeLyrics:
		eventType = "Lyric"
	case SubtypeMarker:
		eventType = "Marker"
	case SubtypeCuePoint:
		eventType = "Cue point"
	default:
		eventType = fmt.Sprintf("Invalid text event kind %s", t.Kind)
	}
	return fmt.Sprintf("%s: %s", eventType, t.Text)
}

func decodeText(k *metaKind, delta uint32, payload *ReadCursor) (Event,
	error) {
	b, _ := payload.ReadFixed(payload.Remaining())
	return &TextEvent{
		Timing: Timing{delta},
		Kind:   k.subtype,
		Text:   string(b),
	}, nil
}

func encodeText(e Event) ([]byte, error) {
	t, ok := e.(*TextEvent)
	if !ok || !IsTextSubtype(t.Kind) {
		return nil, wrongEventType(metaKindsBySubtype[e.Subtype()], e)
	}
	return []byte(t.Text), nil
}

// This represents a "MIDI Channel Prefix" meta-event, associating subsequent
// meta and sysex events with a channel number.
type ChannelPrefixEvent struct {
	Timing
	Channel uint8
}

func (c *ChannelPrefixEvent) Type() EventType       { return EventTypeMeta }
func (c *ChannelPrefixEvent) Subtype() EventSubtype { return SubtypeMidiChannelPrefix }

func (c *ChannelPrefixEvent) String() string {
	return fmt.Sprintf("Channel prefix: %d", c.Channel)
}

func decodeChannelPrefix(k *metaKind, delta uint32, payload *ReadCursor) (
	Event, error) {
	c, e := payload.ReadInt8(false)
	if e != nil {
		return nil, e
	}
	return &ChannelPrefixEvent{
		Timing:  Timing{delta},
		Channel: uint8(c),
	}, nil
}

func encodeChannelPrefix(e Event) ([]byte, error) {
	c, ok := e.(*ChannelPrefixEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeMidiChannelPrefix],
			e)
	}
	return []byte{c.Channel}, nil
}

type EndOfTrackEvent struct {
	Timing
}

func (t *EndOfTrackEvent) Type() EventType       { return EventTypeMeta }
func (t *EndOfTrackEvent) Subtype() EventSubtype { return SubtypeEndOfTrack }

func (t *EndOfTrackEvent) String() string {
	return "End of track"
}

func decodeEndOfTrack(k *metaKind, delta uint32, payload *ReadCursor) (Event,
	error) {
	return &EndOfTrackEvent{
		Timing: Timing{delta},
	}, nil
}

func encodeEndOfTrack(e Event) ([]byte, error) {
	if _, ok := e.(*EndOfTrackEvent); !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeEndOfTrack], e)
	}
	return nil, nil
}

// Holds the 24-bit value for a "set tempo" meta-event: the number of
// microseconds per quarter note.
type SetTempoEvent struct {
	Timing
	MicrosecondsPerBeat uint32
}

func (t *SetTempoEvent) Type() EventType       { return EventTypeMeta }
func (t *SetTempoEvent) Subtype() EventSubtype { return SubtypeSetTempo }

func (t *SetTempoEvent) String() string {
	if t.MicrosecondsPerBeat == 0 {
		return "Set tempo to 0 us/quarter note"
	}
	bpm := 60000000.0 / float32(t.MicrosecondsPerBeat)
	return fmt.Sprintf("Set tempo to %d us/quarter note (%f BPM)",
		t.MicrosecondsPerBeat, bpm)
}

func decodeSetTempo(k *metaKind, delta uint32, payload *ReadCursor) (Event,
	error) {
	b, e := payload.ReadFixed(3)
	if e != nil {
		return nil, e
	}
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return &SetTempoEvent{
		Timing:              Timing{delta},
		MicrosecondsPerBeat: v,
	}, nil
}

func encodeSetTempo(e Event) ([]byte, error) {
	t, ok := e.(*SetTempoEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeSetTempo], e)
	}
	v := t.MicrosecondsPerBeat
	if v > 0xffffff {
		return nil, fmt.Errorf("Got set tempo value that's over 24 bits: "+
			"0x%x: %w", v, ErrFormat)
	}
	return []byte{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// The frame rates that can be stored in an SMPTE offset's hour byte, indexed
// by the code in its top three bits.
var smpteFrameRates = [...]uint8{24, 25, 29, 30}

// Holds an SMPTE offset meta-event's data. A FrameRate of 29 stands for 30
// drop-frame.
type SMPTEOffsetEvent struct {
	Timing
	FrameRate uint8
	Hour      uint8
	Minute    uint8
	Second    uint8
	Frame     uint8
	// Hundredths of a frame.
	Subframe uint8
}

func (s *SMPTEOffsetEvent) Type() EventType       { return EventTypeMeta }
func (s *SMPTEOffsetEvent) Subtype() EventSubtype { return SubtypeSmpteOffset }

func (s *SMPTEOffsetEvent) String() string {
	frame := float32(s.Frame)
	frame += float32(s.Subframe) / 100.0
	return fmt.Sprintf("SMPTE offset: %d:%d:%d, %f frames at %d fps", s.Hour,
		s.Minute, s.Second, frame, s.FrameRate)
}

func decodeSMPTEOffset(k *metaKind, delta uint32, payload *ReadCursor) (Event,
	error) {
	b, e := payload.ReadFixed(5)
	if e != nil {
		return nil, e
	}
	code := b[0] >> 5
	if int(code) >= len(smpteFrameRates) {
		return nil, fmt.Errorf("Invalid SMPTE offset frame rate code %d: %w",
			code, ErrFormat)
	}
	return &SMPTEOffsetEvent{
		Timing:    Timing{delta},
		FrameRate: smpteFrameRates[code],
		Hour:      b[0] & 0x1f,
		Minute:    b[1],
		Second:    b[2],
		Frame:     b[3],
		Subframe:  b[4],
	}, nil
}

func encodeSMPTEOffset(e Event) ([]byte, error) {
	s, ok := e.(*SMPTEOffsetEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeSmpteOffset], e)
	}
	code := -1
	for i, rate := range smpteFrameRates {
		if rate == s.FrameRate {
			code = i
			break
		}
	}
	if code < 0 {
		return nil, fmt.Errorf("Unsupported SMPTE offset frame rate %d: %w",
			s.FrameRate, ErrFormat)
	}
	if s.Hour > 0x1f {
		return nil, fmt.Errorf("SMPTE offset hour %d doesn't fit in 5 bits: "+
			"%w", s.Hour, ErrFormat)
	}
	return []byte{
		uint8(code<<5) | s.Hour,
		s.Minute,
		s.Second,
		s.Frame,
		s.Subframe,
	}, nil
}

type TimeSignatureEvent struct {
	Timing
	Numerator uint8
	// The actual denominator, for example 8 for 5/8 time. It is stored in the
	// file as a power of two, so it must be one here.
	Denominator uint32
	// The number of MIDI clocks (24ths of a quarter note) per metronome
	// tick.
	Metronome uint8
	// The number of notated 32nd notes per quarter note.
	ThirtySeconds uint8
}

func (s *TimeSignatureEvent) Type() EventType       { return EventTypeMeta }
func (s *TimeSignatureEvent) Subtype() EventSubtype { return SubtypeTimeSignature }

func (s *TimeSignatureEvent) String() string {
	return fmt.Sprintf("Time signature: %d/%d time, %d clocks per metronome "+
		"tick, %d 32nd notes per notated quarter note", s.Numerator,
		s.Denominator, s.Metronome, s.ThirtySeconds)
}

func decodeTimeSignature(k *metaKind, delta uint32, payload *ReadCursor) (
	Event, error) {
	b, e := payload.ReadFixed(4)
	if e != nil {
		return nil, e
	}
	if b[1] > 31 {
		return nil, fmt.Errorf("Time signature denominator 2^%d is too "+
			"large: %w", b[1], ErrFormat)
	}
	return &TimeSignatureEvent{
		Timing:        Timing{delta},
		Numerator:     b[0],
		Denominator:   uint32(1) << b[1],
		Metronome:     b[2],
		ThirtySeconds: b[3],
	}, nil
}

func encodeTimeSignature(e Event) ([]byte, error) {
	s, ok := e.(*TimeSignatureEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeTimeSignature], e)
	}
	d := s.Denominator
	if (d == 0) || ((d & (d - 1)) != 0) {
		return nil, fmt.Errorf("Time signature denominator %d isn't a power "+
			"of two: %w", d, ErrFormat)
	}
	return []byte{
		s.Numerator,
		uint8(bits.TrailingZeros32(d)),
		s.Metronome,
		s.ThirtySeconds,
	}, nil
}

type Scale uint8

const (
	ScaleMajor Scale = 0
	ScaleMinor Scale = 1
)

func (s Scale) String() string {
	switch s {
	case ScaleMajor:
		return "major"
	case ScaleMinor:
		return "minor"
	}
	return fmt.Sprintf("scale(%d)", uint8(s))
}

type KeySignatureEvent struct {
	Timing
	// Valid range is from -7 to +7. Negative 7 indicates 7 flats, positive 7
	// indicates 7 sharps, and 0 indicates no sharps or flats.
	Key   int8
	Scale Scale
}

func (s *KeySignatureEvent) Type() EventType       { return EventTypeMeta }
func (s *KeySignatureEvent) Subtype() EventSubtype { return SubtypeKeySignature }

func (s *KeySignatureEvent) String() string {
	sf := s.Key
	tmp := "sharps or flats"
	if sf < 0 {
		sf = -sf
		tmp = "flat"
	} else if sf > 0 {
		tmp = "sharp"
	}
	if sf > 1 {
		tmp += "s"
	}
	return fmt.Sprintf("Key signature: %d %s, %s key", sf, tmp, s.Scale)
}

func checkKeySignature(key int, scale int) error {
	if (key < -7) || (key > 7) {
		return fmt.Errorf("Bad number of sharps or flats in key signature: "+
			"%d: %w", key, ErrFormat)
	}
	if (scale != int(ScaleMajor)) && (scale != int(ScaleMinor)) {
		return fmt.Errorf("Invalid major/minor setting in key signature: "+
			"%d: %w", scale, ErrFormat)
	}
	return nil
}

func decodeKeySignature(k *metaKind, delta uint32, payload *ReadCursor) (
	Event, error) {
	key, e := payload.ReadInt8(true)
	if e != nil {
		return nil, e
	}
	scale, e := payload.ReadInt8(false)
	if e != nil {
		return nil, e
	}
	e = checkKeySignature(key, scale)
	if e != nil {
		return nil, e
	}
	return &KeySignatureEvent{
		Timing: Timing{delta},
		Key:    int8(key),
		Scale:  Scale(scale),
	}, nil
}

func encodeKeySignature(e Event) ([]byte, error) {
	s, ok := e.(*KeySignatureEvent)
	if !ok {
		return nil, wrongEventType(metaKindsBySubtype[SubtypeKeySignature], e)
	}
	err := checkKeySignature(int(s.Key), int(s.Scale))
	if err != nil {
		return nil, err
	}
	return []byte{uint8(s.Key), uint8(s.Scale)}, nil
}

// Holds the opaque payload of a sequencer-specific (0x7f) meta-event.
type SequencerSpecificEvent struct {
	Timing
	Data []byte
}

func (s *SequencerSpecificEvent) Type() EventType       { return EventTypeMeta }
func (s *SequencerSpecificEvent) Subtype() EventSubtype { return SubtypeSequencerSpecific }

func (s *SequencerSpecificEvent) String() string {
	return fmt.Sprintf("Sequencer-specific meta-event. %d bytes: % x",
		len(s.Data), s.Data)
}

func decodeSequencerSpecific(k *metaKind, delta uint32, payload *ReadCursor) (
	Event, error) {
	return &SequencerSpecificEvent{
		Timing: Timing{delta},
		Data:   copyPayload(payload),
	}, nil
}

func encodeSequencerSpecific(e Event) ([]byte, error) {
	s, ok := e.(*SequencerSpecificEvent)
	if !ok {
		return nil, wrongEventType(
			metaKindsBySubtype[SubtypeSequencerSpecific], e)
	}
	return s.Data, nil
}

// Holds a meta-event type that we don't understand. MetaType is the byte
// following 0xff in the file, and must not be one of the types above.
type UnknownMetaEvent struct {
	Timing
	MetaType uint8
	Data     []byte
}

func (g *UnknownMetaEvent) Type() EventType       { return EventTypeMeta }
func (g *UnknownMetaEvent) Subtype() EventSubtype { return SubtypeUnknown }

func (g *UnknownMetaEvent) String() string {
	return fmt.Sprintf("Unknown meta-event. Type 0x%02x, size: %d bytes",
		g.MetaType, len(g.Data))
}
