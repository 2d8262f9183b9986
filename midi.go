// This package defines a library for decoding and encoding standard MIDI files
// (SMF, usually with a ".mid" extension). The smf_tool directory contains a
// command-line interface that exposes most of the library's features.
package midiio

import (
	"fmt"
	"io"
)

// The largest value that fits in a four-byte variable-length quantity.
const MaxVariableInt = 0x0fffffff

// Reads a MIDI-format variable int (up to 0x0fffffff). Will return io.EOF if
// and only if the EOF occurs when attempting to read the first byte of the
// integer; running out of data partway through wraps ErrOutOfData, and an
// integer longer than four bytes wraps ErrFormat.
func ReadVariableInt(r io.ByteReader) (uint32, error) {
	toReturn := uint32(0)
	for i := 0; i < 4; i++ {
		b, e := r.ReadByte()
		if e != nil {
			if i == 0 {
				// Make sure io.EOF gets propagated up here.
				return 0, e
			}
			if e == io.EOF {
				return 0, fmt.Errorf("Failed reading full integer: %w",
					ErrOutOfData)
			}
			return 0, fmt.Errorf("Failed reading full integer: %w", e)
		}
		toReturn = (toReturn << 7) | uint32(b&0x7f)
		if (b & 0x80) == 0 {
			return toReturn, nil
		}
	}
	return 0, fmt.Errorf("Invalid variable-length integer: highest bit not "+
		"clear on byte 4: %w", ErrFormat)
}

// Writes a MIDI-format variable int (up to 0x0fffffff) to the given output
// stream. Returns an error if one occurs, including if the integer is too big.
func WriteVariableInt(w io.Writer, n uint32) error {
	if n > MaxVariableInt {
		return fmt.Errorf("Integer 0x%08x is too large for a MIDI int: %w", n,
			ErrFormat)
	}
	// Fill the buffer from the end with 7-bit groups, least significant
	// first; only the final byte keeps its top bit clear. A 0 still produces
	// one byte.
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = uint8(n & 0x7f)
	n >>= 7
	for n != 0 {
		i--
		tmp[i] = uint8(n&0x7f) | 0x80
		n >>= 7
	}
	_, e := w.Write(tmp[i:])
	return e
}

// Identifies the top-level category of an event.
type EventType uint8

const (
	EventTypeChannel EventType = iota
	EventTypeMeta
	EventTypeSysEx
	EventTypeDividedSysEx
)

func (t EventType) String() string {
	switch t {
	case EventTypeChannel:
		return "channel"
	case EventTypeMeta:
		return "meta"
	case EventTypeSysEx:
		return "sysEx"
	case EventTypeDividedSysEx:
		return "dividedSysEx"
	}
	return fmt.Sprintf("eventType(%d)", uint8(t))
}

// Identifies a channel or meta event more precisely than its EventType.
// System-exclusive events have SubtypeNone.
type EventSubtype uint8

const (
	SubtypeNone EventSubtype = iota
	SubtypeNoteOff
	SubtypeNoteOn
	SubtypeNoteAftertouch
	SubtypeController
	SubtypeProgramChange
	SubtypeChannelAftertouch
	SubtypePitchBend
	SubtypeSequenceNumber
	SubtypeText
	SubtypeCopyrightNotice
	SubtypeTrackName
	SubtypeInstrumentName
	SubtypeLyrics
	SubtypeMarker
	SubtypeCuePoint
	SubtypeMidiChannelPrefix
	SubtypeEndOfTrack
	SubtypeSetTempo
	SubtypeSmpteOffset
	SubtypeTimeSignature
	SubtypeKeySignature
	SubtypeSequencerSpecific
	SubtypeUnknown
)

var subtypeNames = [...]string{
	SubtypeNone:              "none",
	SubtypeNoteOff:           "noteOff",
	SubtypeNoteOn:            "noteOn",
	SubtypeNoteAftertouch:    "noteAftertouch",
	SubtypeController:        "controller",
	SubtypeProgramChange:     "programChange",
	SubtypeChannelAftertouch: "channelAftertouch",
	SubtypePitchBend:         "pitchBend",
	SubtypeSequenceNumber:    "sequenceNumber",
	SubtypeText:              "text",
	SubtypeCopyrightNotice:   "copyrightNotice",
	SubtypeTrackName:         "trackName",
	SubtypeInstrumentName:    "instrumentName",
	SubtypeLyrics:            "lyrics",
	SubtypeMarker:            "marker",
	SubtypeCuePoint:          "cuePoint",
	SubtypeMidiChannelPrefix: "midiChannelPrefix",
	SubtypeEndOfTrack:        "endOfTrack",
	SubtypeSetTempo:          "setTempo",
	SubtypeSmpteOffset:       "smpteOffset",
	SubtypeTimeSignature:     "timeSignature",
	SubtypeKeySignature:      "keySignature",
	SubtypeSequencerSpecific: "sequencerSpecific",
	SubtypeUnknown:           "unknown",
}

func (s EventSubtype) String() string {
	if int(s) < len(subtypeNames) {
		return subtypeNames[s]
	}
	return fmt.Sprintf("subtype(%d)", uint8(s))
}

// The interface satisfied by every event type in this package. The concrete
// type of an Event fully determines which fields it carries; use a type
// switch to get at them.
type Event interface {
	// The number of ticks since the previous event in the same track.
	DeltaTime() uint32
	Type() EventType
	Subtype() EventSubtype
	String() string
	sealed()
}

// Embedded in every event type to hold its delta-time.
type Timing struct {
	Delta uint32
}

func (t Timing) DeltaTime() uint32 {
	return t.Delta
}

func (t Timing) sealed() {}

// Holds a MIDI note value. The values corresponding to keys on a standard
// keyboard are 21 (A0) through 108 (C8).
type MIDINote uint8

func (n MIDINote) String() string {
	if (n < 21) || (n > 108) {
		return fmt.Sprintf("MIDI note %d", uint8(n))
	}
	notes := [...]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F",
		"F#", "G", "G#"}
	index := (int(n) - 21) % 12
	octave := (int(n) - 12) / 12
	return fmt.Sprintf("%s%d", notes[index], octave)
}

type NoteOffEvent struct {
	Timing
	Channel  uint8
	Note     MIDINote
	Velocity uint8
}

func (v *NoteOffEvent) Type() EventType       { return EventTypeChannel }
func (v *NoteOffEvent) Subtype() EventSubtype { return SubtypeNoteOff }

func (v *NoteOffEvent) String() string {
	return fmt.Sprintf("Channel %d: %s off, velocity = %d", v.Channel, v.Note,
		v.Velocity)
}

// Note that a note-on with velocity 0 is decoded as a NoteOffEvent.
type NoteOnEvent struct {
	Timing
	Channel  uint8
	Note     MIDINote
	Velocity uint8
}

func (v *NoteOnEvent) Type() EventType       { return EventTypeChannel }
func (v *NoteOnEvent) Subtype() EventSubtype { return SubtypeNoteOn }

func (v *NoteOnEvent) String() string {
	return fmt.Sprintf("Channel %d: %s on, velocity = %d", v.Channel, v.Note,
		v.Velocity)
}

// Also known as a "polyphonic key pressure" event.
type NoteAftertouchEvent struct {
	Timing
	Channel uint8
	Note    MIDINote
	Amount  uint8
}

func (v *NoteAftertouchEvent) Type() EventType       { return EventTypeChannel }
func (v *NoteAftertouchEvent) Subtype() EventSubtype { return SubtypeNoteAftertouch }

func (v *NoteAftertouchEvent) String() string {
	return fmt.Sprintf("Channel %d: %s aftertouch pressure %d", v.Channel,
		v.Note, v.Amount)
}

// This represents either a control-change message or a channel-mode message.
// It's a channel-mode message if 120 <= Controller <= 127.
type ControllerEvent struct {
	Timing
	Channel    uint8
	Controller uint8
	Value      uint8
}

func (v *ControllerEvent) Type() EventType       { return EventTypeChannel }
func (v *ControllerEvent) Subtype() EventSubtype { return SubtypeController }

func (v *ControllerEvent) String() string {
	c := fmt.Sprintf("Channel %d: ", v.Channel)
	switch v.Controller {
	case 120:
		return c + fmt.Sprintf("All sound off (v = %d)", v.Value)
	case 121:
		return c + fmt.Sprintf("Reset all controllers (v = %d)", v.Value)
	case 122:
		tmp := "off"
		if v.Value == 127 {
			tmp = "on"
		} else if v.Value != 0 {
			tmp = fmt.Sprintf("unknown setting %d", v.Value)
		}
		return c + fmt.Sprintf("Local control %s", tmp)
	case 123:
		return c + fmt.Sprintf("All notes off (v = %d)", v.Value)
	case 124:
		return c + fmt.Sprintf("Omni mode off (v = %d)", v.Value)
	case 125:
		return c + fmt.Sprintf("Omni mode on (v = %d)", v.Value)
	case 126:
		return c + fmt.Sprintf("Mono mode on (v = %d)", v.Value)
	case 127:
		return c + fmt.Sprintf("Poly mode on (v = %d)", v.Value)
	}
	return c + fmt.Sprintf("Control change, controller number %d, value %d",
		v.Controller, v.Value)
}

// This represents a program-change event, often used to set the "instrument"
// associated with a channel.
type ProgramChangeEvent struct {
	Timing
	Channel uint8
	Program uint8
}

func (v *ProgramChangeEvent) Type() EventType       { return EventTypeChannel }
func (v *ProgramChangeEvent) Subtype() EventSubtype { return SubtypeProgramChange }

func (v *ProgramChangeEvent) String() string {
	return fmt.Sprintf("Channel %d: program change to %d", v.Channel,
		v.Program)
}

// Also known as a "channel pressure" event.
type ChannelAftertouchEvent struct {
	Timing
	Channel uint8
	Amount  uint8
}

func (v *ChannelAftertouchEvent) Type() EventType       { return EventTypeChannel }
func (v *ChannelAftertouchEvent) Subtype() EventSubtype { return SubtypeChannelAftertouch }

func (v *ChannelAftertouchEvent) String() string {
	return fmt.Sprintf("Channel %d: Set channel pressure to %d", v.Channel,
		v.Amount)
}

// Holds a pitch-bend event. The "center" value is 0x2000. The value can be
// at most 14 bits.
type PitchBendEvent struct {
	Timing
	Channel uint8
	Value   uint16
}

func (v *PitchBendEvent) Type() EventType       { return EventTypeChannel }
func (v *PitchBendEvent) Subtype() EventSubtype { return SubtypePitchBend }

func (v *PitchBendEvent) String() string {
	return fmt.Sprintf("Channel %d: Pitch bend value %d", v.Channel, v.Value)
}

// A system-exclusive event starting with 0xf0. Data holds everything after
// the length, including the trailing 0xf7 if the file has one.
type SysExEvent struct {
	Timing
	Data []byte
}

func (m *SysExEvent) Type() EventType       { return EventTypeSysEx }
func (m *SysExEvent) Subtype() EventSubtype { return SubtypeNone }

func (m *SysExEvent) String() string {
	return fmt.Sprintf("System exclusive message. %d bytes: % x.",
		len(m.Data), m.Data)
}

// A system-exclusive continuation (or escape) event starting with 0xf7. These
// are never joined with the events around them.
type DividedSysExEvent struct {
	Timing
	Data []byte
}

func (m *DividedSysExEvent) Type() EventType       { return EventTypeDividedSysEx }
func (m *DividedSysExEvent) Subtype() EventSubtype { return SubtypeNone }

func (m *DividedSysExEvent) String() string {
	return fmt.Sprintf("Divided system exclusive message. %d bytes: % x.",
		len(m.Data), m.Data)
}
