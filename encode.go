package midiio

// This file contains the encoder for track events. Every channel event is
// written with an explicit status byte; running status is never used.

import (
	"fmt"
)

func checkDataByte(name string, v uint8) error {
	if v > 0x7f {
		return fmt.Errorf("Invalid %s: %d: %w", name, v, ErrFormat)
	}
	return nil
}

func writeChannelEvent(w *WriteCursor, status, channel uint8,
	params ...uint8) error {
	if channel > 0xf {
		return fmt.Errorf("Invalid channel: %d: %w", channel, ErrFormat)
	}
	for _, p := range params {
		if e := checkDataByte("channel event data byte", p); e != nil {
			return e
		}
	}
	w.WriteInt8(status | channel)
	w.Write(params)
	return nil
}

func writeMetaEvent(w *WriteCursor, metaType uint8, payload []byte) error {
	w.WriteInt8(0xff)
	w.WriteInt8(metaType)
	e := w.WriteVarInt(uint32(len(payload)))
	if e != nil {
		return fmt.Errorf("Failed writing meta-event length: %w", e)
	}
	w.Write(payload)
	return nil
}

func encodeMetaEvent(w *WriteCursor, event Event) error {
	if u, ok := event.(*UnknownMetaEvent); ok {
		if k := metaKindsByType[u.MetaType]; k != nil {
			return fmt.Errorf("Unknown meta-event uses type 0x%02x, which "+
				"belongs to %s: %w", u.MetaType, k.subtype, ErrUnknownEvent)
		}
		return writeMetaEvent(w, u.MetaType, u.Data)
	}
	k := metaKindsBySubtype[event.Subtype()]
	if k == nil {
		return fmt.Errorf("Unrecognised meta-event subtype %s: %w",
			event.Subtype(), ErrUnknownEvent)
	}
	payload, e := k.encode(event)
	if e != nil {
		return e
	}
	if (k.length != variableLength) && (len(payload) != k.length) {
		return fmt.Errorf("Got %d bytes for %s meta-event, expected %d: %w",
			len(payload), k.subtype, k.length, ErrFormat)
	}
	return writeMetaEvent(w, k.typeByte, payload)
}

// Writes the delta-time and body of a single event.
func encodeEvent(w *WriteCursor, event Event) error {
	if event == nil {
		return fmt.Errorf("Can't write a nil event: %w", ErrUnknownEvent)
	}
	e := w.WriteVarInt(event.DeltaTime())
	if e != nil {
		return fmt.Errorf("Couldn't write time delta: %w", e)
	}
	switch v := event.(type) {
	case *NoteOffEvent:
		return writeChannelEvent(w, 0x80, v.Channel, uint8(v.Note), v.Velocity)
	case *NoteOnEvent:
		return writeChannelEvent(w, 0x90, v.Channel, uint8(v.Note), v.Velocity)
	case *NoteAftertouchEvent:
		return writeChannelEvent(w, 0xa0, v.Channel, uint8(v.Note), v.Amount)
	case *ControllerEvent:
		return writeChannelEvent(w, 0xb0, v.Channel, v.Controller, v.Value)
	case *ProgramChangeEvent:
		return writeChannelEvent(w, 0xc0, v.Channel, v.Program)
	case *ChannelAftertouchEvent:
		return writeChannelEvent(w, 0xd0, v.Channel, v.Amount)
	case *PitchBendEvent:
		if v.Value > 0x3fff {
			return fmt.Errorf("Invalid pitch-bend value: %d: %w", v.Value,
				ErrFormat)
		}
		return writeChannelEvent(w, 0xe0, v.Channel, uint8(v.Value&0x7f),
			uint8(v.Value>>7))
	case *SysExEvent, *DividedSysExEvent:
		return fmt.Errorf("Writing %s events: %w", event.Type(),
			ErrNotImplemented)
	}
	if event.Type() == EventTypeMeta {
		return encodeMetaEvent(w, event)
	}
	return fmt.Errorf("Unrecognised %s event %T: %w", event.Type(), event,
		ErrUnknownEvent)
}

// Encodes the events of t, without the surrounding chunk.
func (t Track) encode() ([]byte, error) {
	var w WriteCursor
	for i, event := range t {
		e := encodeEvent(&w, event)
		if e != nil {
			return nil, fmt.Errorf("Couldn't write event %d: %w", i, e)
		}
	}
	return w.Bytes(), nil
}
