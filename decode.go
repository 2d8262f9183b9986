package midiio

// This file contains the decoder for the events in a single MTrk chunk.

import (
	"fmt"
)

// The number of data bytes following each channel-event status, indexed by
// the status byte's high nibble minus 8.
var channelParamCounts = [...]int{2, 2, 2, 2, 1, 1, 2}

// Decodes the events in one track's payload. A new trackDecoder must be used
// for each track, since running status doesn't carry over between tracks.
type trackDecoder struct {
	c *ReadCursor
	// The most recent channel-event status byte, valid if haveStatus is set.
	lastStatus uint8
	haveStatus bool
}

func newTrackDecoder(payload *ReadCursor) *trackDecoder {
	return &trackDecoder{
		c: payload,
	}
}

// Decodes events until the payload is exhausted.
func (d *trackDecoder) readAll() (Track, error) {
	// We'll just guess for now that the track will require approximately 3
	// bytes per event.
	events := make(Track, 0, d.c.Remaining()/3)
	for !d.c.EOF() {
		start := d.c.Offset()
		event, e := d.readEvent()
		if e != nil {
			return nil, fmt.Errorf("Failed reading event %d at offset 0x%x: "+
				"%w", len(events), start, e)
		}
		events = append(events, event)
	}
	return events, nil
}

// Decodes the event at the cursor, including its delta-time.
func (d *trackDecoder) readEvent() (Event, error) {
	delta, e := d.c.ReadVarInt()
	if e != nil {
		return nil, fmt.Errorf("Failed reading time delta: %w", e)
	}
	statusOffset := d.c.Offset()
	b, e := d.c.ReadInt8(false)
	if e != nil {
		return nil, fmt.Errorf("Failed reading status byte: %w", e)
	}
	status := uint8(b)
	switch status {
	case 0xff:
		return d.readMetaEvent(delta)
	case 0xf0, 0xf7:
		return d.readSysExEvent(delta, status)
	}
	if (status & 0xf0) == 0xf0 {
		return nil, fmt.Errorf("Status byte 0x%02x at offset 0x%x: %w",
			status, statusOffset, ErrUnrecognisedEventType)
	}
	return d.readChannelEvent(delta, status)
}

func (d *trackDecoder) readMetaEvent(delta uint32) (Event, error) {
	b, e := d.c.ReadInt8(false)
	if e != nil {
		return nil, fmt.Errorf("Failed reading meta-event type: %w", e)
	}
	metaType := uint8(b)
	length, e := d.c.ReadVarInt()
	if e != nil {
		return nil, fmt.Errorf("Failed reading meta-event length: %w", e)
	}
	k := metaKindsByType[metaType]
	if (k != nil) && (k.length != variableLength) &&
		(int(length) != k.length) {
		return nil, fmt.Errorf("Expected length for %s meta-event is %d but "+
			"found %d: %w", k.subtype, k.length, length, ErrFormat)
	}
	payload, e := d.c.Sub(int(length))
	if e != nil {
		return nil, fmt.Errorf("Failed reading meta-event data: %w", e)
	}
	if k == nil {
		return &UnknownMetaEvent{
			Timing:   Timing{delta},
			MetaType: metaType,
			Data:     copyPayload(payload),
		}, nil
	}
	event, e := k.decode(k, delta, payload)
	if e != nil {
		return nil, fmt.Errorf("Bad %s meta-event: %w", k.subtype, e)
	}
	return event, nil
}

// Reads the length and payload of a sysex event. The 0xf0 or 0xf7 byte must
// have already been consumed.
func (d *trackDecoder) readSysExEvent(delta uint32, status uint8) (Event,
	error) {
	length, e := d.c.ReadVarInt()
	if e != nil {
		return nil, fmt.Errorf("Couldn't read SysEx message length: %w", e)
	}
	payload, e := d.c.Sub(int(length))
	if e != nil {
		return nil, fmt.Errorf("Couldn't read SysEx message data: %w", e)
	}
	if status == 0xf7 {
		return &DividedSysExEvent{
			Timing: Timing{delta},
			Data:   copyPayload(payload),
		}, nil
	}
	return &SysExEvent{
		Timing: Timing{delta},
		Data:   copyPayload(payload),
	}, nil
}

// Reads a channel event whose first byte, b, has already been consumed. If b
// isn't a status byte, it's the first data byte of an event using running
// status.
func (d *trackDecoder) readChannelEvent(delta uint32, b uint8) (Event,
	error) {
	var params [2]uint8
	got := 0
	status := b
	if (b & 0x80) == 0 {
		if !d.haveStatus {
			return nil, fmt.Errorf("Data byte 0x%02x without a preceding "+
				"status byte for running status: %w", b, ErrFormat)
		}
		status = d.lastStatus
		params[0] = b
		got = 1
	} else {
		d.lastStatus = status
		d.haveStatus = true
	}
	kind := int(status>>4) - 8
	if (kind < 0) || (kind >= len(channelParamCounts)) {
		return nil, fmt.Errorf("Channel status 0x%02x: %w", status,
			ErrUnrecognisedEventType)
	}
	for ; got < channelParamCounts[kind]; got++ {
		v, e := d.c.ReadInt8(false)
		if e != nil {
			return nil, fmt.Errorf("Failed reading parameter %d of channel "+
				"event 0x%02x: %w", got+1, status, e)
		}
		if v > 0x7f {
			return nil, fmt.Errorf("Invalid data byte 0x%02x in channel event "+
				"0x%02x: %w", v, status, ErrFormat)
		}
		params[got] = uint8(v)
	}
	t := Timing{delta}
	channel := status & 0xf
	switch status & 0xf0 {
	case 0x80:
		return &NoteOffEvent{t, channel, MIDINote(params[0]), params[1]}, nil
	case 0x90:
		// A note-on with velocity 0 is how most files turn notes off.
		if params[1] == 0 {
			return &NoteOffEvent{t, channel, MIDINote(params[0]), 0}, nil
		}
		return &NoteOnEvent{t, channel, MIDINote(params[0]), params[1]}, nil
	case 0xa0:
		return &NoteAftertouchEvent{t, channel, MIDINote(params[0]),
			params[1]}, nil
	case 0xb0:
		return &ControllerEvent{t, channel, params[0], params[1]}, nil
	case 0xc0:
		return &ProgramChangeEvent{t, channel, params[0]}, nil
	case 0xd0:
		return &ChannelAftertouchEvent{t, channel, params[0]}, nil
	}
	value := uint16(params[1])<<7 | uint16(params[0])
	return &PitchBendEvent{t, channel, value}, nil
}
