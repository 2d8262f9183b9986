package midiio

// This file defines the errors returned by the decoder and encoder. Every
// error returned by this package wraps exactly one of these, so callers can
// use errors.Is to tell them apart.

import (
	"errors"
)

var (
	// Returned for malformed chunks, bad header contents, meta events with
	// the wrong length, or field values that can't be represented.
	ErrFormat = errors.New("invalid MIDI file format")
	// Returned when a status byte doesn't correspond to any channel, meta or
	// system-exclusive event.
	ErrUnrecognisedEventType = errors.New("unrecognised MIDI event type")
	// Returned when a read runs past the end of the available data.
	ErrOutOfData = errors.New("out of data")
	// Returned when encoding an event this package can't write yet.
	ErrNotImplemented = errors.New("not implemented")
	// Returned by the encoder for events that don't have a valid
	// type/subtype combination.
	ErrUnknownEvent = errors.New("unknown MIDI event")
)
