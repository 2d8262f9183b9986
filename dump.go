package midiio

// This file contains read-only pretty-printers for decoded songs. They don't
// validate anything, so they can be used on songs that wouldn't encode.

import (
	"encoding/json"
	"fmt"
	"io"
)

type dumpedEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Event   Event  `json:"event"`
}

type dumpedSong struct {
	Header Header          `json:"header"`
	Tracks [][]dumpedEvent `json:"tracks"`
}

// Writes the song to w as indented JSON. Each event is tagged with its type
// and subtype names.
func DumpJSON(w io.Writer, s *Song) error {
	d := dumpedSong{
		Header: s.Header,
		Tracks: make([][]dumpedEvent, len(s.Tracks)),
	}
	for i, t := range s.Tracks {
		d.Tracks[i] = make([]dumpedEvent, 0, len(t))
		for _, event := range t {
			if event == nil {
				continue
			}
			de := dumpedEvent{
				Type:  event.Type().String(),
				Event: event,
			}
			if event.Subtype() != SubtypeNone {
				de.Subtype = event.Subtype().String()
			}
			d.Tracks[i] = append(d.Tracks[i], de)
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "   ")
	return encoder.Encode(&d)
}

// Writes a human-readable listing of every event in the song to w.
func DumpText(w io.Writer, s *Song) error {
	_, e := fmt.Fprintf(w, "%s.\n", s.Header.String())
	if e != nil {
		return e
	}
	for i, t := range s.Tracks {
		_, e = fmt.Fprintf(w, "Track %d (%d events):\n", i, len(t))
		if e != nil {
			return e
		}
		for j, event := range t {
			if event == nil {
				continue
			}
			_, e = fmt.Fprintf(w, "  %d. Time %d: %s\n", j, event.DeltaTime(),
				event)
			if e != nil {
				return e
			}
		}
	}
	return nil
}
