// This defines a command-line utility for viewing or rewriting standard MIDI
// files (SMF, usually with a ".mid" extension).
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yalue/midiio"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var rootCmd = &cobra.Command{
	Use:           "smf_tool",
	Short:         "Inspects and rewrites standard MIDI files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var dumpJSON bool

var dumpCmd = &cobra.Command{
	Use:   "dump <file.mid>",
	Short: "Prints every event in a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, e := midiio.ReadFile(args[0])
		if e != nil {
			return e
		}
		if dumpJSON {
			return midiio.DumpJSON(os.Stdout, song)
		}
		fmt.Printf("Parsed %s OK. Contains %d tracks.\n", args[0],
			len(song.Tracks))
		return midiio.DumpText(os.Stdout, song)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.mid> <output>",
	Short: "Decodes a MIDI file and writes it back out",
	Long: `Decodes a MIDI file and writes it back out with explicit status
bytes. The output path gets a .mid extension if it doesn't have one.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		original, e := os.ReadFile(args[0])
		if e != nil {
			return e
		}
		song, e := midiio.Decode(original)
		if e != nil {
			return fmt.Errorf("Couldn't parse %s: %w", args[0], e)
		}
		path, e := midiio.WriteFile(args[1], song)
		if e != nil {
			return e
		}
		written, e := os.ReadFile(path)
		if e != nil {
			return e
		}
		if bytes.Equal(original, written) {
			fmt.Printf("Wrote %s, identical to %s.\n", path, args[0])
		} else {
			fmt.Printf("Wrote %s (%d bytes, input was %d bytes).\n", path,
				len(written), len(original))
		}
		return nil
	},
}

// Per-track counts used to compare two decoders.
type trackSummary struct {
	events     int
	noteStarts int
	noteEnds   int
}

func summarizeOurs(song *midiio.Song) []trackSummary {
	toReturn := make([]trackSummary, len(song.Tracks))
	for i, t := range song.Tracks {
		toReturn[i].events = len(t)
		for _, event := range t {
			switch event.(type) {
			case *midiio.NoteOnEvent:
				toReturn[i].noteStarts++
			case *midiio.NoteOffEvent:
				toReturn[i].noteEnds++
			}
		}
	}
	return toReturn
}

func summarizeGomidi(data []byte) (summary []trackSummary, e error) {
	// The gomidi reader can panic on malformed input.
	defer func() {
		if r := recover(); r != nil {
			e = fmt.Errorf("gomidi panicked: %v", r)
		}
	}()
	s, e := smf.ReadFrom(bytes.NewReader(data))
	if e != nil {
		return nil, e
	}
	summary = make([]trackSummary, len(s.Tracks))
	for i, t := range s.Tracks {
		summary[i].events = len(t)
		for _, event := range t {
			var ch, key, vel uint8
			msg := midi.Message(event.Message)
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				summary[i].noteStarts++
			case msg.GetNoteEnd(&ch, &key):
				summary[i].noteEnds++
			}
		}
	}
	return summary, nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.mid>",
	Short: "Cross-checks the decoder against gomidi",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, e := os.ReadFile(args[0])
		if e != nil {
			return e
		}
		song, e := midiio.Decode(data)
		if e != nil {
			return fmt.Errorf("Couldn't parse %s: %w", args[0], e)
		}
		ours := summarizeOurs(song)
		theirs, e := summarizeGomidi(data)
		if e != nil {
			return fmt.Errorf("gomidi couldn't parse %s: %w", args[0], e)
		}
		if len(ours) != len(theirs) {
			return fmt.Errorf("Got %d tracks, but gomidi got %d", len(ours),
				len(theirs))
		}
		mismatch := false
		for i := range ours {
			fmt.Printf("Track %d: %d events (gomidi: %d), %d note starts, "+
				"%d note ends\n", i, ours[i].events, theirs[i].events,
				ours[i].noteStarts, ours[i].noteEnds)
			if (ours[i].noteStarts != theirs[i].noteStarts) ||
				(ours[i].noteEnds != theirs[i].noteEnds) {
				fmt.Printf("  Mismatch: gomidi got %d note starts, %d note "+
					"ends\n", theirs[i].noteStarts, theirs[i].noteEnds)
				mismatch = true
			}
		}
		if mismatch {
			return errors.New("Decoded notes don't match gomidi")
		}
		fmt.Printf("%s matches gomidi.\n", args[0])
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "If set, print the "+
		"song as JSON instead of a list of events.")
	rootCmd.AddCommand(dumpCmd, convertCmd, verifyCmd)
}

func run() int {
	e := rootCmd.Execute()
	if e != nil {
		fmt.Printf("Error: %s\n", e)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
