// This defines a command-line utility for gathering information about
// instruments used by MIDI files.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"github.com/yalue/midiio"
	"golang.org/x/sync/errgroup"
)

// Keeps track of our accumulated event count for each instrument.
type instrumentStats struct {
	// One value per MIDI instrument. Each value will be set to the number of
	// times that instrument was used in a note-on event.
	eventCounts [128]uint64
	// One value per MIDI percussion instrument (basically, a count of each
	// note played on channel 10)
	percussionEventCounts [128]uint64
}

// Dumps the total counts for each instrument to stdout.
func (s *instrumentStats) printInfo() {
	for i := 0; i < 128; i++ {
		fmt.Printf("Instrument %d: %d events.\n", i, s.eventCounts[i])
	}
	for i := 0; i < 128; i++ {
		fmt.Printf("Percussion instrument %d: %d events.\n", i,
			s.percussionEventCounts[i])
	}
}

// Adds other's counts to s.
func (s *instrumentStats) merge(other *instrumentStats) {
	for i := 0; i < 128; i++ {
		s.eventCounts[i] += other.eventCounts[i]
		s.percussionEventCounts[i] += other.percussionEventCounts[i]
	}
}

// Adds the instrument-events in the song to the running totals.
func (s *instrumentStats) addSong(song *midiio.Song) {
	var channelInstruments [16]uint8
	for _, track := range song.Tracks {
		// For each track we'll reset the known instruments to 0. This may be
		// incorrect...
		for i := 0; i < 16; i++ {
			channelInstruments[i] = 0
		}
		for _, event := range track {
			switch v := event.(type) {
			case *midiio.NoteOnEvent:
				// Note-ons with 0 velocity are decoded as note-offs, so we
				// don't need to check for them here. Percussion = anything in
				// channel 10 (index 9)
				if v.Channel == 9 {
					s.percussionEventCounts[v.Note&0x7f]++
				} else {
					s.eventCounts[channelInstruments[v.Channel&0xf]&0x7f]++
				}
			case *midiio.ProgramChangeEvent:
				channelInstruments[v.Channel&0xf] = v.Program
			}
		}
	}
}

// Decodes every named file using up to one goroutine per CPU and returns the
// combined counts. Files that fail to parse are reported and skipped.
func scanFiles(filenames []string) *instrumentStats {
	total := &instrumentStats{}
	var lock sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, name := range filenames {
		i, name := i, name
		g.Go(func() error {
			song, e := midiio.ReadFile(name)
			if e != nil {
				fmt.Printf("Failed analyzing file %s: %s\n", name, e)
				return nil
			}
			var fileStats instrumentStats
			fileStats.addSong(song)
			lock.Lock()
			defer lock.Unlock()
			fmt.Printf("Scanned file %d/%d: %s\n", i+1, len(filenames), name)
			total.merge(&fileStats)
			return nil
		})
	}
	g.Wait()
	return total
}

var baseDir string

var rootCmd = &cobra.Command{
	Use:          "instrument_stats",
	Short:        "Counts how often each instrument is played in .mid files",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if baseDir == "" {
			return fmt.Errorf("A base directory must be specified. Run " +
				"with --help for usage.")
		}
		filenames, e := filepath.Glob(filepath.Join(baseDir, "*.mid"))
		if e != nil {
			return fmt.Errorf("Failed looking up MIDI files in dir %s: %w",
				baseDir, e)
		}
		if len(filenames) <= 0 {
			return fmt.Errorf("Didn't find any MIDI (.mid) files in dir %s",
				baseDir)
		}
		scanFiles(filenames).printInfo()
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseDir, "dir", "", "The directory to scan "+
		"for .mid files")
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}
