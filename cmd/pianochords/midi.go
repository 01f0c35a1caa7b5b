package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/pianochords-go/internal/midiexport"
)

var midiOut string

func init() {
	midiCmd.Flags().StringVarP(&midiOut, "output", "o", "progression.mid", "MIDI file to write")
	midiCmd.Flags().Float64Var(&playTempo, "tempo", 0, "beats per minute, 40-120 (default from PIANOCHORDS_TEMPO)")
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:     "midi CHORDS...",
	Short:   "Write a voiced progression as a Standard MIDI File, one chord per bar",
	Example: `  pianochords midi "C, G, Am, F" -o pop.mid`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := optimizeArgs(args)
		if err != nil {
			return err
		}
		bpm, _ := tempoTiming()
		f, err := os.Create(midiOut)
		if err != nil {
			return err
		}
		if err := midiexport.Write(f, resolved, bpm); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Infow("wrote MIDI", "path", midiOut, "chords", len(resolved), "bpm", bpm)
		return nil
	},
}
