package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	pianochords "github.com/cbegin/pianochords-go"
)

var (
	renderOut  string
	renderSeed int64
)

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "progression.wav", "WAV file to write")
	renderCmd.Flags().Int64Var(&renderSeed, "seed", 0, "random seed for detune and the room (0 = time based)")
	renderCmd.Flags().AddFlagSet(playCmd.Flags())
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:     "render [CHORDS...]",
	Short:   "Render a voiced progression to a 32-bit float WAV file",
	Example: `  pianochords render "Am, Dm, G7, C" -o cadence.wav --tempo 72`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := rendererOptions(cmd)
		if err != nil {
			return err
		}
		if renderSeed != 0 {
			opts = append(opts, pianochords.WithSeed(renderSeed))
		}

		var samples []float32
		if playNotes != "" {
			samples, err = pianochords.RenderChord(strings.Fields(playNotes), playDuration, opts...)
		} else {
			if len(args) == 0 {
				return fmt.Errorf("give a progression or --notes")
			}
			resolved, rerr := optimizeArgs(args)
			if rerr != nil {
				return rerr
			}
			_, timing := tempoTiming()
			samples, err = pianochords.RenderProgression(resolved, timing, opts...)
		}
		if err != nil {
			return err
		}
		wav := pianochords.EncodeWAVFloat32LE(samples, cfg.SampleRate, 2)
		if err := os.WriteFile(renderOut, wav, 0o644); err != nil {
			return err
		}
		log.Infow("wrote WAV", "path", renderOut, "seconds", float64(len(samples)/2)/float64(cfg.SampleRate))
		return nil
	},
}
