package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	pianochords "github.com/cbegin/pianochords-go"
	"github.com/cbegin/pianochords-go/internal/effects"
)

var (
	playTempo    float64
	playVolume   float64
	playReverb   string
	playLimiter  bool
	playNotes    string
	playDuration float64
)

func init() {
	playCmd.Flags().Float64Var(&playTempo, "tempo", 0, "beats per minute, 40-120 (default from PIANOCHORDS_TEMPO)")
	playCmd.Flags().Float64Var(&playVolume, "volume", -1, "master volume 0-1 (default from PIANOCHORDS_VOLUME)")
	playCmd.Flags().StringVar(&playReverb, "reverb", "", "room: convolution|schroeder|none")
	playCmd.Flags().BoolVar(&playLimiter, "limiter", false, "limit the master bus")
	playCmd.Flags().StringVar(&playNotes, "notes", "", `play these notes together instead of a progression, e.g. "C4 E4 G4"`)
	playCmd.Flags().Float64Var(&playDuration, "duration", 0, "seconds for --notes")
	rootCmd.AddCommand(playCmd)
}

// rendererOptions merges environment settings with the shared audio flags.
func rendererOptions(cmd *cobra.Command) ([]pianochords.RendererOption, error) {
	reverb := cfg.ReverbKind()
	if playReverb != "" {
		k, err := effects.ParseReverbKind(playReverb)
		if err != nil {
			return nil, err
		}
		reverb = k
	}
	volume := cfg.Volume
	if playVolume >= 0 {
		volume = playVolume
	}
	limiter := cfg.Limiter
	if cmd.Flags().Changed("limiter") {
		limiter = playLimiter
	}
	return []pianochords.RendererOption{
		pianochords.WithSampleRate(cfg.SampleRate),
		pianochords.WithLogger(log),
		pianochords.WithReverb(reverb),
		pianochords.WithLimiter(limiter),
		pianochords.WithMasterVolume(volume),
	}, nil
}

func tempoTiming() (float64, pianochords.Timing) {
	bpm := cfg.Tempo
	if playTempo > 0 {
		bpm = playTempo
	}
	bpm = pianochords.ClampTempo(bpm)
	return bpm, pianochords.TimingForTempo(bpm)
}

var playCmd = &cobra.Command{
	Use:   "play [CHORDS...]",
	Short: "Play a voiced progression on the audio device",
	Example: `  pianochords play "C, G, Am, F" --tempo 80
  pianochords play --notes "C4 E4 G4" --duration 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := rendererOptions(cmd)
		if err != nil {
			return err
		}
		r, err := pianochords.NewRenderer(opts...)
		if err != nil {
			return err
		}
		defer r.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := r.Init(ctx); err != nil {
			if errors.Is(err, pianochords.ErrAudioUnavailable) {
				fmt.Fprintln(os.Stderr, "Audio is not available on this system.")
			}
			return err
		}

		if playNotes != "" {
			err := r.PlayChord(ctx, strings.Fields(playNotes), playDuration)
			if errors.Is(err, context.Canceled) {
				r.StopAll()
				return nil
			}
			return err
		}

		if len(args) == 0 {
			return fmt.Errorf("give a progression or --notes")
		}
		resolved, err := optimizeArgs(args)
		if err != nil {
			return err
		}
		bpm, timing := tempoTiming()
		fmt.Printf("%.0f bpm, %s\n", bpm, pianochords.TempoDescription(bpm))

		s, err := r.StartProgression(ctx, resolved, timing, func(i int) {
			if i < 0 {
				return
			}
			rc := resolved[i]
			fmt.Printf("%d/%d  %-4s %-14s %s\n", i+1, len(resolved), rc.Symbol, rc.Voicing.Label, strings.Join(rc.Voicing.NoteNames(), " "))
		})
		if err != nil {
			return err
		}
		if s.Wait() == pianochords.OutcomeCancelled {
			r.StopAll()
			fmt.Println("stopped")
			return nil
		}
		// Let the room ring out before the device closes.
		if err := r.Sleep(ctx, 1); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
