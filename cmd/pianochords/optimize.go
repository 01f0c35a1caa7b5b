package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cbegin/pianochords-go/internal/optimizer"
)

var (
	optimizeJSON  bool
	optimizeMoves bool
)

func init() {
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "print JSON instead of a table")
	optimizeCmd.Flags().BoolVar(&optimizeMoves, "moves", false, "list the fingers that move into each chord")
	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:     "optimize CHORDS...",
	Short:   "Pick a voicing for every chord of a progression",
	Example: `  pianochords optimize "C, G, Am, F"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := optimizeArgs(args)
		if err != nil {
			return err
		}
		if optimizeJSON {
			return printJSON(resolved)
		}
		printTable(resolved)
		return nil
	},
}

type jsonChord struct {
	Position  int      `json:"position"`
	Symbol    string   `json:"symbol"`
	Key       string   `json:"key"`
	Inversion string   `json:"inversion"`
	Notes     []string `json:"notes"`
	Fingering []int    `json:"fingering"`
	Cost      int      `json:"cost"`
}

func printJSON(resolved []optimizer.Resolved) error {
	out := make([]jsonChord, 0, len(resolved))
	for _, rc := range resolved {
		out = append(out, jsonChord{
			Position:  rc.Position,
			Symbol:    rc.Symbol,
			Key:       string(rc.Key),
			Inversion: rc.Inversion.String(),
			Notes:     rc.Voicing.NoteNames(),
			Fingering: rc.Voicing.Fingering,
			Cost:      rc.Cost,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printTable(resolved []optimizer.Resolved) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCHORD\tVOICING\tNOTES\tFINGERS\tCOST")
	for i, rc := range resolved {
		symbol := rc.Symbol
		if string(rc.Key) != rc.Symbol {
			symbol = fmt.Sprintf("%s (%s)", rc.Symbol, rc.Key)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			rc.Position+1, symbol, rc.Voicing.Label,
			strings.Join(rc.Voicing.NoteNames(), " "),
			joinInts(rc.Voicing.Fingering), rc.Cost)
		if optimizeMoves && i > 0 {
			for _, m := range optimizer.Movements(resolved[i-1].Voicing, rc.Voicing) {
				fmt.Fprintf(tw, "\t\tfinger %d\t%s -> %s\t\t%d\n", m.Finger, m.From, m.To, m.Distance)
			}
		}
	}
	tw.Flush()
	fmt.Printf("total movement: %d semitones\n", optimizer.TotalCost(resolved))
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}
