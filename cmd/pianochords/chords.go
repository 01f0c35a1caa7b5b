package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(chordsCmd)
}

var chordsCmd = &cobra.Command{
	Use:   "chords [CHORD]",
	Short: "List the chord table, or every voicing of one chord",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		if len(args) == 0 {
			fmt.Fprintln(tw, "KEY\tQUALITY\tVOICINGS\tDESCRIPTION")
			for _, k := range chordTable.Keys() {
				ch, _ := chordTable.Lookup(k)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", ch.Key, ch.Quality, len(ch.Voicings()), ch.Description)
			}
			return nil
		}
		key, ok := chordTable.Resolve(args[0])
		if !ok {
			return fmt.Errorf("unknown chord %q", args[0])
		}
		ch, _ := chordTable.Lookup(key)
		fmt.Fprintf(tw, "%s\t%s\n\n", ch.Key, ch.Description)
		fmt.Fprintln(tw, "VOICING\tNOTES\tFINGERS")
		for _, v := range ch.Voicings() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Label, strings.Join(v.NoteNames(), " "), joinInts(v.Fingering))
		}
		return nil
	},
}
