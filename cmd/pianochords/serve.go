package main

import (
	"github.com/spf13/cobra"

	"github.com/cbegin/pianochords-go/internal/server"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from PIANOCHORDS_LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the optimizer as JSON over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		s := server.New(chordTable,
			server.WithLogger(log),
			server.WithAllowedOrigins(cfg.AllowOrigins...),
		)
		return s.ListenAndServe(addr)
	},
}
