// Package cmd implements the curhatin CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/curhatin/curhatin/internal/config"
)

// Version is the CLI version, overridable at build time.
var Version = "0.1.0"

var (
	flagConfig  string
	flagVerbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curhatin",
		Short: "Curhatin — teman curhat berbasis suara",
		Long: `Curhatin is a voice chat companion: speak (or type) what is on your
mind and get an empathetic reply, spoken back to you. It also keeps a
daily mood journal with a streak counter.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.curhatin/config.json5)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(talkCmd())
	cmd.AddCommand(chatCmd())
	cmd.AddCommand(journalCmd())
	cmd.AddCommand(doctorCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	return config.Load(resolveConfigPath())
}
