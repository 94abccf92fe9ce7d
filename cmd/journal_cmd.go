package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curhatin/curhatin/internal/affirmation"
	"github.com/curhatin/curhatin/internal/journal"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Mood journal — log today's mood, show the streak and trend",
	}
	cmd.AddCommand(journalLogCmd())
	cmd.AddCommand(journalShowCmd())
	return cmd
}

func journalLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <level 1-5>",
		Short: "Log today's mood (1 = Sangat Sedih ... 5 = Sangat Senang)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("level must be a number 1-5")
			}
			js, err := openJournal()
			if err != nil {
				return err
			}
			res, err := js.LogMood(level)
			if err != nil {
				return err
			}
			if !res.Accepted {
				fmt.Println("Mood hari ini sudah dicatat.")
				return nil
			}
			fmt.Printf("%s %s tercatat. Streak: %d hari.\n",
				journal.LevelEmoji(level), journal.LevelLabel(level), res.Streak)
			return nil
		},
	}
}

func journalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the streak and last 7 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			js, err := openJournal()
			if err != nil {
				return err
			}

			fmt.Printf("Streak: %d hari\n\n", js.Streak())
			for _, p := range js.Trend(7) {
				bar := strings.Repeat("█", p.Level)
				mood := "-"
				if p.Level > 0 {
					mood = fmt.Sprintf("%s %s", journal.LevelEmoji(p.Level), journal.LevelLabel(p.Level))
				}
				fmt.Printf("  %s  %-5s %s\n", p.Date, bar, mood)
			}
			fmt.Printf("\nAfirmasi hari ini: %s\n", affirmation.Today())
			return nil
		},
	}
}

func openJournal() (*journal.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return journal.NewStore(cfg.Journal.DataDir, nil)
}
