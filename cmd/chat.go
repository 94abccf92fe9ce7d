package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/transcript"
)

func chatCmd() *cobra.Command {
	var tone string
	var message string
	var history bool
	var session string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Curhatin in text mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history {
				return showHistory()
			}
			if session != "" {
				return showSession(session)
			}
			return runChat(tone, message)
		},
	}
	cmd.Flags().StringVar(&tone, "tone", string(generate.ToneSupportive),
		`response style: "Supportive", "Neutral Objective", or "Psychological"`)
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	cmd.Flags().BoolVar(&history, "history", false, "list stored conversations and exit")
	cmd.Flags().StringVar(&session, "session", "", "print one stored conversation and exit")
	return cmd
}

func showHistory() error {
	ts, err := openTranscripts()
	if err != nil {
		return err
	}
	defer ts.Close()

	sessions, err := ts.Sessions(20)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("Belum ada percakapan tersimpan.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  (%d pesan)\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.ID, s.Messages)
	}
	return nil
}

func showSession(id string) error {
	ts, err := openTranscripts()
	if err != nil {
		return err
	}
	defer ts.Close()

	messages, err := ts.Messages(id)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("percakapan %q tidak ditemukan", id)
	}
	for _, m := range messages {
		speaker := "Kamu"
		if m.Role == string(generate.RoleAssistant) {
			speaker = "Curhatin"
		}
		fmt.Printf("%s: %s\n", speaker, m.Content)
	}
	return nil
}

func openTranscripts() (*transcript.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return transcript.NewStore(cfg.Journal.DataDir + "/transcripts.db")
}

func runChat(toneFlag, message string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	selectedTone, err := generate.ParseTone(toneFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := generate.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	gen.SetMaxHistory(cfg.HistoryTurns)

	var ts *transcript.Store
	if store, err := transcript.NewStore(cfg.Journal.DataDir + "/transcripts.db"); err == nil {
		ts = store
		defer ts.Close()
	}
	sessionID := uuid.NewString()

	var history []generate.Turn
	send := func(text string) error {
		reply, err := gen.Generate(ctx, text, selectedTone, history)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		history = append(history,
			generate.Turn{Role: generate.RoleUser, Content: text},
			generate.Turn{Role: generate.RoleAssistant, Content: reply})
		if len(history) > cfg.HistoryTurns {
			history = history[len(history)-cfg.HistoryTurns:]
		}
		if ts != nil {
			if err := ts.AppendExchange(sessionID, text, reply); err != nil {
				slog.Warn("transcript append failed", "error", err)
			}
		}
		return nil
	}

	if message != "" {
		return send(message)
	}

	fmt.Println("curhatin — ketik ceritamu, kosong untuk keluar")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		if err := send(line); err != nil {
			fmt.Fprintf(os.Stderr, "! %v\n", err)
		}
	}
}
