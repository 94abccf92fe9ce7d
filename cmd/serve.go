package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/internal/config"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/httpapi"
	"github.com/curhatin/curhatin/internal/journal"
	"github.com/curhatin/curhatin/internal/synth"
	"github.com/curhatin/curhatin/internal/transcript"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := bus.New()

	var gen httpapi.Generator
	if cfg.Gemini.APIKey != "" {
		client, err := generate.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return err
		}
		client.SetMaxHistory(cfg.HistoryTurns)
		gen = client
	} else {
		slog.Warn("GEMINI_API_KEY not set, generation endpoints disabled")
	}

	provider := synth.NewGeminiProvider(synth.GeminiConfig{
		APIKey:    cfg.Gemini.APIKey,
		APIBase:   cfg.Gemini.APIBase,
		Model:     cfg.Gemini.TTSModel,
		TimeoutMs: cfg.Gemini.TimeoutMs,
	})
	var syn httpapi.Synthesizer
	var dialog httpapi.DialogSynthesizer
	if cfg.Gemini.APIKey != "" {
		syn = synth.NewRetrier(provider, cfg.Synth.MaxAttempts, cfg.SynthBaseDelay())
		dialog = provider
	}

	js, err := journal.NewStore(cfg.Journal.DataDir, events)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg.Server, gen, syn, dialog, js, events)

	if ts, err := transcript.NewStore(cfg.Journal.DataDir + "/transcripts.db"); err == nil {
		defer ts.Close()
		srv.SetTranscripts(ts)
	} else {
		slog.Warn("transcript store unavailable, session endpoints disabled", "error", err)
	}

	if watcher, err := config.NewWatcher(resolveConfigPath()); err == nil {
		watcher.OnChange(func(next *config.Config) {
			slog.Info("config file changed; server and provider settings apply on restart")
		})
		if err := watcher.Start(); err == nil {
			defer watcher.Stop()
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
