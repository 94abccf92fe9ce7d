package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/internal/capture"
	"github.com/curhatin/curhatin/internal/config"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/journal"
	"github.com/curhatin/curhatin/internal/playback"
	"github.com/curhatin/curhatin/internal/synth"
	"github.com/curhatin/curhatin/internal/transcript"
	"github.com/curhatin/curhatin/internal/turn"
	"github.com/curhatin/curhatin/pkg/protocol"
)

func talkCmd() *cobra.Command {
	var tone string
	var voice string
	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Start an interactive voice session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTalk(tone, voice)
		},
	}
	cmd.Flags().StringVar(&tone, "tone", string(generate.ToneSupportive),
		`response style: "Supportive", "Neutral Objective", or "Psychological"`)
	cmd.Flags().StringVar(&voice, "voice", "", `assistant voice: "female" or "male" (default from config)`)
	return cmd
}

func runTalk(toneFlag, voiceFlag string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set; voice sessions need the Gemini API")
	}

	selectedTone, err := generate.ParseTone(toneFlag)
	if err != nil {
		return err
	}
	selectedVoice := synth.Voice(cfg.Voice.Gender)
	if voiceFlag != "" {
		selectedVoice = synth.Voice(voiceFlag)
	}
	if selectedVoice != synth.VoiceFemale && selectedVoice != synth.VoiceMale {
		return fmt.Errorf("voice must be %q or %q", synth.VoiceFemale, synth.VoiceMale)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := bus.New()

	gen, err := generate.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	provider := synth.NewGeminiProvider(synth.GeminiConfig{
		APIKey:    cfg.Gemini.APIKey,
		APIBase:   cfg.Gemini.APIBase,
		Model:     cfg.Gemini.TTSModel,
		TimeoutMs: cfg.Gemini.TimeoutMs,
	})
	retrier := synth.NewRetrier(provider, cfg.Synth.MaxAttempts, cfg.SynthBaseDelay())

	rec, err := capture.NewRecorder(cfg.Audio.VADMode, cfg.Audio.InputDevice, capture.EndpointConfig{})
	if err != nil {
		return err
	}
	player := playback.NewPlayer(cfg.Audio.OutputDevice)

	gen.SetMaxHistory(cfg.HistoryTurns)

	ctrl := turn.NewController(events, rec, gen, gen, retrier, player)
	ctrl.SetTone(selectedTone)
	ctrl.SetVoice(selectedVoice)
	ctrl.SetHistoryTurns(cfg.HistoryTurns)

	ts, err := transcript.NewStore(cfg.Journal.DataDir + "/transcripts.db")
	if err == nil {
		defer ts.Close()
		ctrl.SetSink(ts)
	}

	js, err := journal.NewStore(cfg.Journal.DataDir, events)
	if err != nil {
		return err
	}

	// print the conversation as it happens
	events.Subscribe("talk-ui", func(ev bus.Event) {
		switch ev.Type {
		case protocol.EventTurnUser:
			p := ev.Payload.(protocol.TurnPayload)
			fmt.Printf("\nKamu: %s\n", p.Content)
		case protocol.EventTurnReply:
			p := ev.Payload.(protocol.TurnPayload)
			fmt.Printf("Curhatin: %s\n", p.Content)
		case protocol.EventTurnError:
			p := ev.Payload.(protocol.TurnErrorPayload)
			fmt.Printf("! %s\n", p.Message)
		case protocol.EventStateChanged:
			p := ev.Payload.(protocol.StatePayload)
			fmt.Printf("  [%s]\n", p.Status)
		}
	})

	// live voice/tone changes from the config file
	if watcher, werr := config.NewWatcher(resolveConfigPath()); werr == nil {
		watcher.OnChange(func(next *config.Config) {
			ctrl.SetVoice(synth.Voice(next.Voice.Gender))
		})
		if watcher.Start() == nil {
			defer watcher.Stop()
		}
	}

	fmt.Println("curhatin — sesi suara")
	fmt.Println("  [Enter]  mulai bicara / hentikan")
	fmt.Println("  mood N   catat mood hari ini (1-5)")
	fmt.Println("  q        keluar")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return nil
		case line, ok := <-lines:
			if !ok || line == "q" {
				ctrl.Stop()
				return nil
			}
			if lvl, found := strings.CutPrefix(line, "mood "); found {
				logMoodLine(js, lvl)
				continue
			}
			if ctrl.State() == turn.StateIdle {
				if err := ctrl.StartCapture(); err != nil {
					fmt.Printf("! %v\n", err)
				}
			} else {
				ctrl.Stop()
			}
		}
	}
}

func logMoodLine(js *journal.Store, arg string) {
	var level int
	if _, err := fmt.Sscanf(arg, "%d", &level); err != nil {
		fmt.Println("! mood harus angka 1-5")
		return
	}
	res, err := js.LogMood(level)
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	if !res.Accepted {
		fmt.Println("Mood hari ini sudah dicatat.")
		return
	}
	fmt.Printf("Mood %s tercatat. Streak: %d hari.\n", journal.LevelLabel(level), res.Streak)
}
