package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/curhatin/curhatin/internal/capture"
	"github.com/curhatin/curhatin/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("curhatin doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, defaults apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Gemini:")
	if cfg.Gemini.APIKey != "" {
		fmt.Printf("    API key:    configured (%d chars)\n", len(cfg.Gemini.APIKey))
	} else {
		fmt.Println("    API key:    MISSING (set GEMINI_API_KEY)")
	}
	fmt.Printf("    Chat model: %s\n", cfg.Gemini.ChatModel)
	fmt.Printf("    TTS model:  %s\n", cfg.Gemini.TTSModel)

	fmt.Println()
	fmt.Println("  Voice:")
	fmt.Printf("    Gender:   %s\n", cfg.Voice.Gender)
	fmt.Printf("    Language: %s\n", cfg.Voice.Language)

	fmt.Println()
	fmt.Println("  Audio input devices:")
	devices, err := capture.ListInputDevices()
	if err != nil {
		fmt.Printf("    unavailable: %v\n", err)
	} else if len(devices) == 0 {
		fmt.Println("    none found")
	} else {
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("   %s %s (%d ch, %.0f Hz)\n", marker, d.Name, d.Channels, d.SampleRate)
		}
	}

	fmt.Println()
	fmt.Printf("  Data dir: %s", cfg.Journal.DataDir)
	if _, err := os.Stat(cfg.Journal.DataDir); err != nil {
		fmt.Println(" (will be created on first write)")
	} else {
		fmt.Println(" (OK)")
	}

	fmt.Println()
	fmt.Printf("  Server:   %s", cfg.Server.Addr)
	if cfg.Server.AuthToken != "" {
		fmt.Println(" (auth enabled)")
	} else {
		fmt.Println(" (no auth)")
	}
}
