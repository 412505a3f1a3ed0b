package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rdow/thrum/internal/media"
	"github.com/rdow/thrum/internal/parser"
	"github.com/rdow/thrum/internal/playback"
	"github.com/rdow/thrum/internal/tui"
	"github.com/spf13/cobra"
)

var (
	tuiRefresh  int
	tuiDuration time.Duration
)

var tuiCmd = &cobra.Command{
	Use:     "ui [media]",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Playback - media clock, sync engine state, intensity, offset
  • Devices  - connected devices, channel routing, live levels
  • Commands - recent command tags and engine events

With a media argument, its funscripts load and the sync engine tracks
the simulated clock; without one, the dashboard is a command console.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  :            Enter a command tag
  Space        Play/pause
  ←/→          Seek
  +/-          Intensity
  Tab          Switch panel`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "Refresh interval in milliseconds (overrides config)")
	tuiCmd.Flags().DurationVar(&tuiDuration, "duration", 10*time.Minute, "Media duration when no funscript sets one")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	mediaPath := ""
	if len(args) == 1 {
		mediaPath = args[0]
	}

	duration := tuiDuration
	if mediaPath != "" {
		if set := s.loader.LoadSet(mediaPath); !set.Empty() {
			var maxMS int64
			for _, fs := range set.Channels {
				if fs.Duration > maxMS {
					maxMS = fs.Duration
				}
			}
			duration = time.Duration(maxMS)*time.Millisecond + time.Second
		}
	}

	source := media.NewSimSource(mediaPath, duration)

	engine := playback.NewEngine(s.client, s.roster, s.loader, source,
		playback.WithSyncOffset(time.Duration(cfg.Sync.OffsetMS)*time.Millisecond),
		playback.WithGlobalIntensity(cfg.Sync.Intensity),
		playback.WithPollInterval(time.Duration(cfg.Sync.PollInterval)*time.Millisecond),
	)
	if mediaPath != "" {
		engine.Start(ctx)
		defer engine.Stop(ctx)
	}

	refresh := cfg.TUI.RefreshInterval
	if cmd.Flags().Changed("refresh") {
		refresh = tuiRefresh
	}
	if refresh <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	app := &tui.App{
		Client:      s.client,
		Roster:      s.roster,
		Dispatcher:  s.dispatcher,
		Parser:      parser.New(s.roster),
		Engine:      engine,
		Source:      source,
		RefreshRate: time.Duration(refresh) * time.Millisecond,
	}
	return tui.Run(app)
}
