package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rdow/thrum/internal/errors"
	"github.com/rdow/thrum/internal/funscript"
	"github.com/rdow/thrum/internal/media"
	"github.com/rdow/thrum/internal/playback"
	"github.com/spf13/cobra"
)

var (
	playDuration   time.Duration
	playLoop       bool
	playOffset     int
	playIntensity  int
	playBackground bool
	playSeekAt     []string
)

var playCmd = &cobra.Command{
	Use:   "play <media>",
	Short: "Play a media item's funscripts against simulated devices",
	Long: `Run the funscript sync engine against a simulated media clock.

Funscripts are discovered next to the media path: <base>.funscript for
the default channel and <base>_A.funscript (B, C, D) for channel
variants. Devices follow the timeline for their assigned channel.

Examples:
  thrum play scene.mp4
  thrum play scene.mp4 --loop --intensity 80
  thrum play scene.mp4 --seek-at 5s=1m --seek-at 20s=0s
  thrum play scene.mp4 --background`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "Media duration (default: funscript length)")
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "Loop the media clock at the end")
	playCmd.Flags().IntVar(&playOffset, "offset", 0, "Sync offset in milliseconds (overrides config)")
	playCmd.Flags().IntVar(&playIntensity, "intensity", 0, "Global intensity percentage (overrides config)")
	playCmd.Flags().BoolVar(&playBackground, "background", false, "Drive evaluation from the background worker")
	playCmd.Flags().StringArrayVar(&playSeekAt, "seek-at", nil, "Scripted seek as at=to (e.g. 5s=1m), repeatable")
	rootCmd.AddCommand(playCmd)
}

type scriptedSeek struct {
	at time.Duration
	to time.Duration
}

func parseSeeks(specs []string) ([]scriptedSeek, error) {
	seeks := make([]scriptedSeek, 0, len(specs))
	for _, spec := range specs {
		at, to, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --seek-at %q: want at=to", spec)
		}
		atD, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("invalid --seek-at time %q: %w", at, err)
		}
		toD, err := time.ParseDuration(to)
		if err != nil {
			return nil, fmt.Errorf("invalid --seek-at target %q: %w", to, err)
		}
		seeks = append(seeks, scriptedSeek{at: atD, to: toD})
	}
	return seeks, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seeks, err := parseSeeks(playSeekAt)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	mediaPath := args[0]
	set := s.loader.LoadSet(mediaPath)
	if set.Empty() {
		return errors.WithSuggestion(
			fmt.Errorf("%w for %s", errors.ErrNoFunscript, mediaPath),
			fmt.Sprintf("place a funscript at %s", funscriptPathFor(mediaPath)))
	}

	duration := playDuration
	if duration == 0 {
		var maxMS int64
		for _, fs := range set.Channels {
			if fs.Duration > maxMS {
				maxMS = fs.Duration
			}
		}
		// Give the tail action a moment to land before the clock ends.
		duration = time.Duration(maxMS)*time.Millisecond + time.Second
	}

	source := media.NewSimSource(mediaPath, duration)
	source.SetLoop(playLoop)

	offset := time.Duration(cfg.Sync.OffsetMS) * time.Millisecond
	if cmd.Flags().Changed("offset") {
		offset = time.Duration(playOffset) * time.Millisecond
	}
	intensity := cfg.Sync.Intensity
	if cmd.Flags().Changed("intensity") {
		intensity = playIntensity
	}

	engine := playback.NewEngine(s.client, s.roster, s.loader, source,
		playback.WithSyncOffset(offset),
		playback.WithGlobalIntensity(intensity),
		playback.WithPollInterval(time.Duration(cfg.Sync.PollInterval)*time.Millisecond),
	)

	engine.Start(ctx)
	defer engine.Stop(ctx)
	if playBackground {
		engine.SetBackground(ctx, true)
	}

	// Live-reload funscripts edited during playback.
	watcher := funscript.NewWatcher(s.loader, mediaPath, time.Second)
	go func() { _ = watcher.Start(ctx) }()

	source.Play()

	if !JSONOutput() {
		fmt.Printf("▶ Playing %s (%s)\n", mediaPath, humanize.RelTime(time.Now(), time.Now().Add(duration), "", ""))
		for ch, fs := range set.Channels {
			fmt.Printf("  channel %s: %d actions, %s\n", ch, fs.Stats.Count,
				FormatDuration(int(fs.Duration/1000)))
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; ; {
		select {
		case <-sig:
			fmt.Println("\nStopped")
			return nil
		case ev, ok := <-watcher.Events():
			if ok && !JSONOutput() {
				fmt.Printf("↻ Funscript reloaded: %s\n", filepath.Base(ev.Path))
			}
		case <-ticker.C:
			pos := source.Position()
			for i < len(seeks) && pos >= seeks[i].at {
				if !JSONOutput() {
					fmt.Printf("↷ Seek to %s\n", seeks[i].to)
				}
				source.Seek(seeks[i].to)
				i++
			}
			if !source.Playing() && !playLoop {
				if !JSONOutput() {
					fmt.Println("■ Finished")
				}
				return nil
			}
			if Verbose() {
				state := source.State()
				fmt.Printf("  %s / %s  [%s]  %s\n",
					FormatDuration(int(state.Position/time.Second)),
					FormatDuration(int(state.Duration/time.Second)),
					FormatProgress(int(state.Position/time.Second), int(state.Duration/time.Second), 20),
					engine.State())
			}
		}
	}
}

func funscriptPathFor(mediaPath string) string {
	base := mediaPath
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ".funscript"
}
