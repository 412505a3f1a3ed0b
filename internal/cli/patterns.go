package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/parser"
	"github.com/spf13/cobra"
)

var (
	previewSteps int
	previewMin   int
	previewMax   int
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List available patterns",
	Long:  `Lists all registered pattern modes and their patterns, including custom expression patterns from the config file.`,
	RunE:  runPatterns,
}

var patternsPreviewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Preview a pattern's intensity curve",
	Long: `Render one cycle of a pattern as intensity bars.

Examples:
  thrum patterns preview sine
  thrum patterns preview heartbeat --steps 30 --min 10 --max 90`,
	Args: cobra.ExactArgs(1),
	RunE: runPatternsPreview,
}

var patternsPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List named presets by device type",
	RunE:  runPatternsPresets,
}

var patternsPlayDevice string

var patternsPlayCmd = &cobra.Command{
	Use:   "play <sequence>",
	Short: "Play a mode sequence on a device",
	Long: `Play a named sequence from a registered mode on a device and wait
for it to finish.

Examples:
  thrum patterns play pulse-train
  thrum patterns play pulse-train --device cage`,
	Args: cobra.ExactArgs(1),
	RunE: runPatternsPlay,
}

func init() {
	patternsPreviewCmd.Flags().IntVar(&previewSteps, "steps", 20, "Samples per cycle")
	patternsPreviewCmd.Flags().IntVar(&previewMin, "min", 0, "Minimum intensity")
	patternsPreviewCmd.Flags().IntVar(&previewMax, "max", 100, "Maximum intensity")
	patternsPlayCmd.Flags().StringVar(&patternsPlayDevice, "device", "any", "Target device by name substring")
	patternsCmd.AddCommand(patternsPreviewCmd)
	patternsCmd.AddCommand(patternsPresetsCmd)
	patternsCmd.AddCommand(patternsPlayCmd)
	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(cmd *cobra.Command, args []string) error {
	registry := buildRegistry(cfg)

	if JSONOutput() {
		type modeInfo struct {
			Name      string   `json:"name"`
			Enabled   bool     `json:"enabled"`
			Patterns  []string `json:"patterns"`
			Sequences []string `json:"sequences"`
		}
		var out []modeInfo
		for _, m := range registry.Modes() {
			info := modeInfo{Name: m.Name, Enabled: m.Enabled}
			for name := range m.Patterns {
				info.Patterns = append(info.Patterns, name)
			}
			for name := range m.Sequences {
				info.Sequences = append(info.Sequences, name)
			}
			out = append(out, info)
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	t := NewTable("MODE", "STATUS", "PATTERNS", "SEQUENCES")
	for _, m := range registry.Modes() {
		status := "enabled"
		if !m.Enabled {
			status = "disabled"
		}
		var patterns, sequences []string
		for name := range m.Patterns {
			patterns = append(patterns, name)
		}
		for name := range m.Sequences {
			sequences = append(sequences, name)
		}
		t.Row(m.Name, status, strings.Join(patterns, ", "), strings.Join(sequences, ", "))
	}
	t.Flush()
	return nil
}

func runPatternsPreview(cmd *cobra.Command, args []string) error {
	registry := buildRegistry(cfg)
	name := args[0]

	if _, _, ok := registry.Lookup(name); !ok {
		names := registry.PatternNames()
		return fmt.Errorf("unknown pattern %q (available: %s)", name, strings.Join(names, ", "))
	}

	values := registry.Generate(name, previewSteps, previewMin, previewMax)

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"pattern": name,
			"values":  values,
		})
	}

	fmt.Printf("%s (%d steps, %d-%d)\n", name, previewSteps, previewMin, previewMax)
	for _, v := range values {
		fmt.Printf("  %3d %s\n", v, FormatBar(v, 40))
	}
	return nil
}

func runPatternsPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	waitRoster(s, 1)

	index := s.roster.Resolve(patternsPlayDevice)
	if !s.dispatcher.PlaySequence(ctx, name, index) {
		var names []string
		for _, m := range s.registry.Modes() {
			for seq := range m.Sequences {
				names = append(names, seq)
			}
		}
		sort.Strings(names)
		return fmt.Errorf("unknown sequence %q (available: %s)", name, strings.Join(names, ", "))
	}

	target := "device"
	if d, ok := s.roster.ByIndex(index); ok {
		target = d.Name
	}
	fmt.Printf("Playing %s on %s...\n", name, target)
	waitForDispatch(s)
	return nil
}

func runPatternsPresets(cmd *cobra.Command, args []string) error {
	types := []core.DeviceType{
		core.DeviceTypeGeneral,
		core.DeviceTypeCage,
		core.DeviceTypePlug,
		core.DeviceTypeStroker,
	}

	if JSONOutput() {
		out := make(map[string][]string, len(types))
		for _, dt := range types {
			out[string(dt)] = parser.PresetNames(dt)
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	t := NewTable("DEVICE TYPE", "PRESETS")
	for _, dt := range types {
		t.Row(string(dt), strings.Join(parser.PresetNames(dt), ", "))
	}
	t.Flush()
	return nil
}
