package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/parser"
	"github.com/spf13/cobra"
)

var parseRun bool

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Parse command tags from text",
	Long: `Parse <target:BODY> command tags out of free-form text and show the
structured commands they produce. With --run, the commands are also
dispatched to the simulated devices.

Examples:
  thrum parse "<toy:VIBRATE:80>"
  thrum parse "warmup <any:WAVEFORM: sine, min=20, max=80, duration=5000>"
  thrum parse --run "<cage:PATTERN: [20,80,20], interval=[250], loop=4>"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseRun, "run", false, "Dispatch the parsed commands to simulated devices")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	text := strings.Join(args, " ")
	cmds := parser.New(s.roster).Parse(text)

	if JSONOutput() {
		if cmds == nil {
			cmds = []core.Command{}
		}
		if err := json.NewEncoder(os.Stdout).Encode(cmds); err != nil {
			return err
		}
	} else if len(cmds) == 0 {
		fmt.Println("No commands found")
	} else {
		printCommands(cmds, s.roster)
	}

	if parseRun && len(cmds) > 0 {
		s.dispatcher.Dispatch(ctx, cmds)
		waitForDispatch(s)
	}
	return nil
}

func printCommands(cmds []core.Command, roster *core.Roster) {
	t := NewTable("#", "TYPE", "DEVICE", "DETAIL")
	for i, c := range cmds {
		name := "-"
		if !c.IsSystem() {
			if d, ok := roster.ByIndex(c.DeviceIndex); ok {
				name = d.Name
			} else {
				name = fmt.Sprintf("#%d", c.DeviceIndex)
			}
		}
		t.Row(fmt.Sprintf("%d", i+1), string(c.Type), name, commandDetail(c))
	}
	t.Flush()
}

func commandDetail(c core.Command) string {
	switch c.Type {
	case core.CmdVibrate, core.CmdOscillate:
		return fmt.Sprintf("intensity=%d", c.Intensity)
	case core.CmdLinear:
		return fmt.Sprintf("%d->%d over %dms", c.StartPos, c.EndPos, c.Duration)
	case core.CmdVibratePattern, core.CmdOscillatePattern:
		loop := "forever"
		if c.Loop != core.LoopForever {
			loop = fmt.Sprintf("%d", c.Loop)
		}
		return fmt.Sprintf("%d steps, loop=%s", len(c.Steps), loop)
	case core.CmdWaveform, core.CmdPreset:
		if c.Pattern == "" {
			return fmt.Sprintf("gradient %d->%d", c.StartPos, c.EndPos)
		}
		return fmt.Sprintf("%s [%d,%d] over %dms x%d", c.Pattern, c.Min, c.Max, c.Duration, c.Cycles)
	case core.CmdGradient:
		return fmt.Sprintf("%d->%d over %dms hold=%dms", c.StartPos, c.EndPos, c.Duration, c.Hold)
	case core.CmdSystem:
		return string(c.Action)
	default:
		return ""
	}
}

// waitForDispatch lets queued commands and short loops play out before the
// session tears down.
func waitForDispatch(s *session) {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if s.dispatcher.QueueLen() == 0 && s.dispatcher.ActiveLoops() == 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
