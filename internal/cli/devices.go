package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rdow/thrum/internal/core"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available haptic devices",
	Long:  `Lists the devices the client exposes, with their capabilities, channel assignments, and intensity overrides.`,
	RunE:  runDevices,
}

var devicesAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Interactively assign a device to a funscript channel",
	Long:  `Shows a picker to route a device to a funscript channel. Channel "-" is the default timeline; A through D follow <base>_<CHANNEL>.funscript variants.`,
	RunE:  runDevicesAssign,
}

func init() {
	devicesCmd.AddCommand(devicesAssignCmd)
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	waitRoster(s, 3)
	devices := s.roster.All()

	if len(devices) == 0 {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode([]core.Device{})
		}
		fmt.Println("No devices found")
		return nil
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}

	t := NewTable("IDX", "NAME", "TYPE", "CAPABILITIES", "CHANNEL", "INTENSITY")
	for _, d := range devices {
		caps := ""
		for i, c := range d.Capabilities {
			if i > 0 {
				caps += ","
			}
			caps += string(c)
		}
		t.Row(
			fmt.Sprintf("%d", d.Index),
			d.Name,
			string(d.Type()),
			caps,
			string(d.Channel),
			fmt.Sprintf("%d%%", d.Intensity),
		)
	}
	t.Flush()
	return nil
}

func runDevicesAssign(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	waitRoster(s, 3)
	devices := s.roster.All()
	if len(devices) == 0 {
		return fmt.Errorf("no devices available")
	}

	deviceOpts := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		deviceOpts[i] = huh.NewOption(fmt.Sprintf("%s (channel %s)", d.Name, d.Channel), d.Index)
	}
	channelOpts := make([]huh.Option[string], len(core.Channels))
	for i, ch := range core.Channels {
		label := string(ch)
		if ch == core.ChannelDefault {
			label = "- (default timeline)"
		}
		channelOpts[i] = huh.NewOption(label, string(ch))
	}

	var deviceIndex int
	var channel string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Device").
				Options(deviceOpts...).
				Value(&deviceIndex),
			huh.NewSelect[string]().
				Title("Channel").
				Options(channelOpts...).
				Value(&channel),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if !s.roster.SetChannel(deviceIndex, core.Channel(channel)) {
		return fmt.Errorf("device %d not found", deviceIndex)
	}

	d, _ := s.roster.ByIndex(deviceIndex)
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"device":  d.Name,
			"channel": channel,
		})
	}
	fmt.Printf("Assigned %s to channel %s\n", d.Name, channel)
	fmt.Println("Persist it under [devices.channels] in your config file")
	return nil
}

// waitRoster blocks briefly until the tracker has absorbed the connect
// events.
func waitRoster(s *session, want int) {
	deadline := time.Now().Add(time.Second)
	for s.roster.Len() < want && time.Now().Before(deadline) {
		// Events arrive on another goroutine right after Connect.
		time.Sleep(10 * time.Millisecond)
	}
}
