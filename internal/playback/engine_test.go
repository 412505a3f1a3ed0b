package playback

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/device"
	"github.com/rdow/thrum/internal/funscript"
)

// fakeClock is a hand-driven media source so evaluation steps are
// deterministic.
type fakeClock struct {
	mu      sync.Mutex
	pos     time.Duration
	dur     time.Duration
	playing bool
	path    string
}

func (c *fakeClock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *fakeClock) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dur
}

func (c *fakeClock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *fakeClock) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

func (c *fakeClock) set(pos time.Duration, playing bool) {
	c.mu.Lock()
	c.pos = pos
	c.playing = playing
	c.mu.Unlock()
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newEngineRig builds an engine over the sim client with the given default
// channel funscript body. It returns the engine, the client, and the clock.
func newEngineRig(t *testing.T, script string, opts ...Option) (*Engine, *device.SimClient, *fakeClock) {
	t.Helper()
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "scene.mp4")
	writeScript(t, filepath.Join(dir, "scene.funscript"), script)

	client := device.NewSimClient(device.DefaultDevices()...)
	client.Connect(context.Background())
	roster := core.NewRoster()
	for _, d := range device.DefaultDevices() {
		roster.Add(d)
	}

	clock := &fakeClock{path: mediaPath, dur: time.Minute, playing: true}
	e := NewEngine(client, roster, funscript.NewLoader(), clock, opts...)
	return e, client, clock
}

const fourActions = `{"actions":[
	{"at":0,"pos":20},{"at":500,"pos":40},{"at":1000,"pos":60},{"at":1500,"pos":80}]}`

func TestEngineExecutesActionsOnceInOrder(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	for _, ms := range []int{100, 600, 1100, 1600} {
		clock.set(time.Duration(ms)*time.Millisecond, true)
		e.Evaluate(ctx)
	}

	ops := client.Sim(0).OpsOf(device.OpVibrate)
	if len(ops) != 4 {
		t.Fatalf("got %d actions, want 4", len(ops))
	}
	want := []float64{0.2, 0.4, 0.6, 0.8}
	for i, op := range ops {
		if op.Level != want[i] {
			t.Errorf("action %d level = %v, want %v", i, op.Level, want[i])
		}
	}
	if got := e.Cursor(core.ChannelDefault); got != 4 {
		t.Errorf("cursor = %d, want 4", got)
	}

	// Re-evaluating at the same position executes nothing further.
	e.Evaluate(ctx)
	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 4 {
		t.Errorf("re-evaluation replayed actions: %d ops", got)
	}
}

func TestEngineBackwardSeekReplaysLastAction(t *testing.T) {
	e, client, clock := newEngineRig(t, `{"actions":[{"at":0,"pos":30},{"at":5000,"pos":90}]}`)
	ctx := context.Background()

	// Walk forward in sub-threshold steps so both actions execute.
	for _, ms := range []int{100, 1600, 3100, 4600, 5200} {
		clock.set(time.Duration(ms)*time.Millisecond, true)
		e.Evaluate(ctx)
	}
	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 2 {
		t.Fatalf("forward pass executed %d actions, want 2", got)
	}

	// Seek back past the threshold. The cursor lands after the at=0
	// action and that action replays exactly once.
	clock.set(500*time.Millisecond, true)
	e.Evaluate(ctx)

	if got := e.Cursor(core.ChannelDefault); got != 1 {
		t.Errorf("cursor after backward seek = %d, want 1", got)
	}
	ops := client.Sim(0).OpsOf(device.OpVibrate)
	if len(ops) != 3 {
		t.Fatalf("got %d ops after seek, want 3 (replay once)", len(ops))
	}
	if ops[2].Level != 0.3 {
		t.Errorf("replayed level = %v, want 0.3", ops[2].Level)
	}

	// A second evaluation at the same spot does not replay again.
	clock.set(600*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 3 {
		t.Errorf("replay repeated: %d ops", got)
	}
}

func TestEngineShortBackwardSeekRecomputesCursor(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	for _, ms := range []int{100, 600, 1200} {
		clock.set(time.Duration(ms)*time.Millisecond, true)
		e.Evaluate(ctx)
	}
	if got := e.Cursor(core.ChannelDefault); got != 3 {
		t.Fatalf("cursor = %d, want 3", got)
	}

	// A rewind well under the forward seek threshold is still a
	// discontinuity; the cursor recomputes and the at=0 action replays.
	clock.set(300*time.Millisecond, true)
	e.Evaluate(ctx)

	if got := e.Cursor(core.ChannelDefault); got != 1 {
		t.Errorf("cursor after 1200->300 seek = %d, want 1", got)
	}
	ops := client.Sim(0).OpsOf(device.OpVibrate)
	if len(ops) != 4 {
		t.Fatalf("got %d ops after seek, want 4 (one replay of at=0)", len(ops))
	}
	if ops[3].Level != 0.2 {
		t.Errorf("replayed level = %v, want 0.2", ops[3].Level)
	}

	clock.set(340*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 4 {
		t.Errorf("replay repeated: %d ops", got)
	}
}

func TestEngineForwardSeekSkipsWithoutBurst(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	clock.set(100*time.Millisecond, true)
	e.Evaluate(ctx)

	// Jump past the rest of the timeline; skipped actions do not fire.
	clock.set(10*time.Second, true)
	e.Evaluate(ctx)

	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 1 {
		t.Errorf("forward seek burst: %d ops, want 1", got)
	}
	if got := e.Cursor(core.ChannelDefault); got != 4 {
		t.Errorf("cursor = %d, want 4", got)
	}
}

func TestEngineNegativeClockResetsCursor(t *testing.T) {
	e, _, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	clock.set(1100*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := e.Cursor(core.ChannelDefault); got != 3 {
		t.Fatalf("cursor = %d, want 3", got)
	}

	clock.set(-500*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := e.Cursor(core.ChannelDefault); got != 0 {
		t.Errorf("cursor after negative clock = %d, want 0", got)
	}
}

func TestEngineIntensityRescale(t *testing.T) {
	cases := []struct {
		name string
		raw  float64
		pct  int
		want float64
	}{
		{"midpoint holds", 50, 50, 50},
		{"full value at half intensity", 100, 50, 75},
		{"zero at double intensity clamps", 0, 200, 0},
		{"full value at double intensity clamps", 100, 200, 100},
		{"identity at 100", 80, 100, 80},
		{"muted entirely", 100, 0, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rescale(tc.raw, tc.pct, false); got != tc.want {
				t.Errorf("rescale(%v, %d) = %v, want %v", tc.raw, tc.pct, got, tc.want)
			}
		})
	}
}

func TestEngineInversion(t *testing.T) {
	if got := rescale(80, 100, true); got != 20 {
		t.Errorf("inverted rescale(80) = %v, want 20", got)
	}
}

func TestEngineAppliesGlobalIntensity(t *testing.T) {
	e, client, clock := newEngineRig(t, `{"actions":[{"at":0,"pos":100}]}`,
		WithGlobalIntensity(50))
	ctx := context.Background()

	clock.set(100*time.Millisecond, true)
	e.Evaluate(ctx)

	ops := client.Sim(0).OpsOf(device.OpVibrate)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	if ops[0].Level != 0.75 {
		t.Errorf("level = %v, want 0.75", ops[0].Level)
	}
}

func TestEngineStrokerGetsLinear(t *testing.T) {
	e, client, clock := newEngineRig(t, `{"actions":[{"at":0,"pos":10},{"at":400,"pos":90}]}`)
	ctx := context.Background()

	for _, ms := range []int{100, 600} {
		clock.set(time.Duration(ms)*time.Millisecond, true)
		e.Evaluate(ctx)
	}

	// Device 2 is the stroker on the default channel.
	ops := client.Sim(2).OpsOf(device.OpLinear)
	if len(ops) != 2 {
		t.Fatalf("stroker got %d linear ops, want 2", len(ops))
	}
	if ops[1].Position != 0.9 {
		t.Errorf("position = %v, want 0.9", ops[1].Position)
	}
	// Travel time for the second move is the gap from the prior action.
	if ops[1].Duration != 400*time.Millisecond {
		t.Errorf("travel = %v, want 400ms", ops[1].Duration)
	}
	if got := len(client.Sim(2).OpsOf(device.OpVibrate)); got != 0 {
		t.Errorf("stroker also got %d vibrate ops", got)
	}
}

func TestEngineChannelWithoutScriptIsSkipped(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	// Reassign device 1 to channel A, which has no funscript.
	e.roster.SetChannel(1, "A")

	clock.set(1600*time.Millisecond, true)
	e.Evaluate(ctx)

	if got := len(client.Sim(0).Ops()); got == 0 {
		t.Error("default-channel device got nothing")
	}
	if got := len(client.Sim(1).Ops()); got != 0 {
		t.Errorf("channel-A device got %d ops with no channel-A script", got)
	}
}

func TestEnginePerChannelCursors(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "scene.mp4")
	writeScript(t, filepath.Join(dir, "scene.funscript"),
		`{"actions":[{"at":0,"pos":20},{"at":500,"pos":40}]}`)
	writeScript(t, filepath.Join(dir, "scene_A.funscript"),
		`{"actions":[{"at":0,"pos":90}]}`)

	client := device.NewSimClient(device.DefaultDevices()...)
	client.Connect(context.Background())
	roster := core.NewRoster()
	for _, d := range device.DefaultDevices() {
		roster.Add(d)
	}
	roster.SetChannel(1, "A")

	clock := &fakeClock{path: mediaPath, dur: time.Minute, playing: true}
	e := NewEngine(client, roster, funscript.NewLoader(), clock)
	ctx := context.Background()

	clock.set(600*time.Millisecond, true)
	e.Evaluate(ctx)

	if got := e.Cursor(core.ChannelDefault); got != 2 {
		t.Errorf("default cursor = %d, want 2", got)
	}
	if got := e.Cursor("A"); got != 1 {
		t.Errorf("channel A cursor = %d, want 1", got)
	}
	if got := len(client.Sim(1).OpsOf(device.OpVibrate)); got != 1 {
		t.Errorf("channel-A device got %d ops, want 1", got)
	}
}

func TestEngineFingerprintChangeResetsCursors(t *testing.T) {
	e, _, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	clock.set(1100*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := e.Cursor(core.ChannelDefault); got != 3 {
		t.Fatalf("cursor = %d, want 3", got)
	}

	// A new channel file changes the set fingerprint on reload.
	writeScript(t, filepath.Join(filepath.Dir(clock.Path()), "scene_A.funscript"),
		`{"actions":[{"at":0,"pos":50}]}`)
	e.loader.Invalidate()

	clock.set(100*time.Millisecond, true)
	e.Evaluate(ctx)
	if got := e.Cursor(core.ChannelDefault); got != 1 {
		t.Errorf("cursor = %d after set reload, want 1 (reset then replay to clock)", got)
	}
}

func TestEnginePauseSilencesDevices(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	clock.set(600*time.Millisecond, true)
	e.Evaluate(ctx)
	if e.State() != StateTracking {
		t.Fatalf("state = %v, want tracking", e.State())
	}

	clock.set(600*time.Millisecond, false)
	e.Evaluate(ctx)
	if e.State() != StatePaused {
		t.Errorf("state = %v, want paused", e.State())
	}
	if got := len(client.Sim(0).OpsOf(device.OpStop)); got != 1 {
		t.Errorf("got %d stop ops on pause, want 1", got)
	}

	// Staying paused does not re-issue stops.
	e.Evaluate(ctx)
	if got := len(client.Sim(0).OpsOf(device.OpStop)); got != 1 {
		t.Errorf("pause re-issued stop: %d ops", got)
	}
}

func TestEngineEndedState(t *testing.T) {
	e, _, clock := newEngineRig(t, fourActions)
	ctx := context.Background()

	clock.set(600*time.Millisecond, true)
	e.Evaluate(ctx)

	clock.mu.Lock()
	clock.pos = clock.dur
	clock.playing = false
	clock.mu.Unlock()
	e.Evaluate(ctx)

	if e.State() != StateEnded {
		t.Errorf("state = %v, want ended", e.State())
	}
}

func TestEngineLoopSwitchKeepsCursor(t *testing.T) {
	e, client, clock := newEngineRig(t, fourActions, WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock.set(100*time.Millisecond, true)
	e.Start(ctx)
	defer e.Stop(ctx)

	waitOps := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if len(client.Sim(0).OpsOf(device.OpVibrate)) >= n {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("never reached %d ops", n)
	}

	waitOps(1)
	if e.Background() {
		t.Error("started in background mode")
	}

	e.SetBackground(ctx, true)
	if !e.Background() {
		t.Fatal("SetBackground(true) did not switch")
	}
	clock.set(600*time.Millisecond, true)
	waitOps(2)

	e.SetBackground(ctx, false)
	clock.set(1100*time.Millisecond, true)
	waitOps(3)

	if got := e.Cursor(core.ChannelDefault); got != 3 {
		t.Errorf("cursor = %d after loop switches, want 3", got)
	}
	if got := len(client.Sim(0).OpsOf(device.OpVibrate)); got != 3 {
		t.Errorf("got %d ops, want exactly 3 (no double evaluation)", got)
	}
}
