package funscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rdow/thrum/internal/core"
)

func TestParseSortsActions(t *testing.T) {
	data := []byte(`{
		"version": "1.0",
		"inverted": false,
		"range": 100,
		"actions": [
			{"at": 1000, "pos": 80},
			{"at": 0, "pos": 20},
			{"at": 500, "pos": 50}
		]
	}`)

	fs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []int64{0, 500, 1000}
	for i, a := range fs.Actions {
		if a.At != want[i] {
			t.Errorf("action %d at = %d, want %d", i, a.At, want[i])
		}
	}
	if fs.Duration != 1000 {
		t.Errorf("Duration = %d, want 1000", fs.Duration)
	}
}

func TestParseStats(t *testing.T) {
	data := []byte(`{"actions": [
		{"at": 0, "pos": 0},
		{"at": 100, "pos": 100},
		{"at": 200, "pos": 50}
	]}`)

	fs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fs.Stats.Count != 3 {
		t.Errorf("Count = %d, want 3", fs.Stats.Count)
	}
	if fs.Stats.MinPos != 0 || fs.Stats.MaxPos != 100 {
		t.Errorf("Min/Max = %v/%v, want 0/100", fs.Stats.MinPos, fs.Stats.MaxPos)
	}
	if fs.Stats.AvgPos != 50 {
		t.Errorf("AvgPos = %v, want 50", fs.Stats.AvgPos)
	}
}

func TestParseRejectsMissingActions(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no actions key", `{"version": "1.0"}`},
		{"actions not array", `{"actions": {"at": 0}}`},
		{"not json", `funscript`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() succeeded, want error")
			}
		})
	}
}

func TestParseEmptyActions(t *testing.T) {
	fs, err := Parse([]byte(`{"actions": []}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fs.Duration != 0 || fs.Stats.Count != 0 {
		t.Errorf("empty script duration/count = %d/%d, want 0/0", fs.Duration, fs.Stats.Count)
	}
}

func TestPositionScalarBroadcast(t *testing.T) {
	fs, err := Parse([]byte(`{"actions": [{"at": 0, "pos": 70}]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	pos := fs.Actions[0].Pos
	if !pos.Scalar {
		t.Error("scalar pos not flagged as scalar")
	}
	for motor := 0; motor < 3; motor++ {
		if got := pos.For(motor); got != 70 {
			t.Errorf("For(%d) = %v, want 70 broadcast", motor, got)
		}
	}
}

func TestPositionPerMotorArray(t *testing.T) {
	fs, err := Parse([]byte(`{"actions": [{"at": 0, "pos": [10, 90]}]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	pos := fs.Actions[0].Pos
	if pos.Scalar {
		t.Error("array pos flagged as scalar")
	}
	if got := pos.For(0); got != 10 {
		t.Errorf("For(0) = %v, want 10", got)
	}
	if got := pos.For(1); got != 90 {
		t.Errorf("For(1) = %v, want 90", got)
	}
	// Out-of-range motors clamp to the last entry.
	if got := pos.For(5); got != 90 {
		t.Errorf("For(5) = %v, want 90", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSetChannelDiscovery(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")
	writeFile(t, filepath.Join(dir, "clip.funscript"), `{"actions": [{"at": 0, "pos": 50}]}`)
	writeFile(t, filepath.Join(dir, "clip_B.funscript"), `{"actions": [{"at": 100, "pos": 80}]}`)

	set := NewLoader().LoadSet(media)

	if set.Channel(core.ChannelDefault) == nil {
		t.Error("default channel not loaded")
	}
	if set.Channel(core.Channel("B")) == nil {
		t.Error("channel B not loaded")
	}
	if set.Channel(core.Channel("A")) != nil {
		t.Error("channel A loaded from nowhere")
	}
}

func TestLoadSetMissingFilesNotAnError(t *testing.T) {
	dir := t.TempDir()
	set := NewLoader().LoadSet(filepath.Join(dir, "nothing.mp4"))
	if !set.Empty() {
		t.Errorf("set not empty: %v", set.Channels)
	}
}

func TestLoadSetSkipsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")
	writeFile(t, filepath.Join(dir, "clip.funscript"), `not json`)
	writeFile(t, filepath.Join(dir, "clip_A.funscript"), `{"actions": [{"at": 0, "pos": 10}]}`)

	set := NewLoader().LoadSet(media)

	if set.Channel(core.ChannelDefault) != nil {
		t.Error("invalid default funscript loaded")
	}
	if set.Channel(core.Channel("A")) == nil {
		t.Error("valid channel A skipped")
	}
}

func TestLoaderCachesByMediaPath(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")
	writeFile(t, filepath.Join(dir, "clip.funscript"), `{"actions": [{"at": 0, "pos": 50}]}`)

	l := NewLoader()
	first := l.LoadSet(media)
	second := l.LoadSet(media)
	if first != second {
		t.Error("same media path reloaded instead of cached")
	}

	other := filepath.Join(dir, "other.mp4")
	third := l.LoadSet(other)
	if third == first {
		t.Error("different media path returned cached set")
	}
}

func TestSetFingerprint(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")
	writeFile(t, filepath.Join(dir, "clip.funscript"), `{"actions": [{"at": 0, "pos": 50}]}`)

	l := NewLoader()
	fp := l.LoadSet(media).Fingerprint()
	if fp == 0 {
		t.Fatal("fingerprint is zero")
	}
	if got := l.LoadSet(media).Fingerprint(); got != fp {
		t.Errorf("fingerprint changed across cached loads: %d vs %d", got, fp)
	}

	l.Invalidate()
	writeFile(t, filepath.Join(dir, "clip_A.funscript"), `{"actions": [{"at": 0, "pos": 10}]}`)
	if got := l.LoadSet(media).Fingerprint(); got == fp {
		t.Error("fingerprint unchanged after channel file added")
	}
}
