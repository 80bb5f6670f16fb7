package status

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/TimelordUK/mtail/internal/dispatch"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		processed, total int64
		want             string
	}{
		{10, 100, "10 of 100 bytes"},
		{512, 2048, "0.5 of 2 KiB"},
		{1536 * 1024, 3 * 1024 * 1024, "1.5 of 3 MiB"},
		{1 << 30, 4 << 30, "1 of 4 GiB"},
		{1000, 3000, "0.98 of 2.93 KiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.processed, tt.total); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 second(s)"},
		{5 * time.Second, "5 second(s)"},
		{2*time.Minute + 3*time.Second, "2:03 minute(s)"},
		{4*time.Hour + 2*time.Minute + 3*time.Second, "4:02 hour(s)"},
		{28*time.Hour + 2*time.Minute, "over 28 hour(s)"},
		{52 * time.Hour, "over 2 day(s)"},
	}
	for _, tt := range tests {
		if got := HumanDuration(tt.d); got != tt.want {
			t.Errorf("HumanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestAppendFromRight(t *testing.T) {
	tests := []struct {
		s, tail string
		width   int
		want    string
	}{
		{"abc", "/var/log", 20, "abc/var/log"},
		{"abc", "/var/log", 7, "abc.../log"},
		{"abcdef", "/var", 4, "abcdef"},
	}
	for _, tt := range tests {
		if got := AppendFromRight(tt.s, tt.tail, tt.width); got != tt.want {
			t.Errorf("AppendFromRight(%q, %q, %d) = %q, want %q", tt.s, tt.tail, tt.width, got, tt.want)
		}
	}
}

func TestETA(t *testing.T) {
	start := time.Unix(0, 0)
	e := NewETA(start)
	if got := e.Update(0, start); got != "" {
		t.Fatalf("first update = %q", got)
	}
	now := start
	var got string
	for p := 1; p <= etaSamples; p++ {
		now = now.Add(10 * time.Second)
		got = e.Update(p, now)
	}
	// 10s per percent with 95 percent to go
	if want := "ETA: 15:50 minute(s) |"; got != want {
		t.Fatalf("ETA = %q, want %q", got, want)
	}

	for p := etaSamples + 1; p <= 90; p++ {
		now = now.Add(time.Second / 10)
		got = e.Update(p, now)
	}
	if got != "ETA: almost done |" {
		t.Fatalf("ETA = %q", got)
	}
}

type fixedStats dispatch.Stats

func (f fixedStats) Stats() dispatch.Stats { return dispatch.Stats(f) }

func TestReporterTitle(t *testing.T) {
	src := fixedStats{TotalProcessed: 50, TotalSize: 100, FilesCount: 3, Pending: 1, LastFileName: "/var/log/app.log"}
	r := NewReporter(src, false, nil, func() int { return 200 })
	title := r.Update()

	for _, part := range []string{"50 of 100 bytes", "last processed: app.log", "(2 of 3)", "/var/log/app.log"} {
		if !strings.Contains(title, part) {
			t.Errorf("%q missing from %q", part, title)
		}
	}
	if r.Title() != title {
		t.Fatalf("Title() = %q", r.Title())
	}

	follow := NewReporter(src, true, nil, nil)
	if got := follow.Update(); !strings.Contains(got, "(3 files)") {
		t.Fatalf("follow title = %q", got)
	}
}

func TestReporterWithoutFiles(t *testing.T) {
	r := NewReporter(fixedStats{}, false, nil, nil)
	if got := r.Update(); got != "" {
		t.Fatalf("title = %q", got)
	}
}

func TestReporterRunStops(t *testing.T) {
	r := NewReporter(fixedStats{LastFileName: "a.log"}, true, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	if r.Title() == "" {
		t.Fatal("no title published")
	}
}
