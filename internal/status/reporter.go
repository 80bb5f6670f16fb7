package status

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/dispatch"
)

const etaSamples = 5

// ETA estimates the remaining time from the last percent steps
type ETA struct {
	lastPercent int
	lastAt      time.Time
	samples     []float64
}

// NewETA starts an estimate at now
func NewETA(now time.Time) *ETA {
	return &ETA{lastPercent: 100, lastAt: now}
}

// Update records percent at now and returns the ETA text, empty while
// there are not enough samples
func (e *ETA) Update(percent int, now time.Time) string {
	if percent != e.lastPercent {
		if percent > e.lastPercent {
			perPercent := now.Sub(e.lastAt).Seconds() / float64(percent-e.lastPercent)
			e.samples = append(e.samples, perPercent)
		}
		e.lastPercent = percent
		e.lastAt = now
	}
	if len(e.samples) > etaSamples {
		e.samples = e.samples[len(e.samples)-etaSamples:]
	}
	if len(e.samples) < etaSamples {
		return ""
	}

	sum := 0.0
	for _, s := range e.samples {
		sum += s
	}
	estimated := time.Duration(sum/float64(len(e.samples))*float64(100-percent)+0.5) * time.Second
	switch {
	case estimated > 5*time.Second:
		return fmt.Sprintf("ETA: %s |", HumanDuration(estimated))
	case estimated > 0:
		return "ETA: almost done |"
	}
	return ""
}

// StatsSource provides processing totals
type StatsSource interface {
	Stats() dispatch.Stats
}

// Reporter builds the status title and publishes it periodically
type Reporter struct {
	src    StatsSource
	follow bool
	out    *termenv.Output
	width  func() int
	now    func() time.Time

	mu          sync.Mutex
	eta         *ETA
	lastPos     int64
	lastName    string
	lastChanged time.Time
	title       string
}

// NewReporter creates a reporter over src. out may be nil to only keep
// the title for Title; width returns the available title width.
func NewReporter(src StatsSource, follow bool, out *termenv.Output, width func() int) *Reporter {
	if width == nil {
		width = func() int { return config.DefaultWidth }
	}
	now := time.Now()
	return &Reporter{
		src:         src,
		follow:      follow,
		out:         out,
		width:       width,
		now:         time.Now,
		eta:         NewETA(now),
		lastChanged: now,
	}
}

// Title returns the last computed title
func (r *Reporter) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Update recomputes the title from the current totals
func (r *Reporter) Update() string {
	s := r.src.Stats()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	percent := 0
	if s.TotalSize > 0 {
		percent = int(100 * s.TotalProcessed / s.TotalSize)
	}
	if s.TotalProcessed != r.lastPos || s.LastFileName != r.lastName {
		r.lastPos = s.TotalProcessed
		r.lastName = s.LastFileName
		r.lastChanged = now
	}
	eta := r.eta.Update(percent, now)

	if s.LastFileName == "" {
		return r.title
	}

	files := fmt.Sprintf("%d of %d", s.FilesCount-s.Pending, s.FilesCount)
	if r.follow {
		files = fmt.Sprintf("%d files", s.FilesCount)
	}
	title := fmt.Sprintf("%s | %s last processed: %s %s ago (%s) | ",
		FormatBytes(s.TotalProcessed, s.TotalSize),
		eta,
		filepath.Base(s.LastFileName),
		HumanDuration(now.Sub(r.lastChanged)),
		files)

	full := s.LastFileName
	if abs, err := filepath.Abs(full); err == nil && full != config.ConsoleName {
		full = abs
	}
	r.title = AppendFromRight(title, full, r.width())
	return r.title
}

func (r *Reporter) publish() {
	title := r.Update()
	if r.out != nil && title != "" {
		r.out.SetWindowTitle(title)
	}
}

// Run publishes the title every status interval until ctx is done
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(config.StatusInterval)
	defer ticker.Stop()

	r.publish()
	for {
		select {
		case <-ctx.Done():
			r.publish()
			return nil
		case <-ticker.C:
			r.publish()
		}
	}
}
