// Package status reports processing progress in the terminal window title.
package status

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

func round2(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// FormatBytes renders "processed of total" in the unit that fits total
func FormatBytes(processed, total int64) string {
	switch {
	case total < kib:
		return fmt.Sprintf("%d of %d bytes", processed, total)
	case total < mib:
		return fmt.Sprintf("%s of %s KiB", round2(float64(processed)/kib), round2(float64(total)/kib))
	case total < gib:
		return fmt.Sprintf("%s of %s MiB", round2(float64(processed)/mib), round2(float64(total)/mib))
	default:
		return fmt.Sprintf("%s of %s GiB", round2(float64(processed)/gib), round2(float64(total)/gib))
	}
}

// HumanDuration renders d coarsely, e.g. "2:03 minute(s)"
func HumanDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d second(s)", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d:%02d minute(s)", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%d:%02d hour(s)", int(d.Hours()), int(d.Minutes())%60)
	case d < 48*time.Hour:
		return fmt.Sprintf("over %d hour(s)", int(d.Hours()))
	default:
		return fmt.Sprintf("over %d day(s)", int(d.Hours()/24))
	}
}

// AppendFromRight appends as much of the end of tail to s as fits in
// width runes, marking a cut with "..."
func AppendFromRight(s, tail string, width int) string {
	remains := width - len([]rune(s))
	if remains <= 0 {
		return s
	}
	r := []rune(tail)
	cut := len(r) - remains
	if cut <= 0 {
		return s + tail
	}
	return s + "..." + string(r[cut:])
}
