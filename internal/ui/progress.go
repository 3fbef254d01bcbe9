package ui

import (
	"fmt"
	"time"

	"github.com/bamsammich/pdd/internal/size"
	"github.com/bamsammich/pdd/internal/stats"
)

// DefaultBarWidth is the number of cells in the progress bar.
const DefaultBarWidth = 20

// Progress is derived from one statistics snapshot and never stored.
type Progress struct {
	Percent   float64       // 0 when the total is unknown
	Speed     float64       // average bytes/sec since the transfer started
	ETA       time.Duration // valid only when HasETA
	HasETA    bool
	SizeText  string
	SpeedText string
}

// Compute derives percentage, speed and ETA from a snapshot. The ETA is
// suppressed when the total is unknown, nothing has been copied yet, or the
// transfer already reached its total.
func Compute(s stats.Snapshot) Progress {
	var p Progress
	secs := s.Elapsed.Seconds()

	if s.BytesTotal > 0 {
		p.Percent = min(float64(s.Bytes)/float64(s.BytesTotal)*100, 100)
	}
	if secs > 0 {
		p.Speed = float64(s.Bytes) / secs
	}
	if s.BytesTotal > 0 && s.Bytes > 0 && s.Bytes < s.BytesTotal {
		remaining := float64(s.BytesTotal - s.Bytes)
		p.ETA = time.Duration(secs / float64(s.Bytes) * remaining * float64(time.Second))
		p.HasETA = p.ETA > 0
	}

	p.SizeText = size.Format(float64(s.Bytes))
	p.SpeedText = size.Format(p.Speed)
	return p
}

// RenderBar renders a progress line that overwrites the current terminal
// line, e.g.
//
//	[=========>          ]  45% |  4.50 MB |  9.00 MB/s | ETA: 1s
func RenderBar(p Progress, width int) string {
	line := fmt.Sprintf("\r\033[K[%s] %3.0f%% | %8s | %8s/s",
		ProgressBar(p.Percent, width), p.Percent, p.SizeText, p.SpeedText)
	if p.HasETA && p.Percent < 99.9 {
		line += fmt.Sprintf(" | ETA: %.0fs", p.ETA.Seconds())
	}
	return line
}
