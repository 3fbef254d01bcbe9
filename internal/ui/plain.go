package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
)

const plainInterval = 5 * time.Second

// plainPresenter writes a progress line every few seconds, for logs and
// other non-TTY destinations where carriage returns would pile up.
type plainPresenter struct {
	w     io.Writer
	every time.Duration
	last  time.Time
}

func (p *plainPresenter) Render(s stats.Snapshot) {
	now := time.Now()
	if !p.last.IsZero() && now.Sub(p.last) < p.every {
		return
	}
	if p.last.IsZero() {
		// First call only starts the clock; nothing interesting yet.
		p.last = now
		return
	}
	p.last = now
	p.print(s)
}

func (p *plainPresenter) Finish(s stats.Snapshot) {
	p.print(s)
}

func (p *plainPresenter) print(s stats.Snapshot) {
	prog := Compute(s)
	if s.BytesTotal > 0 {
		fmt.Fprintf(p.w, "progress: %.0f%% %s/%s %s eta %s\n",
			prog.Percent,
			FormatBytes(s.Bytes), FormatBytes(s.BytesTotal),
			FormatRate(prog.Speed),
			FormatETA(prog.ETA),
		)
		return
	}
	fmt.Fprintf(p.w, "progress: %s copied in %s %s\n",
		FormatBytes(s.Bytes),
		FormatDuration(s.Elapsed),
		FormatRate(prog.Speed),
	)
}
