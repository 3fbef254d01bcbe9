package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
)

// Presenter renders progress snapshots. Render may be called many times;
// Finish is called exactly once, after the last Render.
type Presenter interface {
	Render(s stats.Snapshot)
	Finish(s stats.Snapshot)
}

// Mode selects how progress is displayed.
type Mode int

const (
	ModeAuto  Mode = iota // bar on a TTY, plain otherwise
	ModeBar               // in-place progress bar
	ModePlain             // periodic log-style lines
	ModeNone              // no progress output
)

var modeNames = map[string]Mode{
	"auto":  ModeAuto,
	"bar":   ModeBar,
	"plain": ModePlain,
	"none":  ModeNone,
}

// ParseMode parses a progress mode name.
func ParseMode(s string) (Mode, error) {
	m, ok := modeNames[strings.ToLower(s)]
	if !ok {
		return ModeAuto, fmt.Errorf("unknown progress mode %q (want auto, bar, plain or none)", s)
	}
	return m, nil
}

func (m Mode) String() string {
	for name, v := range modeNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// Config configures a Presenter and its Monitor.
type Config struct {
	Writer   io.Writer
	Mode     Mode
	IsTTY    bool
	BarWidth int           // cells in the bar, DefaultBarWidth when 0
	Interval time.Duration // render interval, DefaultInterval when 0
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	mode := cfg.Mode
	if mode == ModeAuto {
		mode = ModePlain
		if cfg.IsTTY {
			mode = ModeBar
		}
	}

	switch mode {
	case ModeNone:
		return quietPresenter{}
	case ModePlain:
		return &plainPresenter{w: cfg.Writer, every: plainInterval}
	default:
		width := cfg.BarWidth
		if width <= 0 {
			width = DefaultBarWidth
		}
		return &barPresenter{w: cfg.Writer, width: width}
	}
}

// barPresenter redraws a single terminal line in place.
type barPresenter struct {
	w     io.Writer
	width int
}

func (p *barPresenter) Render(s stats.Snapshot) {
	fmt.Fprint(p.w, RenderBar(Compute(s), p.width))
}

func (p *barPresenter) Finish(s stats.Snapshot) {
	p.Render(s)
	// Leave the completed bar on its own line.
	fmt.Fprintln(p.w)
}
