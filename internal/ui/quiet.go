package ui

import "github.com/bamsammich/pdd/internal/stats"

// quietPresenter produces no output.
type quietPresenter struct{}

func (quietPresenter) Render(stats.Snapshot) {}
func (quietPresenter) Finish(stats.Snapshot) {}
