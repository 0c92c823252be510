package main

import (
	"context"

	"github.com/schollz/progressbar/v3"

	"github.com/tradearena/arena/internal/engine"
	"github.com/tradearena/arena/internal/types"
)

// barProgressWriter renders run progress as a terminal progress bar.
// It optionally tees every update to a second writer (the sink).
type barProgressWriter struct {
	bar  *progressbar.ProgressBar
	next engine.ProgressWriter
}

func newBarProgressWriter(description string, next engine.ProgressWriter) *barProgressWriter {
	bar := progressbar.Default(100)
	bar.Describe(description)
	return &barProgressWriter{bar: bar, next: next}
}

func (w *barProgressWriter) WriteProgress(ctx context.Context, progress types.RoundProgress) error {
	_ = w.bar.Set(progress.ProgressPct)
	if w.next != nil {
		return w.next.WriteProgress(ctx, progress)
	}
	return nil
}
