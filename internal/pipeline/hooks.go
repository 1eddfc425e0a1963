package pipeline

import (
	"time"

	"github.com/coursedash/coursedash/internal/dashcore"
)

// Hooks receives structured telemetry from a run. Every callback is
// optional; a zero Hooks is silent. Hooks replace any ambient side effects
// inside the pipeline: stages report through them, nothing else.
type Hooks struct {
	StageStarted   func(stage string)
	StageCompleted func(stage string, elapsed time.Duration)
	RowsNormalized func(file string, kept, decoded int)
	Diagnostics    func(diags []dashcore.ValidationError)
}

func (h Hooks) stageStarted(stage string) {
	if h.StageStarted != nil {
		h.StageStarted(stage)
	}
}

func (h Hooks) stageCompleted(stage string, elapsed time.Duration) {
	if h.StageCompleted != nil {
		h.StageCompleted(stage, elapsed)
	}
}

func (h Hooks) rowsNormalized(file string, kept, decoded int) {
	if h.RowsNormalized != nil {
		h.RowsNormalized(file, kept, decoded)
	}
}

func (h Hooks) diagnostics(diags []dashcore.ValidationError) {
	if h.Diagnostics != nil && len(diags) > 0 {
		h.Diagnostics(diags)
	}
}
