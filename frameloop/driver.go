// Package frameloop drives the per-frame sequence: begin frame, let the
// caller build a render graph, advance the pipeline registry, compile and
// execute the graph, present, end frame. It owns the frame-rate limiter and
// the large-delta clamp; it does not own the graph itself — a new one is
// built fresh by the caller every frame.
package frameloop

import (
	"time"

	"github.com/oxy-engine/rendercore/rendererr"
)

// UpdateStage names where in a frame the driver currently is. The render
// graph is built only between StageFrameStart and StageFrameEnd.
type UpdateStage uint8

const (
	StageFrameStart UpdateStage = iota
	StagePrePhysics
	StagePhysics
	StagePostPhysics
	StagePaused
	StageFrameEnd
)

func (s UpdateStage) String() string {
	switch s {
	case StageFrameStart:
		return "frame-start"
	case StagePrePhysics:
		return "pre-physics"
	case StagePhysics:
		return "physics"
	case StagePostPhysics:
		return "post-physics"
	case StagePaused:
		return "paused"
	case StageFrameEnd:
		return "frame-end"
	default:
		return "UpdateStage(unknown)"
	}
}

// Driver is the external collaborator that reports what stage of the frame
// the caller believes it is in. Loop does not consume a Driver: RunFrame
// measures the delta itself and passes it to BuildGraphFunc, whose signature
// carries only that delta, not the stage.
type Driver interface {
	Stage() UpdateStage
}

// FatalHandler is invoked when a frame reports an unrecoverable error. It
// returns true to keep running (the caller chose to continue anyway) or
// false to stop the loop.
type FatalHandler = rendererr.FatalHandler

// clampDelta reuses the previous delta when the observed one is implausibly
// large (a debugger break, a long GC pause), so physics and animation never
// see a multi-second jump.
func clampDelta(observed, previous time.Duration) time.Duration {
	if observed > time.Second {
		return previous
	}
	return observed
}
