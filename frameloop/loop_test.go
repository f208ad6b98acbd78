package frameloop

import (
	"testing"
	"time"
)

func TestClampDeltaPassesThroughPlausibleDeltas(t *testing.T) {
	got := clampDelta(16*time.Millisecond, 16*time.Millisecond)
	if got != 16*time.Millisecond {
		t.Fatalf("clampDelta() = %v, want 16ms", got)
	}
}

// TestClampDeltaReusesPreviousOnLargeGap matches the debugger-break case: an
// observed delta over one second reuses whatever the previous frame saw
// instead of handing a multi-second jump downstream.
func TestClampDeltaReusesPreviousOnLargeGap(t *testing.T) {
	got := clampDelta(4*time.Second, 16*time.Millisecond)
	if got != 16*time.Millisecond {
		t.Fatalf("clampDelta() = %v, want the previous 16ms", got)
	}
}

func TestUpdateStageString(t *testing.T) {
	cases := map[UpdateStage]string{
		StageFrameStart:  "frame-start",
		StagePrePhysics:  "pre-physics",
		StagePhysics:     "physics",
		StagePostPhysics: "post-physics",
		StagePaused:      "paused",
		StageFrameEnd:    "frame-end",
	}
	for stage, want := range cases {
		if got := stage.String(); got != want {
			t.Fatalf("UpdateStage(%d).String() = %q, want %q", stage, got, want)
		}
	}
}

// TestReportFatalWithoutHandlerStops ensures the conservative default (no
// FatalHandler installed) stops the loop rather than silently continuing.
func TestReportFatalWithoutHandlerStops(t *testing.T) {
	l := &Loop{}
	if l.reportFatal(fatalPanic{"boom"}) {
		t.Fatalf("reportFatal with no handler should stop the loop")
	}
}

// TestReportFatalDefersToHandler verifies the handler's decision is honored
// in both directions.
func TestReportFatalDefersToHandler(t *testing.T) {
	l := &Loop{fatal: func(err error) bool { return true }}
	if !l.reportFatal(fatalPanic{"boom"}) {
		t.Fatalf("expected the handler's true to be honored")
	}

	l.fatal = func(err error) bool { return false }
	if l.reportFatal(fatalPanic{"boom"}) {
		t.Fatalf("expected the handler's false to be honored")
	}
}
