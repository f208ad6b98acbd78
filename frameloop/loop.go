package frameloop

import (
	"log"
	"time"

	"github.com/oxy-engine/rendercore/pipereg"
	"github.com/oxy-engine/rendercore/profiler"
	"github.com/oxy-engine/rendercore/rendergraph"
	"github.com/oxy-engine/rendercore/rhi"
)

// BuildGraphFunc builds one frame's render graph. Called once per frame
// between BeginFrame and the registry's UpdatePipelines; game-driven passes
// and the UI pass both register their nodes against the returned graph.
type BuildGraphFunc func(dt float32) *rendergraph.Graph

// PresentFunc hands the frame's swapchain image to the window system.
type PresentFunc func() error

// Loop drives device.BeginFrame -> build graph -> registry.UpdatePipelines
// -> graph.Compile -> graph.Execute -> present -> device.EndFrame, once per
// call to RunFrame. It owns the frame-rate limiter and the large-delta
// clamp; everything else about the frame's content is supplied by the
// caller.
type Loop struct {
	device   *rhi.Device
	registry *pipereg.Registry

	cmdPool *rhi.CmdPool
	owner   *rhi.OwnerToken

	minFrameTime time.Duration
	fatal        FatalHandler

	profiler        *profiler.Profiler
	profilingActive bool

	lastFrameStart time.Time
	lastDelta      time.Duration
}

// New creates a Loop bound to device and registry. minFrameTime of 0 means
// uncapped. fatal may be nil, in which case any fatal report halts the loop
// (the conservative default — a caller that wants to keep going after a
// fatal report must say so explicitly). New allocates the OwnerToken and
// CmdPool RunFrame records each frame's commands into; the caller of New
// must be the same goroutine that calls RunFrame/Run for the lifetime of
// the Loop.
func New(device *rhi.Device, registry *pipereg.Registry, minFrameTime time.Duration, fatal FatalHandler) *Loop {
	owner := rhi.NewOwnerToken()
	return &Loop{
		device:         device,
		registry:       registry,
		cmdPool:        rhi.NewCmdPool(owner, device.Graphics.FamilyIndex()),
		owner:          owner,
		minFrameTime:   minFrameTime,
		fatal:          fatal,
		profiler:       profiler.NewProfiler(),
		lastFrameStart: time.Now(),
	}
}

// RunFrame executes exactly one frame and returns whether the loop should
// keep running. A false return means a fatal error occurred and either
// there was no FatalHandler or it chose to stop.
func (l *Loop) RunFrame(build BuildGraphFunc, present PresentFunc) bool {
	dt := l.tick()

	l.device.BeginFrame()

	g := build(dt)
	if g == nil {
		l.device.EndFrame()
		return true
	}

	if !l.registry.UpdatePipelines(l.device) {
		log.Printf("frameloop: one or more pipelines failed to register this frame; affected nodes render nothing")
	}

	if err := g.Compile(l.device); err != nil {
		return l.reportFatal(err)
	}

	if err := g.Execute(l.device, l.cmdPool, l.owner); err != nil {
		return l.reportFatal(err)
	}

	if present != nil {
		if err := present(); err != nil {
			log.Printf("frameloop: present failed, frame degraded: %v", err)
		}
	}

	l.device.EndFrame()

	if l.profilingActive {
		l.profiler.Tick()
	}

	return true
}

// EnableProfiling turns on per-second FPS/GC logging via the profiler
// package.
func (l *Loop) EnableProfiling() { l.profilingActive = true }

// DisableProfiling turns off profiler logging.
func (l *Loop) DisableProfiling() { l.profilingActive = false }

func (l *Loop) reportFatal(err error) bool {
	if l.fatal == nil {
		log.Printf("frameloop: fatal error, no handler installed, stopping: %v", err)
		return false
	}
	return l.fatal(err)
}

// tick measures the delta since the previous call, clamps it if implausibly
// large, sleeps out the remainder of minFrameTime if configured, and returns
// the recorded delta in seconds.
func (l *Loop) tick() float32 {
	now := time.Now()
	observed := now.Sub(l.lastFrameStart)
	delta := clampDelta(observed, l.lastDelta)

	if l.minFrameTime > 0 {
		if remaining := l.minFrameTime - delta; remaining > 0 {
			time.Sleep(remaining)
			delta = l.minFrameTime
		}
	}

	l.lastFrameStart = now
	l.lastDelta = delta
	return float32(delta.Seconds())
}

// Run blocks, calling RunFrame repeatedly until quit is closed or a frame
// reports a fatal error the handler doesn't waive. A recovered panic inside
// a frame is treated the same as an explicit fatal error rather than
// crashing the process.
func (l *Loop) Run(quit <-chan struct{}, build BuildGraphFunc, present PresentFunc) {
	for {
		select {
		case <-quit:
			return
		default:
		}

		keepGoing := l.runFrameRecovered(build, present)
		if !keepGoing {
			return
		}
	}
}

func (l *Loop) runFrameRecovered(build BuildGraphFunc, present PresentFunc) (keepGoing bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("frameloop: recovered from panic inside RunFrame: %v", r)
			keepGoing = l.reportFatal(fatalPanic{r})
		}
	}()

	return l.RunFrame(build, present)
}

type fatalPanic struct{ value any }

func (p fatalPanic) Error() string {
	return "frame loop panic recovered"
}
