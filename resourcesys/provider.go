// Package resourcesys is the concrete, in-process implementation of
// pipereg.Provider: it loads shader source and reflection manifests from
// disk, compiles (in this build, merely parses) them on a worker pool so
// the main thread never blocks on I/O, and watches the shader directory so
// changed sources can be hot-reloaded.
package resourcesys

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/oxy-engine/rendercore/pipereg"
	shaderreflect "github.com/oxy-engine/rendercore/pipereg/reflect"
	"github.com/oxy-engine/rendercore/rhi"
)

// SourceLoader reads a shader resource's compiled bytecode and reflection
// manifest text. Tests substitute an in-memory loader; FileSourceLoader is
// the production implementation.
type SourceLoader interface {
	Load(handle pipereg.ResourceHandle) (bytecode string, manifest string, err error)
}

// FileSourceLoader reads <Root>/<handle> as the shader's WGSL source and
// <Root>/<handle>.manifest as its reflection manifest.
type FileSourceLoader struct {
	Root string
}

func (l FileSourceLoader) Load(handle pipereg.ResourceHandle) (string, string, error) {
	path := filepath.Join(l.Root, string(handle))
	src, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("resourcesys: reading shader source %q: %w", path, err)
	}
	manifest, err := os.ReadFile(path + ".manifest")
	if err != nil {
		return "", "", fmt.Errorf("resourcesys: reading reflection manifest for %q: %w", path, err)
	}
	return string(src), string(manifest), nil
}

// entry tracks one resource handle's reference count and load outcome.
type entry struct {
	refs     map[uint64]struct{}
	busy     bool
	artifact pipereg.ShaderArtifact
	loadErr  error
}

// Provider is the worker-pool-backed pipereg.Provider. Workers are reused
// across load requests rather than spawned per-request, matching the
// engine's existing per-frame compute-pool pattern.
type Provider struct {
	mu      sync.Mutex
	entries map[pipereg.ResourceHandle]*entry

	loader SourceLoader
	pool   worker.DynamicWorkerPool

	nextTaskID int

	watcher  *fsnotify.Watcher
	watchDir string
	reloadCh chan pipereg.ResourceHandle
	done     chan struct{}
}

// New creates a Provider that loads shader resources via loader, running up
// to workers concurrent load tasks. watchDir, if non-empty, is watched for
// shader source changes to drive Reload notifications; a watcher that fails
// to start is logged and treated as non-fatal (hot-reload degrades to
// unavailable, loading still works).
func New(loader SourceLoader, workers int, watchDir string) *Provider {
	p := &Provider{
		entries:  make(map[pipereg.ResourceHandle]*entry),
		loader:   loader,
		pool:     worker.NewDynamicWorkerPool(workers, 256, 0),
		watchDir: watchDir,
		reloadCh: make(chan pipereg.ResourceHandle, 64),
		done:     make(chan struct{}),
	}

	if watchDir != "" {
		if err := p.startWatcher(); err != nil {
			log.Printf("resourcesys: shader hot-reload watcher disabled: %v", err)
		}
	}

	return p
}

func (p *Provider) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(p.watchDir); err != nil {
		w.Close()
		return err
	}
	p.watcher = w

	go func() {
		for {
			select {
			case <-p.done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if strings.HasSuffix(event.Name, ".manifest") {
					continue
				}
				rel, err := filepath.Rel(p.watchDir, event.Name)
				if err != nil {
					continue
				}
				p.notifyReload(pipereg.ResourceHandle(rel))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("resourcesys: shader watcher error: %v", err)
			}
		}
	}()

	return nil
}

func (p *Provider) notifyReload(handle pipereg.ResourceHandle) {
	select {
	case p.reloadCh <- handle:
	default:
		log.Printf("resourcesys: reload channel full, dropping notification for %q", handle)
	}
}

// LoadResource registers requesterID's interest in handle and, on the first
// such request, submits a load task to the worker pool. Repeated requests
// for an in-flight or already-loaded handle only add the reference.
func (p *Provider) LoadResource(handle pipereg.ResourceHandle, requesterID uint64) error {
	p.mu.Lock()

	e, ok := p.entries[handle]
	if !ok {
		e = &entry{refs: make(map[uint64]struct{})}
		p.entries[handle] = e
	}
	e.refs[requesterID] = struct{}{}

	if e.busy || e.loadErr == nil && e.artifact.Handle != "" {
		p.mu.Unlock()
		return nil
	}

	e.busy = true
	e.loadErr = nil
	taskID := p.nextTaskID
	p.nextTaskID++
	p.mu.Unlock()

	p.pool.SubmitTask(worker.Task{
		ID: taskID,
		Do: func() (any, error) {
			p.runLoad(handle)
			return nil, nil
		},
	})

	return nil
}

func (p *Provider) runLoad(handle pipereg.ResourceHandle) {
	bytecode, manifestSrc, err := p.loader.Load(handle)
	var artifact pipereg.ShaderArtifact
	if err == nil {
		var refl pipereg.Reflection
		refl, err = shaderreflect.ParseManifest(manifestSrc)
		if err == nil {
			artifact = pipereg.ShaderArtifact{
				Handle:     handle,
				Stage:      stageFromPath(string(handle)),
				Bytecode:   bytecode,
				Reflection: refl,
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[handle]
	if !ok {
		return // unloaded while the load was in flight
	}
	e.busy = false
	e.loadErr = err
	e.artifact = artifact
}

// UnloadResource releases requesterID's interest in handle. The entry is
// dropped once no requester remains interested.
func (p *Provider) UnloadResource(handle pipereg.ResourceHandle, requesterID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[handle]
	if !ok {
		return nil
	}
	delete(e.refs, requesterID)
	if len(e.refs) == 0 {
		delete(p.entries, handle)
	}
	return nil
}

// IsBusy reports whether handle's load task has not yet completed.
func (p *Provider) IsBusy(handle pipereg.ResourceHandle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[handle]
	return ok && e.busy
}

// Artifact returns the loaded artifact, if loading completed without error.
func (p *Provider) Artifact(handle pipereg.ResourceHandle) (pipereg.ShaderArtifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[handle]
	if !ok || e.busy || e.loadErr != nil {
		return pipereg.ShaderArtifact{}, false
	}
	return e.artifact, true
}

// Update is a no-op: load tasks run on the worker pool independently of the
// frame loop, and watcher notifications are delivered asynchronously over
// Reload's channel.
func (p *Provider) Update() {}

// Reload delivers handles whose source file changed on disk.
func (p *Provider) Reload() <-chan pipereg.ResourceHandle { return p.reloadCh }

// Close stops the file watcher, if running, and waits for outstanding load
// tasks to finish.
func (p *Provider) Close() {
	close(p.done)
	if p.watcher != nil {
		p.watcher.Close()
	}
	p.pool.Wait()
}

func stageFromPath(path string) rhi.ShaderStage {
	switch {
	case strings.Contains(path, ".vert."):
		return rhi.ShaderStageVertex
	case strings.Contains(path, ".frag."):
		return rhi.ShaderStageFragment
	default:
		return rhi.ShaderStageCompute
	}
}
