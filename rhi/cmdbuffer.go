package rhi

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
)

// CmdBuffer wraps a *wgpu.CommandEncoder while it is being recorded. Once
// Finish is called the encoder is consumed and the resulting native command
// buffer is returned for submission via Queue.Submit.
type CmdBuffer struct {
	pool    *CmdPool
	encoder *wgpu.CommandEncoder
	active  bool
}

// Encoder exposes the underlying encoder so rendergraph's execution context
// can record render/compute passes and copies directly.
func (c *CmdBuffer) Encoder() *wgpu.CommandEncoder { return c.encoder }

// Finish ends recording and returns the submittable command buffer.
func (c *CmdBuffer) Finish() (*wgpu.CommandBuffer, error) {
	cb, err := c.encoder.Finish(nil)
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindSubmission, "finish command buffer failed", err)
	}
	return cb, nil
}

// Release releases the encoder without finishing it, used on an aborted
// recording (e.g. a resource-create failure mid-frame).
func (c *CmdBuffer) Release() {
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
}
