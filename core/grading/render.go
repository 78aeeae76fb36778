package grading

import "context"

// Renderer is the host-runtime seam for turning opaque content into
// renderable fragments. The gating logic only decides when it is invoked:
// never for gated branches, once per child for full access.
type Renderer interface {
	RenderChild(ctx context.Context, child Child, viewer Student) (Fragment, error)
	RenderMessage(src string) (string, error)
}
