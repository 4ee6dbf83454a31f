package client

import "drawsync/pkg/models"

// Renderer receives the full shape list whenever the store changes. The
// store calls it synchronously under its lock, so implementations must not
// call back into the store.
type Renderer interface {
	Redraw(shapes []*models.Shape)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(shapes []*models.Shape)

func (f RendererFunc) Redraw(shapes []*models.Shape) { f(shapes) }
