// Package client is the drawing-side shape collection: the local replica
// of a room's shapes, selection and drag state, and the socket session
// that keeps the replica converged with the other participants.
package client

import (
	"sync"

	"drawsync/pkg/geometry"
	"drawsync/pkg/logger"
	"drawsync/pkg/models"
)

// selectionPad enlarges the hit area while a selection tool is active, so
// thin shapes stay grabbable.
const selectionPad = 5

// Store holds one room's shapes on the client. Shapes are kept in paint
// order (oldest first); the selected shape is tracked by object identity,
// not by position in the slice, so remote inserts and deletes never shift
// the selection onto a different shape.
type Store struct {
	mu       sync.Mutex
	shapes   []*models.Shape
	selected *models.Shape
	renderer Renderer

	// drag state: anchor offset from the pointer to the shape's reference
	// point, captured at BeginDrag.
	dragging bool
	offsetX  float64
	offsetY  float64
}

func NewStore(r Renderer) *Store {
	return &Store{renderer: r}
}

func (s *Store) redrawLocked() {
	if s.renderer == nil {
		return
	}
	out := make([]*models.Shape, len(s.shapes))
	copy(out, s.shapes)
	s.renderer.Redraw(out)
}

// Load replaces the collection with the persisted room contents, clearing
// any selection. Called once when the room is opened.
func (s *Store) Load(shapes []models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes = make([]*models.Shape, 0, len(shapes))
	for i := range shapes {
		sh := shapes[i]
		s.shapes = append(s.shapes, &sh)
	}
	s.selected = nil
	s.dragging = false
	s.redrawLocked()
}

// InsertLocal appends a locally drawn shape that has not been persisted
// yet (ID zero) and returns the stored object so the caller can confirm it
// later by reference.
func (s *Store) InsertLocal(sh models.Shape) *models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = 0
	p := &sh
	s.shapes = append(s.shapes, p)
	s.redrawLocked()
	return p
}

// ConfirmInsert stamps the persisted id onto a shape previously returned
// by InsertLocal. Matching is by object reference, so two visually
// identical pending shapes each receive their own id.
func (s *Store) ConfirmInsert(sh *models.Shape, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.shapes {
		if p == sh {
			p.ID = id
			return
		}
	}
	logger.Debug("confirm_unknown_shape", "id", id)
}

// ApplyRemoteCreate appends a shape announced by another participant.
// Re-announcements of an id already present are ignored, so replayed
// creation events cannot duplicate a shape.
func (s *Store) ApplyRemoteCreate(sh models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID != 0 {
		for _, p := range s.shapes {
			if p.ID == sh.ID {
				return
			}
		}
	}
	p := &sh
	s.shapes = append(s.shapes, p)
	s.redrawLocked()
}

// ApplyRemoteUpdate replaces the fields of the shape with the given id.
// The stored object is mutated in place so selection and drag state keep
// pointing at it. Unknown ids are a silent no-op: the update may race a
// delete that already won.
func (s *Store) ApplyRemoteUpdate(id int64, fields models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.shapes {
		if p.ID == id {
			*p = fields
			p.ID = id
			s.redrawLocked()
			return
		}
	}
	logger.Debug("update_unknown_shape", "id", id)
}

// ApplyRemoteDelete removes the shape with the given id. If it was
// selected, the selection is cleared so a stale drag cannot resurrect it.
func (s *Store) ApplyRemoteDelete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.shapes {
		if p.ID == id {
			if s.selected == p {
				s.selected = nil
				s.dragging = false
			}
			s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
			s.redrawLocked()
			return
		}
	}
}

// HitTest returns the topmost shape under (x,y), scanning newest-first so
// the shape painted last wins overlaps. Returns nil on a miss.
func (s *Store) HitTest(x, y float64) *models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.shapes) - 1; i >= 0; i-- {
		if geometry.Hit(s.shapes[i], x, y, selectionPad) {
			return s.shapes[i]
		}
	}
	return nil
}

// Select marks sh as the current selection. Passing nil clears it.
func (s *Store) Select(sh *models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = sh
	s.dragging = false
	s.redrawLocked()
}

// Selected returns the currently selected shape, or nil.
func (s *Store) Selected() *models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ClearSelection drops the selection and any active drag.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.dragging = false
	s.redrawLocked()
}

// refPoint returns the variant's reference point, the coordinate a drag
// translates.
func refPoint(sh *models.Shape) (float64, float64) {
	switch sh.Type {
	case models.KindCircle, models.KindRotatedRect, models.KindPolygon:
		return sh.CenterX, sh.CenterY
	case models.KindPencil:
		if len(sh.Points) > 0 {
			return sh.Points[0].X, sh.Points[0].Y
		}
		return 0, 0
	default:
		// rect, line, arrow, text anchor at the start point.
		return sh.StartX, sh.StartY
	}
}

// BeginDrag starts dragging sh from pointer position (x,y). The offset
// from the pointer to the reference point is captured once, so the shape
// never jumps under the cursor.
func (s *Store) BeginDrag(sh *models.Shape, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rx, ry := refPoint(sh)
	s.selected = sh
	s.dragging = true
	s.offsetX = x - rx
	s.offsetY = y - ry
}

// ApplyDrag moves the selected shape so its reference point tracks the
// pointer minus the captured offset. All dependent coordinates translate
// by the same vector, so shape geometry is preserved.
func (s *Store) ApplyDrag(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dragging || s.selected == nil {
		return
	}
	sh := s.selected
	nx, ny := x-s.offsetX, y-s.offsetY
	rx, ry := refPoint(sh)
	dx, dy := nx-rx, ny-ry

	switch sh.Type {
	case models.KindCircle, models.KindRotatedRect, models.KindPolygon:
		sh.CenterX += dx
		sh.CenterY += dy
	case models.KindLine, models.KindArrow:
		sh.StartX += dx
		sh.StartY += dy
		sh.EndX += dx
		sh.EndY += dy
	case models.KindPencil:
		for i := range sh.Points {
			sh.Points[i].X += dx
			sh.Points[i].Y += dy
		}
	default:
		sh.StartX += dx
		sh.StartY += dy
	}
	s.redrawLocked()
}

// EndDrag finishes the active drag and returns the dragged shape so the
// caller can announce its final position. Returns nil when no drag was
// active.
func (s *Store) EndDrag() *models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dragging {
		return nil
	}
	s.dragging = false
	return s.selected
}

// Shapes returns a snapshot of the paint-order shape list.
func (s *Store) Shapes() []*models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Len returns the number of shapes in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shapes)
}
