package client

import (
	"testing"

	"drawsync/pkg/models"
)

func countingRenderer(calls *int) Renderer {
	return RendererFunc(func([]*models.Shape) { *calls++ })
}

func TestLoadReplacesCollection(t *testing.T) {
	var calls int
	s := NewStore(countingRenderer(&calls))
	s.InsertLocal(models.Shape{Type: models.KindRect})
	s.Load([]models.Shape{
		{ID: 1, Type: models.KindRect, Width: 10, Height: 10},
		{ID: 2, Type: models.KindCircle, Radius: 5},
	})
	if s.Len() != 2 {
		t.Fatalf("load left %d shapes", s.Len())
	}
	if s.Selected() != nil {
		t.Fatalf("load must clear selection")
	}
	if calls == 0 {
		t.Fatalf("renderer never invoked")
	}
}

func TestConfirmInsertMatchesByReference(t *testing.T) {
	s := NewStore(nil)
	// Two visually identical pending shapes.
	p1 := s.InsertLocal(models.Shape{Type: models.KindRect, Width: 10})
	p2 := s.InsertLocal(models.Shape{Type: models.KindRect, Width: 10})

	s.ConfirmInsert(p2, 42)
	s.ConfirmInsert(p1, 41)
	if p1.ID != 41 || p2.ID != 42 {
		t.Fatalf("confirmations crossed: p1=%d p2=%d", p1.ID, p2.ID)
	}
}

func TestApplyRemoteCreateIsIdempotent(t *testing.T) {
	s := NewStore(nil)
	sh := models.Shape{ID: 7, Type: models.KindRect, Width: 10}
	s.ApplyRemoteCreate(sh)
	s.ApplyRemoteCreate(sh)
	if s.Len() != 1 {
		t.Fatalf("replayed create duplicated the shape: %d entries", s.Len())
	}
}

func TestApplyRemoteUpdatePreservesIdentity(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 7, Type: models.KindRect, Width: 10})
	target := s.Shapes()[0]
	s.Select(target)

	s.ApplyRemoteUpdate(7, models.Shape{Type: models.KindRect, Width: 99})
	if target.Width != 99 {
		t.Fatalf("update did not mutate the stored object")
	}
	if target.ID != 7 {
		t.Fatalf("update lost the id: %d", target.ID)
	}
	if s.Selected() != target {
		t.Fatalf("selection detached from the updated shape")
	}
}

func TestDeleteThenUpdateIsNoop(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 7, Type: models.KindRect})
	s.ApplyRemoteDelete(7)
	s.ApplyRemoteUpdate(7, models.Shape{Type: models.KindRect, Width: 99})
	if s.Len() != 0 {
		t.Fatalf("update after delete resurrected the shape")
	}
}

func TestRemoteDeleteClearsSelection(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 7, Type: models.KindRect, Width: 10, Height: 10})
	s.ApplyRemoteCreate(models.Shape{ID: 8, Type: models.KindCircle, Radius: 5})
	shapes := s.Shapes()
	s.Select(shapes[0])

	// Deleting the other shape leaves the selection alone.
	s.ApplyRemoteDelete(8)
	if s.Selected() != shapes[0] {
		t.Fatalf("unrelated delete disturbed the selection")
	}
	s.ApplyRemoteDelete(7)
	if s.Selected() != nil {
		t.Fatalf("selection survived deletion of the selected shape")
	}
}

func TestRemoteInsertDoesNotShiftSelection(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 1, Type: models.KindRect, Width: 10})
	target := s.Shapes()[0]
	s.Select(target)

	// A remote participant inserts more shapes; the selection must still
	// point at the same object.
	s.ApplyRemoteCreate(models.Shape{ID: 2, Type: models.KindCircle})
	s.ApplyRemoteCreate(models.Shape{ID: 3, Type: models.KindLine})
	if s.Selected() != target {
		t.Fatalf("selection shifted after remote inserts")
	}
}

func TestHitTestReturnsTopmost(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 1, Type: models.KindRect, StartX: 0, StartY: 0, Width: 100, Height: 100})
	s.ApplyRemoteCreate(models.Shape{ID: 2, Type: models.KindRect, StartX: 25, StartY: 25, Width: 50, Height: 50})

	hit := s.HitTest(50, 50)
	if hit == nil || hit.ID != 2 {
		t.Fatalf("expected topmost shape, got %+v", hit)
	}
	if edge := s.HitTest(5, 5); edge == nil || edge.ID != 1 {
		t.Fatalf("expected bottom shape outside the overlap, got %+v", edge)
	}
	if miss := s.HitTest(500, 500); miss != nil {
		t.Fatalf("expected miss, got %+v", miss)
	}
}

func TestDragTranslatesLineEndsTogether(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{
		ID: 1, Type: models.KindLine,
		StartX: 0, StartY: 0, EndX: 30, EndY: 40,
	})
	sh := s.Shapes()[0]

	s.BeginDrag(sh, 10, 10)
	s.ApplyDrag(25, 17)
	if sh.StartX != 15 || sh.StartY != 7 {
		t.Fatalf("start moved to (%v,%v)", sh.StartX, sh.StartY)
	}
	// The drag vector applies to both endpoints; the segment keeps its
	// length and direction.
	if sh.EndX-sh.StartX != 30 || sh.EndY-sh.StartY != 40 {
		t.Fatalf("drag deformed the line: (%v,%v)-(%v,%v)",
			sh.StartX, sh.StartY, sh.EndX, sh.EndY)
	}
	if done := s.EndDrag(); done != sh {
		t.Fatalf("EndDrag returned %+v", done)
	}
}

func TestDragPencilMovesAllPoints(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{
		ID: 1, Type: models.KindPencil,
		Points: []models.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 0}},
	})
	sh := s.Shapes()[0]

	s.BeginDrag(sh, 0, 0)
	s.ApplyDrag(100, 50)
	want := []models.Point{{X: 100, Y: 50}, {X: 105, Y: 55}, {X: 110, Y: 50}}
	for i, p := range sh.Points {
		if p.X != want[i].X || p.Y != want[i].Y {
			t.Fatalf("point %d at (%v,%v), want (%v,%v)", i, p.X, p.Y, want[i].X, want[i].Y)
		}
	}
}

func TestDragKeepsPointerOffset(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{
		ID: 1, Type: models.KindRect, StartX: 100, StartY: 100, Width: 50, Height: 50,
	})
	sh := s.Shapes()[0]

	// Grab the rect near its middle; the grab point stays under the cursor.
	s.BeginDrag(sh, 120, 130)
	s.ApplyDrag(220, 230)
	if sh.StartX != 200 || sh.StartY != 200 {
		t.Fatalf("rect origin at (%v,%v), want (200,200)", sh.StartX, sh.StartY)
	}
}

func TestApplyDragWithoutBeginIsNoop(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 1, Type: models.KindCircle, CenterX: 5, CenterY: 5, Radius: 3})
	sh := s.Shapes()[0]
	s.ApplyDrag(100, 100)
	if sh.CenterX != 5 || sh.CenterY != 5 {
		t.Fatalf("drag without begin moved the shape")
	}
	if s.EndDrag() != nil {
		t.Fatalf("EndDrag without an active drag returned a shape")
	}
}

func TestDragStopsWhenShapeDeleted(t *testing.T) {
	s := NewStore(nil)
	s.ApplyRemoteCreate(models.Shape{ID: 1, Type: models.KindCircle, CenterX: 5, CenterY: 5, Radius: 3})
	sh := s.Shapes()[0]
	s.BeginDrag(sh, 5, 5)
	s.ApplyRemoteDelete(1)
	s.ApplyDrag(100, 100)
	if sh.CenterX != 5 {
		t.Fatalf("deleted shape kept moving")
	}
	if s.EndDrag() != nil {
		t.Fatalf("drag survived deletion of its shape")
	}
}
