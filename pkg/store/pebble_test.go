package store

import (
	"errors"
	"sync"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	db := openTestDB(t)
	id1, err := db.CreateShape("r1", []byte(`{"type":"rect"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id2, err := db.CreateShape("r1", []byte(`{"type":"circle"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id1 <= 0 || id2 != id1+1 {
		t.Fatalf("ids not monotonic: %d then %d", id1, id2)
	}
}

func TestListShapesCreationOrderAndRoomScope(t *testing.T) {
	db := openTestDB(t)
	payloads := []string{`{"type":"rect"}`, `{"type":"circle"}`, `{"type":"line"}`}
	var ids []int64
	for _, p := range payloads {
		id, err := db.CreateShape("r1", []byte(p))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := db.CreateShape("r2", []byte(`{"type":"text"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}

	recs, err := db.ListShapes("r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, rec := range recs {
		if rec.ID != ids[i] {
			t.Fatalf("record %d out of creation order: id %d want %d", i, rec.ID, ids[i])
		}
		if string(rec.Payload) != payloads[i] {
			t.Fatalf("record %d payload mismatch: %s", i, rec.Payload)
		}
	}

	empty, err := db.ListShapes("no-such-room")
	if err != nil {
		t.Fatalf("list empty room: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty room returned %d records", len(empty))
	}
}

func TestUpdateShape(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateShape("r1", []byte(`{"type":"rect","width":10}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.UpdateShape(id, []byte(`{"type":"rect","width":20}`)); err != nil {
		t.Fatalf("update: %v", err)
	}
	recs, err := db.ListShapes("r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Payload) != `{"type":"rect","width":20}` {
		t.Fatalf("update did not replace the payload: %+v", recs)
	}

	if err := db.UpdateShape(9999, []byte(`{}`)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestDeleteShape(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateShape("r1", []byte(`{"type":"rect"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.DeleteShape(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	recs, err := db.ListShapes("r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("record survived deletion")
	}
	if err := db.DeleteShape(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	// The freed id is never reused.
	next, err := db.CreateShape("r1", []byte(`{"type":"circle"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if next <= id {
		t.Fatalf("id %d reused after delete of %d", next, id)
	}
}

func TestRoomIDsCannotAliasKeyRanges(t *testing.T) {
	db := openTestDB(t)
	// Room ids are opaque client strings; one crafted to look like another
	// room's key suffix must still scope its own records.
	if _, err := db.CreateShape("a", []byte(`{"type":"rect"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	hostile := "a:shape:00000000000000000099"
	if _, err := db.CreateShape(hostile, []byte(`{"type":"circle"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}

	recs, err := db.ListShapes("a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Payload) != `{"type":"rect"}` {
		t.Fatalf("room a leaked foreign records: %+v", recs)
	}
	recs, err = db.ListShapes(hostile)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Payload) != `{"type":"circle"}` {
		t.Fatalf("crafted room lost its record: %+v", recs)
	}
}

func TestConcurrentCreatesNeverOutrunPersistedCounter(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	const workers, perWorker = 8, 10
	ids := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := db.CreateShape("r1", []byte(`{"type":"rect"}`))
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	var max int64
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
		if id > max {
			max = id
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// After a restart the counter must sit at or above every id handed
	// out, or a live id would be reused.
	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	next, err := db2.CreateShape("r1", []byte(`{"type":"circle"}`))
	if err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
	if next <= max {
		t.Fatalf("id %d reused after restart (max assigned was %d)", next, max)
	}
}

func TestSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id1, err := db.CreateShape("r1", []byte(`{"type":"rect"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	id2, err := db2.CreateShape("r1", []byte(`{"type":"circle"}`))
	if err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
	if id2 != id1+1 {
		t.Fatalf("sequence reset on reopen: %d then %d", id1, id2)
	}
	recs, err := db2.ListShapes("r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected both records after reopen, got %d", len(recs))
	}
}
