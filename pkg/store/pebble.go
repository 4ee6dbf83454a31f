// Package store is the durable record store behind the relay: room-scoped
// shape records on a Pebble database, keyed so that a room prefix scan
// yields creation order.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"drawsync/pkg/logger"
)

// ErrNotFound is returned for update/delete against an id that no longer
// exists. Callers treat it as a silent no-op on the relay path.
var ErrNotFound = errors.New("record not found")

const seqKey = "meta:shape_seq"

// Record is one stored shape: the room it belongs to and the raw shape
// payload.
type Record struct {
	ID      int64
	RoomID  string
	Payload []byte
}

// DB wraps an opened Pebble database. Shape ids are assigned from a
// monotonic sequence persisted alongside the records, so ids survive
// restarts and room scans stay in creation order.
type DB struct {
	pdb *pebble.DB

	// seqMu orders id assignment with the counter write: the persisted
	// counter must never lag behind an id already handed out, or a restart
	// would reseed low and reuse a live id.
	seqMu sync.Mutex
	seq   int64
}

// Open opens (or creates) the Pebble database at path and seeds the shape
// id sequence from the stored counter.
func Open(path string) (*DB, error) {
	logger.Info("opening_pebble_db", "path", path)
	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	d := &DB{pdb: pdb}
	if v, closer, err := pdb.Get([]byte(seqKey)); err == nil {
		if len(v) == 8 {
			d.seq = int64(binary.BigEndian.Uint64(v))
		}
		_ = closer.Close()
	} else if !errors.Is(err, pebble.ErrNotFound) {
		_ = pdb.Close()
		return nil, err
	}
	logger.Info("pebble_opened", "path", path, "last_shape_id", d.seq)
	return d, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	if d.pdb == nil {
		return nil
	}
	if err := d.pdb.Close(); err != nil {
		return err
	}
	d.pdb = nil
	logger.Info("pebble_closed")
	return nil
}

// roomPrefix length-prefixes the room id so an id containing ':' (room ids
// are opaque client strings) can never alias another room's key range.
func roomPrefix(roomID string) string {
	return fmt.Sprintf("room:%d:%s:shape:", len(roomID), roomID)
}

func roomShapeKey(roomID string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", roomPrefix(roomID), id))
}

func shapeIndexKey(id int64) []byte {
	return []byte(fmt.Sprintf("shape:%020d", id))
}

// nextID assigns the next shape id and persists the counter before the id
// escapes, so concurrent creates cannot write the counter out of order.
func (d *DB) nextID() (int64, error) {
	d.seqMu.Lock()
	defer d.seqMu.Unlock()
	id := d.seq + 1
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], uint64(id))
	if err := d.pdb.Set([]byte(seqKey), seqBuf[:], pebble.Sync); err != nil {
		return 0, fmt.Errorf("persist shape sequence: %w", err)
	}
	d.seq = id
	return id, nil
}

// CreateShape assigns the next shape id, writes the room record and the
// id -> room index, and returns the id.
func (d *DB) CreateShape(roomID string, payload []byte) (int64, error) {
	id, err := d.nextID()
	if err != nil {
		return 0, err
	}
	if err := d.pdb.Set(roomShapeKey(roomID, id), payload, pebble.Sync); err != nil {
		logger.Error("shape_create_failed", "room", roomID, "id", id, "error", err)
		return 0, err
	}
	if err := d.pdb.Set(shapeIndexKey(id), []byte(roomID), pebble.Sync); err != nil {
		logger.Error("shape_index_failed", "room", roomID, "id", id, "error", err)
		return 0, err
	}
	logger.Info("shape_created", "room", roomID, "id", id)
	return id, nil
}

// roomOf resolves the room a shape id belongs to via the index key.
func (d *DB) roomOf(id int64) (string, error) {
	v, closer, err := d.pdb.Get(shapeIndexKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	room := string(v)
	_ = closer.Close()
	return room, nil
}

// UpdateShape replaces the stored payload for id. The whole record is
// rewritten: last writer wins.
func (d *DB) UpdateShape(id int64, payload []byte) error {
	room, err := d.roomOf(id)
	if err != nil {
		return err
	}
	if err := d.pdb.Set(roomShapeKey(room, id), payload, pebble.Sync); err != nil {
		logger.Error("shape_update_failed", "room", room, "id", id, "error", err)
		return err
	}
	logger.Info("shape_updated", "room", room, "id", id)
	return nil
}

// DeleteShape removes the record and its index entry.
func (d *DB) DeleteShape(id int64) error {
	room, err := d.roomOf(id)
	if err != nil {
		return err
	}
	if err := d.pdb.Delete(roomShapeKey(room, id), pebble.Sync); err != nil {
		return err
	}
	if err := d.pdb.Delete(shapeIndexKey(id), pebble.Sync); err != nil {
		return err
	}
	logger.Info("shape_deleted", "room", room, "id", id)
	return nil
}

// ListShapes returns all records for a room in creation order (ids are
// monotonic, so key order is creation order).
func (d *DB) ListShapes(roomID string) ([]Record, error) {
	prefix := []byte(roomPrefix(roomID))
	iter, err := d.pdb.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []Record
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var id int64
		if _, err := fmt.Sscanf(string(iter.Key()[len(prefix):]), "%d", &id); err != nil {
			continue
		}
		v := append([]byte(nil), iter.Value()...)
		out = append(out, Record{ID: id, RoomID: roomID, Payload: v})
	}
	return out, iter.Error()
}

// Compact runs a manual compaction over the record keyspace. Invoked by the
// maintenance scheduler.
func (d *DB) Compact() error {
	return d.pdb.Compact([]byte{0x00}, []byte{0xff}, false)
}

// MetricsString returns the Pebble metrics dump for maintenance logging.
func (d *DB) MetricsString() string {
	return d.pdb.Metrics().String()
}
