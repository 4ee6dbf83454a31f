// Package api is the REST surface backing the out-of-band persistence
// path: the drawing client creates and deletes shape records here before
// announcing them over the socket, and loads the full room collection when
// opening a room.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"drawsync/pkg/auth"
	"drawsync/pkg/logger"
	"drawsync/pkg/models"
	"drawsync/pkg/store"
)

// ShapeStore is the record store slice the REST surface consumes.
type ShapeStore interface {
	CreateShape(roomID string, payload []byte) (int64, error)
	DeleteShape(id int64) error
	ListShapes(roomID string) ([]store.Record, error)
}

// Router builds the versioned API. Everything under /v1 requires a valid
// bearer token.
func Router(st ShapeStore, verifier auth.Verifier) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(auth.Middleware(verifier))
	v1.HandleFunc("/rooms/{roomId}/shapes", createShape(st)).Methods(http.MethodPost)
	v1.HandleFunc("/rooms/{roomId}/shapes", listShapes(st)).Methods(http.MethodGet)
	v1.HandleFunc("/shapes/{id}", deleteShape(st)).Methods(http.MethodDelete)
	return r
}

func createShape(st ShapeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		roomID := mux.Vars(r)["roomId"]
		var sh models.Shape
		if err := json.NewDecoder(r.Body).Decode(&sh); err != nil {
			http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
			return
		}
		if !models.KnownKind(sh.Type) {
			http.Error(w, `{"error":"unknown shape type"}`, http.StatusBadRequest)
			return
		}
		// The record store assigns the id; never trust one from the body.
		sh.ID = 0
		payload, err := json.Marshal(sh)
		if err != nil {
			http.Error(w, `{"error":"marshal failed"}`, http.StatusInternalServerError)
			return
		}
		id, err := st.CreateShape(roomID, payload)
		if err != nil {
			logger.Error("rest_create_failed", "room", roomID, "error", err)
			http.Error(w, `{"error":"persist failed"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			ID int64 `json:"id"`
		}{ID: id})
	}
}

func listShapes(st ShapeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		roomID := mux.Vars(r)["roomId"]
		recs, err := st.ListShapes(roomID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		out := make([]models.Shape, 0, len(recs))
		for _, rec := range recs {
			var sh models.Shape
			if err := json.Unmarshal(rec.Payload, &sh); err != nil {
				// Skip unreadable records rather than failing the load.
				logger.Warn("rest_list_bad_record", "room", roomID, "id", rec.ID)
				continue
			}
			sh.ID = rec.ID
			out = append(out, sh)
		}
		_ = json.NewEncoder(w).Encode(struct {
			Room   string         `json:"room"`
			Shapes []models.Shape `json:"shapes"`
		}{Room: roomID, Shapes: out})
	}
}

func deleteShape(st ShapeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, `{"error":"invalid shape id"}`, http.StatusBadRequest)
			return
		}
		if err := st.DeleteShape(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
