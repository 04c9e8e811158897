package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRooms map[string]domain.RoomData

func (s stubRooms) GetRoomInfo(_ context.Context, roomID string) (domain.RoomData, bool) {
	room, ok := s[roomID]
	return room, ok
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/rooms/{roomId}", h.GetRoomHandler)
	return r
}

func TestGetRoomHandler(t *testing.T) {
	router := newRouter(NewHandler(stubRooms{
		"R1": {ID: "R1", Name: "Room R1", Members: []string{"alice", "bob"}, CreatedAt: 1700000000000},
		"R2": {ID: "R2", Name: "Room R2"},
	}))

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/R1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body roomResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, roomResponse{
			ID:          "R1",
			Name:        "Room R1",
			Members:     []string{"alice", "bob"},
			MemberCount: 2,
			CreatedAt:   1700000000000,
		}, body)
	})

	t.Run("empty room lists no members", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/R2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"members":[]`)
	})

	t.Run("blank id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/%20%20", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "roomId: this field is required")
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Room not found")
	})
}
