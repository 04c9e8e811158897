package rooms

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/json"
	"github.com/hilthontt/huddle/internal/infrastructure/validate"
)

var roomIDRule = validate.Field("roomId", validate.Required())

// RoomReader is the read side of the coordinator.
type RoomReader interface {
	GetRoomInfo(ctx context.Context, roomID string) (domain.RoomData, bool)
}

type Handler struct {
	rooms RoomReader
}

func NewHandler(rooms RoomReader) *Handler {
	return &Handler{rooms: rooms}
}

// GetRoomHandler returns the public snapshot of a room.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if err := roomIDRule(roomID); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, ok := h.rooms.GetRoomInfo(r.Context(), roomID)
	if !ok {
		json.WriteNotFoundError(w, domain.ReasonRoomNotFound.Message())
		return
	}

	json.Write(w, http.StatusOK, newRoomResponse(room))
}
