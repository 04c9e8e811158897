package rooms

import "github.com/hilthontt/huddle/internal/domain"

type roomResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Members     []string `json:"members"`
	MemberCount int      `json:"memberCount"`
	CreatedAt   int64    `json:"createdAt"`
}

func newRoomResponse(room domain.RoomData) roomResponse {
	members := room.Members
	if members == nil {
		members = []string{}
	}
	return roomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Members:     members,
		MemberCount: len(members),
		CreatedAt:   room.CreatedAt,
	}
}
