package domain

import (
	"context"
	"time"
)

type RoomEventType string

const (
	EventRoomCreated  RoomEventType = "room.created"
	EventRoomDeleted  RoomEventType = "room.deleted"
	EventMemberJoined RoomEventType = "member.joined"
	EventMemberLeft   RoomEventType = "member.left"
	EventMessageSent  RoomEventType = "message.sent"
)

// RoomEvent is a lifecycle notification emitted after a state change commits.
type RoomEvent struct {
	Type        RoomEventType `json:"type"`
	RoomID      string        `json:"roomId"`
	Username    string        `json:"username,omitempty"`
	MemberCount int           `json:"memberCount"`
	MessageID   string        `json:"messageId,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

// EventPublisher delivers room events to an external broker. Implementations
// must not block the caller on network I/O.
type EventPublisher interface {
	Publish(ctx context.Context, event RoomEvent) error
}

func NewRoomEvent(eventType RoomEventType, roomID string, memberCount int) RoomEvent {
	return RoomEvent{
		Type:        eventType,
		RoomID:      roomID,
		MemberCount: memberCount,
		OccurredAt:  time.Now().UTC(),
	}
}
