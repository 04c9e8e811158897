package ws

import (
	"encoding/json"

	"github.com/hilthontt/huddle/internal/domain"
)

type WSMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data"`
}

// InboundMessage is a client frame; Data is decoded once Type is known.
type InboundMessage struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// Payload structs
type JoinPayload struct {
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	IsCreator bool   `json:"isCreator"`
}

type LeavePayload struct {
	RoomID string `json:"roomId"`
}

type TypingPayload struct {
	Username string `json:"username,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type RoomJoinedPayload struct {
	Room        domain.RoomData  `json:"room"`
	Messages    []domain.Message `json:"messages"`
	MemberCount int              `json:"memberCount"`
}

type MemberPayload struct {
	Username    string `json:"username"`
	MemberCount int    `json:"memberCount"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewRoomJoined(room domain.RoomData, messages []domain.Message, memberCount int) *WSMessage {
	if messages == nil {
		messages = []domain.Message{}
	}
	return &WSMessage{
		Type:   RoomJoined,
		RoomID: room.ID,
		Data: RoomJoinedPayload{
			Room:        room,
			Messages:    messages,
			MemberCount: memberCount,
		},
	}
}

func NewRoomLeft(roomID string) *WSMessage {
	return &WSMessage{
		Type:   RoomLeft,
		RoomID: roomID,
		Data:   LeavePayload{RoomID: roomID},
	}
}

func NewMessageReceived(roomID string, msg domain.Message) *WSMessage {
	return &WSMessage{
		Type:   MessageReceived,
		RoomID: roomID,
		Data:   msg,
	}
}

func NewMemberJoined(roomID, username string, memberCount int) *WSMessage {
	return &WSMessage{
		Type:   MemberJoined,
		RoomID: roomID,
		Data: MemberPayload{
			Username:    username,
			MemberCount: memberCount,
		},
	}
}

func NewMemberLeft(departure domain.Departure) *WSMessage {
	return &WSMessage{
		Type:   MemberLeft,
		RoomID: departure.RoomID,
		Data: MemberPayload{
			Username:    departure.Username,
			MemberCount: departure.MemberCount,
		},
	}
}

func NewMemberTyping(roomID, username string, isTyping bool) *WSMessage {
	return &WSMessage{
		Type:   MemberTyping,
		RoomID: roomID,
		Data: TypingPayload{
			Username: username,
			IsTyping: isTyping,
		},
	}
}

func NewError(roomID, message string) *WSMessage {
	return &WSMessage{
		Type:   ErrorEvent,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "BAD_REQUEST",
			Message: message,
			Retry:   false,
		},
	}
}

func NewJoinFailed(roomID string, reason domain.FailureReason, message string) *WSMessage {
	return &WSMessage{
		Type:   JoinFailed,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    string(reason),
			Message: message,
			Retry:   true,
		},
	}
}
