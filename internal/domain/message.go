package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTextLength bounds message text, in UTF-16 code units.
const MaxTextLength = 5000

var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = errors.New("message text is too long")
)

// Message is an immutable transcript entry.
type Message struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// IncomingMessage is a message as submitted by a client. ID and Timestamp are
// optional.
type IncomingMessage struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// NewMessage validates and sanitizes raw into the message that gets stored and
// broadcast. Text that is blank or longer than MaxTextLength is rejected; the
// stored text is otherwise kept verbatim.
func NewMessage(raw IncomingMessage, now time.Time) (Message, error) {
	if strings.TrimSpace(raw.Text) == "" {
		return Message{}, ErrEmptyMessage
	}
	if TextLength(raw.Text) > MaxTextLength {
		return Message{}, ErrMessageTooLong
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	timestamp := raw.Timestamp
	if timestamp == 0 {
		timestamp = now.UnixMilli()
	}

	return Message{
		ID:        id,
		Username:  raw.Username,
		Text:      TruncateText(raw.Text, MaxTextLength),
		Timestamp: timestamp,
	}, nil
}
