package domain

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

const roomNameLength = 4

// Room is a password protected namespace holding members and their transcript.
// ID, Name, PasswordDigest and CreatedAt never change after NewRoom.
type Room struct {
	ID             string
	Name           string
	PasswordDigest string
	CreatedAt      time.Time

	members  map[string]string // connection ID -> display name
	order    []string          // connection IDs in join order
	messages []Message
	mu       sync.RWMutex
}

// RoomData is the public snapshot of a room.
type RoomData struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// JoinOutcome is captured atomically with a successful join.
type JoinOutcome struct {
	Room        RoomData
	Messages    []Message
	MemberCount int
	// Previous is set when the connection was moved out of another room.
	Previous *Departure
}

type RoomRepository interface {
	// Create registers room with the creating connection as its first member.
	Create(ctx context.Context, room *Room, connectionID, username string) (JoinOutcome, error)
	Exists(ctx context.Context, id string) bool
	GetByID(ctx context.Context, id string) (*Room, error)
	// Delete removes the room and every index entry pointing at it. Idempotent.
	Delete(ctx context.Context, id string) (*Room, bool)
	// DeleteIfEmpty deletes the room only if it still has no members.
	DeleteIfEmpty(ctx context.Context, id string) (*Room, bool)
	// AddMember binds the connection to room, which must still be the
	// registered instance for its ID.
	AddMember(ctx context.Context, room *Room, connectionID, username string) (JoinOutcome, error)
	RemoveMember(ctx context.Context, roomID, connectionID string) (Departure, bool)
	RemoveConnection(ctx context.Context, connectionID string) (Departure, bool)
	FindByMember(ctx context.Context, connectionID string) (Member, bool)
	// AppendMessage stores msg in the room the connection is bound to and
	// returns that room's ID.
	AppendMessage(ctx context.Context, connectionID string, msg Message) (string, error)
	Count(ctx context.Context) (rooms int, members int)
}

func NewRoom(id, passwordDigest string, now time.Time) (*Room, error) {
	if id == "" || passwordDigest == "" {
		return nil, ErrInvalidInput
	}

	return &Room{
		ID:             id,
		Name:           RoomName(id),
		PasswordDigest: passwordDigest,
		CreatedAt:      now,
		members:        make(map[string]string),
		order:          make([]string, 0, 8),
		messages:       make([]Message, 0, 64),
	}, nil
}

// RoomName derives the display label of a room from the first four UTF-16
// code units of its ID.
func RoomName(id string) string {
	return "Room " + TruncateText(id, roomNameLength)
}

// SetMember adds the connection or, if already present, replaces its display
// name. It reports whether the connection was new to the room.
func (r *Room) SetMember(connectionID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.members[connectionID]
	r.members[connectionID] = username
	if !exists {
		r.order = append(r.order, connectionID)
	}
	return !exists
}

func (r *Room) RemoveMember(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, exists := r.members[connectionID]
	if !exists {
		return "", false
	}

	delete(r.members, connectionID)
	r.order = lo.Without(r.order, connectionID)
	return username, true
}

func (r *Room) Username(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.members[connectionID]
	return username, ok
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// ConnectionIDs returns the member connections in join order.
func (r *Room) ConnectionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// MemberNames returns the member display names in join order.
func (r *Room) MemberNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberNamesLocked()
}

func (r *Room) memberNamesLocked() []string {
	return lo.Map(r.order, func(connectionID string, _ int) string {
		return r.members[connectionID]
	})
}

func (r *Room) AppendMessage(msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

// Messages returns a copy of the transcript.
func (r *Room) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cpy := make([]Message, len(r.messages))
	copy(cpy, r.messages)
	return cpy
}

func (r *Room) Snapshot() RoomData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RoomData{
		ID:        r.ID,
		Name:      r.Name,
		Members:   r.memberNamesLocked(),
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

// JoinOutcome snapshots the room as seen by a member that just joined.
func (r *Room) JoinOutcome() JoinOutcome {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]Message, len(r.messages))
	copy(messages, r.messages)

	return JoinOutcome{
		Room: RoomData{
			ID:        r.ID,
			Name:      r.Name,
			Members:   r.memberNamesLocked(),
			CreatedAt: r.CreatedAt.UnixMilli(),
		},
		Messages:    messages,
		MemberCount: len(r.members),
	}
}
