package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/hilthontt/huddle/internal/domain"
)

// roomRepository keeps rooms and the client-to-room index in memory.
//
// mu guards rooms, clientIndex and every membership change, so a connection is
// in clientIndex iff it is a member of exactly that room. Room internals are
// guarded by the room's own lock, always taken after mu.
type roomRepository struct {
	rooms       map[string]*domain.Room // ID -> Room
	clientIndex map[string]string       // connection ID -> room ID
	mu          *sync.RWMutex
}

func NewRoomRepository() domain.RoomRepository {
	return &roomRepository{
		rooms:       make(map[string]*domain.Room),
		clientIndex: make(map[string]string),
		mu:          &sync.RWMutex{},
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room, connectionID, username string) (domain.JoinOutcome, error) {
	if room == nil || room.ID == "" || connectionID == "" {
		return domain.JoinOutcome{}, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return domain.JoinOutcome{}, domain.ErrRoomAlreadyExists
	}

	previous, err := r.detachLocked(connectionID)
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	r.rooms[room.ID] = room
	room.SetMember(connectionID, username)
	r.clientIndex[connectionID] = room.ID

	outcome := room.JoinOutcome()
	outcome.Previous = previous
	return outcome, nil
}

func (r *roomRepository) Exists(ctx context.Context, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.rooms[id]
	return exists
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) (*domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(id)
}

func (r *roomRepository) DeleteIfEmpty(ctx context.Context, id string) (*domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists || room.MemberCount() > 0 {
		return nil, false
	}
	return r.deleteLocked(id)
}

func (r *roomRepository) deleteLocked(id string) (*domain.Room, bool) {
	room, exists := r.rooms[id]
	if !exists {
		return nil, false
	}

	for connectionID, roomID := range r.clientIndex {
		if roomID == id {
			delete(r.clientIndex, connectionID)
		}
	}
	delete(r.rooms, id)

	return room, true
}

func (r *roomRepository) AddMember(ctx context.Context, room *domain.Room, connectionID, username string) (domain.JoinOutcome, error) {
	if room == nil || connectionID == "" {
		return domain.JoinOutcome{}, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the room may have been deleted, or replaced by a new room with the same
	// ID, while the caller was verifying the password
	if stored, exists := r.rooms[room.ID]; !exists || stored != room {
		return domain.JoinOutcome{}, domain.ErrRoomNotFound
	}

	var previous *domain.Departure
	if current, bound := r.clientIndex[connectionID]; !bound || current != room.ID {
		var err error
		if previous, err = r.detachLocked(connectionID); err != nil {
			return domain.JoinOutcome{}, err
		}
	}

	room.SetMember(connectionID, username)
	r.clientIndex[connectionID] = room.ID

	outcome := room.JoinOutcome()
	outcome.Previous = previous
	return outcome, nil
}

// detachLocked removes the connection from the room it is currently bound to.
func (r *roomRepository) detachLocked(connectionID string) (*domain.Departure, error) {
	roomID, bound := r.clientIndex[connectionID]
	if !bound {
		return nil, nil
	}

	room, exists := r.rooms[roomID]
	if !exists {
		delete(r.clientIndex, connectionID)
		return nil, fmt.Errorf("%w: connection %s indexed to missing room %s", domain.ErrInconsistentState, connectionID, roomID)
	}

	username, removed := room.RemoveMember(connectionID)
	delete(r.clientIndex, connectionID)
	if !removed {
		return nil, fmt.Errorf("%w: connection %s indexed to room %s without membership", domain.ErrInconsistentState, connectionID, roomID)
	}

	return &domain.Departure{
		RoomID:      roomID,
		Username:    username,
		MemberCount: room.MemberCount(),
	}, nil
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID, connectionID string) (domain.Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return domain.Departure{}, false
	}

	username, removed := room.RemoveMember(connectionID)
	if !removed {
		return domain.Departure{}, false
	}
	if r.clientIndex[connectionID] == roomID {
		delete(r.clientIndex, connectionID)
	}

	return domain.Departure{
		RoomID:      roomID,
		Username:    username,
		MemberCount: room.MemberCount(),
	}, true
}

func (r *roomRepository) RemoveConnection(ctx context.Context, connectionID string) (domain.Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	departure, err := r.detachLocked(connectionID)
	if err != nil || departure == nil {
		return domain.Departure{}, false
	}
	return *departure, true
}

func (r *roomRepository) FindByMember(ctx context.Context, connectionID string) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, bound := r.clientIndex[connectionID]
	if !bound {
		return domain.Member{}, false
	}
	room, exists := r.rooms[roomID]
	if !exists {
		return domain.Member{}, false
	}
	username, ok := room.Username(connectionID)
	if !ok {
		return domain.Member{}, false
	}

	return domain.Member{
		ConnectionID: connectionID,
		RoomID:       roomID,
		Username:     username,
	}, true
}

func (r *roomRepository) AppendMessage(ctx context.Context, connectionID string, msg domain.Message) (string, error) {
	// The read lock keeps the binding stable while the room lock orders the
	// append against other sends to the same room.
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, bound := r.clientIndex[connectionID]
	if !bound {
		return "", domain.ErrNotInRoom
	}
	room, exists := r.rooms[roomID]
	if !exists {
		return "", fmt.Errorf("%w: connection %s indexed to missing room %s", domain.ErrInconsistentState, connectionID, roomID)
	}

	room.AppendMessage(msg)
	return roomID, nil
}

func (r *roomRepository) Count(ctx context.Context) (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.clientIndex)
}
