package coordinator

import (
	"context"

	"github.com/hilthontt/huddle/internal/domain"
)

// send builds the canonical message and appends it to the sender's room. The
// append is the ordering point for the room transcript.
func (c *Coordinator) send(ctx context.Context, connectionID string, raw domain.IncomingMessage) (domain.Message, string, error) {
	msg, err := domain.NewMessage(raw, c.now())
	if err != nil {
		return domain.Message{}, "", err
	}

	roomID, err := c.repo.AppendMessage(ctx, connectionID, msg)
	if err != nil {
		return domain.Message{}, "", err
	}

	return msg, roomID, nil
}
