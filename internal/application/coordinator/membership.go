package coordinator

import (
	"context"

	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
	"github.com/hilthontt/huddle/internal/infrastructure/validate"
)

const (
	minUsernameLength = 1
	maxUsernameLength = 50
	minPasswordLength = 4
	maxPasswordLength = 50
)

var (
	requiredField = validate.As(domain.ErrInvalidCredentials, validate.Present())
	usernameRule  = validate.As(domain.ErrInvalidUsername, validate.Field("username", validate.LengthBetween(minUsernameLength, maxUsernameLength)))
	passwordRule  = validate.As(domain.ErrInvalidPassword, validate.Field("password", validate.LengthBetween(minPasswordLength, maxPasswordLength)))
)

func validateJoin(req JoinRequest) error {
	for _, field := range []string{req.RoomID, req.Username, req.Password} {
		if err := requiredField(field); err != nil {
			return err
		}
	}
	if err := usernameRule(req.Username); err != nil {
		return err
	}
	return passwordRule(req.Password)
}

func (c *Coordinator) join(ctx context.Context, req JoinRequest, connectionID string) (domain.JoinOutcome, error) {
	if err := validateJoin(req); err != nil {
		return domain.JoinOutcome{}, err
	}
	if connectionID == "" {
		return domain.JoinOutcome{}, domain.ErrInvalidInput
	}

	if req.IsCreator {
		return c.create(ctx, req, connectionID)
	}
	return c.enter(ctx, req, connectionID)
}

// create hashes outside the registry lock; Create re-checks existence so
// only one of several concurrent creators of an ID wins.
func (c *Coordinator) create(ctx context.Context, req JoinRequest, connectionID string) (domain.JoinOutcome, error) {
	if c.repo.Exists(ctx, req.RoomID) {
		return domain.JoinOutcome{}, domain.ErrRoomAlreadyExists
	}

	digest, err := c.verifier.Hash(req.Password, c.opts.BcryptCost)
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	room, err := domain.NewRoom(req.RoomID, digest, c.now())
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	outcome, err := c.repo.Create(ctx, room, connectionID, req.Username)
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	c.logger.Info(logging.Room, logging.Create, "room created", map[logging.ExtraKey]any{
		logging.RoomID:       room.ID,
		logging.ConnectionID: connectionID,
	})
	c.publish(ctx, domain.NewRoomEvent(domain.EventRoomCreated, room.ID, outcome.MemberCount))

	return outcome, nil
}

// enter verifies the password against the room instance read before the
// comparison; AddMember fails if that instance was replaced meanwhile.
func (c *Coordinator) enter(ctx context.Context, req JoinRequest, connectionID string) (domain.JoinOutcome, error) {
	room, err := c.repo.GetByID(ctx, req.RoomID)
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	ok, err := c.verifier.Verify(req.Password, room.PasswordDigest)
	if err != nil {
		return domain.JoinOutcome{}, err
	}
	if !ok {
		return domain.JoinOutcome{}, domain.ErrIncorrectPassword
	}

	outcome, err := c.repo.AddMember(ctx, room, connectionID, req.Username)
	if err != nil {
		return domain.JoinOutcome{}, err
	}

	// a cleanup that fires before this cancel finds the room occupied
	c.scheduler.Cancel(room.ID)

	return outcome, nil
}

func (c *Coordinator) afterJoin(ctx context.Context, req JoinRequest, connectionID string, outcome domain.JoinOutcome) {
	if prev := outcome.Previous; prev != nil {
		c.afterLeave(ctx, connectionID, *prev, logging.Leave)
	}

	c.logger.Info(logging.Room, logging.Join, "member joined", map[logging.ExtraKey]any{
		logging.RoomID:       outcome.Room.ID,
		logging.ConnectionID: connectionID,
		logging.Username:     req.Username,
		logging.MemberCount:  outcome.MemberCount,
	})

	event := domain.NewRoomEvent(domain.EventMemberJoined, outcome.Room.ID, outcome.MemberCount)
	event.Username = req.Username
	c.publish(ctx, event)
	c.observeRegistry(ctx)
}

func (c *Coordinator) afterLeave(ctx context.Context, connectionID string, departure domain.Departure, sub logging.SubCategory) {
	c.logger.Info(logging.Room, sub, "member left", map[logging.ExtraKey]any{
		logging.RoomID:       departure.RoomID,
		logging.ConnectionID: connectionID,
		logging.Username:     departure.Username,
		logging.MemberCount:  departure.MemberCount,
	})

	event := domain.NewRoomEvent(domain.EventMemberLeft, departure.RoomID, departure.MemberCount)
	event.Username = departure.Username
	c.publish(ctx, event)

	if departure.MemberCount == 0 {
		c.scheduleCleanup(departure.RoomID)
	}
	c.observeRegistry(ctx)
}

// scheduleCleanup replaces any pending cleanup for the room.
func (c *Coordinator) scheduleCleanup(roomID string) {
	c.scheduler.Schedule(roomID, c.opts.CleanupDelay, func() {
		c.cleanup(roomID)
	})

	c.logger.Debug(logging.Room, logging.Cleanup, "room cleanup scheduled", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		"Delay":        c.opts.CleanupDelay.String(),
	})
}

func (c *Coordinator) cleanup(roomID string) {
	ctx := context.Background()

	if _, deleted := c.repo.DeleteIfEmpty(ctx, roomID); !deleted {
		return
	}
	c.afterDelete(ctx, roomID, metrics.DeletedEmpty)
}

func (c *Coordinator) afterDelete(ctx context.Context, roomID, reason string) {
	c.metrics.RoomsDeleted.WithLabelValues(reason).Inc()
	c.logger.Info(logging.Room, logging.Cleanup, "room deleted", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		logging.Reason: reason,
	})

	event := domain.NewRoomEvent(domain.EventRoomDeleted, roomID, 0)
	event.Reason = reason
	c.publish(ctx, event)
	c.observeRegistry(ctx)
}
