package coordinator

import (
	"context"
	"time"

	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
	"github.com/hilthontt/huddle/internal/infrastructure/scheduler"
	"github.com/hilthontt/huddle/internal/infrastructure/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "huddle/coordinator"
	DefaultCleanupDelay = time.Hour
)

type Options struct {
	BcryptCost   int
	CleanupDelay time.Duration
}

type JoinRequest struct {
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	IsCreator bool   `json:"isCreator"`
}

type JoinResult struct {
	Success     bool
	Reason      domain.FailureReason
	Message     string
	RoomData    *domain.RoomData
	Messages    []domain.Message
	MemberCount int
	// Previous is set when joining moved the connection out of another room.
	Previous *domain.Departure
}

type SendResult struct {
	Success bool
	Message *domain.Message
	RoomID  string
}

// Coordinator is the entry point the transport drives. It binds connections to
// rooms, runs the message pipeline and owns deferred room cleanup. All methods
// are safe for concurrent use.
type Coordinator struct {
	repo      domain.RoomRepository
	verifier  domain.CredentialVerifier
	scheduler *scheduler.Scheduler
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    logging.Logger
	tracer    trace.Tracer
	opts      Options
	now       func() time.Time
}

func New(
	repo domain.RoomRepository,
	verifier domain.CredentialVerifier,
	sched *scheduler.Scheduler,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger logging.Logger,
	opts Options,
) *Coordinator {
	if opts.CleanupDelay <= 0 {
		opts.CleanupDelay = DefaultCleanupDelay
	}

	return &Coordinator{
		repo:      repo,
		verifier:  verifier,
		scheduler: sched,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    tracing.GetTracer(tracerName),
		opts:      opts,
		now:       time.Now,
	}
}

func (c *Coordinator) JoinRoom(ctx context.Context, req JoinRequest, connectionID string) JoinResult {
	ctx, span := c.tracer.Start(ctx, "coordinator.JoinRoom", trace.WithAttributes(
		attribute.String("room.id", req.RoomID),
		attribute.Bool("room.creator", req.IsCreator),
	))
	defer span.End()

	outcome, err := c.join(ctx, req, connectionID)
	c.metrics.JoinAttempts.WithLabelValues(metrics.Result(err == nil)).Inc()

	if err != nil {
		reason := domain.ReasonFor(err)
		span.SetStatus(codes.Error, string(reason))

		extra := map[logging.ExtraKey]any{
			logging.RoomID:       req.RoomID,
			logging.ConnectionID: connectionID,
			logging.Reason:       string(reason),
			logging.ErrorMessage: err.Error(),
		}
		if reason == domain.ReasonServerError || reason == domain.ReasonAuthenticationFailed {
			span.RecordError(err)
			c.logger.Error(logging.Room, logging.Join, "join failed", extra)
		} else {
			c.logger.Info(logging.Room, logging.Join, "join rejected", extra)
		}

		return JoinResult{
			Reason:  reason,
			Message: domain.FailureMessage(err),
		}
	}

	c.afterJoin(ctx, req, connectionID, outcome)

	return JoinResult{
		Success:     true,
		RoomData:    &outcome.Room,
		Messages:    outcome.Messages,
		MemberCount: outcome.MemberCount,
		Previous:    outcome.Previous,
	}
}

func (c *Coordinator) SendMessage(ctx context.Context, connectionID string, raw domain.IncomingMessage) SendResult {
	ctx, span := c.tracer.Start(ctx, "coordinator.SendMessage")
	defer span.End()

	msg, roomID, err := c.send(ctx, connectionID, raw)
	c.metrics.Messages.WithLabelValues(metrics.Result(err == nil)).Inc()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug(logging.Room, logging.Send, "message rejected", map[logging.ExtraKey]any{
			logging.ConnectionID: connectionID,
			logging.ErrorMessage: err.Error(),
		})
		return SendResult{}
	}

	span.SetAttributes(attribute.String("room.id", roomID))
	c.publish(ctx, domain.RoomEvent{
		Type:       domain.EventMessageSent,
		RoomID:     roomID,
		Username:   msg.Username,
		MessageID:  msg.ID,
		OccurredAt: c.now().UTC(),
	})

	return SendResult{
		Success: true,
		Message: &msg,
		RoomID:  roomID,
	}
}

func (c *Coordinator) GetRoomInfo(ctx context.Context, roomID string) (domain.RoomData, bool) {
	room, err := c.repo.GetByID(ctx, roomID)
	if err != nil {
		return domain.RoomData{}, false
	}
	return room.Snapshot(), true
}

// Recipients returns the connections currently in the room, in join order.
func (c *Coordinator) Recipients(ctx context.Context, roomID string) []string {
	room, err := c.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil
	}
	return room.ConnectionIDs()
}

// LeaveRoom removes the connection from roomID. An empty roomID leaves
// whichever room the connection is bound to.
func (c *Coordinator) LeaveRoom(ctx context.Context, connectionID, roomID string) (domain.Departure, bool) {
	ctx, span := c.tracer.Start(ctx, "coordinator.LeaveRoom", trace.WithAttributes(
		attribute.String("room.id", roomID),
	))
	defer span.End()

	var (
		departure domain.Departure
		removed   bool
	)
	if roomID == "" {
		departure, removed = c.repo.RemoveConnection(ctx, connectionID)
	} else {
		departure, removed = c.repo.RemoveMember(ctx, roomID, connectionID)
	}
	if !removed {
		return domain.Departure{}, false
	}

	c.afterLeave(ctx, connectionID, departure, logging.Leave)
	return departure, true
}

func (c *Coordinator) Disconnect(ctx context.Context, connectionID string) (domain.Departure, bool) {
	ctx, span := c.tracer.Start(ctx, "coordinator.Disconnect")
	defer span.End()

	departure, removed := c.repo.RemoveConnection(ctx, connectionID)
	if !removed {
		return domain.Departure{}, false
	}

	span.SetAttributes(attribute.String("room.id", departure.RoomID))
	c.afterLeave(ctx, connectionID, departure, logging.Disconnect)
	return departure, true
}

// DeleteRoom removes the room immediately and cancels its pending cleanup.
func (c *Coordinator) DeleteRoom(ctx context.Context, roomID string) {
	c.scheduler.Cancel(roomID)

	if _, deleted := c.repo.Delete(ctx, roomID); deleted {
		c.afterDelete(ctx, roomID, metrics.DeletedExplicit)
	}
}

// Typing resolves the member behind a typing indicator.
func (c *Coordinator) Typing(ctx context.Context, connectionID string) (domain.Member, bool) {
	return c.repo.FindByMember(ctx, connectionID)
}

// Shutdown cancels every pending cleanup task.
func (c *Coordinator) Shutdown() {
	c.scheduler.Stop()
}

func (c *Coordinator) publish(ctx context.Context, event domain.RoomEvent) {
	_ = c.publisher.Publish(ctx, event)
}

func (c *Coordinator) observeRegistry(ctx context.Context) {
	c.metrics.ObserveRegistry(c.repo.Count(ctx))
}
