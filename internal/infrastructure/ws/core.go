package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/huddle/internal/application/coordinator"
	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
)

const defaultWriteWait = 10 * time.Second

type Config struct {
	PingInterval    time.Duration
	PingTimeout     time.Duration
	WriteWait       time.Duration
	SendBuffer      int
	MaxMessageBytes int64
}

func (cfg Config) withDefaults() Config {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 64 * 1024
	}
	return cfg
}

// Coordinator is the room logic the socket layer drives.
type Coordinator interface {
	JoinRoom(ctx context.Context, req coordinator.JoinRequest, connectionID string) coordinator.JoinResult
	SendMessage(ctx context.Context, connectionID string, raw domain.IncomingMessage) coordinator.SendResult
	LeaveRoom(ctx context.Context, connectionID, roomID string) (domain.Departure, bool)
	Disconnect(ctx context.Context, connectionID string) (domain.Departure, bool)
	Typing(ctx context.Context, connectionID string) (domain.Member, bool)
	Recipients(ctx context.Context, roomID string) []string
}

// Core maps socket frames onto coordinator calls and the results back onto
// frames for the requester and the rest of the room.
type Core struct {
	coordinator Coordinator
	roomMgr     *RoomManager
	cfg         Config
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewCore(coord Coordinator, cfg Config, logger logging.Logger, m *metrics.Metrics) *Core {
	return &Core{
		coordinator: coord,
		roomMgr:     NewRoomManager(logger),
		cfg:         cfg.withDefaults(),
		logger:      logger,
		metrics:     m,
	}
}

// Serve owns conn until it closes. The connection is disconnected from its
// room on return.
func (c *Core) Serve(conn *websocket.Conn) {
	cl := NewClient(conn, uuid.NewString(), c.cfg)
	c.roomMgr.AddClient(cl)
	c.metrics.WSConnections.Inc()

	c.logger.Info(logging.Socket, logging.Connect, "client connected", map[logging.ExtraKey]any{
		logging.ConnectionID: cl.ID,
	})

	go cl.WriteMessage(c)
	cl.ReadMessage(c)

	c.disconnect(cl)
}

func (c *Core) disconnect(cl *Client) {
	ctx := context.Background()

	if departure, ok := c.coordinator.Disconnect(ctx, cl.ID); ok {
		c.announceDeparture(ctx, departure)
	}

	if c.roomMgr.RemoveClient(cl) {
		c.metrics.WSConnections.Dec()
	}

	c.logger.Info(logging.Socket, logging.Disconnect, "client disconnected", map[logging.ExtraKey]any{
		logging.ConnectionID: cl.ID,
	})
}

// Close disconnects every client.
func (c *Core) Close() {
	c.roomMgr.CloseAll()
}

func (c *Core) handle(cl *Client, frame InboundMessage) {
	ctx := context.Background()

	switch frame.Type {
	case RoomJoin:
		var payload JoinPayload
		if !c.decode(cl, frame, &payload) {
			return
		}
		c.handleJoin(ctx, cl, payload)

	case MessageSend:
		var payload domain.IncomingMessage
		if !c.decode(cl, frame, &payload) {
			return
		}
		c.handleSend(ctx, cl, payload)

	case RoomLeave:
		var payload LeavePayload
		if len(frame.Data) > 0 && !c.decode(cl, frame, &payload) {
			return
		}
		if payload.RoomID == "" {
			payload.RoomID = frame.RoomID
		}
		c.handleLeave(ctx, cl, payload.RoomID)

	case MemberTyping:
		var payload TypingPayload
		if !c.decode(cl, frame, &payload) {
			return
		}
		c.handleTyping(ctx, cl, payload)

	default:
		c.reply(cl, NewError(frame.RoomID, "unknown event type: "+frame.Type))
	}
}

func (c *Core) handleJoin(ctx context.Context, cl *Client, payload JoinPayload) {
	result := c.coordinator.JoinRoom(ctx, coordinator.JoinRequest{
		RoomID:    payload.RoomID,
		Username:  payload.Username,
		Password:  payload.Password,
		IsCreator: payload.IsCreator,
	}, cl.ID)

	if !result.Success {
		c.reply(cl, NewJoinFailed(payload.RoomID, result.Reason, result.Message))
		return
	}

	if result.Previous != nil {
		c.announceDeparture(ctx, *result.Previous)
	}

	room := *result.RoomData
	c.reply(cl, NewRoomJoined(room, result.Messages, result.MemberCount))
	c.roomMgr.Deliver(
		c.coordinator.Recipients(ctx, room.ID),
		cl.ID,
		NewMemberJoined(room.ID, payload.Username, result.MemberCount),
	)
}

func (c *Core) handleSend(ctx context.Context, cl *Client, payload domain.IncomingMessage) {
	result := c.coordinator.SendMessage(ctx, cl.ID, payload)
	if !result.Success {
		return
	}

	c.roomMgr.Deliver(
		c.coordinator.Recipients(ctx, result.RoomID),
		"",
		NewMessageReceived(result.RoomID, *result.Message),
	)
}

func (c *Core) handleLeave(ctx context.Context, cl *Client, roomID string) {
	departure, ok := c.coordinator.LeaveRoom(ctx, cl.ID, roomID)
	if !ok {
		return
	}

	c.reply(cl, NewRoomLeft(departure.RoomID))
	c.announceDeparture(ctx, departure)
}

func (c *Core) handleTyping(ctx context.Context, cl *Client, payload TypingPayload) {
	member, ok := c.coordinator.Typing(ctx, cl.ID)
	if !ok {
		return
	}

	c.roomMgr.Deliver(
		c.coordinator.Recipients(ctx, member.RoomID),
		cl.ID,
		NewMemberTyping(member.RoomID, member.Username, payload.IsTyping),
	)
}

func (c *Core) announceDeparture(ctx context.Context, departure domain.Departure) {
	if departure.MemberCount == 0 {
		return
	}
	c.roomMgr.Deliver(c.coordinator.Recipients(ctx, departure.RoomID), "", NewMemberLeft(departure))
}

func (c *Core) reply(cl *Client, msg *WSMessage) {
	c.roomMgr.Deliver([]string{cl.ID}, "", msg)
}

func (c *Core) decode(cl *Client, frame InboundMessage, v any) bool {
	if err := json.Unmarshal(frame.Data, v); err != nil {
		c.logger.Debug(logging.Socket, logging.Decode, "invalid payload", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.EventType:    frame.Type,
			logging.ErrorMessage: err.Error(),
		})
		c.reply(cl, NewError(frame.RoomID, "invalid "+frame.Type+" payload"))
		return false
	}
	return true
}
