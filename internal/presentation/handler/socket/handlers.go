package socket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/ws"
	"github.com/hilthontt/huddle/internal/presentation/utils"
)

type Handler struct {
	core     *ws.Core
	upgrader websocket.Upgrader
	logger   logging.Logger
}

func NewHandler(core *ws.Core, allowedOrigins []string, logger logging.Logger) *Handler {
	return &Handler{
		core: core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return utils.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and hands the socket to the core for its
// whole lifetime.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn(logging.Socket, logging.Connect, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	h.core.Serve(conn)
}
