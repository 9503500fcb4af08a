package handler

import (
	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	internalWS "lecture-rag-be/internal/websocket"
	"lecture-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveHandler streams lecture events of one session over a websocket.
type LiveHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewLiveHandler(hub *internalWS.Hub, log logger.ILogger) *LiveHandler {
	return &LiveHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *LiveHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/lecture/v1/live/:session_key", h.ServeWs)
}

func (h *LiveHandler) ServeWs(c *fiber.Ctx) error {
	key, err := entity.ParseSessionKey(c.Params("session_key"))
	if err != nil {
		return apperror.Validation("handler.ServeWs", err.Error())
	}
	sessionKey := key.String()

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("LiveHandler", "Starting live feed", map[string]interface{}{"session_key": sessionKey})
		internalWS.ServeWs(h.hub, conn, sessionKey)
		h.logger.Info("LiveHandler", "Live feed ended", map[string]interface{}{"session_key": sessionKey})
	})(c)
}
