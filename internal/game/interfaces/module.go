package interfaces

import (
	"SiamKingdoms/internal/game/interfaces/handler"
	"SiamKingdoms/internal/shared/transport/ws"

	"github.com/gin-gonic/gin"
)

type Module struct {
	wsHandler   *handler.WsHandler
	httpHandler *handler.HttpHandler
}

func New(game *handler.Game) *Module {
	return &Module{
		wsHandler:   handler.NewWsHandler(game),
		httpHandler: handler.NewHttpHandler(game),
	}
}

func (m *Module) RegisterWs(r *ws.Router) {
	m.wsHandler.RegisterRoutes(r)
}

func (m *Module) RegisterHTTP(group *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(group)
}
