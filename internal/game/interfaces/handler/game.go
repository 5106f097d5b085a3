package handler

import (
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/session"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"

	"github.com/gin-gonic/gin"
)

// ============ Types ============

// Game 聚合游戏面的各个应用服务，供 WS 与 HTTP 两套入口复用。
type Game struct {
	villages  *service.VillageService
	commands  *service.CommandService
	simulate  *service.SimulateService
	reports   *service.ReportService
	session   session.Manager
	notifyHub *hub.Hub
}

type WsHandler struct {
	game *Game
}

type HttpHandler struct {
	game *Game
}

// ============ Constructors ============

func NewGame(villages *service.VillageService, commands *service.CommandService,
	simulate *service.SimulateService, reports *service.ReportService,
	s session.Manager, notifyHub *hub.Hub) *Game {
	return &Game{
		villages:  villages,
		commands:  commands,
		simulate:  simulate,
		reports:   reports,
		session:   s,
		notifyHub: notifyHub,
	}
}

func NewWsHandler(g *Game) *WsHandler {
	return &WsHandler{game: g}
}

func NewHttpHandler(g *Game) *HttpHandler {
	return &HttpHandler{game: g}
}

// ============ Route Registration ============

func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	authGroup := r.Group("auth")
	authGroup.Handle("login", h.Login)

	villageGroup := r.Group("village")
	villageGroup.Handle("query", h.QueryVillage)
	villageGroup.Handle("buildings", h.ListBuildings)
	villageGroup.Handle("garrison", h.ListGarrison)

	buildingGroup := r.Group("building")
	buildingGroup.Handle("upgrade", h.UpgradeBuilding)

	troopGroup := r.Group("troop")
	troopGroup.Handle("train", h.TrainTroops)

	armyGroup := r.Group("army")
	armyGroup.Handle("send", h.SendArmy)
	armyGroup.Handle("recall", h.RecallSupport)

	battleGroup := r.Group("battle")
	battleGroup.Handle("simulate", h.SimulateBattle)

	reportGroup := r.Group("report")
	reportGroup.Handle("list", h.ListReports)
	reportGroup.Handle("get", h.GetReport)
	reportGroup.Handle("read", h.MarkReportRead)
	reportGroup.Handle("unread", h.UnreadReports)

	notifyGroup := r.Group("notify")
	notifyGroup.Handle("subscribe", h.Subscribe)
	notifyGroup.Handle("unsubscribe", h.Unsubscribe)
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	battleGroup := group.Group("/battle")
	battleGroup.POST("/simulate", h.SimulateBattle)

	villageGroup := group.Group("/village")
	villageGroup.GET("/:id", h.QueryVillage)
	villageGroup.GET("/:id/buildings", h.ListBuildings)
}

// ============ Response Helpers ============

func (h *WsHandler) ok(resp *ws.WsMsgResp, data any) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = transport.OK
	resp.Body.Msg = data
}

func (h *WsHandler) fail(resp *ws.WsMsgResp, code int, msg string) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = code
	if msg != "" {
		resp.Body.Msg = msg
	}
}
