package handler

import (
	nethttp "net/http"
	"strconv"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/transport"

	"github.com/gin-gonic/gin"
)

type httpResp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, httpResp{Code: transport.OK, Data: data})
}

func (h *HttpHandler) fail(c *gin.Context, code int, msg string) {
	c.JSON(nethttp.StatusOK, httpResp{Code: code, Msg: msg})
}

// SimulateBattle 无状态模拟入口，给站外工具和攻防计算器用。
func (h *HttpHandler) SimulateBattle(c *gin.Context) {
	ctx := c.Request.Context()

	var req service.SimulateBattleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.simulate.SimulateBattle(ctx, req)
	if err != nil {
		code, msg := mapServiceError(ctx, err)
		h.fail(c, code, msg)
		return
	}
	h.ok(c, resp)
}

func (h *HttpHandler) QueryVillage(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}

	view, err := h.game.villages.GetVillage(ctx, domain.VillageID(id))
	if err != nil {
		code, msg := mapServiceError(ctx, err)
		h.fail(c, code, msg)
		return
	}
	h.ok(c, view)
}

func (h *HttpHandler) ListBuildings(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}

	views, err := h.game.villages.ListBuildings(ctx, domain.VillageID(id))
	if err != nil {
		code, msg := mapServiceError(ctx, err)
		h.fail(c, code, msg)
		return
	}
	h.ok(c, views)
}
