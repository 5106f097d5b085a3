package handler

import (
	"context"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

type villageReq struct {
	VillageID domain.VillageID `json:"village_id"`
}

func (h *WsHandler) QueryVillage(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if _, ok := h.requirePlayer(wsReq, wsResp); !ok {
		return
	}
	var req villageReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.VillageID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	view, err := h.game.villages.GetVillage(ctx, req.VillageID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, view)
}

func (h *WsHandler) ListBuildings(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if _, ok := h.requirePlayer(wsReq, wsResp); !ok {
		return
	}
	var req villageReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.VillageID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	views, err := h.game.villages.ListBuildings(ctx, req.VillageID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, views)
}

// ListGarrison 驻军明细只对村主开放：在村/在途构成是军事机密。
func (h *WsHandler) ListGarrison(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req villageReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.VillageID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	view, err := h.game.villages.GetVillage(ctx, req.VillageID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	if view.PlayerID != pid {
		h.fail(wsResp, transport.Unauthorized, "无权查看该村庄驻军")
		return
	}

	garrison, err := h.game.villages.ListGarrison(ctx, req.VillageID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, garrison)
}
