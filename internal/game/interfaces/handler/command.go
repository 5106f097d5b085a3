package handler

import (
	"context"

	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

func (h *WsHandler) UpgradeBuilding(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req service.UpgradeBuildingReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.VillageID == 0 || req.BuildingID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.commands.UpgradeBuilding(ctx, pid, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, resp)
}

func (h *WsHandler) TrainTroops(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req service.TrainTroopsReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.VillageID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.commands.TrainTroops(ctx, pid, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, resp)
}

func (h *WsHandler) SendArmy(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req service.SendArmyReq
	// 兵种与任务枚举在反序列化时就会拦下未知值
	if err := ws.BindJSON(wsReq, &req); err != nil || req.FromVillageID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.commands.SendArmy(ctx, pid, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, resp)
}

func (h *WsHandler) RecallSupport(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req service.RecallSupportReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.ArmyID == 0 {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.commands.RecallSupport(ctx, pid, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, resp)
}
