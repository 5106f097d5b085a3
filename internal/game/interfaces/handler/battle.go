package handler

import (
	"context"

	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

// SimulateBattle 战斗模拟是纯预览，不要求村庄归属，只要求登录。
func (h *WsHandler) SimulateBattle(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if _, ok := h.requirePlayer(wsReq, wsResp); !ok {
		return
	}
	var req service.SimulateBattleReq
	if err := ws.BindJSON(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	resp, err := h.game.simulate.SimulateBattle(ctx, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, resp)
}
