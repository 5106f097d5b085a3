package handler

import (
	"context"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

type subscribeReq struct {
	Kind       string           `json:"kind"` // village / region / alliance
	VillageID  domain.VillageID `json:"village_id,omitempty"`
	X          int              `json:"x,omitempty"`
	Y          int              `json:"y,omitempty"`
	AllianceID int64            `json:"alliance_id,omitempty"`
}

type subscribeResp struct {
	Channel string `json:"channel"`
}

// resolveChannel 把订阅请求翻成频道名。
// 村庄频道携带预警与资源推送，只许村主订阅；区域/联盟频道开放。
func (h *WsHandler) resolveChannel(ctx context.Context, pid domain.PlayerID, req subscribeReq) (string, int, string) {
	switch req.Kind {
	case "village":
		if req.VillageID == 0 {
			return "", transport.InvalidParam, "参数有误"
		}
		view, err := h.game.villages.GetVillage(ctx, req.VillageID)
		if err != nil {
			code, msg := mapServiceError(ctx, err)
			return "", code, msg
		}
		if view.PlayerID != pid {
			return "", transport.Unauthorized, "无权订阅该村庄频道"
		}
		return hub.VillageChannel(req.VillageID), transport.OK, ""
	case "region":
		return hub.RegionChannel(req.X, req.Y), transport.OK, ""
	case "alliance":
		if req.AllianceID == 0 {
			return "", transport.InvalidParam, "参数有误"
		}
		return hub.AllianceChannel(req.AllianceID), transport.OK, ""
	default:
		return "", transport.InvalidParam, "未知频道类型"
	}
}

func (h *WsHandler) Subscribe(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req subscribeReq
	if err := ws.BindJSON(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	channel, code, msg := h.resolveChannel(ctx, pid, req)
	if code != transport.OK {
		h.fail(wsResp, code, msg)
		return
	}

	h.game.notifyHub.Subscribe(channel, wsReq.Conn)
	h.ok(wsResp, subscribeResp{Channel: channel})
}

func (h *WsHandler) Unsubscribe(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req subscribeReq
	if err := ws.BindJSON(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	channel, code, msg := h.resolveChannel(ctx, pid, req)
	if code != transport.OK {
		h.fail(wsResp, code, msg)
		return
	}

	h.game.notifyHub.Unsubscribe(channel, wsReq.Conn)
	h.ok(wsResp, subscribeResp{Channel: channel})
}
