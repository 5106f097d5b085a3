package handler

import (
	"context"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/security"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

type loginReq struct {
	Token string `json:"token"`
}

type loginResp struct {
	UID int64 `json:"uid"`
}

// Login 校验 JWT 并把连接绑定到玩家。同一玩家的新连接会顶掉旧连接。
func (h *WsHandler) Login(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req loginReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.Token == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	claims, err := security.ParseToken(req.Token)
	if err != nil {
		h.fail(wsResp, transport.Unauthorized, "登录凭证无效")
		return
	}

	wsReq.Conn.SetProperty(ws.ConnKeyUID, claims.Uid)
	h.game.session.Bind(claims.Uid, req.Token, wsReq.Conn)
	h.ok(wsResp, loginResp{UID: claims.Uid})
}

// playerID 取连接上已登录的玩家；未登录返回 false。
func (h *WsHandler) playerID(wsReq *ws.WsMsgReq) (domain.PlayerID, bool) {
	if wsReq == nil || wsReq.Conn == nil {
		return 0, false
	}
	uid, ok := wsReq.Conn.GetProperty(ws.ConnKeyUID).(int64)
	if !ok || uid == 0 {
		return 0, false
	}
	return domain.PlayerID(uid), true
}

// requirePlayer 公共前置：绝大多数路由都要求已登录。
func (h *WsHandler) requirePlayer(wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) (domain.PlayerID, bool) {
	pid, ok := h.playerID(wsReq)
	if !ok {
		h.fail(wsResp, transport.Unauthorized, "请先登录")
	}
	return pid, ok
}
