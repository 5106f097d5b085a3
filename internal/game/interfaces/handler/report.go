package handler

import (
	"context"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
)

type listReportsReq struct {
	Limit int `json:"limit"`
}

type reportIDReq struct {
	ReportID domain.ReportID `json:"report_id"`
}

func (h *WsHandler) ListReports(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req listReportsReq
	if err := ws.BindJSON(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	reports, err := h.game.reports.ListBattleReports(ctx, pid, req.Limit)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, reports)
}

func (h *WsHandler) GetReport(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req reportIDReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.ReportID == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	report, err := h.game.reports.GetBattleReport(ctx, pid, req.ReportID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, report)
}

type unreadReportsResp struct {
	Unread int64 `json:"unread"`
}

func (h *WsHandler) UnreadReports(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	n, err := h.game.reports.UnreadBattleReports(ctx, pid)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, unreadReportsResp{Unread: n})
}

func (h *WsHandler) MarkReportRead(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	pid, ok := h.requirePlayer(wsReq, wsResp)
	if !ok {
		return
	}
	var req reportIDReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.ReportID == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}

	if err := h.game.reports.MarkBattleReportRead(ctx, pid, req.ReportID); err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, nil)
}
