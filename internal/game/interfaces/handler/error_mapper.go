package handler

import (
	"context"
	"errors"

	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/transport"
	"SiamKingdoms/internal/shared/transport/ws"
	"SiamKingdoms/modules/kit/errx"
)

// mapServiceError 把应用层错误翻成对外业务码。
// 业务类错误把 msg 透给客户端，系统类错误一律兜底文案。
func mapServiceError(ctx context.Context, err error) (int, string) {
	var e *errx.Error
	if !errors.As(err, &e) {
		return transport.SystemError, "系统繁忙，请稍后重试"
	}
	transport.SetErrorReason(ctx, e.CodeText())

	switch e.Code() {
	case service.CodeVillageNotFound, service.CodeReportNotFound, service.CodeArmyNotFound:
		return transport.NotFound, e.Msg()
	case service.CodeNotOwner:
		return transport.Unauthorized, e.Msg()
	case service.CodeInsufficientResources, service.CodeInsufficientTroops,
		service.CodeEmptyForce, service.CodeBadTarget, service.CodeInvalidRequest:
		return transport.InvalidParam, e.Msg()
	default:
		return transport.SystemError, "系统繁忙，请稍后重试"
	}
}

func (h *WsHandler) error(ctx context.Context, resp *ws.WsMsgResp, err error) {
	code, msg := mapServiceError(ctx, err)
	h.fail(resp, code, msg)
}
