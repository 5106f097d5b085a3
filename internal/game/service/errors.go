package service

import "SiamKingdoms/modules/kit/errx"

// Code 表示应用层错误码（贴近业务语义/对外协议）。
type Code = errx.Code

const (
	CodeVillageNotFound       Code = "GAME_VILLAGE_NOT_FOUND"
	CodeReportNotFound        Code = "GAME_REPORT_NOT_FOUND"
	CodeNotOwner              Code = "GAME_NOT_OWNER"
	CodeInsufficientResources Code = "GAME_INSUFFICIENT_RESOURCES"
	CodeInsufficientTroops    Code = "GAME_INSUFFICIENT_TROOPS"
	CodeEmptyForce            Code = "GAME_EMPTY_FORCE"
	CodeBadTarget             Code = "GAME_BAD_TARGET"
	CodeArmyNotFound          Code = "GAME_ARMY_NOT_FOUND"
	CodeInvalidRequest        Code = errx.CodeReqParamError
	CodeInternalServer        Code = errx.CodeInternal
	CodeUnavailable           Code = errx.CodeUnavailable
)

// Error 复用通用错误模型：对外语义(code/msg)、上下文(data)、溯源链(cause)、系统错误一次栈(stack)。
type Error = errx.Error

// 常用错误定义（哨兵错误）：禁止直接修改其 data/cause（通过 WithData/WithCause 派生新对象）。
var (
	ErrVillageNotFound       = errx.NewBiz(CodeVillageNotFound, "村庄不存在")
	ErrReportNotFound        = errx.NewBiz(CodeReportNotFound, "战报不存在")
	ErrNotOwner              = errx.NewBiz(CodeNotOwner, "无权操作该村庄")
	ErrInsufficientResources = errx.NewBiz(CodeInsufficientResources, "资源不足")
	ErrInsufficientTroops    = errx.NewBiz(CodeInsufficientTroops, "兵力不足")
	ErrEmptyForce            = errx.NewBiz(CodeEmptyForce, "不能派出空部队")
	ErrBadTarget             = errx.NewBiz(CodeBadTarget, "目标无效")
	ErrArmyNotFound          = errx.NewBiz(CodeArmyNotFound, "军队不存在")
	ErrInvalidRequest        = errx.ErrReqParamERR
	ErrInternalServer        = errx.ErrInternal
	ErrUnavailable           = errx.ErrUnavailable
)
