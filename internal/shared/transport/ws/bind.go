package ws

import (
	"encoding/json"
	"errors"
)

var errEmptyBody = errors.New("ws request body is empty")

// BindJSON 把 WsMsgReq.Body.Msg 重编码后反序列化到 dst。
// 必须走 JSON 往返：兵种、任务类型这类封闭枚举靠 UnmarshalJSON 做
// 非法值拦截，直接 map 拷贝会绕开校验。
func BindJSON(req *WsMsgReq, dst any) error {
	if req == nil || req.Body == nil || req.Body.Msg == nil {
		return errEmptyBody
	}
	raw, err := json.Marshal(req.Body.Msg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
