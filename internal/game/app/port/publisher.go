package port

import "SiamKingdoms/internal/game/domain"

// Publisher 事件出口。实现必须对发布方非阻塞：
// 慢客户端绝不允许拖住 tick。
type Publisher interface {
	Publish(channel string, ev domain.Event)
}
