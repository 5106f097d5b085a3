package hub

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/transport/ws"
	"SiamKingdoms/modules/kit/logx"
)

// 客户端订阅的推送通道。
const regionSize = 10

func VillageChannel(id domain.VillageID) string {
	return fmt.Sprintf("village:%d", id)
}

func AllianceChannel(id int64) string {
	return fmt.Sprintf("alliance:%d", id)
}

// RegionChannel 地图按 regionSize 格切块。
func RegionChannel(x, y int) string {
	rx := x / regionSize
	ry := y / regionSize
	if x < 0 {
		rx = (x - regionSize + 1) / regionSize
	}
	if y < 0 {
		ry = (y - regionSize + 1) / regionSize
	}
	return fmt.Sprintf("region:%d:%d", rx, ry)
}

// PushEventName 事件推送的 ws 路由名。
const PushEventName = "notify.event"

// Hub 把引擎事件按订阅通道扇出到在线连接。
// 投递是尽力而为：连接自己的发送缓冲满了就丢，发布方从不等待网络 IO。
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[ws.WSConn]struct{}
	byConn  map[ws.WSConn]map[string]struct{}
	watched map[ws.WSConn]struct{}
	log     logx.Logger
}

func New(l logx.Logger) *Hub {
	return &Hub{
		subs:    make(map[string]map[ws.WSConn]struct{}),
		byConn:  make(map[ws.WSConn]map[string]struct{}),
		watched: make(map[ws.WSConn]struct{}),
		log:     l,
	}
}

func (h *Hub) Subscribe(channel string, conn ws.WSConn) {
	if channel == "" || conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[channel]; !ok {
		h.subs[channel] = make(map[ws.WSConn]struct{})
	}
	h.subs[channel][conn] = struct{}{}

	if _, ok := h.byConn[conn]; !ok {
		h.byConn[conn] = make(map[string]struct{})
	}
	h.byConn[conn][channel] = struct{}{}

	// 每条连接只挂一次 watcher，连接关闭后自动清订阅
	if _, ok := h.watched[conn]; !ok {
		h.watched[conn] = struct{}{}
		go h.watchConnDone(conn)
	}
}

func (h *Hub) watchConnDone(conn ws.WSConn) {
	<-conn.Done()
	h.UnsubscribeAll(conn)
}

func (h *Hub) Unsubscribe(channel string, conn ws.WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(channel, conn)
}

func (h *Hub) UnsubscribeAll(conn ws.WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range h.byConn[conn] {
		h.removeLocked(channel, conn)
	}
	delete(h.byConn, conn)
	delete(h.watched, conn)
}

func (h *Hub) removeLocked(channel string, conn ws.WSConn) {
	if set, ok := h.subs[channel]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, channel)
		}
	}
	if set, ok := h.byConn[conn]; ok {
		delete(set, channel)
	}
}

// Publish 向通道内所有连接推送事件。WSConn.Push 本身非阻塞，
// 这里只在读锁下拷贝目标列表，锁外推送。
func (h *Hub) Publish(channel string, ev domain.Event) {
	h.mu.RLock()
	set := h.subs[channel]
	targets := make([]ws.WSConn, 0, len(set))
	for conn := range set {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}
	for _, conn := range targets {
		conn.Push(PushEventName, ev)
	}
	h.log.Debug("hub publish",
		zap.String("channel", channel),
		zap.String("event", string(ev.Type)),
		zap.Int("targets", len(targets)))
}

// SubscriberCount 当前通道订阅数（测试与诊断用）。
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
