package domain

import "time"

// EventType 封闭的事件枚举，对外载荷形如 {type, data, timestamp}。
type EventType string

const (
	EventResourceUpdate   EventType = "resource_update"
	EventBuildingComplete EventType = "building_complete"
	EventTroopComplete    EventType = "troop_complete"
	EventArmyArrived      EventType = "army_arrived"
	EventUnderAttack      EventType = "under_attack"
)

// Event 推送给客户端的事件。Data 只会是下面定义的载荷类型之一，
// 不接受裸 map，事件形状在编译期就定死。
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp int64     `json:"timestamp"` // Unix 毫秒
}

type ResourceUpdateData struct {
	VillageID VillageID `json:"village_id"`
	Resources Resources `json:"resources"`
	WoodRate  float64   `json:"wood_rate"`
	ClayRate  float64   `json:"clay_rate"`
	IronRate  float64   `json:"iron_rate"`
	CropRate  float64   `json:"crop_rate"`
}

type BuildingCompleteData struct {
	VillageID  VillageID  `json:"village_id"`
	BuildingID BuildingID `json:"building_id"`
	Type       string     `json:"type"`
	Level      int        `json:"level"`
}

type TroopCompleteData struct {
	VillageID VillageID `json:"village_id"`
	Type      string    `json:"type"`
	Count     int       `json:"count"`
}

type ArmyArrivedData struct {
	ArmyID    ArmyID      `json:"army_id"`
	Mission   MissionKind `json:"mission"`
	VillageID VillageID   `json:"village_id"`
	X         int         `json:"x"`
	Y         int         `json:"y"`
	Returning bool        `json:"returning"`
	ReportID  ReportID    `json:"report_id,omitempty"`
}

type UnderAttackData struct {
	VillageID VillageID   `json:"village_id"`
	Mission   MissionKind `json:"mission"`
	ArrivesAt int64       `json:"arrives_at"` // Unix 毫秒
}

func newEvent(t EventType, data any, at time.Time) Event {
	return Event{Type: t, Data: data, Timestamp: at.UnixNano() / 1e6}
}

func NewResourceUpdateEvent(d ResourceUpdateData, at time.Time) Event {
	return newEvent(EventResourceUpdate, d, at)
}

func NewBuildingCompleteEvent(d BuildingCompleteData, at time.Time) Event {
	return newEvent(EventBuildingComplete, d, at)
}

func NewTroopCompleteEvent(d TroopCompleteData, at time.Time) Event {
	return newEvent(EventTroopComplete, d, at)
}

func NewArmyArrivedEvent(d ArmyArrivedData, at time.Time) Event {
	return newEvent(EventArmyArrived, d, at)
}

func NewUnderAttackEvent(d UnderAttackData, at time.Time) Event {
	return newEvent(EventUnderAttack, d, at)
}
