package utils

import (
	"fmt"
	"sync"
	"time"
)

const (
	// 2026-01-01 00:00:00 UTC，单位毫秒
	snowflakeEpochMilli int64 = 1767225600000

	nodeBits uint8 = 10
	seqBits  uint8 = 12

	maxNodeID int64 = -1 ^ (-1 << nodeBits)
	maxSeq    int64 = -1 ^ (-1 << seqBits)

	nodeShift uint8 = seqBits
	timeShift uint8 = nodeBits + seqBits
)

type Snowflake struct {
	mu     sync.Mutex
	nodeID int64
	lastTS int64
	seq    int64
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake node id out of range: %d", nodeID)
	}
	return &Snowflake{nodeID: nodeID}, nil
}

func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts < s.lastTS {
		// 时钟回拨时不回退，保持单调递增。
		ts = s.lastTS
	}

	if ts == s.lastTS {
		s.seq = (s.seq + 1) & maxSeq
		if s.seq == 0 {
			ts = waitNextMillisecond(s.lastTS)
		}
	} else {
		s.seq = 0
	}

	s.lastTS = ts
	return ((ts - snowflakeEpochMilli) << timeShift) | (s.nodeID << nodeShift) | s.seq
}

func waitNextMillisecond(lastTS int64) int64 {
	ts := time.Now().UnixMilli()
	for ts <= lastTS {
		ts = time.Now().UnixMilli()
	}
	return ts
}

var (
	globalSnowflakeMu sync.Mutex
	globalSnowflake   *Snowflake
)

// InitSnowflake 用服务器编号初始化全局 ID 生成器，启动期调用一次。
// 同一世界的多台服务器编号不能重复，否则主键会撞。
func InitSnowflake(nodeID int64) error {
	gen, err := NewSnowflake(nodeID)
	if err != nil {
		return err
	}
	globalSnowflakeMu.Lock()
	globalSnowflake = gen
	globalSnowflakeMu.Unlock()
	return nil
}

// NextSnowflakeID 取全局生成器的下一个 ID。
// 未经 InitSnowflake 初始化时落在 0 号节点（单测、工具脚本场景）。
func NextSnowflakeID() (int64, error) {
	globalSnowflakeMu.Lock()
	if globalSnowflake == nil {
		globalSnowflake = &Snowflake{nodeID: 0}
	}
	gen := globalSnowflake
	globalSnowflakeMu.Unlock()
	return gen.NextID(), nil
}
