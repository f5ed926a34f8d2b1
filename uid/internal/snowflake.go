package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Snowflake 布局：1 位符号 + 41 位时间戳 + 22 位（实例 ID + 序列号）
const (
	SnowflakeEpoch = 1609459200000 // 2021-01-01 00:00:00 UTC (毫秒时间戳)
	NodeBits       = 22            // 实例 ID 和序列号共享的位数

	MinInstanceBits     = 1
	MaxInstanceBits     = 16
	DefaultInstanceBits = 10
)

// Layout 描述实例 ID 和序列号各占多少位
type Layout struct {
	InstanceBits uint
}

// SequenceBits 序列号占用位数
func (l Layout) SequenceBits() uint { return NodeBits - l.InstanceBits }

// MaxInstanceID 最大实例 ID
func (l Layout) MaxInstanceID() int64 { return 1<<l.InstanceBits - 1 }

// MaxSequence 每毫秒最大序列号
func (l Layout) MaxSequence() int64 { return 1<<l.SequenceBits() - 1 }

// Validate 检查位宽是否合法
func (l Layout) Validate() error {
	if l.InstanceBits < MinInstanceBits || l.InstanceBits > MaxInstanceBits {
		return fmt.Errorf("实例 ID 位数必须在 %d-%d 范围内，当前 %d", MinInstanceBits, MaxInstanceBits, l.InstanceBits)
	}
	return nil
}

// SnowflakeGenerator 实现 Snowflake ID 生成器
// 支持高并发、时钟回拨检测和序列号管理
type SnowflakeGenerator struct {
	mu         sync.Mutex
	layout     Layout
	clock      clock.Clock
	instanceID int64
	sequence   int64
	lastTime   int64
}

// NewSnowflakeGenerator 创建新的 Snowflake 生成器
func NewSnowflakeGenerator(layout Layout, instanceID int64, clk clock.Clock) (*SnowflakeGenerator, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if instanceID < 0 || instanceID > layout.MaxInstanceID() {
		return nil, fmt.Errorf("实例 ID 必须在 0-%d 范围内，当前 %d", layout.MaxInstanceID(), instanceID)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SnowflakeGenerator{
		layout:     layout,
		clock:      clk,
		instanceID: instanceID,
	}, nil
}

func (g *SnowflakeGenerator) now() int64 {
	return g.clock.Now().UnixMilli() - SnowflakeEpoch
}

// Generate 生成 Snowflake ID
func (g *SnowflakeGenerator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	currentTime := g.now()
	if currentTime < 0 {
		return 0, fmt.Errorf("当前时间早于 epoch")
	}

	// 检测时钟回拨
	if currentTime < g.lastTime {
		return 0, fmt.Errorf("时钟回拨检测：上次时间 %d，当前时间 %d", g.lastTime, currentTime)
	}

	if currentTime == g.lastTime {
		g.sequence = (g.sequence + 1) & g.layout.MaxSequence()
		if g.sequence == 0 {
			// 序列号溢出，等待下一毫秒
			for currentTime <= g.lastTime {
				g.clock.Sleep(time.Millisecond - time.Duration(g.clock.Now().Nanosecond()%int(time.Millisecond)))
				currentTime = g.now()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = currentTime

	seqBits := g.layout.SequenceBits()
	id := (currentTime << NodeBits) |
		(g.instanceID << seqBits) |
		g.sequence
	return id, nil
}

// Parse 解析 Snowflake ID，返回相对 epoch 的毫秒数、实例 ID 和序列号
func (g *SnowflakeGenerator) Parse(id int64) (timestamp, instanceID, sequence int64) {
	seqBits := g.layout.SequenceBits()
	sequence = id & g.layout.MaxSequence()
	instanceID = (id >> seqBits) & g.layout.MaxInstanceID()
	timestamp = id >> NodeBits
	return timestamp, instanceID, sequence
}

// ExtractTime 从 Snowflake ID 提取生成时间
func (g *SnowflakeGenerator) ExtractTime(id int64) time.Time {
	return time.UnixMilli(SnowflakeEpoch + id>>NodeBits)
}
