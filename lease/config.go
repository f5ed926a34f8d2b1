package lease

import (
	"fmt"
	"time"

	"github.com/ceyewan/idlease/lease/internal/table"
)

// Config 定义租约分配器的配置
type Config struct {
	Min           int           `json:"min" yaml:"min"`                     // 标识符下界（含）
	Max           int           `json:"max" yaml:"max"`                     // 标识符上界（含）
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`             // 租约时长，心跳间隔应明显小于它
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"` // 回收周期，0 表示 Timeout/4
}

// DefaultConfig 返回默认配置：[1, 65535]，租约 2 秒
func DefaultConfig() *Config {
	return &Config{
		Min:     1,
		Max:     65535,
		Timeout: 2000 * time.Millisecond,
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("lease config cannot be nil")
	}
	if c.Min > c.Max {
		return fmt.Errorf("invalid id range: min %d > max %d", c.Min, c.Max)
	}
	if _, err := table.Span(c.Min, c.Max); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("lease timeout must be positive, got %s", c.Timeout)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval cannot be negative, got %s", c.SweepInterval)
	}
	return nil
}

// EffectiveSweepInterval 返回实际使用的回收周期
func (c *Config) EffectiveSweepInterval() time.Duration {
	if c.SweepInterval > 0 {
		return c.SweepInterval
	}
	if d := c.Timeout / 4; d > 0 {
		return d
	}
	return time.Millisecond
}
