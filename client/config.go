package client

import (
	"fmt"
	"net/url"
	"time"
)

// Config 租约服务客户端配置
type Config struct {
	Endpoint          string        `json:"endpoint" yaml:"endpoint"`                   // 服务地址，如 http://127.0.0.1:3000
	RequestTimeout    time.Duration `json:"requestTimeout" yaml:"requestTimeout"`       // 单次请求超时
	LeaseTimeout      time.Duration `json:"leaseTimeout" yaml:"leaseTimeout"`           // 服务端的 TIMEOUT
	HeartbeatInterval time.Duration `json:"heartbeatInterval" yaml:"heartbeatInterval"` // 0 表示 LeaseTimeout/3
}

// DefaultConfig 返回与服务端默认值匹配的配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint:       "http://127.0.0.1:3000",
		RequestTimeout: 500 * time.Millisecond,
		LeaseTimeout:   2000 * time.Millisecond,
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("client config cannot be nil")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", c.Endpoint)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}
	if c.LeaseTimeout <= 0 {
		return fmt.Errorf("lease timeout must be positive, got %s", c.LeaseTimeout)
	}
	if c.HeartbeatInterval < 0 || c.HeartbeatInterval >= c.LeaseTimeout {
		return fmt.Errorf("heartbeat interval must be in [0, %s), got %s", c.LeaseTimeout, c.HeartbeatInterval)
	}
	return nil
}

// EffectiveHeartbeatInterval 返回实际使用的心跳间隔
func (c *Config) EffectiveHeartbeatInterval() time.Duration {
	if c.HeartbeatInterval > 0 {
		return c.HeartbeatInterval
	}
	if d := c.LeaseTimeout / 3; d > 0 {
		return d
	}
	return time.Millisecond
}
