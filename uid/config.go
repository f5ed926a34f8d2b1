package uid

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ceyewan/idlease/uid/internal"
)

// Config 定义 uid 组件的配置结构
type Config struct {
	ServiceName  string `json:"serviceName" yaml:"serviceName"`   // 服务名称，用于日志
	InstanceBits int    `json:"instanceBits" yaml:"instanceBits"` // 实例 ID 位数，默认 10，最大 16
	InstanceID   int    `json:"instanceId" yaml:"instanceId"`     // 实例 ID，0 表示自动分配；注入租约客户端时忽略
}

// GetDefaultConfig 返回环境相关的默认配置
func GetDefaultConfig(env string) *Config {
	config := &Config{
		ServiceName:  getEnvWithDefault("SERVICE_NAME", "unknown-service"),
		InstanceBits: getEnvIntWithDefault("INSTANCE_BITS", internal.DefaultInstanceBits),
		InstanceID:   getEnvIntWithDefault("INSTANCE_ID", 0),
	}

	if env == "development" && config.InstanceID == 0 {
		config.InstanceID = 1
	}
	return config
}

// MaxInstanceID 当前位宽下的最大实例 ID
func (c *Config) MaxInstanceID() int {
	return int(c.layout().MaxInstanceID())
}

func (c *Config) layout() internal.Layout {
	return internal.Layout{InstanceBits: uint(c.InstanceBits)}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("配置不能为空")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("服务名称不能为空")
	}
	if c.InstanceBits < internal.MinInstanceBits || c.InstanceBits > internal.MaxInstanceBits {
		return fmt.Errorf("实例 ID 位数必须在 %d-%d 范围内", internal.MinInstanceBits, internal.MaxInstanceBits)
	}
	if c.InstanceID < 0 || c.InstanceID > c.MaxInstanceID() {
		return fmt.Errorf("实例 ID 必须在 0-%d 范围内（0 表示自动分配）", c.MaxInstanceID())
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
