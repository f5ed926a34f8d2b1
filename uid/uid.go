package uid

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ceyewan/idlease/client"
	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/uid/internal"
)

// ErrInstanceIDLost 实例 ID 的租约已丢失，继续生成可能与其他实例冲突
var ErrInstanceIDLost = errors.New("instance id lease lost")

// Provider 定义唯一 ID 生成组件的主接口
// 提供 Snowflake 和 UUID v7 两种 ID 生成方案
type Provider interface {
	// GetUUIDV7 生成 UUID v7 格式的唯一标识符
	GetUUIDV7() string

	// GenerateSnowflake 生成 Snowflake 格式的唯一标识符
	GenerateSnowflake() (int64, error)

	// IsValidUUID 验证字符串是否为有效的 UUID v7
	IsValidUUID(s string) bool

	// UUIDTime 返回 UUID v7 中记录的毫秒时间
	UUIDTime(s string) (time.Time, error)

	// ParseSnowflake 解析 Snowflake ID，返回相对 epoch 的毫秒数、实例 ID 和序列号
	ParseSnowflake(id int64) (timestamp, instanceID, sequence int64)

	// SnowflakeTime 返回 Snowflake ID 的生成时间
	SnowflakeTime(id int64) time.Time

	// InstanceID 返回当前使用的实例 ID
	InstanceID() int64

	// Close 释放资源，持有租约时停止心跳
	Close() error
}

type uidProvider struct {
	config     *Config
	logger     clog.Logger
	snowflake  *internal.SnowflakeGenerator
	instanceID int64
	lease      client.AllocatedID // 未使用租约服务时为 nil
	closeOnce  sync.Once
}

// New 创建 uid 组件实例
// 注入 InstanceIDAllocator 时实例 ID 来自租约服务，否则使用配置值或随机值
func New(ctx context.Context, config *Config, opts ...Option) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	options := parseOptions(opts)
	provider := &uidProvider{
		config: config,
		logger: options.logger,
	}

	source := "config"
	switch {
	case options.allocator != nil:
		lease, err := options.allocator.AcquireID(ctx)
		if err != nil {
			return nil, fmt.Errorf("获取实例 ID 失败: %w", err)
		}
		if lease.ID() < 0 || lease.ID() > config.MaxInstanceID() {
			_ = lease.Close(ctx)
			return nil, fmt.Errorf("租约服务分配的 ID %d 超出 %d 位实例 ID 范围 0-%d",
				lease.ID(), config.InstanceBits, config.MaxInstanceID())
		}
		provider.lease = lease
		provider.instanceID = int64(lease.ID())
		source = "lease"
	case config.InstanceID > 0:
		provider.instanceID = int64(config.InstanceID)
	default:
		provider.instanceID = rand.Int63n(int64(config.MaxInstanceID()) + 1)
		source = "random"
	}

	gen, err := internal.NewSnowflakeGenerator(config.layout(), provider.instanceID, options.clock)
	if err != nil {
		if provider.lease != nil {
			_ = provider.lease.Close(ctx)
		}
		return nil, err
	}
	provider.snowflake = gen

	provider.logger.Info("uid 组件初始化成功",
		clog.String("service_name", config.ServiceName),
		clog.Int64("instance_id", provider.instanceID),
		clog.String("instance_id_source", source),
		clog.Int("instance_bits", config.InstanceBits),
	)
	return provider, nil
}

func (p *uidProvider) GetUUIDV7() string {
	return internal.GenerateUUIDV7()
}

// GenerateSnowflake 生成 Snowflake ID，租约丢失后拒绝生成
func (p *uidProvider) GenerateSnowflake() (int64, error) {
	if p.lease != nil {
		select {
		case <-p.lease.Lost():
			return 0, fmt.Errorf("%w: instance %d", ErrInstanceIDLost, p.instanceID)
		default:
		}
	}
	return p.snowflake.Generate()
}

func (p *uidProvider) IsValidUUID(s string) bool {
	return internal.IsValidUUID(s)
}

func (p *uidProvider) UUIDTime(s string) (time.Time, error) {
	return internal.ExtractTimeFromUUIDV7(s)
}

func (p *uidProvider) ParseSnowflake(id int64) (timestamp, instanceID, sequence int64) {
	return p.snowflake.Parse(id)
}

func (p *uidProvider) SnowflakeTime(id int64) time.Time {
	return p.snowflake.ExtractTime(id)
}

func (p *uidProvider) InstanceID() int64 {
	return p.instanceID
}

func (p *uidProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.lease != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = p.lease.Close(ctx)
		}
		p.logger.Info("uid 组件已关闭",
			clog.String("service_name", p.config.ServiceName),
			clog.Int64("instance_id", p.instanceID),
		)
	})
	return err
}
