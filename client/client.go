package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ceyewan/idlease/api"
	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
)

// APIError 是服务端返回的错误响应
type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lease service: status %d, code %d: %s", e.Status, e.Code, e.Msg)
}

// Is 把错误码映射到分配器的哨兵错误，调用方可以直接 errors.Is(err, allocator.ErrNotLeased)
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case api.CodeNoIDAvailable:
		return target == allocator.ErrPoolExhausted
	case api.CodeIDExpired:
		return target == allocator.ErrNotLeased
	case api.CodeIDNonexistent:
		return target == allocator.ErrOutOfRange
	}
	return false
}

// Client 租约服务的 HTTP 客户端
type Client struct {
	config   *Config
	endpoint string
	options  *Options
}

var _ InstanceIDAllocator = (*Client)(nil)

// New 创建客户端
func New(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return &Client{
		config:   config,
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		options:  parseOptions(opts),
	}, nil
}

// Next 申请一个新的 ID，不启动心跳
func (c *Client) Next(ctx context.Context) (api.Lease, error) {
	return c.get(ctx, api.RouteNext)
}

// Heartbeat 为 id 续租一次
func (c *Client) Heartbeat(ctx context.Context, id int) (api.Lease, error) {
	return c.get(ctx, api.HeartbeatPath(id))
}

// Health 查询服务状态
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var health api.Health
	err := c.do(ctx, api.RouteHealth, &health)
	return health, err
}

func (c *Client) get(ctx context.Context, path string) (api.Lease, error) {
	var l api.Lease
	err := c.do(ctx, path, &l)
	return l, err
}

func (c *Client) do(ctx context.Context, path string, out any) error {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	if traceID := clog.TraceID(ctx); traceID != "" {
		req.Header.Set(api.HeaderTraceID, traceID)
	}

	resp, err := c.options.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read response of %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb api.ErrorBody
		if err := json.Unmarshal(body, &eb); err != nil || eb.Error.Code == 0 {
			return &APIError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
		}
		return &APIError{Status: resp.StatusCode, Code: eb.Error.Code, Msg: eb.Error.Msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response of %s: %w", path, err)
	}
	return nil
}
