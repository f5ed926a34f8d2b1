// Package api 定义租约服务的 HTTP 路由和 JSON 消息格式，服务端和客户端共用
package api

import (
	"fmt"
	"strconv"
	"time"
)

const (
	RouteNext      = "/next"
	RouteHeartbeat = "/heartbeat/{id}"
	RouteHealth    = "/healthz"
	RouteMetrics   = "/metrics"

	// HeaderTraceID 请求链路 id，缺失时由服务端生成并回写
	HeaderTraceID = "X-Trace-ID"
)

// HeartbeatPath 返回某个 id 的心跳路径
func HeartbeatPath(id int) string {
	return "/heartbeat/" + strconv.Itoa(id)
}

// 错误码
const (
	CodeNoIDAvailable = 1
	CodeIDExpired     = 2
	CodeIDNonexistent = 3
	CodeInvalidID     = 4
	CodeInternal      = 5
)

var messages = map[int]string{
	CodeNoIDAvailable: "No id available!",
	CodeIDExpired:     "Id expired!",
	CodeIDNonexistent: "Id nonexistent!",
	CodeInvalidID:     "Invalid id!",
	CodeInternal:      "Internal error!",
}

// Message 返回错误码对应的提示文本
func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error %d", code)
}

// Lease 是 /next 和 /heartbeat 的成功响应
type Lease struct {
	ID  int   `json:"id"`
	Exp int64 `json:"exp"` // 到期时间，unix 毫秒
}

// NewLease 用到期时间构造响应
func NewLease(id int, expiresAt time.Time) Lease {
	return Lease{ID: id, Exp: expiresAt.UnixMilli()}
}

// ExpiresAt 把 Exp 还原成时间
func (l Lease) ExpiresAt() time.Time {
	return time.UnixMilli(l.Exp)
}

// Error 错误详情
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorBody 是所有失败响应的外层结构
type ErrorBody struct {
	Error Error `json:"error"`
}

// NewErrorBody 用错误码构造失败响应
func NewErrorBody(code int) ErrorBody {
	return ErrorBody{Error: Error{Code: code, Msg: Message(code)}}
}

// Health 是 /healthz 的响应
type Health struct {
	Status string `json:"status"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Size   int    `json:"size"`
	Leased int    `json:"leased"`
}
