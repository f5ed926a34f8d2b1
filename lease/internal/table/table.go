package table

import (
	"fmt"
	"time"

	"github.com/ceyewan/idlease/lease/allocator"
)

// MaxSize 租约表允许的最大条目数
const MaxSize = 1 << 24

// State 租约状态
type State uint8

const (
	Free State = iota
	Leased
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Leased:
		return "leased"
	default:
		return "unknown"
	}
}

// Lease 是单个标识符的状态视图，ExpiresAt 仅在 Leased 时有意义
type Lease struct {
	ID        int
	State     State
	ExpiresAt time.Time
}

type entry struct {
	state     State
	expiresAt time.Time
}

// Table 以 id-min 为下标的稠密租约表
//
// Table 不是并发安全的，调用方负责加锁。
type Table struct {
	min     int
	max     int
	entries []entry
	leased  int
}

// New 为 [min, max] 中的每个标识符创建一个 Free 条目
func New(min, max int) (*Table, error) {
	if min > max {
		return nil, fmt.Errorf("invalid id range: min %d > max %d", min, max)
	}
	span, err := Span(min, max)
	if err != nil {
		return nil, err
	}
	return &Table{
		min:     min,
		max:     max,
		entries: make([]entry, span+1),
	}, nil
}

// Span 返回 max-min，超过 MaxSize-1 时报错
// 要求 min <= max，在无符号域内相减不会溢出
func Span(min, max int) (uint64, error) {
	span := uint64(max) - uint64(min)
	if span >= MaxSize {
		return 0, fmt.Errorf("id range [%d, %d] too large: more than %d entries", min, max, MaxSize)
	}
	return span, nil
}

func (t *Table) Min() int  { return t.min }
func (t *Table) Max() int  { return t.max }
func (t *Table) Size() int { return len(t.entries) }

// Leased 返回处于 Leased 状态的条目数，包含已过期但尚未回收的
func (t *Table) Leased() int { return t.leased }

// Contains 判断 id 是否在范围内
func (t *Table) Contains(id int) bool {
	return id >= t.min && id <= t.max
}

// IDAt 把下标换算成标识符
func (t *Table) IDAt(index int) int {
	return t.min + index
}

func (t *Table) index(id int) (int, error) {
	if !t.Contains(id) {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", allocator.ErrOutOfRange, id, t.min, t.max)
	}
	return id - t.min, nil
}

// Get 返回 id 的当前状态
func (t *Table) Get(id int) (Lease, error) {
	i, err := t.index(id)
	if err != nil {
		return Lease{}, err
	}
	e := t.entries[i]
	return Lease{ID: id, State: e.state, ExpiresAt: e.expiresAt}, nil
}

// MarkLeased 将 id 置为 Leased 并记录到期时间，对已持有的 id 直接覆盖
func (t *Table) MarkLeased(id int, expiresAt time.Time) error {
	i, err := t.index(id)
	if err != nil {
		return err
	}
	if t.entries[i].state != Leased {
		t.leased++
	}
	t.entries[i] = entry{state: Leased, expiresAt: expiresAt}
	return nil
}

// MarkFree 将 id 置为 Free 并清除到期时间
func (t *Table) MarkFree(id int) error {
	i, err := t.index(id)
	if err != nil {
		return err
	}
	if t.entries[i].state == Leased {
		t.leased--
	}
	t.entries[i] = entry{}
	return nil
}

// IsExpired 当且仅当 id 处于 Leased 且 expiresAt <= now
func (t *Table) IsExpired(id int, now time.Time) bool {
	i, err := t.index(id)
	if err != nil {
		return false
	}
	e := t.entries[i]
	return e.state == Leased && !e.expiresAt.After(now)
}

// IsAvailable 空闲或已过期的 id 都可以被重新分配
func (t *Table) IsAvailable(id int, now time.Time) bool {
	i, err := t.index(id)
	if err != nil {
		return false
	}
	e := t.entries[i]
	return e.state == Free || !e.expiresAt.After(now)
}
