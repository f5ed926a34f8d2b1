package metrics

// 续租被拒绝的原因，用作 metrics 标签
const (
	ReasonOutOfRange = "out_of_range"
	ReasonNotLeased  = "not_leased"
	ReasonExpired    = "expired"
)

// MonitoringService 接收租约分配器的运行事件
type MonitoringService interface {
	LeaseGained(id int)
	LeaseRenewed(id int)
	LeasesReclaimed(count int)
	LeaseRejected(reason string)
	PoolExhausted()
	LeasesHeld(count int)
}

// NoopMonitoringService implements MonitoringService by doing nothing.
type NoopMonitoringService struct{}

func (NoopMonitoringService) LeaseGained(id int)          {}
func (NoopMonitoringService) LeaseRenewed(id int)         {}
func (NoopMonitoringService) LeasesReclaimed(count int)   {}
func (NoopMonitoringService) LeaseRejected(reason string) {}
func (NoopMonitoringService) PoolExhausted()              {}
func (NoopMonitoringService) LeasesHeld(count int)        {}
