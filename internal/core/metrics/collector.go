package metrics

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// 注册结果标签中 ResultCode 之外的取值
const (
	ResultBlocked     = "blocked"
	ResultTooFrequent = "too_frequent"
	ResultInvalid     = "invalid"
)

// 目录查询来源标签
const (
	SourceMemory  = "memory"
	SourceStorage = "storage"
	SourceCreated = "created"
	SourceMiss    = "miss"
)

// Collector hbbs 指标集合
type Collector struct {
	registrations *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	entries       prometheus.Gauge
	addresses     prometheus.Gauge

	regRate *RateMeter
}

// NewCollector 创建指标集合并注册到 reg
//
// reg 为 nil 时不注册，指标仍可读取（测试使用）。
func NewCollector(reg prometheus.Registerer) *Collector {
	return newCollector(reg, clock.New())
}

func newCollector(reg prometheus.Registerer, clk clock.Clock) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbbs_registrations_total",
			Help: "Public key registrations by result.",
		}, []string{"result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbbs_guard_rejections_total",
			Help: "Registrations rejected by the abuse guard, by reason.",
		}, []string{"reason"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbbs_storage_errors_total",
			Help: "Peer store errors by operation.",
		}, []string{"op"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbbs_directory_lookups_total",
			Help: "Directory lookups by source.",
		}, []string{"source"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hbbs_directory_entries",
			Help: "Entries held in the directory cache.",
		}),
		addresses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hbbs_guard_tracked_addresses",
			Help: "Source addresses tracked by the abuse guard.",
		}),
		regRate: NewRateMeter(clk),
	}

	if reg != nil {
		rate := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hbbs_registration_rate",
			Help: "Average registrations per second over the last minute.",
		}, c.regRate.Rate)
		reg.MustRegister(c.registrations, c.rejections, c.storageErrors, c.lookups, c.entries, c.addresses, rate)
	}
	return c
}

// ObserveRegistration 记录一次注册结果
func (c *Collector) ObserveRegistration(result string) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(result).Inc()
	c.regRate.Add(1)
}

// ObserveRejection 记录一次滥用检测拒绝
func (c *Collector) ObserveRejection(reason string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(reason).Inc()
}

// ObserveStorageError 记录一次存储错误
func (c *Collector) ObserveStorageError(op string) {
	if c == nil {
		return
	}
	c.storageErrors.WithLabelValues(op).Inc()
}

// ObserveLookup 记录一次目录查询
func (c *Collector) ObserveLookup(source string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(source).Inc()
}

// SetDirectoryEntries 更新目录条目数
func (c *Collector) SetDirectoryEntries(n int) {
	if c == nil {
		return
	}
	c.entries.Set(float64(n))
}

// SetTrackedAddresses 更新滥用检测跟踪的地址数
func (c *Collector) SetTrackedAddresses(n int) {
	if c == nil {
		return
	}
	c.addresses.Set(float64(n))
}

// RegistrationRate 返回最近 60 秒的平均注册速率
func (c *Collector) RegistrationRate() float64 {
	if c == nil {
		return 0
	}
	return c.regRate.Rate()
}
