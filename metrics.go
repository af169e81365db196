package guauth

import "sync/atomic"

// MetricID indexes one counter of the client/flow metric set.
type MetricID uint16

const (
	// MetricOTPRequestSuccess counts OTP requests the backend acknowledged.
	MetricOTPRequestSuccess MetricID = iota
	// MetricOTPRequestFailure counts failed OTP requests.
	MetricOTPRequestFailure
	// MetricOTPVerifySuccess counts accepted OTP verifications.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure counts rejected or failed OTP verifications.
	MetricOTPVerifyFailure
	// MetricUsernameCheck counts availability checks that reached the backend.
	MetricUsernameCheck
	// MetricUsernameCheckCancelled counts checks cancelled by a newer edit.
	MetricUsernameCheckCancelled
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricLoginSuccess counts completed logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricPasswordResetSuccess counts accepted password resets.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure counts failed password resets.
	MetricPasswordResetFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricSessionCleared401 counts sessions cleared by a 401 response.
	MetricSessionCleared401
	// MetricFlowReset counts full flow resets.
	MetricFlowReset
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of atomic counters. A nil or disabled Metrics is a
// no-op on every method.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics returns a counter set honouring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies all counters. Counters observed mid-update may differ by
// in-flight increments.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
