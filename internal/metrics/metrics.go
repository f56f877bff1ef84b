package metrics

import (
	"fmt"
	"io"
	"sync"

	vm "github.com/VictoriaMetrics/metrics"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"

	// ChannelUnknown labels failures where the channel could not even name itself.
	ChannelUnknown = "unknown"
)

// depthFuncs holds the current depth source per queue name. The gauge is
// registered once and always reads the latest source.
var depthFuncs sync.Map

func AlertCreated(source string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`safeher_alerts_created_total{source=%q}`, source)).Inc()
}

func StatusUpdated(status string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`safeher_alert_status_updates_total{status=%q}`, status)).Inc()
}

// NotificationAttempt counts one (channel, recipient) send by outcome.
func NotificationAttempt(channel, result string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`safeher_notification_attempts_total{channel=%q,result=%q}`, channel, result)).Inc()
}

func NotificationAttempts(channel, result string) uint64 {
	return vm.GetOrCreateCounter(fmt.Sprintf(`safeher_notification_attempts_total{channel=%q,result=%q}`, channel, result)).Get()
}

func ScheduleFailed(reason string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`safeher_notification_schedule_failures_total{reason=%q}`, reason)).Inc()
}

func ScheduleFailures(reason string) uint64 {
	return vm.GetOrCreateCounter(fmt.Sprintf(`safeher_notification_schedule_failures_total{reason=%q}`, reason)).Get()
}

// ObserveDispatch records how long a whole fan-out took.
func ObserveDispatch(seconds float64) {
	vm.GetOrCreateHistogram(`safeher_notification_dispatch_duration_seconds`).Update(seconds)
}

// QueueDepth points the depth gauge of the named queue at depth. A later call
// for the same name replaces the source.
func QueueDepth(name string, depth func() float64) {
	if _, loaded := depthFuncs.Swap(name, depth); loaded {
		return
	}
	vm.GetOrCreateGauge(fmt.Sprintf(`safeher_notification_queue_depth{queue=%q}`, name), func() float64 {
		f, ok := depthFuncs.Load(name)
		if !ok {
			return 0
		}
		return f.(func() float64)()
	})
}

// WritePrometheus writes every registered metric plus process metrics.
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}
