package metrics

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"

	"github.com/i474232898/outdoor-temperature/internal/weather"
)

// Recorder exports poll outcomes and the retained state in Prometheus format.
type Recorder struct {
	set *vm.Set

	pollDuration *vm.Histogram

	current    atomic.Value // weather.State
	lastUpdate atomic.Int64
}

// New registers the recorder's metrics in a fresh set.
func New() *Recorder {
	r := &Recorder{set: vm.NewSet()}
	r.current.Store(weather.State{})

	r.pollDuration = r.set.NewHistogram("outdoor_poll_duration_seconds")
	r.set.NewGauge("outdoor_temperature_celsius", func() float64 {
		st := r.state()
		if !st.Current.Valid {
			return math.NaN()
		}
		return st.Current.Value
	})
	r.set.NewGauge("outdoor_temperature_stale", func() float64 {
		if r.state().Stale() {
			return 1
		}
		return 0
	})
	r.set.NewGauge("outdoor_last_update_timestamp_seconds", func() float64 {
		return float64(r.lastUpdate.Load())
	})
	return r
}

func (r *Recorder) state() weather.State {
	return r.current.Load().(weather.State)
}

// ObservePoll counts a poll by outcome kind ("" is success).
func (r *Recorder) ObservePoll(kind string, took time.Duration) {
	result := "ok"
	if kind != "" {
		result = kind
	}
	r.set.GetOrCreateCounter(fmt.Sprintf(`outdoor_polls_total{result=%q}`, result)).Inc()
	r.pollDuration.Update(took.Seconds())
}

// ObserveState records the retained state after load or a successful poll.
func (r *Recorder) ObserveState(st weather.State) {
	r.current.Store(st)
	r.lastUpdate.Store(st.LastUpdate)
}

// WritePrometheus writes the recorder's metrics plus process metrics.
func (r *Recorder) WritePrometheus(w io.Writer) {
	r.set.WritePrometheus(w)
	vm.WriteProcessMetrics(w)
}
