package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	requestDuration map[string]time.Duration
	autotriage      AutotriageCounters
}

// AutotriageCounters accumulates batch outcomes.
type AutotriageCounters struct {
	Runs      int64
	Processed int64
	Succeeded int64
	Failed    int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		requestDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAutotriage adds one batch outcome.
func (m *Metrics) RecordAutotriage(succeeded, failed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autotriage.Runs++
	m.autotriage.Processed += int64(succeeded + failed)
	m.autotriage.Succeeded += int64(succeeded)
	m.autotriage.Failed += int64(failed)
}

// Autotriage returns the accumulated batch counters.
func (m *Metrics) Autotriage() AutotriageCounters {
	if m == nil {
		return AutotriageCounters{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autotriage
}

// RequestCount returns the number of requests seen for path, method and status.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount[pathKey(path, method, status)]
}

// ErrorCount returns the number of errors recorded with code.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCount[path+"|"+method+"|"+code]
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
