package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	autosaveTotal        atomic.Uint64
	autosaveFailedTotal  atomic.Uint64
	manualSaveTotal      atomic.Uint64
	storageQuotaTotal    atomic.Uint64
	aiRequestsTotal      atomic.Uint64
	aiFailedTotal        atomic.Uint64
	aiStaleDiscardsTotal atomic.Uint64

	versionsCreated = newLabeledCounter()

	aiDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncAutosave counts a silent save that reached the store.
func IncAutosave() { autosaveTotal.Add(1) }

// IncAutosaveFailed counts a silent save the store rejected.
func IncAutosaveFailed() { autosaveFailedTotal.Add(1) }

// IncManualSave counts an explicit save.
func IncManualSave() { manualSaveTotal.Add(1) }

// IncStorageQuota counts writes refused for quota.
func IncStorageQuota() { storageQuotaTotal.Add(1) }

// IncVersionsCreated counts an appended version by change type.
func IncVersionsCreated(changeType string) { versionsCreated.Inc(changeType) }

// IncAIRequest counts a gateway call.
func IncAIRequest() { aiRequestsTotal.Add(1) }

// IncAIFailed counts a gateway call that returned an error.
func IncAIFailed() { aiFailedTotal.Add(1) }

// IncAIStaleDiscard counts a gateway response dropped because its session
// moved on.
func IncAIStaleDiscard() { aiStaleDiscardsTotal.Add(1) }

// ObserveAIDurationMs records a gateway round trip in milliseconds.
func ObserveAIDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	aiDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "autosave_total", "Silent saves persisted", autosaveTotal.Load())
	writeCounter(&buf, "autosave_failed_total", "Silent saves rejected by storage", autosaveFailedTotal.Load())
	writeCounter(&buf, "save_manual_total", "Explicit saves", manualSaveTotal.Load())
	writeCounter(&buf, "storage_quota_exceeded_total", "Writes refused for quota", storageQuotaTotal.Load())
	writeLabeledCounter(&buf, "versions_created_total", "Versions appended", "change_type", versionsCreated.Snapshot())
	writeCounter(&buf, "ai_requests_total", "AI gateway requests", aiRequestsTotal.Load())
	writeCounter(&buf, "ai_failed_total", "AI gateway failures", aiFailedTotal.Load())
	writeCounter(&buf, "ai_stale_discarded_total", "AI responses discarded as stale", aiStaleDiscardsTotal.Load())
	writeHistogram(&buf, "ai_duration_ms", "AI gateway duration in milliseconds", aiDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket that holds it. Counts are
// made cumulative when rendered.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
