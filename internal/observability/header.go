package observability

import (
	"fmt"
	"net/http"
	"time"
)

// AppendServerTiming adds one Server-Timing metric. Non-positive durations
// and empty descriptions are left out; a metric with neither is skipped.
func AppendServerTiming(w http.ResponseWriter, name string, durMs float64, desc string) {
	var v string
	switch {
	case durMs > 0 && desc != "":
		v = fmt.Sprintf("%s;dur=%.2f;desc=%q", name, durMs, desc)
	case durMs > 0:
		v = fmt.Sprintf("%s;dur=%.2f", name, durMs)
	case desc != "":
		v = fmt.Sprintf("%s;desc=%q", name, desc)
	default:
		return
	}
	w.Header().Add("Server-Timing", v)
}

func SetIfPos(w http.ResponseWriter, key string, ms float64) {
	if ms > 0 {
		w.Header().Set(key, fmt.Sprintf("%.2f", ms))
	}
}

// SinceMs is the time elapsed since t in fractional milliseconds.
func SinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
