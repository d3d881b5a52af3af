// Package observability records lookup, write, HTTP and Kafka timings.
package observability

type Metrics interface {
	ObserveLookup(source string, cacheMs, sourceMs float64)
	ObserveUpsert(writeMs float64)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveKafka(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
	IncEviction()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, float64, float64)   {}
func (Noop) ObserveUpsert(float64)                    {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveKafka(float64, bool)               {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}
func (Noop) IncEviction()                             {}

var (
	_ Metrics = Noop{}
	_ Metrics = (*Inmem)(nil)
)
