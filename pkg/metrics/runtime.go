package metrics

import (
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// RuntimeCollector publishes Go runtime and process metrics into a registry.
type RuntimeCollector struct {
	goroutines  *Gauge
	threads     *Gauge
	heapAlloc   *Gauge
	heapSys     *Gauge
	heapObjects *Gauge
	stackInuse  *Gauge
	gcPause     *Gauge
	gcLastPause *Gauge
	numGC       *Gauge
	startTime   *Gauge
	uptime      *Gauge

	started time.Time
	now     func() time.Time
}

// runtimeDefinitions lists the gauges owned by RuntimeCollector.
func runtimeDefinitions() []Definition {
	gauge := func(name, help string, labels ...string) Definition {
		return Definition{Name: name, Help: help, Type: MetricTypeGauge, LabelNames: labels}
	}
	return []Definition{
		gauge("go_goroutines", "Number of goroutines that currently exist"),
		gauge("go_threads", "Number of OS threads created"),
		gauge("go_memstats_heap_alloc_bytes", "Number of heap bytes allocated and still in use"),
		gauge("go_memstats_heap_sys_bytes", "Number of heap bytes obtained from system"),
		gauge("go_memstats_heap_objects", "Number of allocated heap objects"),
		gauge("go_memstats_stack_inuse_bytes", "Number of bytes in use by the stack allocator"),
		gauge("go_gc_pause_total_seconds", "Total GC pause duration in seconds"),
		gauge("go_gc_last_pause_seconds", "Duration of the last GC pause in seconds"),
		gauge("go_gc_cycles", "Number of completed GC cycles"),
		gauge("go_info", "Information about the Go environment", "version"),
		gauge("process_start_time_seconds", "Start time of the process since unix epoch in seconds"),
		gauge("process_uptime_seconds", "Process uptime in seconds"),
	}
}

// NewRuntimeCollector registers the runtime gauges on r and returns a collector for them.
func NewRuntimeCollector(r *Registry) (*RuntimeCollector, error) {
	for _, def := range runtimeDefinitions() {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}

	gauge := func(name string) *Gauge {
		// registered above, lookup cannot fail
		g, _ := r.Gauge(name)
		return g
	}

	rc := &RuntimeCollector{
		goroutines:  gauge("go_goroutines"),
		threads:     gauge("go_threads"),
		heapAlloc:   gauge("go_memstats_heap_alloc_bytes"),
		heapSys:     gauge("go_memstats_heap_sys_bytes"),
		heapObjects: gauge("go_memstats_heap_objects"),
		stackInuse:  gauge("go_memstats_stack_inuse_bytes"),
		gcPause:     gauge("go_gc_pause_total_seconds"),
		gcLastPause: gauge("go_gc_last_pause_seconds"),
		numGC:       gauge("go_gc_cycles"),
		startTime:   gauge("process_start_time_seconds"),
		uptime:      gauge("process_uptime_seconds"),
		started:     time.Now(),
		now:         time.Now,
	}

	if vec, err := gauge("go_info").WithLabels(runtime.Version()); err == nil {
		vec.Set(1)
	}
	_ = rc.startTime.Set(float64(rc.started.UnixNano()) / 1e9)

	return rc, nil
}

// Collect refreshes every runtime gauge with current values.
func (rc *RuntimeCollector) Collect() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	_ = rc.uptime.Set(rc.now().Sub(rc.started).Seconds())
	_ = rc.goroutines.Set(float64(runtime.NumGoroutine()))
	if p := pprof.Lookup("threadcreate"); p != nil {
		_ = rc.threads.Set(float64(p.Count()))
	}

	_ = rc.heapAlloc.Set(float64(mem.HeapAlloc))
	_ = rc.heapSys.Set(float64(mem.HeapSys))
	_ = rc.heapObjects.Set(float64(mem.HeapObjects))
	_ = rc.stackInuse.Set(float64(mem.StackInuse))

	// PauseTotalNs is cumulative; PauseNs is a circular buffer of the last 256 pauses.
	_ = rc.gcPause.Set(float64(mem.PauseTotalNs) / 1e9)
	if mem.NumGC > 0 {
		_ = rc.gcLastPause.Set(float64(mem.PauseNs[(mem.NumGC+255)%256]) / 1e9)
	}
	_ = rc.numGC.Set(float64(mem.NumGC))
}

// Start collects immediately and then every interval until the returned stop
// function is called. Stop is safe to call more than once.
func (rc *RuntimeCollector) Start(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		rc.Collect()
		for {
			select {
			case <-ticker.C:
				rc.Collect()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}
