package metrics

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseExposition runs the output through the reference text parser.
func parseExposition(t *testing.T, body string) map[string]*dto.MetricFamily {
	t.Helper()
	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(strings.NewReader(body))
	require.NoError(t, err, "exposition:\n%s", body)
	return families
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func collectLines(r *Registry) []string {
	var lines []string
	for line := range r.Collect() {
		lines = append(lines, line)
	}
	return lines
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	def := Definition{
		Name:       "jobs_total",
		Help:       "Jobs processed",
		Type:       MetricTypeCounter,
		LabelNames: []string{"queue"},
	}

	t.Run("identical definition is idempotent", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		require.NoError(t, r.Register(def))
		require.NoError(t, r.Register(def))
		assert.Equal(t, []string{"jobs_total"}, r.Names())
	})

	t.Run("conflicting type fails", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		require.NoError(t, r.Register(def))

		other := def
		other.Type = MetricTypeGauge
		err := r.Register(other)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateMetric)

		var dup *DuplicateMetricError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "jobs_total", dup.Name)
		assert.Equal(t, MetricTypeCounter, dup.Existing.Type)
		assert.Equal(t, MetricTypeGauge, dup.Incoming.Type)
	})

	t.Run("conflicting help fails", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		require.NoError(t, r.Register(def))

		other := def
		other.Help = "Jobs handled"
		assert.ErrorIs(t, r.Register(other), ErrDuplicateMetric)
	})

	t.Run("conflicting labels fail", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		require.NoError(t, r.Register(def))

		other := def
		other.LabelNames = []string{"queue", "priority"}
		assert.ErrorIs(t, r.Register(other), ErrDuplicateMetric)
	})

	t.Run("conflicting buckets fail", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		h := Definition{Name: "lat", Help: "Latency", Type: MetricTypeHistogram, Buckets: []float64{1, 2}}
		require.NoError(t, r.Register(h))
		h.Buckets = []float64{1, 3}
		assert.ErrorIs(t, r.Register(h), ErrDuplicateMetric)
	})

	t.Run("NewCounter panics on conflict", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.NewGauge("x", "x")
		assert.Panics(t, func() { r.NewCounter("x", "x") })
	})

	t.Run("MustRegister panics on invalid definition", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		assert.Panics(t, func() {
			r.MustRegister(Definition{Name: "bad name", Type: MetricTypeCounter})
		})
	})
}

func TestRegistry_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  Definition
	}{
		{"empty name", Definition{Type: MetricTypeCounter}},
		{"invalid name", Definition{Name: "1abc", Type: MetricTypeCounter}},
		{"unknown type", Definition{Name: "abc", Type: "summary"}},
		{"invalid label", Definition{Name: "abc", Type: MetricTypeCounter, LabelNames: []string{"bad-label"}}},
		{"reserved label prefix", Definition{Name: "abc", Type: MetricTypeCounter, LabelNames: []string{"__name"}}},
		{"duplicate label", Definition{Name: "abc", Type: MetricTypeCounter, LabelNames: []string{"a", "a"}}},
		{"le on histogram", Definition{Name: "abc", Type: MetricTypeHistogram, LabelNames: []string{"le"}}},
		{"buckets on counter", Definition{Name: "abc", Type: MetricTypeCounter, Buckets: []float64{1}}},
		{"unsorted buckets", Definition{Name: "abc", Type: MetricTypeHistogram, Buckets: []float64{2, 1}}},
		{"duplicate buckets", Definition{Name: "abc", Type: MetricTypeHistogram, Buckets: []float64{1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRegistry()
			err := r.Register(tt.def)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
			assert.Empty(t, r.Names())
		})
	}
}

func TestRegistry_HistogramBucketDefaults(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	require.NoError(t, r.Register(Definition{Name: "a", Help: "a", Type: MetricTypeHistogram}))
	a, err := r.Histogram("a")
	require.NoError(t, err)
	assert.Equal(t, DefaultBuckets, a.Buckets())

	h := r.NewHistogram("b", "b", []float64{0.5, 1, math.Inf(1)})
	assert.Equal(t, []float64{0.5, 1}, h.Buckets())
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.NewCounter("requests", "Requests")

	c, err := r.Counter("requests")
	require.NoError(t, err)
	assert.Equal(t, "requests", c.Name())

	_, err = r.Counter("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMetric)

	_, err = r.Gauge("requests")
	require.Error(t, err)
	var unknown *UnknownMetricError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, MetricTypeGauge, unknown.Type)
	assert.Equal(t, MetricTypeCounter, unknown.Actual)

	_, err = r.Histogram("requests")
	assert.True(t, errors.Is(err, ErrUnknownMetric))
}

func TestRegistry_DefaultLabels(t *testing.T) {
	t.Parallel()

	t.Run("merged at exposition time", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry(WithDefaultLabels(map[string]string{"app": "svc", "version": "1.0.0"}))
		c := r.NewCounter("hits", "Hits", "path")
		vec, err := c.WithLabels("/a")
		require.NoError(t, err)
		require.NoError(t, vec.Inc())

		// series stores only its own labels
		samples := c.Collect()
		require.Len(t, samples, 1)
		assert.Equal(t, map[string]string{"path": "/a"}, samples[0].Labels)

		lines := collectLines(r)
		assert.Contains(t, lines, `hits{app="svc",path="/a",version="1.0.0"} 1`)
	})

	t.Run("series label wins on clash", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry(WithDefaultLabels(map[string]string{"env": "prod"}))
		c := r.NewCounter("hits", "Hits", "env")
		vec, _ := c.WithLabels("staging")
		_ = vec.Inc()

		assert.Contains(t, collectLines(r), `hits{env="staging"} 1`)
	})

	t.Run("set later applies to existing series", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		g := r.NewGauge("up", "Up")
		require.NoError(t, g.Set(1))
		require.NoError(t, r.SetDefaultLabels(map[string]string{"app": "x"}))

		assert.Contains(t, collectLines(r), `up{app="x"} 1`)
	})

	t.Run("invalid names rejected", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		assert.ErrorIs(t, r.SetDefaultLabels(map[string]string{"bad-name": "x"}), ErrInvalidDefinition)
		assert.ErrorIs(t, r.SetDefaultLabels(map[string]string{"le": "x"}), ErrInvalidDefinition)
		assert.Panics(t, func() { NewRegistry(WithDefaultLabels(map[string]string{"0x": "y"})) })
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry(WithDefaultLabels(map[string]string{"app": "x"}))
		labels := r.DefaultLabels()
		labels["app"] = "mutated"
		assert.Equal(t, "x", r.DefaultLabels()["app"])
	})
}

func TestRegistry_Collect(t *testing.T) {
	t.Parallel()

	t.Run("help and type once per metric in registration order", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		c := r.NewCounter("b_total", "B", "k")
		r.NewGauge("a_gauge", "A")
		for _, k := range []string{"z", "y", "x"} {
			vec, _ := c.WithLabels(k)
			_ = vec.Inc()
		}

		lines := collectLines(r)
		assert.Equal(t, []string{
			"# HELP b_total B",
			"# TYPE b_total counter",
			`b_total{k="x"} 1`,
			`b_total{k="y"} 1`,
			`b_total{k="z"} 1`,
			"# HELP a_gauge A",
			"# TYPE a_gauge gauge",
			"a_gauge 0",
		}, lines)
	})

	t.Run("labeled metric without series still has header", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.NewCounter("empty_total", "Nothing yet", "k")
		assert.Equal(t, []string{"# HELP empty_total Nothing yet", "# TYPE empty_total counter"}, collectLines(r))
	})

	t.Run("restartable and reflects state", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		c := r.NewCounter("n", "N")
		seq := r.Collect()

		first := slices.Collect(seq)
		require.NoError(t, c.Inc())
		second := slices.Collect(seq)

		assert.Contains(t, first, "n 0")
		assert.Contains(t, second, "n 1")
	})

	t.Run("early stop", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.NewCounter("a", "A")
		r.NewCounter("b", "B")

		var got []string
		for line := range r.Collect() {
			got = append(got, line)
			if len(got) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"# HELP a A", "# TYPE a counter"}, got)

		// registry still usable after an abandoned pass
		_, err := r.Counter("b")
		require.NoError(t, err)
		assert.Len(t, collectLines(r), 6)
	})

	t.Run("escaping", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		c := r.NewCounter("esc", "line1\nline2 back\\slash", "v")
		vec, _ := c.WithLabels("say \"hi\"\n")
		_ = vec.Inc()

		lines := collectLines(r)
		assert.Contains(t, lines, `# HELP esc line1\nline2 back\\slash`)
		assert.Contains(t, lines, `esc{v="say \"hi\"\n"} 1`)
	})
}

func TestRegistry_Exposition(t *testing.T) {
	t.Parallel()

	r := NewRegistry(WithDefaultLabels(map[string]string{"app": "tp2"}))
	require.NoError(t, RegisterStandard(r))

	requests, err := r.Counter(RequestsTotal)
	require.NoError(t, err)
	vec, err := requests.WithLabels("GET", "/users", "200")
	require.NoError(t, err)
	require.NoError(t, vec.Inc())

	duration, err := r.Histogram(RequestDuration)
	require.NoError(t, err)
	hv, err := duration.WithLabels("GET", "/users", "200")
	require.NoError(t, err)
	require.NoError(t, hv.Observe(0.25))
	require.NoError(t, hv.Observe(4))

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	for _, def := range StandardDefinitions() {
		assert.Contains(t, buf.String(), "# TYPE "+def.Name+" "+string(def.Type)+"\n")
	}

	families := parseExposition(t, buf.String())

	counter := families[RequestsTotal]
	assert.Equal(t, dto.MetricType_COUNTER, counter.GetType())
	require.Len(t, counter.GetMetric(), 1)
	m := counter.GetMetric()[0]
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
	assert.Equal(t, "tp2", labelValue(m, "app"))
	assert.Equal(t, "/users", labelValue(m, "route"))

	hist := families[RequestDuration]
	assert.Equal(t, dto.MetricType_HISTOGRAM, hist.GetType())
	require.Len(t, hist.GetMetric(), 1)
	h := hist.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), h.GetSampleCount())
	assert.InDelta(t, 4.25, h.GetSampleSum(), 1e-9)
	for _, b := range h.GetBucket() {
		switch b.GetUpperBound() {
		case 0.1:
			assert.Equal(t, uint64(0), b.GetCumulativeCount())
		case 0.3, 3:
			assert.Equal(t, uint64(1), b.GetCumulativeCount())
		case 5, 10:
			assert.Equal(t, uint64(2), b.GetCumulativeCount())
		}
	}

	gauge := families[ActiveConnections]
	assert.Equal(t, dto.MetricType_GAUGE, gauge.GetType())
	require.Len(t, gauge.GetMetric(), 1)
	assert.Equal(t, 0.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	c := r.NewCounter("test_requests_total", "Total test requests", "method")
	vec, _ := c.WithLabels("GET")
	_ = vec.Add(10)

	g := r.NewGauge("test_active", "Active items")
	_ = g.Set(5)

	h := r.NewHistogram("test_duration_seconds", "Test duration", []float64{0.1, 1.0})
	_ = h.Observe(0.5)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	expectedLines := []string{
		"# HELP test_requests_total Total test requests",
		"# TYPE test_requests_total counter",
		`test_requests_total{method="GET"} 10`,
		"# HELP test_active Active items",
		"# TYPE test_active gauge",
		"test_active 5",
		"# HELP test_duration_seconds Test duration",
		"# TYPE test_duration_seconds histogram",
		`test_duration_seconds_bucket{le="0.1"} 0`,
		`test_duration_seconds_bucket{le="1"} 1`,
		`test_duration_seconds_bucket{le="+Inf"} 1`,
		"test_duration_seconds_sum 0.5",
		"test_duration_seconds_count 1",
	}
	for _, line := range expectedLines {
		assert.Contains(t, body, line)
	}
	assert.True(t, strings.HasSuffix(body, "\n"))

	head := httptest.NewRecorder()
	r.Handler().ServeHTTP(head, httptest.NewRequest(http.MethodHead, "/metrics", nil))
	assert.Equal(t, http.StatusOK, head.Code)
	assert.Empty(t, head.Body.String())
}

// A histogram observed only with 1.0 must always expose sum == count. Any
// scrape that sees them differ read a half-applied observation.
func TestRegistry_ScrapeDuringWrites(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	h := r.NewHistogram("consistent", "Consistency", []float64{0.5, 2})
	c := r.NewCounter("writes_total", "Writes")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = h.Observe(1)
					_ = c.Inc()
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		var buf bytes.Buffer
		_, err := r.WriteTo(&buf)
		require.NoError(t, err)

		families := parseExposition(t, buf.String())
		hist := families["consistent"].GetMetric()[0].GetHistogram()
		assert.Equal(t, float64(hist.GetSampleCount()), hist.GetSampleSum())
	}
	close(stop)
	wg.Wait()
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{1.5, "1.5"},
		{0.001, "0.001"},
		{1000000, "1e+06"},
		{math.Inf(1), "+Inf"},
		{-math.Inf(1), "-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestEscapeLabelValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{`with"quote`, `with\"quote`},
		{`with\backslash`, `with\\backslash`},
		{"with\nnewline", `with\nnewline`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeLabelValue(tt.input))
		})
	}
}

func BenchmarkRegistry_WriteTo(b *testing.B) {
	r := NewRegistry()
	c := r.NewCounter("bench_counter", "Benchmark counter", "label")
	for i := 0; i < 100; i++ {
		vec, _ := c.WithLabels(string(rune('a' + i%26)))
		_ = vec.Inc()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		_, _ = r.WriteTo(&buf)
	}
}
