package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/spf13/cobra"

	"github.com/cap-mahdi/TP2-devops/pkg/cli/internal/output"
)

// DefaultMetricsURL is scraped when --url is not given.
const DefaultMetricsURL = "http://localhost:4000/metrics"

// SampleOutput is a single scraped sample.
type SampleOutput struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// FamilyOutput is one scraped metric family.
type FamilyOutput struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Help    string         `json:"help,omitempty"`
	Samples []SampleOutput `json:"samples"`
}

func newMetricsCmd(g *globalFlags) *cobra.Command {
	var (
		url     string
		filter  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Scrape a running server and print its metrics",
		Long: `Fetch the metrics endpoint of a running tp2-backend (or any Prometheus
text exposition endpoint) and print the metric families it returns.`,
		Example: `  tp2-backend metrics
  tp2-backend metrics --filter http_
  tp2-backend metrics --url http://10.0.0.5:4000/metrics --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			families, err := scrapeFamilies(ctx, url)
			if err != nil {
				return err
			}
			out := filterFamilies(families, filter)

			w := cmd.OutOrStdout()
			if g.json {
				return output.JSON(w, out)
			}
			if len(out) == 0 {
				fmt.Fprintln(w, "No metrics matched.")
				return nil
			}
			tw := output.Table(w)
			for _, fam := range out {
				fmt.Fprintf(tw, "# %s (%s)\t\n", fam.Name, fam.Type)
				for _, s := range fam.Samples {
					fmt.Fprintf(tw, "%s%s\t%s\n", s.Name, formatLabels(s.Labels), model.SampleValue(s.Value).String())
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&url, "url", DefaultMetricsURL, "Metrics endpoint to scrape")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show families whose name contains this string")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Scrape timeout")
	return cmd
}

// scrapeFamilies fetches and parses a text exposition.
func scrapeFamilies(ctx context.Context, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("Accept", "text/plain; version=0.0.4")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scrape %s: unexpected status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse exposition: %w", err)
	}
	return families, nil
}

// filterFamilies flattens families whose name contains filter, sorted by name.
func filterFamilies(families map[string]*dto.MetricFamily, filter string) []FamilyOutput {
	out := make([]FamilyOutput, 0, len(families))
	for name, fam := range families {
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		out = append(out, FamilyOutput{
			Name:    name,
			Type:    strings.ToLower(fam.GetType().String()),
			Help:    fam.GetHelp(),
			Samples: samplesOf(fam),
		})
	}
	slices.SortFunc(out, func(a, b FamilyOutput) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// samplesOf expands a family into exposition-style samples. Histograms
// yield their _bucket, _sum and _count series.
func samplesOf(fam *dto.MetricFamily) []SampleOutput {
	name := fam.GetName()
	var out []SampleOutput
	for _, m := range fam.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel()))
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}

		switch fam.GetType() {
		case dto.MetricType_COUNTER:
			out = append(out, SampleOutput{Name: name, Labels: labels, Value: m.GetCounter().GetValue()})
		case dto.MetricType_GAUGE:
			out = append(out, SampleOutput{Name: name, Labels: labels, Value: m.GetGauge().GetValue()})
		case dto.MetricType_HISTOGRAM:
			h := m.GetHistogram()
			for _, b := range h.GetBucket() {
				bl := withLabel(labels, model.BucketLabel, model.SampleValue(b.GetUpperBound()).String())
				out = append(out, SampleOutput{Name: name + "_bucket", Labels: bl, Value: float64(b.GetCumulativeCount())})
			}
			out = append(out,
				SampleOutput{Name: name + "_sum", Labels: labels, Value: h.GetSampleSum()},
				SampleOutput{Name: name + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
			)
		default:
			out = append(out, SampleOutput{Name: name, Labels: labels, Value: m.GetUntyped().GetValue()})
		}
	}
	return out
}

func withLabel(labels map[string]string, name, value string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out[name] = value
	return out
}

// formatLabels renders labels as {a="1",b="2"} in key order.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteByte('}')
	return b.String()
}
