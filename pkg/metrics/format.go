package metrics

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// formatSample renders one sample line, merging defaults under the sample's own labels.
func formatSample(s Sample, defaults map[string]string) string {
	labels := s.Labels
	if len(defaults) > 0 {
		labels = make(map[string]string, len(defaults)+len(s.Labels))
		for k, v := range defaults {
			labels[k] = v
		}
		for k, v := range s.Labels {
			labels[k] = v
		}
	}
	if len(labels) == 0 {
		return s.Name + " " + formatFloat(s.Value)
	}
	return s.Name + "{" + formatLabels(labels) + "} " + formatFloat(s.Value)
}

// formatLabels formats labels as key="value",key="value" sorted by key.
func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(labels[k]))
		b.WriteByte('"')
	}
	return b.String()
}

// formatFloat formats a float64 for exposition output.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
)

// escapeHelp escapes help text for exposition.
func escapeHelp(s string) string {
	return helpEscaper.Replace(s)
}

// escapeLabelValue escapes label values for exposition.
func escapeLabelValue(s string) string {
	return labelEscaper.Replace(s)
}
