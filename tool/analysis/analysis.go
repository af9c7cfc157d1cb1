// Package analysis provides the analyze-data tool: descriptive statistics,
// trends, correlations and naive linear forecasts over JSON or CSV payloads.
package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/tool"
)

// ID is the tool id.
const ID = "analyze-data"

// Analysis kinds.
const (
	KindSummary      = "summary"
	KindTrends       = "trends"
	KindCorrelations = "correlations"
	KindForecast     = "forecast"
)

const (
	forecastHorizon    = 3
	strongCorrelation  = 0.7
	flatSlopeTolerance = 1e-9
)

// Input is the validated tool input.
type Input struct {
	Data         string `json:"data"`
	Format       string `json:"format,omitempty"`
	AnalysisType string `json:"analysisType,omitempty"`
}

// Output is the tool output.
type Output struct {
	Insights                 []string       `json:"insights"`
	Statistics               map[string]any `json:"statistics"`
	VisualizationSuggestions []string       `json:"visualizationSuggestions,omitempty"`
}

// InputSchema describes the tool arguments.
var InputSchema = schema.Object(
	schema.Prop("data", schema.String().Describe("Data to analyze, as JSON or CSV text")),
	schema.Opt("analysisType", schema.Enum(KindSummary, KindTrends, KindCorrelations, KindForecast).Describe("Kind of analysis to run; defaults to summary")),
	schema.Opt("format", schema.Enum(FormatJSON, FormatCSV).Describe("Format of data; inferred when omitted")),
)

// OutputSchema describes the tool output.
var OutputSchema = schema.Object(
	schema.Prop("insights", schema.Array(schema.String())),
	schema.Prop("statistics", schema.Record(schema.Any())),
	schema.Opt("visualizationSuggestions", schema.Array(schema.String())),
)

// New returns the analyze-data tool.
func New(optFns ...func(o *tool.Options)) *tool.FunctionTool {
	return tool.NewTyped(tool.TypedSpec[Input, Output]{
		ID:          ID,
		Description: "Analyze provided data and generate insights",
		Input:       InputSchema,
		Output:      OutputSchema,
		Execute: func(_ context.Context, in Input) (Output, error) {
			return Analyze(in)
		},
	}, optFns...)
}

// Analyze runs the requested analysis. A payload that does not parse under
// its format is a *core.SchemaValidationError.
func Analyze(in Input) (Output, error) {
	ds, err := parse(in.Data, in.Format)
	if err != nil {
		return Output{}, err
	}

	kind := in.AnalysisType
	if kind == "" {
		kind = KindSummary
	}

	out := Output{
		Insights:   []string{},
		Statistics: map[string]any{"count": len(ds.rows), "fields": ds.fields, "format": ds.format},
	}

	out.Insights = append(out.Insights, fmt.Sprintf("The dataset contains %d records.", len(ds.rows)))
	if len(ds.fields) > 0 {
		out.Insights = append(out.Insights, "Fields: "+strings.Join(ds.fields, ", "))
	}

	names, cols := ds.numericColumns()

	summaries := make(map[string]Summary, len(names))
	for _, n := range names {
		s := Summarize(cols[n].values)
		summaries[n] = roundSummary(s)
		if kind == KindSummary {
			out.Insights = append(out.Insights, fmt.Sprintf("%s: mean %g (min %g, max %g).", n, round(s.Mean), s.Min, s.Max))
		}
	}
	if len(summaries) > 0 {
		out.Statistics["columns"] = summaries
	}

	switch kind {
	case KindTrends:
		trends(&out, names, cols)
	case KindCorrelations:
		correlations(&out, names, cols)
	case KindForecast:
		forecast(&out, names, cols, len(ds.rows))
	}

	if len(names) == 0 && kind != KindSummary {
		out.Insights = append(out.Insights, fmt.Sprintf("No numeric fields found; %s analysis needs numbers.", kind))
	}

	out.VisualizationSuggestions = suggestions(kind)

	return out, nil
}

func trends(out *Output, names []string, cols map[string]column) {
	stats := map[string]any{}

	for _, n := range names {
		ys := cols[n].values
		fit := FitXY(cols[n].xs(), ys)

		direction := "flat"
		switch {
		case fit.Slope > flatSlopeTolerance:
			direction = "increasing"
		case fit.Slope < -flatSlopeTolerance:
			direction = "decreasing"
		}

		entry := map[string]any{"slope": round(fit.Slope), "direction": direction}
		msg := fmt.Sprintf("%s is %s (slope %g per record)", n, direction, round(fit.Slope))

		if first, last := ys[0], ys[len(ys)-1]; first != 0 {
			change := round((last - first) / math.Abs(first) * 100)
			entry["changePercent"] = change
			msg += fmt.Sprintf(", %+g%% from first to last", change)
		}

		stats[n] = entry
		out.Insights = append(out.Insights, msg+".")
	}

	out.Statistics["trends"] = stats
}

func correlations(out *Output, names []string, cols map[string]column) {
	stats := map[string]any{}

	for i := range names {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			r, ok := Pearson(paired(cols[a], cols[b]))
			if !ok {
				continue
			}
			r = round(r)
			stats[a+"~"+b] = r

			if math.Abs(r) >= strongCorrelation {
				sign := "positive"
				if r < 0 {
					sign = "negative"
				}
				out.Insights = append(out.Insights, fmt.Sprintf("%s and %s have a strong %s correlation (r=%g).", a, b, sign, r))
			}
		}
	}

	if len(stats) == 0 {
		out.Insights = append(out.Insights, "No correlations could be computed; at least two varying numeric fields are needed.")
	}

	out.Statistics["correlations"] = stats
}

func forecast(out *Output, names []string, cols map[string]column, records int) {
	stats := map[string]any{}

	for _, n := range names {
		fit := FitXY(cols[n].xs(), cols[n].values)

		next := make([]float64, 0, forecastHorizon)
		for k := range forecastHorizon {
			next = append(next, round(fit.At(records+k)))
		}

		stats[n] = next
		out.Insights = append(out.Insights, fmt.Sprintf("%s is projected to reach %g over the next %d records.", n, next[len(next)-1], forecastHorizon))
	}

	out.Statistics["forecast"] = stats
}

func suggestions(kind string) []string {
	var primary string
	switch kind {
	case KindTrends, KindForecast:
		primary = "A line chart over the record order shows the direction of change."
	case KindCorrelations:
		primary = "Scatter plots of each strongly correlated pair make the relationship visible."
	default:
		primary = "A bar chart or pie chart suits comparing the fields of this dataset."
	}

	return []string{primary, "A histogram of each numeric field shows its distribution."}
}

func roundSummary(s Summary) Summary {
	s.Min, s.Max, s.Sum = round(s.Min), round(s.Max), round(s.Sum)
	s.Mean, s.Median, s.StdDev = round(s.Mean), round(s.Median), round(s.StdDev)
	return s
}
