package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/tool"
)

// BraveID is the tool id of the Brave search tool.
const BraveID = "brave-search"

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// BraveInput is the validated tool input.
type BraveInput struct {
	Query    string `json:"query"`
	Count    int    `json:"count,omitempty"`
	Offset   int    `json:"offset,omitempty"`
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`
}

// BraveResult is one Brave hit.
type BraveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// BraveOutput is the tool output.
type BraveOutput struct {
	Results []BraveResult `json:"results"`
}

// BraveOptions configures the Brave tool.
type BraveOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Tool       []func(o *tool.Options)
}

// BraveInputSchema describes the tool arguments.
var BraveInputSchema = schema.Object(
	schema.Prop("query", schema.String().Describe("The search query")),
	schema.Opt("count", schema.Integer().Describe("Number of results to return")),
	schema.Opt("offset", schema.Integer().Describe("Offset into the result list")),
	schema.Opt("country", schema.String().Describe("Country code, e.g. JP or US")),
	schema.Opt("language", schema.String().Describe("Language code, e.g. ja or en")),
)

// BraveOutputSchema describes the tool output.
var BraveOutputSchema = schema.Object(
	schema.Prop("results", schema.Array(schema.Object(
		schema.Prop("title", schema.String()),
		schema.Prop("url", schema.String()),
		schema.Prop("description", schema.String()),
	))),
)

type braveResponse struct {
	Web *struct {
		Results []BraveResult `json:"results"`
	} `json:"web"`
}

// NewBrave returns the brave-search tool.
func NewBrave(optFns ...func(o *BraveOptions)) *tool.FunctionTool {
	opts := BraveOptions{BaseURL: braveURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultClient()
	}

	return tool.NewTyped(tool.TypedSpec[BraveInput, BraveOutput]{
		ID:          BraveID,
		Description: "Search the web for real-time information on a given topic using Brave Search API",
		Input:       BraveInputSchema,
		Output:      BraveOutputSchema,
		Execute: func(ctx context.Context, in BraveInput) (BraveOutput, error) {
			return braveSearch(ctx, opts, in)
		},
	}, opts.Tool...)
}

func braveSearch(ctx context.Context, opts BraveOptions, in BraveInput) (BraveOutput, error) {
	if opts.APIKey == "" {
		return BraveOutput{}, core.NewConfigurationError("tool "+BraveID, "Brave API key is not set; set BRAVE_API_KEY")
	}

	q := url.Values{"q": {in.Query}}
	if in.Count > 0 {
		q.Set("count", strconv.Itoa(in.Count))
	}
	if in.Offset > 0 {
		q.Set("offset", strconv.Itoa(in.Offset))
	}
	if in.Country != "" {
		q.Set("country", in.Country)
	}
	if in.Language != "" {
		q.Set("search_lang", in.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return BraveOutput{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", opts.APIKey)

	var raw braveResponse
	if err := do(opts.HTTPClient, BraveID, req, &raw); err != nil {
		return BraveOutput{}, err
	}

	out := BraveOutput{Results: []BraveResult{}}
	if raw.Web != nil && raw.Web.Results != nil {
		out.Results = raw.Web.Results
	}

	return out, nil
}
