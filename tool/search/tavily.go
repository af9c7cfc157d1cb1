package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/tool"
)

// TavilyID is the tool id of the Tavily search tool.
const TavilyID = "tavily-search"

const tavilyURL = "https://api.tavily.com/search"

// TavilyInput is the validated tool input.
type TavilyInput struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// TavilyResult is one Tavily hit.
type TavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// TavilyOutput is the tool output.
type TavilyOutput struct {
	Results []TavilyResult `json:"results"`
	Answer  string         `json:"answer"`
}

// TavilyOptions configures the Tavily tool.
type TavilyOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Tool       []func(o *tool.Options)
}

// TavilyInputSchema describes the tool arguments.
var TavilyInputSchema = schema.Object(
	schema.Prop("query", schema.String().Describe("The search query to look up")),
	schema.Opt("search_depth", schema.Enum("basic", "advanced").Describe("The depth of the search (basic or advanced)")),
	schema.Opt("include_domains", schema.Array(schema.String()).Describe("Specific domains to include in the search")),
	schema.Opt("exclude_domains", schema.Array(schema.String()).Describe("Specific domains to exclude from the search")),
)

// TavilyOutputSchema describes the tool output.
var TavilyOutputSchema = schema.Object(
	schema.Prop("results", schema.Array(schema.Object(
		schema.Prop("title", schema.String()),
		schema.Prop("url", schema.String()),
		schema.Prop("content", schema.String()),
	))),
	schema.Prop("answer", schema.String()),
)

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`
	IncludeAnswer  bool     `json:"include_answer"`
}

// NewTavily returns the tavily-search tool.
func NewTavily(optFns ...func(o *TavilyOptions)) *tool.FunctionTool {
	opts := TavilyOptions{BaseURL: tavilyURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultClient()
	}

	return tool.NewTyped(tool.TypedSpec[TavilyInput, TavilyOutput]{
		ID:          TavilyID,
		Description: "Search the web for real-time information on a given topic",
		Input:       TavilyInputSchema,
		Output:      TavilyOutputSchema,
		Execute: func(ctx context.Context, in TavilyInput) (TavilyOutput, error) {
			return tavilySearch(ctx, opts, in)
		},
	}, opts.Tool...)
}

func tavilySearch(ctx context.Context, opts TavilyOptions, in TavilyInput) (TavilyOutput, error) {
	if opts.APIKey == "" {
		return TavilyOutput{}, core.NewConfigurationError("tool "+TavilyID, "Tavily API key is not set; set TAVILY_API_KEY")
	}

	body := tavilyRequest{
		Query:          in.Query,
		SearchDepth:    in.SearchDepth,
		IncludeDomains: in.IncludeDomains,
		ExcludeDomains: in.ExcludeDomains,
		IncludeAnswer:  true,
	}
	if body.SearchDepth == "" {
		body.SearchDepth = "basic"
	}
	if body.IncludeDomains == nil {
		body.IncludeDomains = []string{}
	}
	if body.ExcludeDomains == nil {
		body.ExcludeDomains = []string{}
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return TavilyOutput{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.BaseURL, buf)
	if err != nil {
		return TavilyOutput{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+opts.APIKey)

	var out TavilyOutput
	if err := do(opts.HTTPClient, TavilyID, req, &out); err != nil {
		return TavilyOutput{}, err
	}
	if out.Results == nil {
		out.Results = []TavilyResult{}
	}

	return out, nil
}
