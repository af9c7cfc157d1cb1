// Package research assembles the Research Network: a coordinator over a web
// search agent, a data analysis agent and a content creation agent.
package research

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/network"
	"github.com/hupe1980/agentnet/tool"
)

// Member and network names.
const (
	NetworkName              = "Research Network"
	WebSearchAgentName       = "Web Search Agent"
	DataAnalysisAgentName    = "Data Analysis Agent"
	ContentCreationAgentName = "Content Creation Agent"
)

const webSearchInstructions = `You are a web search expert.
Search for information on the given topic and provide the most recent and relevant findings.
Always cite reliable sources and include the source URL with every result.

Use the %s tool to get real-time search results.
Extract the relevant information from the results and present it clearly.`

const dataAnalysisInstructions = `You are a data analysis expert.
Analyze the data you are given and extract insights and trends.
Suggest how the data could be visualized, and state your conclusions clearly and concisely.

Use the %s tool to analyze data and extract insights.`

const contentCreationInstructions = `You are a content creation expert.
Turn the information and data you are given into readable, engaging content.
Use a tone and structure suited to the audience and suggest visual elements where helpful.`

const coordinatorInstructions = `You are a coordinator who directs specialized agents to carry out comprehensive research.

Available agents:
1. Web Search Agent - finds current information on a topic using web search.
2. Data Analysis Agent - analyzes collected data and provides insights.
3. Content Creation Agent - writes engaging content from the research results.

Make the most of each agent's expertise to answer the user's question comprehensively.
Split complex tasks into small parts and assign each to the right agent.
Integrate the results from every agent into one coherent, complete answer.`

// Deps are the collaborators of the network.
type Deps struct {
	// Model backs the coordinator and every member.
	Model model.Model
	// Search is tavily-search or brave-search.
	Search tool.Tool
	// Analysis is analyze-data.
	Analysis tool.Tool
}

// Options configures the network and its members.
type Options struct {
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	MaxConcurrency int
	AgentTimeout   time.Duration
	ModelTimeout   time.Duration
}

// New builds the Research Network.
func New(deps Deps, optFns ...func(o *Options)) (*network.Network, error) {
	opts := Options{MaxConcurrency: 4}
	for _, fn := range optFns {
		fn(&opts)
	}

	if deps.Search == nil || deps.Analysis == nil {
		return nil, fmt.Errorf("research: search and analysis tools are required")
	}

	agentOpts := func(o *agent.Options) {
		o.Logger = opts.Logger
		o.ModelTimeout = opts.ModelTimeout
	}

	search, err := agent.New(agent.Spec{
		Name:         WebSearchAgentName,
		Instructions: fmt.Sprintf(webSearchInstructions, deps.Search.Name()),
		Model:        deps.Model,
		Tools:        tool.Set(deps.Search),
	}, agentOpts)
	if err != nil {
		return nil, err
	}

	analysis, err := agent.New(agent.Spec{
		Name:         DataAnalysisAgentName,
		Instructions: fmt.Sprintf(dataAnalysisInstructions, deps.Analysis.Name()),
		Model:        deps.Model,
		Tools:        tool.Set(deps.Analysis),
	}, agentOpts)
	if err != nil {
		return nil, err
	}

	content, err := agent.New(agent.Spec{
		Name:         ContentCreationAgentName,
		Instructions: contentCreationInstructions,
		Model:        deps.Model,
	}, agentOpts)
	if err != nil {
		return nil, err
	}

	return network.New(network.Spec{
		Name:         NetworkName,
		Instructions: coordinatorInstructions,
		Model:        deps.Model,
		Members:      []*agent.Agent{search, analysis, content},
	}, func(o *network.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.MaxConcurrency = opts.MaxConcurrency
		o.AgentTimeout = opts.AgentTimeout
	})
}
