package crew

import (
	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/agents/tools"
	"github.com/webresearch/research-bridge/pkg/shared/toolspec"
)

// DefaultAgents returns the researcher, analyst and summarizer.
func DefaultAgents() (researcher, analyst, summarizer *Agent) {
	researcher = &Agent{
		Role:      "Research Analyst",
		Goal:      "Gather and verify comprehensive, relevant, and up-to-date information on {topic}.",
		Backstory: "You are a research analyst skilled in finding and validating factual information from multiple sources.",
		Tools:     []string{toolspec.WebSearchName},
	}
	analyst = &Agent{
		Role:      "Insights Analyst",
		Goal:      "Analyze and interpret research findings on {topic}.",
		Backstory: "You extract key insights from research data and synthesize meaningful conclusions.",
	}
	summarizer = &Agent{
		Role:      "Knowledge Synthesizer",
		Goal:      "Create a structured, clear, and well-supported summary of research findings on {topic}.",
		Backstory: "You distill complex research into structured summaries with clarity and precision.",
	}
	return researcher, analyst, summarizer
}

// DefaultTasks returns research, analyze and summarize bound to the given agents.
func DefaultTasks(researcher, analyst, summarizer *Agent) []*Task {
	return []*Task{
		{
			Name: "research",
			Description: "1. Conduct thorough web searches on {topic}.\n" +
				"2. Gather information from reliable sources.\n" +
				"3. Document key findings with sources.\n" +
				"4. Identify main themes and trends.\n" +
				"5. Note any conflicting information or debates in the field.",
			ExpectedOutput: "A detailed research document with findings and sources for each key point.",
			Agent:          researcher,
		},
		{
			Name: "analyze",
			Description: "1. Review all research findings.\n" +
				"2. Identify patterns and relationships.\n" +
				"3. Evaluate the reliability of sources.\n" +
				"4. Compare and contrast different viewpoints.\n" +
				"5. Draw evidence-based conclusions.",
			ExpectedOutput: "An analytical report highlighting key insights, patterns, and supported conclusions.",
			Agent:          analyst,
		},
		{
			Name: "summarize",
			Description: "1. Create a structured summary of all findings.\n" +
				"2. Highlight key conclusions and insights.\n" +
				"3. Include relevant citations and sources.\n" +
				"4. Organize information in a clear, logical manner.\n" +
				"5. Add recommendations for further research if applicable.",
			ExpectedOutput: "A comprehensive research summary in markdown format, including executive summary, key findings, methodology, and citations.",
			Agent:          summarizer,
		},
	}
}

// NewDefault builds the three-step research crew. The researcher may call the
// web search tool through executor.
func NewDefault(model Model, executor *tools.Executor, cfg *Config, log zerolog.Logger) *Crew {
	researcher, analyst, summarizer := DefaultAgents()
	return New(model, executor,
		[]*Agent{researcher, analyst, summarizer},
		DefaultTasks(researcher, analyst, summarizer),
		cfg, log)
}
