package crew

const (
	DefaultMaxToolTurns     = 4
	DefaultToolOutputTokens = 3000
)

// Config bounds the work a single task may do.
type Config struct {
	// MaxToolTurns bounds the tool-call round trips of one task. The turn
	// after the last one is sent without tools so the agent has to answer.
	MaxToolTurns int `yaml:"max_tool_turns"`
	// ToolOutputTokens caps each tool result fed back to the model.
	ToolOutputTokens int `yaml:"tool_output_tokens"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.MaxToolTurns <= 0 {
		c.MaxToolTurns = DefaultMaxToolTurns
	}
	if c.ToolOutputTokens <= 0 {
		c.ToolOutputTokens = DefaultToolOutputTokens
	}
	return c
}
