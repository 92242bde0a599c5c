package research

const (
	DefaultConcurrency = 1
	MaxConcurrency     = 16
)

// Config controls how candidates are processed.
type Config struct {
	// Concurrency bounds the number of URLs fetched at once. One keeps the
	// pipeline sequential.
	Concurrency int `yaml:"concurrency"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Concurrency > MaxConcurrency {
		c.Concurrency = MaxConcurrency
	}
	return c
}
