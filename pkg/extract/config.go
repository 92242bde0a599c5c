package extract

const (
	DefaultMinParagraphChars = 30
	DefaultMinTotalChars     = 100
)

// Config holds the noise filters applied to extracted text. Lengths are
// counted in characters, not bytes.
type Config struct {
	// MinParagraphChars drops HTML paragraphs whose trimmed text is not longer than this.
	MinParagraphChars int `yaml:"min_paragraph_chars"`
	// MinTotalChars marks an HTML page empty when the joined text is not longer than this.
	MinTotalChars int `yaml:"min_total_chars"`
	// MaxPDFPages stops PDF extraction after this many pages. Zero reads every page.
	MaxPDFPages int `yaml:"max_pdf_pages"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.MinParagraphChars <= 0 {
		c.MinParagraphChars = DefaultMinParagraphChars
	}
	if c.MinTotalChars <= 0 {
		c.MinTotalChars = DefaultMinTotalChars
	}
	if c.MaxPDFPages < 0 {
		c.MaxPDFPages = 0
	}
	return c
}
