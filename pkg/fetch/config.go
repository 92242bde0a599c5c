package fetch

const (
	DefaultUserAgent       = "Mozilla/5.0"
	DefaultHTMLTimeoutSecs = 10
	DefaultPDFTimeoutSecs  = 20
	DefaultMaxHTMLBytes    = 5 << 20
	DefaultMaxPDFBytes     = 50 << 20
	DefaultMaxRedirects    = 5
)

// Config controls how pages and documents are downloaded.
type Config struct {
	UserAgent       string `yaml:"user_agent"`
	HTMLTimeoutSecs int    `yaml:"html_timeout_seconds"`
	PDFTimeoutSecs  int    `yaml:"pdf_timeout_seconds"`
	MaxHTMLBytes    int64  `yaml:"max_html_bytes"`
	MaxPDFBytes     int64  `yaml:"max_pdf_bytes"`
	MaxRedirects    int    `yaml:"max_redirects"`
	// TempDir holds downloaded PDFs until they are extracted. Empty means os.TempDir().
	TempDir string `yaml:"temp_dir"`
	// AllowPrivateHosts disables the loopback/private network guard.
	AllowPrivateHosts bool `yaml:"allow_private_hosts"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.HTMLTimeoutSecs <= 0 {
		c.HTMLTimeoutSecs = DefaultHTMLTimeoutSecs
	}
	if c.PDFTimeoutSecs <= 0 {
		c.PDFTimeoutSecs = DefaultPDFTimeoutSecs
	}
	if c.MaxHTMLBytes <= 0 {
		c.MaxHTMLBytes = DefaultMaxHTMLBytes
	}
	if c.MaxPDFBytes <= 0 {
		c.MaxPDFBytes = DefaultMaxPDFBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	return c
}
