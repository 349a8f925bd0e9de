package ui

// Config contains the window settings the presenter needs.
type Config struct {
	Title string
	Scale int
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "dottick"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}
