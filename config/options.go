package config

// Option customizes a Config built by New
type Option func(*Config)

func WithOutput(base string) Option {
	return func(c *Config) { c.Output = base }
}

func WithDatabase(path string) Option {
	return func(c *Config) { c.Database = path }
}

func WithColorMode(mode ColorMode) Option {
	return func(c *Config) { c.ColorMode = mode }
}

func WithGaussian(gaussian bool) Option {
	return func(c *Config) { c.Gaussian = gaussian }
}

func WithDataRange(r float64) Option {
	return func(c *Config) { c.DataRange = r }
}

func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithLogging sets the log verbosity and the optional JSON log file
func WithLogging(debug, quiet bool, logFile string) Option {
	return func(c *Config) {
		c.Debug = debug
		c.Quiet = quiet
		c.LogFile = logFile
	}
}
