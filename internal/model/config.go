package model

import "time"

// Config holds every tunable of a docparity run
type Config struct {
	Documents DocumentsConfig `yaml:"documents" mapstructure:"documents"`
	Claims    string          `yaml:"claims" mapstructure:"claims"` // Claim set path; empty uses the built-in set
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Load      LoadConfig      `yaml:"load" mapstructure:"load"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DocumentsConfig locates the two documents
type DocumentsConfig struct {
	Reference string `yaml:"reference" mapstructure:"reference"`
	Candidate string `yaml:"candidate" mapstructure:"candidate"`
}

// EngineConfig tunes claim evaluation
type EngineConfig struct {
	Parallelism         int    `yaml:"parallelism" mapstructure:"parallelism"`                     // 1 = sequential
	Rounding            string `yaml:"rounding" mapstructure:"rounding"`                           // half_up or half_even
	FailOnIndeterminate bool   `yaml:"fail_on_indeterminate" mapstructure:"fail_on_indeterminate"` // Indeterminate counts as failure
	ReportSkippedRows   bool   `yaml:"report_skipped_rows" mapstructure:"report_skipped_rows"`     // Add a note per table with skipped rows
}

// LoadConfig tunes document loading
type LoadConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBytes          int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	Retries           uint          `yaml:"retries" mapstructure:"retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per host, remote URLs only
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format      string `yaml:"format" mapstructure:"format"` // text, json or markdown
	JSON        string `yaml:"json" mapstructure:"json"`     // Optional extra JSON report path
	Markdown    string `yaml:"markdown" mapstructure:"markdown"`
	ShowMatches bool   `yaml:"show_matches" mapstructure:"show_matches"`
}

// WatchConfig tunes watch mode
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" mapstructure:"debounce"`
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Parallelism: 1,
			Rounding:    "half_up",
		},
		Load: LoadConfig{
			Timeout:           30 * time.Second,
			MaxBytes:          10_000_000,
			Retries:           3,
			RetryDelay:        500 * time.Millisecond,
			RequestsPerSecond: 2,
			Burst:             2,
			CacheTTL:          time.Minute,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowMatches: true,
		},
		Watch: WatchConfig{
			Debounce:    300 * time.Millisecond,
			MinInterval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
