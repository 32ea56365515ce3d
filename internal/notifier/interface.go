package notifier

import "context"

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier delivers a pre-formatted report to one channel. Formatting
// happens upstream so every channel carries the same content.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers the report text.
	Send(ctx context.Context, text string) error
}
