package factory

import (
	"fmt"

	"github.com/paperdesk/paperdesk/internal/analyst"
	"github.com/paperdesk/paperdesk/internal/analyst/claude"
	"github.com/paperdesk/paperdesk/internal/analyst/ollama"
	"github.com/paperdesk/paperdesk/internal/analyst/openai"
)

// New creates an analyst provider from settings. An empty provider name
// disables narration and returns nil without error.
func New(s analyst.Settings) (analyst.Provider, error) {
	switch s.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(s.APIKey, s.Model)
	case "openai":
		return openai.New(s.APIKey, s.Model)
	case "ollama":
		return ollama.New(s.Endpoint, s.Model)
	default:
		return nil, fmt.Errorf("unknown analyst provider: %s", s.Provider)
	}
}
