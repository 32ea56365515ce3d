package analyst

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/paperdesk/paperdesk/internal/core"
)

const systemPrompt = `You are a market analyst for a paper-trading desk.
Given one candidate trade with its technical context, reply with a single
short sentence explaining the setup in plain language. No advice, no
disclaimers, no preamble.`

// Narrator enriches recommendations with a model-written rationale. It is
// strictly best effort: any provider failure leaves the recommendation's
// original reason in place.
type Narrator struct {
	provider Provider
	log      *zap.Logger
	maxNotes int
}

// NewNarrator creates a Narrator. A nil provider disables narration.
func NewNarrator(p Provider, log *zap.Logger) *Narrator {
	return &Narrator{provider: p, log: log, maxNotes: 3}
}

// Annotate rewrites the Reason of the top recommendations with a narrated
// note. Only the first few are sent to the model to bound cost.
func (n *Narrator) Annotate(ctx context.Context, recs []core.Recommendation) []core.Recommendation {
	if n.provider == nil {
		return recs
	}

	out := append([]core.Recommendation(nil), recs...)
	for i := range out {
		if i >= n.maxNotes {
			break
		}

		note, err := n.narrate(ctx, out[i])
		if err != nil {
			if n.log != nil {
				n.log.Warn("analyst narration failed",
					zap.String("symbol", out[i].Symbol),
					zap.String("provider", n.provider.Name()),
					zap.Error(err))
			}
			continue
		}
		if note != "" {
			out[i].Reason = note
		}
	}
	return out
}

func (n *Narrator) narrate(ctx context.Context, rec core.Recommendation) (string, error) {
	prompt := fmt.Sprintf(
		"Symbol %s (%s), price %.2f, target %.2f (%.1f%%), score %.0f, signals: %s, timeframe %s, risk %s.",
		rec.Symbol, rec.AssetClass, rec.CurrentPrice, rec.TargetPrice,
		rec.ProjectedProfitPercent(), rec.Score, rec.Reason, rec.Timeframe, rec.RiskLevel)

	resp, err := n.provider.Chat(ctx, ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: "user", Content: prompt}},
		MaxTokens:    120,
		Temperature:  0.3,
	})
	if err != nil {
		return "", core.WrapError(core.ErrAnalystFailed, err)
	}
	return strings.TrimSpace(resp.Content), nil
}
