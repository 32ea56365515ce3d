package analyst

import (
	"context"
	"errors"
	"testing"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
	last  ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResponse{Content: f.reply}, nil
}

func someRecs(n int) []core.Recommendation {
	recs := make([]core.Recommendation, n)
	for i := range recs {
		recs[i] = core.Recommendation{
			Symbol:       "SYM",
			AssetClass:   core.AssetStock,
			CurrentPrice: 100,
			TargetPrice:  105,
			Score:        90,
			Reason:       "RSI Oversold, MACD Bullish",
		}
	}
	return recs
}

func TestAnnotate_RewritesReason(t *testing.T) {
	p := &fakeProvider{reply: "  Oversold bounce with momentum confirmation.  "}
	n := NewNarrator(p, nil)

	out := n.Annotate(context.Background(), someRecs(1))

	require.Len(t, out, 1)
	assert.Equal(t, "Oversold bounce with momentum confirmation.", out[0].Reason)
	assert.Contains(t, p.last.Messages[0].Content, "SYM")
	assert.Contains(t, p.last.Messages[0].Content, "RSI Oversold")
}

func TestAnnotate_BoundsModelCalls(t *testing.T) {
	p := &fakeProvider{reply: "note"}
	n := NewNarrator(p, nil)

	out := n.Annotate(context.Background(), someRecs(10))

	assert.Len(t, out, 10)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, "RSI Oversold, MACD Bullish", out[5].Reason, "untouched past the cap")
}

func TestAnnotate_FailureKeepsOriginalReason(t *testing.T) {
	p := &fakeProvider{err: errors.New("quota exceeded")}
	n := NewNarrator(p, nil)

	out := n.Annotate(context.Background(), someRecs(1))

	assert.Equal(t, "RSI Oversold, MACD Bullish", out[0].Reason)
}

func TestAnnotate_NilProviderPassthrough(t *testing.T) {
	n := NewNarrator(nil, nil)
	recs := someRecs(2)

	out := n.Annotate(context.Background(), recs)

	assert.Equal(t, recs, out)
}

func TestAnnotate_DoesNotMutateInput(t *testing.T) {
	p := &fakeProvider{reply: "new note"}
	n := NewNarrator(p, nil)
	recs := someRecs(1)

	_ = n.Annotate(context.Background(), recs)

	assert.Equal(t, "RSI Oversold, MACD Bullish", recs[0].Reason)
}
