// Package advisor turns failed simulation batches into a QC analysis by
// prompting a hosted generative-text model and caching the last answer.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"go-parametric-sim-tracker/internal/matrix"
)

var (
	// ErrUnavailable means no API key is configured and the feature is off.
	ErrUnavailable = errors.New("advisor unavailable: no API key configured")
	// ErrCallFailed wraps an upstream generation failure.
	ErrCallFailed = errors.New("advisor call failed")
)

// Generator is the single synchronous call the bridge consumes.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analysis is one advisor result held for display until overwritten.
type Analysis struct {
	Text        string    `json:"text"`
	FailedCount int       `json:"failed_count"`
	SampleSize  int       `json:"sample_size"`
	GeneratedAt time.Time `json:"generated_at"`
	Skipped     bool      `json:"skipped"`
}

// Bridge mediates between the matrix store and the external model.
type Bridge struct {
	client      Generator
	sampleLimit int

	mu   sync.Mutex
	last *Analysis
	now  func() time.Time
}

func New(client Generator, sampleLimit int) *Bridge {
	if sampleLimit <= 0 {
		sampleLimit = 10
	}
	return &Bridge{
		client:      client,
		sampleLimit: sampleLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether the external model can be called.
func (b *Bridge) Enabled() bool {
	return b != nil && b.client != nil && b.client.Enabled()
}

// Last returns the cached analysis, if any.
func (b *Bridge) Last() (Analysis, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Analysis{}, false
	}
	return *b.last, true
}

// Analyze extracts failed rows from the store and asks the model for root
// causes. With zero failures it short-circuits to a success message without
// calling the service and without overwriting the cached analysis. On
// upstream failure the error is returned and the cache is left intact.
func (b *Bridge) Analyze(ctx context.Context, store *matrix.Store) (Analysis, error) {
	if !b.Enabled() {
		return Analysis{}, ErrUnavailable
	}

	failedTotal := matrix.CountsByStatus(store.Snapshot())[matrix.StatusFailed]
	if failedTotal == 0 {
		return Analysis{
			Text:        "No failures detected! Great job.",
			GeneratedAt: b.now(),
			Skipped:     true,
		}, nil
	}

	sample := store.FailedRows(b.sampleLimit)
	prompt := BuildPrompt(failedTotal, sample)

	text, err := b.client.Generate(ctx, prompt)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrCallFailed, err)
	}

	analysis := Analysis{
		Text:        text,
		FailedCount: failedTotal,
		SampleSize:  len(sample),
		GeneratedAt: b.now(),
	}

	b.mu.Lock()
	b.last = &analysis
	b.mu.Unlock()
	return analysis, nil
}

// BuildPrompt formats the QC prompt: role framing, failure count and a
// tabular sample of the failed batches' identifying fields.
func BuildPrompt(failedTotal int, sample []matrix.BatchRow) string {
	var sb strings.Builder
	sb.WriteString("You are a Building Energy Simulation QC expert.\n")
	sb.WriteString("Analyze these failed simulation batches and suggest potential root causes ")
	sb.WriteString("(e.g., HVAC sizing issues in specific climates).\n\n")
	fmt.Fprintf(&sb, "Total failed batches: %d\n\n", failedTotal)
	fmt.Fprintf(&sb, "Failed batches sample (%d shown):\n", len(sample))

	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH ID\tARCHETYPE\tLAYOUT\tLOCATION\tZONE\tHVAC")
	for _, row := range sample {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.Archetype, row.Layout, row.LocationCity, row.ClimateZone, row.HVAC)
	}
	_ = tw.Flush()

	return sb.String()
}
