package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go-parametric-sim-tracker/internal/catalog"
	"go-parametric-sim-tracker/internal/matrix"
)

type fakeGenerator struct {
	enabled bool
	text    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Enabled() bool { return f.enabled }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestAnalyze_UnavailableWithoutClient(t *testing.T) {
	store := matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusFailed))

	b := New(nil, 10)
	if _, err := b.Analyze(context.Background(), store); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	b = New(&fakeGenerator{enabled: false}, 10)
	if _, err := b.Analyze(context.Background(), store); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for disabled client, got %v", err)
	}
}

func TestAnalyze_ZeroFailuresSkipsExternalCall(t *testing.T) {
	store := matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusPending))
	gen := &fakeGenerator{enabled: true, text: "should not be used"}
	b := New(gen, 10)

	analysis, err := b.Analyze(context.Background(), store)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !analysis.Skipped {
		t.Fatalf("expected skipped analysis")
	}
	if gen.calls != 0 {
		t.Fatalf("external service called %d times, expected 0", gen.calls)
	}
	if !strings.Contains(analysis.Text, "No failures detected") {
		t.Fatalf("unexpected text %q", analysis.Text)
	}
	if _, ok := b.Last(); ok {
		t.Fatalf("skip must not overwrite the cached analysis")
	}
}

func TestAnalyze_CachesSuccessfulResponse(t *testing.T) {
	store := matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusFailed))
	gen := &fakeGenerator{enabled: true, text: "Boiler backup undersized in cold zones."}
	b := New(gen, 10)

	analysis, err := b.Analyze(context.Background(), store)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.FailedCount != 1620 {
		t.Fatalf("expected 1620 failures, got %d", analysis.FailedCount)
	}
	if analysis.SampleSize != 10 {
		t.Fatalf("expected sample of 10, got %d", analysis.SampleSize)
	}
	if gen.calls != 1 {
		t.Fatalf("expected a single call, got %d", gen.calls)
	}

	last, ok := b.Last()
	if !ok || last.Text != analysis.Text {
		t.Fatalf("expected cached analysis, got ok=%v %+v", ok, last)
	}
}

func TestAnalyze_FailurePreservesPreviousAnalysis(t *testing.T) {
	store := matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusFailed))
	gen := &fakeGenerator{enabled: true, text: "first answer"}
	b := New(gen, 10)

	if _, err := b.Analyze(context.Background(), store); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	before := store.Snapshot()

	gen.err = errors.New("upstream quota exceeded")
	_, err := b.Analyze(context.Background(), store)
	if !errors.Is(err, ErrCallFailed) {
		t.Fatalf("expected ErrCallFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream quota exceeded") {
		t.Fatalf("error should carry upstream text, got %v", err)
	}

	last, ok := b.Last()
	if !ok || last.Text != "first answer" {
		t.Fatalf("previous analysis lost: ok=%v %+v", ok, last)
	}

	after := store.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("store mutated by failed advisor call at %s", before[i].ID)
		}
	}
}

func TestBuildPrompt_ContainsRoleCountAndSample(t *testing.T) {
	store := matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusFailed))
	sample := store.FailedRows(10)

	prompt := BuildPrompt(1620, sample)
	if !strings.Contains(prompt, "Building Energy Simulation QC expert") {
		t.Fatalf("missing role framing: %q", prompt)
	}
	if !strings.Contains(prompt, "Total failed batches: 1620") {
		t.Fatalf("missing failure count: %q", prompt)
	}
	for _, row := range sample {
		if !strings.Contains(prompt, row.ID) {
			t.Fatalf("sample row %s missing from prompt", row.ID)
		}
	}
}
