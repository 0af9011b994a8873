package ranking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/talent-scheduler/internal/testfixtures"
)

type completionStub struct {
	text  string
	err   error
	calls int
}

func (c *completionStub) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.text, nil
}

func windowContext(t *testing.T) Context {
	t.Helper()
	return Context{
		CandidateName:    "Dana Smith",
		StageName:        "Technical Screen",
		InterviewerCount: 2,
		DurationMinutes:  60,
		WindowStart:      time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		WindowEnd:        time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC),
	}
}

func slotAt(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func TestParseCompletion_ExtractsArrayFromProse(t *testing.T) {
	t.Parallel()

	rc := windowContext(t)
	text := "Here are my picks [not json] followed by the answer:\n" +
		`[{"dateTime":"2024-06-11T10:00:00Z","reason":"mid-morning focus"},` +
		`{"dateTime":"2024-06-12T14:00:00Z","reason":"after lunch"}]` +
		"\nLet me know if you need more."

	outcome := ParseCompletion(text, rc.WindowStart, rc.WindowEnd)

	if outcome.Status != ParseStatusOK {
		t.Fatalf("expected ok outcome, got %s", outcome.Status)
	}
	if len(outcome.Options) != 2 {
		t.Fatalf("expected 2 options, got %v", outcome.Options)
	}
	if outcome.Options[0].Reason != "mid-morning focus" {
		t.Errorf("unexpected reason %q", outcome.Options[0].Reason)
	}
}

func TestParseCompletion_DiscardsInvalidAndOutOfWindowEntries(t *testing.T) {
	t.Parallel()

	rc := windowContext(t)
	text := `[
		{"dateTime":"2024-06-11T10:00:00Z","reason":"good"},
		{"dateTime":"someday soon","reason":"unparsable"},
		{"dateTime":"2024-07-01T10:00:00Z","reason":"past the window"},
		{"dateTime":"2024-06-01T10:00:00Z","reason":"before the window"}
	]`

	outcome := ParseCompletion(text, rc.WindowStart, rc.WindowEnd)

	if outcome.Status != ParseStatusOK {
		t.Fatalf("expected ok outcome, got %s", outcome.Status)
	}
	if len(outcome.Options) != 1 {
		t.Fatalf("expected a single surviving option, got %v", outcome.Options)
	}
}

func TestParseCompletion_CapsAtFiveEntries(t *testing.T) {
	t.Parallel()

	rc := windowContext(t)
	text := `[
		{"dateTime":"2024-06-10T10:00:00Z"},
		{"dateTime":"2024-06-10T11:00:00Z"},
		{"dateTime":"2024-06-10T12:00:00Z"},
		{"dateTime":"2024-06-10T13:00:00Z"},
		{"dateTime":"2024-06-10T14:00:00Z"},
		{"dateTime":"2024-06-10T15:00:00Z"},
		{"dateTime":"2024-06-10T16:00:00Z"}
	]`

	outcome := ParseCompletion(text, rc.WindowStart, rc.WindowEnd)
	if len(outcome.Options) != MaxOptions {
		t.Fatalf("expected %d options, got %d", MaxOptions, len(outcome.Options))
	}
}

func TestParseCompletion_MalformedCases(t *testing.T) {
	t.Parallel()

	rc := windowContext(t)
	cases := map[string]string{
		"no array at all":       "I would pick Tuesday morning.",
		"array of wrong shape":  `[1, 2, 3]`,
		"empty array":           `[]`,
		"all entries invalid":   `[{"dateTime":"tomorrow"},{"dateTime":""}]`,
		"unterminated array":    `[{"dateTime":"2024-06-11T10:00:00Z"`,
		"empty response":        "",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			outcome := ParseCompletion(text, rc.WindowStart, rc.WindowEnd)
			if outcome.Status != ParseStatusMalformed {
				t.Fatalf("expected malformed outcome, got %s (%v)", outcome.Status, outcome.Options)
			}
		})
	}
}

func TestParseCompletion_AcceptsZonelessTimestampsAsWindowLocal(t *testing.T) {
	t.Parallel()

	rc := windowContext(t)
	outcome := ParseCompletion(`[{"dateTime":"2024-06-11T10:00:00","reason":"r"}]`, rc.WindowStart, rc.WindowEnd)

	if outcome.Status != ParseStatusOK {
		t.Fatalf("expected ok outcome, got %s", outcome.Status)
	}
	if !outcome.Options[0].Start.Equal(slotAt(11, 10)) {
		t.Fatalf("unexpected start %s", outcome.Options[0].Start)
	}
}

func TestFallback_ReturnsEarliestSlotsAscending(t *testing.T) {
	t.Parallel()

	slots := []time.Time{
		slotAt(12, 14), slotAt(10, 9), slotAt(13, 11),
		slotAt(10, 16), slotAt(11, 10), slotAt(12, 9), slotAt(14, 9),
	}

	options := Fallback(slots)

	if len(options) != MaxOptions {
		t.Fatalf("expected %d options, got %d", MaxOptions, len(options))
	}
	for i := 1; i < len(options); i++ {
		if !options[i-1].Start.Before(options[i].Start) {
			t.Fatalf("options not in ascending order: %v", options)
		}
	}
	if !options[0].Start.Equal(slotAt(10, 9)) {
		t.Fatalf("expected earliest slot first, got %s", options[0].Start)
	}
}

func TestFallback_FewerSlotsThanCap(t *testing.T) {
	t.Parallel()

	options := Fallback([]time.Time{slotAt(10, 9), slotAt(10, 11)})
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
}

func TestRanker_UsesServiceAnswerWhenValid(t *testing.T) {
	t.Parallel()

	client := &completionStub{text: `[{"dateTime":"2024-06-12T14:00:00Z","reason":"afternoon"}]`}
	ranker := NewRanker(client, time.Second, slog.New(slog.DiscardHandler))

	options := ranker.Rank(context.Background(), []time.Time{slotAt(10, 9), slotAt(12, 14)}, windowContext(t))

	if len(options) != 1 || !options[0].Start.Equal(slotAt(12, 14)) {
		t.Fatalf("expected the service's pick, got %v", options)
	}
}

func TestRanker_FallsBackWhenServiceUnreachable(t *testing.T) {
	t.Parallel()

	client := &completionStub{err: errors.New("connection refused")}
	ranker := NewRanker(client, time.Second, slog.New(slog.DiscardHandler))

	slots := []time.Time{slotAt(12, 14), slotAt(10, 9), slotAt(11, 10)}
	options := ranker.Rank(context.Background(), slots, windowContext(t))

	if len(options) != 3 {
		t.Fatalf("expected all 3 slots, got %v", options)
	}
	if !options[0].Start.Equal(slotAt(10, 9)) {
		t.Fatalf("fallback should order ascending, got %v", options)
	}
}

func TestRanker_FallsBackOnMalformedAnswer(t *testing.T) {
	t.Parallel()

	client := &completionStub{text: "Tuesday sounds nice."}
	ranker := NewRanker(client, time.Second, slog.New(slog.DiscardHandler))

	options := ranker.Rank(context.Background(), []time.Time{slotAt(10, 9)}, windowContext(t))
	if len(options) != 1 || options[0].Reason != "" {
		t.Fatalf("expected reasonless fallback option, got %v", options)
	}
}

func TestRanker_SendsPromptThroughSharedFakeService(t *testing.T) {
	t.Parallel()

	service := testfixtures.NewCompletionService(`[{"dateTime":"2024-06-12T14:00:00Z","reason":"quiet afternoon"}]`)
	ranker := NewRanker(service, time.Second, slog.New(slog.DiscardHandler))

	options := ranker.Rank(context.Background(), []time.Time{slotAt(10, 9), slotAt(12, 14)}, windowContext(t))
	if len(options) != 1 || options[0].Reason != "quiet afternoon" {
		t.Fatalf("expected the service's reasoned pick, got %v", options)
	}

	prompts := service.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one recorded prompt, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Dana Smith") || !strings.Contains(prompts[0], "2024-06-10T09:00:00Z") {
		t.Fatalf("prompt is missing the candidate or the slots: %q", prompts[0])
	}
}

func TestRanker_EmptySlotsYieldEmptyResultWithoutServiceCall(t *testing.T) {
	t.Parallel()

	client := &completionStub{}
	ranker := NewRanker(client, time.Second, slog.New(slog.DiscardHandler))

	if options := ranker.Rank(context.Background(), nil, windowContext(t)); len(options) != 0 {
		t.Fatalf("expected no options, got %v", options)
	}
	if client.calls != 0 {
		t.Fatalf("service should not be consulted for zero slots")
	}
}
