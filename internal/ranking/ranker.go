package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// MaxOptions caps how many proposals a candidate is presented with.
const MaxOptions = 5

// RankedSlot is one proposed interview start, optionally annotated with the
// ranking service's reasoning. Fallback-selected slots carry no reason.
type RankedSlot struct {
	Start  time.Time
	Reason string
}

// Context describes the scheduling request to the ranking service.
type Context struct {
	CandidateName    string
	StageName        string
	InterviewerCount int
	DurationMinutes  int
	WindowStart      time.Time
	WindowEnd        time.Time
}

// ParseStatus enumerates the outcomes of interpreting a ranking completion.
type ParseStatus string

const (
	// ParseStatusOK means a usable option list was extracted.
	ParseStatusOK ParseStatus = "ok"
	// ParseStatusMalformed means the service answered but no valid option
	// survived extraction.
	ParseStatusMalformed ParseStatus = "malformed"
	// ParseStatusUnavailable means the service could not be reached at all.
	ParseStatusUnavailable ParseStatus = "unavailable"
)

// ParseOutcome is the result of interpreting a completion. Only
// ParseStatusOK with a non-empty Options list counts as a usable answer;
// every other combination triggers the deterministic fallback.
type ParseOutcome struct {
	Status  ParseStatus
	Options []RankedSlot
}

// Ranker asks the completion service to pick the best shortlist from the
// filtered slots and falls back to earliest-first selection when the service
// is unreachable or answers garbage.
type Ranker struct {
	client  CompletionClient
	timeout time.Duration
	logger  *slog.Logger
}

// NewRanker builds a ranker around the completion client. A non-positive
// timeout falls back to the client default behaviour.
func NewRanker(client CompletionClient, timeout time.Duration, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Ranker{client: client, timeout: timeout, logger: logger}
}

// Rank returns up to MaxOptions proposals drawn from slots. The result shape
// is identical whether the ranking service answered or the fallback ran; only
// ordering and the presence of reasons differ. An empty slot list yields an
// empty result.
func (r *Ranker) Rank(ctx context.Context, slots []time.Time, rc Context) []RankedSlot {
	if len(slots) == 0 {
		return nil
	}

	outcome := r.consultService(ctx, slots, rc)
	if outcome.Status == ParseStatusOK && len(outcome.Options) > 0 {
		return outcome.Options
	}

	r.logger.InfoContext(ctx, "ranking service unusable, using fallback",
		"outcome", string(outcome.Status), "slots", len(slots))
	return Fallback(slots)
}

func (r *Ranker) consultService(ctx context.Context, slots []time.Time, rc Context) ParseOutcome {
	if r.client == nil {
		return ParseOutcome{Status: ParseStatusUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.client.Complete(ctx, BuildPrompt(slots, rc))
	if err != nil {
		r.logger.WarnContext(ctx, "completion call failed", "error", err)
		return ParseOutcome{Status: ParseStatusUnavailable}
	}
	return ParseCompletion(text, rc.WindowStart, rc.WindowEnd)
}

// Fallback selects the first min(MaxOptions, len(slots)) slots in ascending
// time order. It is cheap, deterministic, and always available, which is why
// a failed ranking call is never retried.
func Fallback(slots []time.Time) []RankedSlot {
	if len(slots) == 0 {
		return nil
	}

	ordered := make([]time.Time, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	if len(ordered) > MaxOptions {
		ordered = ordered[:MaxOptions]
	}

	options := make([]RankedSlot, len(ordered))
	for i, slot := range ordered {
		options[i] = RankedSlot{Start: slot}
	}
	return options
}

// BuildPrompt renders the natural-language ranking request.
func BuildPrompt(slots []time.Time, rc Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are scheduling a %d-minute %q interview for candidate %s with %d interviewer(s).\n",
		rc.DurationMinutes, rc.StageName, rc.CandidateName, rc.InterviewerCount)
	b.WriteString("Pick the best start times for the candidate from this list of free slots:\n")
	for _, slot := range slots {
		fmt.Fprintf(&b, "- %s\n", slot.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Reply with a JSON array of at most %d objects shaped like "+
		`[{"dateTime":"2006-01-02T15:04:05Z07:00","reason":"..."}]`+
		", best option first. Do not add any other text.\n", MaxOptions)
	return b.String()
}

type completionEntry struct {
	DateTime string `json:"dateTime"`
	Reason   string `json:"reason"`
}

// ParseCompletion interprets untrusted completion text. It extracts the first
// syntactically valid JSON array substring, discards entries whose dateTime
// fails to parse or falls outside [windowStart, windowEnd], and caps the
// result at MaxOptions.
func ParseCompletion(text string, windowStart, windowEnd time.Time) ParseOutcome {
	entries, ok := extractFirstJSONArray(text)
	if !ok {
		return ParseOutcome{Status: ParseStatusMalformed}
	}

	options := make([]RankedSlot, 0, len(entries))
	for _, entry := range entries {
		start, ok := parseEntryTime(entry.DateTime, windowStart.Location())
		if !ok {
			continue
		}
		if start.Before(windowStart) || start.After(windowEnd) {
			continue
		}
		options = append(options, RankedSlot{Start: start, Reason: strings.TrimSpace(entry.Reason)})
		if len(options) == MaxOptions {
			break
		}
	}

	if len(options) == 0 {
		return ParseOutcome{Status: ParseStatusMalformed}
	}
	return ParseOutcome{Status: ParseStatusOK, Options: options}
}

// extractFirstJSONArray scans for the first substring that decodes as a JSON
// array of completion entries. Trailing prose after the array is tolerated.
func extractFirstJSONArray(text string) ([]completionEntry, bool) {
	for offset := 0; offset < len(text); {
		idx := strings.IndexByte(text[offset:], '[')
		if idx < 0 {
			return nil, false
		}
		idx += offset

		decoder := json.NewDecoder(strings.NewReader(text[idx:]))
		var entries []completionEntry
		if err := decoder.Decode(&entries); err == nil {
			return entries, true
		}
		offset = idx + 1
	}
	return nil, false
}

func parseEntryTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	// The service occasionally omits the zone; interpret as window-local.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
