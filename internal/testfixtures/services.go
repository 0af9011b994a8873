package testfixtures

import (
	"context"
	"sync"
	"time"

	"github.com/example/talent-scheduler/internal/scheduling"
)

// CalendarBackend is an in-memory calendar service implementing the slice of
// the backend the availability provider depends on. Busy intervals are keyed
// by calendar identifier.
type CalendarBackend struct {
	mu           sync.Mutex
	busy         map[string][]scheduling.BusyInterval
	refreshErr   error
	listErr      error
	refreshCalls int
	listCalls    int
}

// NewCalendarBackend constructs an empty backend.
func NewCalendarBackend() *CalendarBackend {
	return &CalendarBackend{busy: make(map[string][]scheduling.BusyInterval)}
}

// SetBusy replaces the busy intervals for a calendar.
func (b *CalendarBackend) SetBusy(calendarID string, intervals ...scheduling.BusyInterval) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy[calendarID] = intervals
}

// FailRefresh makes every refresh attempt return err.
func (b *CalendarBackend) FailRefresh(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshErr = err
}

// FailList makes every busy-interval fetch return err.
func (b *CalendarBackend) FailList(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

// ListBusyIntervals returns the configured busy intervals for calendarID.
func (b *CalendarBackend) ListBusyIntervals(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]scheduling.BusyInterval, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]scheduling.BusyInterval(nil), b.busy[calendarID]...), nil
}

// RefreshAccessToken mints a deterministic access token.
func (b *CalendarBackend) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if b.refreshErr != nil {
		return "", b.refreshErr
	}
	return "refreshed-" + refreshToken, nil
}

// RefreshCalls reports how many refresh attempts the backend served.
func (b *CalendarBackend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// ListCalls reports how many busy-interval fetches the backend served.
func (b *CalendarBackend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls
}

// CompletionService is a canned ranking-service client.
type CompletionService struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

// NewCompletionService constructs a service that answers every prompt with
// response.
func NewCompletionService(response string) *CompletionService {
	return &CompletionService{response: response}
}

// Fail makes every completion call return err.
func (c *CompletionService) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Complete records the prompt and returns the canned response.
func (c *CompletionService) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

// Prompts returns the prompts observed so far.
func (c *CompletionService) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
