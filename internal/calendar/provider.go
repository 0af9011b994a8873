package calendar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/talent-scheduler/internal/scheduling"
)

// BackendClient is the slice of the calendar backend the provider depends on.
type BackendClient interface {
	ListBusyIntervals(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]scheduling.BusyInterval, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// InterviewerCalendar carries the calendar coordinates of one interviewer.
// Interviewers who never connected a calendar have empty tokens and contribute
// no availability constraints.
type InterviewerCalendar struct {
	InterviewerID string
	CalendarID    string
	AccessToken   string
	RefreshToken  string
}

// connected reports whether any credential is on file.
func (ic InterviewerCalendar) connected() bool {
	return ic.AccessToken != "" || ic.RefreshToken != ""
}

const (
	defaultFetchTimeout    = 10 * time.Second
	defaultRefreshAttempts = 3
)

// Provider aggregates busy intervals across interviewer calendars. Fetches run
// concurrently and independently. When an interviewer's refresh or fetch fails
// the provider blocks that interviewer's whole window instead of treating the
// unknown calendar as free.
type Provider struct {
	client          BackendClient
	fetchTimeout    time.Duration
	refreshAttempts int
	logger          *slog.Logger
}

// ProviderOption adjusts provider construction.
type ProviderOption func(*Provider)

// WithFetchTimeout bounds the combined refresh-and-fetch work per interviewer.
func WithFetchTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithRefreshAttempts bounds how often a transiently failing token refresh is
// retried before the interviewer counts as failed.
func WithRefreshAttempts(n int) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.refreshAttempts = n
		}
	}
}

// NewProvider wires a provider around the backend client.
func NewProvider(client BackendClient, logger *slog.Logger, opts ...ProviderOption) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		client:          client,
		fetchTimeout:    defaultFetchTimeout,
		refreshAttempts: defaultRefreshAttempts,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BusyIntervals returns the union of busy intervals of all interviewers whose
// calendars could be read, plus a full-window block for each interviewer whose
// calendar could not. It never fails as a whole; per-interviewer problems are
// isolated and logged.
func (p *Provider) BusyIntervals(ctx context.Context, calendars []InterviewerCalendar, start, end time.Time) []scheduling.BusyInterval {
	if p == nil || p.client == nil || len(calendars) == 0 {
		return nil
	}

	results := make([][]scheduling.BusyInterval, len(calendars))

	g, gctx := errgroup.WithContext(ctx)
	for i, cal := range calendars {
		g.Go(func() error {
			results[i] = p.fetchOne(gctx, cal, start, end)
			return nil
		})
	}
	// Goroutines report failures by blocking their interviewer's window, never
	// by returning an error that would cancel the siblings.
	_ = g.Wait()

	var union []scheduling.BusyInterval
	for _, intervals := range results {
		union = append(union, intervals...)
	}
	return union
}

func (p *Provider) fetchOne(ctx context.Context, cal InterviewerCalendar, start, end time.Time) []scheduling.BusyInterval {
	if !cal.connected() {
		// Unknown availability is a documented limitation, not a constraint.
		p.logger.DebugContext(ctx, "interviewer has no calendar credential",
			"interviewer_id", cal.InterviewerID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	token := cal.AccessToken
	if cal.RefreshToken != "" {
		refreshed, err := p.refreshWithRetry(ctx, cal.RefreshToken)
		if err != nil {
			p.logger.WarnContext(ctx, "token refresh failed, blocking interviewer window",
				"interviewer_id", cal.InterviewerID, "error", err)
			return []scheduling.BusyInterval{{Start: start, End: end}}
		}
		token = refreshed
	}

	intervals, err := p.client.ListBusyIntervals(ctx, token, cal.CalendarID, start, end)
	if err != nil {
		p.logger.WarnContext(ctx, "busy interval fetch failed, blocking interviewer window",
			"interviewer_id", cal.InterviewerID, "error", err)
		return []scheduling.BusyInterval{{Start: start, End: end}}
	}
	return intervals
}

func (p *Provider) refreshWithRetry(ctx context.Context, refreshToken string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.refreshAttempts; attempt++ {
		token, err := p.client.RefreshAccessToken(ctx, refreshToken)
		if err == nil {
			return token, nil
		}
		lastErr = err
		if errors.Is(err, ErrAuthFailed) || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
