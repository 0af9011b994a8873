package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/talent-scheduler/internal/scheduling"
)

// ErrAuthFailed marks an expired or revoked calendar credential. Unlike a
// transient transport failure it is not worth retrying.
var ErrAuthFailed = errors.New("calendar: authentication failed")

const defaultTimeout = 5 * time.Second

// Client talks to the external calendar backend over HTTP. It exposes the two
// operations the scheduling pipeline needs: listing busy intervals for a
// calendar and refreshing an expired access token.
type Client struct {
	hc      *http.Client
	baseURL string
}

// NewClient builds a client for the backend at baseURL. A non-positive timeout
// falls back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type busyResponse struct {
	Busy []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"busy"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// ListBusyIntervals returns the busy intervals recorded on calendarID that
// overlap [timeMin, timeMax]. Entries the backend returns with unparsable or
// inverted bounds are dropped.
func (c *Client) ListBusyIntervals(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]scheduling.BusyInterval, error) {
	query := url.Values{}
	query.Set("calendar_id", calendarID)
	query.Set("time_min", timeMin.Format(time.RFC3339))
	query.Set("time_max", timeMax.Format(time.RFC3339))

	status, body, err := c.do(ctx, http.MethodGet, "/v1/busy?"+query.Encode(), accessToken, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, fmt.Errorf("listing busy intervals for %s: %w", calendarID, ErrAuthFailed)
	}
	if status >= 400 {
		return nil, fmt.Errorf("calendar: busy lookup failed (%s)", statusDetail(status, body))
	}

	var res busyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("calendar: decoding busy response: %w", err)
	}

	intervals := make([]scheduling.BusyInterval, 0, len(res.Busy))
	for _, entry := range res.Busy {
		start, err := time.Parse(time.RFC3339, entry.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, entry.End)
		if err != nil {
			continue
		}
		interval := scheduling.BusyInterval{Start: start, End: end}
		if !interval.Valid() {
			continue
		}
		intervals = append(intervals, interval)
	}
	return intervals, nil
}

// RefreshAccessToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	status, body, err := c.do(ctx, http.MethodPost, "/v1/token", "", []byte(form.Encode()))
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest {
		return "", fmt.Errorf("refreshing access token: %w", ErrAuthFailed)
	}
	if status >= 400 {
		return "", fmt.Errorf("calendar: token refresh failed (%s)", statusDetail(status, body))
	}

	var res tokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("calendar: decoding token response: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("calendar: token refresh returned no access token")
	}
	return res.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calendar: %w", err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("calendar: reading response: %w", err)
	}
	return res.StatusCode, b, nil
}

// statusDetail includes a backend-provided message when one is present.
func statusDetail(status int, body []byte) string {
	var res errorResponse
	_ = json.Unmarshal(body, &res)
	if res.Message != "" {
		return fmt.Sprintf("status=%d message=%s", status, res.Message)
	}
	return fmt.Sprintf("status=%d", status)
}
