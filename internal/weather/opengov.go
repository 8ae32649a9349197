package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weatherbot/pkg/logx"
)

// Source fetches the forecast nearest to asOf. It returns nil on any
// failure; callers treat that as "nothing to do this tick".
type Source interface {
	Fetch(ctx context.Context, asOf time.Time) *Forecast
}

const (
	DefaultEndpoint = "https://api-open.data.gov.sg"
	forecastPath    = "/v2/real-time/api/twenty-four-hr-forecast"
	queryLayout     = "2006-01-02T15:04:05"
	maxBody         = 4 << 20
)

type OpenGovConfig struct {
	Endpoint string
	Timeout  time.Duration
	Location *time.Location
}

// OpenGovClient reads the data.gov.sg v2 real-time 24-hour forecast.
type OpenGovClient struct {
	base string
	loc  *time.Location
	http *http.Client
	log  logx.Logger
}

func NewOpenGovClient(cfg OpenGovConfig, log logx.Logger) *OpenGovClient {
	base := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if base == "" {
		base = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &OpenGovClient{
		base: base,
		loc:  loc,
		http: &http.Client{Timeout: timeout},
		log:  log.With(logx.String("comp", "weather.opengov")),
	}
}

func (c *OpenGovClient) Fetch(ctx context.Context, asOf time.Time) *Forecast {
	f, err := c.fetch(ctx, asOf)
	if err != nil {
		c.log.Warn("forecast fetch failed", logx.Err(err))
		return nil
	}
	return f
}

func (c *OpenGovClient) fetch(ctx context.Context, asOf time.Time) (*Forecast, error) {
	q := url.Values{}
	q.Set("date", asOf.In(c.loc).Format(queryLayout))
	u := c.base + forecastPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("forecast http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if r.Code != 0 {
		return nil, fmt.Errorf("forecast api code %d: %s", r.Code, r.ErrorMsg)
	}
	if len(r.Data.Records) == 0 {
		return nil, fmt.Errorf("forecast api returned no records")
	}
	f := r.Data.Records[0]
	if f.UpdatedTimestamp.IsZero() {
		return nil, fmt.Errorf("forecast record has no updatedTimestamp")
	}
	return &f, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
