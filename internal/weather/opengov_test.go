package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"weatherbot/pkg/logx"
)

func newTestServer(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != forecastPath {
			http.NotFound(w, r)
			return
		}
		if gotQuery != nil {
			*gotQuery = r.URL.Query().Get("date")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenGovFetch(t *testing.T) {
	t.Parallel()

	body, err := os.ReadFile("testdata/forecast.json")
	if err != nil {
		t.Fatal(err)
	}
	var q string
	srv := newTestServer(t, http.StatusOK, string(body), &q)

	sgt := time.FixedZone("SGT", 8*3600)
	c := NewOpenGovClient(OpenGovConfig{Endpoint: srv.URL + "/", Location: sgt}, logx.Nop())
	asOf := time.Date(2025, 3, 2, 3, 45, 10, 0, time.UTC)

	f := c.Fetch(context.Background(), asOf)
	if f == nil {
		t.Fatalf("Fetch = nil")
	}
	if q != "2025-03-02T11:45:10" {
		t.Fatalf("date query = %q", q)
	}
	if f.Condition() != ThunderyShowers || !IsRainLike(f) {
		t.Fatalf("condition = %q", f.Condition())
	}
	want := time.Date(2025, 3, 2, 11, 40, 55, 0, sgt)
	if !f.UpdatedTimestamp.Equal(want) {
		t.Fatalf("UpdatedTimestamp = %v, want %v", f.UpdatedTimestamp, want)
	}
	if len(f.Periods) != 1 || f.Periods[0].Regions.East.Text != PartlyCloudyDay {
		t.Fatalf("periods = %+v", f.Periods)
	}
}

func TestOpenGovFetchFailuresReturnNil(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"code":1}`},
		{"bad json", http.StatusOK, `{"code":0,`},
		{"api error code", http.StatusOK, `{"code":17,"errorMsg":"bad date","data":{"records":[]}}`},
		{"no records", http.StatusOK, `{"code":0,"data":{"records":[]}}`},
		{"bad timestamp", http.StatusOK, `{"code":0,"data":{"records":[{"updatedTimestamp":"yesterday"}]}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, tt.status, tt.body, nil)
			c := NewOpenGovClient(OpenGovConfig{Endpoint: srv.URL}, logx.Nop())
			if f := c.Fetch(context.Background(), time.Now()); f != nil {
				t.Fatalf("Fetch = %+v, want nil", f)
			}
		})
	}
}

func TestOpenGovFetchUnreachable(t *testing.T) {
	t.Parallel()

	c := NewOpenGovClient(OpenGovConfig{Endpoint: "http://127.0.0.1:1", Timeout: time.Second}, logx.Nop())
	if f := c.Fetch(context.Background(), time.Now()); f != nil {
		t.Fatalf("Fetch = %+v, want nil", f)
	}
}

func TestAlertMessage(t *testing.T) {
	t.Parallel()

	sgt := time.FixedZone("SGT", 8*3600)
	f := &Forecast{
		UpdatedTimestamp: time.Date(2025, 3, 2, 11, 40, 55, 0, sgt),
		General: General{
			Temperature:      Range{Low: 25, High: 34},
			RelativeHumidity: Range{Low: 55, High: 95},
			Forecast:         Condition{Code: "TL", Text: ThunderyShowers},
			ValidPeriod: Period{
				Start: time.Date(2025, 3, 2, 12, 0, 0, 0, sgt),
				End:   time.Date(2025, 3, 3, 12, 0, 0, 0, sgt),
			},
		},
	}
	msg := AlertMessage(f)
	for _, want := range []string{
		"It seems like the weather is going to be unfriendly today ⛈️.",
		"Current forecast: <strong>Thundery Showers</strong>",
		"Temperatures: <strong>25°C - 34°C</strong>",
		"Forecast validity: <strong>02/03/2025 12:00</strong> - <strong>03/03/2025 12:00</strong>",
		"Last updated: <i>02/03/2025 11:40</i>.",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
