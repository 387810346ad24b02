package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/companysim/cosim/internal/catalog"
	"github.com/companysim/cosim/internal/logging"
	"github.com/companysim/cosim/internal/missing"
	"github.com/companysim/cosim/internal/similarity"
	"github.com/companysim/cosim/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() (missing.Report, error) {
	return missing.Report{
		Source: "raw.xlsx",
		Rows:   4,
		Columns: []missing.Column{
			{Name: "Name", Missing: 0},
			{Name: "Description", Missing: 1},
			{Name: "Employee Count", Missing: 2},
		},
	}, nil
}

func newTestServer(t *testing.T, configure func(*Options)) *Server {
	t.Helper()

	b := testutil.Bundle()
	svc := similarity.NewService(b, logging.Discard())

	cat, err := catalog.OpenDB(catalog.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	_, err = cat.Rebuild(b.Records)
	require.NoError(t, err)

	opts := Options{Addr: "127.0.0.1:0", DefaultTopN: 3, MaxTopN: 10}
	if configure != nil {
		configure(&opts)
	}

	s, err := New(svc, cat, opts, logging.Discard())
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_ValidatesTopN(t *testing.T) {
	svc := similarity.NewService(testutil.Bundle(), logging.Discard())

	_, err := New(svc, nil, Options{DefaultTopN: 1, MaxTopN: 0}, logging.Discard())
	assert.Error(t, err)

	_, err = New(svc, nil, Options{DefaultTopN: 6, MaxTopN: 5}, logging.Discard())
	assert.Error(t, err)
}

func TestIndex_Selector(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Company Similarity Viewer")
	assert.Contains(t, body, "Show Similar Companies")
	assert.Contains(t, body, "Show Missing Data Visualization")
	for _, r := range testutil.Companies() {
		assert.Contains(t, body, `<option value="`+r.Name+`"`)
	}
	// count options are capped by the number of companies
	assert.Contains(t, body, `<option value="4"`)
	assert.NotContains(t, body, `<option value="5"`)
	assert.Contains(t, body, `<option value="3" selected>`)
	assert.NotContains(t, body, `class="company-card"`)
	assert.NotContains(t, body, `class="selected"`)
}

func TestIndex_Results(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/?company=Acme+Cloud&n=2")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Top 2 Similar Companies to &#39;Acme Cloud&#39;:")
	assert.Contains(t, body, `<p class="selected">Software / Infrastructure &middot; Employee Count: 120</p>`)
	assert.Contains(t, body, "Acme Cloud - Similarity Score: 1.0000")
	assert.Contains(t, body, "Beta Data - Similarity Score: 0.99")
	assert.Contains(t, body, "<strong>Employee Count:</strong> 120")
	assert.Equal(t, 2, strings.Count(body, `class="company-card"`))
	assert.Contains(t, body, `<option value="Acme Cloud" selected>`)
}

func TestIndex_UnknownEmployeeCount(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/?company=Delta+Pay&n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>Employee Count:</strong> N/A")
}

func TestIndex_TextQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/?q=payments&n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Delta Pay - Similarity Score: 1.0000")
}

func TestIndex_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"unknown company", "/?company=UnknownCo", http.StatusNotFound, "company not found"},
		{"n above max", "/?company=Acme+Cloud&n=11", http.StatusBadRequest, "between 1 and 10"},
		{"n above record count", "/?company=Acme+Cloud&n=5", http.StatusBadRequest, "out of range"},
		{"n not a number", "/?company=Acme+Cloud&n=abc", http.StatusBadRequest, "must be an integer"},
		{"no known terms", "/?q=quantum", http.StatusBadRequest, "no known terms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="error"`)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), `class="company-card"`)
			assert.NotContains(t, rec.Body.String(), `class="selected"`)
		})
	}
}

func TestIndex_UnknownPath(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)
}

func TestAPISimilar(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/similar?company=Acme%20Cloud&n=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[similarResponse](t, rec)
	assert.Equal(t, "Acme Cloud", resp.Source)
	assert.Equal(t, "cosine", resp.Metric)
	require.Equal(t, 2, resp.Total)
	require.Len(t, resp.Similar, 2)
	assert.Equal(t, "Acme Cloud", resp.Similar[0].Name)
	assert.InDelta(t, 1.0, resp.Similar[0].Score, 1e-9)
	assert.Equal(t, "Beta Data", resp.Similar[1].Name)
	assert.Less(t, resp.Similar[1].Score, 1.0)
	assert.Equal(t, "Data", resp.Similar[1].SecondaryCategory)
}

func TestAPISimilar_DefaultTopN(t *testing.T) {
	s := newTestServer(t, nil)

	resp := decode[similarResponse](t, get(t, s, "/api/similar?company=Cyber%20Shield"))
	assert.Equal(t, 3, resp.Total)
}

func TestAPISimilar_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		target string
		status int
	}{
		{"/api/similar", http.StatusBadRequest},
		{"/api/similar?company=UnknownCo", http.StatusNotFound},
		{"/api/similar?company=Acme%20Cloud&n=0", http.StatusBadRequest},
		{"/api/similar?company=Acme%20Cloud&n=9", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestAPIQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/query?q=cloud+data&n=2")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[similarResponse](t, rec)
	assert.Equal(t, "cloud data", resp.Query)
	require.Len(t, resp.Similar, 2)
	assert.Equal(t, "Acme Cloud", resp.Similar[0].Name)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/query").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/query?q=quantum").Code)
}

func TestAPICompanies(t *testing.T) {
	s := newTestServer(t, nil)

	resp := decode[companiesResponse](t, get(t, s, "/api/companies?q=acm"))
	assert.Equal(t, []string{"Acme Cloud"}, resp.Names)

	resp = decode[companiesResponse](t, get(t, s, "/api/companies"))
	assert.Equal(t, 4, resp.Total)

	resp = decode[companiesResponse](t, get(t, s, "/api/companies?q=zzz"))
	assert.Equal(t, []string{}, resp.Names)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/companies?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/companies?limit=1000").Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	resp := decode[healthResponse](t, get(t, s, "/api/health"))
	assert.Equal(t, healthResponse{Status: "ok", Companies: 4, Metric: "cosine"}, resp)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	get(t, s, "/api/similar?company=Acme%20Cloud&n=2")
	get(t, s, "/api/similar?company=UnknownCo")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `cosim_lookups_total{kind="similar",status="success"} 1`)
	assert.Contains(t, body, `cosim_lookups_total{kind="similar",status="error"} 1`)
	assert.Contains(t, body, `cosim_http_requests_total{code="200",route="api_similar"} 1`)
	assert.Contains(t, body, `cosim_http_requests_total{code="404",route="api_similar"} 1`)
	assert.Contains(t, body, "cosim_companies 4")
}

func TestMissing_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No raw data file is configured")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/missing").Code)
}

func TestMissing_Chart(t *testing.T) {
	calls := 0
	s := newTestServer(t, func(o *Options) {
		o.Report = func() (missing.Report, error) {
			calls++
			return testReport()
		}
	})

	rec := get(t, s, "/missing")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, missingChartTitle)
	assert.Equal(t, 2, strings.Count(body, "<rect"), "only columns with missing values are charted")
	assert.Contains(t, body, `<td>Name</td><td class="num">0</td>`)
	assert.Contains(t, body, "4 rows read from raw.xlsx.")

	api := get(t, s, "/api/missing")
	require.Equal(t, http.StatusOK, api.Code)
	report := decode[missing.Report](t, api)
	assert.Len(t, report.Columns, 3)

	assert.Equal(t, 1, calls, "report is computed once")
}

func TestMissing_ReportError(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.Report = func() (missing.Report, error) {
			return missing.Report{}, errors.New("corrupt workbook")
		}
	})

	rec := get(t, s, "/missing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "corrupt workbook")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 2
	})

	assert.Equal(t, http.StatusOK, get(t, s, "/api/companies").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/companies").Code)

	rec := get(t, s, "/api/companies")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health and metrics bypass the limit
	assert.Equal(t, http.StatusOK, get(t, s, "/api/health").Code)
	assert.Contains(t, get(t, s, "/metrics").Body.String(), "cosim_http_rate_limited_total 1")
}

func TestClientLimiter_PerClientAndSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newClientLimiter(0.001, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "clients have separate buckets")

	now = now.Add(time.Hour)
	l.sweep(now)
	assert.Empty(t, l.clients)
}

func TestRecoverMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not shut down")
	}
}
