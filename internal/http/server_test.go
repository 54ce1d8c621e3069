package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homemoney/internal/cache"
	"homemoney/internal/core"
	"homemoney/internal/export"
	"homemoney/internal/services"
	"homemoney/internal/storage"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []core.ExpenseRecord
	listErr error
	lists   int
	// slowList makes List wait for the request deadline.
	slowList bool
}

func (m *memoryRepo) Add(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

func (m *memoryRepo) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	if m.slowList {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]core.ExpenseRecord(nil), m.records...), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (storage.StoredExpense, error) {
	return storage.StoredExpense{}, storage.ErrNotFound
}

func (m *memoryRepo) Ping(ctx context.Context) error { return nil }
func (m *memoryRepo) Close() error                   { return nil }

type testServer struct {
	srv  *Server
	repo *memoryRepo
	csv  string
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	repo := &memoryRepo{}
	csvPath := filepath.Join(t.TempDir(), "expenses.csv")
	svc := services.NewExpenseService(repo,
		services.WithMirror(export.NewMirror(csvPath, nil)),
		services.WithClock(func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }),
	)
	srv := NewServer(cfg, svc, nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return &testServer{srv: srv, repo: repo, csv: csvPath}
}

func (ts *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(http.MethodGet, "/api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/readyz", "").Code)
}

func TestCreateAndListExpenses(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/expenses", `{"type":"Food","remark":"lunch","amount":"12,5","time":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.EqualValues(t, 1, created["id"])
	assert.NotEmpty(t, created["message"])

	rec = ts.do(http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"Food","remark":"lunch","amount":12.5,"time":"2024-03-01"}]`, rec.Body.String())
}

func TestCreateExpense_MissingTimeDefaultsToToday(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(http.MethodPost, "/api/expenses", `{"type":"Food","amount":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, ts.repo.records, 1)
	assert.Equal(t, "2024-03-10", ts.repo.records[0].Time)
}

func TestCreateExpense_Rejected(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name string
		body string
	}{
		{"empty type", `{"type":"  ","amount":3,"time":"2024-03-01"}`},
		{"invalid amount", `{"type":"Food","amount":"abc","time":"2024-03-01"}`},
		{"missing amount", `{"type":"Food","time":"2024-03-01"}`},
		{"malformed json", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Empty(t, ts.repo.records)
}

func TestInternalErrorPayload(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.repo.listErr = errors.New("disk on fire")

	rec := ts.do(http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "disk on fire")
	assert.NotEmpty(t, body.Timestamp)
}

func TestStatistics(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.repo.records = []core.ExpenseRecord{
		{Type: "Food", Amount: 10, Time: "2024-03-01"},
		{Type: "Rent", Amount: 500, Time: "2024-03-01"},
		{Type: "Food", Amount: 2.5, Time: "2024-03-02"},
	}

	rec := ts.do(http.MethodGet, "/api/expenses/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"Rent","total":500,"count":1},{"type":"Food","total":12.5,"count":2}]`, rec.Body.String())
}

func TestCSVEndpoints(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.repo.records = []core.ExpenseRecord{{Type: "Food", Remark: `say "hi"`, Amount: 4, Time: "2024-03-01"}}

	rec := ts.do(http.MethodGet, "/api/expenses/csv/raw", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/expenses/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":`+mustJSON(t, ts.csv)+`}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/expenses/csv/raw", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), `"Food","say ""hi""","4.00","2024-03-01"`)

	rec = ts.do(http.MethodGet, "/api/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), `"类型","备注","金额","日期"`)
}

func TestExportExcel(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.repo.records = []core.ExpenseRecord{{Type: "Food", Amount: 4, Time: "2024-03-01"}}

	rec := ts.do(http.MethodGet, "/api/export/excel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestResponseCache_InvalidatedOnCreate(t *testing.T) {
	ts := newTestServer(t, Config{Cache: cache.New("api-test")})

	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/expenses", "").Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/expenses", "").Code)
	assert.Equal(t, 1, ts.repo.lists, "second read is served from cache")

	rec := ts.do(http.MethodPost, "/api/expenses", `{"type":"Food","amount":1,"time":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Food"`)
}

func TestRateLimit_PostOnly(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ts := newTestServer(t, Config{Now: func() time.Time { return now }})

	for i := 0; i < rateLimitRequests; i++ {
		rec := ts.do(http.MethodPost, "/api/expenses", `{"type":""}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, "request %d", i)
	}
	rec := ts.do(http.MethodPost, "/api/expenses", `{"type":""}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/expenses", "").Code)

	now = now.Add(2 * time.Minute)
	rec = ts.do(http.MethodPost, "/api/expenses", `{"type":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(http.MethodGet, "/api", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Regexp(t, `^req_[0-9a-f]{16}$`, rec.Header().Get(requestIDHeader))

	rec = ts.do(http.MethodGet, "/api", "", requestIDHeader, "abc123")
	assert.Equal(t, "abc123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	t.Run("local origins by default", func(t *testing.T) {
		ts := newTestServer(t, Config{})

		for _, origin := range []string{"http://localhost:5173", "http://127.0.0.1:8080", "http://192.168.1.20:3000", "http://10.0.0.5:80"} {
			rec := ts.do(http.MethodGet, "/api", "", "Origin", origin)
			assert.Equal(t, http.StatusOK, rec.Code, origin)
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"), origin)
		}

		rec := ts.do(http.MethodGet, "/api", "", "Origin", "https://example.com")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("explicit list", func(t *testing.T) {
		ts := newTestServer(t, Config{CORSOrigins: []string{"https://money.example.com"}})

		rec := ts.do(http.MethodGet, "/api", "", "Origin", "https://money.example.com")
		assert.Equal(t, "https://money.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = ts.do(http.MethodGet, "/api", "", "Origin", "http://localhost:5173")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no origin", func(t *testing.T) {
		ts := newTestServer(t, Config{})
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api", "").Code)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(timeout(20 * time.Millisecond))
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	engine.GET("/fast", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TIMEOUT"`)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlowRepository_AnswersTimeout(t *testing.T) {
	ts := newTestServer(t, Config{RequestTimeout: 50 * time.Millisecond})
	ts.repo.slowList = true

	for _, target := range []string{"/api/expenses", "/api/expenses/statistics"} {
		rec := ts.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "TIMEOUT", body.Error.Code, target)
	}
}

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		target string
		agent  string
		want   bool
	}{
		{"/api/expenses", "curl/8", false},
		{"/../../etc/passwd", "", true},
		{"/.env", "", true},
		{"/api", "sqlmap/1.7", true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://localhost"+tt.target, nil)
		req.Header.Set("User-Agent", tt.agent)
		assert.Equal(t, tt.want, isSuspicious(req), tt.target)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
