package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allergenapp/backend/config"
	"github.com/allergenapp/backend/internal/domain"
	"github.com/allergenapp/backend/internal/infrastructure/catalog"
	"github.com/allergenapp/backend/internal/infrastructure/metrics"
	"github.com/allergenapp/backend/internal/infrastructure/store"
	"github.com/allergenapp/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeAnalyzer answers label scans with a canned response
type fakeAnalyzer struct {
	answer    string
	err       error
	mediaType string
}

func (f *fakeAnalyzer) AnalyzeLabel(ctx context.Context, image []byte, mediaType string, userAllergens []string) (string, error) {
	f.mediaType = mediaType
	return f.answer, f.err
}

// failingSource always fails to fetch
type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) LookupBarcode(ctx context.Context, barcode string) (domain.RawProductRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) SearchByName(ctx context.Context, query string) (domain.RawProductRecord, error) {
	return nil, errors.New("connection refused")
}

type testServer struct {
	router   *gin.Engine
	profiles *usecase.ProfileService
	analyzer *fakeAnalyzer
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
			MaxImageBytes:  1 << 20,
		},
		RateLimit: config.RateLimitConfig{PerIP: 1000},
	}
}

// setupTestServer wires real services over the memory store and the built-in catalog
func setupTestServer(t *testing.T, source domain.ProductSource) *testServer {
	t.Helper()

	if source == nil {
		products, err := catalog.Load("")
		require.NoError(t, err)
		source = usecase.NewSourceChain(nil, products)
	}

	kv := store.NewMemoryStore()
	profiles := usecase.NewProfileService(kv, "test", nil)
	ledger := usecase.NewHistoryLedger(kv, usecase.LedgerConfig{Namespace: "test"}, nil)
	analyzer := &fakeAnalyzer{answer: `{"status":"safe","detected":[],"alternatives":[]}`}
	collector := metrics.NewCollector("test")

	scans := usecase.NewScanService(usecase.ScanServiceDeps{
		Source:   source,
		Analyzer: analyzer,
		Profiles: profiles,
		Ledger:   ledger,
		Observer: collector,
	})

	cfg := testConfig()
	handler := NewHandler(HandlerDeps{
		Scans:         scans,
		Profiles:      profiles,
		Ledger:        ledger,
		MaxImageBytes: cfg.Server.MaxImageBytes,
	})

	return &testServer{
		router:   SetupRouter(cfg, handler, collector, nil),
		profiles: profiles,
		analyzer: analyzer,
	}
}

func (s *testServer) withUser(t *testing.T, id string, allergens ...string) {
	t.Helper()
	_, err := s.profiles.UpdateAllergens(context.Background(), id, allergens)
	require.NoError(t, err)
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeVerdict(t *testing.T, w *httptest.ResponseRecorder) domain.Verdict {
	t.Helper()
	var verdict domain.Verdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	return verdict
}

func TestHealthCheckEndpoint(t *testing.T) {
	srv := setupTestServer(t, nil)

	w := srv.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "allergenapp-backend", response["service"])
	assert.NotEmpty(t, response["version"])

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusNotFound, srv.do(method, "/health", "").Code, method)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t, nil)
	srv.withUser(t, "u1", "Peanuts")
	srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"123456789"}`)

	w := srv.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_scans_total{mode="barcode",status="danger"} 1`)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestScanBarcodeEndpoint(t *testing.T) {
	t.Run("danger with alternatives", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Peanuts")

		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"123456789"}`)
		require.Equal(t, http.StatusOK, w.Code)

		verdict := decodeVerdict(t, w)
		assert.Equal(t, domain.StatusDanger, verdict.Status)
		assert.Equal(t, domain.ScanModeBarcode, verdict.Mode)
		assert.Equal(t, "Contains Peanuts. Do not consume.", verdict.Message)
		assert.Equal(t, []string{"Peanuts"}, verdict.DetectedAllergens)
		require.NotNil(t, verdict.Product)
		assert.Equal(t, "Peanut Butter Crunch", verdict.Product.Name)
		assert.Len(t, verdict.Alternatives, 3)
	})

	t.Run("safe", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Fish")

		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"987654321"}`)
		require.Equal(t, http.StatusOK, w.Code)

		verdict := decodeVerdict(t, w)
		assert.Equal(t, domain.StatusSafe, verdict.Status)
		assert.Equal(t, usecase.MessageSafe, verdict.Message)
		assert.Empty(t, verdict.Alternatives)
	})

	t.Run("unknown barcode", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")

		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"000000000"}`)
		require.Equal(t, http.StatusOK, w.Code)

		verdict := decodeVerdict(t, w)
		assert.Equal(t, domain.StatusUnknown, verdict.Status)
		assert.Equal(t, usecase.MessageNotFound, verdict.Message)
		assert.Nil(t, verdict.Product)
	})

	t.Run("missing barcode", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")

		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		srv := setupTestServer(t, nil)

		w := srv.do(http.MethodPost, "/api/v1/users/ghost/scan/barcode", `{"barcode":"123456789"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("acquisition failure", func(t *testing.T) {
		srv := setupTestServer(t, failingSource{})
		srv.withUser(t, "u1", "Milk")

		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"123456789"}`)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "Error fetching data.")

		// Failed fetches are not recorded
		history := srv.do(http.MethodGet, "/api/v1/users/u1/history", "")
		var response HistoryResponse
		require.NoError(t, json.Unmarshal(history.Body.Bytes(), &response))
		assert.Empty(t, response.Entries)
	})
}

func TestSearchProductEndpoint(t *testing.T) {
	srv := setupTestServer(t, nil)
	srv.withUser(t, "u1", "wheat")

	w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/search", `{"query":"cheese"}`)
	require.Equal(t, http.StatusOK, w.Code)

	verdict := decodeVerdict(t, w)
	assert.Equal(t, domain.StatusDanger, verdict.Status)
	assert.Equal(t, domain.ScanModeSearch, verdict.Mode)
	assert.Equal(t, []string{"Wheat"}, verdict.DetectedAllergens)
	assert.Equal(t, "Cheese Crackers", verdict.Product.Name)

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodPost, "/api/v1/users/u1/scan/search", `{"query":""}`).Code)
}

func newLabelRequest(t *testing.T, path string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if image != nil {
		part, err := writer.CreateFormFile("image", "label.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScanLabelEndpoint(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	t.Run("danger keeps upstream alternatives", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")
		srv.analyzer.answer = "```json\n" +
			`{"status":"danger","detected":["Milk"],"alternatives":["Oat Drink"]}` +
			"\n```"

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", png))
		require.Equal(t, http.StatusOK, w.Code)

		verdict := decodeVerdict(t, w)
		assert.Equal(t, domain.StatusDanger, verdict.Status)
		assert.Equal(t, domain.ScanModeLabel, verdict.Mode)
		assert.Equal(t, []string{"Milk"}, verdict.DetectedAllergens)
		require.Len(t, verdict.Alternatives, 1)
		assert.Equal(t, "Oat Drink", verdict.Alternatives[0].Name)
		assert.Equal(t, "image/png", srv.analyzer.mediaType)
	})

	t.Run("unparseable answer", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")
		srv.analyzer.answer = "I cannot read this label."

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", png))
		require.Equal(t, http.StatusOK, w.Code)

		verdict := decodeVerdict(t, w)
		assert.Equal(t, domain.StatusUnknown, verdict.Status)
		assert.Equal(t, usecase.MessageAnalysisFailed, verdict.Message)
	})

	t.Run("missing image", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("text upload is a bad request", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", []byte("milk, sugar, cocoa")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported image type text/plain")
		assert.Empty(t, srv.analyzer.mediaType)
	})

	t.Run("image rejected by the analyzer is a bad request", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")
		srv.analyzer.err = fmt.Errorf("%w: image too small", domain.ErrInvalidRequest)

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", png))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		metricsBody := srv.do(http.MethodGet, "/metrics", "").Body.String()
		assert.NotContains(t, metricsBody, `test_acquisition_failures_total{mode="label"}`)
	})

	t.Run("analyzer failure", func(t *testing.T) {
		srv := setupTestServer(t, nil)
		srv.withUser(t, "u1", "Milk")
		srv.analyzer.err = errors.New("upstream timeout")

		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, newLabelRequest(t, "/api/v1/users/u1/scan/label", png))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	srv := setupTestServer(t, nil)
	srv.withUser(t, "u1", "Milk")

	barcodes := []string{"123456789", "987654321", "456123789", "111222333", "444555666", "000000000"}
	for _, code := range barcodes {
		w := srv.do(http.MethodPost, "/api/v1/users/u1/scan/barcode", `{"barcode":"`+code+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("defaults to the display limit, newest first", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/users/u1/history", "")
		require.Equal(t, http.StatusOK, w.Code)

		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, usecase.DefaultDisplayLimit, response.Limit)
		require.Len(t, response.Entries, usecase.DefaultDisplayLimit)
		assert.Equal(t, domain.StatusUnknown, response.Entries[0].Verdict.Status)
		assert.Equal(t, "Cheese Crackers", response.Entries[1].Verdict.Product.Name)
	})

	t.Run("explicit limit", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/users/u1/history?limit=10", "")
		require.Equal(t, http.StatusOK, w.Code)

		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Entries, len(barcodes))
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/users/u1/history?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAllergensEndpoints(t *testing.T) {
	srv := setupTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodGet, "/api/v1/users/u1/allergens", "").Code)

	w := srv.do(http.MethodPut, "/api/v1/users/u1/allergens", `{"allergens":[" Milk ","milk","","Egg"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var profile domain.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, []string{"Milk", "Egg"}, profile.Allergens)

	w = srv.do(http.MethodGet, "/api/v1/users/u1/allergens", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, []string{"Milk", "Egg"}, profile.Allergens)

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodPut, "/api/v1/users/u1/allergens", `not json`).Code)
}

func TestVocabularyEndpoints(t *testing.T) {
	srv := setupTestServer(t, nil)

	t.Run("common allergens", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/allergens", "")
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Allergens []string `json:"allergens"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, domain.CommonAllergens, response.Allergens)
	})

	t.Run("alternatives", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/alternatives?allergen=Egg&allergen=Shellfish", "")
		require.Equal(t, http.StatusOK, w.Code)

		var response AlternativesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Alternatives, 5)
		assert.Equal(t, "Egg", response.Alternatives[0].ForAllergen)
	})

	t.Run("no alternatives is an empty list", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/alternatives?allergen=Celery", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"alternatives":[]}`, w.Body.String())
	})
}

func TestCORSIntegration(t *testing.T) {
	srv := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPIVersioning(t *testing.T) {
	srv := setupTestServer(t, nil)

	paths := []string{
		"/api/users/u1/scan/barcode",
		"/users/u1/scan/barcode",
		"/api/v1/scan/barcode",
	}
	for _, path := range paths {
		assert.Equal(t, http.StatusNotFound, srv.do(http.MethodPost, path, `{"barcode":"1"}`).Code, path)
	}
}
