package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"debtbook/internal/config"
	"debtbook/internal/events"
	"debtbook/internal/middleware"
	"debtbook/internal/server"
	"debtbook/internal/testutil"
)

const (
	testJWTSecret = "integration-secret"
	testAPIKey    = "integration-ops-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

var userCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       testJWTSecret,
		ServiceAPIKey:   testAPIKey,
		StatsMonthsBack: 6,
		CurrencySymbol:  "$",
	}
	return &testApp{DB: db, Router: server.NewRouter(cfg, db, events.NopPublisher{})}
}

// newUser returns a fresh user id and an access token for it.
func newUser(t *testing.T) (userID, token string) {
	t.Helper()
	userID = fmt.Sprintf("integration-user-%d", userCounter.Add(1))
	token, err := middleware.GenerateAccessToken(testJWTSecret, userID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return userID, token
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless rec has the wanted status, then parses the body.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(result map[string]interface{}) string {
	errObj, _ := result["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

// createCounterparty creates a counterparty and returns its id.
func (app *testApp) createCounterparty(t *testing.T, token, name string) string {
	t.Helper()
	rec := app.request(http.MethodPost, "/api/v1/counterparties", fmt.Sprintf(`{"name":%q}`, name), token)
	cp := mustStatus(t, rec, http.StatusCreated)["counterparty"].(map[string]interface{})
	return cp["id"].(string)
}

// createTransaction posts body and returns the created transaction id.
func (app *testApp) createTransaction(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request(http.MethodPost, "/api/v1/transactions", body, token)
	tx := mustStatus(t, rec, http.StatusCreated)["transaction"].(map[string]interface{})
	return tx["id"].(string)
}
