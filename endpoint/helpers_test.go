package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/middleware"
	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is the clinic clock during endpoint tests.
var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// setupEndpointTestDB initializes a seeded test database with all models migrated.
func setupEndpointTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:endpoint_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Models()...))

	_, err = ledger.NewCatalog(db).EnsureSeeded(context.Background(), ledger.DefaultServices())
	require.NoError(t, err)
	return db
}

// setupEndpointTest returns a router with every route mounted, a fixed clock
// and a valid operator token.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now = func() time.Time { return testNow }
	SetLocation(time.UTC)
	util.SetJWTSecret("endpoint-secret")
	t.Cleanup(func() {
		now = time.Now
		util.SetJWTSecret("")
	})

	token, err := util.IssueOperatorToken("recepcion", time.Hour)
	require.NoError(t, err)

	db := setupEndpointTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	RegisterRoutes(r)
	return r, db, token
}

// requestParams groups HTTP request parameters to reduce function arguments
type requestParams struct {
	method string
	path   string
	body   interface{}
	token  string
}

// doRequest executes an HTTP request and decodes the API response.
func doRequest(t *testing.T, r http.Handler, params requestParams) (*httptest.ResponseRecorder, util.APIResponse) {
	t.Helper()
	var body []byte
	if params.body != nil {
		var err error
		body, err = json.Marshal(params.body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(params.method, params.path, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if params.token != "" {
		req.Header.Set("Authorization", "Bearer "+params.token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp util.APIResponse
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

// assertStatus asserts that the response HTTP status code matches the expected value
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code, w.Body.String())
}

// dataMap returns the response data as a JSON object.
func dataMap(t *testing.T, resp util.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

// registerPatient registers a patient through the API and returns its identifier.
func registerPatient(t *testing.T, r http.Handler, token string) string {
	t.Helper()
	w, resp := doRequest(t, r, requestParams{
		method: http.MethodPost,
		path:   "/patient",
		token:  token,
		body: map[string]string{
			"nombre":           "Ana",
			"apellido_paterno": "García",
			"apellido_materno": "López",
			"telefono":         "5512345678",
		},
	})
	assertStatus(t, w, http.StatusCreated)
	id, _ := dataMap(t, resp)["id_paciente"].(string)
	require.NotEmpty(t, id)
	return id
}
