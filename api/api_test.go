package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/engine"
	"github.com/roach88/flexiflow/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(engine.WithLogger(slogt.New(t)))

	registry := state.NewBuiltinRegistry()
	machine, err := state.FromName(registry, "InitialState")
	require.NoError(t, err)
	eng.Register(component.New("cart", machine))
	return eng
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := NewRouter(newEngine(t))

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMessage_Accepted(t *testing.T) {
	router := NewRouter(newEngine(t))

	rec := doRequest(router, http.MethodPost, "/components/cart/message", `{"type":"start"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sent", resp["status"])
	assert.Equal(t, true, resp["accepted"])
}

func TestMessage_Rejected(t *testing.T) {
	router := NewRouter(newEngine(t))

	rec := doRequest(router, http.MethodPost, "/components/cart/message", `{"type":"bogus"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["accepted"])
}

func TestMessage_UnknownComponent(t *testing.T) {
	router := NewRouter(newEngine(t))

	rec := doRequest(router, http.MethodPost, "/components/ghost/message", `{"type":"start"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessage_InvalidBody(t *testing.T) {
	router := NewRouter(newEngine(t))

	rec := doRequest(router, http.MethodPost, "/components/cart/message", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessage_StateAdvances(t *testing.T) {
	eng := newEngine(t)
	router := NewRouter(eng)

	doRequest(router, http.MethodPost, "/components/cart/message", `{"type":"start"}`)
	doRequest(router, http.MethodPost, "/components/cart/message", `{"type":"confirm","content":"confirmed"}`)

	comp, ok := eng.Get("cart")
	require.True(t, ok)
	assert.Equal(t, "ProcessingRequest", comp.Machine().Current().Name())
}
