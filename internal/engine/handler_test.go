package engine

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resource-backend/internal/metadata"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	reg := metadata.NewRegistry()
	reg.Load([]*metadata.Resource{testResource()})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	// No store: only routes that fail before touching the database are
	// exercised here. The full request cycle runs in the integration tests.
	RegisterRoutes(app, NewHandler(nil, reg, testDefaults()))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestUnknownResourceIs404(t *testing.T) {
	app := testApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/nonexistent")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
	assert.Contains(t, errObj["message"], "nonexistent")
	assert.NotContains(t, body, "notifications")
}

func TestUnknownResourceOnEveryVerb(t *testing.T) {
	app := testApp(t)

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/nonexistent/1"},
		{http.MethodPost, "/api/nonexistent"},
		{http.MethodPut, "/api/nonexistent/1"},
		{http.MethodDelete, "/api/nonexistent/1"},
	} {
		status, body := doRequest(t, app, tc.method, tc.target)
		assert.Equal(t, http.StatusNotFound, status, "%s %s", tc.method, tc.target)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "NOT_FOUND", errObj["code"])
	}
}

func TestUnmatchedRouteUsesEnvelope(t *testing.T) {
	app := testApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_PARAMETERS", errObj["code"])
}
