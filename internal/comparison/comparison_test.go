package comparison_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portal-compare/internal/comparison"
	httpadapter "portal-compare/internal/comparison/adapter/http"
	"portal-compare/internal/comparison/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHubSpot serves two portals told apart by their bearer token.
func fakeHubSpot(t *testing.T) *httptest.Server {
	t.Helper()
	properties := map[string]string{
		"Bearer token-a-123456": `{"results":[
			{"name":"color","label":"Color","type":"enumeration","fieldType":"select","groupName":"info",
			 "options":[{"value":"red","label":"Red"},{"value":"blue","label":"Blue"}]},
			{"name":"email","label":"Email","type":"string","fieldType":"text","groupName":"info"}]}`,
		"Bearer token-b-123456": `{"results":[
			{"name":"color","label":"Color","type":"enumeration","fieldType":"select","groupName":"info",
			 "options":[{"value":"red","label":"Crimson"},{"value":"blue","label":"Blue"}]},
			{"name":"email","label":"Email","type":"string","fieldType":"text","groupName":"info"}]}`,
	}
	schemas := map[string]string{
		"Bearer token-a-123456": `{"results":[{"objectTypeId":"2-100","name":"projects","fullyQualifiedName":"p1_projects","labels":{"singular":"Project","plural":"Projects"}}]}`,
		"Bearer token-b-123456": `{"results":[{"objectTypeId":"2-900","name":"Projects","fullyQualifiedName":"p2_projects","labels":{"singular":"Project","plural":"Projects"}}]}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/crm/v3/properties/contacts", func(w http.ResponseWriter, r *http.Request) {
		body, ok := properties[r.Header.Get("Authorization")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(body))
	})
	mux.HandleFunc("/crm/v3/property-validations/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	mux.HandleFunc("/crm/v3/schemas", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(schemas[r.Header.Get("Authorization")]))
	})
	return httptest.NewServer(mux)
}

func newApp(t *testing.T, baseURL string) (*fiber.App, *comparison.ComparisonModule) {
	t.Helper()
	cfg := config.Default()
	cfg.HubSpotBaseURL = baseURL
	cfg.SweepInterval = 0

	module, err := comparison.NewComparisonModule(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = module.Stop() })

	app := fiber.New(fiber.Config{ErrorHandler: httpadapter.ErrorHandler})
	m := module.GetMiddleware()
	app.Use(m.RequestID(), m.AccessLog())
	module.RegisterRoutes(app)
	return app, module
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestComparisonModule_EndToEnd(t *testing.T) {
	hubspot := fakeHubSpot(t)
	defer hubspot.Close()
	app, module := newApp(t, hubspot.URL)

	status, created := call(t, app, fiber.MethodPost, "/api/v1/sessions", "",
		`{"portal_a":{"name":"Prod","token":"token-a-123456"},"portal_b":{"name":"Sandbox","token":"token-b-123456"}}`)
	require.Equal(t, fiber.StatusCreated, status)
	token := created["token"].(string)
	sessionID := created["session"].(map[string]interface{})["id"].(string)
	base := "/api/v1/sessions/" + sessionID

	status, result := call(t, app, fiber.MethodGet, base+"/compare/objects/contacts?hide_identical=true", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "different", result["status"])
	entries := result["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "color.options.red", entries[0].(map[string]interface{})["field_path"])

	status, _ = call(t, app, fiber.MethodGet, base+"/compare/custom/2-100/2-900", token, "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, matched := call(t, app, fiber.MethodPost, base+"/mappings/auto", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, matched["installed"])

	status, overview := call(t, app, fiber.MethodGet, base+"/mappings", token, "")
	require.Equal(t, fiber.StatusOK, status)
	mapping := overview["mapping"].(map[string]interface{})
	assert.Equal(t, "2-900", mapping["2-100"].(map[string]interface{})["key_b"])

	status, cache := call(t, app, fiber.MethodGet, base+"/cache", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, cache["portal_a"], "schema:contacts")
	assert.Contains(t, cache["portal_b"], "catalog")

	assert.Equal(t, map[string]int{"sessions": 1, "cache_partitions": 1}, module.Stats())

	status, _ = call(t, app, fiber.MethodDelete, base, token, "")
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Equal(t, map[string]int{"sessions": 0, "cache_partitions": 0}, module.Stats())

	status, _ = call(t, app, fiber.MethodGet, base, token, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestComparisonModule_RejectsInvalidToken(t *testing.T) {
	hubspot := fakeHubSpot(t)
	defer hubspot.Close()
	app, module := newApp(t, hubspot.URL)

	status, body := call(t, app, fiber.MethodPost, "/api/v1/sessions", "",
		`{"portal_a":{"token":"token-a-123456"},"portal_b":{"token":"wrong-token-xyz"}}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "b", body["error"].(map[string]interface{})["details"].(map[string]interface{})["portal"])
	assert.Equal(t, 0, module.Stats()["sessions"])
}

func TestComparisonModule_Metrics(t *testing.T) {
	hubspot := fakeHubSpot(t)
	defer hubspot.Close()
	app, _ := newApp(t, hubspot.URL)

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "portal_compare_sessions_active")
}
