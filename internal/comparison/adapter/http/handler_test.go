package http_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "portal-compare/internal/comparison/adapter/http"
	"portal-compare/internal/comparison/adapter/metrics"
	"portal-compare/internal/comparison/adapter/security"
	"portal-compare/internal/comparison/config"
	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const sessionID = "11111111-2222-3333-4444-555555555555"

type HandlerTestSuite struct {
	suite.Suite
	app         *fiber.App
	sessions    *mockSessionUsecase
	comparisons *mockComparisonUsecase
	tokens      *security.SessionTokenService
	collector   *metrics.Collector
	token       string
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	cfg := &config.Config{
		SessionSigningKey: "handler-test-signing-key-0123456789",
		SessionIssuer:     "portal-compare",
		SessionTTL:        time.Hour,
	}
	tokens, err := security.NewSessionTokenService(cfg)
	s.Require().NoError(err)
	s.tokens = tokens
	s.token, err = tokens.GenerateToken(sessionID)
	s.Require().NoError(err)

	s.sessions = &mockSessionUsecase{}
	s.comparisons = &mockComparisonUsecase{}
	s.collector = metrics.NewCollector("test")

	handler := httpadapter.NewComparisonHTTPHandler(s.sessions, s.comparisons, tokens, httpadapter.CookieConfig{
		Name:     "pc_session",
		SameSite: "Lax",
	})
	m := httpadapter.NewMiddleware(tokens, "pc_session", nil, s.collector)

	s.app = fiber.New(fiber.Config{ErrorHandler: httpadapter.ErrorHandler})
	s.app.Use(m.RequestID(), m.AccessLog(), m.SecurityHeaders())
	handler.RegisterRoutes(s.app.Group("/api/v1"), m)
}

func (s *HandlerTestSuite) do(method, path, body string, authorize bool) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorize {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func errorBody(body map[string]interface{}) map[string]interface{} {
	e, _ := body["error"].(map[string]interface{})
	return e
}

func sessionFixture() *model.Session {
	now := time.Now()
	return &model.Session{
		ID:                  sessionID,
		PortalA:             model.NewPortalRef("Production", model.NewCredential("pat-na1-aaaaaaaa")),
		PortalB:             model.NewPortalRef("Sandbox", model.NewCredential("pat-na1-bbbbbbbb")),
		CreatedAt:           now,
		LastAccessedAt:      now,
		CustomObjectMapping: map[string]model.MappingEntry{},
	}
}

func (s *HandlerTestSuite) TestCreateSession() {
	s.sessions.On("CreateSession", mock.Anything, usecase.CreateSessionInput{
		PortalAName: "Production", PortalAToken: "pat-na1-aaaaaaaa",
		PortalBName: "Sandbox", PortalBToken: "pat-na1-bbbbbbbb",
	}).Return(sessionFixture(), nil)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/sessions", strings.NewReader(
		`{"portal_a":{"name":"Production","token":"pat-na1-aaaaaaaa"},"portal_b":{"name":"Sandbox","token":"pat-na1-bbbbbbbb"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	raw, _ := io.ReadAll(resp.Body)

	s.Equal(fiber.StatusCreated, resp.StatusCode)
	s.NotContains(string(raw), "pat-na1-aaaaaaaa")
	s.NotContains(string(raw), "pat-na1-bbbbbbbb")

	var body httpadapter.SessionResponse
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal(sessionID, body.Session.ID)
	s.Equal(int64(3600), body.ExpiresIn)

	claims, err := s.tokens.ValidateToken(body.Token)
	s.Require().NoError(err)
	s.Equal(sessionID, claims.SessionID())

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "pc_session" {
			cookie = c
		}
	}
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)
	s.Equal(body.Token, cookie.Value)
}

func (s *HandlerTestSuite) TestCreateSession_ValidationErrors() {
	resp, body := s.do(fiber.MethodPost, "/api/v1/sessions", `{"portal_a":{"name":"A"},"portal_b":{"token":"pat-na1-bbbbbbbb"}}`, false)

	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	e := errorBody(body)
	s.Equal("VALIDATION_ERROR", e["type"])
	details := e["details"].(map[string]interface{})
	errs := details["validation_errors"].([]interface{})
	s.Require().Len(errs, 1)
	s.Equal("portal_a.token", errs[0].(map[string]interface{})["field"])
	s.sessions.AssertNotCalled(s.T(), "CreateSession", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCreateSession_RejectedToken() {
	s.sessions.On("CreateSession", mock.Anything, mock.Anything).Return(nil, &model.UpstreamFetchError{
		Portal: model.PortalB, PortalName: "Sandbox", Operation: "validate_credential", Err: model.ErrUpstreamAuth,
	})

	resp, body := s.do(fiber.MethodPost, "/api/v1/sessions",
		`{"portal_a":{"token":"pat-na1-aaaaaaaa"},"portal_b":{"token":"pat-na1-bbbbbbbb"}}`, false)

	s.Equal(fiber.StatusBadGateway, resp.StatusCode)
	e := errorBody(body)
	s.Equal("UPSTREAM_AUTH", e["code"])
	s.Equal("b", e["details"].(map[string]interface{})["portal"])
}

func (s *HandlerTestSuite) TestSessionRoutesRequireMatchingToken() {
	resp, body := s.do(fiber.MethodGet, "/api/v1/sessions/"+sessionID, "", false)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal("TOKEN_MISSING", errorBody(body)["code"])

	resp, body = s.do(fiber.MethodGet, "/api/v1/sessions/another-session", "", true)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal("TOKEN_MISMATCH", errorBody(body)["code"])

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerTestSuite) TestSessionCookieIsAccepted() {
	s.sessions.On("GetSession", mock.Anything, sessionID).Return(sessionFixture(), nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	req.AddCookie(&http.Cookie{Name: "pc_session", Value: s.token})
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
}

func (s *HandlerTestSuite) TestSessionTokenSlidesWithActivity() {
	s.sessions.On("GetSession", mock.Anything, sessionID).Return(sessionFixture(), nil)

	now := time.Now()
	s.tokens.SetClock(func() time.Time { return now })
	original, err := s.tokens.GenerateToken(sessionID)
	s.Require().NoError(err)

	getSession := func(token string) *http.Response {
		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/sessions/"+sessionID, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.app.Test(req, -1)
		s.Require().NoError(err)
		return resp
	}

	now = now.Add(40 * time.Minute)
	resp := getSession(original)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	renewed := resp.Header.Get(httpadapter.HeaderSessionToken)
	s.Require().NotEmpty(renewed)
	s.NotEqual(original, renewed)
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "pc_session" {
			cookie = c.Value
		}
	}
	s.Equal(renewed, cookie)

	// Past the original token's lifetime but within the renewed one.
	now = now.Add(40 * time.Minute)
	resp = getSession(original)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)

	resp = getSession(renewed)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get(httpadapter.HeaderSessionToken))
}

func (s *HandlerTestSuite) TestErrorMapping() {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrSessionNotFound, fiber.StatusNotFound, "SESSION_NOT_FOUND"},
		{model.UnmappedError("2-1"), fiber.StatusConflict, "UNMAPPED_CUSTOM_OBJECT"},
		{&model.InvalidReferenceError{Portal: model.PortalA, ObjectType: "widgets", Err: model.ErrUpstreamNotFound}, fiber.StatusNotFound, "INVALID_REFERENCE"},
		{&model.UpstreamFetchError{Portal: model.PortalA, Operation: "fetch_properties", Err: model.ErrRateLimited}, fiber.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED"},
		{&model.UpstreamFetchError{Portal: model.PortalB, Operation: "fetch_properties", Err: model.ErrTransport}, fiber.StatusBadGateway, "UPSTREAM_TRANSPORT"},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError, ""},
	}

	for i, tc := range cases {
		objectType := fmt.Sprintf("type%d", i)
		s.comparisons.On("CompareObjectType", mock.Anything, sessionID, objectType).Return(nil, tc.err).Once()

		resp, body := s.do(fiber.MethodGet, "/api/v1/sessions/"+sessionID+"/compare/objects/"+objectType, "", true)
		s.Equal(tc.status, resp.StatusCode, tc.err.Error())
		if tc.code != "" {
			s.Equal(tc.code, errorBody(body)["code"])
		}
	}
}

func (s *HandlerTestSuite) TestCompareObjectType_AppliesFilterOptions() {
	result := &model.ComparisonResult{Kind: model.ResultKindObjectType, Subject: "contacts", Status: model.StatusDifferent}
	s.comparisons.On("CompareObjectType", mock.Anything, sessionID, "contacts").Return(result, nil)
	s.comparisons.On("Filter", result, service.FilterOptions{
		Statuses:      []model.DiffStatus{model.StatusDifferent, model.StatusOnlyInB},
		HideIdentical: true,
		Expression:    `field_path.startsWith("color.")`,
	}).Return(result, nil)

	path := "/api/v1/sessions/" + sessionID + "/compare/objects/contacts?status=different,only_in_b&hide_identical=true&filter=" +
		"field_path.startsWith%28%22color.%22%29"
	resp, body := s.do(fiber.MethodGet, path, "", true)

	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("different", body["status"])
	s.comparisons.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestCompareObjectType_UnknownStatus() {
	s.comparisons.On("CompareObjectType", mock.Anything, sessionID, "contacts").Return(&model.ComparisonResult{}, nil)

	resp, body := s.do(fiber.MethodGet, "/api/v1/sessions/"+sessionID+"/compare/objects/contacts?status=weird", "", true)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal("INVALID_STATUS", errorBody(body)["code"])
}

func (s *HandlerTestSuite) TestCompareProperties() {
	refA := usecase.PropertyRef{ObjectType: "contacts", Property: "email"}
	refB := usecase.PropertyRef{ObjectType: "companies", Property: "email"}
	result := &model.ComparisonResult{Kind: model.ResultKindProperty, Status: model.StatusIdentical}
	s.comparisons.On("CompareProperties", mock.Anything, sessionID, refA, refB).Return(result, nil)
	s.comparisons.On("Filter", result, service.FilterOptions{}).Return(result, nil)

	resp, _ := s.do(fiber.MethodPost, "/api/v1/sessions/"+sessionID+"/compare/properties",
		`{"ref_a":{"object_type":"contacts","property":"email"},"ref_b":{"object_type":"companies","property":"email"}}`, true)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp, body := s.do(fiber.MethodPost, "/api/v1/sessions/"+sessionID+"/compare/properties",
		`{"ref_a":{"object_type":"contacts"},"ref_b":{"object_type":"companies","property":"email"}}`, true)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal("VALIDATION_ERROR", errorBody(body)["type"])

	resp, body = s.do(fiber.MethodPost, "/api/v1/sessions/"+sessionID+"/compare/properties",
		`{"ref_a":{"portal":"c","object_type":"contacts","property":"email"},"ref_b":{"object_type":"companies","property":"email"}}`, true)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal("VALIDATION_ERROR", errorBody(body)["type"])
}

func (s *HandlerTestSuite) TestCompareProperties_SamePortal() {
	refA := usecase.PropertyRef{Portal: model.PortalB, ObjectType: "contacts", Property: "email"}
	refB := usecase.PropertyRef{Portal: model.PortalB, ObjectType: "companies", Property: "domain"}
	result := &model.ComparisonResult{Kind: model.ResultKindProperty, Status: model.StatusDifferent}
	s.comparisons.On("CompareProperties", mock.Anything, sessionID, refA, refB).Return(result, nil)
	s.comparisons.On("Filter", result, service.FilterOptions{}).Return(result, nil)

	resp, body := s.do(fiber.MethodPost, "/api/v1/sessions/"+sessionID+"/compare/properties",
		`{"ref_a":{"portal":"b","object_type":"contacts","property":"email"},"ref_b":{"portal":"b","object_type":"companies","property":"domain"}}`, true)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("different", body["status"])
	s.comparisons.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestMappings() {
	s.sessions.On("SetCustomMapping", mock.Anything, sessionID, "2-100", "2-900").Return(nil)
	s.sessions.On("RemoveCustomMapping", mock.Anything, sessionID, "2-100").Return(nil)

	resp, body := s.do(fiber.MethodPut, "/api/v1/sessions/"+sessionID+"/mappings/2-100", `{"key_b":"2-900"}`, true)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("manual", body["source"])

	resp, _ = s.do(fiber.MethodPut, "/api/v1/sessions/"+sessionID+"/mappings/2-100", `{}`, true)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(fiber.MethodDelete, "/api/v1/sessions/"+sessionID+"/mappings/2-100", "", true)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)
	s.sessions.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestRefreshCache() {
	s.sessions.On("RefreshCache", mock.Anything, sessionID, "deals", true).Return(2, nil)

	resp, body := s.do(fiber.MethodPost, "/api/v1/sessions/"+sessionID+"/cache/refresh?object_type=deals&eager=true", "", true)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.EqualValues(2, body["refreshed"])
	s.Equal(true, body["eager"])
}

func (s *HandlerTestSuite) TestDeleteSessionClearsCookie() {
	s.sessions.On("DeleteSession", mock.Anything, sessionID).Return(nil)

	resp, _ := s.do(fiber.MethodDelete, "/api/v1/sessions/"+sessionID, "", true)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)
	s.Empty(resp.Header.Get(httpadapter.HeaderSessionToken))
	for _, c := range resp.Cookies() {
		if c.Name == "pc_session" {
			s.Empty(c.Value)
		}
	}
}

func (s *HandlerTestSuite) TestRecordsHTTPMetrics() {
	s.sessions.On("CacheStatus", mock.Anything, sessionID).Return(&model.CacheStatus{SessionID: sessionID}, nil)

	resp, _ := s.do(fiber.MethodGet, "/api/v1/sessions/"+sessionID+"/cache", "", true)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	s.Equal(float64(1), testutil.ToFloat64(
		s.collector.HTTPRequests.WithLabelValues(fiber.MethodGet, "/api/v1/sessions/:sessionID/cache", "200")))
}
