package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory-service/internal/auth"
	"directory-service/internal/entity"
	"directory-service/internal/metrics"
	"directory-service/internal/service"
	"directory-service/internal/service/servicetest"
)

type testServer struct {
	e        *echo.Echo
	stores   map[string]*servicetest.MemoryStore
	profiles *servicetest.MemoryProfiles
	tokens   *auth.TokenService
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	ts := &testServer{
		stores:   map[string]*servicetest.MemoryStore{},
		profiles: servicetest.NewMemoryProfiles(),
		tokens:   auth.NewTokenService("test-secret", time.Hour),
	}
	stores := map[string]service.ResourceStore{}
	for _, d := range service.Descriptors() {
		s := servicetest.NewMemoryStore()
		ts.stores[d.Table] = s
		stores[d.Table] = s
	}

	m := metrics.New()
	catalog, err := service.NewCatalog(service.Descriptors(), stores, ts.profiles, service.NewLinker(ts.profiles, nil, m))
	require.NoError(t, err)

	ts.e = NewServer(Options{
		Catalog: catalog,
		Users:   service.NewUserService(ts.profiles, ts.tokens, catalog),
		Tokens:  ts.tokens,
		Metrics: m,
		Checks:  checks,
		Logger:  zerolog.Nop(),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (ts *testServer) register(t *testing.T, userID string) string {
	t.Helper()
	_, err := ts.profiles.CreateUser(context.Background(), userID, "Name "+userID, userID+"@example.com", "pw-"+userID)
	require.NoError(t, err)
	token, err := ts.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

const businessBody = `{"ownerid":"%s","name":"Block 15","address":"300 SW Jefferson Ave.","city":"Corvallis",
	"state":"OR","zip":"97333","phone":"541-758-2077","category":"Restaurant","subcategory":"Brewpub"}`

func TestReviewRoundTrip(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, out := ts.do(t, http.MethodPost, "/reviews",
		`{"userid":"u1","businessid":7,"dollars":2,"stars":4.5,"review":"Cheap, delicious food."}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1.0, out["id"])
	assert.Equal(t, map[string]interface{}{"review": "/reviews/1", "business": "/businesses/7"}, out["links"])

	rec, out = ts.do(t, http.MethodGet, "/reviews/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.5, out["stars"])
	assert.Equal(t, 2.0, out["dollars"])
	assert.Equal(t, "Cheap, delicious food.", out["review"])
}

func TestDuplicateReview(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"userid":"u1","businessid":7,"dollars":2,"stars":4}`

	rec, _ := ts.do(t, http.MethodPost, "/reviews", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, out := ts.do(t, http.MethodPost, "/reviews", body, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User has already posted a review of this business", out["error"])
	assert.Equal(t, 1, ts.stores["reviews"].Len())
}

func TestCreateBusiness(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register(t, "owner1")

	rec, out := ts.do(t, http.MethodPost, "/businesses", strings.Replace(businessBody, "%s", "ghost", 1), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["error"])
	assert.Zero(t, ts.stores["businesses"].Len())

	rec, out = ts.do(t, http.MethodPost, "/businesses", strings.Replace(businessBody, "%s", "owner1", 1), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]interface{}{"business": "/businesses/1"}, out["links"])

	profile, _, err := ts.profiles.FindByUserID(context.Background(), "owner1", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, profile.Businesses)

	ts.stores["reviews"].Seed(entity.Record{"userid": "u2", "businessid": int64(1), "stars": 3})
	rec, out = ts.do(t, http.MethodGet, "/businesses/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Block 15", out["name"])
	assert.Len(t, out["reviews"], 1)
	assert.Len(t, out["photos"], 0)
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, body := range []string{`{"fieldName":"Data"}`, `not json`, ``} {
		rec, out := ts.do(t, http.MethodPost, "/fields", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Request body is not a valid field object.", out["error"])
	}
}

func TestReplacePhotoKeepsLinkage(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.stores["photos"].Seed(entity.Record{"userid": "u1", "businessid": int64(3), "data": "abc", "caption": "old"})

	rec, out := ts.do(t, http.MethodPut, "/photos/1", `{"userid":"u1","businessid":4,"data":"abc","caption":"new"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Updated photo must have the same businessID and userID", out["error"])
	row, _ := ts.stores["photos"].Row(id)
	assert.Equal(t, "old", row["caption"])

	rec, out = ts.do(t, http.MethodPut, "/photos/1", `{"userid":"u1","businessid":3,"data":"abc","caption":"new"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"links": map[string]interface{}{"photo": "/photos/1", "business": "/businesses/3"},
	}, out)
}

func TestNotFoundFallback(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodDelete, "/companies/99", ""},
		{http.MethodGet, "/fields/abc", ""},
		{http.MethodGet, "/positions/0", ""},
		{http.MethodPut, "/companies/5", `{"companyName":"Acme","glassdoorRating":4,"sizeCategory":"large","hqCity":"Bend","hqState":"OR"}`},
		{http.MethodGet, "/nowhere", ""},
		{http.MethodPatch, "/businesses/1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec, out := ts.do(t, tt.method, tt.target, tt.body, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Requested resource "+tt.target+" does not exist", out["error"])
		})
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.stores["companies"].Seed(entity.Record{"companyName": "Acme"})

	rec, _ := ts.do(t, http.MethodDelete, "/companies/1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, ts.stores["companies"].Len())
}

func TestListPagination(t *testing.T) {
	ts := newTestServer(t, nil)
	for i := 0; i < 12; i++ {
		ts.stores["fields"].Seed(entity.Record{"fieldName": "f"})
	}

	rec, out := ts.do(t, http.MethodGet, "/fields?page=abc", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, out["pageNumber"])
	assert.Equal(t, 2.0, out["totalPages"])
	assert.Equal(t, 10.0, out["pageSize"])
	assert.Equal(t, 12.0, out["totalCount"])
	assert.Len(t, out["fields"], 10)
	assert.Equal(t, map[string]interface{}{"nextPage": "/fields?page=2", "lastPage": "/fields?page=2"}, out["links"])

	_, out = ts.do(t, http.MethodGet, "/fields?page=9", "", "")
	assert.Equal(t, 2.0, out["pageNumber"])
	assert.Len(t, out["fields"], 2)
	assert.Equal(t, map[string]interface{}{"prevPage": "/fields?page=1", "firstPage": "/fields?page=1"}, out["links"])
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.stores["companies"].Err = errors.New("dial tcp 10.0.0.5:3306: connection refused")

	rec, out := ts.do(t, http.MethodGet, "/companies", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "Error fetching companies list.  Please try again later."}, out)
}

func TestUserRegistrationAndLogin(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"userID":"u1","name":"Ada","email":"ada@example.com","password":"hunter2"}`

	rec, out := ts.do(t, http.MethodPost, "/users", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, out["_id"])
	assert.Equal(t, "u1", out["userID"])
	assert.Equal(t, map[string]interface{}{"user": "/users/u1"}, out["links"])

	rec, _ = ts.do(t, http.MethodPost, "/users", body, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out = ts.do(t, http.MethodPost, "/users", `{"userID":"u2"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request doesn't contain a valid user.", out["error"])

	rec, out = ts.do(t, http.MethodPost, "/users/login", `{"userID":"u1","password":"hunter2"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := out["token"].(string)
	subject, err := ts.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", subject)

	rec, out = ts.do(t, http.MethodPost, "/users/login", `{"userID":"u1","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials.", out["error"])

	rec, out = ts.do(t, http.MethodPost, "/users/login", `{"userID":"u1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request needs a user ID and password.", out["error"])
}

func TestGetUser(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.register(t, "u1")
	ts.register(t, "u2")

	rec, out := ts.do(t, http.MethodGet, "/users/u1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", out["userID"])
	assert.NotContains(t, out, "password")
	assert.Equal(t, []interface{}{}, out["positions"])

	rec, out = ts.do(t, http.MethodGet, "/users/u2", "", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized to access that resource", out["error"])

	rec, out = ts.do(t, http.MethodGet, "/users/u1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authentication token", out["error"])

	rec, _ = ts.do(t, http.MethodGet, "/users/u1", "", token+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := auth.NewTokenService("other-secret", time.Hour)
	foreign, err := other.Issue("u1")
	require.NoError(t, err)
	rec, _ = ts.do(t, http.MethodGet, "/users/u1", "", foreign)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnedResources(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.register(t, "u1")
	ts.stores["positions"].Seed(entity.Record{"applicantID": "u1", "positionName": "Engineer"})
	ts.stores["positions"].Seed(entity.Record{"applicantID": "u3", "positionName": "Chef"})

	rec, out := ts.do(t, http.MethodGet, "/users/u1/positions", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["positions"], 1)

	rec, out = ts.do(t, http.MethodGet, "/users/u3/positions", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["positions"], 1)

	rec, _ = ts.do(t, http.MethodGet, "/users/u1/photos", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, map[string]HealthCheck{
		"mysql": func(context.Context) error { return nil },
	})
	rec, out := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	ts = newTestServer(t, map[string]HealthCheck{
		"mysql": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("refused") },
	})
	rec, out = ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, map[string]interface{}{"mysql": "ok", "redis": "unavailable"}, out["checks"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/companies", "", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `directory_http_requests_total{method="GET",path="/companies",status="200"} 1`)
}
