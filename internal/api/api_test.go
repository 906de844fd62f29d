package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

func setupTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	srv := NewServer(s, lifecycle.NewManager(s), nil)
	return srv, s
}

func asActor(req *http.Request, id, name string, role models.Role) *http.Request {
	req.Header.Set("X-Actor-Id", id)
	req.Header.Set("X-Actor-Name", name)
	req.Header.Set("X-Actor-Role", string(role))
	return req
}

func asTenant(req *http.Request) *http.Request {
	return asActor(req, "t1", "Terry Tenant", models.RoleTenant)
}

func asManager(req *http.Request) *http.Request {
	return asActor(req, "m1", "Pat Manager", models.RoleManager)
}

func seedProperty(t *testing.T, s store.Store) *models.Property {
	t.Helper()
	p := &models.Property{Name: "Maple Court", Address: "12 Maple St", Units: 8}
	require.NoError(t, s.CreateProperty(context.Background(), p))
	return p
}

func createIssueViaAPI(t *testing.T, router http.Handler, propertyID string) models.Issue {
	t.Helper()
	body := `{"property_id":"` + propertyID + `","title":"Leaky faucet","description":"Kitchen faucet drips","category":"plumbing","priority":"medium"}`
	req := asTenant(httptest.NewRequest("POST", "/api/v1/issues", bytes.NewBufferString(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func TestListProperties_Empty(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/api/v1/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var properties []*models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &properties))
	assert.Nil(t, properties)
}

func TestPropertyCRUD_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	// Create
	body := `{"name":"Maple Court","address":"12 Maple St","units":8}`
	req := httptest.NewRequest("POST", "/api/v1/properties", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Maple Court", created.Name)
	assert.NotEmpty(t, created.ID)

	// Get
	req = httptest.NewRequest("GET", "/api/v1/properties/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// List
	req = httptest.NewRequest("GET", "/api/v1/properties", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var properties []*models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &properties))
	assert.Len(t, properties, 1)

	// Delete
	req = httptest.NewRequest("DELETE", "/api/v1/properties/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpdateProperty_EmptyStringsDoNotOverwrite(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	p := &models.Property{
		Name:        "Maple Court",
		Address:     "12 Maple St",
		Units:       8,
		ManagerName: "Pat Manager",
		OwnerName:   "Olive Owner",
	}
	require.NoError(t, s.CreateProperty(ctx, p))

	// A form that sends every field but leaves some blank must not wipe
	// the existing values.
	patchBody := `{"name":"Maple Court","notes":"repainted lobby","address":"","manager_name":"","owner_name":""}`
	req := httptest.NewRequest("PUT", "/api/v1/properties/"+p.ID, bytes.NewBufferString(patchBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	fromDB, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "repainted lobby", fromDB.Notes)
	assert.Equal(t, "12 Maple St", fromDB.Address)
	assert.Equal(t, "Pat Manager", fromDB.ManagerName)
	assert.Equal(t, "Olive Owner", fromDB.OwnerName)
}

func TestGetProperty_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/api/v1/properties/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVendorCRUD_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	body := `{"name":"Ace Plumbing","trade":"plumbing","phone":"555-0101","hourly_rate":95}`
	req := httptest.NewRequest("POST", "/api/v1/vendors", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Vendor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Ace Plumbing", created.Name)

	req = httptest.NewRequest("GET", "/api/v1/vendors?trade=plumbing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var vendors []*models.Vendor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vendors))
	assert.Len(t, vendors, 1)

	req = httptest.NewRequest("DELETE", "/api/v1/vendors/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCreateIssue_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)

	created := createIssueViaAPI(t, router, p.ID)
	assert.Equal(t, "Leaky faucet", created.Title)
	assert.Equal(t, models.IssueStatusOpen, created.Status)
	assert.Equal(t, "t1", created.ReporterID)
	require.Len(t, created.Activities, 1)
	assert.Equal(t, models.ActivityCreated, created.Activities[0].Type)
}

func TestCreateIssue_RequiresActorHeaders(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)

	body := `{"property_id":"` + p.ID + `","title":"x","description":"y"}`
	req := httptest.NewRequest("POST", "/api/v1/issues", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionIssue_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	req := asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/transition",
		bytes.NewBufferString(`{"status":"triaged"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.IssueStatusTriaged, updated.Status)
}

func TestTransitionIssue_InvalidPairIs409(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	req := asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/transition",
		bytes.NewBufferString(`{"status":"closed"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTransitionIssue_TenantIs403(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	req := asTenant(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/transition",
		bytes.NewBufferString(`{"status":"triaged"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEscalateIssue_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	// Missing reason is a validation error.
	req := asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/escalate",
		bytes.NewBufferString(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/escalate",
		bytes.NewBufferString(`{"reason":"repair quote over budget"}`)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The escalation shows up on the attention list.
	req = httptest.NewRequest("GET", "/api/v1/issues/attention", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var attention []*models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attention))
	require.Len(t, attention, 1)
	assert.Equal(t, created.ID, attention[0].ID)
}

func TestAssignIssue_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	body := `{"assignee_id":"v1","assignee_name":"Ace Plumbing","assignee_type":"vendor","time_slot":"morning"}`
	req := asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/assign",
		bytes.NewBufferString(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.IssueStatusAssigned, updated.Status)
	assert.Equal(t, "Ace Plumbing", updated.AssigneeName)
}

func TestTenantListScoping_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)

	mine := createIssueViaAPI(t, router, p.ID)

	otherBody := `{"property_id":"` + p.ID + `","title":"Broken heater","description":"No heat"}`
	req := asActor(httptest.NewRequest("POST", "/api/v1/issues", bytes.NewBufferString(otherBody)),
		"t2", "Other Tenant", models.RoleTenant)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// Tenant sees only their own issues.
	req = asTenant(httptest.NewRequest("GET", "/api/v1/issues", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var issues []*models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, mine.ID, issues[0].ID)

	// Manager sees both.
	req = asManager(httptest.NewRequest("GET", "/api/v1/issues", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	assert.Len(t, issues, 2)
}

func TestAddIssueImage_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	body := `{"url":"file:///photos/faucet.jpg","tag":"before","caption":"drip under sink"}`
	req := asTenant(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/images",
		bytes.NewBufferString(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var updated models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Len(t, updated.Images, 1)
	assert.Equal(t, models.ImageTagBefore, updated.Images[0].Tag)
}

func TestIssueActivities_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	created := createIssueViaAPI(t, router, p.ID)

	req := asManager(httptest.NewRequest("POST", "/api/v1/issues/"+created.ID+"/transition",
		bytes.NewBufferString(`{"status":"triaged"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = asManager(httptest.NewRequest("GET", "/api/v1/issues/"+created.ID+"/activities", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var activities []models.IssueActivity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activities))
	require.Len(t, activities, 2)
	assert.Equal(t, models.ActivityCreated, activities[0].Type)
	assert.Equal(t, models.ActivityStatusChanged, activities[1].Type)
}

func TestPropertyMetrics_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)
	createIssueViaAPI(t, router, p.ID)

	req := httptest.NewRequest("GET", "/api/v1/properties/"+p.ID+"/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var metrics lifecycle.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.Total)
	assert.Equal(t, 1, metrics.ByStatus[models.IssueStatusOpen])
}

func TestPropertyHealth_API(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()
	p := seedProperty(t, s)

	req := httptest.NewRequest("GET", "/api/v1/properties/"+p.ID+"/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, hasProperty := resp["property"]
	assert.True(t, hasProperty, "should have property field")
	_, hasHealth := resp["health"]
	assert.True(t, hasHealth, "should have health field")
}

func TestIntake_NoLLMConfigured(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := asTenant(httptest.NewRequest("POST", "/api/v1/issues/intake",
		bytes.NewBufferString(`{"text":"the sink is leaking"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORS(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("OPTIONS", "/api/v1/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
