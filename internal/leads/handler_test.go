package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead_Success(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	handler := NewHandler(svc, nil)

	body := []byte(`{"make":"Hyundai","model":"i20","year":2018,"parts":["Bumper"],"condition":"New","location":"Koramangala, Bengaluru","phone":"9876543210"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateLead(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["id"])
}

func TestCreateLead_ValidationDetails(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	handler := NewHandler(svc, nil)

	body := []byte(`{"make":"Hyundai","model":"i20","year":"18","parts":[],"condition":"New","location":"Bengaluru","phone":"12345"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateLead(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Error)
	assert.Contains(t, resp.Details, "year")
	assert.Contains(t, resp.Details, "parts")
	assert.Contains(t, resp.Details, "phone")
}

func TestCreateLead_InvalidJSON(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	handler := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.CreateLead(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFulfillThenDropConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	handler := NewHandler(svc, nil)
	req := validRequest()
	lead, err := svc.Create(context.Background(), &req)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Post("/admin/leads/{leadID}/fulfill", handler.Fulfill)
	router.Post("/admin/leads/{leadID}/drop", handler.Drop)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/leads/"+lead.ID+"/fulfill", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "9876543210")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/leads/"+lead.ID+"/drop", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/leads/nope/drop", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpireNowReturnsEmptyList(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	handler := NewHandler(svc, nil)

	w := httptest.NewRecorder()
	handler.ExpireNow(w, httptest.NewRequest(http.MethodPost, "/admin/leads/expire", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expired":[],"count":0}`, w.Body.String())
}
