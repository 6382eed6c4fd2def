package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medicare-backend/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) RenderSession(*Session) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

var testPatient = &user.User{ID: uuid.MustParse("6f1d3b2a-0c4e-4a55-9d7e-2b8f0a1c9e11"), Role: user.RolePatient}

func asPatient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), testPatient)))
	})
}

func newTestRouter(svc Service, renderer ReportRenderer) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc, renderer), asPatient)
	return r
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_AnalyzeDemo(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, Options{Logger: zerolog.Nop()})
	router := newTestRouter(svc, nil)

	rec := serve(t, router, http.MethodPost, "/analyze-demo",
		`{"symptomsText":"fever and body ache","severity":"severe","age":"45","gender":"Female"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Analysis completed", body["message"])

	result := body["analysisResult"].(map[string]any)
	assert.Equal(t, "urgent-visit", result["triageLevel"])
	assert.Equal(t, 0.5, result["confidenceScore"])

	session := body["session"].(map[string]any)
	assert.Equal(t, DemoUserID, session["userId"])
	assert.Equal(t, 45.0, session["age"])
	assert.NotEmpty(t, session["_id"])
	assert.NotEmpty(t, session["createdAt"])
}

func TestHandler_AnalyzeValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, Options{Logger: zerolog.Nop()})
	router := newTestRouter(svc, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"short text", `{"symptomsText":"ouch","severity":"mild","age":30}`, http.StatusBadRequest, "Please describe symptoms in at least 10 characters"},
		{"bad severity", `{"symptomsText":"long enough text","severity":"awful","age":30}`, http.StatusBadRequest, "Please select a valid severity level"},
		{"age out of range", `{"symptomsText":"long enough text","severity":"mild","age":121}`, http.StatusBadRequest, "Please enter a valid age"},
		{"age not a number", `{"symptomsText":"long enough text","severity":"mild","age":"old"}`, http.StatusBadRequest, "Please enter a valid age"},
		{"empty body", ``, http.StatusBadRequest, "Request body is required"},
		{"bad json", `{"symptomsText":`, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, http.MethodPost, "/analyze-demo", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}

	rec := serve(t, router, http.MethodGet, "/history-demo", "")
	assert.Equal(t, 0.0, decode(t, rec)["pagination"].(map[string]any)["total"])
}

func TestHandler_PersistFailureIs500(t *testing.T) {
	store := &countingStore{SessionStore: NewMemoryStore(), err: errors.New("db down")}
	router := newTestRouter(NewService(store, nil, Options{Logger: zerolog.Nop()}), nil)

	rec := serve(t, router, http.MethodPost, "/analyze-demo",
		`{"symptomsText":"fever and body ache","severity":"mild","age":30}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to store analysis session", decode(t, rec)["message"])
}

func TestHandler_HistoryQueryDefaults(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, Options{Logger: zerolog.Nop()})
	router := newTestRouter(svc, nil)

	for i := 0; i < 12; i++ {
		rec := serve(t, router, http.MethodPost, "/analyze-demo",
			`{"symptomsText":"fever and body ache","severity":"mild","age":30}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	tests := []struct {
		query string
		page  float64
		limit float64
		count int
	}{
		{"", 1, 10, 10},
		{"?page=2&limit=10", 2, 10, 2},
		{"?page=abc&limit=-3", 1, 10, 10},
		{"?page=1&limit=5", 1, 5, 5},
		{"?page=9", 9, 10, 0},
		{"?page=4294967297&limit=4294967296", 4294967297, 100, 0},
		{"?limit=9223372036854775807", 1, 100, 12},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(t, router, http.MethodGet, "/history-demo"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			p := body["pagination"].(map[string]any)
			assert.Equal(t, tt.page, p["page"])
			assert.Equal(t, tt.limit, p["limit"])
			assert.Equal(t, 12.0, p["total"])
			assert.Len(t, body["sessions"], tt.count)
		})
	}
}

func TestHandler_PatientSessions(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, Options{Logger: zerolog.Nop()})
	router := newTestRouter(svc, fakeRenderer{})

	rec := serve(t, router, http.MethodPost, "/analyze",
		`{"symptomsText":"chest tightness when climbing stairs","severity":"moderate","age":58}`)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, testPatient.ID.String(), session["userId"])
	id := session["_id"].(string)

	rec = serve(t, router, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["sessions"], 1)

	rec = serve(t, router, http.MethodGet, "/history-demo", "")
	assert.Len(t, decode(t, rec)["sessions"], 0)

	rec = serve(t, router, http.MethodGet, "/history/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["session"].(map[string]any)["_id"])

	rec = serve(t, router, http.MethodGet, "/history/"+id+"/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "triage_"+id+".pdf")

	rec = serve(t, router, http.MethodGet, "/history/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodDelete, "/history/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, router, http.MethodGet, "/history/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode(t, rec)["message"])
}

func TestHandler_ReportRenderFailure(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, Options{Logger: zerolog.Nop()})
	router := newTestRouter(svc, fakeRenderer{err: errors.New("no font")})

	rec := serve(t, router, http.MethodPost, "/analyze",
		`{"symptomsText":"fever and body ache","severity":"mild","age":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode(t, rec)["session"].(map[string]any)["_id"].(string)

	rec = serve(t, router, http.MethodGet, "/history/"+id+"/report", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to render report", decode(t, rec)["message"])
}
