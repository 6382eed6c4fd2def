package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicare-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		StorageDriver:    config.StorageMemory,
		JWTSecret:        "test-secret",
		JWTExpires:       time.Hour,
		CookieExpireDays: 1,
		HistoryCap:       50,
		AITimeout:        time.Second,
		CORSOrigins:      []string{"http://localhost:5173"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(a.router())
	t.Cleanup(func() {
		srv.Close()
		a.close()
	})
	return srv
}

func postJSON(t *testing.T, c *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, testConfig())

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body := decodeBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, true, body["success"], path)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", body["message"])
}

func TestRouter_DemoAnalysisWithoutCredential(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := postJSON(t, http.DefaultClient, srv.URL+"/api/v1/ai/analyze-demo", map[string]any{
		"symptomsText": "mild headache since this morning",
		"severity":     "mild",
		"age":          "34",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := body["analysisResult"].(map[string]any)
	assert.Equal(t, "self-care", result["triageLevel"])
	assert.InDelta(t, 0.5, result["confidenceScore"], 1e-9)

	resp, err := http.Get(srv.URL + "/api/v1/ai/history-demo?page=1&limit=10")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["total"])

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	text, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `triage_fallbacks_total{reason="not_configured"} 1`)
	assert.Contains(t, string(text), `triage_analyses_total{source="fallback"} 1`)
}

func TestRouter_DemoAnalysisRejectsShortSymptoms(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := postJSON(t, http.DefaultClient, srv.URL+"/api/v1/ai/analyze-demo", map[string]any{
		"symptomsText": "ouch",
		"severity":     "mild",
		"age":          30,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestRouter_PatientFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, _ := postJSON(t, client, srv.URL+"/api/v1/ai/analyze", map[string]any{
		"symptomsText": "sore throat and a cough", "severity": "moderate", "age": 40,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := postJSON(t, client, srv.URL+"/api/v1/user/patient/register", map[string]any{
		"firstName": "Asha", "lastName": "Rao", "email": "asha@example.com", "phone": "9876543210",
		"password": "secret123", "gender": "Female", "dob": "1995-01-15", "nic": "1234567890",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = postJSON(t, client, srv.URL+"/api/v1/ai/analyze", map[string]any{
		"symptomsText": "sore throat and a cough", "severity": "moderate", "age": 40,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	session := body["session"].(map[string]any)
	id := session["_id"].(string)

	resp, err = client.Get(srv.URL + "/api/v1/ai/history/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Demo history is a separate bucket.
	resp, err = client.Get(srv.URL + "/api/v1/ai/history-demo")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 0, body["pagination"].(map[string]any)["total"])

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/ai/history/"+id, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/api/v1/ai/history/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRouter_SeededDemoAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.SeedDemoUsers = true
	srv := newTestServer(t, cfg)

	resp, body := postJSON(t, http.DefaultClient, srv.URL+"/api/v1/user/login", map[string]any{
		"email": "admin@demo.com", "password": "admin123", "confirmPassword": "admin123", "role": "Admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var adminCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == "adminToken" {
			adminCookie = true
		}
	}
	assert.True(t, adminCookie)

	resp, err := http.Get(srv.URL + "/api/v1/user/doctors")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Len(t, body["doctors"], 1)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/ai/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "DELETE"))
}
