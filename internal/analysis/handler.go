package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"medicare-backend/internal/platform/httpx"
	"medicare-backend/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DemoUserID owns every session created through the unauthenticated
// demo routes.
const DemoUserID = "demo_user"

// ReportRenderer turns a stored session into a printable document.
type ReportRenderer interface {
	RenderSession(s *Session) ([]byte, error)
}

type Handler struct {
	svc      Service
	renderer ReportRenderer
}

func NewHandler(svc Service, renderer ReportRenderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

func RegisterRoutes(r chi.Router, h *Handler, requirePatient func(http.Handler) http.Handler) {
	r.Post("/analyze-demo", h.AnalyzeDemo)
	r.Get("/history-demo", h.HistoryDemo)

	r.Group(func(r chi.Router) {
		r.Use(requirePatient)
		r.Post("/analyze", h.Analyze)
		r.Get("/history", h.History)
		r.Get("/history/{id}", h.Session)
		r.Delete("/history/{id}", h.DeleteSession)
		r.Get("/history/{id}/report", h.SessionReport)
	})
}

// reportRequest accepts age as a JSON number or a numeric string, which
// is what HTML forms tend to send.
type reportRequest struct {
	SymptomReport
	Age flexInt `json:"age"`
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil || n != float64(int(n)) {
		// Left at zero so validation reports the age field.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
		return
	}
	h.analyze(w, r, u.ID.String())
}

func (h *Handler) AnalyzeDemo(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, DemoUserID)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, userID string) {
	var req reportRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	report := req.SymptomReport
	report.Age = int(req.Age)

	out, err := h.svc.Analyze(r.Context(), userID, report)
	if err != nil {
		httpx.WriteError(w, analyzeError(err))
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Analysis completed",
		"session":        out.Session,
		"analysisResult": out.Session.AnalysisResult,
	})
}

func analyzeError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return httpx.BadRequest(ve.Message)
	}
	if errors.Is(err, ErrPersist) {
		return httpx.NewError(http.StatusInternalServerError, "Failed to store analysis session")
	}
	return err
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
		return
	}
	h.history(w, r, u.ID.String())
}

func (h *Handler) HistoryDemo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, DemoUserID)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, userID string) {
	page := queryInt(r, "page", DefaultPage)
	limit := queryInt(r, "limit", DefaultLimit)

	hp, err := h.svc.History(r.Context(), userID, page, limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"sessions":   hp.Sessions,
		"pagination": hp.Pagination,
	})
}

// queryInt returns def when the parameter is missing, not a number or
// not positive.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "session": s})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	u, id, ok := sessionTarget(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), u.ID.String(), id); err != nil {
		httpx.WriteError(w, sessionError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session deleted"})
}

func (h *Handler) SessionReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if h.renderer == nil {
		httpx.WriteError(w, httpx.NewError(http.StatusServiceUnavailable, "Reports are not available"))
		return
	}

	pdf, err := h.renderer.RenderSession(s)
	if err != nil {
		httpx.WriteError(w, httpx.NewError(http.StatusInternalServerError, "Failed to render report"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="triage_%s.pdf"`, s.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	u, id, ok := sessionTarget(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.svc.Get(r.Context(), u.ID.String(), id)
	if err != nil {
		httpx.WriteError(w, sessionError(err))
		return nil, false
	}
	return s, true
}

func sessionTarget(w http.ResponseWriter, r *http.Request) (*user.User, uuid.UUID, bool) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, httpx.BadRequest("Invalid session id"))
		return nil, uuid.Nil, false
	}
	return u, id, true
}

func sessionError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return httpx.NotFound("Session not found")
	}
	return err
}
