package user

import (
	"errors"
	"net/http"
	"time"

	"medicare-backend/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc     Service
	tokens  *Tokens
	cookies CookieConfig
	now     func() time.Time
}

func NewHandler(svc Service, tokens *Tokens, cookies CookieConfig) *Handler {
	return &Handler{svc: svc, tokens: tokens, cookies: cookies, now: time.Now}
}

func RegisterRoutes(r chi.Router, h *Handler, auth *Authenticator) {
	r.Post("/patient/register", h.RegisterPatient)
	r.Post("/login", h.Login)
	r.Get("/doctors", h.Doctors)
	r.Get("/patient/logout", h.logout(PatientCookie, "Patient Logged Out Successfully!"))
	r.Get("/admin/logout", h.logout(AdminCookie, "Admin Logged Out Successfully!"))

	r.With(auth.RequirePatient).Get("/patient/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/admin/me", h.Me)
		r.Post("/admin/addnew", h.AddAdmin)
		r.Post("/doctor/addnew", h.AddDoctor)
	})
}

func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.Decode(r, &p); err != nil {
		httpx.WriteError(w, err)
		return
	}

	u, err := h.svc.RegisterPatient(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, profileError(err, "User already registered!"))
		return
	}
	if err := h.setSession(w, PatientCookie, u); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User Registered Successfully!",
		"user":    u,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var c Credentials
	if err := httpx.Decode(r, &c); err != nil {
		httpx.WriteError(w, err)
		return
	}

	u, err := h.svc.Login(r.Context(), c)
	switch {
	case errors.Is(err, ErrIncompleteForm):
		httpx.WriteError(w, httpx.BadRequest("Please Fill Full Form!"))
		return
	case errors.Is(err, ErrPasswordMismatch):
		httpx.WriteError(w, httpx.BadRequest("Password & Confirm Password Do Not Match!"))
		return
	case errors.Is(err, ErrInvalidCredentials):
		httpx.WriteError(w, httpx.BadRequest("Invalid Email Or Password!"))
		return
	case err != nil:
		httpx.WriteError(w, err)
		return
	}

	cookie := PatientCookie
	if u.Role == RoleAdmin {
		cookie = AdminCookie
	}
	if err := h.setSession(w, cookie, u); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login Successfully!",
		"user":    u,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (h *Handler) logout(cookie, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, h.cookies.cleared(cookie, h.now()))
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
	}
}

func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.Decode(r, &p); err != nil {
		httpx.WriteError(w, err)
		return
	}

	u, err := h.svc.AddAdmin(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, profileError(err, "Admin with this email already exists!"))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "New Admin Registered!",
		"admin":   u,
	})
}

func (h *Handler) AddDoctor(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.Decode(r, &p); err != nil {
		httpx.WriteError(w, err)
		return
	}

	u, err := h.svc.AddDoctor(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, profileError(err, "Doctor with this email already exists!"))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "New Doctor Registered!",
		"doctor":  u,
	})
}

func (h *Handler) Doctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.svc.Doctors(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "doctors": doctors})
}

func (h *Handler) setSession(w http.ResponseWriter, cookie string, u *User) error {
	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, h.cookies.session(cookie, token, h.now()))
	return nil
}

func profileError(err error, duplicate string) error {
	switch {
	case errors.Is(err, ErrIncompleteForm):
		return httpx.BadRequest("Please Fill Full Form!")
	case errors.Is(err, ErrEmailTaken):
		return httpx.BadRequest(duplicate)
	}
	return err
}
