package appointment

import (
	"errors"
	"net/http"

	"medicare-backend/internal/platform/httpx"
	"medicare-backend/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r chi.Router, h *Handler, auth *user.Authenticator) {
	r.With(auth.RequirePatient).Post("/post", h.Book)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/getall", h.List)
		r.Put("/update/{id}", h.UpdateStatus)
		r.Delete("/delete/{id}", h.Delete)
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	patient, ok := user.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
		return
	}

	var req Request
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	a, err := h.svc.Book(r.Context(), patient.ID, req)
	if err != nil {
		httpx.WriteError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Appointment Send!",
		"appointment": a,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.svc.List(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "appointments": appointments})
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, httpx.BadRequest("Invalid appointment id"))
		return
	}

	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	a, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Appointment Status Updated!",
		"appointment": a,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, httpx.BadRequest("Invalid appointment id"))
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Appointment Deleted!"})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrIncompleteForm):
		return httpx.BadRequest("Please Fill Full Form!")
	case errors.Is(err, ErrDoctorNotFound):
		return httpx.NotFound("Doctor not found")
	case errors.Is(err, ErrDoctorConflict):
		return httpx.BadRequest("Doctors Conflict! Please Contact Through Email Or Phone!")
	case errors.Is(err, ErrInvalidStatus):
		return httpx.BadRequest("Status must be Pending, Accepted or Rejected")
	case errors.Is(err, ErrAppointmentNotFound):
		return httpx.NotFound("Appointment not found!")
	}
	return err
}
