package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/service"
)

// CreateBooking handles POST /api/bookings
// Admits a pickup request against the municipality's daily limit.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// ListBookings handles GET /api/bookings[?municipality=]
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var (
		bookings []model.Booking
		err      error
	)
	if m := r.URL.Query().Get("municipality"); m != "" {
		bookings, err = h.bookings.GetBookingsByMunicipality(r.Context(), m)
	} else {
		bookings, err = h.bookings.GetAllBookings(r.Context())
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(bookings))
}

// GetBooking handles GET /api/bookings/{token}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.lookupBooking(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking handles PUT /api/bookings/{token}/cancel
// A booking that is already cancelled is echoed back with 409.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Cancel(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, service.ErrAlreadyCancelled) && booking != nil {
			writeJSON(w, http.StatusConflict, booking)
			return
		}
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// UpdateBookingStatus handles PUT /api/bookings/{token}/status
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookings.UpdateStatus(r.Context(), chi.URLParam(r, "token"), req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// BookingHistory handles GET /api/bookings/{token}/history
// Returns the status changes in the order they happened.
func (h *Handler) BookingHistory(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.lookupBooking(w, r)
	if !ok {
		return
	}

	entries, err := h.bookings.GetStatusHistory(r.Context(), booking)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(entries))
}

func (h *Handler) lookupBooking(w http.ResponseWriter, r *http.Request) (*model.Booking, bool) {
	booking, found, err := h.bookings.GetBookingByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	if !found {
		writeError(w, http.StatusNotFound, service.ErrBookingNotFound.Error())
		return nil, false
	}
	return booking, true
}
