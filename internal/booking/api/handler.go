package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/booking/qr"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/utils"
)

type Handler struct {
	BookingService *booking.Service
	QR             *qr.Generator
}

func NewHandler(bookingService *booking.Service, qrGen *qr.Generator) *Handler {
	return &Handler{BookingService: bookingService, QR: qrGen}
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.BookingService.Reserve(r.Context(), req)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Booking confirmed", result))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	result, err := h.BookingService.Get(r.Context(), bookingID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", result))
}

func (h *Handler) ReleaseSeats(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req models.ReleaseSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.BookingService.Release(r.Context(), bookingID, req.Seats)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Seats released", result))
}

func (h *Handler) CreateHold(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")

	var req models.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	hold, err := h.BookingService.Hold(r.Context(), showID, req)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Seats held", hold))
}

// GetBookingQR serves an encrypted QR code PNG for a CONFIRMED booking.
func (h *Handler) GetBookingQR(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	result, err := h.BookingService.Get(r.Context(), bookingID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	if result.Status != models.BookingConfirmed {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("QR codes are only issued for confirmed bookings"))
		return
	}

	png, err := h.QR.GenerateEncryptedQR(result.Booking)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not generate QR code"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
