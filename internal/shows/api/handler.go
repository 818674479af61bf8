package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/shows"
	"ms-showbooking/internal/utils"
)

type Handler struct {
	ShowService *shows.Service
}

func NewHandler(showService *shows.Service) *Handler {
	return &Handler{ShowService: showService}
}

func (h *Handler) CreateShow(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	show, err := h.ShowService.Create(r.Context(), req)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Show created", show))
}

func (h *Handler) ListShows(w http.ResponseWriter, r *http.Request) {
	list, err := h.ShowService.List(r.Context())
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", list))
}

func (h *Handler) GetShow(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")
	show, err := h.ShowService.Get(r.Context(), showID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", show))
}

func (h *Handler) DeleteShow(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")
	if err := h.ShowService.Delete(r.Context(), showID); err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Show deleted", nil))
}

// GetSeats returns the allocated seat numbers as a plain ascending array.
func (h *Handler) GetSeats(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")
	seats, err := h.ShowService.AllocatedSeatNumbers(r.Context(), showID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", seats))
}

// GetSeatMap serves the richer occupancy view used by seat pickers.
func (h *Handler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")
	seatMap, err := h.ShowService.SeatMapView(r.Context(), showID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", seatMap))
}

func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")
	bookings, err := h.ShowService.Bookings(r.Context(), showID)
	if err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", bookings))
}

// ExportBookings serves a CSV download of the show's bookings. The CSV is
// built in memory first so a missing show can still come back as a clean 404.
func (h *Handler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showId")

	var buf bytes.Buffer
	if err := h.ShowService.ExportBookingsCSV(r.Context(), showID, &buf); err != nil {
		utils.WriteJSON(w, booking.HTTPStatus(err), utils.ErrorResponse(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="bookings-%s-%s.csv"`, showID, time.Now().UTC().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
