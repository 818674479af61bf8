package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-showbooking/internal/addons"
	"ms-showbooking/internal/booking"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/utils"
)

type Handler struct {
	AddonService *addons.Service
}

func NewHandler(addonService *addons.Service) *Handler {
	return &Handler{AddonService: addonService}
}

func statusFor(err error) int {
	if errors.Is(err, addons.ErrItemNotFound) {
		return http.StatusNotFound
	}
	return booking.HTTPStatus(err)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddonItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	item, err := h.AddonService.Create(r.Context(), req)
	if err != nil {
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Addon item created", item))
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.AddonService.List(r.Context())
	if err != nil {
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("", items))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req models.AddonItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body: "+err.Error()))
		return
	}

	item, err := h.AddonService.Update(r.Context(), itemID, req)
	if err != nil {
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Addon item updated", item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if err := h.AddonService.Delete(r.Context(), itemID); err != nil {
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse(err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Addon item deleted", nil))
}
