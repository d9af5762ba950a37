package rest

import (
	"fmt"
	"net/http"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/port"
)

type ListingsHandler struct {
	queries port.ListingQueryPort
}

func NewListingsHandler(queries port.ListingQueryPort) *ListingsHandler {
	return &ListingsHandler{queries: queries}
}

func (h *ListingsHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.queries.AllListings(r.Context())
	if err != nil {
		h.logAndFail(w, r, "ListingsHandler: failed to load listings", err)
		return
	}
	h.respond(w, r, toListingResponses(listings))
}

func (h *ListingsHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.queries.Cities(r.Context())
	if err != nil {
		h.logAndFail(w, r, "CitiesHandler: failed to load cities", err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	h.respond(w, r, cities)
}

func (h *ListingsHandler) GetMapData(w http.ResponseWriter, r *http.Request) {
	listings, err := h.queries.MapData(r.Context())
	if err != nil {
		h.logAndFail(w, r, "MapDataHandler: failed to load map data", err)
		return
	}
	h.respond(w, r, toListingResponses(listings))
}

func (h *ListingsHandler) GetByCities(w http.ResponseWriter, r *http.Request) {
	cities := r.URL.Query()["city"]
	if len(cities) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "ByCitiesHandler: at least one city parameter is required")
		return
	}

	listings, err := h.queries.ByCities(r.Context(), cities)
	if err != nil {
		h.logAndFail(w, r, "ByCitiesHandler: failed to load listings", err)
		return
	}
	h.respond(w, r, toListingResponses(listings))
}

func (h *ListingsHandler) GetTopExpensive(w http.ResponseWriter, r *http.Request) {
	limit, err := GetLimitOrDefault(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "TopExpensiveHandler: invalid limit value")
		return
	}

	listings, err := h.queries.TopExpensive(r.Context(), *limit)
	if err != nil {
		h.logAndFail(w, r, "TopExpensiveHandler: failed to load listings", err)
		return
	}
	h.respond(w, r, toListingResponses(listings))
}

func (h *ListingsHandler) GetTopAffordable(w http.ResponseWriter, r *http.Request) {
	limit, err := GetLimitOrDefault(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "TopAffordableHandler: invalid limit value")
		return
	}

	listings, err := h.queries.TopAffordable(r.Context(), *limit)
	if err != nil {
		h.logAndFail(w, r, "TopAffordableHandler: failed to load listings", err)
		return
	}
	h.respond(w, r, toListingResponses(listings))
}

func (h *ListingsHandler) respond(w http.ResponseWriter, r *http.Request, payload any) {
	if err := RespondWithJSON(w, payload); err != nil {
		logger := contextkeys.LoggerFromContext(r.Context())
		logger.Error("Failed to send response", err, nil)
	}
}

func (h *ListingsHandler) logAndFail(w http.ResponseWriter, r *http.Request, message string, err error) {
	logger := contextkeys.LoggerFromContext(r.Context())
	logger.Error(message, err, nil)
	WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", message, err))
}
