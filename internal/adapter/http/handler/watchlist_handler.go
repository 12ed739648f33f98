package handler

import (
	"strings"

	"cantor/internal/adapter/http/dto"
	"cantor/internal/core/ports"
	"cantor/pkg/apperror"
	"cantor/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WatchlistHandler manages the user's watchlists and their pinned rates.
type WatchlistHandler struct {
	watchlistSvc ports.WatchlistService
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistSvc ports.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlistSvc: watchlistSvc}
}

// List handles GET /api/v1/watchlists.
func (h *WatchlistHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	watchlists, err := h.watchlistSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.WatchlistResponse, 0, len(watchlists))
	for _, wl := range watchlists {
		out = append(out, dto.FromWatchlist(wl))
	}
	response.OK(c, out)
}

// Create handles POST /api/v1/watchlists.
func (h *WatchlistHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WatchlistCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wl, err := h.watchlistSvc.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromWatchlist(*wl))
}

// Rename handles PATCH /api/v1/watchlists/:id.
func (h *WatchlistHandler) Rename(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	watchlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrWatchlistNotFound())
		return
	}

	var req dto.WatchlistRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.watchlistSvc.Rename(c.Request.Context(), userID, watchlistID, req.Name); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete handles DELETE /api/v1/watchlists/:id.
func (h *WatchlistHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	watchlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrWatchlistNotFound())
		return
	}

	if err := h.watchlistSvc.Delete(c.Request.Context(), userID, watchlistID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PinRate handles PUT /api/v1/watchlists/:id/rates. Pinning an
// already-pinned code is a no-op, so the verb is idempotent.
func (h *WatchlistHandler) PinRate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	watchlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrWatchlistNotFound())
		return
	}

	var req dto.PinRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	rate, err := req.ToRate()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.watchlistSvc.AddRate(c.Request.Context(), userID, watchlistID, rate); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnpinRate handles DELETE /api/v1/watchlists/:id/rates/:code.
func (h *WatchlistHandler) UnpinRate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	watchlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrWatchlistNotFound())
		return
	}
	code := strings.ToUpper(c.Param("code"))

	if err := h.watchlistSvc.RemoveRate(c.Request.Context(), userID, watchlistID, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
