package handler

import (
	"strings"
	"time"

	"cantor/internal/adapter/http/dto"
	"cantor/internal/core/ports"
	"cantor/pkg/apperror"
	"cantor/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// RateHandler serves the current rate table and historical series.
type RateHandler struct {
	rateSvc ports.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateSvc ports.RateService) *RateHandler {
	return &RateHandler{rateSvc: rateSvc}
}

// GetCurrentRates handles GET /api/v1/rates.
func (h *RateHandler) GetCurrentRates(c *gin.Context) {
	table, err := h.rateSvc.CurrentRates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromRateTable(table))
}

// GetHistory handles GET /api/v1/rates/:code/history.
//
// The window comes from either explicit from/to query params (YYYY-MM-DD)
// or a range shorthand (1W, 1M, 3M, 6M, 1Y); range defaults to 1M.
func (h *RateHandler) GetHistory(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if len(code) != 3 {
		response.Error(c, apperror.ErrUnknownCurrency(code))
		return
	}

	from, to, err := historyWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	points, err := h.rateSvc.History(c.Request.Context(), viewerKey(c), code, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromRatePoints(code, points))
}

// viewerKey identifies the requesting client so that one viewer's newer
// history fetch supersedes only their own in-flight one. Authenticated
// requests key on the user, anonymous ones on the client address.
func viewerKey(c *gin.Context) string {
	if id, ok := currentUserID(c); ok {
		return id.String()
	}
	return c.ClientIP()
}

func historyWindow(c *gin.Context) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr != "" || toStr != "" {
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Validation("invalid 'from' date, expected YYYY-MM-DD")
		}
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Validation("invalid 'to' date, expected YYYY-MM-DD")
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, apperror.Validation("'to' date precedes 'from' date")
		}
		return from, to, nil
	}

	now := time.Now()
	switch c.DefaultQuery("range", "1M") {
	case "1W":
		return now.AddDate(0, 0, -7), now, nil
	case "1M":
		return now.AddDate(0, -1, 0), now, nil
	case "3M":
		return now.AddDate(0, -3, 0), now, nil
	case "6M":
		return now.AddDate(0, -6, 0), now, nil
	case "1Y":
		return now.AddDate(-1, 0, 0), now, nil
	default:
		return time.Time{}, time.Time{}, apperror.Validation("unknown range, expected one of 1W, 1M, 3M, 6M, 1Y")
	}
}
