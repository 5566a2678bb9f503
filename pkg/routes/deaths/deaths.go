// Package deaths serves the published death record dataset over HTTP.
package deaths

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/store"
)

const defaultPageSize = 100

// Handler serves read endpoints over the last published run
type Handler struct {
	repo   *store.Repository
	logger ectologger.Logger
}

// NewHandler creates a deaths API handler
func NewHandler(repo *store.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers death record routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.ListDeaths)
	g.GET("/index", h.GetIndex)
	g.GET("/:id", h.GetDeath)
}

// ListResponse is a page of death records
type ListResponse struct {
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
	Records []*models.DeathRecord `json:"records"`
}

// ListDeaths lists records from the last published run, filtered by query
// parameters.
func (h *Handler) ListDeaths(c echo.Context) error {
	ctx := c.Request().Context()

	_, ordered, err := h.repo.LoadRecords()
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load published records")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}

	filtered := make([]*models.DeathRecord, 0, len(ordered))
	for _, record := range ordered {
		if matchesFilters(c, record) {
			filtered = append(filtered, record)
		}
	}

	limit := queryInt(c, "limit", defaultPageSize)
	offset := queryInt(c, "offset", 0)
	if limit <= 0 || limit > 1000 {
		return httperror.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 1000")
	}
	if offset < 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "offset must not be negative")
	}

	page := filtered
	if offset >= len(page) {
		page = nil
	} else {
		page = page[offset:]
	}
	if len(page) > limit {
		page = page[:limit]
	}

	return c.JSON(http.StatusOK, &ListResponse{
		Total:   len(filtered),
		Limit:   limit,
		Offset:  offset,
		Records: page,
	})
}

// GetDeath gets a record by id
func (h *Handler) GetDeath(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	byID, _, err := h.repo.LoadRecords()
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load published records")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}

	record, ok := byID[id]
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, record)
}

// GetIndex returns the aggregate index of the last published run
func (h *Handler) GetIndex(c echo.Context) error {
	ctx := c.Request().Context()

	index, err := h.repo.LoadIndex()
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load aggregate index")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to load index")
	}
	if index == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no published run yet")
	}
	return c.JSON(http.StatusOK, index)
}

func matchesFilters(c echo.Context, record *models.DeathRecord) bool {
	if year := c.QueryParam("year"); year != "" {
		if record.DateOfDeath == nil || dates.Year(*record.DateOfDeath) != year {
			return false
		}
	}
	if context := c.QueryParam("death_context"); context != "" {
		if record.Context() != context {
			return false
		}
	}
	if state := c.QueryParam("state"); state != "" {
		if record.State == nil || !strings.EqualFold(*record.State, state) {
			return false
		}
	}
	if status := c.QueryParam("homicide_status"); status != "" {
		if record.HomicideStatus != status {
			return false
		}
	}
	if review := c.QueryParam("manual_review"); review != "" {
		want, err := strconv.ParseBool(review)
		if err != nil || record.ManualReview != want {
			return false
		}
	}
	return true
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
