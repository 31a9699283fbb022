package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifeos/core/internal/application/services"
	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

// DataResponse wraps a listed collection
type DataResponse struct {
	Data []entities.Record `json:"data"`
}

// SuccessResponse acknowledges a replace-all
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse carries the upstream error text
type ErrorResponse struct {
	Error string `json:"error"`
}

// SyncHandler serves the uniform {GET,POST} /api?type=... contract
type SyncHandler struct {
	service *services.SyncService
	logger  *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(service *services.SyncService, log *logger.Logger) *SyncHandler {
	return &SyncHandler{service: service, logger: log}
}

// List handles GET /api?type=<collection>
func (h *SyncHandler) List(c echo.Context) error {
	// The type guard runs before any credential or backend work.
	col, err := entities.ParseCollection(c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid type parameter"})
	}

	creds := entities.CredentialsFromHeader(c.Request().Header)
	records, err := h.service.ListAll(c.Request().Context(), creds, col)
	if err != nil {
		h.logger.Errorw("List failed", "collection", col.String(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	if records == nil {
		records = []entities.Record{}
	}
	return c.JSON(http.StatusOK, DataResponse{Data: records})
}

// Replace handles POST /api?type=<collection> with an array body
func (h *SyncHandler) Replace(c echo.Context) error {
	col, err := entities.ParseCollection(c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid type parameter"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: entities.ErrBodyNotArray.Error()})
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("[]")
	}

	// A JSON null unmarshals into a nil slice without error, so the array check
	// has to look at the payload itself.
	if body[0] != '[' {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: entities.ErrBodyNotArray.Error()})
	}

	var records []entities.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: entities.ErrBodyNotArray.Error()})
	}

	creds := entities.CredentialsFromHeader(c.Request().Header)
	if err := h.service.ReplaceAll(c.Request().Context(), creds, col, records); err != nil {
		h.logger.Errorw("Replace failed", "collection", col.String(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
