package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/wearcast/internal/domain/advisor"
	"github.com/yanqian/wearcast/internal/domain/forecast"
	apperrors "github.com/yanqian/wearcast/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorSvc  advisor.Service
	forecastSvc forecast.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc advisor.Service, forecastSvc forecast.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc:  advisorSvc,
		forecastSvc: forecastSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// Chat runs the full query → clothing advice pipeline.
func (h *Handler) Chat(c *gin.Context) {
	var req advisor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.advisorSvc.Advise(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "chat_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "extraction_failed"):
			status = http.StatusBadRequest
			code = "extraction_failed"
		case apperrors.IsCode(err, "weather_error"):
			status = http.StatusBadRequest
			code = "weather_error"
		}
		abortWithError(c, NewHTTPError(status, code, apperrors.Message(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CitiesWeather reports current conditions for the fixed city list.
func (h *Handler) CitiesWeather(c *gin.Context) {
	items, err := h.forecastSvc.CitiesOverview(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "weather_error", apperrors.Message(err), err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// DetailedWeather combines current conditions and the upcoming forecast for
// one coordinate pair.
func (h *Handler) DetailedWeather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	city := strings.TrimSpace(c.Query("city"))
	cityJa := strings.TrimSpace(c.Query("cityJa"))
	if latErr != nil || lonErr != nil || city == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Missing required parameters", nil))
		return
	}

	detailed, err := h.forecastSvc.Detailed(c.Request.Context(), lat, lon, city, cityJa)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "weather_error", apperrors.Message(err), err))
		return
	}
	c.JSON(http.StatusOK, detailed)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
