package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"go.uber.org/zap"
)

type LocationHandler struct {
	geo    Geocoder
	logger *zap.Logger
}

func NewLocationHandler(geo Geocoder, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{geo: geo, logger: logger}
}

// AutoDetect geolocates the client IP, falling back to the default location.
func (h *LocationHandler) AutoDetect(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	loc := h.geo.DetectOrDefault(ctx, c.ClientIP())
	c.JSON(http.StatusOK, LocationResponse{Success: true, Location: loc})
}

func (h *LocationHandler) Search(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	var req SearchQuery
	if errs := utils.BindQuery(c, &req); errs != nil {
		respondInvalid(c, errs)
		return
	}

	results, err := h.geo.Search(ctx, req.Q, req.Limit)
	if err != nil {
		h.logger.Warn("Location search failed",
			zap.String("request_id", utils.GetRequestIDFromGinContext(c)),
			zap.String("query", req.Q),
			zap.Error(err))
		respondError(c, err, "Location search failed")
		return
	}

	c.JSON(http.StatusOK, LocationsResponse{Success: true, Locations: results})
}
