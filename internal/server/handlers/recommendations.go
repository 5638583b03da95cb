package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"go.uber.org/zap"
)

const (
	personaAgriculture = "agriculture"
	personaTravel      = "travel"
)

// RecommendationRecorder counts produced bundles. Optional.
type RecommendationRecorder interface {
	RecordRecommendation(persona string, alerts []recommend.Alert)
}

type RecommendationHandler struct {
	engine   *recommend.Engine
	source   ConditionsSource
	recorder RecommendationRecorder
	logger   *zap.Logger
}

func NewRecommendationHandler(engine *recommend.Engine, source ConditionsSource, recorder RecommendationRecorder, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine:   engine,
		source:   source,
		recorder: recorder,
		logger:   logger,
	}
}

func (h *RecommendationHandler) record(persona string, alerts []recommend.Alert) {
	if h.recorder != nil {
		h.recorder.RecordRecommendation(persona, alerts)
	}
}

func (h *RecommendationHandler) conditions(c *gin.Context) (weather.Snapshot, weather.Forecast, bool) {
	ctx := utils.GetContextFromGinContext(c)

	var req CoordinatesQuery
	if errs := utils.BindQuery(c, &req); errs != nil {
		respondInvalid(c, errs)
		return weather.Snapshot{}, nil, false
	}

	data, err := h.source.Conditions(ctx, *req.Lat, *req.Lon)
	if err != nil {
		h.logger.Error("Failed to get weather data",
			zap.String("request_id", utils.GetRequestIDFromGinContext(c)),
			zap.Error(err))
		respondError(c, err, "Failed to fetch weather data")
		return weather.Snapshot{}, nil, false
	}
	return data.Current, data.Forecast, true
}

func (h *RecommendationHandler) Agriculture(c *gin.Context) {
	current, forecast, ok := h.conditions(c)
	if !ok {
		return
	}
	h.respondAgriculture(c, current, forecast, true)
}

func (h *RecommendationHandler) Travel(c *gin.Context) {
	current, forecast, ok := h.conditions(c)
	if !ok {
		return
	}
	h.respondTravel(c, current, forecast, true)
}

// Evaluate runs the engine over a caller-supplied snapshot without
// contacting any provider.
func (h *RecommendationHandler) Evaluate(c *gin.Context) {
	var param PersonaParam
	if err := c.ShouldBindUri(&param); err != nil {
		respondInvalid(c, []utils.ValidationError{{Field: "persona", Tag: "parse", Message: err.Error()}})
		return
	}
	if errs := utils.ValidateStruct(param); errs != nil {
		respondInvalid(c, errs)
		return
	}

	var req EvaluateRequest
	if errs := utils.BindJSON(c, &req); errs != nil {
		respondInvalid(c, errs)
		return
	}

	forecast := req.Forecast
	if len(forecast) == 0 && len(req.Readings) > 0 {
		forecast = weather.AggregateDaily(req.Readings, len(req.Readings))
	}

	switch param.Persona {
	case personaAgriculture:
		h.respondAgriculture(c, req.Current, forecast, false)
	case personaTravel:
		h.respondTravel(c, req.Current, forecast, false)
	}
}

func (h *RecommendationHandler) respondAgriculture(c *gin.Context, current weather.Snapshot, forecast weather.Forecast, includeWeather bool) {
	ctx := utils.GetContextFromGinContext(c)

	bundle, err := h.engine.Agriculture(ctx, current, forecast)
	if err != nil {
		respondError(c, err, "Failed to generate recommendations")
		return
	}
	h.record(personaAgriculture, bundle.Alerts)

	resp := AgricultureResponse{
		Success:         true,
		Season:          h.engine.Season(),
		Recommendations: bundle,
	}
	if includeWeather {
		resp.Weather = &current
		resp.Forecast = forecast
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) respondTravel(c *gin.Context, current weather.Snapshot, forecast weather.Forecast, includeWeather bool) {
	ctx := utils.GetContextFromGinContext(c)

	bundle, err := h.engine.Travel(ctx, current, forecast)
	if err != nil {
		respondError(c, err, "Failed to generate recommendations")
		return
	}
	h.record(personaTravel, bundle.Alerts)

	resp := TravelResponse{Success: true, Recommendations: bundle}
	if includeWeather {
		resp.Weather = &current
		resp.Forecast = forecast
	}
	c.JSON(http.StatusOK, resp)
}
