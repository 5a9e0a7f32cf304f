package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"nextbus-api/models"
	"nextbus-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PredictHandler struct {
	journey *services.JourneyService
	crowd   *services.CrowdPredictClient
	db      *gorm.DB
	cache   *services.CacheService
}

func NewPredictHandler(journey *services.JourneyService, crowd *services.CrowdPredictClient, db *gorm.DB, cache *services.CacheService) *PredictHandler {
	return &PredictHandler{journey: journey, crowd: crowd, db: db, cache: cache}
}

type PredictTimeRequest struct {
	BusID                 string   `json:"busId" binding:"required"`
	UserLocation          string   `json:"userLocation"`
	Destination           string   `json:"destination" binding:"required"`
	DesiredArrivalMinutes *float64 `json:"desiredArrivalMinutes" binding:"required,gt=0"`
}

// PredictTime runs the journey pipeline for one rider request and maps
// each failure stage to its own status: 404 when the bus has no telemetry,
// 500 with a short detail string for provider or response-shape failures.
func (h *PredictHandler) PredictTime(c *gin.Context) {
	var req PredictTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing busId, destination, or desired time."})
		return
	}

	result, err := h.journey.Predict(c.Request.Context(), services.JourneyRequest{
		BusID:                 req.BusID,
		UserLocation:          req.UserLocation,
		Destination:           req.Destination,
		DesiredArrivalMinutes: *req.DesiredArrivalMinutes,
	})
	if err != nil {
		h.writePipelineError(c, req.BusID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PredictHandler) writePipelineError(c *gin.Context, busID string, err error) {
	if errors.Is(err, services.ErrTelemetryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": fmt.Sprintf("No recent data found for bus %s. Is the device running?", busID),
		})
		return
	}

	var provErr *services.ProviderError
	if errors.As(err, &provErr) {
		log.Printf("prediction pipeline provider failure for bus=%s: %v", busID, provErr)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to complete prediction pipeline.",
			"detail":  provErr.Error(),
		})
		return
	}

	var shapeErr *services.ShapeError
	if errors.As(err, &shapeErr) {
		// Raw payload goes to the server log only.
		log.Printf("prediction provider shape mismatch for bus=%s: %v raw=%s", busID, shapeErr, shapeErr.Raw)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to complete prediction pipeline.",
			"detail":  shapeErr.Error(),
		})
		return
	}

	log.Printf("prediction pipeline failure for bus=%s: %v", busID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to complete prediction pipeline."})
}

type CrowdPredictRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// PredictCrowd proxies the date/time crowd model and persists the result.
func (h *PredictHandler) PredictCrowd(c *gin.Context) {
	var req CrowdPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Date (YYYY-MM-DD) and Time (HH:MM:SS) are required."})
		return
	}

	result, err := h.crowd.Predict(c.Request.Context(), req.Date, req.Time)
	if err != nil {
		var shapeErr *services.ShapeError
		if errors.As(err, &shapeErr) {
			log.Printf("crowd provider shape mismatch: %v raw=%s", shapeErr, shapeErr.Raw)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Prediction service returned invalid JSON",
				"detail":  shapeErr.Error(),
			})
			return
		}
		log.Printf("crowd prediction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Prediction service failed.", "detail": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", result.Date)
	if err != nil {
		date, _ = time.Parse("2006-01-02", req.Date)
	}
	entry := models.CrowdPrediction{
		Date:           date,
		Time:           result.Time,
		PredictedCrowd: result.PredictedCrowd,
		DayOfWeek:      result.DayOfWeek,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
		// Same policy as journey history: the prediction already succeeded.
		log.Printf("crowd prediction save failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prediction successful and saved.",
		"input":   gin.H{"date": req.Date, "time": req.Time},
		"prediction": gin.H{
			"date":            result.Date,
			"time":            result.Time,
			"predicted_crowd": result.PredictedCrowd,
			"day_of_week":     result.DayOfWeek,
		},
	})
}

// History lists prediction history entries, newest first, with cursor
// pagination on the entry timestamp.
func (h *PredictHandler) History(c *gin.Context) {
	p := ParsePagination(c)
	busID := c.Query("busId")

	beforeStr := ""
	if p.Before != nil {
		beforeStr = p.Before.Format(time.RFC3339Nano)
	}
	cacheKey := fmt.Sprintf("history:%s:%d:%s", busID, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.PredictionHistory{}).
		Order("ts DESC").
		Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("ts < ?", *p.Before)
	}
	if busID != "" {
		query = query.Where("bus_id = ?", busID)
	}

	var rows []models.PredictionHistory
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].TS.Format(time.RFC3339Nano)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}
