package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"nextbus-api/models"
	"nextbus-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type TelemetryHandler struct {
	telemetry *services.TelemetryService
	cache     *services.CacheService
}

func NewTelemetryHandler(telemetry *services.TelemetryService, cache *services.CacheService) *TelemetryHandler {
	return &TelemetryHandler{telemetry: telemetry, cache: cache}
}

// IngestRequest is the payload posted by on-board devices. bus_id is
// canonical; device_id is accepted for older firmware.
type IngestRequest struct {
	BusID          string   `json:"bus_id"`
	DeviceID       string   `json:"device_id"`
	Latitude       *float64 `json:"latitude" binding:"required"`
	Longitude      *float64 `json:"longitude" binding:"required"`
	Speed          *float64 `json:"speed" binding:"required"`
	RainLevel      float64  `json:"rain_level"`
	PassengerCount *int     `json:"passenger_count"`
	Timestamp      string   `json:"timestamp"`
}

func (h *TelemetryHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "missing required fields: latitude, longitude, speed, or bus_id",
		})
		return
	}

	busID := req.BusID
	if busID == "" {
		busID = req.DeviceID
	}
	if busID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bus_id or device_id is required"})
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			ts = parsed.UTC()
		}
	}

	rec := models.BusTelemetry{
		TS:             ts,
		BusID:          busID,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Speed:          *req.Speed,
		RainLevel:      req.RainLevel,
		PassengerCount: req.PassengerCount,
	}
	if err := h.telemetry.Record(c.Request.Context(), &rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to save bus data"})
		return
	}

	go h.cache.Publish(context.Background(), services.TelemetryChannel, rec)

	c.JSON(http.StatusCreated, gin.H{"message": "bus data saved successfully"})
}

func (h *TelemetryHandler) Latest(c *gin.Context) {
	busID := c.Param("busId")
	rec, err := h.telemetry.Latest(c.Request.Context(), busID)
	if err != nil {
		if errors.Is(err, services.ErrTelemetryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Bus " + busID + " not found or no data."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *TelemetryHandler) Stats(c *gin.Context) {
	busID := c.Param("busId")

	lookback := 30 * time.Minute
	if v := c.Query("lookback_min"); v != "" {
		if d, err := time.ParseDuration(v + "m"); err == nil && d > 0 {
			lookback = d
		}
	}

	stats, err := h.telemetry.Stats(c.Request.Context(), busID, lookback)
	if err != nil {
		if errors.Is(err, services.ErrTelemetryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "no telemetry in window for bus " + busID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live streams telemetry updates over a websocket, fed by the Redis
// channel the ingest paths publish to.
func Live(cache *services.CacheService, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query parameter"})
			return
		}

		if _, err := authService.ValidateToken(tokenStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				_, _, err := conn.ReadMessage()
				if err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.TelemetryChannel)
		if pubsub == nil {
			return
		}
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "telemetry_update",
					"data": msg.Payload,
				})
				if err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			}
		}
	}
}
