package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nextbus-api/models"

	"gonum.org/v1/gonum/stat"
	"gorm.io/gorm"
)

// TelemetryService reads the append-only telemetry table. It enforces no
// staleness policy: the latest row wins regardless of age, and the caller
// gets the row timestamp to decide for itself.
type TelemetryService struct {
	db *gorm.DB
}

func NewTelemetryService(db *gorm.DB) *TelemetryService {
	return &TelemetryService{db: db}
}

// Latest returns the most recent sample for a bus, or ErrTelemetryNotFound
// when the bus has never reported.
func (s *TelemetryService) Latest(ctx context.Context, busID string) (*models.BusTelemetry, error) {
	var rec models.BusTelemetry
	err := s.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("ts DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTelemetryNotFound, busID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Record appends one telemetry sample.
func (s *TelemetryService) Record(ctx context.Context, rec *models.BusTelemetry) error {
	if rec.TS.IsZero() {
		rec.TS = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// SpeedStats summarizes reported speeds over a lookback window.
type SpeedStats struct {
	BusID       string    `json:"busId"`
	Samples     int       `json:"samples"`
	MeanSpeed   float64   `json:"meanSpeed"`
	StdDevSpeed float64   `json:"stdDevSpeed"`
	MinSpeed    float64   `json:"minSpeed"`
	MaxSpeed    float64   `json:"maxSpeed"`
	WindowStart time.Time `json:"windowStart"`
}

// Stats aggregates speed samples for a bus since now-lookback.
func (s *TelemetryService) Stats(ctx context.Context, busID string, lookback time.Duration) (*SpeedStats, error) {
	since := time.Now().UTC().Add(-lookback)

	var speeds []float64
	err := s.db.WithContext(ctx).
		Model(&models.BusTelemetry{}).
		Where("bus_id = ? AND ts >= ?", busID, since).
		Order("ts ASC").
		Pluck("speed", &speeds).Error
	if err != nil {
		return nil, err
	}
	if len(speeds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTelemetryNotFound, busID)
	}

	stats := &SpeedStats{
		BusID:       busID,
		Samples:     len(speeds),
		MeanSpeed:   stat.Mean(speeds, nil),
		MinSpeed:    speeds[0],
		MaxSpeed:    speeds[0],
		WindowStart: since,
	}
	if len(speeds) > 1 {
		stats.StdDevSpeed = stat.StdDev(speeds, nil)
	}
	for _, v := range speeds {
		if v < stats.MinSpeed {
			stats.MinSpeed = v
		}
		if v > stats.MaxSpeed {
			stats.MaxSpeed = v
		}
	}
	return stats, nil
}
