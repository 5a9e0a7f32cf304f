package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"nextbus-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert verdicts for a journey-time prediction.
const (
	AlertSuccess = "success"
	AlertWarning = "warning"
)

// Verdict is the outcome of comparing a predicted duration against the
// rider's desired arrival window.
type Verdict struct {
	Status           string
	Message          string
	PredictedSeconds float64
	DesiredSeconds   float64
}

// Reconcile compares predicted seconds to the desired minutes. The warning
// comparison is strict: a prediction exactly on the desired time passes.
func Reconcile(predictedSeconds float64, desiredMinutes float64) Verdict {
	v := Verdict{
		PredictedSeconds: predictedSeconds,
		DesiredSeconds:   desiredMinutes * 60,
	}
	predictedMin := predictedSeconds / 60
	if predictedSeconds > v.DesiredSeconds {
		v.Status = AlertWarning
		v.Message = fmt.Sprintf(
			"ALERT: Actual predicted time (%.1f min) is more than your desired time (%g min).",
			predictedMin, desiredMinutes)
	} else {
		v.Status = AlertSuccess
		v.Message = fmt.Sprintf(
			"SUCCESS: Actual predicted time (%.1f min) is less than or equal to your desired time.",
			predictedMin)
	}
	return v
}

// Collaborator contracts of the journey pipeline, kept small so tests can
// substitute each stage.
type TelemetryReader interface {
	Latest(ctx context.Context, busID string) (*models.BusTelemetry, error)
}

type DistanceGetter interface {
	DistanceMeters(ctx context.Context, origin, destination string) (int, error)
}

type JourneyTimePredictor interface {
	PredictSeconds(ctx context.Context, busID string, distanceMeters int) (float64, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, entry *models.PredictionHistory) error
}

// GormHistoryRecorder persists prediction history rows.
type GormHistoryRecorder struct {
	db *gorm.DB
}

func NewGormHistoryRecorder(db *gorm.DB) *GormHistoryRecorder {
	return &GormHistoryRecorder{db: db}
}

func (r *GormHistoryRecorder) Record(ctx context.Context, entry *models.PredictionHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// JourneyRequest is one rider query.
type JourneyRequest struct {
	BusID                 string
	UserLocation          string
	Destination           string
	DesiredArrivalMinutes float64
}

// JourneyResult is the rider-facing outcome.
type JourneyResult struct {
	BusID                string  `json:"busId"`
	PredictedTimeSeconds float64 `json:"predictedTimeSeconds"`
	PredictedTimeMinutes string  `json:"predictedTimeMinutes"`
	DistanceKm           float64 `json:"distanceKm"`
	DesiredTimeMinutes   float64 `json:"desiredTimeMinutes"`
	AlertStatus          string  `json:"alertStatus"`
	AlertMessage         string  `json:"alertMessage"`
}

// JourneyService runs the prediction pipeline: latest telemetry, distance
// to destination, predicted duration, verdict, best-effort history write.
type JourneyService struct {
	telemetry TelemetryReader
	distance  DistanceGetter
	predictor JourneyTimePredictor
	recorder  HistoryRecorder
}

func NewJourneyService(telemetry TelemetryReader, distance DistanceGetter, predictor JourneyTimePredictor, recorder HistoryRecorder) *JourneyService {
	return &JourneyService{
		telemetry: telemetry,
		distance:  distance,
		predictor: predictor,
		recorder:  recorder,
	}
}

// Predict runs the pipeline for one rider request. Errors from each stage
// bubble up unchanged so the handler can map them: ErrTelemetryNotFound,
// *ProviderError, *ShapeError. A history-write failure never fails the
// request; the verdict was already computed and is independently useful.
func (s *JourneyService) Predict(ctx context.Context, req JourneyRequest) (*JourneyResult, error) {
	pos, err := s.telemetry.Latest(ctx, req.BusID)
	if err != nil {
		return nil, err
	}
	origin := fmt.Sprintf("%v,%v", pos.Latitude, pos.Longitude)

	distanceMeters, err := s.distance.DistanceMeters(ctx, origin, req.Destination)
	if err != nil {
		return nil, err
	}

	predictedSeconds, err := s.predictor.PredictSeconds(ctx, req.BusID, distanceMeters)
	if err != nil {
		return nil, err
	}

	verdict := Reconcile(predictedSeconds, req.DesiredArrivalMinutes)
	result := &JourneyResult{
		BusID:                req.BusID,
		PredictedTimeSeconds: predictedSeconds,
		PredictedTimeMinutes: fmt.Sprintf("%.1f", predictedSeconds/60),
		DistanceKm:           float64(distanceMeters) / 1000,
		DesiredTimeMinutes:   req.DesiredArrivalMinutes,
		AlertStatus:          verdict.Status,
		AlertMessage:         verdict.Message,
	}

	userLocation := req.UserLocation
	if userLocation == "" {
		userLocation = origin
	}
	entry := &models.PredictionHistory{
		ID:                   uuid.NewString(),
		BusID:                req.BusID,
		UserLocation:         userLocation,
		Destination:          req.Destination,
		DistanceKm:           result.DistanceKm,
		PredictedTimeMinutes: predictedSeconds / 60,
		DesiredTimeMinutes:   req.DesiredArrivalMinutes,
		AlertStatus:          verdict.Status,
		AlertMessage:         verdict.Message,
		TS:                   time.Now().UTC(),
	}

	// Best-effort audit write, decoupled from the response path. The rider
	// connection may already be gone by the time this lands.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.recorder.Record(ctx, entry); err != nil {
			log.Printf("prediction history write failed for bus=%s: %v", req.BusID, err)
		}
	}()

	return result, nil
}
