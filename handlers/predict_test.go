package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nextbus-api/models"
	"nextbus-api/services"

	"github.com/gin-gonic/gin"
)

type fakeTelemetry struct {
	rec *models.BusTelemetry
	err error
}

func (f *fakeTelemetry) Latest(ctx context.Context, busID string) (*models.BusTelemetry, error) {
	return f.rec, f.err
}

type fakeDistance struct {
	meters int
	err    error
}

func (f *fakeDistance) DistanceMeters(ctx context.Context, origin, destination string) (int, error) {
	return f.meters, f.err
}

type fakePredictor struct {
	seconds float64
	err     error
}

func (f *fakePredictor) PredictSeconds(ctx context.Context, busID string, distanceMeters int) (float64, error) {
	return f.seconds, f.err
}

type fakeRecorder struct{ err error }

func (f *fakeRecorder) Record(ctx context.Context, entry *models.PredictionHistory) error {
	return f.err
}

func newPredictTestRouter(journey *services.JourneyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPredictHandler(journey, nil, nil, nil)
	router := gin.New()
	router.POST("/predictive-time/predict", h.PredictTime)
	return router
}

func postPredict(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predictive-time/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return w, parsed
}

func TestPredictTimeWarning(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{rec: &models.BusTelemetry{BusID: "BUS-1", Latitude: 6.9442, Longitude: 79.9841}},
		&fakeDistance{meters: 9000},
		&fakePredictor{seconds: 1300},
		&fakeRecorder{},
	)
	router := newPredictTestRouter(journey)

	w, resp := postPredict(t, router,
		`{"busId": "BUS-1", "destination": "Kollupitiya Junction", "desiredArrivalMinutes": 20}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if resp["alertStatus"] != "warning" {
		t.Errorf("alertStatus = %v", resp["alertStatus"])
	}
	if resp["predictedTimeMinutes"] != "21.7" {
		t.Errorf("predictedTimeMinutes = %v, want %q", resp["predictedTimeMinutes"], "21.7")
	}
	if resp["distanceKm"] != float64(9) {
		t.Errorf("distanceKm = %v", resp["distanceKm"])
	}
}

func TestPredictTimeRecorderFailureStillOK(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{rec: &models.BusTelemetry{BusID: "BUS-1", Latitude: 1, Longitude: 2}},
		&fakeDistance{meters: 3000},
		&fakePredictor{seconds: 300},
		&fakeRecorder{err: context.DeadlineExceeded},
	)
	router := newPredictTestRouter(journey)

	w, resp := postPredict(t, router,
		`{"busId": "BUS-1", "destination": "Town Hall", "desiredArrivalMinutes": 10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, recorder failure must not fail the request", w.Code)
	}
	if resp["alertStatus"] != "success" {
		t.Errorf("alertStatus = %v", resp["alertStatus"])
	}
}

func TestPredictTimeMissingFields(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{}, &fakeDistance{}, &fakePredictor{}, &fakeRecorder{},
	)
	router := newPredictTestRouter(journey)

	w, _ := postPredict(t, router, `{"busId": "BUS-1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPredictTimeTelemetryNotFound(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{err: services.ErrTelemetryNotFound},
		&fakeDistance{}, &fakePredictor{}, &fakeRecorder{},
	)
	router := newPredictTestRouter(journey)

	w, resp := postPredict(t, router,
		`{"busId": "BUS-9", "destination": "X", "desiredArrivalMinutes": 5}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "BUS-9") {
		t.Errorf("message = %q, should name the bus", msg)
	}
}

func TestPredictTimeProviderFailure(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{rec: &models.BusTelemetry{BusID: "BUS-1", Latitude: 1, Longitude: 2}},
		&fakeDistance{err: &services.ProviderError{Provider: "distance-matrix", Status: "REQUEST_DENIED"}},
		&fakePredictor{}, &fakeRecorder{},
	)
	router := newPredictTestRouter(journey)

	w, resp := postPredict(t, router,
		`{"busId": "BUS-1", "destination": "X", "desiredArrivalMinutes": 5}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if detail, _ := resp["detail"].(string); !strings.Contains(detail, "REQUEST_DENIED") {
		t.Errorf("detail = %q, should carry provider status", detail)
	}
}

func TestPredictTimeShapeFailure(t *testing.T) {
	journey := services.NewJourneyService(
		&fakeTelemetry{rec: &models.BusTelemetry{BusID: "BUS-1", Latitude: 1, Longitude: 2}},
		&fakeDistance{meters: 9000},
		&fakePredictor{err: &services.ShapeError{
			Provider: "journey-predictor",
			Field:    "predictedTimeSeconds",
			Raw:      []byte(`{"oops": true}`),
		}},
		&fakeRecorder{},
	)
	router := newPredictTestRouter(journey)

	w, resp := postPredict(t, router,
		`{"busId": "BUS-1", "destination": "X", "desiredArrivalMinutes": 5}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	// Raw payload stays in server logs, never in the response.
	if strings.Contains(w.Body.String(), "oops") {
		t.Errorf("raw provider payload leaked to client: %s", w.Body.String())
	}
	if detail, _ := resp["detail"].(string); detail == "" {
		t.Error("expected a short diagnostic detail")
	}
}
