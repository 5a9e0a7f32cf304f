package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"nextbus-api/config"
)

const (
	journeyProvider = "journey-predictor"
	crowdProvider   = "crowd-predictor"
)

// JourneyPredictClient calls the ML service that turns a distance into a
// predicted journey duration.
//
// The ML service's response field has drifted across revisions
// (predictedTimeSeconds, then totalJourneySeconds in one deploy), so the
// decode happens through per-version structs mapped to one internal value
// at this boundary. A response matching neither shape, or carrying a
// non-finite number, fails with *ShapeError; NaN never flows downstream.
type JourneyPredictClient struct {
	httpClient *http.Client
	url        string
}

func NewJourneyPredictClient(cfg config.ProviderConfig) *JourneyPredictClient {
	return &JourneyPredictClient{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		url:        cfg.JourneyPredictURL,
	}
}

type journeyPredictRequest struct {
	BusID          string `json:"busId"`
	DistanceMeters int    `json:"distanceMeters"`
}

// Current and legacy response shapes of the journey model.
type journeyPredictResponse struct {
	PredictedTimeSeconds *float64 `json:"predictedTimeSeconds"`
	TotalJourneySeconds  *float64 `json:"totalJourneySeconds"`
	Error                string   `json:"error"`
}

// PredictSeconds posts {busId, distanceMeters} and returns the predicted
// journey duration in seconds.
func (c *JourneyPredictClient) PredictSeconds(ctx context.Context, busID string, distanceMeters int) (float64, error) {
	resp, raw, err := c.post(ctx, journeyPredictRequest{BusID: busID, DistanceMeters: distanceMeters})
	if err != nil {
		return 0, err
	}

	var parsed journeyPredictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, &ShapeError{Provider: journeyProvider, Field: "predictedTimeSeconds", Raw: raw}
	}
	if parsed.Error != "" {
		return 0, &ProviderError{Provider: journeyProvider, Status: parsed.Error, URL: c.url}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, &ProviderError{
			Provider: journeyProvider,
			Status:   fmt.Sprintf("HTTP %d", resp.StatusCode),
			URL:      c.url,
		}
	}

	value := parsed.PredictedTimeSeconds
	if value == nil {
		value = parsed.TotalJourneySeconds
	}
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 0, &ShapeError{Provider: journeyProvider, Field: "predictedTimeSeconds", Raw: raw}
	}
	return *value, nil
}

func (c *JourneyPredictClient) post(ctx context.Context, payload interface{}) (*http.Response, []byte, error) {
	return postJSON(ctx, c.httpClient, c.url, journeyProvider, payload)
}

// CrowdResult is the internal form of a crowd-model response.
type CrowdResult struct {
	Date           string
	Time           string
	PredictedCrowd int
	DayOfWeek      string
}

// CrowdPredictClient calls the date/time crowd-level model.
type CrowdPredictClient struct {
	httpClient *http.Client
	url        string
}

func NewCrowdPredictClient(cfg config.ProviderConfig) *CrowdPredictClient {
	return &CrowdPredictClient{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		url:        cfg.CrowdPredictURL,
	}
}

type crowdPredictRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// predicted_crowd is current; predicted_count appeared in an earlier model
// revision and is still accepted.
type crowdPredictResponse struct {
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	PredictedCrowd *float64 `json:"predicted_crowd"`
	PredictedCount *float64 `json:"predicted_count"`
	DayOfWeek      string   `json:"day_of_week"`
	Error          string   `json:"error"`
}

// Predict posts {date, time} and returns the predicted crowd level.
func (c *CrowdPredictClient) Predict(ctx context.Context, date, timeOfDay string) (*CrowdResult, error) {
	resp, raw, err := postJSON(ctx, c.httpClient, c.url, crowdProvider,
		crowdPredictRequest{Date: date, Time: timeOfDay})
	if err != nil {
		return nil, err
	}

	var parsed crowdPredictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ShapeError{Provider: crowdProvider, Field: "predicted_crowd", Raw: raw}
	}
	if parsed.Error != "" {
		return nil, &ProviderError{Provider: crowdProvider, Status: parsed.Error, URL: c.url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: crowdProvider,
			Status:   fmt.Sprintf("HTTP %d", resp.StatusCode),
			URL:      c.url,
		}
	}

	value := parsed.PredictedCrowd
	if value == nil {
		value = parsed.PredictedCount
	}
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return nil, &ShapeError{Provider: crowdProvider, Field: "predicted_crowd", Raw: raw}
	}

	return &CrowdResult{
		Date:           parsed.Date,
		Time:           parsed.Time,
		PredictedCrowd: int(math.Round(*value)),
		DayOfWeek:      parsed.DayOfWeek,
	}, nil
}

func postJSON(ctx context.Context, client *http.Client, url, provider string, payload interface{}) (*http.Response, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ProviderError{Provider: provider, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, &ProviderError{Provider: provider, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &ProviderError{Provider: provider, URL: url, Err: err}
	}
	return resp, raw, nil
}
