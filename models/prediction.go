package models

import "time"

// PredictionHistory is the audit record of one completed journey-time
// prediction. Written once per successful pipeline run, never updated.
type PredictionHistory struct {
	ID                   string    `gorm:"column:id;primaryKey" json:"id"`
	BusID                string    `gorm:"column:bus_id;index" json:"busId"`
	UserLocation         string    `gorm:"column:user_location" json:"userLocation"`
	Destination          string    `gorm:"column:destination" json:"destination"`
	DistanceKm           float64   `gorm:"column:distance_km" json:"distanceKm"`
	PredictedTimeMinutes float64   `gorm:"column:predicted_time_minutes" json:"predictedTimeMinutes"`
	DesiredTimeMinutes   float64   `gorm:"column:desired_time_minutes" json:"desiredTimeMinutes"`
	AlertStatus          string    `gorm:"column:alert_status" json:"alertStatus"`
	AlertMessage         string    `gorm:"column:alert_message" json:"alertMessage"`
	TS                   time.Time `gorm:"column:ts;index" json:"ts"`
}

func (PredictionHistory) TableName() string { return "prediction_history" }

// CrowdPrediction stores one result from the date/time crowd model.
type CrowdPrediction struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Date           time.Time `gorm:"column:date" json:"date"`
	Time           string    `gorm:"column:time" json:"time"`
	PredictedCrowd int       `gorm:"column:predicted_crowd" json:"predictedCrowd"`
	DayOfWeek      string    `gorm:"column:day_of_week" json:"dayOfWeek"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (CrowdPrediction) TableName() string { return "crowd_predictions" }
