package models

import "time"

// BusTelemetry is one position sample from an on-board device. Rows are
// append-only: the ingest paths insert, readers only ever select the
// max-timestamp row per bus.
type BusTelemetry struct {
	TS             time.Time `gorm:"column:ts;primaryKey" json:"ts"`
	BusID          string    `gorm:"column:bus_id;primaryKey;index" json:"busId"`
	Latitude       float64   `gorm:"column:latitude" json:"latitude"`
	Longitude      float64   `gorm:"column:longitude" json:"longitude"`
	Speed          float64   `gorm:"column:speed" json:"speed"`
	RainLevel      float64   `gorm:"column:rain_level" json:"rainLevel"`
	PassengerCount *int      `gorm:"column:passenger_count" json:"passengerCount,omitempty"`
}

func (BusTelemetry) TableName() string { return "bus_telemetry" }
