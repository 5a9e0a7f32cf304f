package main

import "testing"

func TestParsePayloadValid(t *testing.T) {
	raw := []byte(`{
		"bus_id": "BUS-177", "latitude": 6.9442, "longitude": 79.9841,
		"speed": 32.5, "rain_level": 1, "ts": "2026-08-30T12:00:00Z"
	}`)

	payload, busID, ok := parsePayload(raw)
	if !ok {
		t.Fatal("payload should be valid")
	}
	if busID != "BUS-177" {
		t.Errorf("busID = %q", busID)
	}
	if *payload.Latitude != 6.9442 {
		t.Errorf("Latitude = %v", *payload.Latitude)
	}
	if payload.Speed != 32.5 {
		t.Errorf("Speed = %v", payload.Speed)
	}
}

func TestParsePayloadDeviceIDFallback(t *testing.T) {
	raw := []byte(`{"device_id": "ESP32_Bus_177", "latitude": 1, "longitude": 2, "speed": 0}`)

	_, busID, ok := parsePayload(raw)
	if !ok {
		t.Fatal("payload should be valid")
	}
	if busID != "ESP32_Bus_177" {
		t.Errorf("busID = %q, want device_id fallback", busID)
	}
}

func TestParsePayloadBusIDWins(t *testing.T) {
	raw := []byte(`{"bus_id": "BUS-1", "device_id": "ESP32_X", "latitude": 1, "longitude": 2}`)

	_, busID, ok := parsePayload(raw)
	if !ok {
		t.Fatal("payload should be valid")
	}
	if busID != "BUS-1" {
		t.Errorf("busID = %q, bus_id should take precedence", busID)
	}
}

func TestParsePayloadInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `garbage`},
		{"missing id", `{"latitude": 1, "longitude": 2, "speed": 10}`},
		{"missing latitude", `{"bus_id": "BUS-1", "longitude": 2}`},
		{"missing longitude", `{"bus_id": "BUS-1", "latitude": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := parsePayload([]byte(tt.raw)); ok {
				t.Error("payload should be rejected")
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("INGESTER_TEST_VAR", "custom")
	if got := getEnv("INGESTER_TEST_VAR", "fallback"); got != "custom" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("INGESTER_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q", got)
	}
}
