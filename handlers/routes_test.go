package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nextbus-api/catalog"

	"github.com/gin-gonic/gin"
)

func newRouteTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := catalog.Load([]byte(`
routes:
  - number: "177"
    name: "Kaduwela - Kollupitiya"
    stops:
      - { name: "Kaduwela Bus Stand", latitude: 6.9442, longitude: 79.9841, order: 1 }
      - { name: "Koswatta", latitude: 6.9038, longitude: 79.9242, order: 2 }
      - { name: "Town Hall", latitude: 6.9158, longitude: 79.8592, order: 3 }
      - { name: "Kollupitiya Junction", latitude: 6.9112, longitude: 79.8491, order: 4 }
`))
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}

	h := NewRouteHandler(c)
	router := gin.New()
	router.GET("/routes", h.List)
	router.GET("/routes/:routeNumber/stops", h.Stops)
	router.GET("/locations", h.Locations)
	router.POST("/stops-between", h.StopsBetween)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return w, parsed
}

func TestListRoutes(t *testing.T) {
	router := newRouteTestRouter(t)
	w, resp := doJSON(t, router, http.MethodGet, "/routes", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	routes := resp["routes"].([]interface{})
	if len(routes) != 1 {
		t.Fatalf("got %d routes", len(routes))
	}
	first := routes[0].(map[string]interface{})
	if first["routeNumber"] != "177" {
		t.Errorf("routeNumber = %v", first["routeNumber"])
	}
	if first["totalStops"] != float64(4) {
		t.Errorf("totalStops = %v", first["totalStops"])
	}
}

func TestRouteStops(t *testing.T) {
	router := newRouteTestRouter(t)

	w, resp := doJSON(t, router, http.MethodGet, "/routes/177/stops", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	stops := resp["stops"].([]interface{})
	if len(stops) != 4 {
		t.Errorf("got %d stops", len(stops))
	}

	// Immutable catalog: repeated reads return the identical list.
	w2, resp2 := doJSON(t, router, http.MethodGet, "/routes/177/stops", "")
	if w2.Code != http.StatusOK {
		t.Fatalf("status = %d", w2.Code)
	}
	a, _ := json.Marshal(resp["stops"])
	b, _ := json.Marshal(resp2["stops"])
	if string(a) != string(b) {
		t.Error("repeated reads returned different stop lists")
	}
}

func TestRouteStopsNotFound(t *testing.T) {
	router := newRouteTestRouter(t)
	w, resp := doJSON(t, router, http.MethodGet, "/routes/999/stops", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp["success"] != false {
		t.Errorf("success = %v", resp["success"])
	}
}

func TestLocations(t *testing.T) {
	router := newRouteTestRouter(t)
	w, resp := doJSON(t, router, http.MethodGet, "/locations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	locations := resp["locations"].([]interface{})
	if len(locations) != 4 {
		t.Errorf("got %d locations", len(locations))
	}
}

func TestStopsBetween(t *testing.T) {
	router := newRouteTestRouter(t)
	w, resp := doJSON(t, router, http.MethodPost, "/stops-between",
		`{"from": "Koswatta", "to": "Kollupitiya Junction"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if resp["routeNumber"] != "177" {
		t.Errorf("routeNumber = %v", resp["routeNumber"])
	}
	if resp["totalStops"] != float64(3) {
		t.Errorf("totalStops = %v", resp["totalStops"])
	}
	stops := resp["stops"].([]interface{})
	firstStop := stops[0].(map[string]interface{})
	if firstStop["name"] != "Koswatta" {
		t.Errorf("first stop = %v", firstStop["name"])
	}
}

func TestStopsBetweenWrongDirection(t *testing.T) {
	router := newRouteTestRouter(t)
	w, _ := doJSON(t, router, http.MethodPost, "/stops-between",
		`{"from": "Kollupitiya Junction", "to": "Koswatta"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for reversed pair", w.Code)
	}
}

func TestStopsBetweenNoRoute(t *testing.T) {
	router := newRouteTestRouter(t)
	w, _ := doJSON(t, router, http.MethodPost, "/stops-between",
		`{"from": "Koswatta", "to": "Nowhere"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStopsBetweenMissingFields(t *testing.T) {
	router := newRouteTestRouter(t)
	w, _ := doJSON(t, router, http.MethodPost, "/stops-between", `{"from": "Koswatta"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
