package handlers

import (
	"errors"
	"net/http"

	"nextbus-api/catalog"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	catalog *catalog.Catalog
}

func NewRouteHandler(c *catalog.Catalog) *RouteHandler {
	return &RouteHandler{catalog: c}
}

func (h *RouteHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"routes":  h.catalog.List(),
	})
}

func (h *RouteHandler) Stops(c *gin.Context) {
	routeNumber := c.Param("routeNumber")
	route, ok := h.catalog.Get(routeNumber)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route " + routeNumber + " not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"routeNumber": route.Number,
		"routeName":   route.Name,
		"stops":       route.Stops,
	})
}

func (h *RouteHandler) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"locations": h.catalog.StopNames(),
	})
}

type StopsBetweenRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (h *RouteHandler) StopsBetween(c *gin.Context) {
	var req StopsBetweenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	match, err := h.catalog.Resolve(req.From, req.To)
	if err != nil {
		if errors.Is(err, catalog.ErrWrongDirection) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
		return
	}

	stops := match.StopsBetween()
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"routeNumber": match.Route.Number,
		"routeName":   match.Route.Name,
		"from":        match.From.Name,
		"to":          match.To.Name,
		"stops":       stops,
		"totalStops":  len(stops),
	})
}
