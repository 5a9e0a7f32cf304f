package handlers

import (
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"

	"nextbus-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BusHandler struct {
	db *gorm.DB
}

func NewBusHandler(db *gorm.DB) *BusHandler {
	return &BusHandler{db: db}
}

type CreateBusRequest struct {
	RegNo     string `json:"regNo" binding:"required"`
	Route     string `json:"route" binding:"required"`
	Seats     int    `json:"seats" binding:"required,gt=0"`
	OwnerName string `json:"ownerName" binding:"required"`
	PhoneNo   string `json:"phoneNo" binding:"required"`
	Image     string `json:"image" binding:"required"`
}

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// parseImage accepts either a data URL or bare base64 bytes.
func parseImage(input string) (data []byte, contentType string, ok bool) {
	if m := dataURLPattern.FindStringSubmatch(input); m != nil {
		decoded, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return nil, "", false
		}
		return decoded, m[1], true
	}
	decoded, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, "", false
	}
	return decoded, "image/*", true
}

func (h *BusHandler) Create(c *gin.Context) {
	var req CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing required fields", "error": err.Error()})
		return
	}

	imageData, imageType, ok := parseImage(req.Image)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid base64 image"})
		return
	}

	bus := models.Bus{
		RegNo:          req.RegNo,
		Route:          req.Route,
		Seats:          req.Seats,
		OwnerName:      req.OwnerName,
		PhoneNo:        req.PhoneNo,
		ImageData:      imageData,
		ImageType:      imageType,
		ApprovalStatus: models.ApprovalPending,
	}
	if err := h.db.Create(&bus).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			c.JSON(http.StatusConflict, gin.H{"message": "regNo already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register bus"})
		return
	}

	c.JSON(http.StatusCreated, bus)
}

func (h *BusHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Bus{}).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("approval_status = ?", status)
	}

	var buses []models.Bus
	if err := query.Find(&buses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "database query failed"})
		return
	}
	c.JSON(http.StatusOK, buses)
}

func (h *BusHandler) Get(c *gin.Context) {
	var bus models.Bus
	if err := h.db.First(&bus, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "bus not found"})
		return
	}
	c.JSON(http.StatusOK, bus)
}

func (h *BusHandler) Image(c *gin.Context) {
	var bus models.Bus
	if err := h.db.Select("image_data", "image_type").First(&bus, "id = ?", c.Param("id")).Error; err != nil || len(bus.ImageData) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "image not found"})
		return
	}

	contentType := bus.ImageType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, bus.ImageData)
}

type UpdateBusRequest struct {
	RegNo     string `json:"regNo"`
	Route     string `json:"route"`
	Seats     *int   `json:"seats"`
	OwnerName string `json:"ownerName"`
	PhoneNo   string `json:"phoneNo"`
	Image     string `json:"image"`
}

func (h *BusHandler) Update(c *gin.Context) {
	var req UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var bus models.Bus
	if err := h.db.First(&bus, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "bus not found"})
		return
	}

	if req.RegNo != "" {
		bus.RegNo = req.RegNo
	}
	if req.Route != "" {
		bus.Route = req.Route
	}
	if req.Seats != nil {
		bus.Seats = *req.Seats
	}
	if req.OwnerName != "" {
		bus.OwnerName = req.OwnerName
	}
	if req.PhoneNo != "" {
		bus.PhoneNo = req.PhoneNo
	}
	if req.Image != "" {
		data, contentType, ok := parseImage(req.Image)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid base64 image"})
			return
		}
		bus.ImageData = data
		bus.ImageType = contentType
	}

	if err := h.db.Save(&bus).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			c.JSON(http.StatusConflict, gin.H{"message": "regNo already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update bus"})
		return
	}
	c.JSON(http.StatusOK, bus)
}

func (h *BusHandler) Delete(c *gin.Context) {
	result := h.db.Delete(&models.Bus{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete bus"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "bus not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bus deleted"})
}

// Approve moves a registration to approved and clears any earlier
// rejection reason.
func (h *BusHandler) Approve(c *gin.Context) {
	var bus models.Bus
	if err := h.db.First(&bus, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "bus not found"})
		return
	}

	bus.ApprovalStatus = models.ApprovalApproved
	bus.RejectionReason = nil
	if err := h.db.Save(&bus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to approve bus"})
		return
	}
	c.JSON(http.StatusOK, bus)
}

type RejectBusRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *BusHandler) Reject(c *gin.Context) {
	var req RejectBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "rejection reason is required"})
		return
	}

	var bus models.Bus
	if err := h.db.First(&bus, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "bus not found"})
		return
	}

	bus.ApprovalStatus = models.ApprovalRejected
	bus.RejectionReason = &req.Reason
	if err := h.db.Save(&bus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to reject bus"})
		return
	}
	c.JSON(http.StatusOK, bus)
}
