package models

import "time"

// Approval workflow states for a registered bus.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

type Bus struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	RegNo           string    `gorm:"column:reg_no;uniqueIndex" json:"regNo"`
	Route           string    `gorm:"column:route" json:"route"`
	Seats           int       `gorm:"column:seats" json:"seats"`
	OwnerName       string    `gorm:"column:owner_name" json:"ownerName"`
	PhoneNo         string    `gorm:"column:phone_no" json:"phoneNo"`
	ImageData       []byte    `gorm:"column:image_data" json:"-"`
	ImageType       string    `gorm:"column:image_type" json:"imageType,omitempty"`
	ApprovalStatus  string    `gorm:"column:approval_status;default:pending" json:"approvalStatus"`
	RejectionReason *string   `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Bus) TableName() string { return "buses" }
