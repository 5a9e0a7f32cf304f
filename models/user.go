package models

import "time"

// Role values for User.Role.
const (
	RoleOperator   = "operator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

type User struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	FirstName string    `gorm:"column:first_name" json:"firstName"`
	LastName  string    `gorm:"column:last_name" json:"lastName"`
	Username  string    `gorm:"column:username;uniqueIndex" json:"username"`
	Email     string    `gorm:"column:email;uniqueIndex" json:"email"`
	PhoneNo   string    `gorm:"column:phone_no;uniqueIndex" json:"phoneNo"`
	Password  string    `gorm:"column:password" json:"-"`
	Role      string    `gorm:"column:role;default:admin" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }
