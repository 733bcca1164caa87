package models

import (
	"gorm.io/gorm"
)

// Role classification chosen during registration.
const (
	RoleBroker = "broker"
	RoleOwner  = "owner"
	RoleTenant = "tenant"
)

type User struct {
	gorm.Model
	TelegramID  int64     `json:"telegramID" gorm:"uniqueIndex"`
	DisplayName string    `json:"displayName"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        string    `json:"role" gorm:"type:varchar(20);index"` // broker, owner, tenant
	IsAdmin     bool      `json:"isAdmin" gorm:"default:false;index"`
	IsActive    *bool     `json:"isActive" gorm:"default:true"`
	Listings    []Listing `json:"listings,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
}

// Registered reports whether the user finished the registration steps.
func (u *User) Registered() bool {
	return u.DisplayName != "" && u.PhoneNumber != ""
}
