package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records admin actions (approve, reject, edit, broadcast, token
// issuance) for the dashboard activity feed.
type AuditLog struct {
	gorm.Model
	AdminUserID  int64          `json:"adminUserID" gorm:"index"`
	Action       string         `json:"action" gorm:"type:varchar(50);index"`
	ResourceType string         `json:"resourceType" gorm:"type:varchar(30)"`
	ResourceID   uint           `json:"resourceID"`
	Details      datatypes.JSON `json:"details"`
}
