package models

import (
	"gorm.io/gorm"
)

// Click kinds recorded on published listings.
const (
	ClickContact = "contact"
	ClickView    = "view"
)

// ClickRetentionDays is how long click events are kept before the daily prune.
const ClickRetentionDays = 30

// ClickEvent is append-only; used only for aggregate analytics.
type ClickEvent struct {
	gorm.Model
	ListingID uint   `json:"listingID" gorm:"index"`
	ClickerID int64  `json:"clickerID"`
	Kind      string `json:"kind" gorm:"type:varchar(10);index"`
}
