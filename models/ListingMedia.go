package models

import (
	"gorm.io/gorm"
)

// MaxMediaPerListing caps attachments per listing at every observation point.
const MaxMediaPerListing = 8

// Media kinds as delivered by the transport.
const (
	MediaPhoto    = "photo"
	MediaVideo    = "video"
	MediaDocument = "document"
)

type ListingMedia struct {
	gorm.Model
	ListingID uint   `json:"listingID" gorm:"index"`
	FileID    string `json:"fileID"` // platform-native file reference
	Kind      string `json:"kind" gorm:"type:varchar(20)"`
	Position  int    `json:"position"`
}
