package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPublished = "published"
	StatusRented    = "rented"
)

// Property categories.
const (
	CategoryResidential = "residential"
	CategoryCommercial  = "commercial"
)

type Listing struct {
	gorm.Model
	OwnerID     uint   `json:"ownerID" gorm:"index"`
	Category    string `json:"category" gorm:"type:varchar(20);index"` // residential, commercial
	Title       string `json:"title"`
	Location    string `json:"location"`
	Price       string `json:"price"`
	Contact     string `json:"contact"`
	Description string `json:"description" gorm:"type:text"`

	// Category-specific attributes; which ones apply is a function of
	// (Category, Title), see bot.AttributeFields.
	RoomsCount   int    `json:"roomsCount" gorm:"column:rooms_count"`
	Floor        int    `json:"floor"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`
	BathroomType string `json:"bathroomType" gorm:"column:bathroom_type;type:varchar(20)"` // private, shared, full, toilet_only, shower_only
	VillaType    string `json:"villaType" gorm:"column:villa_type;type:varchar(20)"`
	Size         string `json:"size"`
	PlatformLink string `json:"platformLink" gorm:"column:platform_link"`
	PlatformName string `json:"platformName" gorm:"column:platform_name"`

	Status           string     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewNotes      string     `json:"reviewNotes" gorm:"type:text"`
	ChannelMessageID int        `json:"channelMessageID" gorm:"column:channel_message_id"`
	PublishedAt      *time.Time `json:"publishedAt"`

	Owner User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Media []ListingMedia `json:"media,omitempty" gorm:"foreignKey:ListingID;references:ID"`
}
