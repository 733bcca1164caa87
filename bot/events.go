package bot

import (
	"context"

	"github.com/yonathanth/betbot-sub000/models"
)

// MessageRef identifies a sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is one inline keyboard control; Data is the encoded Action payload.
type Button struct {
	Text string
	Data string
}

// MediaItem is a platform-native attachment reference.
type MediaItem struct {
	FileID string
	Kind   string // models.MediaPhoto, MediaVideo, MediaDocument
}

// Callback is a button press, parsed into a typed Action at the boundary.
type Callback struct {
	ID     string
	Action Action
	Ref    MessageRef // the message carrying the pressed keyboard
}

// Event is one inbound update normalized by the transport adapter.
type Event struct {
	SenderID  int64
	ChatID    int64
	MessageID int
	Text      string
	Media     *MediaItem
	AlbumID   string // shared by items of one logical album
	Callback  *Callback
}

// Gateway is the outbound half of the messaging transport.
type Gateway interface {
	Send(chatID int64, text string, kb [][]Button) (MessageRef, error)
	SendAlbum(chatID int64, items []MediaItem, caption string) error
	Edit(ref MessageRef, text string, kb [][]Button) error
	// Ack answers a callback; expired-callback failures are swallowed by
	// implementations and only logged.
	Ack(callbackID, text string) error
}

// Publisher formats and delivers listing content outside the dialogue:
// the public channel post, the private contact card, admin notifications.
type Publisher interface {
	Publish(ctx context.Context, listing *models.Listing, media []models.ListingMedia) (MessageRef, error)
	SendContactCard(chatID int64, listing *models.Listing) error
	NotifyAdmins(ctx context.Context, text string) error
}
