package bot

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

// fakeStore is an in-memory storage.Store for flow tests.
type fakeStore struct {
	users    map[int64]*models.User
	listings map[uint]*models.Listing
	media    map[uint][]models.ListingMedia
	clicks   []models.ClickEvent
	audits   []models.AuditLog
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]*models.User{},
		listings: map[uint]*models.Listing{},
		media:    map[uint][]models.ListingMedia{},
	}
}

func (s *fakeStore) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	u, ok := s.users[telegramID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, telegramID int64) (*models.User, error) {
	active := true
	u := &models.User{TelegramID: telegramID, IsActive: &active}
	u.ID = uint(len(s.users) + 1)
	s.users[telegramID] = u
	copied := *u
	return &copied, nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, telegramID int64, fields map[string]interface{}) error {
	u, ok := s.users[telegramID]
	if !ok {
		return utils.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "display_name":
			u.DisplayName = v.(string)
		case "phone_number":
			u.PhoneNumber = v.(string)
		case "role":
			u.Role = v.(string)
		case "is_admin":
			u.IsAdmin = v.(bool)
		}
	}
	return nil
}

func (s *fakeStore) CreateListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) (uint, error) {
	owner, ok := s.users[ownerTelegramID]
	if !ok {
		return 0, utils.ErrNotFound
	}
	for _, l := range s.listings {
		if l.OwnerID == owner.ID && l.Status == models.StatusPending {
			return 0, utils.ErrDraftExists
		}
	}
	s.nextID++
	l := &models.Listing{OwnerID: owner.ID, Status: models.StatusPending, Owner: *owner}
	l.ID = s.nextID
	l.CreatedAt = time.Now()
	s.listings[l.ID] = l
	if len(fields) > 0 {
		if err := s.UpdateListingFields(ctx, l.ID, fields); err != nil {
			return 0, err
		}
	}
	return l.ID, nil
}

func (s *fakeStore) DraftListing(ctx context.Context, ownerTelegramID int64) (*models.Listing, error) {
	owner, ok := s.users[ownerTelegramID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	var latest *models.Listing
	for _, l := range s.listings {
		if l.OwnerID == owner.ID && l.Status == models.StatusPending {
			if latest == nil || l.CreatedAt.After(latest.CreatedAt) {
				latest = l
			}
		}
	}
	if latest == nil {
		return nil, utils.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *fakeStore) UpdateDraftListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) error {
	draft, err := s.DraftListing(ctx, ownerTelegramID)
	if err != nil {
		return err
	}
	return s.UpdateListingFields(ctx, draft.ID, fields)
}

func (s *fakeStore) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (s *fakeStore) GetPendingListings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range s.listings {
		if l.Status == models.StatusPending {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) SetListingStatus(ctx context.Context, id uint, status, reason string) error {
	l, ok := s.listings[id]
	if !ok {
		return utils.ErrNotFound
	}
	l.Status = status
	if reason != "" {
		l.ReviewNotes = reason
	}
	if status == models.StatusPublished {
		now := time.Now()
		l.PublishedAt = &now
	}
	return nil
}

func (s *fakeStore) UpdateListingFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	l, ok := s.listings[id]
	if !ok {
		return utils.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "category":
			l.Category = v.(string)
		case "title":
			l.Title = v.(string)
		case "location":
			l.Location = v.(string)
		case "price":
			l.Price = v.(string)
		case "contact":
			l.Contact = v.(string)
		case "description":
			l.Description = v.(string)
		case "rooms_count":
			l.RoomsCount = v.(int)
		case "floor":
			l.Floor = v.(int)
		case "bedrooms":
			l.Bedrooms = v.(int)
		case "bathrooms":
			l.Bathrooms = v.(int)
		case "bathroom_type":
			l.BathroomType = v.(string)
		case "villa_type":
			l.VillaType = v.(string)
		case "size":
			l.Size = v.(string)
		case "platform_link":
			l.PlatformLink = v.(string)
		case "platform_name":
			l.PlatformName = v.(string)
		case "status":
			l.Status = v.(string)
		case "channel_message_id":
			l.ChannelMessageID = v.(int)
		case "published_at":
			l.PublishedAt = v.(*time.Time)
		}
	}
	return nil
}

func (s *fakeStore) AddMedia(ctx context.Context, listingID uint, item models.ListingMedia) error {
	existing := s.media[listingID]
	if len(existing) >= models.MaxMediaPerListing {
		return utils.ErrMediaLimit
	}
	item.ListingID = listingID
	item.Position = len(existing)
	s.media[listingID] = append(existing, item)
	return nil
}

func (s *fakeStore) GetMedia(ctx context.Context, listingID uint) ([]models.ListingMedia, error) {
	return s.media[listingID], nil
}

func (s *fakeStore) DeleteMedia(ctx context.Context, listingID uint) error {
	delete(s.media, listingID)
	return nil
}

func (s *fakeStore) RecordClick(ctx context.Context, listingID uint, clickerID int64, kind string) error {
	s.clicks = append(s.clicks, models.ClickEvent{ListingID: listingID, ClickerID: clickerID, Kind: kind})
	return nil
}

func (s *fakeStore) GetClickStats(ctx context.Context, listingID uint) (storage.ClickStats, error) {
	var stats storage.ClickStats
	for _, c := range s.clicks {
		if c.ListingID != listingID {
			continue
		}
		if c.Kind == models.ClickContact {
			stats.Contacts++
		} else {
			stats.Views++
		}
	}
	return stats, nil
}

func (s *fakeStore) PruneClicks(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	u, ok := s.users[telegramID]
	return ok && u.IsAdmin, nil
}

func (s *fakeStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) GetAggregateStats(ctx context.Context) (storage.AggregateStats, error) {
	return storage.AggregateStats{ListingsByStatus: map[string]int64{}}, nil
}

func (s *fakeStore) RecordAudit(ctx context.Context, entry models.AuditLog) error {
	s.audits = append(s.audits, entry)
	return nil
}

// sentMessage captures one outbound message for assertions.
type sentMessage struct {
	ChatID int64
	Text   string
	Kb     [][]Button
}

type fakeGateway struct {
	sent   []sentMessage
	albums []struct {
		ChatID  int64
		Items   []MediaItem
		Caption string
	}
	edits []struct {
		Ref  MessageRef
		Text string
	}
	acks   []string
	nextID int
}

func (g *fakeGateway) Send(chatID int64, text string, kb [][]Button) (MessageRef, error) {
	g.sent = append(g.sent, sentMessage{ChatID: chatID, Text: text, Kb: kb})
	g.nextID++
	return MessageRef{ChatID: chatID, MessageID: g.nextID}, nil
}

func (g *fakeGateway) SendAlbum(chatID int64, items []MediaItem, caption string) error {
	g.albums = append(g.albums, struct {
		ChatID  int64
		Items   []MediaItem
		Caption string
	}{chatID, items, caption})
	return nil
}

func (g *fakeGateway) Edit(ref MessageRef, text string, kb [][]Button) error {
	g.edits = append(g.edits, struct {
		Ref  MessageRef
		Text string
	}{ref, text})
	return nil
}

func (g *fakeGateway) Ack(callbackID, text string) error {
	g.acks = append(g.acks, callbackID)
	return nil
}

// last returns the most recent message sent to chatID, or a zero value.
func (g *fakeGateway) last(chatID int64) sentMessage {
	for i := len(g.sent) - 1; i >= 0; i-- {
		if g.sent[i].ChatID == chatID {
			return g.sent[i]
		}
	}
	return sentMessage{}
}

type fakePublisher struct {
	published  []uint
	contacts   []uint
	notices    []string
	publishErr error
}

func (p *fakePublisher) Publish(ctx context.Context, listing *models.Listing, media []models.ListingMedia) (MessageRef, error) {
	if p.publishErr != nil {
		return MessageRef{}, p.publishErr
	}
	p.published = append(p.published, listing.ID)
	return MessageRef{ChatID: -100, MessageID: 5000 + len(p.published)}, nil
}

func (p *fakePublisher) SendContactCard(chatID int64, listing *models.Listing) error {
	p.contacts = append(p.contacts, listing.ID)
	return nil
}

func (p *fakePublisher) NotifyAdmins(ctx context.Context, text string) error {
	p.notices = append(p.notices, text)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
