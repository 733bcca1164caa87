package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/yonathanth/betbot-sub000/bot"
	"github.com/yonathanth/betbot-sub000/models"
)

// ChannelPublisher posts approved listings to the public channel and sends
// the deep-link driven contact cards. It talks to telebot directly because
// channel posts need URL buttons and typed media the dialogue gateway never
// uses.
type ChannelPublisher struct {
	bot       *tele.Bot
	admins    *bot.AdminPolicy
	channelID int64
	username  string // bot username, for t.me deep links
	log       *slog.Logger
}

func NewChannelPublisher(b *tele.Bot, admins *bot.AdminPolicy, channelID int64, log *slog.Logger) *ChannelPublisher {
	username := ""
	if b != nil && b.Me != nil {
		username = b.Me.Username
	}
	return &ChannelPublisher{bot: b, admins: admins, channelID: channelID, username: username, log: log}
}

// Publish posts the listing to the channel and returns the post reference.
// Single attachments carry the body as caption; albums get the caption on
// the first item and a follow-up message holding the buttons, since media
// groups cannot carry keyboards.
func (p *ChannelPublisher) Publish(ctx context.Context, listing *models.Listing, media []models.ListingMedia) (bot.MessageRef, error) {
	body := bot.FormatListingSummary(listing) + "\n\n" + hashtags(listing)
	markup := p.postButtons(listing.ID)

	switch len(media) {
	case 0:
		msg, err := p.bot.Send(tele.ChatID(p.channelID), body, markup)
		if err != nil {
			return bot.MessageRef{}, err
		}
		return bot.MessageRef{ChatID: p.channelID, MessageID: msg.ID}, nil

	case 1:
		msg, err := p.bot.Send(tele.ChatID(p.channelID), inputMedia(media[0], body), markup)
		if err != nil {
			return bot.MessageRef{}, err
		}
		return bot.MessageRef{ChatID: p.channelID, MessageID: msg.ID}, nil

	default:
		album := make(tele.Album, 0, len(media))
		for i, m := range media {
			caption := ""
			if i == 0 {
				caption = body
			}
			album = append(album, inputMedia(m, caption))
		}
		msgs, err := p.bot.SendAlbum(tele.ChatID(p.channelID), album)
		if err != nil {
			return bot.MessageRef{}, err
		}
		if _, err := p.bot.Send(tele.ChatID(p.channelID), "☎️ ለበለጠ መረጃ ከታች ይጫኑ።", markup); err != nil {
			p.log.Warn("channel button message failed", "listing", listing.ID, "err", err)
		}
		return bot.MessageRef{ChatID: p.channelID, MessageID: msgs[0].ID}, nil
	}
}

func (p *ChannelPublisher) postButtons(listingID uint) *tele.ReplyMarkup {
	id := strconv.FormatUint(uint64(listingID), 10)
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{
		{Text: "☎️ አግኙኝ", URL: fmt.Sprintf("https://t.me/%s?start=contact_%s", p.username, id)},
		{Text: "👁 ዝርዝር", URL: fmt.Sprintf("https://t.me/%s?start=view_%s", p.username, id)},
	}}}
}

func inputMedia(m models.ListingMedia, caption string) tele.Inputtable {
	file := tele.File{FileID: m.FileID}
	switch m.Kind {
	case models.MediaVideo:
		return &tele.Video{File: file, Caption: caption}
	case models.MediaDocument:
		return &tele.Document{File: file, Caption: caption}
	default:
		return &tele.Photo{File: file, Caption: caption}
	}
}

// SendContactCard answers a contact deep link with the advertiser's details.
func (p *ChannelPublisher) SendContactCard(chatID int64, listing *models.Listing) error {
	var b strings.Builder
	fmt.Fprintf(&b, "☎️ የማስታወቂያ #%d መገናኛ\n\n", listing.ID)
	if listing.Owner.DisplayName != "" {
		fmt.Fprintf(&b, "👤 %s\n", listing.Owner.DisplayName)
	}
	if listing.Owner.PhoneNumber != "" {
		fmt.Fprintf(&b, "📞 %s\n", listing.Owner.PhoneNumber)
	}
	if listing.Contact != "" {
		fmt.Fprintf(&b, "📇 %s\n", listing.Contact)
	}
	_, err := p.bot.Send(tele.ChatID(chatID), strings.TrimRight(b.String(), "\n"))
	return err
}

// NotifyAdmins fans a notice out to every admin chat. Individual delivery
// failures are logged and skipped.
func (p *ChannelPublisher) NotifyAdmins(ctx context.Context, text string) error {
	for _, id := range p.admins.ChatIDs(ctx) {
		if _, err := p.bot.Send(tele.ChatID(id), text); err != nil {
			p.log.Warn("admin notice undelivered", "admin", id, "err", err)
		}
	}
	return nil
}

// hashtags derives the channel post tags: category, normalized title and a
// monthly price bucket when the price parses.
func hashtags(l *models.Listing) string {
	tags := []string{"#" + l.Category}
	if l.Title != "" {
		tags = append(tags, "#"+strings.ReplaceAll(strings.TrimSpace(l.Title), " ", "_"))
	}
	if tag := priceTag(l.Price); tag != "" {
		tags = append(tags, tag)
	}
	return strings.Join(tags, " ")
}

func priceTag(price string) string {
	digits := strings.Builder{}
	for _, r := range price {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 && r != ',' {
			break
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil || n == 0 {
		return ""
	}
	switch {
	case n < 10000:
		return "#under_10k"
	case n < 30000:
		return "#10k_30k"
	case n < 100000:
		return "#30k_100k"
	default:
		return "#over_100k"
	}
}
