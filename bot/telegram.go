package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/yonathanth/betbot-sub000/models"
)

// TelegramGateway adapts the outbound Gateway interface onto telebot.
type TelegramGateway struct {
	bot *tele.Bot
	log *slog.Logger
}

func NewTelegramGateway(b *tele.Bot, log *slog.Logger) *TelegramGateway {
	return &TelegramGateway{bot: b, log: log}
}

func markup(kb [][]Button) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tele.InlineButton, 0, len(kb))
	for _, row := range kb {
		var btns []tele.InlineButton
		for _, b := range row {
			btns = append(btns, tele.InlineButton{Text: b.Text, Data: b.Data})
		}
		rows = append(rows, btns)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func (g *TelegramGateway) Send(chatID int64, text string, kb [][]Button) (MessageRef, error) {
	var msg *tele.Message
	var err error
	if m := markup(kb); m != nil {
		msg, err = g.bot.Send(tele.ChatID(chatID), text, m)
	} else {
		msg, err = g.bot.Send(tele.ChatID(chatID), text)
	}
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// SendAlbum delivers attachments as one media group; the caption rides on
// the first item.
func (g *TelegramGateway) SendAlbum(chatID int64, items []MediaItem, caption string) error {
	album := make(tele.Album, 0, len(items))
	for i, item := range items {
		text := ""
		if i == 0 {
			text = caption
		}
		album = append(album, inputMedia(item, text))
	}
	_, err := g.bot.SendAlbum(tele.ChatID(chatID), album)
	return err
}

func inputMedia(item MediaItem, caption string) tele.Inputtable {
	file := tele.File{FileID: item.FileID}
	switch item.Kind {
	case models.MediaVideo:
		return &tele.Video{File: file, Caption: caption}
	case models.MediaDocument:
		return &tele.Document{File: file, Caption: caption}
	default:
		return &tele.Photo{File: file, Caption: caption}
	}
}

func (g *TelegramGateway) Edit(ref MessageRef, text string, kb [][]Button) error {
	stored := &tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	var err error
	if m := markup(kb); m != nil {
		_, err = g.bot.Edit(stored, text, m)
	} else {
		_, err = g.bot.Edit(stored, text)
	}
	return err
}

// Ack answers a callback. Expired or already-answered callbacks are routine
// on slow clicks, so those failures are only logged.
func (g *TelegramGateway) Ack(callbackID, text string) error {
	err := g.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	if err != nil {
		g.log.Debug("callback answer failed", "err", err)
	}
	return nil
}

// Register wires the telebot handlers into the dispatcher, normalizing each
// update into an Event at this boundary.
func Register(b *tele.Bot, d *Dispatcher) {
	b.Handle("/start", func(c tele.Context) error {
		d.HandleCommand(context.Background(), eventFrom(c), "/start", c.Message().Payload)
		return nil
	})
	b.Handle("/admin", func(c tele.Context) error {
		d.HandleCommand(context.Background(), eventFrom(c), "/admin", "")
		return nil
	})
	b.Handle("/stop", func(c tele.Context) error {
		d.HandleCommand(context.Background(), eventFrom(c), "/stop", "")
		return nil
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		ev := eventFrom(c)
		if strings.HasPrefix(ev.Text, "/") {
			d.HandleCommand(context.Background(), ev, ev.Text, "")
			return nil
		}
		d.HandleText(context.Background(), ev)
		return nil
	})

	mediaHandler := func(c tele.Context) error {
		d.HandleMedia(context.Background(), eventFrom(c))
		return nil
	}
	b.Handle(tele.OnPhoto, mediaHandler)
	b.Handle(tele.OnVideo, mediaHandler)
	b.Handle(tele.OnDocument, mediaHandler)

	b.Handle(tele.OnCallback, func(c tele.Context) error {
		ev := eventFrom(c)
		if ev.Callback == nil {
			return nil
		}
		d.HandleCallback(context.Background(), ev)
		return nil
	})
}

// eventFrom flattens a telebot update into the transport-neutral Event.
// Unknown callback payloads leave Callback nil so stale buttons are ignored
// after an ack.
func eventFrom(c tele.Context) Event {
	ev := Event{}
	if sender := c.Sender(); sender != nil {
		ev.SenderID = sender.ID
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}

	if msg := c.Message(); msg != nil {
		ev.MessageID = msg.ID
		ev.Text = msg.Text
		ev.AlbumID = msg.AlbumID

		switch {
		case msg.Photo != nil:
			ev.Media = &MediaItem{FileID: msg.Photo.FileID, Kind: models.MediaPhoto}
		case msg.Video != nil:
			ev.Media = &MediaItem{FileID: msg.Video.FileID, Kind: models.MediaVideo}
		case msg.Document != nil:
			ev.Media = &MediaItem{FileID: msg.Document.FileID, Kind: models.MediaDocument}
		}
	}

	if cb := c.Callback(); cb != nil {
		action, err := ParseAction(cb.Data)
		if err == nil {
			ref := MessageRef{}
			if cb.Message != nil {
				ref = MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
				ev.ChatID = cb.Message.Chat.ID
			}
			ev.Callback = &Callback{ID: cb.ID, Action: action, Ref: ref}
		}
	}
	return ev
}
