package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/utils"
)

// Broadcast steps and admin-authored listing prelude steps.
const (
	stepBCMessage = "bc_message"
	stepBCMedia   = "bc_media"

	stepALName  = "al_name"
	stepALPhone = "al_phone"
	stepALLink  = "al_link"
)

const (
	draftBCAudience  = "bc_audience"
	draftBCMessage   = "bc_message"
	draftBCMediaFile = "bc_media_file"
	draftBCMediaKind = "bc_media_kind"

	draftALPhone = "al_phone"
	draftALLink  = "al_link"
)

const audienceAll = "all"

func (f *ModerationFlow) startBroadcast(ev Event) error {
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepBCMessage
		st.Draft = map[string]string{}
	})
	kb := [][]Button{
		{{Text: textBtnAudAll, Data: Action{Kind: ActionBroadcastAudience, Value: audienceAll}.Encode()}},
		{
			{Text: ValueLabel(models.RoleBroker), Data: Action{Kind: ActionBroadcastAudience, Value: models.RoleBroker}.Encode()},
			{Text: ValueLabel(models.RoleOwner), Data: Action{Kind: ActionBroadcastAudience, Value: models.RoleOwner}.Encode()},
			{Text: ValueLabel(models.RoleTenant), Data: Action{Kind: ActionBroadcastAudience, Value: models.RoleTenant}.Encode()},
		},
		{{Text: textBtnCancel, Data: Action{Kind: ActionCancel}.Encode()}},
	}
	_, err := f.gw.Send(ev.ChatID, textBroadcastAud, kb)
	return err
}

func (f *ModerationFlow) HandleBroadcastAudience(ctx context.Context, ev Event, audience string) error {
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepBCMessage
		st.Draft[draftBCAudience] = audience
	})
	_, err := f.gw.Send(ev.ChatID, textAskBroadcastMsg, nil)
	return err
}

func (f *ModerationFlow) handleBroadcastText(ctx context.Context, ev Event, st State) error {
	if st.Step != stepBCMessage {
		return nil
	}
	message := strings.TrimSpace(ev.Text)
	if message == "" {
		return utils.NewValidationError(textAskBroadcastMsg)
	}
	f.states.Merge(ev.SenderID, func(s *State) {
		s.Step = stepBCMedia
		s.Draft[draftBCMessage] = message
	})
	_, err := f.gw.Send(ev.ChatID, textAskBroadcastMed, skipKeyboard())
	return err
}

// QueueBroadcastMedia captures an optional attachment and moves to confirm.
func (f *ModerationFlow) QueueBroadcastMedia(ctx context.Context, ev Event, st State, items []MediaItem) error {
	if st.Step != stepBCMedia || len(items) == 0 {
		return nil
	}
	item := items[0]
	f.states.Merge(ev.SenderID, func(s *State) {
		s.Draft[draftBCMediaFile] = item.FileID
		s.Draft[draftBCMediaKind] = item.Kind
	})
	return f.confirmBroadcast(ev)
}

// SkipBroadcastMedia moves to confirm without an attachment.
func (f *ModerationFlow) SkipBroadcastMedia(ctx context.Context, ev Event, st State) error {
	if st.Step != stepBCMedia {
		return nil
	}
	return f.confirmBroadcast(ev)
}

func (f *ModerationFlow) confirmBroadcast(ev Event) error {
	kb := [][]Button{{
		{Text: textBtnSend, Data: Action{Kind: ActionBroadcastConfirm}.Encode()},
		{Text: textBtnCancel, Data: Action{Kind: ActionCancel}.Encode()},
	}}
	_, err := f.gw.Send(ev.ChatID, textBroadcastConfirm, kb)
	return err
}

// RunBroadcast fans the message out to the selected audience. Per-recipient
// failures (blocked bot, deleted account) are logged and skipped.
func (f *ModerationFlow) RunBroadcast(ctx context.Context, ev Event, st State) error {
	audience := st.Draft[draftBCAudience]
	message := st.Draft[draftBCMessage]
	if message == "" {
		return utils.NewValidationError(textAskBroadcastMsg)
	}

	role := audience
	if role == audienceAll {
		role = ""
	}
	users, err := f.store.ListUsersByRole(ctx, role)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	mediaFile := st.Draft[draftBCMediaFile]
	sent, failed := 0, 0
	for _, user := range users {
		if user.TelegramID == 0 {
			continue
		}
		var err error
		if mediaFile != "" {
			err = f.gw.SendAlbum(user.TelegramID, []MediaItem{{FileID: mediaFile, Kind: st.Draft[draftBCMediaKind]}}, message)
		} else {
			_, err = f.gw.Send(user.TelegramID, message, nil)
		}
		if err != nil {
			failed++
			f.log.Warn("broadcast delivery failed", "run", runID, "recipient", user.TelegramID, "err", err)
			continue
		}
		sent++
	}

	f.audit(ctx, ev.SenderID, "broadcast.send", 0, map[string]string{
		"run":      runID,
		"audience": audience,
		"sent":     fmt.Sprintf("%d", sent),
		"failed":   fmt.Sprintf("%d", failed),
	})
	f.states.Clear(ev.SenderID)
	_, err = f.gw.Send(ev.ChatID, fmt.Sprintf("%s (%d/%d)", textBroadcastDone, sent, sent+failed), panelKeyboard())
	return err
}

// startAdminListing collects the advertiser's name, phone and optional link
// before handing over to the regular submission steps. The admin owns the
// draft; the collected contact data rides on the listing itself.
func (f *ModerationFlow) startAdminListing(ev Event) error {
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepALName
		st.Draft = map[string]string{}
	})
	_, err := f.gw.Send(ev.ChatID, textNewListingName, nil)
	return err
}

func (f *ModerationFlow) handleAdminListingText(ctx context.Context, ev Event, st State) error {
	switch st.Step {
	case stepALName:
		name, err := validateName(ev.Text)
		if err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(s *State) {
			s.Step = stepALPhone
			s.Draft[draftAdminName] = name
		})
		_, err = f.gw.Send(ev.ChatID, textNewListingPhone, nil)
		return err

	case stepALPhone:
		phone, err := validatePhone(ev.Text)
		if err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(s *State) {
			s.Step = stepALLink
			s.Draft[draftALPhone] = phone
		})
		_, err = f.gw.Send(ev.ChatID, textNewListingLink, skipKeyboard())
		return err

	case stepALLink:
		link, err := validateURL(ev.Text)
		if err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(s *State) { s.Draft[draftALLink] = link })
		st.Draft[draftALLink] = link
		return f.enterAdminListingFields(ctx, ev, st)
	}
	return nil
}

// SkipAdminListingLink proceeds into the field collection without a link.
func (f *ModerationFlow) SkipAdminListingLink(ctx context.Context, ev Event, st State) error {
	if st.Step != stepALLink {
		return nil
	}
	return f.enterAdminListingFields(ctx, ev, st)
}

// enterAdminListingFields seeds the draft listing with the advertiser's
// contact data and reuses the submission flow for everything else.
func (f *ModerationFlow) enterAdminListingFields(ctx context.Context, ev Event, st State) error {
	initial := map[string]interface{}{
		"contact": st.Draft[draftAdminName] + ", " + st.Draft[draftALPhone],
	}
	if link := st.Draft[draftALLink]; link != "" {
		initial["platform_link"] = link
	}
	if f.listing == nil {
		return fmt.Errorf("listing flow not wired")
	}
	return f.listing.enterCategoryStep(ctx, ev, initial)
}
