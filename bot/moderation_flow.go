package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

// Moderation-side steps. Edit sub-steps are named stepModEditPrefix + field.
const (
	stepModReject     = "mod_reject_reason"
	stepModEditPrefix = "mod_edit:"
	stepModMedia      = "mod_media_collect"
)

// Admin panel sections (ActionAdminSection values).
const (
	sectionPending    = "pending"
	sectionToken      = "token"
	sectionBroadcast  = "broadcast"
	sectionNewListing = "newlisting"
	sectionDashboard  = "dashboard"
)

// Media management modes.
const (
	mediaModeAdd     = "add"
	mediaModeReplace = "replace"
	mediaModeDelete  = "delete"
)

// ModerationFlow drives the admin panel: review queue, listing edits, media
// management, token issuance, broadcasts and admin-authored listings.
type ModerationFlow struct {
	store   storage.Store
	states  StateStore
	gw      Gateway
	pub     Publisher
	listing *ListingFlow // reused by the admin-authored listing prelude
	log     *slog.Logger
}

func NewModerationFlow(store storage.Store, states StateStore, gw Gateway, pub Publisher, listing *ListingFlow, log *slog.Logger) *ModerationFlow {
	return &ModerationFlow{store: store, states: states, gw: gw, pub: pub, listing: listing, log: log}
}

func panelKeyboard() [][]Button {
	return [][]Button{
		{{Text: textBtnPending, Data: Action{Kind: ActionAdminSection, Value: sectionPending}.Encode()}},
		{{Text: textBtnTokens, Data: Action{Kind: ActionAdminSection, Value: sectionToken}.Encode()}},
		{{Text: textBtnBroadcast, Data: Action{Kind: ActionAdminSection, Value: sectionBroadcast}.Encode()}},
		{{Text: textBtnNewListing, Data: Action{Kind: ActionAdminSection, Value: sectionNewListing}.Encode()}},
		{{Text: textBtnDashboard, Data: Action{Kind: ActionAdminSection, Value: sectionDashboard}.Encode()}},
	}
}

func reviewKeyboard(listingID uint) [][]Button {
	return [][]Button{
		{
			{Text: textBtnApprove, Data: Action{Kind: ActionApprove, ListingID: listingID}.Encode()},
			{Text: textBtnEdit, Data: Action{Kind: ActionEditMenu, ListingID: listingID}.Encode()},
			{Text: textBtnReject, Data: Action{Kind: ActionReject, ListingID: listingID}.Encode()},
		},
		{{Text: textBtnMediaManage, Data: Action{Kind: ActionMediaMenu, ListingID: listingID}.Encode()}},
	}
}

// OpenPanel shows the admin menu. Callers gate on AdminPolicy first.
func (f *ModerationFlow) OpenPanel(ctx context.Context, ev Event) error {
	f.states.Clear(ev.SenderID)
	_, err := f.gw.Send(ev.ChatID, textAdminPanel, panelKeyboard())
	return err
}

// HandleSection dispatches an admin panel section button.
func (f *ModerationFlow) HandleSection(ctx context.Context, ev Event, section string) error {
	switch section {
	case sectionPending:
		return f.showPending(ctx, ev)
	case sectionToken:
		return f.startTokenFlow(ev)
	case sectionBroadcast:
		return f.startBroadcast(ev)
	case sectionNewListing:
		return f.startAdminListing(ev)
	case sectionDashboard:
		return f.sendDashboardToken(ctx, ev)
	}
	return nil
}

// showPending lists every pending listing, each as its media album (caption =
// summary) followed by an actions message carrying the review keyboard.
func (f *ModerationFlow) showPending(ctx context.Context, ev Event) error {
	listings, err := f.store.GetPendingListings(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		_, err := f.gw.Send(ev.ChatID, textNoPending, panelKeyboard())
		return err
	}
	for i := range listings {
		l := &listings[i]
		media, err := f.store.GetMedia(ctx, l.ID)
		if err != nil {
			return err
		}
		summary := FormatListingSummary(l)
		if len(media) > 0 {
			items := make([]MediaItem, 0, len(media))
			for _, m := range media {
				items = append(items, MediaItem{FileID: m.FileID, Kind: m.Kind})
			}
			if err := f.gw.SendAlbum(ev.ChatID, items, summary); err != nil {
				return err
			}
			if _, err := f.gw.Send(ev.ChatID, textChooseAction, reviewKeyboard(l.ID)); err != nil {
				return err
			}
			continue
		}
		if _, err := f.gw.Send(ev.ChatID, summary+"\n\n"+textChooseAction, reviewKeyboard(l.ID)); err != nil {
			return err
		}
	}
	return nil
}

// Approve publishes a pending listing to the channel. Re-pressing the button
// on an already published listing only re-acks; a failed channel post leaves
// the listing approved-but-unpublished so the press can be retried.
func (f *ModerationFlow) Approve(ctx context.Context, ev Event, listingID uint) error {
	listing, err := f.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	switch listing.Status {
	case models.StatusPublished, models.StatusRented:
		return f.gw.Ack(ev.Callback.ID, textAlreadyPublished)
	case models.StatusPending:
		if err := f.store.SetListingStatus(ctx, listingID, models.StatusApproved, ""); err != nil {
			return err
		}
	case models.StatusApproved:
		// Earlier publish failed; retry below.
	default:
		return f.gw.Ack(ev.Callback.ID, textNotFound)
	}

	media, err := f.store.GetMedia(ctx, listingID)
	if err != nil {
		return err
	}
	ref, err := f.pub.Publish(ctx, listing, media)
	if err != nil {
		f.log.Error("channel publish failed", "listing", listingID, "err", err)
		_, serr := f.gw.Send(ev.ChatID, textFailure, nil)
		if serr != nil {
			return serr
		}
		return nil
	}

	now := time.Now()
	if err := f.store.UpdateListingFields(ctx, listingID, map[string]interface{}{
		"status":             models.StatusPublished,
		"channel_message_id": ref.MessageID,
		"published_at":       &now,
	}); err != nil {
		return err
	}

	if listing.Owner.TelegramID != 0 {
		if _, err := f.gw.Send(listing.Owner.TelegramID, textApproved, nil); err != nil {
			f.log.Warn("approval notice undelivered", "listing", listingID, "owner", listing.Owner.TelegramID, "err", err)
		}
	}

	f.audit(ctx, ev.SenderID, "listing.approve", listingID, nil)

	if ev.Callback != nil {
		rented := [][]Button{{{Text: "🔑 ተከራይቷል", Data: Action{Kind: ActionMarkRented, ListingID: listingID}.Encode()}}}
		if err := f.gw.Edit(ev.Callback.Ref, fmt.Sprintf("✅ ማስታወቂያ #%d ጸድቆ ተለቋል።", listingID), rented); err != nil {
			f.log.Warn("review message edit failed", "listing", listingID, "err", err)
		}
	}
	return nil
}

// BeginReject asks for the rejection reason.
func (f *ModerationFlow) BeginReject(ctx context.Context, ev Event, listingID uint) error {
	ref := MessageRef{}
	if ev.Callback != nil {
		ref = ev.Callback.Ref
	}
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepModReject
		st.ListingID = listingID
		st.AdminMsg = ref
	})
	_, err := f.gw.Send(ev.ChatID, textAskRejectReason, nil)
	return err
}

func (f *ModerationFlow) finishReject(ctx context.Context, ev Event, st State) error {
	reason, err := validateReason(ev.Text)
	if err != nil {
		return err
	}
	listing, err := f.store.GetListing(ctx, st.ListingID)
	if err != nil {
		return err
	}
	if err := f.store.SetListingStatus(ctx, st.ListingID, models.StatusRejected, reason); err != nil {
		return err
	}

	if listing.Owner.TelegramID != 0 {
		retry := [][]Button{{{Text: textBtnRetry, Data: Action{Kind: ActionRetrySubmit}.Encode()}}}
		if _, err := f.gw.Send(listing.Owner.TelegramID, textRejectedPrefix+reason, retry); err != nil {
			f.log.Warn("rejection notice undelivered", "listing", st.ListingID, "owner", listing.Owner.TelegramID, "err", err)
		}
	}

	if st.AdminMsg.ChatID != 0 {
		if err := f.gw.Edit(st.AdminMsg, fmt.Sprintf("❌ ማስታወቂያ #%d ተከልክሏል፦ %s", st.ListingID, reason), nil); err != nil {
			f.log.Warn("review message edit failed", "listing", st.ListingID, "err", err)
		}
	}

	f.audit(ctx, ev.SenderID, "listing.reject", st.ListingID, map[string]string{"reason": reason})
	f.states.Clear(ev.SenderID)
	_, err = f.gw.Send(ev.ChatID, textAdminPanel, panelKeyboard())
	return err
}

// ShowEditMenu rewrites the actions message into the field menu. Only
// populated category-specific attributes are offered.
func (f *ModerationFlow) ShowEditMenu(ctx context.Context, ev Event, listingID uint) error {
	listing, err := f.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	var rows [][]Button
	for _, field := range EditFields(listing) {
		rows = append(rows, []Button{{
			Text: FieldLabel(field),
			Data: Action{Kind: ActionEditField, ListingID: listingID, Field: field}.Encode(),
		}})
	}
	rows = append(rows, []Button{{Text: textBtnDone, Data: Action{Kind: ActionEditDone, ListingID: listingID}.Encode()}})

	f.states.Merge(ev.SenderID, func(st *State) { st.ListingID = listingID })
	if ev.Callback != nil {
		return f.gw.Edit(ev.Callback.Ref, textEditWhich, rows)
	}
	_, err = f.gw.Send(ev.ChatID, textEditWhich, rows)
	return err
}

// BeginEditField opens the per-field sub-step: enumerated fields get their
// option keyboard, the rest a text prompt.
func (f *ModerationFlow) BeginEditField(ctx context.Context, ev Event, listingID uint, field string) error {
	listing, err := f.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepModEditPrefix + field
		st.ListingID = listingID
	})

	switch field {
	case FieldVillaType:
		var row []Button
		for _, opt := range VillaTypeOptions() {
			row = append(row, Button{Text: ValueLabel(opt), Data: Action{Kind: ActionPick, Value: opt}.Encode()})
		}
		_, err := f.gw.Send(ev.ChatID, FieldLabel(field)+"?", [][]Button{row})
		return err
	case FieldBathroomType:
		var row []Button
		for _, opt := range BathroomTypeOptions(listing.Title) {
			row = append(row, Button{Text: ValueLabel(opt), Data: Action{Kind: ActionPick, Value: opt}.Encode()})
		}
		_, err := f.gw.Send(ev.ChatID, FieldLabel(field)+"?", [][]Button{row})
		return err
	default:
		_, err := f.gw.Send(ev.ChatID, FieldLabel(field)+"?", nil)
		return err
	}
}

// applyEdit validates and persists one edited field, then reopens the menu.
func (f *ModerationFlow) applyEdit(ctx context.Context, ev Event, st State, field, raw string) error {
	value, targetUser, err := editValue(field, raw)
	if err != nil {
		return err
	}

	if targetUser {
		listing, err := f.store.GetListing(ctx, st.ListingID)
		if err != nil {
			return err
		}
		if err := f.store.UpdateUser(ctx, listing.Owner.TelegramID, map[string]interface{}{field: value}); err != nil {
			return err
		}
	} else {
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{field: value}); err != nil {
			return err
		}
	}

	f.audit(ctx, ev.SenderID, "listing.edit", st.ListingID, map[string]string{"field": field})
	f.states.Merge(ev.SenderID, func(s *State) { s.Step = "" })
	if _, err := f.gw.Send(ev.ChatID, textEditSaved, nil); err != nil {
		return err
	}
	return f.ShowEditMenu(ctx, Event{SenderID: ev.SenderID, ChatID: ev.ChatID}, st.ListingID)
}

// editValue maps a raw edit input to its validated column value. The second
// return marks display_name, which lives on the owner user, not the listing.
func editValue(field, raw string) (interface{}, bool, error) {
	switch field {
	case FieldTitle:
		title := strings.TrimSpace(raw)
		if utf8.RuneCountInString(title) < 5 {
			return nil, false, utils.NewValidationError(textAskTitle)
		}
		return title, false, nil
	case FieldLocation:
		v, err := validateLocation(raw)
		return v, false, err
	case FieldPrice:
		v, err := validatePrice(raw)
		return v, false, err
	case FieldContact:
		return strings.TrimSpace(raw), false, nil
	case FieldDisplayName:
		v, err := validateName(raw)
		return v, true, err
	case FieldRoomsCount, FieldFloor, FieldBedrooms, FieldBathrooms:
		v, err := validateCount(raw)
		return v, false, err
	case FieldBathroomType, FieldVillaType:
		return strings.TrimSpace(raw), false, nil
	case FieldSize:
		size := strings.TrimSpace(raw)
		if size == "" {
			return nil, false, utils.NewValidationError(FieldLabel(FieldSize) + "?")
		}
		return size, false, nil
	}
	return nil, false, utils.NewValidationError(textUnknown)
}

// FinishEdit returns from the edit menu to the review actions.
func (f *ModerationFlow) FinishEdit(ctx context.Context, ev Event, listingID uint) error {
	f.states.Merge(ev.SenderID, func(st *State) { st.Step = "" })
	if ev.Callback != nil {
		return f.gw.Edit(ev.Callback.Ref, textChooseAction, reviewKeyboard(listingID))
	}
	_, err := f.gw.Send(ev.ChatID, textChooseAction, reviewKeyboard(listingID))
	return err
}

// ShowMediaMenu offers add / replace / delete for a listing's attachments.
func (f *ModerationFlow) ShowMediaMenu(ctx context.Context, ev Event, listingID uint) error {
	kb := [][]Button{{
		{Text: textBtnMediaAdd, Data: Action{Kind: ActionMediaMode, ListingID: listingID, Value: mediaModeAdd}.Encode()},
		{Text: textBtnMediaReplace, Data: Action{Kind: ActionMediaMode, ListingID: listingID, Value: mediaModeReplace}.Encode()},
		{Text: textBtnMediaDelete, Data: Action{Kind: ActionMediaMode, ListingID: listingID, Value: mediaModeDelete}.Encode()},
	}}
	_, err := f.gw.Send(ev.ChatID, textMediaMenuTitle, kb)
	return err
}

// BeginMediaMode starts the chosen media sub-flow. Additions are refused up
// front when the listing is already at capacity; replace and delete clear
// the existing set immediately.
func (f *ModerationFlow) BeginMediaMode(ctx context.Context, ev Event, listingID uint, mode string) error {
	switch mode {
	case mediaModeAdd:
		media, err := f.store.GetMedia(ctx, listingID)
		if err != nil {
			return err
		}
		if len(media) >= models.MaxMediaPerListing {
			return f.gw.Ack(ev.Callback.ID, textMediaLimit)
		}
	case mediaModeReplace:
		if err := f.store.DeleteMedia(ctx, listingID); err != nil {
			return err
		}
	case mediaModeDelete:
		if err := f.store.DeleteMedia(ctx, listingID); err != nil {
			return err
		}
		f.audit(ctx, ev.SenderID, "listing.media.delete", listingID, nil)
		_, err := f.gw.Send(ev.ChatID, textMediaDeleted, nil)
		return err
	default:
		return nil
	}

	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepModMedia
		st.ListingID = listingID
		st.MediaMode = mode
		st.Queued = nil
	})
	_, err := f.gw.Send(ev.ChatID, textMediaSendNow, doneKeyboard())
	return err
}

// QueueMedia buffers admin-sent attachments against the cap: persisted count
// plus everything already queued.
func (f *ModerationFlow) QueueMedia(ctx context.Context, ev Event, st State, items []MediaItem) error {
	if st.Step != stepModMedia {
		return nil
	}
	persisted, err := f.store.GetMedia(ctx, st.ListingID)
	if err != nil {
		return err
	}
	room := models.MaxMediaPerListing - len(persisted) - len(st.Queued)
	if room <= 0 {
		_, err := f.gw.Send(ev.ChatID, textMediaLimit, doneKeyboard())
		return err
	}
	truncated := len(items) > room
	if truncated {
		items = items[:room]
	}
	f.states.Merge(ev.SenderID, func(s *State) { s.Queued = append(s.Queued, items...) })
	if truncated {
		_, err := f.gw.Send(ev.ChatID, textMediaPartial, doneKeyboard())
		return err
	}
	return nil
}

// FinishMedia persists the queued items and ends the sub-flow.
func (f *ModerationFlow) FinishMedia(ctx context.Context, ev Event, st State) error {
	if st.Step != stepModMedia {
		return nil
	}
	for _, item := range st.Queued {
		err := f.store.AddMedia(ctx, st.ListingID, models.ListingMedia{FileID: item.FileID, Kind: item.Kind})
		if errors.Is(err, utils.ErrMediaLimit) {
			break
		}
		if err != nil {
			return err
		}
	}
	f.audit(ctx, ev.SenderID, "listing.media."+st.MediaMode, st.ListingID, map[string]string{
		"count": fmt.Sprintf("%d", len(st.Queued)),
	})
	f.states.Clear(ev.SenderID)
	_, err := f.gw.Send(ev.ChatID, textMediaSaved, nil)
	return err
}

// MarkRented flags a published listing as rented.
func (f *ModerationFlow) MarkRented(ctx context.Context, ev Event, listingID uint) error {
	listing, err := f.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status != models.StatusPublished {
		return f.gw.Ack(ev.Callback.ID, textNotFound)
	}
	if err := f.store.SetListingStatus(ctx, listingID, models.StatusRented, ""); err != nil {
		return err
	}
	f.audit(ctx, ev.SenderID, "listing.rented", listingID, nil)
	_, err = f.gw.Send(ev.ChatID, textRentedMarked, nil)
	return err
}

func (f *ModerationFlow) sendDashboardToken(ctx context.Context, ev Event) error {
	token, err := utils.CreateDashboardToken(ev.SenderID)
	if err != nil {
		return err
	}
	f.audit(ctx, ev.SenderID, "dashboard.token", 0, nil)
	_, err = f.gw.Send(ev.ChatID, textDashboardPrefix+"\n"+token, nil)
	return err
}

// HandleText routes moderation-side text steps.
func (f *ModerationFlow) HandleText(ctx context.Context, ev Event, st State) error {
	switch {
	case st.Step == stepModReject:
		return f.finishReject(ctx, ev, st)
	case strings.HasPrefix(st.Step, stepModEditPrefix):
		return f.applyEdit(ctx, ev, st, strings.TrimPrefix(st.Step, stepModEditPrefix), ev.Text)
	case strings.HasPrefix(st.Step, "tok_"):
		return f.handleTokenText(ctx, ev, st)
	case strings.HasPrefix(st.Step, "bc_"):
		return f.handleBroadcastText(ctx, ev, st)
	case strings.HasPrefix(st.Step, "al_"):
		return f.handleAdminListingText(ctx, ev, st)
	}
	_, err := f.gw.Send(ev.ChatID, textAdminPanel, panelKeyboard())
	return err
}

// HandlePick routes enumerated edit picks (villa / bathroom type).
func (f *ModerationFlow) HandlePick(ctx context.Context, ev Event, st State, value string) error {
	if !strings.HasPrefix(st.Step, stepModEditPrefix) {
		return nil
	}
	field := strings.TrimPrefix(st.Step, stepModEditPrefix)
	if field != FieldVillaType && field != FieldBathroomType {
		return nil
	}
	return f.applyEdit(ctx, ev, st, field, value)
}

func (f *ModerationFlow) audit(ctx context.Context, adminID int64, action string, resourceID uint, details map[string]string) {
	entry := models.AuditLog{
		AdminUserID:  adminID,
		Action:       action,
		ResourceType: "listing",
		ResourceID:   resourceID,
	}
	switch {
	case strings.HasPrefix(action, "token."), action == "dashboard.token":
		entry.ResourceType = "token"
	case strings.HasPrefix(action, "broadcast."):
		entry.ResourceType = "broadcast"
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := f.store.RecordAudit(ctx, entry); err != nil {
		f.log.Warn("audit write failed", "action", action, "resource", resourceID, "err", err)
	}
}
