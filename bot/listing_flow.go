package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

// User-facing submission steps. Category-specific attribute steps are
// named stepAttrPrefix + field.
const (
	stepName         = "awaiting_name"
	stepPhone        = "awaiting_phone"
	stepRole         = "awaiting_role"
	stepCategory     = "awaiting_property_type"
	stepTitle        = "awaiting_title"
	stepAttrPrefix   = "awaiting_attr:"
	stepLocation     = "awaiting_location"
	stepPrice        = "awaiting_price"
	stepContact      = "awaiting_contact"
	stepDescription  = "awaiting_description"
	stepCoverPhoto   = "awaiting_cover_photo"
	stepMorePhotos   = "awaiting_additional_photos"
	stepPlatformLink = "awaiting_platform_link"
)

// Draft keys kept in conversation state while a submission is running.
const (
	draftCategory  = "category"
	draftTitle     = "title"
	draftAdminName = "al_name" // set when an admin authors the listing
)

// ListingFlow drives the user-facing multi-step submission dialogue.
type ListingFlow struct {
	store          storage.Store
	states         StateStore
	gw             Gateway
	pub            Publisher
	log            *slog.Logger
	maxDescription int
}

func NewListingFlow(store storage.Store, states StateStore, gw Gateway, pub Publisher, log *slog.Logger) *ListingFlow {
	return &ListingFlow{
		store:          store,
		states:         states,
		gw:             gw,
		pub:            pub,
		log:            log,
		maxDescription: defaultMaxDescription,
	}
}

func mainMenu() [][]Button {
	return [][]Button{
		{{Text: textBtnSubmit, Data: Action{Kind: ActionSubmitListing}.Encode()}},
		{{Text: textBtnMine, Data: Action{Kind: ActionMyListing}.Encode()}},
	}
}

// Start handles a plain /start: register the user if needed, otherwise show
// the main menu.
func (f *ListingFlow) Start(ctx context.Context, ev Event) error {
	user, err := f.store.GetUser(ctx, ev.SenderID)
	if errors.Is(err, utils.ErrNotFound) {
		user, err = f.store.CreateUser(ctx, ev.SenderID)
	}
	if err != nil {
		return err
	}
	if !user.Registered() {
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepName })
		_, err := f.gw.Send(ev.ChatID, textAskName, nil)
		return err
	}
	_, err = f.gw.Send(ev.ChatID, textWelcome, mainMenu())
	return err
}

// Begin resolves the sender's draft listing (creating one when absent) and
// enters the category step. Registration steps run first for unknown users.
func (f *ListingFlow) Begin(ctx context.Context, ev Event) error {
	user, err := f.store.GetUser(ctx, ev.SenderID)
	if errors.Is(err, utils.ErrNotFound) {
		user, err = f.store.CreateUser(ctx, ev.SenderID)
	}
	if err != nil {
		return err
	}
	if !user.Registered() {
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepName })
		_, err := f.gw.Send(ev.ChatID, textAskName, nil)
		return err
	}
	return f.enterCategoryStep(ctx, ev, nil)
}

// enterCategoryStep pins the draft listing ref into state and asks for the
// category. initial fields (admin-authored contact data) are applied to a
// freshly created draft.
func (f *ListingFlow) enterCategoryStep(ctx context.Context, ev Event, initial map[string]interface{}) error {
	draft, err := f.store.DraftListing(ctx, ev.SenderID)
	if errors.Is(err, utils.ErrNotFound) {
		var id uint
		id, err = f.store.CreateListing(ctx, ev.SenderID, initial)
		if err != nil {
			return err
		}
		draft, err = f.store.GetListing(ctx, id)
	}
	if err != nil {
		return err
	}

	listingID := draft.ID
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepCategory
		st.ListingID = listingID
	})

	kb := [][]Button{
		{{Text: ValueLabel(models.CategoryResidential), Data: Action{Kind: ActionPick, Value: models.CategoryResidential}.Encode()}},
		{{Text: ValueLabel(models.CategoryCommercial), Data: Action{Kind: ActionPick, Value: models.CategoryCommercial}.Encode()}},
		{{Text: textBtnCancel, Data: Action{Kind: ActionCancel}.Encode()}},
	}
	_, err = f.gw.Send(ev.ChatID, textAskCategory, kb)
	return err
}

// ShowDraft answers the "my listing" menu button.
func (f *ListingFlow) ShowDraft(ctx context.Context, ev Event) error {
	draft, err := f.store.DraftListing(ctx, ev.SenderID)
	if errors.Is(err, utils.ErrNotFound) {
		_, err := f.gw.Send(ev.ChatID, textNoDraft, mainMenu())
		return err
	}
	if err != nil {
		return err
	}
	_, err = f.gw.Send(ev.ChatID, FormatListingSummary(draft), nil)
	return err
}

// HandleText advances text-driven steps. A validation failure re-prompts
// the same step without advancing.
func (f *ListingFlow) HandleText(ctx context.Context, ev Event, st State) error {
	switch {
	case st.Step == stepName:
		name, err := validateName(ev.Text)
		if err != nil {
			return err
		}
		if err := f.store.UpdateUser(ctx, ev.SenderID, map[string]interface{}{"display_name": name}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepPhone })
		_, err = f.gw.Send(ev.ChatID, textAskPhone, nil)
		return err

	case st.Step == stepPhone:
		phone, err := validatePhone(ev.Text)
		if err != nil {
			return err
		}
		if err := f.store.UpdateUser(ctx, ev.SenderID, map[string]interface{}{"phone_number": phone}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepRole })
		kb := [][]Button{{
			{Text: ValueLabel(models.RoleBroker), Data: Action{Kind: ActionPick, Value: models.RoleBroker}.Encode()},
			{Text: ValueLabel(models.RoleOwner), Data: Action{Kind: ActionPick, Value: models.RoleOwner}.Encode()},
			{Text: ValueLabel(models.RoleTenant), Data: Action{Kind: ActionPick, Value: models.RoleTenant}.Encode()},
		}}
		_, err = f.gw.Send(ev.ChatID, textAskRole, kb)
		return err

	case st.Step == stepTitle:
		// Keyboard picks are the common path; typed titles are allowed
		// with the minimum-length rule.
		title := strings.TrimSpace(ev.Text)
		if utf8.RuneCountInString(title) < 5 {
			return utils.NewValidationError(textAskTitle)
		}
		return f.setTitle(ctx, ev, st, title)

	case strings.HasPrefix(st.Step, stepAttrPrefix):
		field := strings.TrimPrefix(st.Step, stepAttrPrefix)
		value, err := attrValueFromText(field, ev.Text)
		if err != nil {
			return err
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{field: value}); err != nil {
			return err
		}
		return f.advanceAttr(ctx, ev, st, field)

	case st.Step == stepLocation:
		location, err := validateLocation(ev.Text)
		if err != nil {
			return err
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"location": location}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepPrice })
		_, err = f.gw.Send(ev.ChatID, textAskPrice, nil)
		return err

	case st.Step == stepPrice:
		price, err := validatePrice(ev.Text)
		if err != nil {
			return err
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"price": price}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepContact })
		_, err = f.gw.Send(ev.ChatID, textAskContact, skipKeyboard())
		return err

	case st.Step == stepContact:
		contact := strings.TrimSpace(ev.Text)
		if contact != "" {
			if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"contact": contact}); err != nil {
				return err
			}
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepDescription })
		_, err := f.gw.Send(ev.ChatID, textAskDesc, nil)
		return err

	case st.Step == stepDescription:
		desc, err := validateDescription(ev.Text, f.maxDescription)
		if err != nil {
			return err
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"description": desc}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepCoverPhoto })
		_, err = f.gw.Send(ev.ChatID, textAskCover, nil)
		return err

	case st.Step == stepCoverPhoto || st.Step == stepMorePhotos:
		// Text while photos are expected: re-prompt, no advance.
		return utils.NewValidationError(textNeedPhoto)

	case st.Step == stepPlatformLink:
		link, err := validateURL(ev.Text)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{"platform_link": link}
		if u, err := url.Parse(link); err == nil && u.Host != "" {
			fields["platform_name"] = u.Host
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, fields); err != nil {
			return err
		}
		return f.finalize(ctx, ev, st)

	default:
		_, err := f.gw.Send(ev.ChatID, textUnknown, mainMenu())
		return err
	}
}

// HandlePick advances keyboard-driven steps.
func (f *ListingFlow) HandlePick(ctx context.Context, ev Event, st State, value string) error {
	switch {
	case st.Step == stepRole:
		if value != models.RoleBroker && value != models.RoleOwner && value != models.RoleTenant {
			return nil
		}
		if err := f.store.UpdateUser(ctx, ev.SenderID, map[string]interface{}{"role": value}); err != nil {
			return err
		}
		// Registration complete; continue straight into the submission.
		return f.enterCategoryStep(ctx, ev, nil)

	case st.Step == stepCategory:
		if value != models.CategoryResidential && value != models.CategoryCommercial {
			return nil
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"category": value}); err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(st *State) {
			st.Step = stepTitle
			st.Draft[draftCategory] = value
		})
		var rows [][]Button
		for _, title := range TitlesFor(value) {
			rows = append(rows, []Button{{Text: title, Data: Action{Kind: ActionPick, Value: title}.Encode()}})
		}
		_, err := f.gw.Send(ev.ChatID, textAskTitle, rows)
		return err

	case st.Step == stepTitle:
		return f.setTitle(ctx, ev, st, value)

	case strings.HasPrefix(st.Step, stepAttrPrefix):
		field := strings.TrimPrefix(st.Step, stepAttrPrefix)
		if field != FieldVillaType && field != FieldBathroomType {
			return nil
		}
		if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{field: value}); err != nil {
			return err
		}
		return f.advanceAttr(ctx, ev, st, field)
	}
	return nil
}

// HandleSkip skips the optional contact and platform-link steps.
func (f *ListingFlow) HandleSkip(ctx context.Context, ev Event, st State) error {
	switch st.Step {
	case stepContact:
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepDescription })
		_, err := f.gw.Send(ev.ChatID, textAskDesc, nil)
		return err
	case stepPlatformLink:
		return f.finalize(ctx, ev, st)
	}
	return nil
}

// HandleDone finishes the additional-photos step.
func (f *ListingFlow) HandleDone(ctx context.Context, ev Event, st State) error {
	if st.Step != stepMorePhotos {
		return nil
	}
	f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepPlatformLink })
	_, err := f.gw.Send(ev.ChatID, textAskLink, skipKeyboard())
	return err
}

// HandleMedia folds delivered attachments into the draft, respecting the
// per-listing cap whether they arrive singly or as a debounced album.
func (f *ListingFlow) HandleMedia(ctx context.Context, ev Event, st State, items []MediaItem) error {
	if st.Step != stepCoverPhoto && st.Step != stepMorePhotos {
		return nil
	}
	if st.Step == stepCoverPhoto && items[0].Kind != models.MediaPhoto {
		return utils.NewValidationError(textNeedPhoto)
	}
	added := 0
	truncated := false
	for _, item := range items {
		err := f.store.AddMedia(ctx, st.ListingID, models.ListingMedia{FileID: item.FileID, Kind: item.Kind})
		if errors.Is(err, utils.ErrMediaLimit) {
			truncated = true
			break
		}
		if err != nil {
			return err
		}
		added++
	}
	if st.Step == stepCoverPhoto && added > 0 {
		f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepMorePhotos })
	}
	if truncated {
		_, err := f.gw.Send(ev.ChatID, textMediaPartial, doneKeyboard())
		return err
	}
	_, err := f.gw.Send(ev.ChatID, textAskMore, doneKeyboard())
	return err
}

// Cancel aborts the active submission dialogue.
func (f *ListingFlow) Cancel(ctx context.Context, ev Event) error {
	f.states.Clear(ev.SenderID)
	_, err := f.gw.Send(ev.ChatID, textCancelled, mainMenu())
	return err
}

func (f *ListingFlow) setTitle(ctx context.Context, ev Event, st State, title string) error {
	if err := f.store.UpdateListingFields(ctx, st.ListingID, map[string]interface{}{"title": title}); err != nil {
		return err
	}
	category := st.Draft[draftCategory]
	f.states.Merge(ev.SenderID, func(st *State) { st.Draft[draftTitle] = title })
	st.Draft[draftTitle] = title

	fields := AttributeFields(category, title)
	if len(fields) > 0 {
		return f.promptAttr(ev, st, fields[0])
	}
	return f.enterLocationStep(ev)
}

// advanceAttr moves to the next attribute step for the draft's shape, or on
// to the location step when the attributes are done.
func (f *ListingFlow) advanceAttr(ctx context.Context, ev Event, st State, completed string) error {
	fields := AttributeFields(st.Draft[draftCategory], st.Draft[draftTitle])
	for i, field := range fields {
		if field == completed && i+1 < len(fields) {
			return f.promptAttr(ev, st, fields[i+1])
		}
	}
	return f.enterLocationStep(ev)
}

func (f *ListingFlow) promptAttr(ev Event, st State, field string) error {
	f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepAttrPrefix + field })

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
		for _, opt := range BathroomTypeOptions(st.Draft[draftTitle]) {
			row = append(row, Button{Text: ValueLabel(opt), Data: Action{Kind: ActionPick, Value: opt}.Encode()})
		}
		_, err := f.gw.Send(ev.ChatID, FieldLabel(field)+"?", [][]Button{row})
		return err
	default:
		_, err := f.gw.Send(ev.ChatID, FieldLabel(field)+"?", nil)
		return err
	}
}

func (f *ListingFlow) enterLocationStep(ev Event) error {
	f.states.Merge(ev.SenderID, func(st *State) { st.Step = stepLocation })
	_, err := f.gw.Send(ev.ChatID, textAskLocation, nil)
	return err
}

// finalize leaves the listing pending, tells the user, and sends exactly
// one admin notification per successful submission.
func (f *ListingFlow) finalize(ctx context.Context, ev Event, st State) error {
	listing, err := f.store.GetListing(ctx, st.ListingID)
	if err != nil {
		return err
	}
	user, err := f.store.GetUser(ctx, ev.SenderID)
	if err != nil {
		return err
	}

	notice := fmt.Sprintf("📥 New listing #%d from %s (%s, id %d) awaits review — /admin",
		listing.ID, user.DisplayName, user.PhoneNumber, user.TelegramID)
	if err := f.pub.NotifyAdmins(ctx, notice); err != nil {
		f.log.Error("admin notification failed", "listing", listing.ID, "err", err)
	}

	f.states.Clear(ev.SenderID)
	_, err = f.gw.Send(ev.ChatID, textSubmitted, mainMenu())
	return err
}

func attrValueFromText(field, text string) (interface{}, error) {
	switch field {
	case FieldRoomsCount, FieldFloor, FieldBedrooms, FieldBathrooms:
		return validateCount(text)
	case FieldSize:
		size := strings.TrimSpace(text)
		if size == "" {
			return nil, utils.NewValidationError(FieldLabel(FieldSize) + "?")
		}
		return size, nil
	default:
		return nil, utils.NewValidationError(textUnknown)
	}
}

func skipKeyboard() [][]Button {
	return [][]Button{{{Text: textBtnSkip, Data: Action{Kind: ActionSkip}.Encode()}}}
}

func doneKeyboard() [][]Button {
	return [][]Button{{{Text: textBtnDone, Data: Action{Kind: ActionDone}.Encode()}}}
}
