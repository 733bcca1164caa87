package bot

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

const (
	// defaultFlushDelay is the album debounce window: items sharing a media
	// group id are buffered this long after the first arrival, then handled
	// as one batch.
	defaultFlushDelay = time.Second
	// defaultMenuDelay is the pause before re-offering the main menu after
	// an unexpected failure.
	defaultMenuDelay = 2 * time.Second
)

// Deep-link payloads carried on /start.
const (
	deepLinkContact = "contact_"
	deepLinkView    = "view_"
)

// Dispatcher routes normalized transport events into the flows and owns the
// central error policy: validation errors re-prompt, missing records reset
// the dialogue, config errors surface verbatim, everything else is logged
// and answered with a generic failure.
type Dispatcher struct {
	store   storage.Store
	states  StateStore
	gw      Gateway
	pub     Publisher
	admins  *AdminPolicy
	listing *ListingFlow
	mod     *ModerationFlow
	log     *slog.Logger

	flushDelay time.Duration
	menuDelay  time.Duration
}

func NewDispatcher(store storage.Store, states StateStore, gw Gateway, pub Publisher, admins *AdminPolicy, listing *ListingFlow, mod *ModerationFlow, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		states:     states,
		gw:         gw,
		pub:        pub,
		admins:     admins,
		listing:    listing,
		mod:        mod,
		log:        log,
		flushDelay: defaultFlushDelay,
		menuDelay:  defaultMenuDelay,
	}
}

// HandleCommand routes slash commands. payload is the /start deep-link
// argument, empty otherwise.
func (d *Dispatcher) HandleCommand(ctx context.Context, ev Event, command, payload string) {
	d.runStep(ev, func() error {
		switch command {
		case "/start":
			if payload != "" {
				return d.handleDeepLink(ctx, ev, payload)
			}
			return d.listing.Start(ctx, ev)
		case "/admin":
			if !d.admins.IsAdmin(ctx, ev.SenderID) {
				_, err := d.gw.Send(ev.ChatID, textNotAdmin, nil)
				return err
			}
			return d.mod.OpenPanel(ctx, ev)
		case "/stop":
			d.states.Clear(ev.SenderID)
			_, err := d.gw.Send(ev.ChatID, textStopped, nil)
			return err
		default:
			_, err := d.gw.Send(ev.ChatID, textUnknown, mainMenu())
			return err
		}
	})
}

// handleDeepLink answers channel button links: contact_<id> sends the
// contact card, view_<id> re-renders the listing. Both record a click;
// a failed click write never blocks the response.
func (d *Dispatcher) handleDeepLink(ctx context.Context, ev Event, payload string) error {
	var kind, raw string
	switch {
	case strings.HasPrefix(payload, deepLinkContact):
		kind, raw = models.ClickContact, strings.TrimPrefix(payload, deepLinkContact)
	case strings.HasPrefix(payload, deepLinkView):
		kind, raw = models.ClickView, strings.TrimPrefix(payload, deepLinkView)
	default:
		return d.listing.Start(ctx, ev)
	}

	id64, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return d.listing.Start(ctx, ev)
	}
	listingID := uint(id64)

	listing, err := d.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	if err := d.store.RecordClick(ctx, listingID, ev.SenderID, kind); err != nil {
		d.log.Warn("click write failed", "listing", listingID, "kind", kind, "err", err)
	}

	if kind == models.ClickContact {
		return d.pub.SendContactCard(ev.ChatID, listing)
	}

	media, err := d.store.GetMedia(ctx, listingID)
	if err != nil {
		return err
	}
	summary := FormatListingSummary(listing)
	if len(media) > 0 {
		items := make([]MediaItem, 0, len(media))
		for _, m := range media {
			items = append(items, MediaItem{FileID: m.FileID, Kind: m.Kind})
		}
		return d.gw.SendAlbum(ev.ChatID, items, summary)
	}
	_, err = d.gw.Send(ev.ChatID, summary, nil)
	return err
}

// HandleText routes a plain text message by the sender's current step.
func (d *Dispatcher) HandleText(ctx context.Context, ev Event) {
	d.runStep(ev, func() error {
		st := d.states.Get(ev.SenderID)
		if isAdminStep(st.Step) {
			if !d.admins.IsAdmin(ctx, ev.SenderID) {
				d.states.Clear(ev.SenderID)
				_, err := d.gw.Send(ev.ChatID, textNotAdmin, nil)
				return err
			}
			return d.mod.HandleText(ctx, ev, st)
		}
		return d.listing.HandleText(ctx, ev, st)
	})
}

// HandleMedia ingests one attachment. Album items are debounced: the first
// item arms a flush timer and the drained batch is dispatched as one unit,
// so cap checks and confirmations happen once per album.
func (d *Dispatcher) HandleMedia(ctx context.Context, ev Event) {
	if ev.Media == nil {
		return
	}
	if ev.AlbumID == "" {
		d.deliverMedia(ctx, ev, []MediaItem{*ev.Media})
		return
	}
	if n := d.states.AppendBatch(ev.AlbumID, *ev.Media); n == 1 {
		batchID := ev.AlbumID
		first := ev
		time.AfterFunc(d.flushDelay, func() {
			items, ok := d.states.DrainBatch(batchID)
			if !ok || len(items) == 0 {
				return
			}
			d.deliverMedia(context.Background(), first, items)
			d.states.DiscardBatch(batchID)
		})
	}
}

func (d *Dispatcher) deliverMedia(ctx context.Context, ev Event, items []MediaItem) {
	d.runStep(ev, func() error {
		st := d.states.Get(ev.SenderID)
		switch {
		case st.Step == stepModMedia:
			return d.mod.QueueMedia(ctx, ev, st, items)
		case st.Step == stepBCMedia:
			return d.mod.QueueBroadcastMedia(ctx, ev, st, items)
		default:
			return d.listing.HandleMedia(ctx, ev, st, items)
		}
	})
}

// HandleCallback routes a parsed button press. Every press is acked; admin
// actions are gated regardless of what the button claims.
func (d *Dispatcher) HandleCallback(ctx context.Context, ev Event) {
	if ev.Callback == nil {
		return
	}
	act := ev.Callback.Action
	if err := d.gw.Ack(ev.Callback.ID, ""); err != nil {
		d.log.Debug("callback ack failed", "err", err)
	}

	d.runStep(ev, func() error {
		st := d.states.Get(ev.SenderID)

		switch act.Kind {
		case ActionSubmitListing, ActionRetrySubmit:
			return d.listing.Begin(ctx, ev)
		case ActionMyListing:
			return d.listing.ShowDraft(ctx, ev)
		case ActionPick:
			if strings.HasPrefix(st.Step, stepModEditPrefix) {
				return d.mod.HandlePick(ctx, ev, st, act.Value)
			}
			return d.listing.HandlePick(ctx, ev, st, act.Value)
		case ActionSkip:
			switch st.Step {
			case stepTokNote:
				return d.mod.SkipTokenNote(ctx, ev, st)
			case stepBCMedia:
				return d.mod.SkipBroadcastMedia(ctx, ev, st)
			case stepALLink:
				return d.mod.SkipAdminListingLink(ctx, ev, st)
			}
			return d.listing.HandleSkip(ctx, ev, st)
		case ActionDone:
			if st.Step == stepModMedia {
				return d.mod.FinishMedia(ctx, ev, st)
			}
			return d.listing.HandleDone(ctx, ev, st)
		case ActionCancel:
			if isAdminStep(st.Step) && d.admins.IsAdmin(ctx, ev.SenderID) {
				return d.mod.OpenPanel(ctx, ev)
			}
			return d.listing.Cancel(ctx, ev)
		}

		// Everything below is admin-only.
		if !d.admins.IsAdmin(ctx, ev.SenderID) {
			_, err := d.gw.Send(ev.ChatID, textNotAdmin, nil)
			return err
		}

		switch act.Kind {
		case ActionAdminSection:
			return d.mod.HandleSection(ctx, ev, act.Value)
		case ActionApprove:
			return d.mod.Approve(ctx, ev, act.ListingID)
		case ActionReject:
			return d.mod.BeginReject(ctx, ev, act.ListingID)
		case ActionEditMenu:
			return d.mod.ShowEditMenu(ctx, ev, act.ListingID)
		case ActionEditField:
			return d.mod.BeginEditField(ctx, ev, act.ListingID, act.Field)
		case ActionEditDone:
			return d.mod.FinishEdit(ctx, ev, act.ListingID)
		case ActionMediaMenu:
			return d.mod.ShowMediaMenu(ctx, ev, act.ListingID)
		case ActionMediaMode:
			return d.mod.BeginMediaMode(ctx, ev, act.ListingID, act.Value)
		case ActionTokenKind:
			return d.mod.HandleTokenKind(ctx, ev, act.Value)
		case ActionTokenMode:
			return d.mod.HandleTokenMode(ctx, ev, act.Value)
		case ActionBack:
			return d.mod.HandleBack(ctx, ev, st)
		case ActionBroadcastAudience:
			return d.mod.HandleBroadcastAudience(ctx, ev, act.Value)
		case ActionBroadcastConfirm:
			return d.mod.RunBroadcast(ctx, ev, st)
		case ActionMarkRented:
			return d.mod.MarkRented(ctx, ev, act.ListingID)
		}
		return nil
	})
}

// isAdminStep reports whether a step belongs to the moderation side.
func isAdminStep(step string) bool {
	return strings.HasPrefix(step, "mod_") ||
		strings.HasPrefix(step, "tok_") ||
		strings.HasPrefix(step, "bc_") ||
		strings.HasPrefix(step, "al_")
}

// runStep executes one handler under the central error policy. A panic or
// unexpected error clears the dialogue so the user is never stuck on a
// broken step.
func (d *Dispatcher) runStep(ev Event, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", "chat", ev.ChatID, "panic", r, "stack", string(debug.Stack()))
			d.fail(ev)
		}
	}()

	err := fn()
	if err == nil {
		return
	}

	var vErr *utils.ValidationError
	var cErr *utils.ConfigError
	switch {
	case errors.As(err, &vErr):
		// Re-prompt; the step does not advance and nothing is logged.
		if _, serr := d.gw.Send(ev.ChatID, vErr.Msg, nil); serr != nil {
			d.log.Warn("re-prompt undelivered", "chat", ev.ChatID, "err", serr)
		}
	case errors.Is(err, utils.ErrNotFound):
		d.states.Clear(ev.SenderID)
		if _, serr := d.gw.Send(ev.ChatID, textNotFound, mainMenu()); serr != nil {
			d.log.Warn("reply undelivered", "chat", ev.ChatID, "err", serr)
		}
	case errors.As(err, &cErr):
		d.log.Error("configuration error", "err", err)
		if _, serr := d.gw.Send(ev.ChatID, cErr.Error(), nil); serr != nil {
			d.log.Warn("reply undelivered", "chat", ev.ChatID, "err", serr)
		}
	default:
		d.log.Error("handler failed", "chat", ev.ChatID, "err", err)
		d.fail(ev)
	}
}

func (d *Dispatcher) fail(ev Event) {
	d.states.Clear(ev.SenderID)
	if _, err := d.gw.Send(ev.ChatID, textFailure, nil); err != nil {
		d.log.Warn("failure notice undelivered", "chat", ev.ChatID, "err", err)
		return
	}
	chatID := ev.ChatID
	time.AfterFunc(d.menuDelay, func() {
		if _, err := d.gw.Send(chatID, textWelcome, mainMenu()); err != nil {
			d.log.Warn("menu redelivery failed", "chat", chatID, "err", err)
		}
	})
}
