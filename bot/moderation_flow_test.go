package bot

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/utils"
)

type modFixture struct {
	store  *fakeStore
	states *MemoryStateStore
	gw     *fakeGateway
	pub    *fakePublisher
	flow   *ModerationFlow
}

const adminID int64 = 999

func newModFixture() *modFixture {
	store := newFakeStore()
	states := NewMemoryStateStore()
	gw := &fakeGateway{}
	pub := &fakePublisher{}
	listing := NewListingFlow(store, states, gw, pub, testLogger())
	return &modFixture{
		store:  store,
		states: states,
		gw:     gw,
		pub:    pub,
		flow:   NewModerationFlow(store, states, gw, pub, listing, testLogger()),
	}
}

// seedPendingListing creates a registered owner and one pending listing.
func (fx *modFixture) seedPendingListing(t *testing.T, ownerID int64) uint {
	t.Helper()
	ctx := context.Background()
	fx.store.CreateUser(ctx, ownerID)
	fx.store.UpdateUser(ctx, ownerID, map[string]interface{}{
		"display_name": "ሰላም", "phone_number": "+251911000001",
	})
	id, err := fx.store.CreateListing(ctx, ownerID, map[string]interface{}{
		"category": models.CategoryResidential,
		"title":    TitleStudio,
		"location": "ፒያሳ",
		"price":    "12,000 ብር/ወር",
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return id
}

func adminEvent(listingID uint, kind ActionKind) Event {
	return Event{
		SenderID: adminID,
		ChatID:   adminID,
		Callback: &Callback{
			ID:     "cb-1",
			Action: Action{Kind: kind, ListingID: listingID},
			Ref:    MessageRef{ChatID: adminID, MessageID: 77},
		},
	}
}

func TestApprovePublishesAndNotifiesOwner(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 100)

	if err := fx.flow.Approve(ctx, adminEvent(id, ActionApprove), id); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	listing, _ := fx.store.GetListing(ctx, id)
	if listing.Status != models.StatusPublished {
		t.Fatalf("status = %q", listing.Status)
	}
	if listing.ChannelMessageID == 0 {
		t.Fatal("channel message id not recorded")
	}
	if listing.PublishedAt == nil {
		t.Fatal("published timestamp not recorded")
	}
	if len(fx.pub.published) != 1 || fx.pub.published[0] != id {
		t.Fatalf("published = %v", fx.pub.published)
	}
	if fx.gw.last(100).Text != textApproved {
		t.Fatalf("owner notice = %q", fx.gw.last(100).Text)
	}
	if len(fx.gw.edits) == 0 {
		t.Fatal("review message was not edited")
	}
	if len(fx.store.audits) != 1 || fx.store.audits[0].Action != "listing.approve" {
		t.Fatalf("audits = %+v", fx.store.audits)
	}
}

func TestPendingReviewRendersSummaryAndActions(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()

	// A compound room with media and a studio without, from distinct owners.
	fx.store.CreateUser(ctx, 110)
	fx.store.UpdateUser(ctx, 110, map[string]interface{}{
		"display_name": "አበበ", "phone_number": "+251911000002",
	})
	roomID, err := fx.store.CreateListing(ctx, 110, map[string]interface{}{
		"category":      models.CategoryResidential,
		"title":         TitleCompoundRoom,
		"rooms_count":   3,
		"bathroom_type": BathPrivate,
		"location":      "ቦሌ",
		"price":         "8,000 ብር/ወር",
	})
	if err != nil {
		t.Fatalf("seed compound room: %v", err)
	}
	fx.store.AddMedia(ctx, roomID, models.ListingMedia{FileID: "ph1", Kind: models.MediaPhoto})
	studioID := fx.seedPendingListing(t, 111)

	ev := Event{SenderID: adminID, ChatID: adminID}
	if err := fx.flow.HandleSection(ctx, ev, sectionPending); err != nil {
		t.Fatalf("HandleSection(pending): %v", err)
	}

	// The listing with media arrives as an album whose caption carries the
	// rendered summary, including the compound-room rooms count.
	if len(fx.gw.albums) != 1 {
		t.Fatalf("albums = %d, want 1", len(fx.gw.albums))
	}
	if !strings.Contains(fx.gw.albums[0].Caption, "3 ክፍል") {
		t.Fatalf("album caption missing rooms count:\n%s", fx.gw.albums[0].Caption)
	}

	// Every pending listing gets an actions keyboard offering approve,
	// edit and reject; the media-less one carries its summary inline.
	reviewed := map[uint]bool{}
	for _, m := range fx.gw.sent {
		if len(m.Kb) == 0 {
			continue
		}
		labels := map[string]bool{}
		var target uint
		for _, row := range m.Kb {
			for _, b := range row {
				labels[b.Text] = true
				if act, err := ParseAction(b.Data); err == nil && act.ListingID != 0 {
					target = act.ListingID
				}
			}
		}
		if labels[textBtnApprove] || labels[textBtnEdit] || labels[textBtnReject] {
			if !labels[textBtnApprove] || !labels[textBtnEdit] || !labels[textBtnReject] {
				t.Fatalf("incomplete review keyboard: %+v", m.Kb)
			}
			reviewed[target] = true
			if target == studioID && !strings.Contains(m.Text, TitleStudio) {
				t.Fatalf("media-less listing missing inline summary: %q", m.Text)
			}
		}
	}
	if !reviewed[roomID] || !reviewed[studioID] {
		t.Fatalf("review keyboards sent for %v, want both %d and %d", reviewed, roomID, studioID)
	}
}

func TestPendingReviewEmpty(t *testing.T) {
	fx := newModFixture()
	ev := Event{SenderID: adminID, ChatID: adminID}

	if err := fx.flow.HandleSection(context.Background(), ev, sectionPending); err != nil {
		t.Fatalf("HandleSection(pending): %v", err)
	}
	if fx.gw.last(adminID).Text != textNoPending {
		t.Fatalf("got %q", fx.gw.last(adminID).Text)
	}
}

func TestApproveIdempotentOnPublished(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 101)

	if err := fx.flow.Approve(ctx, adminEvent(id, ActionApprove), id); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if err := fx.flow.Approve(ctx, adminEvent(id, ActionApprove), id); err != nil {
		t.Fatalf("second Approve: %v", err)
	}

	// The second press only acks; no new channel post.
	if len(fx.pub.published) != 1 {
		t.Fatalf("published %d times", len(fx.pub.published))
	}
}

func TestApprovePublishFailureKeepsRetryable(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 102)

	fx.pub.publishErr = errors.New("telegram: 502")
	if err := fx.flow.Approve(ctx, adminEvent(id, ActionApprove), id); err != nil {
		t.Fatalf("Approve with failing publisher: %v", err)
	}

	listing, _ := fx.store.GetListing(ctx, id)
	if listing.Status != models.StatusApproved {
		t.Fatalf("status = %q, want approved-but-unpublished", listing.Status)
	}
	if fx.gw.last(adminID).Text != textFailure {
		t.Fatalf("admin got %q", fx.gw.last(adminID).Text)
	}

	// Retry after the outage clears.
	fx.pub.publishErr = nil
	if err := fx.flow.Approve(ctx, adminEvent(id, ActionApprove), id); err != nil {
		t.Fatalf("retry Approve: %v", err)
	}
	listing, _ = fx.store.GetListing(ctx, id)
	if listing.Status != models.StatusPublished {
		t.Fatalf("status after retry = %q", listing.Status)
	}
}

func TestRejectFlow(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 103)

	ev := adminEvent(id, ActionReject)
	if err := fx.flow.BeginReject(ctx, ev, id); err != nil {
		t.Fatalf("BeginReject: %v", err)
	}
	if st := fx.states.Get(adminID); st.Step != stepModReject || st.ListingID != id {
		t.Fatalf("state = %+v", st)
	}

	// Too-short reason re-prompts.
	short := Event{SenderID: adminID, ChatID: adminID, Text: " no"}
	err := fx.flow.HandleText(ctx, short, fx.states.Get(adminID))
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	reason := Event{SenderID: adminID, ChatID: adminID, Text: "ፎቶዎቹ ግልጽ አይደሉም"}
	if err := fx.flow.HandleText(ctx, reason, fx.states.Get(adminID)); err != nil {
		t.Fatalf("reject reason: %v", err)
	}

	listing, _ := fx.store.GetListing(ctx, id)
	if listing.Status != models.StatusRejected || listing.ReviewNotes == "" {
		t.Fatalf("listing after reject: %+v", listing)
	}

	ownerMsg := fx.gw.last(103)
	if !strings.HasPrefix(ownerMsg.Text, textRejectedPrefix) {
		t.Fatalf("owner notice = %q", ownerMsg.Text)
	}
	// The rejection notice must carry the retry button.
	if len(ownerMsg.Kb) == 0 || ownerMsg.Kb[0][0].Text != textBtnRetry {
		t.Fatalf("retry button missing: %+v", ownerMsg.Kb)
	}
	if fx.states.Get(adminID).Step != "" {
		t.Fatal("admin state not cleared")
	}
}

func TestEditFieldRoundTrip(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 104)

	ev := adminEvent(id, ActionEditField)
	if err := fx.flow.BeginEditField(ctx, ev, id, FieldPrice); err != nil {
		t.Fatalf("BeginEditField: %v", err)
	}
	if st := fx.states.Get(adminID); st.Step != stepModEditPrefix+FieldPrice {
		t.Fatalf("step = %q", st.Step)
	}

	text := Event{SenderID: adminID, ChatID: adminID, Text: "15,000 ብር/ወር"}
	if err := fx.flow.HandleText(ctx, text, fx.states.Get(adminID)); err != nil {
		t.Fatalf("edit price: %v", err)
	}

	listing, _ := fx.store.GetListing(ctx, id)
	if listing.Price != "15,000 ብር/ወር" {
		t.Fatalf("price = %q", listing.Price)
	}
}

func TestEditBathroomTypeUsesBinaryOptionsForStudio(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 105) // seeded as a studio

	ev := adminEvent(id, ActionEditField)
	if err := fx.flow.BeginEditField(ctx, ev, id, FieldBathroomType); err != nil {
		t.Fatalf("BeginEditField: %v", err)
	}

	prompt := fx.gw.last(adminID)
	var labels []string
	for _, row := range prompt.Kb {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	if len(labels) != 2 {
		t.Fatalf("studio bathroom options = %v, want binary", labels)
	}

	if err := fx.flow.HandlePick(ctx, ev, fx.states.Get(adminID), BathShared); err != nil {
		t.Fatalf("pick: %v", err)
	}
	listing, _ := fx.store.GetListing(ctx, id)
	if listing.BathroomType != BathShared {
		t.Fatalf("bathroom type = %q", listing.BathroomType)
	}
}

func TestMediaReplace(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	id := fx.seedPendingListing(t, 106)

	fx.store.AddMedia(ctx, id, models.ListingMedia{FileID: "old1", Kind: models.MediaPhoto})
	fx.store.AddMedia(ctx, id, models.ListingMedia{FileID: "old2", Kind: models.MediaPhoto})

	ev := adminEvent(id, ActionMediaMode)
	if err := fx.flow.BeginMediaMode(ctx, ev, id, mediaModeReplace); err != nil {
		t.Fatalf("BeginMediaMode: %v", err)
	}

	// Replace clears the old set immediately.
	if media, _ := fx.store.GetMedia(ctx, id); len(media) != 0 {
		t.Fatalf("old media survived: %v", media)
	}

	items := []MediaItem{{FileID: "new1", Kind: models.MediaPhoto}, {FileID: "new2", Kind: models.MediaVideo}}
	if err := fx.flow.QueueMedia(ctx, ev, fx.states.Get(adminID), items); err != nil {
		t.Fatalf("QueueMedia: %v", err)
	}
	if err := fx.flow.FinishMedia(ctx, ev, fx.states.Get(adminID)); err != nil {
		t.Fatalf("FinishMedia: %v", err)
	}

	media, _ := fx.store.GetMedia(ctx, id)
	if len(media) != 2 || media[0].FileID != "new1" {
		t.Fatalf("media after replace = %v", media)
	}
}

func TestTokenFlowIssuesLicense(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv(utils.SigningKeyEnv, base64.StdEncoding.EncodeToString(priv.Seed()))

	fx.store.CreateUser(ctx, adminID)
	ev := Event{SenderID: adminID, ChatID: adminID}

	if err := fx.flow.startTokenFlow(ev); err != nil {
		t.Fatalf("startTokenFlow: %v", err)
	}
	if err := fx.flow.HandleTokenKind(ctx, ev, utils.TokenTypeLicense); err != nil {
		t.Fatalf("kind: %v", err)
	}
	if err := fx.flow.HandleTokenMode(ctx, ev, utils.ModePeriodic); err != nil {
		t.Fatalf("mode: %v", err)
	}

	days := Event{SenderID: adminID, ChatID: adminID, Text: "365"}
	if err := fx.flow.HandleText(ctx, days, fx.states.Get(adminID)); err != nil {
		t.Fatalf("days: %v", err)
	}
	device := Event{SenderID: adminID, ChatID: adminID, Text: "dev-abc-123"}
	if err := fx.flow.HandleText(ctx, device, fx.states.Get(adminID)); err != nil {
		t.Fatalf("device: %v", err)
	}
	if err := fx.flow.SkipTokenNote(ctx, ev, fx.states.Get(adminID)); err != nil {
		t.Fatalf("skip note: %v", err)
	}

	// The token message precedes the panel re-prompt.
	var tokenMsg string
	for _, m := range fx.gw.sent {
		if strings.HasPrefix(m.Text, textTokenReady) {
			tokenMsg = m.Text
		}
	}
	if tokenMsg == "" {
		t.Fatal("token message not sent")
	}
	token := strings.TrimSpace(strings.TrimPrefix(tokenMsg, textTokenReady))
	_, payload, _, err := utils.Decode(token)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if payload.DID != "dev-abc-123" || payload.Mode != utils.ModePeriodic || payload.Exp == 0 {
		t.Fatalf("payload = %+v", payload)
	}
	if fx.states.Get(adminID).Step != "" {
		t.Fatal("token state not cleared")
	}
}

func TestTokenBackKeepsEarlierAnswers(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()
	ev := Event{SenderID: adminID, ChatID: adminID}

	fx.flow.startTokenFlow(ev)
	fx.flow.HandleTokenKind(ctx, ev, utils.TokenTypeLicense)
	fx.flow.HandleTokenMode(ctx, ev, utils.ModePeriodic)

	// Back from the days step returns to mode selection but keeps the kind.
	if err := fx.flow.HandleBack(ctx, ev, fx.states.Get(adminID)); err != nil {
		t.Fatalf("back: %v", err)
	}
	st := fx.states.Get(adminID)
	if st.Step != stepTokMode {
		t.Fatalf("step after back = %q", st.Step)
	}
	if st.Draft[draftTokKind] != utils.TokenTypeLicense {
		t.Fatal("kind lost after back")
	}
}

func TestBroadcastFanOutByRole(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()

	for i, role := range []string{models.RoleBroker, models.RoleBroker, models.RoleTenant} {
		id := int64(200 + i)
		fx.store.CreateUser(ctx, id)
		fx.store.UpdateUser(ctx, id, map[string]interface{}{"role": role})
	}

	ev := Event{SenderID: adminID, ChatID: adminID}
	fx.flow.startBroadcast(ev)
	if err := fx.flow.HandleBroadcastAudience(ctx, ev, models.RoleBroker); err != nil {
		t.Fatalf("audience: %v", err)
	}
	msg := Event{SenderID: adminID, ChatID: adminID, Text: "አዲስ ማስታወቂያ በቅርቡ!"}
	if err := fx.flow.HandleText(ctx, msg, fx.states.Get(adminID)); err != nil {
		t.Fatalf("message: %v", err)
	}
	if err := fx.flow.SkipBroadcastMedia(ctx, ev, fx.states.Get(adminID)); err != nil {
		t.Fatalf("skip media: %v", err)
	}
	if err := fx.flow.RunBroadcast(ctx, ev, fx.states.Get(adminID)); err != nil {
		t.Fatalf("run: %v", err)
	}

	delivered := 0
	for _, m := range fx.gw.sent {
		if m.Text == "አዲስ ማስታወቂያ በቅርቡ!" {
			delivered++
		}
	}
	if delivered != 2 {
		t.Fatalf("delivered to %d users, want the 2 brokers", delivered)
	}
	if len(fx.store.audits) != 1 || fx.store.audits[0].Action != "broadcast.send" {
		t.Fatalf("audits = %+v", fx.store.audits)
	}
}

func TestAdminPolicyTwoSources(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	store.CreateUser(ctx, 555)
	store.UpdateUser(ctx, 555, map[string]interface{}{"is_admin": true})

	policy := NewAdminPolicy([]int64{adminID}, store, testLogger())

	if !policy.IsAdmin(ctx, adminID) {
		t.Fatal("configured admin denied")
	}
	if !policy.IsAdmin(ctx, 555) {
		t.Fatal("persisted admin denied")
	}
	if policy.IsAdmin(ctx, 777) {
		t.Fatal("stranger granted admin")
	}

	ids := policy.ChatIDs(ctx)
	if len(ids) != 2 {
		t.Fatalf("ChatIDs = %v", ids)
	}
}
