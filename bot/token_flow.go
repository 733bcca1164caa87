package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/yonathanth/betbot-sub000/utils"
)

// Token issuance steps. The step names a waiting position; the collected
// answers accumulate in the state draft so Back never loses earlier input.
const (
	stepTokKind    = "tok_kind"
	stepTokMode    = "tok_mode"
	stepTokDays    = "tok_days"
	stepTokMinutes = "tok_minutes"
	stepTokDevice  = "tok_device"
	stepTokNote    = "tok_note"
)

const (
	draftTokKind    = "tok_kind"
	draftTokMode    = "tok_mode"
	draftTokDays    = "tok_days"
	draftTokMinutes = "tok_minutes"
	draftTokDevice  = "tok_device"
)

func (f *ModerationFlow) startTokenFlow(ev Event) error {
	f.states.Merge(ev.SenderID, func(st *State) {
		st.Step = stepTokKind
		st.Draft = map[string]string{}
	})
	return f.promptTokenKind(ev)
}

func (f *ModerationFlow) promptTokenKind(ev Event) error {
	kb := [][]Button{
		{
			{Text: textBtnLicense, Data: Action{Kind: ActionTokenKind, Value: utils.TokenTypeLicense}.Encode()},
			{Text: textBtnRecovery, Data: Action{Kind: ActionTokenKind, Value: utils.TokenTypeRecovery}.Encode()},
		},
		{{Text: textBtnCancel, Data: Action{Kind: ActionCancel}.Encode()}},
	}
	_, err := f.gw.Send(ev.ChatID, textTokenKind, kb)
	return err
}

func (f *ModerationFlow) promptTokenMode(ev Event) error {
	kb := [][]Button{
		{
			{Text: textBtnPermanent, Data: Action{Kind: ActionTokenMode, Value: utils.ModePermanent}.Encode()},
			{Text: textBtnPeriodic, Data: Action{Kind: ActionTokenMode, Value: utils.ModePeriodic}.Encode()},
		},
		{{Text: textBtnBack, Data: Action{Kind: ActionBack}.Encode()}},
	}
	_, err := f.gw.Send(ev.ChatID, textTokenMode, kb)
	return err
}

func backKeyboard() [][]Button {
	return [][]Button{{{Text: textBtnBack, Data: Action{Kind: ActionBack}.Encode()}}}
}

// HandleTokenKind branches the flow: licenses pick a mode first, recovery
// tokens go straight to their validity window.
func (f *ModerationFlow) HandleTokenKind(ctx context.Context, ev Event, kind string) error {
	switch kind {
	case utils.TokenTypeLicense:
		f.states.Merge(ev.SenderID, func(st *State) {
			st.Step = stepTokMode
			st.Draft[draftTokKind] = kind
		})
		return f.promptTokenMode(ev)
	case utils.TokenTypeRecovery:
		f.states.Merge(ev.SenderID, func(st *State) {
			st.Step = stepTokMinutes
			st.Draft[draftTokKind] = kind
		})
		_, err := f.gw.Send(ev.ChatID, textAskMinutes, backKeyboard())
		return err
	}
	return nil
}

func (f *ModerationFlow) HandleTokenMode(ctx context.Context, ev Event, mode string) error {
	switch mode {
	case utils.ModePermanent:
		f.states.Merge(ev.SenderID, func(st *State) {
			st.Step = stepTokDevice
			st.Draft[draftTokMode] = mode
		})
		_, err := f.gw.Send(ev.ChatID, textAskDeviceID, backKeyboard())
		return err
	case utils.ModePeriodic:
		f.states.Merge(ev.SenderID, func(st *State) {
			st.Step = stepTokDays
			st.Draft[draftTokMode] = mode
		})
		_, err := f.gw.Send(ev.ChatID, textAskDays, backKeyboard())
		return err
	}
	return nil
}

// HandleBack re-prompts the previous token step. Earlier answers stay in the
// draft, so going back and forward again only re-asks what changed.
func (f *ModerationFlow) HandleBack(ctx context.Context, ev Event, st State) error {
	switch st.Step {
	case stepTokMode, stepTokMinutes:
		f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokKind })
		return f.promptTokenKind(ev)
	case stepTokDays:
		f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokMode })
		return f.promptTokenMode(ev)
	case stepTokDevice:
		switch {
		case st.Draft[draftTokKind] == utils.TokenTypeRecovery:
			f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokMinutes })
			_, err := f.gw.Send(ev.ChatID, textAskMinutes, backKeyboard())
			return err
		case st.Draft[draftTokMode] == utils.ModePeriodic:
			f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokDays })
			_, err := f.gw.Send(ev.ChatID, textAskDays, backKeyboard())
			return err
		default:
			f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokMode })
			return f.promptTokenMode(ev)
		}
	case stepTokNote:
		f.states.Merge(ev.SenderID, func(s *State) { s.Step = stepTokDevice })
		_, err := f.gw.Send(ev.ChatID, textAskDeviceID, backKeyboard())
		return err
	}
	return nil
}

func (f *ModerationFlow) handleTokenText(ctx context.Context, ev Event, st State) error {
	switch st.Step {
	case stepTokDays:
		n, err := validateTokenNumber(ev.Text)
		if err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(s *State) {
			s.Step = stepTokDevice
			s.Draft[draftTokDays] = strconv.Itoa(n)
		})
		_, err = f.gw.Send(ev.ChatID, textAskDeviceID, backKeyboard())
		return err

	case stepTokMinutes:
		n, err := validateTokenNumber(ev.Text)
		if err != nil {
			return err
		}
		f.states.Merge(ev.SenderID, func(s *State) {
			s.Step = stepTokDevice
			s.Draft[draftTokMinutes] = strconv.Itoa(n)
		})
		_, err = f.gw.Send(ev.ChatID, textAskDeviceID, backKeyboard())
		return err

	case stepTokDevice:
		device := strings.TrimSpace(ev.Text)
		if device == "" {
			return utils.NewValidationError(textDeviceRequired)
		}
		f.states.Merge(ev.SenderID, func(s *State) {
			s.Step = stepTokNote
			s.Draft[draftTokDevice] = device
		})
		_, err := f.gw.Send(ev.ChatID, textAskNote, skipKeyboard())
		return err

	case stepTokNote:
		return f.issueToken(ctx, ev, st, strings.TrimSpace(ev.Text))
	}
	return nil
}

// SkipTokenNote issues the token with an empty note.
func (f *ModerationFlow) SkipTokenNote(ctx context.Context, ev Event, st State) error {
	if st.Step != stepTokNote {
		return nil
	}
	return f.issueToken(ctx, ev, st, "")
}

func (f *ModerationFlow) issueToken(ctx context.Context, ev Event, st State, note string) error {
	device := st.Draft[draftTokDevice]
	kind := st.Draft[draftTokKind]

	var token string
	var err error
	switch kind {
	case utils.TokenTypeRecovery:
		minutes, _ := strconv.Atoi(st.Draft[draftTokMinutes])
		token, err = utils.IssueRecovery(device, minutes, note)
	default:
		mode := st.Draft[draftTokMode]
		days, _ := strconv.Atoi(st.Draft[draftTokDays])
		token, err = utils.IssueLicense(device, mode, days, note)
	}
	if err != nil {
		return err
	}

	f.audit(ctx, ev.SenderID, "token.issue", 0, map[string]string{
		"kind":   kind,
		"device": device,
	})
	f.states.Clear(ev.SenderID)
	_, err = f.gw.Send(ev.ChatID, textTokenReady+"\n"+token, nil)
	if err != nil {
		return err
	}
	_, err = f.gw.Send(ev.ChatID, textAdminPanel, panelKeyboard())
	return err
}

// validateTokenNumber bounds token windows to a sane positive range.
func validateTokenNumber(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > 100000 {
		return 0, utils.NewValidationError(textBadNumber)
	}
	return n, nil
}
