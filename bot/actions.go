package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates every button the bot can render. Callback payloads
// are parsed into an Action exactly once, at the transport boundary.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSubmitListing             // user main menu: start a submission
	ActionMyListing                 // user main menu: show current draft status
	ActionRetrySubmit               // offered after a rejection
	ActionPick                      // enumerated choice for the current step (Value)
	ActionSkip                      // skip an optional step
	ActionDone                      // finish a collect-many step
	ActionCancel                    // abort the active flow
	ActionAdminSection              // admin panel section (Value: pending|token|broadcast|newlisting|dashboard)
	ActionApprove                   // ListingID
	ActionReject                    // ListingID
	ActionEditMenu                  // ListingID
	ActionEditField                 // ListingID + Field
	ActionEditDone                  // ListingID
	ActionMediaMenu                 // ListingID
	ActionMediaMode                 // ListingID + Value: add|replace|delete
	ActionTokenKind                 // Value: license|recovery
	ActionTokenMode                 // Value: permanent|periodic
	ActionBack                      // token flow: return to the prior selection
	ActionBroadcastAudience         // Value: all|broker|owner|tenant
	ActionBroadcastConfirm
	ActionMarkRented // ListingID
)

// Action is the closed variant type for callback payloads.
type Action struct {
	Kind      ActionKind
	ListingID uint
	Field     string
	Value     string
}

var kindNames = map[ActionKind]string{
	ActionSubmitListing:     "submit",
	ActionMyListing:         "mine",
	ActionRetrySubmit:       "retry",
	ActionPick:              "pick",
	ActionSkip:              "skip",
	ActionDone:              "done",
	ActionCancel:            "cancel",
	ActionAdminSection:      "admin",
	ActionApprove:           "approve",
	ActionReject:            "reject",
	ActionEditMenu:          "edit",
	ActionEditField:         "editf",
	ActionEditDone:          "editdone",
	ActionMediaMenu:         "media",
	ActionMediaMode:         "mediamode",
	ActionTokenKind:         "tokkind",
	ActionTokenMode:         "tokmode",
	ActionBack:              "back",
	ActionBroadcastAudience: "bcaud",
	ActionBroadcastConfirm:  "bcgo",
	ActionMarkRented:        "rented",
}

var namesToKind = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

// Encode renders the action as a compact callback payload.
func (a Action) Encode() string {
	parts := []string{kindNames[a.Kind]}
	if a.ListingID != 0 {
		parts = append(parts, "l="+strconv.FormatUint(uint64(a.ListingID), 10))
	}
	if a.Field != "" {
		parts = append(parts, "f="+a.Field)
	}
	if a.Value != "" {
		parts = append(parts, "v="+a.Value)
	}
	return strings.Join(parts, ":")
}

// ParseAction decodes a callback payload. Unknown payloads are an error so
// stale buttons fail loudly instead of dispatching somewhere wrong.
func ParseAction(data string) (Action, error) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	if data == "" {
		return Action{}, fmt.Errorf("empty callback payload")
	}
	parts := strings.Split(data, ":")
	kind, ok := namesToKind[parts[0]]
	if !ok {
		return Action{}, fmt.Errorf("unknown callback action %q", parts[0])
	}
	action := Action{Kind: kind}
	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "l="):
			id, err := strconv.ParseUint(part[2:], 10, 32)
			if err != nil {
				return Action{}, fmt.Errorf("bad listing id in %q", data)
			}
			action.ListingID = uint(id)
		case strings.HasPrefix(part, "f="):
			action.Field = part[2:]
		case strings.HasPrefix(part, "v="):
			action.Value = part[2:]
		}
	}
	return action, nil
}
