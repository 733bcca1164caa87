package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yonathanth/betbot-sub000/storage"
)

// AdminPolicy grants admin rights from two sources: the ADMIN_IDS env
// allow-list and the persisted is_admin flag. Either suffices.
type AdminPolicy struct {
	configured map[int64]bool
	store      storage.Store
	log        *slog.Logger
}

func NewAdminPolicy(ids []int64, store storage.Store, log *slog.Logger) *AdminPolicy {
	configured := make(map[int64]bool, len(ids))
	for _, id := range ids {
		configured[id] = true
	}
	return &AdminPolicy{configured: configured, store: store, log: log}
}

// ParseAdminIDs reads a comma-separated id list, skipping malformed entries.
func ParseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports admin rights. A store failure only disables the persisted
// source; configured admins keep working through an outage.
func (p *AdminPolicy) IsAdmin(ctx context.Context, telegramID int64) bool {
	if p.configured[telegramID] {
		return true
	}
	ok, err := p.store.IsAdmin(ctx, telegramID)
	if err != nil {
		p.log.Warn("admin flag lookup failed", "user", telegramID, "err", err)
		return false
	}
	return ok
}

// ChatIDs returns the union of both admin sources for notifications.
func (p *AdminPolicy) ChatIDs(ctx context.Context) []int64 {
	seen := make(map[int64]bool, len(p.configured))
	var ids []int64
	for id := range p.configured {
		seen[id] = true
		ids = append(ids, id)
	}
	admins, err := p.store.ListAdmins(ctx)
	if err != nil {
		p.log.Warn("admin list lookup failed", "err", err)
		return ids
	}
	for _, admin := range admins {
		if admin.TelegramID != 0 && !seen[admin.TelegramID] {
			seen[admin.TelegramID] = true
			ids = append(ids, admin.TelegramID)
		}
	}
	return ids
}
