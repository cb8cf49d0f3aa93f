package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
	"go-file-vault/pkg/fserr"
)

const maxAuditQueryLimit = 200

// Audit owns the append-only action log. Appending is best-effort by
// contract: a failed audit write must never abort the business operation
// it describes, so failures are logged and swallowed here.
type Audit struct {
	store        store.AuditStore
	aggregator   store.AuditAggregator
	defaultLimit int
	log          *slog.Logger
}

// NewAudit builds the audit service. aggregator may be nil; queries then
// always use the direct scan path.
func NewAudit(auditStore store.AuditStore, aggregator store.AuditAggregator, defaultLimit int) *Audit {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}

	return &Audit{
		store:        auditStore,
		aggregator:   aggregator,
		defaultLimit: defaultLimit,
		log:          slog.Default(),
	}
}

// Append records one entry. suppress short-circuits the write: callers
// performing a mechanical inner operation (snapshot-before-delete,
// snapshot-before-restore) pass true so only the top-level action is
// logged once.
func (s *Audit) Append(ctx context.Context, entry model.AuditEntry, suppress bool) {
	if s == nil || suppress {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	if err := s.store.Append(ctx, entry); err != nil {
		s.log.Warn("audit append failed",
			"action", entry.Action, "file", entry.FileName, "error", err)
	}
}

// Query returns entries newest-first. When an aggregator is configured it
// handles the scope/folder narrowing server-side; if it is absent or
// fails, the query degrades to a direct scan of the log rather than
// failing outright.
func (s *Audit) Query(ctx context.Context, scope string, filter model.AuditFilter, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxAuditQueryLimit {
		limit = maxAuditQueryLimit
	}

	entries, err := s.fetch(ctx, scope, filter, limit)
	if err != nil {
		return nil, fserr.From(fserr.CodeStoreUnavailable, "audit log unavailable", scope, err)
	}

	return filterEntries(entries, filter, limit), nil
}

func (s *Audit) fetch(ctx context.Context, scope string, filter model.AuditFilter, limit int) ([]model.AuditEntry, error) {
	// The aggregator narrows by folder server-side but not by action or
	// search, and the scan narrows by nothing. Whenever filterEntries still
	// has narrowing to do, over-fetch so it has enough material to fill the
	// page.
	overFetch := limit * 10
	if overFetch > 1000 {
		overFetch = 1000
	}

	if s.aggregator != nil {
		aggLimit := limit
		if filter.Action != "" || filter.Search != "" {
			aggLimit = overFetch
		}

		entries, err := s.aggregator.Query(ctx, scope, filter.Folder, aggLimit)
		if err == nil {
			return entries, nil
		}
		s.log.Warn("audit aggregator failed; falling back to direct scan", "error", err)
	}

	return s.store.Scan(ctx, scope, overFetch)
}

func filterEntries(entries []model.AuditEntry, filter model.AuditFilter, limit int) []model.AuditEntry {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	kept := make([]model.AuditEntry, 0, limit)
	for _, entry := range entries {
		if len(kept) == limit {
			break
		}
		if filter.Folder != "" && entry.Path != filter.Folder {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(entry.FileName), search) &&
			!strings.Contains(strings.ToLower(entry.Path), search) {
			continue
		}
		kept = append(kept, entry)
	}

	return kept
}
