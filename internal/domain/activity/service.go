package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service records and lists the console's mutation journal.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record stores entry, stamping CreatedAt when it is zero.
func (s *Service) Record(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.UserID == "" || entry.View == "" || entry.Type == "" || entry.RecordID == "" {
		return ErrInvalidEntry
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("activity recorded", "type", entry.Type, "view", entry.View, "record_id", entry.RecordID)
	return nil
}

// Recent lists the newest entries matching opts. The limit is clamped to
// [1, MaxLimit], defaulting to DefaultLimit.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Entry, error) {
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultLimit
	case opts.Limit > MaxLimit:
		opts.Limit = MaxLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
