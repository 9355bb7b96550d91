package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// ArchiveCycle moves journal rows older than the retention window to cold
// storage. It runs on a slow cadence; each pass archives both the action
// journal and the fill log.
type ArchiveCycle struct {
	archiver  domain.Archiver
	retention time.Duration
	logger    *slog.Logger
}

// NewArchiveCycle wires the archival cycle with the given retention period.
func NewArchiveCycle(archiver domain.Archiver, retentionDays int, logger *slog.Logger) *ArchiveCycle {
	return &ArchiveCycle{
		archiver:  archiver,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With(slog.String("component", "archive_cycle")),
	}
}

// Run executes one archival pass. Both stores are attempted even when the
// first fails.
func (c *ArchiveCycle) Run(ctx context.Context) error {
	before := time.Now().UTC().Add(-c.retention)

	actions, actErr := c.archiver.ArchiveActions(ctx, before)
	fills, fillErr := c.archiver.ArchiveFills(ctx, before)
	if actions > 0 || fills > 0 {
		c.logger.Info("archive pass complete",
			slog.Int64("actions", actions),
			slog.Int64("fills", fills),
			slog.Time("before", before))
	}
	return errors.Join(actErr, fillErr)
}
