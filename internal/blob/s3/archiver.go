package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// JournalArchiver implements domain.Archiver: aged journal rows are
// serialized to JSONL, uploaded to object storage, read back to confirm the
// stored object matches, and only then deleted from the primary store. A
// failed upload or verification leaves the rows in place, so the next run
// retries the same window.
type JournalArchiver struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	actions domain.ActionStore
	fills   domain.FillStore
	logger  *slog.Logger
}

var _ domain.Archiver = (*JournalArchiver)(nil)

// NewJournalArchiver creates a JournalArchiver over the given stores.
func NewJournalArchiver(writer domain.BlobWriter, reader domain.BlobReader, actions domain.ActionStore, fills domain.FillStore, logger *slog.Logger) *JournalArchiver {
	return &JournalArchiver{
		writer:  writer,
		reader:  reader,
		actions: actions,
		fills:   fills,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveActions uploads all journal rows created before the cutoff to
// archive/actions/YYYY-MM.jsonl and deletes them from the store. Returns
// the number of rows archived.
func (a *JournalArchiver) ArchiveActions(ctx context.Context, before time.Time) (int64, error) {
	events, err := a.actions.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive actions query: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive actions marshal: %w", err)
	}

	path := archivePath("actions", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive actions upload: %w", err)
	}
	if err := a.verify(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive actions: %w", err)
	}

	deleted, err := a.actions.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(events)), fmt.Errorf("s3blob: archive actions delete: %w", err)
	}

	a.logger.Info("archived actions",
		slog.String("path", path),
		slog.Int("count", len(events)),
		slog.Int64("deleted", deleted),
	)
	return int64(len(events)), nil
}

// ArchiveFills uploads all fills created before the cutoff to
// archive/fills/YYYY-MM.jsonl and deletes them from the store. Returns the
// number of rows archived.
func (a *JournalArchiver) ArchiveFills(ctx context.Context, before time.Time) (int64, error) {
	fills, err := a.fills.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills query: %w", err)
	}
	if len(fills) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(fills)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills marshal: %w", err)
	}

	path := archivePath("fills", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills upload: %w", err)
	}
	if err := a.verify(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills: %w", err)
	}

	deleted, err := a.fills.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(fills)), fmt.Errorf("s3blob: archive fills delete: %w", err)
	}

	a.logger.Info("archived fills",
		slog.String("path", path),
		slog.Int("count", len(fills)),
		slog.Int64("deleted", deleted),
	)
	return int64(len(fills)), nil
}

// multipartThreshold is the payload size above which an archive upload
// switches from a single PutObject to a multipart upload.
const multipartThreshold = 16 << 20

// upload writes an archive object, using the multipart path for payloads a
// single PutObject should not carry. The part size is left to the writer.
func (a *JournalArchiver) upload(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) >= multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// verify reads the just-uploaded object back and compares it against the
// bytes that were sent. Journal rows are only deleted once the stored copy
// is known to be intact.
func (a *JournalArchiver) verify(ctx context.Context, path string, want []byte) error {
	body, err := a.reader.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("verify %s: stored object differs from upload (%d bytes vs %d)", path, len(got), len(want))
	}
	return nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/actions/2025-01.jsonl
//	archive/fills/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
