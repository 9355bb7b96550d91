package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Stub collaborators
// ---------------------------------------------------------------------------

type memoryBlob struct {
	objects map[string][]byte
	putErr  error
	// tamper, when set, rewrites the stored object after Put so the
	// read-back no longer matches.
	tamper []byte
}

func newMemoryBlob() *memoryBlob {
	return &memoryBlob{objects: map[string][]byte{}}
}

func (b *memoryBlob) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if b.tamper != nil {
		buf = b.tamper
	}
	b.objects[path] = buf
	return nil
}

func (b *memoryBlob) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return b.Put(ctx, path, data, "")
}

func (b *memoryBlob) Get(_ context.Context, path string) (io.ReadCloser, error) {
	buf, ok := b.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (b *memoryBlob) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, buf := range b.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(buf))})
		}
	}
	return infos, nil
}

func (b *memoryBlob) Exists(_ context.Context, path string) (bool, error) {
	_, ok := b.objects[path]
	return ok, nil
}

type stubActionStore struct {
	events  []domain.ActionEvent
	deleted int
}

func (s *stubActionStore) Log(_ context.Context, _ domain.ActionEvent) error { return nil }

func (s *stubActionStore) List(_ context.Context, _ domain.ListOpts) ([]domain.ActionEvent, error) {
	return s.events, nil
}

func (s *stubActionStore) ListBefore(_ context.Context, _ time.Time) ([]domain.ActionEvent, error) {
	return s.events, nil
}

func (s *stubActionStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	s.deleted++
	return int64(len(s.events)), nil
}

type stubFillStore struct {
	fills   []domain.Fill
	deleted int
}

func (s *stubFillStore) Insert(_ context.Context, _ domain.Fill) error { return nil }

func (s *stubFillStore) ListByMarket(_ context.Context, _ string, _ domain.ListOpts) ([]domain.Fill, error) {
	return s.fills, nil
}

func (s *stubFillStore) ListBefore(_ context.Context, _ time.Time) ([]domain.Fill, error) {
	return s.fills, nil
}

func (s *stubFillStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	s.deleted++
	return int64(len(s.fills)), nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

var archiveCutoff = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func sampleEvents() []domain.ActionEvent {
	return []domain.ActionEvent{
		{ID: "ev-1", Type: domain.ActionSignalFired, Asset: "SOL", CreatedAt: archiveCutoff.Add(-48 * time.Hour)},
		{ID: "ev-2", Type: domain.ActionForgone, Asset: "SOL", CreatedAt: archiveCutoff.Add(-24 * time.Hour)},
	}
}

func TestArchiveActionsUploadsVerifiesAndDeletes(t *testing.T) {
	blob := newMemoryBlob()
	actions := &stubActionStore{events: sampleEvents()}
	arch := NewJournalArchiver(blob, blob, actions, &stubFillStore{}, testLogger())

	n, err := arch.ArchiveActions(context.Background(), archiveCutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, actions.deleted)

	stored, ok := blob.objects["archive/actions/2026-03.jsonl"]
	require.True(t, ok)
	assert.Equal(t, 2, bytes.Count(stored, []byte("\n")))
	assert.Contains(t, string(stored), `"ev-1"`)
}

func TestArchiveActionsEmptyWindowIsNoop(t *testing.T) {
	blob := newMemoryBlob()
	actions := &stubActionStore{}
	arch := NewJournalArchiver(blob, blob, actions, &stubFillStore{}, testLogger())

	n, err := arch.ArchiveActions(context.Background(), archiveCutoff)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, actions.deleted)
	assert.Empty(t, blob.objects)
}

func TestArchiveActionsUploadFailureKeepsRows(t *testing.T) {
	blob := newMemoryBlob()
	blob.putErr = errors.New("bucket unavailable")
	actions := &stubActionStore{events: sampleEvents()}
	arch := NewJournalArchiver(blob, blob, actions, &stubFillStore{}, testLogger())

	_, err := arch.ArchiveActions(context.Background(), archiveCutoff)
	require.Error(t, err)
	assert.Zero(t, actions.deleted)
}

func TestArchiveActionsVerifyMismatchKeepsRows(t *testing.T) {
	blob := newMemoryBlob()
	blob.tamper = []byte("truncated\n")
	actions := &stubActionStore{events: sampleEvents()}
	arch := NewJournalArchiver(blob, blob, actions, &stubFillStore{}, testLogger())

	_, err := arch.ArchiveActions(context.Background(), archiveCutoff)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differs from upload")
	assert.Zero(t, actions.deleted)
}

func TestArchiveFillsUploadsVerifiesAndDeletes(t *testing.T) {
	blob := newMemoryBlob()
	fills := &stubFillStore{fills: []domain.Fill{
		{ID: "f-1", Venue: "drift", Market: "SOL-PERP", Side: domain.OrderSideBuy, Price: 20, Size: 5, CreatedAt: archiveCutoff.Add(-time.Hour)},
	}}
	arch := NewJournalArchiver(blob, blob, &stubActionStore{}, fills, testLogger())

	n, err := arch.ArchiveFills(context.Background(), archiveCutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, fills.deleted)

	_, ok := blob.objects["archive/fills/2026-03.jsonl"]
	assert.True(t, ok)
}
