package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/pkg/logger"
)

type memDumpRepo struct {
	saved   []*entity.Dump
	saveErr error
}

func (r *memDumpRepo) Save(ctx context.Context, dump *entity.Dump) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, dump)
	return nil
}

func (r *memDumpRepo) FindByID(ctx context.Context, id string) (*entity.Dump, error) {
	return nil, nil
}

func (r *memDumpRepo) FindUnprocessed(ctx context.Context, limit int) ([]*entity.Dump, error) {
	return nil, nil
}

func (r *memDumpRepo) UpdateStatus(ctx context.Context, id string, status string, startedAt time.Time) error {
	return nil
}

func (r *memDumpRepo) UpdateProcessSteps(ctx context.Context, id string, steps entity.ProcessSteps) error {
	return nil
}

func (r *memDumpRepo) MarkAsProcessed(ctx context.Context, id, status, processorType, flightID, errorDetail string, extractedData map[string]interface{}) error {
	return nil
}

func (r *memDumpRepo) ResetProcessingDumps(ctx context.Context) error {
	return nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFetchDumpsStoresAndMarksFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", ">HBPR: CA984/25JUL25*LAX,2")
	writeFile(t, dir, "a.txt", ">HBPR: CA984/25JUL25*LAX,1")
	writeFile(t, dir, "notes.md", "ignored")

	repo := &memDumpRepo{}
	inbox, err := NewDirInbox(dir, repo, logger.NewNop(), time.Second)
	require.NoError(t, err)

	n, err := inbox.FetchDumps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, repo.saved, 2)
	assert.Equal(t, "a.txt", repo.saved[0].SourceRef)
	assert.Equal(t, entity.SourceInbox, repo.saved[0].Source)
	assert.Equal(t, entity.StatusPending, repo.saved[0].ProcessStatus)
	assert.Equal(t, ">HBPR: CA984/25JUL25*LAX,1", repo.saved[0].Content)

	assert.FileExists(t, filepath.Join(dir, "a.txt.done"))
	assert.FileExists(t, filepath.Join(dir, "b.txt.done"))
	assert.FileExists(t, filepath.Join(dir, "notes.md"))

	// nothing left on the second poll
	n, err = inbox.FetchDumps(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFetchDumpsKeepsFileWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", ">HBPR: CA984/25JUL25*LAX,1")

	inbox, err := NewDirInbox(dir, &memDumpRepo{saveErr: errors.New("mongo down")}, logger.NewNop(), time.Second)
	require.NoError(t, err)

	n, err := inbox.FetchDumps(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestNewDirInboxRejectsMissingDir(t *testing.T) {
	_, err := NewDirInbox(filepath.Join(t.TempDir(), "nope"), &memDumpRepo{}, logger.NewNop(), time.Second)
	assert.Error(t, err)
}
