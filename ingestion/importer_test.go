package ingestion

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
	"github.com/poiesic/fuzzystore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = `# surnames
Иванов	Ivanov	source=census
Петров-Водкин	Petrov-Vodkin

Сидоров	Sidorov
Иванов	Ivanov
Щукин
`

func newTestRepository(t *testing.T) storage.EntryRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestImporter(t *testing.T, repo storage.EntryRepository, opts ...ConfigOption) (*Importer, *bytes.Buffer) {
	t.Helper()
	var progress bytes.Buffer
	cfg := NewConfig(append([]ConfigOption{WithRetries(3, time.Millisecond)}, opts...)...)
	importer, err := NewImporter(repo, cfg, &progress)
	require.NoError(t, err)
	return importer, &progress
}

func TestNewImporter(t *testing.T) {
	_, err := NewImporter(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEntryRepositoryRequired)

	repo := newTestRepository(t)
	_, err = NewImporter(repo, NewConfig(WithBatchSize(0)), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	importer, err := NewImporter(repo, nil, nil, WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), importer.config)
}

func TestImport(t *testing.T) {
	repo := newTestRepository(t)
	importer, progress := newTestImporter(t, repo, WithBatchSize(2))
	ctx := context.Background()

	stats, err := importer.Import(ctx, strings.NewReader(testCorpus))
	require.NoError(t, err)
	assert.Equal(t, &Stats{Lines: 7, Added: 4, Skipped: 1}, stats)

	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Иванов", entries[0].Primary)
	assert.Equal(t, map[string]string{"source": "census"}, entries[0].Metadata)
	assert.Equal(t, "Щукин", entries[3].Primary)
	assert.Empty(t, entries[3].Secondary)

	assert.Contains(t, progress.String(), "Importing 4 entries (batch size: 2)")
	assert.Contains(t, progress.String(), "Progress: 4/4 (100.0%)")
}

func TestImport_SkipsStoredEntries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.AddEntries(ctx, &core.Entry{Primary: "Сидоров", Secondary: "Sidorov"})
	require.NoError(t, err)

	importer, _ := newTestImporter(t, repo)
	stats, err := importer.Import(ctx, strings.NewReader(testCorpus))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Added)
	assert.Equal(t, 2, stats.Skipped)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// A second run adds nothing.
	stats, err = importer.Import(ctx, strings.NewReader(testCorpus))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 5, stats.Skipped)
}

func TestImport_StrictDuplicates(t *testing.T) {
	repo := newTestRepository(t)
	flaky := &flakyRepository{EntryRepository: repo}
	importer, _ := newTestImporter(t, flaky, WithSkipDuplicates(false), WithBatchSize(10))
	ctx := context.Background()

	stats, err := importer.Import(ctx, strings.NewReader(testCorpus))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 1, flaky.calls, "duplicates are not retried")

	// The failed batch was rolled back as a whole.
	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImport_RetriesTransientFailures(t *testing.T) {
	repo := newTestRepository(t)
	flaky := &flakyRepository{EntryRepository: repo, failures: 2}
	importer, _ := newTestImporter(t, flaky)
	ctx := context.Background()

	stats, err := importer.Import(ctx, strings.NewReader("Иванов\tIvanov\nПетров\tPetrov\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 3, flaky.calls)

	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Иванов", entries[0].Primary)
}

func TestImport_GivesUpAfterMaxRetries(t *testing.T) {
	repo := newTestRepository(t)
	flaky := &flakyRepository{EntryRepository: repo, failures: 10}
	importer, _ := newTestImporter(t, flaky)

	_, err := importer.Import(context.Background(), strings.NewReader("Иванов\n"))
	require.ErrorIs(t, err, storage.ErrTransactionFailed)
	assert.Equal(t, 3, flaky.calls)
}

func TestImport_InvalidLineWritesNothing(t *testing.T) {
	repo := newTestRepository(t)
	importer, _ := newTestImporter(t, repo)
	ctx := context.Background()

	_, err := importer.Import(ctx, strings.NewReader("Иванов\nПетров\tPetrov\tbroken\n"))
	require.ErrorIs(t, err, ErrInvalidLine)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImport_Empty(t *testing.T) {
	importer, progress := newTestImporter(t, newTestRepository(t))

	stats, err := importer.Import(context.Background(), strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)
	assert.Equal(t, &Stats{Lines: 2}, stats)
	assert.Contains(t, progress.String(), "No entries found")
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o600))

	repo := newTestRepository(t)
	importer, _ := newTestImporter(t, repo)

	stats, err := importer.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Added)

	found, err := repo.FindEntryByText(context.Background(), "Петров-Водкин", "Petrov-Vodkin")
	require.NoError(t, err)
	assert.NotZero(t, found.Id)
}

func TestImportFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	importer, _ := newTestImporter(t, newTestRepository(t))
	stats, err := importer.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}

func TestImportFile_Missing(t *testing.T) {
	importer, _ := newTestImporter(t, newTestRepository(t))
	_, err := importer.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.tsv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	importer, _ := newTestImporter(t, newTestRepository(t))
	_, err := importer.Import(ctx, strings.NewReader(testCorpus))
	assert.ErrorIs(t, err, context.Canceled)
}

// flakyRepository fails the first AddEntries calls with a transaction error.
type flakyRepository struct {
	storage.EntryRepository
	failures int
	calls    int
}

func (f *flakyRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, storage.ErrTransactionFailed
	}
	return f.EntryRepository.AddEntries(ctx, entries...)
}
