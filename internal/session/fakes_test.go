package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
)

var errGeneratorDown = errors.New("generator down")

type step struct {
	entry domain.VocabularyEntry
	err   error
}

// fakeGenerator replays steps in order and fails once they run out.
type fakeGenerator struct {
	mu          sync.Mutex
	steps       []step
	requests    []generation.WordRequest
	examples    string
	examplesErr error
	exampleFor  []domain.VocabularyEntry
}

func (f *fakeGenerator) GenerateWord(_ context.Context, req generation.WordRequest) (domain.VocabularyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.steps) == 0 {
		return domain.VocabularyEntry{}, errGeneratorDown
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	return s.entry, s.err
}

func (f *fakeGenerator) GenerateExamples(_ context.Context, entry domain.VocabularyEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exampleFor = append(f.exampleFor, entry)
	return f.examples, f.examplesErr
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) push(entries ...domain.VocabularyEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		f.steps = append(f.steps, step{entry: e})
	}
}

// blockingGenerator waits for release or ctx before failing.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGenerator) GenerateWord(ctx context.Context, _ generation.WordRequest) (domain.VocabularyEntry, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return domain.VocabularyEntry{}, ctx.Err()
	}
	return domain.VocabularyEntry{}, errGeneratorDown
}

var (
	hund  = domain.VocabularyEntry{German: "Hund", English: "dog", Article: domain.ArticleDer, Category: "animals", Level: domain.LevelA1}
	haus  = domain.VocabularyEntry{German: "das Haus", English: "house", Article: domain.ArticleDas, Category: "places", Level: domain.LevelA1}
	sonne = domain.VocabularyEntry{German: "die Sonne", English: "sun", Article: domain.ArticleDie, Category: "nature", Level: domain.LevelA1}
	apfel = domain.VocabularyEntry{German: "der Apfel", English: "apple", Article: domain.ArticleDer, Category: "food", Level: domain.LevelA1}
)

func testOptions(gen generation.WordGenerator, seed ...domain.VocabularyEntry) Options {
	return Options{
		Generator:        gen,
		AutoAdvanceDelay: -1,
		Seed:             seed,
		Rand:             rand.New(rand.NewSource(1)),
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newTestSession(t *testing.T, gen generation.WordGenerator, seed ...domain.VocabularyEntry) *Session {
	t.Helper()
	s := New("test-session", testOptions(gen, seed...))
	t.Cleanup(s.Close)
	return s
}

// memoryStore is an in-memory SnapshotStore.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]Data
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Data)}
}

func (m *memoryStore) Save(_ context.Context, id string, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = data
	return nil
}

func (m *memoryStore) Load(_ context.Context, id string) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return Data{}, ErrSessionNotFound
	}
	return d, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
