package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-services-videos/internal/models/events"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"
	"github.com/bionicotaku/lingo-services-videos/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type memoryMedia struct {
	mu        sync.Mutex
	objects   map[string][]byte
	seq       int
	storeErr  error
	deleteErr error
	deleted   []string
}

func newMemoryMedia() *memoryMedia {
	return &memoryMedia{objects: make(map[string][]byte)}
}

func (m *memoryMedia) Store(_ context.Context, data []byte, suggestedName string) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return storage.Object{}, m.storeErr
	}
	m.seq++
	name := suggestedName
	if name == "" {
		name = "object.bin"
	}
	name = string(rune('a'+m.seq-1)) + "-" + name
	m.objects[name] = bytes.Clone(data)
	return storage.Object{Name: name, URL: "/media/" + name, ContentType: storage.ContentType(name), Size: int64(len(data))}, nil
}

func (m *memoryMedia) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryMedia) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, name)
	return nil
}

func (m *memoryMedia) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[name]
	return ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt *events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Kind)
	}
	return out
}

// failingRepo 包装内存仓储，使 Save 固定失败。
type failingRepo struct {
	*repositories.MemoryVideoRepository
}

func (failingRepo) Save(context.Context, *po.Video) (*po.Video, error) {
	return nil, errors.New("connection reset")
}

// blankSaveRepo 包装内存仓储，使 Save 成功但不返回记录。
type blankSaveRepo struct {
	*repositories.MemoryVideoRepository
}

func (blankSaveRepo) Save(context.Context, *po.Video) (*po.Video, error) {
	return nil, nil
}

type fixture struct {
	repo      *repositories.MemoryVideoRepository
	media     *memoryMedia
	publisher *recordingPublisher
	commands  *services.VideoCommandService
	queries   *services.VideoQueryService
}

func newFixture() *fixture {
	logger := log.NewStdLogger(io.Discard)
	repo := repositories.NewMemoryVideoRepository(logger)
	media := newMemoryMedia()
	publisher := &recordingPublisher{}
	meter := noop.NewMeterProvider().Meter("test")
	return &fixture{
		repo:      repo,
		media:     media,
		publisher: publisher,
		commands:  services.NewVideoCommandService(repo, media, publisher, meter, logger),
		queries:   services.NewVideoQueryService(repo, media, services.NewRatingRanker(), logger),
	}
}

func (f *fixture) create(t *testing.T, in services.CreateVideoInput) *po.Video {
	t.Helper()
	v, err := f.commands.CreateVideo(context.Background(), in)
	require.NoError(t, err)
	return v
}
