package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sdbip/agiler-write-model/internal/domain"
	"github.com/sdbip/agiler-write-model/internal/es"
)

// fakeStore records what was published and serves canned histories.
type fakeStore struct {
	mu sync.Mutex

	histories  map[string]es.EntityHistory
	publishErr error
	readErr    error

	lastActor    string
	lastEntities []es.Entity
	lastEvents   []es.EntityEvent
	requested    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{histories: map[string]es.EntityHistory{}}
}

func (f *fakeStore) Publish(_ context.Context, event es.UnpublishedEvent, entity es.CanonicalEntityID, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastActor = actor
	f.lastEvents = []es.EntityEvent{{Entity: entity, Name: event.Name(), Details: event.Details()}}
	return f.publishErr
}

func (f *fakeStore) PublishChanges(_ context.Context, actor string, entities ...es.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.lastActor = actor
	f.lastEntities = entities
	f.lastEvents = es.EventsOf(entities...)
	return nil
}

func (f *fakeStore) HistoryFor(_ context.Context, id es.CanonicalEntityID) (es.EntityHistory, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, id.ID())
	if f.readErr != nil {
		return es.EntityHistory{}, false, f.readErr
	}
	h, ok := f.histories[id.ID()]
	if !ok {
		return es.EntityHistory{}, false, nil
	}
	if h.Type != id.Type() {
		return es.EntityHistory{}, false, &es.TypeMismatchError{ID: id.ID(), Expected: id.Type(), Actual: h.Type}
	}
	return h, true, nil
}

func (f *fakeStore) History(_ context.Context, id string) (es.EntityHistory, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, id)
	if f.readErr != nil {
		return es.EntityHistory{}, false, f.readErr
	}
	h, ok := f.histories[id]
	return h, ok, nil
}

// named returns the published events with the given name.
func (f *fakeStore) named(name string) []es.EntityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []es.EntityEvent
	for _, ev := range f.lastEvents {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fakeProjection struct {
	synced []es.EntityEvent
	err    error
}

func (p *fakeProjection) Sync(_ context.Context, events []es.EntityEvent) error {
	p.synced = append(p.synced, events...)
	return p.err
}

type fixture struct {
	store      *fakeStore
	projection *fakeProjection
	router     *gin.Engine
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{store: newFakeStore(), projection: &fakeProjection{}}
	f.router = NewRouter(Config{
		Publisher:  f.store,
		Reader:     f.store,
		Projection: f.projection,
		IDs:        domain.NewFixedGenerator(ids...),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("Authorization", actor)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func history(typ string, version int64, events ...es.PublishedEvent) es.EntityHistory {
	return es.EntityHistory{Type: typ, Version: es.MustVersion(version), Events: events}
}

func event(name string, details es.Details) es.PublishedEvent {
	return es.PublishedEvent{Name: name, Details: details}
}

func decodeID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp IDResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

const testActor = "some_user"
