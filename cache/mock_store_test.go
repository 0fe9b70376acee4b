package cache

import (
	"context"
	"sync"
	"time"
)

// mockStore is an in-memory Store that records calls and can fail on
// demand.
type mockStore struct {
	mu     sync.Mutex
	values map[string][]byte
	tags   map[string]map[string]struct{}
	calls  []string

	getErr, setErr, deleteErr, tagErr, taggedErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		values: make(map[string][]byte),
		tags:   make(map[string]map[string]struct{}),
	}
}

func (m *mockStore) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.record("get:" + key)
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.record("set:" + key)
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.record("delete:" + k)
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *mockStore) Tag(_ context.Context, tag string, keys ...string) error {
	m.record("tag:" + tag)
	if m.tagErr != nil {
		return m.tagErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.tags[tag]
	if !ok {
		set = make(map[string]struct{})
		m.tags[tag] = set
	}
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return nil
}

func (m *mockStore) Tagged(_ context.Context, tag string) ([]string, error) {
	if m.taggedErr != nil {
		return nil, m.taggedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.tags[tag] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockStore) Untag(_ context.Context, tag string, keys ...string) error {
	m.record("untag:" + tag)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.tags[tag], k)
	}
	if len(m.tags[tag]) == 0 {
		delete(m.tags, tag)
	}
	return nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

func (m *mockStore) tagged(tag, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tags[tag][key]
	return ok
}
