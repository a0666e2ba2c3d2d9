// Package store provides the local key-value persistence behind a journal.
package store

import (
	"sort"
	"sync"
)

// KV is a plain string key-value store. Get reports ok=false for a missing
// key. SetMany writes all pairs or none.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	SetMany(pairs map[string]string) error
	Remove(keys ...string) error
	Close() error
}

// Memory is an in-process KV.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetMany(pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range pairs {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys lists the stored keys in order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) Close() error { return nil }
