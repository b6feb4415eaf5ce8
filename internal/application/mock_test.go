package application_test

import (
	"context"
	"errors"
	"sync"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

// MockRepo keeps records in memory and can be told to fail.
type MockRepo struct {
	mu        sync.Mutex
	Records   map[string]*session.Record
	SaveError error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{Records: make(map[string]*session.Record)}
}

func (m *MockRepo) Save(record *session.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Records[record.ID] = record
	return nil
}

func (m *MockRepo) Load(id string) (*session.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.Records[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return record, nil
}

func (m *MockRepo) List() ([]*session.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session.Record, 0, len(m.Records))
	for _, r := range m.Records {
		out = append(out, r)
	}
	return out, nil
}

func (m *MockRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Records, id)
	return nil
}

// MockSaver records submitted drafts and can be told to fail.
type MockSaver struct {
	mu     sync.Mutex
	Err    error
	Calls  int
	LastID string
}

func (m *MockSaver) Save(ctx context.Context, id string, kind document.Kind, draft map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastID = id
	return m.Err
}

// MockSuggestClient returns canned responses per section title.
type MockSuggestClient struct {
	mu        sync.Mutex
	Responses map[string]string
	Err       error
	Requests  []application.SuggestionRequest
}

func (m *MockSuggestClient) Suggest(ctx context.Context, req application.SuggestionRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if m.Responses != nil {
		if s, ok := m.Responses[req.SectionTitle]; ok {
			return s, nil
		}
	}
	return "suggested text", nil
}

// blockingSuggestClient holds each call until released, so tests can drive
// completion order explicitly.
type blockingSuggestClient struct {
	release chan string
}

func (b *blockingSuggestClient) Suggest(ctx context.Context, req application.SuggestionRequest) (string, error) {
	select {
	case s := <-b.release:
		return s, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
