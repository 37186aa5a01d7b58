package nlp

import (
	"context"
	"sync"
)

// MockSentiment permite tests sin llamar a un modelo real.
type MockSentiment struct {
	mu       sync.Mutex
	Result   Sentiment
	Err      error
	ProbeErr error
	Calls    int
}

func (m *MockSentiment) Classify(_ context.Context, _ string) (Sentiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Result, m.Err
}

func (m *MockSentiment) Probe(_ context.Context) error {
	return m.ProbeErr
}

// MockZeroShot devuelve Scores tal cual, sin mirar las etiquetas pedidas.
type MockZeroShot struct {
	mu       sync.Mutex
	Scores   []LabelScore
	Err      error
	ProbeErr error
	Calls    int
}

func (m *MockZeroShot) Classify(_ context.Context, _ string, _ []string) ([]LabelScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Scores, m.Err
}

func (m *MockZeroShot) Probe(_ context.Context) error {
	return m.ProbeErr
}
