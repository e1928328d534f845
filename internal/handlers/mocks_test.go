package handlers

import (
	"context"

	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/models"
	"github.com/openmohaa/fourthdown-api/internal/worker"
)

// MockDecisionService
type MockDecisionService struct {
	EvaluateFunc func(yardLine int, yardsToGo float64, ov models.Overrides) *models.Decision
	TablesFunc   func() *lookup.Tables
	calls        int
}

func (m *MockDecisionService) Evaluate(yardLine int, yardsToGo float64, ov models.Overrides) *models.Decision {
	m.calls++
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(yardLine, yardsToGo, ov)
	}
	return &models.Decision{YardLine: yardLine, YardsToGo: yardsToGo, Recommendation: models.OptionPunt}
}

func (m *MockDecisionService) Tables() *lookup.Tables {
	if m.TablesFunc != nil {
		return m.TablesFunc()
	}
	return nil
}

// MockLookupStore
type MockLookupStore struct {
	SnapshotFunc   func() *lookup.Tables
	LoadFunc       func(path string) error
	LoadFormatFunc func(data []byte, source string, format lookup.Format) error
}

func (m *MockLookupStore) Snapshot() *lookup.Tables {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc()
	}
	return nil
}

func (m *MockLookupStore) Load(path string) error {
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	return nil
}

func (m *MockLookupStore) LoadFormat(data []byte, source string, format lookup.Format) error {
	if m.LoadFormatFunc != nil {
		return m.LoadFormatFunc(data, source, format)
	}
	return nil
}

// MockBatchEvaluator
type MockBatchEvaluator struct {
	EvaluateFunc func(ctx context.Context, svc logic.DecisionService, jobs []worker.Job) ([]*models.Decision, error)
}

func (m *MockBatchEvaluator) Evaluate(ctx context.Context, svc logic.DecisionService, jobs []worker.Job) ([]*models.Decision, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, svc, jobs)
	}
	return nil, nil
}
