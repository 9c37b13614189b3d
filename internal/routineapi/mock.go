package routineapi

import (
	"context"
	"sync"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// MockClient is an in-memory Client for tests and offline runs. Zero value
// is usable; configure Groups and failure injection before use.
type MockClient struct {
	mu sync.Mutex

	// Groups is returned from FetchRoutines unless FetchErr is set.
	Groups   []models.DayRoutineGroup
	FetchErr error

	// FailDoses lists dose ids whose SetDoseTaken call fails.
	FailDoses map[int64]error

	fetchCalls int
	checkCalls []int64
}

// Compile-time check that MockClient implements Client.
var _ Client = (*MockClient)(nil)

// FetchRoutines returns the configured groups or error.
func (m *MockClient) FetchRoutines(ctx context.Context, start, end time.Time) ([]models.DayRoutineGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := make([]models.DayRoutineGroup, len(m.Groups))
	copy(out, m.Groups)
	return out, nil
}

// SetDoseTaken records the call and fails for dose ids in FailDoses.
func (m *MockClient) SetDoseTaken(ctx context.Context, doseID int64, taken bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkCalls = append(m.checkCalls, doseID)
	if err, ok := m.FailDoses[doseID]; ok {
		return err
	}
	return nil
}

// FetchCalls returns how many times FetchRoutines ran.
func (m *MockClient) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// CheckCalls returns the dose ids passed to SetDoseTaken, in call order.
func (m *MockClient) CheckCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.checkCalls))
	copy(out, m.checkCalls)
	return out
}
