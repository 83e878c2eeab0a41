package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heracore/backend/domain"
)

type memLedger struct {
	mu      sync.Mutex
	entries map[string]*domain.LedgerEntry
	records int
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]*domain.LedgerEntry)}
}

func (m *memLedger) key(org, code, idem string) string {
	return org + "|" + code + "|" + idem
}

func (m *memLedger) Record(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(entry.OrganizationID, entry.SmartCode, entry.IdempotencyKey)
	if existing, ok := m.entries[key]; ok {
		return existing, nil
	}
	entry.CreatedAt = time.Now()
	m.entries[key] = entry
	m.records++
	return entry, nil
}

func (m *memLedger) Lookup(ctx context.Context, org, code, idem string) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[m.key(org, code, idem)]; ok {
		return entry, nil
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (m *memLedger) PruneBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pruned []domain.LedgerEntry
	for key, entry := range m.entries {
		if entry.CreatedAt.Before(cutoff) && len(pruned) < limit {
			pruned = append(pruned, *entry)
			delete(m.entries, key)
		}
	}
	return pruned, nil
}

type memOrgs struct {
	known map[string]bool
}

func (m *memOrgs) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	if m.known[id] {
		return &domain.Organization{ID: id, Status: "active"}, nil
	}
	return nil, domain.ErrOrganizationNotFound
}

func (m *memOrgs) GetByCode(ctx context.Context, code string) (*domain.Organization, error) {
	return nil, domain.ErrOrganizationNotFound
}

func (m *memOrgs) Create(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	return org, nil
}

func (m *memOrgs) Update(ctx context.Context, org *domain.Organization) error {
	return nil
}

const testCode = "HERA.TEST.WIDGET.MAKE.V1"

func newTestAdapter(t *testing.T, handler Handler, mutating bool) (*Adapter, *memLedger) {
	t.Helper()
	registry := NewRegistry()
	if mutating {
		registry.RegisterMutation(testCode, handler)
	} else {
		registry.RegisterQuery(testCode, handler)
	}
	ledger := newMemLedger()
	orgs := &memOrgs{known: map[string]bool{"org-1": true, "org-2": true}}
	return NewAdapter(registry, ledger, orgs, nil), ledger
}

func TestInvoke_Success(t *testing.T) {
	executions := 0
	adapter, ledger := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		executions++
		return map[string]string{"widget_id": "w-1"}, nil
	}, true)

	result := adapter.Invoke(context.Background(), "HERA.TEST.WIDGET.MAKE.v1",
		map[string]interface{}{"organization_id": "org-1", "size": 3}, Options{})

	require.True(t, result.Success, "unexpected error: %+v", result.Error)
	assert.Equal(t, 1, executions)
	assert.JSONEq(t, `{"widget_id":"w-1"}`, string(result.Data))
	assert.NotEmpty(t, result.Metadata.CorrelationID)
	assert.NotEmpty(t, result.Metadata.IdempotencyKey)
	assert.False(t, result.Metadata.Cached)
	assert.Equal(t, 1, ledger.records)
}

func TestInvoke_ReplayIsByteIdentical(t *testing.T) {
	executions := 0
	adapter, ledger := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		executions++
		return map[string]interface{}{"widget_id": "w-1", "seq": executions}, nil
	}, true)

	payload := map[string]interface{}{"organization_id": "org-1", "size": 3}

	first := adapter.Invoke(context.Background(), testCode, payload, Options{})
	require.True(t, first.Success)

	second := adapter.Invoke(context.Background(), testCode, payload, Options{})
	require.True(t, second.Success)

	assert.Equal(t, 1, executions, "second call must replay, not re-execute")
	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, first.Metadata.IdempotencyKey, second.Metadata.IdempotencyKey)
	assert.Equal(t, []byte(first.Data), []byte(second.Data))
	assert.Equal(t, 1, ledger.records)
}

func TestInvoke_ExplicitKeySharedAcrossCalls(t *testing.T) {
	executions := 0
	adapter, _ := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		executions++
		return map[string]string{"line_id": "line-1"}, nil
	}, true)

	payload := map[string]interface{}{"organization_id": "org-1", "transaction_id": "txn-1"}
	opts := Options{IdempotencyKey: "client-key-42"}

	first := adapter.Invoke(context.Background(), testCode, payload, opts)
	second := adapter.Invoke(context.Background(), testCode, payload, opts)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, 1, executions)

	var firstData, secondData map[string]string
	require.NoError(t, json.Unmarshal(first.Data, &firstData))
	require.NoError(t, json.Unmarshal(second.Data, &secondData))
	assert.Equal(t, firstData["line_id"], secondData["line_id"])
}

func TestInvoke_IdempotencyConflict(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		return map[string]string{"ok": "yes"}, nil
	}, true)

	opts := Options{IdempotencyKey: "shared-key"}

	first := adapter.Invoke(context.Background(), testCode,
		map[string]interface{}{"organization_id": "org-1", "size": 1}, opts)
	require.True(t, first.Success)

	second := adapter.Invoke(context.Background(), testCode,
		map[string]interface{}{"organization_id": "org-1", "size": 2}, opts)
	require.False(t, second.Success)
	assert.Equal(t, string(domain.ErrCodeIdempotencyConflict), second.Error.Code)
}

func TestInvoke_FailureNotLedgered(t *testing.T) {
	fail := true
	adapter, ledger := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		if fail {
			return nil, errors.New("storage hiccup")
		}
		return map[string]string{"ok": "yes"}, nil
	}, true)

	payload := map[string]interface{}{"organization_id": "org-1"}

	first := adapter.Invoke(context.Background(), testCode, payload, Options{})
	require.False(t, first.Success)
	assert.Equal(t, string(domain.ErrCodeExecutionError), first.Error.Code)
	assert.Equal(t, 0, ledger.records, "failed calls must not be ledgered")

	// a retry after the fault clears must execute for real
	fail = false
	second := adapter.Invoke(context.Background(), testCode, payload, Options{})
	require.True(t, second.Success)
	assert.False(t, second.Metadata.Cached)
	assert.Equal(t, 1, ledger.records)
}

func TestInvoke_QueriesBypassLedger(t *testing.T) {
	executions := 0
	adapter, ledger := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		executions++
		return map[string]int{"count": executions}, nil
	}, false)

	payload := map[string]interface{}{"organization_id": "org-1"}
	adapter.Invoke(context.Background(), testCode, payload, Options{})
	adapter.Invoke(context.Background(), testCode, payload, Options{})

	assert.Equal(t, 2, executions)
	assert.Equal(t, 0, ledger.records)
}

func TestInvoke_Failures(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "missing field")
	}, true)

	tests := []struct {
		name     string
		code     string
		payload  map[string]interface{}
		wantCode string
	}{
		{
			name:     "malformed smart code",
			code:     "NOT_A_CODE",
			payload:  map[string]interface{}{},
			wantCode: string(domain.ErrCodeInvalidSmartCode),
		},
		{
			name:     "unregistered procedure",
			code:     "HERA.TEST.WIDGET.DESTROY.V1",
			payload:  map[string]interface{}{"organization_id": "org-1"},
			wantCode: string(domain.ErrCodeProcedureNotFound),
		},
		{
			name:     "missing organization id",
			code:     testCode,
			payload:  map[string]interface{}{"size": 1},
			wantCode: string(domain.ErrCodeValidationFailed),
		},
		{
			name:     "unknown organization",
			code:     testCode,
			payload:  map[string]interface{}{"organization_id": "org-nope"},
			wantCode: string(domain.ErrCodeOrganizationNotFound),
		},
		{
			name:     "handler validation error",
			code:     testCode,
			payload:  map[string]interface{}{"organization_id": "org-1"},
			wantCode: string(domain.ErrCodeValidationFailed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adapter.Invoke(context.Background(), tt.code, tt.payload, Options{})
			require.False(t, result.Success)
			require.NotNil(t, result.Error)
			assert.Equal(t, tt.wantCode, result.Error.Code)
			assert.NotEmpty(t, result.Metadata.CorrelationID)
		})
	}
}

func TestInvoke_Timeout(t *testing.T) {
	adapter, ledger := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		select {
		case <-time.After(time.Second):
			return map[string]string{"ok": "yes"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, true)

	result := adapter.Invoke(context.Background(), testCode,
		map[string]interface{}{"organization_id": "org-1"}, Options{TimeoutMs: 10})

	require.False(t, result.Success)
	assert.Equal(t, string(domain.ErrCodeTimeout), result.Error.Code)
	assert.Equal(t, 0, ledger.records)
}

func TestInvoke_CorrelationIDPassedThrough(t *testing.T) {
	var seen string
	adapter, _ := newTestAdapter(t, func(ctx context.Context, req Request) (interface{}, error) {
		seen = req.CorrelationID
		return map[string]string{}, nil
	}, true)

	result := adapter.Invoke(context.Background(), testCode,
		map[string]interface{}{"organization_id": "org-1"},
		Options{CorrelationID: "WF-20250101000000-deadbeef-001"})

	require.True(t, result.Success)
	assert.Equal(t, "WF-20250101000000-deadbeef-001", result.Metadata.CorrelationID)
	assert.Equal(t, "WF-20250101000000-deadbeef-001", seen)
}
