package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newSession(id string) domain.Session {
	return domain.NewSession(id, domain.Customer{
		Email:      "sarah@example.com",
		FirstName:  "Sarah",
		LastName:   "Jones",
		ExternalID: "gid://shopify/Customer/7424155189325",
	}, started)
}

func openMemory(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStoreCreateGetList(t *testing.T) {
	t.Parallel()

	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("session_a")))
	require.NoError(t, store.Create(ctx, newSession("session_b")))

	err := store.Create(ctx, newSession("session_a"))
	require.ErrorIs(t, err, domain.ErrSessionExists)

	got, err := store.Get(ctx, "session_a")
	require.NoError(t, err)
	assert.Equal(t, "Sarah", got.Customer.FirstName)
	assert.Equal(t, domain.SpecialistSupervisor, got.ActiveSpecialist)

	_, err = store.Get(ctx, "session_missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestStoreUpdateAbortsOnCallbackError(t *testing.T) {
	t.Parallel()

	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("session_a")))

	err := store.Update(ctx, "session_a", func(s *domain.Session) error {
		s.Intent = domain.CategoryWISMO
		return domain.ErrConcurrentTurn
	})
	require.ErrorIs(t, err, domain.ErrConcurrentTurn)

	got, err := store.Get(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, got.Intent)

	err = store.Update(ctx, "session_missing", func(*domain.Session) error { return nil })
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreConcurrentUpdatesAllLand(t *testing.T) {
	t.Parallel()

	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("session_a")))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "session_a", func(s *domain.Session) error {
				s.ActionsTaken = append(s.ActionsTaken, fmt.Sprintf("action %d", i))
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "session_a")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ActionsTaken)
	assert.LessOrEqual(t, len(got.ActionsTaken), 8)
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Create(ctx, newSession("session_a")), context.Canceled)
	_, err := store.Get(ctx, "session_a")
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreSurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(DefaultConfig(dir))
	require.NoError(t, err)

	session := newSession("session_restart")
	require.NoError(t, store.Create(ctx, session))

	total := 54.98
	require.NoError(t, store.Update(ctx, session.ID, func(s *domain.Session) error {
		s.BeginTurn()
		s.AppendMessage(domain.RoleCustomer, "My son got a rash from the patches", started.Add(time.Minute))
		s.AppendMessage(domain.RoleAgent, "Hey Sarah, please stop using the product. 💛\n\nCaz", started.Add(2*time.Minute))
		s.Intent = domain.CategoryNoEffect
		s.IntentConfidence = 91
		s.Context.OrderID = "gid://shopify/Order/5531567751245"
		s.Context.OrderTotal = &total
		s.ToolLog = append(s.ToolLog, domain.ToolCallLogEntry{
			Tool:       domain.ToolGetOrderDetails,
			Args:       map[string]any{"orderId": "#43189"},
			Result:     domain.Succeeded(map[string]any{"status": "FULFILLED"}),
			Specialist: domain.SpecialistIssue,
			Turn:       1,
			At:         started.Add(90 * time.Second),
		})
		s.Escalate(domain.EscalationPayload{
			CustomerName:  "Sarah Jones",
			CustomerEmail: "sarah@example.com",
			Category:      domain.EscalationHealth,
			Priority:      domain.PriorityHigh,
			Summary:       "Health concern",
			EscalatedTo:   "Monica - Head of CS",
			CreatedAt:     started.Add(2 * time.Minute),
		})
		s.Turn.Reply = "Hey Sarah, please stop using the product. 💛\n\nCaz"
		s.Record(domain.TraceEvent{Kind: domain.TraceEscalation, Detail: "escalated as health_concern"})
		s.Version++
		return nil
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	restored, err := reopened.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, restored.Escalated)
	assert.Equal(t, int64(1), restored.Version)
	assert.Equal(t, 1, restored.TurnCount)
	require.Len(t, restored.Messages, 2)
	require.NotNil(t, restored.Context.OrderTotal)
	assert.InDelta(t, 54.98, *restored.Context.OrderTotal, 0.0001)
	require.Len(t, restored.ToolLog, 1)
	assert.Equal(t, "FULFILLED", restored.ToolLog[0].Result.Data.(map[string]any)["status"])

	trace, err := application.NewOrchestrator(application.Deps{Store: reopened}, application.DefaultSettings()).
		GetTrace(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, trace.Escalated)
	assert.Equal(t, domain.EscalationHealth, trace.Escalation.Category)
	assert.Equal(t, restored.Turn.Reply, trace.FinalResponse)
	assert.Len(t, trace.Events, 1)
	assert.True(t, trace.UpdatedAt.Equal(started))
}
