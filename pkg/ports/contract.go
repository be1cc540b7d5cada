package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/domain"
)

// RunStateStoreContract checks the behavior every StateStore must share.
// It only creates sessions whose IDs start with a per-run prefix and removes them afterwards.
func RunStateStoreContract(t *testing.T, store StateStore) {
	t.Helper()
	ctx := context.Background()
	prefix := fmt.Sprintf("contract-%d-", time.Now().UnixNano())
	id := func(name string) string { return prefix + name }

	midway := func(sessionID string) *domain.State {
		s := domain.NewState(sessionID, "signup")
		s.CurrentPageID = "p3"
		s.History = []string{"p1", "p2"}
		s.Answers["plan"] = "pro"
		s.Answers["topics"] = []any{"billing", "api"}
		s.Variables["score"] = 10.0
		return s
	}

	t.Run("round trip keeps progress", func(t *testing.T) {
		sid := id("progress")
		t.Cleanup(func() { _ = store.Delete(ctx, sid) })
		require.NoError(t, store.Save(ctx, sid, midway(sid)))

		got, err := store.Load(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, "signup", got.FunnelID)
		assert.Equal(t, "p3", got.CurrentPageID)
		assert.Equal(t, []string{"p1", "p2"}, got.History)
		assert.Equal(t, "pro", got.Answers["plan"])
		assert.Equal(t, []any{"billing", "api"}, got.Answers["topics"])
		assert.Equal(t, 10.0, got.Variables["score"])
	})

	t.Run("save overwrites", func(t *testing.T) {
		sid := id("overwrite")
		t.Cleanup(func() { _ = store.Delete(ctx, sid) })
		require.NoError(t, store.Save(ctx, sid, midway(sid)))

		done := midway(sid)
		done.Status = domain.StatusComplete
		done.CurrentPageID = ""
		require.NoError(t, store.Save(ctx, sid, done))

		got, err := store.Load(ctx, sid)
		require.NoError(t, err)
		assert.True(t, got.IsComplete())
		assert.Empty(t, got.CurrentPageID)
	})

	t.Run("loads are independent copies", func(t *testing.T) {
		sid := id("copies")
		t.Cleanup(func() { _ = store.Delete(ctx, sid) })
		require.NoError(t, store.Save(ctx, sid, midway(sid)))

		first, err := store.Load(ctx, sid)
		require.NoError(t, err)
		first.Answers["plan"] = "basic"
		first.History[0] = "changed"

		second, err := store.Load(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, "pro", second.Answers["plan"])
		assert.Equal(t, "p1", second.History[0])
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := store.Load(ctx, id("never-saved"))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, id("never-saved")))
	})

	t.Run("delete then load", func(t *testing.T) {
		sid := id("deleted")
		require.NoError(t, store.Save(ctx, sid, domain.NewState(sid, "signup")))
		require.NoError(t, store.Delete(ctx, sid))

		_, err := store.Load(ctx, sid)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("list", func(t *testing.T) {
		a, b := id("list-a"), id("list-b")
		t.Cleanup(func() {
			_ = store.Delete(ctx, a)
			_ = store.Delete(ctx, b)
		})
		require.NoError(t, store.Save(ctx, a, domain.NewState(a, "signup")))
		require.NoError(t, store.Save(ctx, b, domain.NewState(b, "signup")))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, a)
		assert.Contains(t, ids, b)
		assert.NotContains(t, ids, id("deleted"))
	})
}
