package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsight/adsight/internal/profile"
	"github.com/adsight/adsight/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db") + "?_loc=auto",
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestChatSessionCRUD(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()
	now := time.Now().Unix()

	created, err := driver.CreateChatSession(ctx, &store.ChatSession{
		UID:        "sess-1",
		Domain:     "meta_ads",
		UserEmail:  "ops@example.com",
		Snapshot:   `{"question":"how is spend"}`,
		Transcript: `[]`,
		Active:     true,
		CreatedTs:  now,
		UpdatedTs:  now,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	uid := "sess-1"
	list, err := driver.ListChatSessions(ctx, &store.FindChatSession{UID: &uid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "meta_ads", list[0].Domain)
	assert.Equal(t, `{"question":"how is spend"}`, list[0].Snapshot)

	snapshot := `{"question":"and clicks?"}`
	updated, err := driver.UpdateChatSession(ctx, &store.UpdateChatSession{
		ID:       created.ID,
		Snapshot: &snapshot,
	})
	require.NoError(t, err)
	assert.Equal(t, snapshot, updated.Snapshot)
	assert.Equal(t, "sess-1", updated.UID)

	require.NoError(t, driver.DeleteChatSession(ctx, &store.DeleteChatSession{ID: created.ID}))
	list, err = driver.ListChatSessions(ctx, &store.FindChatSession{UID: &uid})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChatSessionStalePurge(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()
	now := time.Now().Unix()

	_, err := driver.CreateChatSession(ctx, &store.ChatSession{
		UID: "old", Domain: "meta_ads", Active: true,
		CreatedTs: now - 100000, UpdatedTs: now - 100000,
	})
	require.NoError(t, err)
	_, err = driver.CreateChatSession(ctx, &store.ChatSession{
		UID: "fresh", Domain: "meta_ads", Active: true,
		CreatedTs: now, UpdatedTs: now,
	})
	require.NoError(t, err)

	cutoff := now - 1000
	require.NoError(t, driver.DeleteChatSession(ctx, &store.DeleteChatSession{UpdatedBefore: &cutoff}))

	list, err := driver.ListChatSessions(ctx, &store.FindChatSession{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].UID)
}

func TestDeleteWithoutFilterRefused(t *testing.T) {
	driver := newTestDriver(t)
	assert.Error(t, driver.DeleteChatSession(context.Background(), &store.DeleteChatSession{}))
}
