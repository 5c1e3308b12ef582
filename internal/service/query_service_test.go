package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newQueryEnv(t *testing.T) (*QueryService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	q := NewQueryService(env.store.Patients(), env.store.BedTickets(), env.kv, zap.NewNop())
	return q, env
}

func TestQuery_GetPatient(t *testing.T) {
	q, env := newQueryEnv(t)
	ctx := context.Background()
	pid := env.register(t, "Jane", "Perera")

	rec, err := q.GetPatient(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, "Jane Perera", rec.FullName())

	_, err = q.GetPatient(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = q.GetPatient(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_SearchIsCaseInsensitive(t *testing.T) {
	q, env := newQueryEnv(t)
	ctx := context.Background()
	pid := env.register(t, "Jane", "Perera")
	env.register(t, "John", "Fernando")

	results, err := q.Search(ctx, "PERERA")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, pid, results[0].PatientID)
	assert.Equal(t, "Jane Perera", results[0].FullName)

	// empty fragment is not an error
	results, err = q.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_BedBoardUsesCache(t *testing.T) {
	q, env := newQueryEnv(t)
	ctx := context.Background()

	beds, err := q.BedBoard(ctx)
	require.NoError(t, err)
	assert.Len(t, beds, 10)

	// poison the cache to prove the next read is served from it
	stale := beds[:3]
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, env.kv.Set(ctx, BedBoardCacheKey, string(raw), time.Minute))

	cached, err := q.BedBoard(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 3)
}

func TestQuery_Stats(t *testing.T) {
	q, env := newQueryEnv(t)
	ctx := context.Background()
	pid := env.register(t, "Jane", "Perera")
	env.register(t, "John", "Fernando")

	_, err := env.svc.Admit(ctx, pid, 2)
	require.NoError(t, err)

	// bypass the cache populated before the admit
	require.NoError(t, env.kv.Del(ctx, BedBoardCacheKey))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPatients)
	assert.Equal(t, 10, stats.TotalBeds)
	assert.Equal(t, 1, stats.OccupiedBeds)
	assert.Equal(t, 9, stats.FreeBeds)
}

func TestQuery_ExportBedBoard(t *testing.T) {
	q, env := newQueryEnv(t)
	ctx := context.Background()
	pid := env.register(t, "Jane", "Perera")
	_, err := env.svc.Admit(ctx, pid, 1)
	require.NoError(t, err)

	book, err := q.ExportBedBoard(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, book)

	f, err := excelize.OpenReader(bytes.NewReader(book))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bed Board")
	require.NoError(t, err)
	// header + one row per bed
	require.Len(t, rows, 11)
	assert.Equal(t, bedBoardExportHeader, rows[0])
	assert.Equal(t, "Jane Perera", rows[1][2])
}
