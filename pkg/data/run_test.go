package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func ptr(v float64) *float64 { return &v }

func testRun(label string) *Run {
	return &Run{
		Label:         label,
		TruePath:      "true.pkl.gz",
		GeneratedPath: "gen.pkl.gz",
		Attempts:      1,
		Rows:          10,
		Metrics: []*Metric{
			{Attempt: 1, Reference: "true_vol", Candidate: "gen1_vol_generated", R2: ptr(0.9), MAE: ptr(1.5), N: 10},
			{Attempt: 1, Reference: "true_alpha", Candidate: "gen1_alpha", N: 0, Error: "no valid rows"},
		},
	}
}

func assertRunStore(t *testing.T, dsn string) {
	t.Helper()
	require.NoError(t, Init(dsn))
	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	first, err := SaveRun(db, testRun("baseline"))
	require.NoError(t, err)
	second, err := SaveRun(db, testRun("tuned"))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	runs, err := ListRuns(db, nil, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, "tuned", runs[0].Label)
	assert.Equal(t, 10, runs[0].Rows)

	label := "baseline"
	runs, err = ListRuns(db, &label, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, first, runs[0].ID)

	runs, err = ListRuns(db, nil, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	run, err := GetRun(db, first)
	require.NoError(t, err)
	assert.Equal(t, "baseline", run.Label)
	assert.Equal(t, "true.pkl.gz", run.TruePath)
	assert.NotEmpty(t, run.CreatedAt)

	metrics, err := GetRunMetrics(db, first)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	// ordered by reference
	assert.Equal(t, "true_alpha", metrics[0].Reference)
	assert.Nil(t, metrics[0].R2)
	assert.Nil(t, metrics[0].MAE)
	assert.Equal(t, "no valid rows", metrics[0].Error)

	assert.Equal(t, "gen1_vol_generated", metrics[1].Candidate)
	require.NotNil(t, metrics[1].R2)
	assert.InDelta(t, 0.9, *metrics[1].R2, 1e-12)
	assert.InDelta(t, 1.5, *metrics[1].MAE, 1e-12)
	assert.Equal(t, 10, metrics[1].N)

	require.NoError(t, DeleteRun(db, first))
	metrics, err = GetRunMetrics(db, first)
	require.NoError(t, err)
	assert.Empty(t, metrics)
	runs, err = ListRuns(db, nil, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = GetRun(db, first)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunStore_SQLite(t *testing.T) {
	assertRunStore(t, t.TempDir()+"/runs.db")
}

func TestSaveRun_SetsCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	r := testRun("")
	id, err := SaveRun(db, r)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)

	_, err = time.Parse(time.RFC3339, r.CreatedAt)
	assert.NoError(t, err)
}

func TestSaveRun_DuplicateMetricRollsBack(t *testing.T) {
	db := setupTestDB(t)
	r := testRun("dup")
	r.Metrics = append(r.Metrics, r.Metrics[0])

	_, err := SaveRun(db, r)
	require.Error(t, err)

	runs, err := ListRuns(db, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunStore_NilDB(t *testing.T) {
	_, err := SaveRun(nil, testRun("x"))
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = ListRuns(nil, nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = GetRun(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = GetRunMetrics(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	assert.ErrorIs(t, DeleteRun(nil, 1), errDBNotInitialized)

	db := setupTestDB(t)
	_, err = SaveRun(db, nil)
	assert.Error(t, err)
}

func TestRunStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("celleval"),
		postgres.WithUsername("celleval"),
		postgres.WithPassword("celleval"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.Equal(t, driverPostgres, Driver(dsn))

	assertRunStore(t, dsn)

	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, isPostgres(db))
	assert.Equal(t, "a = $1 AND b = $2", rebind(db, "a = ? AND b = ?"))
}
