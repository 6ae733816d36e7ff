package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/stockflow-worker/internal/db"
	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to DATABASE_URL and skips when it is unset
func newTestRepository(t *testing.T) (*repository.Repository, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping repository tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))

	return repository.NewRepository(pool), pool
}

// uniqueProduct returns a product name no other test run uses and removes its
// rows afterwards
func uniqueProduct(t *testing.T, pool *pgxpool.Pool, names ...*string) {
	t.Helper()
	for _, name := range names {
		*name = *name + "-" + uuid.NewString()
	}
	t.Cleanup(func() {
		ctx := context.Background()
		for _, name := range names {
			_, _ = pool.Exec(ctx, `DELETE FROM inventory_records WHERE product_name = $1`, *name)
			_, _ = pool.Exec(ctx, `DELETE FROM product_settings WHERE product_name = $1`, *name)
		}
	})
}

func record(product, date string, ingress, usage float64) inventory.Record {
	ts, _ := time.Parse(inventory.DateLayout, date)
	return inventory.Record{
		ID:          uuid.NewString(),
		Date:        date,
		Timestamp:   ts.Add(8 * time.Hour),
		ProductName: product,
		IngressQty:  ingress,
		UsageQty:    usage,
	}
}

func TestInsertRecord_IdempotentOnID(t *testing.T) {
	repo, pool := newTestRepository(t)
	product := "Harina"
	uniqueProduct(t, pool, &product)
	ctx := context.Background()

	r := record(product, "2023-10-01", 10, 0)
	_, err := repo.InsertRecord(ctx, r)
	require.NoError(t, err)
	_, err = repo.InsertRecord(ctx, r)
	require.NoError(t, err)

	records, err := repo.ListRecords(ctx, repository.RecordFilter{Product: product})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r.ID, records[0].ID)
	assert.Equal(t, "2023-10-01", records[0].Date)
}

func TestInsertRecord_AssignsID(t *testing.T) {
	repo, pool := newTestRepository(t)
	product := "Harina"
	uniqueProduct(t, pool, &product)

	r := record(product, "2023-10-01", 10, 0)
	r.ID = ""
	stored, err := repo.InsertRecord(context.Background(), r)

	require.NoError(t, err)
	_, err = uuid.Parse(stored.ID)
	assert.NoError(t, err)
}

func TestListRecords_InsertionOrderAndDateBounds(t *testing.T) {
	repo, pool := newTestRepository(t)
	product := "Harina"
	uniqueProduct(t, pool, &product)
	ctx := context.Background()

	// inserted out of date order; same-day order must be preserved
	inserted := []inventory.Record{
		record(product, "2023-10-03", 5, 0),
		record(product, "2023-10-01", 0, 7),
		record(product, "2023-10-01", 7, 0),
		record(product, "2023-10-02", 0, 1),
	}
	for _, r := range inserted {
		_, err := repo.InsertRecord(ctx, r)
		require.NoError(t, err)
	}

	all, err := repo.ListRecords(ctx, repository.RecordFilter{Product: product})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := range inserted {
		assert.Equal(t, inserted[i].ID, all[i].ID)
	}

	bounded, err := repo.ListRecords(ctx, repository.RecordFilter{Product: product, Start: "2023-10-01", End: "2023-10-02"})
	require.NoError(t, err)
	require.Len(t, bounded, 3)
	assert.Equal(t, []string{inserted[1].ID, inserted[2].ID, inserted[3].ID},
		[]string{bounded[0].ID, bounded[1].ID, bounded[2].ID})

	fromOnly, err := repo.ListRecords(ctx, repository.RecordFilter{Product: product, Start: "2023-10-03"})
	require.NoError(t, err)
	require.Len(t, fromOnly, 1)
	assert.Equal(t, inserted[0].ID, fromOnly[0].ID)
}

func TestDeleteRecord_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.DeleteRecord(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestSettings_UpsertAndRename(t *testing.T) {
	repo, pool := newTestRepository(t)
	oldName, newName, taken := "Harina", "Harina 000", "Azucar"
	uniqueProduct(t, pool, &oldName, &newName, &taken)
	ctx := context.Background()

	target := 40.0
	require.NoError(t, repo.UpsertSettings(ctx, oldName, inventory.ProductSettings{TolerancePercent: 20}))
	require.NoError(t, repo.UpsertSettings(ctx, oldName, inventory.ProductSettings{TargetAverage: &target, TolerancePercent: 15}))
	_, err := repo.InsertRecord(ctx, record(oldName, "2023-10-01", 3, 3))
	require.NoError(t, err)
	_, err = repo.InsertRecord(ctx, record(taken, "2023-10-01", 1, 0))
	require.NoError(t, err)

	err = repo.RenameProduct(ctx, oldName, taken)
	require.ErrorIs(t, err, repository.ErrProductExists)

	require.NoError(t, repo.RenameProduct(ctx, oldName, newName))

	settings, err := repo.GetSettingsMap(ctx)
	require.NoError(t, err)
	assert.NotContains(t, settings, oldName)
	require.Contains(t, settings, newName)
	assert.Equal(t, 15.0, settings[newName].TolerancePercent)
	require.NotNil(t, settings[newName].TargetAverage)
	assert.Equal(t, 40.0, *settings[newName].TargetAverage)

	moved, err := repo.ListRecords(ctx, repository.RecordFilter{Product: newName})
	require.NoError(t, err)
	assert.Len(t, moved, 1)

	err = repo.RenameProduct(ctx, oldName, newName)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
