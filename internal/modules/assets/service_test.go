package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/database"
)

type fakeMetals struct {
	prices   map[string]float64
	failures map[string]bool
	calls    []string
}

func (f *fakeMetals) GramPrice(ctx context.Context, symbol string) (float64, error) {
	f.calls = append(f.calls, symbol)
	if f.failures[symbol] {
		return 0, errors.New("upstream unavailable")
	}
	return f.prices[symbol], nil
}

func setupTestService(t *testing.T) (*Service, *Repository, *fakeMetals) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(db, log)
	metals := &fakeMetals{
		prices:   map[string]float64{"XAU": 75.5, "XAG": 0.95},
		failures: map[string]bool{},
	}
	return NewService(repo, metals, log), repo, metals
}

func TestAddAsset(t *testing.T) {
	svc, _, _ := setupTestService(t)

	asset, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Gold", Grams: 50, BuyPrice: 70,
	})
	require.NoError(t, err)

	assert.Equal(t, "Gold", asset.Name)
	assert.Equal(t, 50.0, asset.Grams)
	assert.Equal(t, 75.5, asset.CurrentPrice)
	assert.NotEmpty(t, asset.ID)
}

func TestAddAsset_NameMapsToSymbol(t *testing.T) {
	svc, _, metals := setupTestService(t)

	_, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Silver bars", Grams: 100, BuyPrice: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"XAG"}, metals.calls)
}

func TestAddAsset_Validation(t *testing.T) {
	svc, repo, _ := setupTestService(t)

	tests := []struct {
		name  string
		input AddAssetInput
	}{
		{"unknown metal", AddAssetInput{Name: "Platinum", Grams: 10, BuyPrice: 30}},
		{"zero grams", AddAssetInput{Name: "Gold", Grams: 0, BuyPrice: 70}},
		{"negative buy price", AddAssetInput{Name: "Gold", Grams: 10, BuyPrice: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), "user-1", tt.input)
			assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
		})
	}

	rows, err := repo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAddAsset_SpotFailureCreatesNothing(t *testing.T) {
	svc, repo, metals := setupTestService(t)
	metals.failures["XAU"] = true

	_, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Gold", Grams: 50, BuyPrice: 70,
	})
	assert.Equal(t, apierr.KindQuoteUnavailable, apierr.KindOf(err))

	rows, err := repo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateAsset_Ownership(t *testing.T) {
	svc, _, _ := setupTestService(t)

	asset, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Gold", Grams: 50, BuyPrice: 70,
	})
	require.NoError(t, err)

	grams := 60.0
	_, err = svc.Update(context.Background(), "user-2", asset.ID, UpdateAssetInput{Grams: &grams})
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	updated, err := svc.Update(context.Background(), "user-1", asset.ID, UpdateAssetInput{Grams: &grams})
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.Grams)
	assert.Equal(t, 70.0, updated.BuyPrice)
}

func TestDeleteAsset(t *testing.T) {
	svc, repo, _ := setupTestService(t)

	asset, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Gold", Grams: 50, BuyPrice: 70,
	})
	require.NoError(t, err)

	assert.Equal(t, apierr.KindNotFound,
		apierr.KindOf(svc.Delete(context.Background(), "user-2", asset.ID)))

	require.NoError(t, svc.Delete(context.Background(), "user-1", asset.ID))

	_, err = repo.FindByID(asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshAllPrices_FetchesEachMetalOnce(t *testing.T) {
	svc, repo, metals := setupTestService(t)

	for _, name := range []string{"Gold", "Gold coins", "Silver"} {
		_, err := svc.Add(context.Background(), "user-1", AddAssetInput{
			Name: name, Grams: 10, BuyPrice: 1,
		})
		require.NoError(t, err)
	}
	metals.calls = nil
	metals.prices["XAU"] = 80

	result, err := svc.RefreshAllPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Updated)
	assert.Len(t, metals.calls, 2) // one fetch per metal, not per row

	rows, err := repo.FindAllByUser("user-1")
	require.NoError(t, err)
	for _, row := range rows {
		if row.Name == "Silver" {
			assert.Equal(t, 0.95, row.CurrentPrice)
		} else {
			assert.Equal(t, 80.0, row.CurrentPrice)
		}
	}
}

func TestRefreshAllPrices_IsolatesFailures(t *testing.T) {
	svc, repo, metals := setupTestService(t)

	gold, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Gold", Grams: 10, BuyPrice: 1,
	})
	require.NoError(t, err)
	silver, err := svc.Add(context.Background(), "user-1", AddAssetInput{
		Name: "Silver", Grams: 10, BuyPrice: 1,
	})
	require.NoError(t, err)

	metals.failures["XAU"] = true
	metals.prices["XAG"] = 1.10

	result, err := svc.RefreshAllPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)

	staleGold, err := repo.FindByID(gold.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.5, staleGold.CurrentPrice)

	freshSilver, err := repo.FindByID(silver.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.10, freshSilver.CurrentPrice)
}
