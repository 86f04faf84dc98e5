package users

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserCreatesDefaultDocument(t *testing.T) {
	svc := NewService(NewMemoryStore())

	u, err := svc.EnsureUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.TelegramID)
	assert.False(t, u.AlertsOn)
	assert.Empty(t, u.Lang)
	assert.Empty(t, u.Markers)
	assert.Empty(t, u.Cart)
}

func TestEnsureUserIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, svc.SetLang(ctx, 42, "en"))

	second, err := svc.EnsureUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.TelegramID, second.TelegramID)
	assert.Equal(t, "en", second.Lang, "repeat ensure must not reset the document")
	assert.Equal(t, 1, store.Len())
}

func TestEnsureUserConcurrentSingleDocument(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.EnsureUser(ctx, 42)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.Len())
}

func TestEnsureUserRejectsEmptyIdentity(t *testing.T) {
	svc := NewService(NewMemoryStore())
	_, err := svc.EnsureUser(context.Background(), 0)
	require.Error(t, err)
}

func TestAddToCartAppendsZeroAmountLine(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.EnsureUser(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, svc.AddToCart(ctx, 7, "widget"))

	u, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, u.Cart, 1)
	assert.Equal(t, "widget", u.Cart[0].Name)
	assert.Equal(t, 0, u.Cart[0].Amount)
}

func TestAddToCartDoesNotDedup(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.EnsureUser(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, svc.AddToCart(ctx, 7, "widget"))
	require.NoError(t, svc.AddToCart(ctx, 7, "widget"))

	u, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, u.Cart, 2)
}

func TestAddToCartUnknownUser(t *testing.T) {
	svc := NewService(NewMemoryStore())
	err := svc.AddToCart(context.Background(), 99, "widget")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddMarker(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.EnsureUser(ctx, 5)
	require.NoError(t, err)

	id, err := svc.AddMarker(ctx, 5, 55.75, 37.61, "here")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	u, err := svc.Get(ctx, 5)
	require.NoError(t, err)
	require.Len(t, u.Markers, 1)
	assert.Equal(t, id, u.Markers[0].ID)
	assert.Equal(t, [2]float64{55.75, 37.61}, u.Markers[0].Position)
	assert.Equal(t, "here", u.Markers[0].Popup)
}

func TestAlertsEnabled(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	assert.False(t, svc.AlertsEnabled(ctx, 3), "missing user reads as opted out")

	_, err := svc.EnsureUser(ctx, 3)
	require.NoError(t, err)
	assert.False(t, svc.AlertsEnabled(ctx, 3))

	require.NoError(t, svc.SetAlerts(ctx, 3, true))
	require.NoError(t, svc.SetLang(ctx, 3, "ru"))
	assert.True(t, svc.AlertsEnabled(ctx, 3))

	u, err := svc.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "ru", u.Lang)
}
