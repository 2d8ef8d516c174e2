package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/store/memory"
	"github.com/hackgods/salon-scheduling/internal/user"
)

func setup(t *testing.T) (*catalog.Catalog, *user.User, *user.User) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	master, err := store.CreateUser(ctx, user.User{Login: "m", FullName: "Mila", PhoneNumber: "123", Role: user.RoleManicurist})
	require.NoError(t, err)
	client, err := store.CreateUser(ctx, user.User{Login: "c", FullName: "Carl", Role: user.RoleClient})
	require.NoError(t, err)

	return catalog.NewCatalog(store, store, zap.NewNop()), master, client
}

func ptr[T any](v T) *T { return &v }

func TestCreateAndGet(t *testing.T) {
	c, master, _ := setup(t)
	ctx := context.Background()

	created, err := c.Create(ctx, catalog.Service{Title: "Manicure", DurationQuanta: 3, Price: 30.5, MasterID: master.ID})
	require.NoError(t, err)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mila", got.MasterFullName)
	assert.Equal(t, user.RoleManicurist, got.MasterRole)
	assert.Equal(t, "123", got.MasterPhoneNumber)
	assert.Equal(t, 3, got.DurationQuanta)

	_, err = c.Get(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestCreateValidation(t *testing.T) {
	c, master, client := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		svc  catalog.Service
		want error
	}{
		{"zero duration", catalog.Service{Title: "x", DurationQuanta: 0, Price: 1, MasterID: master.ID}, catalog.ErrInvalidService},
		{"negative price", catalog.Service{Title: "x", DurationQuanta: 1, Price: -1, MasterID: master.ID}, catalog.ErrInvalidService},
		{"no title", catalog.Service{DurationQuanta: 1, Price: 1, MasterID: master.ID}, catalog.ErrInvalidService},
		{"unknown master", catalog.Service{Title: "x", DurationQuanta: 1, Price: 1, MasterID: 999}, catalog.ErrMasterNotFound},
		{"client as master", catalog.Service{Title: "x", DurationQuanta: 1, Price: 1, MasterID: client.ID}, catalog.ErrMasterNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(ctx, tt.svc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdatePartial(t *testing.T) {
	c, master, _ := setup(t)
	ctx := context.Background()

	created, err := c.Create(ctx, catalog.Service{Title: "Manicure", DurationQuanta: 3, Price: 30, MasterID: master.ID})
	require.NoError(t, err)

	updated, err := c.Update(ctx, created.ID, catalog.Patch{Price: ptr(35.0)})
	require.NoError(t, err)
	assert.Equal(t, "Manicure", updated.Title)
	assert.Equal(t, 3, updated.DurationQuanta)
	assert.Equal(t, 35.0, updated.Price)

	_, err = c.Update(ctx, created.ID, catalog.Patch{DurationQuanta: ptr(0)})
	assert.ErrorIs(t, err, catalog.ErrInvalidService)

	_, err = c.Update(ctx, created.ID, catalog.Patch{MasterID: ptr(int64(999))})
	assert.ErrorIs(t, err, catalog.ErrMasterNotFound)

	_, err = c.Update(ctx, 999, catalog.Patch{Title: ptr("x")})
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestListByMaster(t *testing.T) {
	c, master, _ := setup(t)
	ctx := context.Background()

	_, err := c.Create(ctx, catalog.Service{Title: "A", DurationQuanta: 1, Price: 1, MasterID: master.ID})
	require.NoError(t, err)
	_, err = c.Create(ctx, catalog.Service{Title: "B", DurationQuanta: 2, Price: 2, MasterID: master.ID})
	require.NoError(t, err)

	list, err := c.ListByMaster(ctx, master.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)
	assert.Equal(t, "Mila", list[1].MasterFullName)

	_, err = c.ListByMaster(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrMasterNotFound)

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete(t *testing.T) {
	c, master, _ := setup(t)
	ctx := context.Background()

	created, err := c.Create(ctx, catalog.Service{Title: "A", DurationQuanta: 1, Price: 1, MasterID: master.ID})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.ErrorIs(t, c.Delete(ctx, created.ID), catalog.ErrServiceNotFound)
}
