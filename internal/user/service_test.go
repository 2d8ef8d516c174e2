package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/auth"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/store/memory"
	"github.com/hackgods/salon-scheduling/internal/user"
)

func newService(t *testing.T) (*user.Service, *memory.Store, *auth.Issuer) {
	t.Helper()
	store := memory.New()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return user.NewService(store, issuer, zap.NewNop()), store, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, issuer := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, user.RegisterInput{
		Login:       "anna",
		Password:    "s3cret",
		FullName:    "Anna Petrova",
		PhoneNumber: "+70000000000",
		Role:        user.RoleStylist,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", sess.User.PasswordHash)

	p, err := issuer.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, p.UserID)
	assert.Equal(t, "STYLIST", p.Role)

	again, err := svc.Login(ctx, "anna", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, user.RegisterInput{Login: "x", Password: "p", Role: "ADMIN"})
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	_, err = svc.Register(ctx, user.RegisterInput{Login: "x", Password: "p", Role: user.RoleClient})
	require.NoError(t, err)
	_, err = svc.Register(ctx, user.RegisterInput{Login: "x", Password: "q", Role: user.RoleClient})
	assert.ErrorIs(t, err, user.ErrLoginTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, user.RegisterInput{Login: "bob", Password: "right", Role: user.RoleClient})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "right")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestListMasters(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Register(ctx, user.RegisterInput{Login: "m", Password: "p", Role: user.RoleBrowist})
	require.NoError(t, err)
	_, err = svc.Register(ctx, user.RegisterInput{Login: "c", Password: "p", Role: user.RoleClient})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = store.CreateService(ctx, catalog.Service{Title: "Brows", DurationQuanta: 1, Price: 5, MasterID: m.User.ID})
		require.NoError(t, err)
	}

	masters, err := svc.ListMasters(ctx)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, user.RoleBrowist, masters[0].Role)
	assert.Equal(t, 2, masters[0].ServicesCount)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRoleIsMaster(t *testing.T) {
	assert.False(t, user.RoleClient.IsMaster())
	assert.True(t, user.RoleVizazhist.IsMaster())
	assert.False(t, user.Role("ADMIN").IsMaster())
}
