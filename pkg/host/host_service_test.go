package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHost(t *testing.T) {
	// given
	service := NewHostService(NewStubHostRepo())

	// when
	created, err := service.CreateHost(context.Background(), Host{
		Uid:         "host-1",
		DisplayName: "A. Host",
		Email:       "host@example.com",
	})

	// then
	require.NoError(t, err)
	assert.NotZero(t, created.Id)
	assert.Equal(t, "host-1", created.Uid)
}

func TestGetCurrentHost(t *testing.T) {
	// given a host resolved onto the context, the way the middleware does it
	service := NewHostService(NewStubHostRepo())
	created, err := service.CreateHost(context.Background(), Host{Uid: "host-1", DisplayName: "A. Host"})
	require.NoError(t, err)
	ctx := WithHost(context.Background(), created)

	// when
	current, err := service.GetCurrentHost(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, created.Id, current.Id)
	assert.Equal(t, "A. Host", current.DisplayName)
}

func TestGetCurrentHost_NoHostOnContext(t *testing.T) {
	service := NewHostService(NewStubHostRepo())

	_, err := service.GetCurrentHost(context.Background())

	assert.ErrorIs(t, err, ErrNoHost)
}

func TestGetHostByUid(t *testing.T) {
	service := NewHostService(NewStubHostRepo())
	created, err := service.CreateHost(context.Background(), Host{Uid: "host-1"})
	require.NoError(t, err)

	found, err := service.GetHostByUid(context.Background(), "host-1")

	require.NoError(t, err)
	assert.Equal(t, created.Id, found.Id)

	_, err = service.GetHostByUid(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrHostNotFound)
}

func TestUpdateHost(t *testing.T) {
	// given
	service := NewHostService(NewStubHostRepo())
	created, err := service.CreateHost(context.Background(), Host{Uid: "host-1", DisplayName: "A. Host"})
	require.NoError(t, err)
	ctx := WithHost(context.Background(), created)

	// when the profile changes
	updated, err := service.UpdateHost(ctx, Host{
		Uid:         "host-1",
		DisplayName: "A. Renamed Host",
		Phone:       "+1 555 0100",
	})

	// then the change lands on the current host's record
	require.NoError(t, err)
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "A. Renamed Host", updated.DisplayName)

	current, err := service.GetCurrentHost(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A. Renamed Host", current.DisplayName)
}
