package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/device"
	"github.com/workpulse/agent/internal/repository/mocks"
)

func TestIdentityReturnsStoredID(t *testing.T) {
	store := new(mocks.SettingsStore)
	store.On("GetSetting", mock.Anything, "device_id").Return("existing-id", nil)

	id, err := device.Identity(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, "existing-id", id)
	store.AssertNotCalled(t, "PutSetting", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentityCreatesAndPersistsOnFirstUse(t *testing.T) {
	store := new(mocks.SettingsStore)
	store.On("GetSetting", mock.Anything, "device_id").Return("", nil)
	store.On("PutSetting", mock.Anything, "device_id", mock.AnythingOfType("string")).Return(nil)

	id, err := device.Identity(context.Background(), store)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	store.AssertExpectations(t)
}

func TestIdentityPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk gone")

	store := new(mocks.SettingsStore)
	store.On("GetSetting", mock.Anything, "device_id").Return("", boom)

	_, err := device.Identity(context.Background(), store)
	require.ErrorIs(t, err, boom)

	store = new(mocks.SettingsStore)
	store.On("GetSetting", mock.Anything, "device_id").Return("", nil)
	store.On("PutSetting", mock.Anything, "device_id", mock.AnythingOfType("string")).Return(boom)

	_, err = device.Identity(context.Background(), store)
	require.ErrorIs(t, err, boom)
}
