package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/workpulse/agent/internal/domain/session"
)

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) GetActive(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

// PeriodRepository is a mock for session.PeriodRepository.
type PeriodRepository struct {
	mock.Mock
}

func (m *PeriodRepository) Create(ctx context.Context, period *session.ActivityPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

// LabelRepository is a mock for session.LabelRepository.
type LabelRepository struct {
	mock.Mock
}

func (m *LabelRepository) Touch(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

// SettingsStore is a mock for device.SettingsStore.
type SettingsStore struct {
	mock.Mock
}

func (m *SettingsStore) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *SettingsStore) PutSetting(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
