package mocks

import (
	"context"

	"github.com/rpggio/taskdesk/internal/domain/activity"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// Source is a mock for collection.Source.
type Source[T, P any] struct {
	mock.Mock
}

func (m *Source[T, P]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]T); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Source[T, P]) Create(ctx context.Context, payload P) (T, error) {
	args := m.Called(ctx, payload)
	if rec, ok := args.Get(0).(T); ok {
		return rec, args.Error(1)
	}
	var zero T
	return zero, args.Error(1)
}

func (m *Source[T, P]) Update(ctx context.Context, id string, payload P) (T, error) {
	args := m.Called(ctx, id, payload)
	if rec, ok := args.Get(0).(T); ok {
		return rec, args.Error(1)
	}
	var zero T
	return zero, args.Error(1)
}

func (m *Source[T, P]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// KeyValueStore is a mock for repository.KeyValueStore.
type KeyValueStore struct {
	mock.Mock
}

func (m *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *KeyValueStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *KeyValueStore) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// Authenticator is a mock for session.Authenticator.
type Authenticator struct {
	mock.Mock
}

func (m *Authenticator) Login(ctx context.Context, email, password string) (session.Grant, error) {
	args := m.Called(ctx, email, password)
	if grant, ok := args.Get(0).(session.Grant); ok {
		return grant, args.Error(1)
	}
	return session.Grant{}, args.Error(1)
}

func (m *Authenticator) Register(ctx context.Context, name, email, password string) (session.Grant, error) {
	args := m.Called(ctx, name, email, password)
	if grant, ok := args.Get(0).(session.Grant); ok {
		return grant, args.Error(1)
	}
	return session.Grant{}, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
