package api

import (
	"context"

	"github.com/rpggio/taskdesk/internal/collection"
)

// TokenSource supplies the bearer token at call time. *session.Store satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// ListFunc fetches a collection with the given token.
type ListFunc[T any] func(ctx context.Context, token string) ([]T, error)

type boundSource[T, P any] struct {
	res    *Resource[T, P]
	tokens TokenSource
	list   ListFunc[T]
}

// Bind adapts res into a collection source that reads the token on each call.
func Bind[T, P any](res *Resource[T, P], tokens TokenSource) collection.Source[T, P] {
	return &boundSource[T, P]{res: res, tokens: tokens, list: res.List}
}

// BindList is Bind with a different list endpoint, such as a filtered read.
func BindList[T, P any](res *Resource[T, P], tokens TokenSource, list ListFunc[T]) collection.Source[T, P] {
	return &boundSource[T, P]{res: res, tokens: tokens, list: list}
}

func (b *boundSource[T, P]) token() (string, error) {
	token, ok := b.tokens.Token()
	if !ok {
		return "", &Error{Kind: ErrAuth, Message: "not signed in", Path: b.res.path}
	}
	return token, nil
}

func (b *boundSource[T, P]) List(ctx context.Context) ([]T, error) {
	token, err := b.token()
	if err != nil {
		return nil, err
	}
	return b.list(ctx, token)
}

func (b *boundSource[T, P]) Create(ctx context.Context, payload P) (T, error) {
	token, err := b.token()
	if err != nil {
		var zero T
		return zero, err
	}
	return b.res.Create(ctx, payload, token)
}

func (b *boundSource[T, P]) Update(ctx context.Context, id string, payload P) (T, error) {
	token, err := b.token()
	if err != nil {
		var zero T
		return zero, err
	}
	return b.res.Update(ctx, id, payload, token)
}

func (b *boundSource[T, P]) Delete(ctx context.Context, id string) error {
	token, err := b.token()
	if err != nil {
		return err
	}
	return b.res.Delete(ctx, id, token)
}
