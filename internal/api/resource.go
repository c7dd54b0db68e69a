package api

import (
	"context"
	"net/http"
)

// Resource is the CRUD endpoint set for one entity. T is the record type and P
// the create/update payload.
type Resource[T, P any] struct {
	c      *Client
	entity string
	path   string

	// Overrides for APIs that do not follow /{entity}/{id} for every verb.
	createPath func() string
	updatePath func(id string) string
	encode     func(P) (any, error)
	unwrap     []string
}

func newResource[T, P any](c *Client, entity, path string) *Resource[T, P] {
	return &Resource[T, P]{c: c, entity: entity, path: path}
}

// Entity returns the entity name used in metrics and logs.
func (r *Resource[T, P]) Entity() string {
	return r.entity
}

// List fetches the whole collection.
func (r *Resource[T, P]) List(ctx context.Context, token string) ([]T, error) {
	return r.listAt(ctx, "list", r.path, nil, token)
}

func (r *Resource[T, P]) listAt(ctx context.Context, op, path string, query map[string][]string, token string) ([]T, error) {
	var out []T
	err := r.c.do(ctx, call{
		entity: r.entity,
		op:     op,
		method: http.MethodGet,
		path:   path,
		query:  query,
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches one record.
func (r *Resource[T, P]) Get(ctx context.Context, id, token string) (T, error) {
	var out T
	err := r.c.do(ctx, call{
		entity: r.entity,
		op:     "get",
		method: http.MethodGet,
		path:   r.path + "/" + escape(id),
		token:  token,
		unwrap: r.unwrap,
	}, &out)
	return out, err
}

// Create posts payload and returns the record the server stored.
func (r *Resource[T, P]) Create(ctx context.Context, payload P, token string) (T, error) {
	path := r.path
	if r.createPath != nil {
		path = r.createPath()
	}
	return r.send(ctx, "create", http.MethodPost, path, payload, token)
}

// Update puts payload to the record and returns the server's version.
func (r *Resource[T, P]) Update(ctx context.Context, id string, payload P, token string) (T, error) {
	path := r.path + "/" + escape(id)
	if r.updatePath != nil {
		path = r.updatePath(id)
	}
	return r.send(ctx, "update", http.MethodPut, path, payload, token)
}

// Delete removes the record.
func (r *Resource[T, P]) Delete(ctx context.Context, id, token string) error {
	return r.c.do(ctx, call{
		entity: r.entity,
		op:     "delete",
		method: http.MethodDelete,
		path:   r.path + "/" + escape(id),
		token:  token,
	}, nil)
}

func (r *Resource[T, P]) send(ctx context.Context, op, method, path string, payload P, token string) (T, error) {
	var out T
	var body any = payload
	if r.encode != nil {
		encoded, err := r.encode(payload)
		if err != nil {
			return out, &Error{Kind: ErrValidation, Method: method, Path: path, Message: err.Error(), Err: err}
		}
		body = encoded
	}
	err := r.c.do(ctx, call{
		entity: r.entity,
		op:     op,
		method: method,
		path:   path,
		token:  token,
		body:   body,
		unwrap: r.unwrap,
	}, &out)
	return out, err
}
