package task_test

import (
	"context"
	"errors"

	"github.com/rpggio/taskdesk/internal/domain/task"
)

type staticSource []task.Task

func (s staticSource) List(context.Context) ([]task.Task, error) {
	return s, nil
}

func (staticSource) Create(context.Context, task.Payload) (task.Task, error) {
	return task.Task{}, errors.ErrUnsupported
}

func (staticSource) Update(context.Context, string, task.Payload) (task.Task, error) {
	return task.Task{}, errors.ErrUnsupported
}

func (staticSource) Delete(context.Context, string) error {
	return errors.ErrUnsupported
}

func ptr[V any](v V) *V {
	return &v
}
