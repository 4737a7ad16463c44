package method

import (
	"context"
	"fmt"
	"strings"

	"betledger/internal/bet"
)

// Method is a named wagering strategy that bets are classified under.
type Method struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Body is the create/update request payload.
type Body struct {
	Name string `json:"name"`
}

// NormalizeName trims whitespace and rejects empty names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &bet.ValidationError{Field: "name", Reason: "is required"}
	}
	return name, nil
}

// Backend is whatever owns method storage: the REST gateway for clients, the
// database for the server.
type Backend interface {
	ListMethods(ctx context.Context) ([]Method, error)
	CreateMethod(ctx context.Context, name string) (Method, error)
	UpdateMethod(ctx context.Context, id int64, name string) (Method, error)
	DeleteMethod(ctx context.Context, id int64) error
}

// Registry validates names before delegating to a Backend. Errors from the
// backend are returned unchanged so callers can surface them.
type Registry struct {
	backend Backend
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend}
}

func (r *Registry) List(ctx context.Context) ([]Method, error) {
	return r.backend.ListMethods(ctx)
}

func (r *Registry) Create(ctx context.Context, name string) (Method, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Method{}, err
	}
	return r.backend.CreateMethod(ctx, name)
}

func (r *Registry) Update(ctx context.Context, id int64, name string) (Method, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Method{}, err
	}
	if id <= 0 {
		return Method{}, &bet.ValidationError{Field: "id", Reason: fmt.Sprintf("%d is not a method id", id)}
	}
	return r.backend.UpdateMethod(ctx, id, name)
}

func (r *Registry) Delete(ctx context.Context, id int64) error {
	return r.backend.DeleteMethod(ctx, id)
}

// NameIndex maps method ids to names for display.
func NameIndex(methods []Method) map[int64]string {
	idx := make(map[int64]string, len(methods))
	for _, m := range methods {
		idx[m.ID] = m.Name
	}
	return idx
}
