// Package services provides typed access to the back-office API resources
// over the authenticated client.
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap"
)

// Services groups the resource services
type Services struct {
	Users    *Users
	Branches *Branches
	Loads    *Loads
	Account  *Account
}

// New creates all resource services over c
func New(c *client.Client, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Users:    &Users{client: c, logger: logger.Named("users")},
		Branches: &Branches{client: c, logger: logger.Named("branches")},
		Loads:    &Loads{client: c, logger: logger.Named("loads")},
		Account:  &Account{client: c, logger: logger.Named("account")},
	}
}

// call sends rc and unwraps the response envelope
func call[T any](ctx context.Context, c *client.Client, rc *client.RequestContext) (T, error) {
	env, err := client.Do[models.APIResponse[T]](ctx, c, rc)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// send validates body before building the request
func send[T any](ctx context.Context, c *client.Client, method, path string, body any, opts ...client.Option) (T, error) {
	if body != nil {
		if err := utils.ValidateStruct(body); err != nil {
			var zero T
			return zero, err
		}
	}
	return call[T](ctx, c, client.NewRequest(method, path, body, opts...))
}

func list[T any](ctx context.Context, c *client.Client, path string, params models.ListParams) (T, error) {
	if err := utils.ValidateStruct(&params); err != nil {
		var zero T
		return zero, err
	}
	return call[T](ctx, c, client.NewRequest(http.MethodGet, path, nil, client.WithQuery(params.Values())))
}

func resourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
