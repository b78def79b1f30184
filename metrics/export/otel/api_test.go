package otel

import (
	"context"

	"github.com/MrEthical07/goRecover/api"
)

type nopAPI struct{}

func (nopAPI) RequestReset(context.Context, string) (*api.Response, error) {
	return &api.Response{}, nil
}

func (nopAPI) VerifyToken(context.Context, string) (*api.Response, error) {
	return &api.Response{}, nil
}

func (nopAPI) ResetPassword(context.Context, string, string) (*api.Response, error) {
	return &api.Response{}, nil
}
