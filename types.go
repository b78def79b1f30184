package goRecover

import (
	"context"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/internal/flows"
)

// API is the server contract the flows depend on. *api.Client implements it
// over HTTP; tests and embedders may supply their own.
type API interface {
	RequestReset(ctx context.Context, email string) (*api.Response, error)
	VerifyToken(ctx context.Context, token string) (*api.Response, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*api.Response, error)
}

type (
	RequestState  = flows.RequestState
	RequestStatus = flows.RequestStatus
	ResetState    = flows.ResetState
	ResetStatus   = flows.ResetStatus
)

const (
	RequestIdle          = flows.RequestIdle
	RequestSubmitting    = flows.RequestSubmitting
	RequestAwaitingEmail = flows.RequestAwaitingEmail
	RequestFailed        = flows.RequestFailed

	ResetVerifying  = flows.ResetVerifying
	ResetReady      = flows.ResetReady
	ResetSubmitting = flows.ResetSubmitting
	ResetInvalid    = flows.ResetInvalid
	ResetCompleted  = flows.ResetCompleted
)
