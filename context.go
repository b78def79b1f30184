package goRecover

import "context"

type flowContextKey struct{}

type flowIdentity struct {
	id   string
	flow string
}

// withFlow tags ctx with the flow that issued a step, so shared hooks can
// attribute metrics and events to a flow instance.
func withFlow(ctx context.Context, id, flow string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, flowContextKey{}, flowIdentity{id: id, flow: flow})
}

func flowFromContext(ctx context.Context) (id, flow string) {
	if ctx == nil {
		return "", ""
	}

	ident, _ := ctx.Value(flowContextKey{}).(flowIdentity)
	return ident.id, ident.flow
}
