package adapter

import "context"

// CallerAuthorizer derives a caller identity from the credential presented
// on the admission request. The bridge itself only needs the resolved id;
// payment gating and signature checks live behind this interface.
type CallerAuthorizer interface {
	Authorize(ctx context.Context, credential string) (callerID string, err error)
}
