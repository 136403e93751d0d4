// Package context carries per-request metadata from the API middleware down
// to logging, error rendering and outbound upstream calls.
package context

import "context"

type requestKey struct{}

// Request is the metadata recorded for one API call
type Request struct {
	ID       string
	Method   string
	Path     string
	RemoteIP string
}

// WithRequest stores req on ctx
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// FromContext returns the stored request, if any
func FromContext(ctx context.Context) (Request, bool) {
	req, ok := ctx.Value(requestKey{}).(Request)
	return req, ok
}

func GetRequestID(ctx context.Context) string {
	req, _ := FromContext(ctx)
	return req.ID
}

func GetMethod(ctx context.Context) string {
	req, _ := FromContext(ctx)
	return req.Method
}

func GetPath(ctx context.Context) string {
	req, _ := FromContext(ctx)
	return req.Path
}

func GetRemoteIP(ctx context.Context) string {
	req, _ := FromContext(ctx)
	return req.RemoteIP
}
