package gallery

import "context"

type viewerKey struct{}

// ContextWithViewer attaches the signed-in viewer to ctx.
func ContextWithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext returns the viewer attached by ContextWithViewer. The
// zero Viewer means nobody is signed in.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
