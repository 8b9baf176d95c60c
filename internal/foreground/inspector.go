package foreground

import "context"

// WindowInfo describes the currently focused window.
type WindowInfo struct {
	ApplicationName string
	WindowTitle     string
}

// Inspector reports the foreground window. Implementations wrap a platform
// API; failures are mapped to an empty WindowInfo by callers, never an error
// that stops capture.
type Inspector interface {
	ActiveWindow(ctx context.Context) (WindowInfo, error)
}

// NoopInspector is used when no platform inspector is wired. It reports an
// empty window, which classifies as unknown.
type NoopInspector struct{}

func (NoopInspector) ActiveWindow(ctx context.Context) (WindowInfo, error) {
	return WindowInfo{}, nil
}

// StaticInspector returns a fixed window. Used by tests and by platform glue
// that polls the OS elsewhere and caches the latest value.
type StaticInspector struct {
	Info WindowInfo
}

func (s StaticInspector) ActiveWindow(ctx context.Context) (WindowInfo, error) {
	return s.Info, nil
}
