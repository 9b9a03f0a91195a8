package ports

import "context"

// PushNotifier registers the device for push delivery. Best-effort: bootstrap
// logs and ignores failures.
type PushNotifier interface {
	Initialize(ctx context.Context, token string) error
}

// AdProvider warms up the ad integration. Best-effort: bootstrap logs and
// ignores failures.
type AdProvider interface {
	Initialize(ctx context.Context) error
}
