// Package capability holds the best-effort auxiliary integrations that
// bootstrap warms up when a session token is present: push-notification
// registration and the ad-config fetch. Both are non-gating; the core logs
// and ignores their failures.
package capability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// PushRegistrar registers the device token with the backend's notification
// gateway.
type PushRegistrar struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func NewPushRegistrar(baseURL string, logger zerolog.Logger) *PushRegistrar {
	return &PushRegistrar{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

func (p *PushRegistrar) Initialize(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/notifications/register", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push registration: unexpected status %d", resp.StatusCode)
	}
	p.logger.Debug().Msg("push registration completed")
	return nil
}

// AdWarmup fetches the ad configuration so the first ad request after the
// main UI mounts does not pay the config round trip.
type AdWarmup struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func NewAdWarmup(baseURL string, logger zerolog.Logger) *AdWarmup {
	return &AdWarmup{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

func (a *AdWarmup) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/ads/config", nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ad warmup: unexpected status %d", resp.StatusCode)
	}
	a.logger.Debug().Msg("ad config warmed")
	return nil
}

var _ ports.PushNotifier = (*PushRegistrar)(nil)
var _ ports.AdProvider = (*AdWarmup)(nil)
