package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/twy/backoffice/cognito"
	"github.com/twy/backoffice/store"
	"go.uber.org/zap"
)

func (c *Client) assignRequestID(_ context.Context, rc *RequestContext) error {
	if id := rc.Header.Get(RequestIDHeader); id != "" {
		rc.RequestID = id
		return nil
	}
	rc.RequestID = uuid.New().String()
	rc.Header.Set(RequestIDHeader, rc.RequestID)
	return nil
}

// authorize attaches the access token, refreshing it first when expired. A
// request with no usable token goes out bare and the server decides.
func (c *Client) authorize(ctx context.Context, rc *RequestContext) error {
	if rc.SkipAuth {
		rc.Header.Del("Authorization")
		return nil
	}

	token, ok := c.tokens.Get(ctx, store.KindAccess)
	if ok && c.expired(token) {
		c.logger.Debug("access token expired, refreshing",
			zap.String("request_id", rc.RequestID))
		token, ok = c.Refresh(ctx)
	}
	if ok {
		rc.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) expired(token string) bool {
	return cognito.IsExpiredAt(token, c.now().Add(c.leeway))
}

// IsExpired reports whether token counts as expired for this client, which
// includes the configured refresh leeway
func (c *Client) IsExpired(token string) bool {
	return c.expired(token)
}

func (c *Client) recordMetrics(_ context.Context, rc *RequestContext, resp *Response) {
	c.metrics.RecordRequest(rc.Method, resp.StatusCode)

	fields := []zap.Field{
		zap.String("request_id", rc.RequestID),
		zap.String("method", rc.Method),
		zap.String("path", rc.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	}
	if resp.Err != nil {
		c.logger.Warn("request failed", append(fields, zap.Error(resp.Err))...)
		return
	}
	c.logger.Debug("request completed", fields...)
}

// handleUnauthorized tears the session down on every 401, whichever call
// received it. Clearing and navigating are both idempotent.
func (c *Client) handleUnauthorized(ctx context.Context, rc *RequestContext, resp *Response) {
	if resp.StatusCode != http.StatusUnauthorized {
		return
	}
	c.tokens.Clear(ctx)
	c.metrics.RecordForcedLogout()
	c.logger.Info("session rejected, redirecting to login",
		zap.String("request_id", rc.RequestID),
		zap.String("path", rc.Path))
	if c.navigator != nil {
		c.navigator.Navigate(c.loginPath)
	}
}
