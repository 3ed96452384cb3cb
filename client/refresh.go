package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/twy/backoffice/internal/observability"
	"github.com/twy/backoffice/store"
	"go.uber.org/zap"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken"`
}

// Refresh exchanges the stored refresh token for a new access token and
// stores the access and id tokens it gets back. It reports false, leaving
// the stored tokens as they were, when there is no refresh token or the
// exchange fails for any reason.
func (c *Client) Refresh(ctx context.Context) (string, bool) {
	if !c.singleFlight {
		return c.refresh(ctx)
	}

	// the shared call outlives any single caller's cancellation, but each
	// caller stops waiting once its own context is done
	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		token, _ := c.refresh(shared)
		return token, nil
	})
	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}

func (c *Client) refresh(ctx context.Context) (string, bool) {
	refreshToken, ok := c.tokens.Get(ctx, store.KindRefresh)
	if !ok {
		c.metrics.RecordRefresh(observability.RefreshSkipped)
		return "", false
	}

	rc := NewRequest(http.MethodPost, c.refreshPath, refreshRequest{RefreshToken: refreshToken}, SkipAuth())
	if err := c.assignRequestID(ctx, rc); err != nil {
		return "", false
	}

	// sent outside the middleware chain so a rejected refresh does not
	// itself end the session
	resp := c.send(ctx, rc)
	c.metrics.RecordRequest(rc.Method, resp.StatusCode)
	if resp.Err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.refreshFailed(rc, resp.StatusCode, resp.Err)
		return "", false
	}

	var out refreshResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.AccessToken == "" {
		c.refreshFailed(rc, resp.StatusCode, err)
		return "", false
	}

	if err := c.tokens.Set(ctx, store.KindAccess, out.AccessToken); err != nil {
		c.logger.Warn("failed to store refreshed access token", zap.Error(err))
	}
	if out.IDToken != "" {
		if err := c.tokens.Set(ctx, store.KindID, out.IDToken); err != nil {
			c.logger.Warn("failed to store refreshed id token", zap.Error(err))
		}
	}

	c.metrics.RecordRefresh(observability.RefreshSuccess)
	c.logger.Debug("access token refreshed", zap.String("request_id", rc.RequestID))
	return out.AccessToken, true
}

func (c *Client) refreshFailed(rc *RequestContext, status int, err error) {
	c.metrics.RecordRefresh(observability.RefreshFailure)
	fields := []zap.Field{
		zap.String("request_id", rc.RequestID),
		zap.Int("status", status),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.logger.Warn("token refresh failed", fields...)
}
