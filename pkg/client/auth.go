package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/calder-io/resilient-client/pkg/scheduler"
	"github.com/calder-io/resilient-client/pkg/session"
)

// authPayload is the wire shape of the credential endpoints.
type authPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         session.User `json:"user"`
}

func (p *authPayload) session() *session.Session {
	return &session.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(p.ExpiresIn) * time.Second),
		User:         p.User,
	}
}

// authAPI implements session.API on top of the client's transport. Calls
// go through the scheduler at high priority so a refresh is never starved
// by queued data requests.
type authAPI struct {
	client *Client
}

func (a *authAPI) Login(ctx context.Context, creds session.Credentials) (*session.Session, error) {
	return a.exchange(ctx, a.client.config.Auth.LoginPath, creds)
}

func (a *authAPI) Register(ctx context.Context, creds session.Credentials) (*session.Session, error) {
	return a.exchange(ctx, a.client.config.Auth.RegisterPath, creds)
}

func (a *authAPI) Refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	return a.exchange(ctx, a.client.config.Auth.RefreshPath, struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken})
}

func (a *authAPI) Logout(ctx context.Context, accessToken string) error {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+accessToken)
	_, err := a.call(ctx, a.client.config.Auth.LogoutPath, headers, nil)
	return err
}

// exchange posts a JSON body to a credential endpoint and decodes the
// returned session.
func (a *authAPI) exchange(ctx context.Context, path string, body any) (*session.Session, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	data, err := a.call(ctx, path, nil, encoded)
	if err != nil {
		return nil, err
	}

	var payload authPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ParseError{Err: err}
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("credential response missing access token")
	}
	return payload.session(), nil
}

// call dispatches one credential POST on the scheduler. Tokens are not
// attached here; the session manager supplies them where needed.
func (a *authAPI) call(ctx context.Context, path string, headers http.Header, body []byte) ([]byte, error) {
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Content-Type", "application/json")

	result := <-a.client.scheduler.Enqueue(ctx, scheduler.Task{
		Priority: scheduler.PriorityHigh,
		Operation: func(taskCtx context.Context) ([]byte, error) {
			resp, err := a.client.transport.Call(taskCtx, Request{
				Method:  http.MethodPost,
				Path:    path,
				Headers: headers,
				Body:    body,
			})
			if err != nil {
				return nil, err
			}
			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				return nil, &AuthError{Kind: AuthUnauthorized}
			case resp.StatusCode >= 400:
				return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
			}
			return resp.Body, nil
		},
	})
	return result.Data, result.Err
}
