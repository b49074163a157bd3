// Package apiclient is the typed HTTP client for the storefront API.
//
// Every call returns either its typed result or an *apperror.ClientError
// whose kind tells the caller whether the request was sent at all.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"golang.org/x/sync/singleflight"
)

// TokenSource supplies the bearer credential issued by the identity provider.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	flight  singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", apperror.AuthenticationRequired("no credential configured")
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return "", &apperror.ClientError{Kind: apperror.ErrAuthenticationRequired, Err: err}
	}
	if tok == "" {
		return "", apperror.AuthenticationRequired("no credential available")
	}
	return tok, nil
}

// do performs one request. authenticated requests fail before touching the
// network when no credential is available.
func (c *Client) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var bearer string
	if authenticated {
		tok, err := c.token(ctx)
		if err != nil {
			return err
		}
		bearer = tok
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.ValidationFailure(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.ValidationFailure(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.NetworkFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.NetworkFailure(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env dto.Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return rejection(resp.StatusCode, "", http.StatusText(resp.StatusCode))
		}
		return apperror.NetworkFailure(fmt.Errorf("decode response: %w", err))
	}

	if !env.Success || resp.StatusCode >= http.StatusMultipleChoices {
		var code, msg string
		if env.Error != nil {
			code, msg = env.Error.Code, env.Error.Message
		}
		return rejection(resp.StatusCode, code, msg)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperror.NetworkFailure(fmt.Errorf("decode %s %s data: %w", method, path, err))
	}
	return nil
}

func rejection(status int, code, msg string) error {
	if status == http.StatusUnauthorized {
		return &apperror.ClientError{
			Kind:    apperror.ErrAuthenticationRequired,
			Status:  status,
			Code:    code,
			Message: msg,
			Err:     apperror.ErrNotAuthorized,
		}
	}
	return apperror.ServerRejected(status, code, msg)
}

const (
	cartPath    = "/api/cart"
	accountPath = "/api/rewards/account"
)

// shared coalesces concurrent identical reads into one request. The request
// does not run under any single caller's ctx; each caller stops waiting when
// its own ctx ends.
func shared[T any](c *Client, ctx context.Context, path string) (*T, error) {
	ch := c.flight.DoChan(path, func() (any, error) {
		var out T
		if err := c.do(context.WithoutCancel(ctx), http.MethodGet, path, nil, true, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		cp := *(res.Val.(*T))
		return &cp, nil
	case <-ctx.Done():
		return nil, apperror.NetworkFailure(ctx.Err())
	}
}

// invalidate makes the next read of path start a new request instead of
// joining one that began before a mutation.
func (c *Client) invalidate(path string) {
	c.flight.Forget(path)
}
