// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// Client scatters query requests to peer nodes over HTTP, re-sending the
// whole request (rebuilt from the request body bytes) on transport errors,
// and bounding concurrent requests per host via connPool.
type Client struct {
	http    *http.Client
	pool    *connPool
	retries uint64
}

// NewClient builds a Client with the given per-request timeout and a
// bounded number of concurrent requests per host.
func NewClient(timeout time.Duration, perHostConns int) *Client {
	return NewClientWithRetries(timeout, perHostConns, 3)
}

// NewClientWithRetries is NewClient with an explicit dial-retry budget,
// for deployments that want to tune it via BrokerConfig.DialRetries
// instead of accepting the default.
func NewClientWithRetries(timeout time.Duration, perHostConns int, retries uint64) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		pool:    newConnPool(perHostConns),
		retries: retries,
	}
}

// Scatter POSTs requestBody to node+path and returns the raw response body
// for the caller to stream-decode; the caller must Close it. Connection
// errors are retried with exponential backoff; HTTP-level error statuses
// are not retried since the peer already produced a definitive response.
func (c *Client) Scatter(ctx context.Context, node NodeLocation, path string, requestBody []byte) (io.ReadCloser, error) {
	u, err := url.JoinPath(node.BaseURL, path)
	if err != nil {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "invalid node base URL %q: %s", node.BaseURL, err)
	}
	release := c.pool.acquireSlot(node.BaseURL)
	defer release()

	var resp *http.Response
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(requestBody))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		r, err := c.http.Do(req)
		if err != nil {
			return err // transient: retry
		}
		resp = r
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, chronoserr.Wrap(chronoserr.Remote, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, chronoserr.New(chronoserr.Remote, "node %s returned %d: %s", node.ID, resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// Cancel tells node to abandon an in-flight query, per spec.md's
// cancellation-on-close: a DELETE to the same query's cancel endpoint.
func (c *Client) Cancel(node NodeLocation, path string) error {
	u, err := url.JoinPath(node.BaseURL, path)
	if err != nil {
		return chronoserr.New(chronoserr.IllegalArgument, "invalid node base URL %q: %s", node.BaseURL, err)
	}
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return chronoserr.Wrap(chronoserr.Internal, err)
	}
	// best-effort: a short-lived client independent of the cancelled query
	// context, since the query's own context is already done by the time
	// this fires.
	cl := &http.Client{Timeout: 2 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		return chronoserr.Wrap(chronoserr.Remote, err)
	}
	defer resp.Body.Close()
	return nil
}
