// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewRouterProxy builds the router role's handler: a dumb reverse proxy in
// front of a broker, the one tier spec.md §6 documents as existing purely
// to front the broker with a stable address rather than run any query
// logic itself. net/http/httputil.ReverseProxy is used directly here
// (see DESIGN.md's stdlib-justification entry) since no pack dependency
// offers an HTTP reverse proxy and the role has no logic beyond forwarding.
func NewRouterProxy(brokerAddr string) (http.Handler, error) {
	target, err := url.Parse(brokerAddr)
	if err != nil {
		return nil, err
	}
	return httputil.NewSingleHostReverseProxy(target), nil
}
