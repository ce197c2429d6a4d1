// Package api exposes the backend feature surface: authentication,
// conversations, knowledge bases and documents. Every call goes through
// a core.Client, which owns the session token, timeouts and error
// classification.
package api

import "github.com/ragline/ragline/core"

// Service groups the feature endpoints behind one client.
type Service struct {
	c *core.Client
}

// New wraps an existing client.
func New(c *core.Client) *Service {
	return &Service{c: c}
}

// Client returns the underlying client, for callers that need raw
// requests or the token store.
func (s *Service) Client() *core.Client {
	return s.c
}
