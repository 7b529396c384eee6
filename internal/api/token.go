package api

import "context"

// TokenSource supplies the bearer token for each request. The token is
// opaque to the client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token. An empty
// StaticToken sends no Authorization header.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
