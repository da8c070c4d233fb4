// Package backend selects and constructs the configured task store.
package backend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mole/internal/backend/googletasks"
	"mole/internal/backend/todoist"
	"mole/internal/config"
	"mole/internal/remote"
	"mole/internal/secrets"
)

// New creates the remote named by cfg.Settings.Backend.
// Credentials are resolved here, once; a missing or malformed credential
// is a setup error.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, store secrets.Store) (remote.Remote, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Settings.Backend {
	case config.BackendTodoist:
		token, err := TodoistToken(ctx, cfg.Settings.Todoist, store)
		if err != nil {
			return nil, err
		}
		c, err := todoist.New(ctx, token, todoist.WithLogger(log.Named("todoist")))
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendGoogleTasks:
		c, err := googletasks.New(ctx, cfg, log.Named("googletasks"))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Settings.Backend)
	}
}

// Secrets returns the default secret lookup: MOLE_* environment
// variables first, then 1Password.
func Secrets(cfg *config.Config, log *zap.Logger) secrets.Store {
	return secrets.Chain{
		secrets.Env{Prefix: config.EnvPrefix},
		secrets.NewOnePassword(cfg.Settings.Secrets, log),
	}
}

// TodoistToken returns the configured token, or looks it up in store.
func TodoistToken(ctx context.Context, s config.TodoistSettings, store secrets.Store) (string, error) {
	token := s.Token
	if token == "" {
		if store == nil {
			return "", fmt.Errorf("%w: no todoist token configured", secrets.ErrSecretUnavailable)
		}
		ref := secrets.Ref{Item: s.Secret.Item, Field: s.Secret.Field, Vault: s.Secret.Vault}
		v, err := store.Get(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("todoist token: %w", err)
		}
		token = v
	}
	if err := todoist.ValidateToken(token); err != nil {
		return "", err
	}
	return token, nil
}

// IsCredentialError reports whether err comes from a missing or malformed credential.
func IsCredentialError(err error) bool {
	return errors.Is(err, secrets.ErrSecretUnavailable) ||
		errors.Is(err, todoist.ErrInvalidToken) ||
		errors.Is(err, googletasks.ErrNoOAuthClient) ||
		errors.Is(err, googletasks.ErrNotLoggedIn)
}
