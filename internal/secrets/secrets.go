// Package secrets resolves credentials from 1Password or the environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretUnavailable is returned when a secret can't be resolved.
var ErrSecretUnavailable = errors.New("secret unavailable")

// Ref names one field of a stored item.
type Ref struct {
	Item  string
	Field string
	Vault string // optional
}

func (r Ref) String() string {
	if r.Vault != "" {
		return r.Vault + "/" + r.Item + "/" + r.Field
	}
	return r.Item + "/" + r.Field
}

// Store looks up secrets.
type Store interface {
	Get(ctx context.Context, ref Ref) (string, error)
}

// Env reads secrets from environment variables named
// <PREFIX>_<ITEM>_<FIELD>, upper-cased with non-alphanumerics as underscores.
// The vault is ignored.
type Env struct {
	Prefix string
	Lookup func(string) (string, bool) // defaults to os.LookupEnv
}

// Var returns the variable name consulted for ref.
func (e Env) Var(ref Ref) string {
	parts := []string{ref.Item, ref.Field}
	if e.Prefix != "" {
		parts = append([]string{e.Prefix}, parts...)
	}
	return envName(strings.Join(parts, "_"))
}

// Get implements Store.
func (e Env) Get(ctx context.Context, ref Ref) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := e.Var(ref)
	if v, ok := lookup(name); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s is not set", ErrSecretUnavailable, name)
}

func envName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Chain tries each store in order and returns the first value found.
type Chain []Store

// Get implements Store.
func (c Chain) Get(ctx context.Context, ref Ref) (string, error) {
	var errs []error
	for _, s := range c {
		v, err := s.Get(ctx, ref)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no secret stores configured", ErrSecretUnavailable)
	}
	return "", errors.Join(errs...)
}
