package secrets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"mole/internal/config"
	"mole/internal/runner"
)

// DefaultTimeout bounds a single op invocation.
const DefaultTimeout = 10 * time.Second

// 1Password item and vault IDs.
var idPattern = regexp.MustCompile(`^[0-9a-z]{26}$`)

// OnePassword reads secrets with the 1Password CLI.
//
// Vaults and items must be given as IDs or as aliases from the
// configured tables. Names are never passed to op: every name lookup
// costs a large number of API requests and quickly exhausts the rate limit.
type OnePassword struct {
	Runner  runner.Runner
	Timeout time.Duration

	// Vaults maps vault aliases to IDs; Items maps a vault ID to
	// item aliases and their IDs. Aliases are matched case-insensitively.
	Vaults map[string]string
	Items  map[string]map[string]string

	Log *zap.Logger
}

// NewOnePassword creates a store using the op binary on PATH.
func NewOnePassword(s config.SecretSettings, log *zap.Logger) *OnePassword {
	if log == nil {
		log = zap.NewNop()
	}
	return &OnePassword{
		Runner:  runner.Exec{},
		Timeout: DefaultTimeout,
		Vaults:  s.Vaults,
		Items:   s.Items,
		Log:     log,
	}
}

// Get implements Store. A lookup that hits the soft timeout is retried
// once; the second failure is returned.
func (o *OnePassword) Get(ctx context.Context, ref Ref) (string, error) {
	args, err := o.args(ref)
	if err != nil {
		return "", err
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := o.Runner.Run(callCtx, "op", args...)
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			v := strings.TrimSpace(string(out))
			if v == "" {
				return "", fmt.Errorf("%w: %s is empty", ErrSecretUnavailable, ref)
			}
			return v, nil
		}
		if timedOut && ctx.Err() == nil && attempt == 1 {
			log.Warn("1password lookup timed out, retrying", zap.String("ref", ref.String()))
			continue
		}
		return "", fmt.Errorf("%w: %s: %v", ErrSecretUnavailable, ref, err)
	}
}

func (o *OnePassword) args(ref Ref) ([]string, error) {
	vault, err := o.vaultID(ref.Vault)
	if err != nil {
		return nil, err
	}
	item, err := o.itemID(vault, ref.Item)
	if err != nil {
		return nil, err
	}
	args := []string{"item", "get", item, "--fields", ref.Field, "--reveal"}
	if vault != "" {
		args = append(args, "--vault", vault)
	}
	return args, nil
}

func (o *OnePassword) vaultID(vault string) (string, error) {
	if vault == "" || idPattern.MatchString(vault) {
		return vault, nil
	}
	if id, ok := o.Vaults[strings.ToLower(vault)]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: unknown vault %q; use its ID or add it to secrets.vaults", ErrSecretUnavailable, vault)
}

func (o *OnePassword) itemID(vault, item string) (string, error) {
	if idPattern.MatchString(item) {
		return item, nil
	}
	key := strings.ToLower(item)
	if vault != "" {
		if id, ok := o.Items[vault][key]; ok {
			return id, nil
		}
	} else {
		var found []string
		for _, items := range o.Items {
			if id, ok := items[key]; ok {
				found = append(found, id)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
		if len(found) > 1 {
			return "", fmt.Errorf("%w: item %q is ambiguous; name its vault", ErrSecretUnavailable, item)
		}
	}
	return "", fmt.Errorf("%w: unknown item %q; use its ID or add it to secrets.items", ErrSecretUnavailable, item)
}
