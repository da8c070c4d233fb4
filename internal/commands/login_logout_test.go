package commands_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mole/internal/commands"
	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/logger"
	"mole/internal/secrets"
)

type staticStore map[string]string

func (s staticStore) Get(ctx context.Context, ref secrets.Ref) (string, error) {
	v, ok := s[ref.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", secrets.ErrSecretUnavailable, ref)
	}
	return v, nil
}

func googleEnv(t *testing.T, dir string, quiet bool) *commands.Env {
	t.Helper()
	s := config.DefaultSettings()
	s.Backend = config.BackendGoogleTasks
	return &commands.Env{
		Config: &config.Config{Dir: dir, Quiet: quiet, Settings: s},
		Log:    logger.Nop(),
	}
}

func todoistEnv(t *testing.T) *commands.Env {
	t.Helper()
	return &commands.Env{
		Config: &config.Config{Dir: t.TempDir(), Settings: config.DefaultSettings()},
		Log:    logger.Nop(),
	}
}

func TestLoginCommand_TodoistToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cmd.SetStore(staticStore{"Todoist/API Key": strings.Repeat("a", 40)})

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), todoistEnv(t), nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%s)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", outBuf.String())
	}
}

func TestLoginCommand_TodoistMissingToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cmd.SetStore(staticStore{})

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), todoistEnv(t), nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(errBuf.String(), "MOLE_TODOIST_API_KEY") {
		t.Errorf("expected a hint about the environment variable, got %q", errBuf.String())
	}
}

func TestLoginCommand_TodoistMalformedToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cmd.SetStore(staticStore{"Todoist/API Key": "short"})

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), todoistEnv(t), nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if strings.Contains(errBuf.String(), "MOLE_TODOIST_API_KEY") {
		t.Errorf("a malformed token should not suggest where to set one: %q", errBuf.String())
	}
}

// TestLoginCommand_NoOAuthClient verifies login fails without oauth_client.json
func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleEnv(t, t.TempDir(), false), nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if !strings.Contains(errBuf.String(), "oauth_client.json not found") {
		t.Errorf("expected error message about missing oauth_client.json, got %q", errBuf.String())
	}
}

// TestLoginCommand_NoRefreshToken verifies login proceeds when the token can't be refreshed
func TestLoginCommand_NoRefreshToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	tmpDir := t.TempDir()

	oauthClient := `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(filepath.Join(tmpDir, "oauth_client.json"), []byte(oauthClient), 0600); err != nil {
		t.Fatalf("failed to write oauth_client.json: %v", err)
	}
	tokenWithoutRefresh := `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "token.json"), []byte(tokenWithoutRefresh), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	// Cancelled so the OAuth callback is never waited for.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	_ = cmd.Run(ctx, googleEnv(t, tmpDir, false), nil, &outBuf, &errBuf)

	if outBuf.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with token missing refresh_token")
	}
}

func TestLogoutCommand_Todoist(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), todoistEnv(t), nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(outBuf.String(), "nothing stored") {
		t.Errorf("unexpected output %q", outBuf.String())
	}
}

// TestLogoutCommand_OnlyRemovesToken verifies logout only removes token.json
func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	tmpDir := t.TempDir()

	oauthPath := filepath.Join(tmpDir, "oauth_client.json")
	if err := os.WriteFile(oauthPath, []byte(`{"installed":{"client_id":"test","client_secret":"test"}}`), 0600); err != nil {
		t.Fatalf("failed to write oauth_client.json: %v", err)
	}
	tokenPath := filepath.Join(tmpDir, "token.json")
	if err := os.WriteFile(tokenPath, []byte(`{"access_token":"test","refresh_token":"test"}`), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleEnv(t, tmpDir, false), nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if errBuf.String() != "" {
		t.Errorf("expected no stderr, got %q", errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", outBuf.String())
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(oauthPath); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		want  string
	}{
		{"verbose", false, "not logged in\n"},
		{"quiet", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &commands.LogoutCmd{}

			var outBuf, errBuf bytes.Buffer
			code := cmd.Run(context.Background(), googleEnv(t, t.TempDir(), tt.quiet), nil, &outBuf, &errBuf)

			if code != exitcode.Success {
				t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
			}
			if errBuf.String() != "" {
				t.Errorf("expected no stderr, got %q", errBuf.String())
			}
			if outBuf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, outBuf.String())
			}
		})
	}
}
