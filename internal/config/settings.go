package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendTodoist     = "todoist"
	BackendGoogleTasks = "googletasks"
)

// Settings is the decoded form of config.yaml.
// Viper lower-cases every key, map keys included.
type (
	Settings struct {
		Backend  string          `mapstructure:"backend" yaml:"backend"`
		Todoist  TodoistSettings `mapstructure:"todoist" yaml:"todoist"`
		Log      LogSettings     `mapstructure:"log" yaml:"log"`
		Run      RunSettings     `mapstructure:"run" yaml:"run"`
		Metrics  MetricsSettings `mapstructure:"metrics" yaml:"metrics"`
		Rules    RuleSettings    `mapstructure:"rules" yaml:"rules"`
		Email    EmailSettings   `mapstructure:"email" yaml:"email"`
		Jira     JiraSettings    `mapstructure:"jira" yaml:"jira"`
		Journal  JournalSettings `mapstructure:"journal" yaml:"journal"`
		Hygiene  HygieneSettings `mapstructure:"hygiene" yaml:"hygiene"`
		Chores   ChoreSettings   `mapstructure:"chores" yaml:"chores"`
		Standing []StandingTask  `mapstructure:"standing" yaml:"standing"`
		Secrets  SecretSettings  `mapstructure:"secrets" yaml:"secrets"`
	}

	// SecretRef points at one field of a 1Password item.
	SecretRef struct {
		Item  string `mapstructure:"item" yaml:"item"`
		Field string `mapstructure:"field" yaml:"field"`
		Vault string `mapstructure:"vault" yaml:"vault,omitempty"`
	}

	// TodoistSettings holds the API token, or where to find it.
	TodoistSettings struct {
		Token  string    `mapstructure:"token" yaml:"token,omitempty"`
		Secret SecretRef `mapstructure:"secret" yaml:"secret"`
	}

	LogSettings struct {
		Level    string `mapstructure:"level" yaml:"level"`
		Encoding string `mapstructure:"encoding" yaml:"encoding"`
	}

	RunSettings struct {
		Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	}

	MetricsSettings struct {
		Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
	}

	// RuleSettings selects rules by name. Empty means every registered rule.
	RuleSettings struct {
		Enabled []string `mapstructure:"enabled" yaml:"enabled"`
	}

	EmailSettings struct {
		Accounts []MailAccount `mapstructure:"accounts" yaml:"accounts"`
	}

	MailAccount struct {
		Account string `mapstructure:"account" yaml:"account"`
		Inbox   string `mapstructure:"inbox" yaml:"inbox"`
	}

	JiraSettings struct {
		URL   string `mapstructure:"url" yaml:"url,omitempty"`
		Token string `mapstructure:"token" yaml:"token,omitempty"`
		JQL   string `mapstructure:"jql" yaml:"jql"`
	}

	JournalSettings struct {
		Dir     string `mapstructure:"dir" yaml:"dir"`
		Project string `mapstructure:"project" yaml:"project"`
	}

	// HygieneSettings names the projects used by the task-list hygiene rules.
	HygieneSettings struct {
		Project string `mapstructure:"project" yaml:"project"`
		Inbox   string `mapstructure:"inbox" yaml:"inbox"`
	}

	ChoreSettings struct {
		DB          string            `mapstructure:"db" yaml:"db,omitempty"`
		Definitions []ChoreDefinition `mapstructure:"definitions" yaml:"definitions"`
	}

	ChoreDefinition struct {
		Name         string `mapstructure:"name" yaml:"name"`
		IntervalDays int    `mapstructure:"interval_days" yaml:"interval_days"`
	}

	// StandingTask is a marker that should always exist.
	StandingTask struct {
		Name    string `mapstructure:"name" yaml:"name"`
		Label   string `mapstructure:"label" yaml:"label,omitempty"`
		Project string `mapstructure:"project" yaml:"project,omitempty"`
	}

	// SecretSettings map 1Password vault and item names to their IDs.
	SecretSettings struct {
		Vaults map[string]string            `mapstructure:"vaults" yaml:"vaults,omitempty"`
		Items  map[string]map[string]string `mapstructure:"items" yaml:"items,omitempty"`
	}
)

// DefaultSettings returns the settings used when config.yaml is absent.
func DefaultSettings() Settings {
	return Settings{
		Backend: BackendTodoist,
		Todoist: TodoistSettings{
			Secret: SecretRef{Item: "Todoist", Field: "API Key"},
		},
		Log:     LogSettings{Level: "info", Encoding: "console"},
		Run:     RunSettings{Interval: 20 * time.Second},
		Jira:    JiraSettings{JQL: "assignee = currentUser() AND statusCategory != Done"},
		Journal: JournalSettings{Dir: "~/journal", Project: "Life"},
		Hygiene: HygieneSettings{Project: "Meta", Inbox: "Inbox"},
	}
}

func setDefaults(v *viper.Viper, s Settings) {
	v.SetDefault("backend", s.Backend)
	v.SetDefault("todoist.token", s.Todoist.Token)
	v.SetDefault("todoist.secret.item", s.Todoist.Secret.Item)
	v.SetDefault("todoist.secret.field", s.Todoist.Secret.Field)
	v.SetDefault("todoist.secret.vault", s.Todoist.Secret.Vault)
	v.SetDefault("log.level", s.Log.Level)
	v.SetDefault("log.encoding", s.Log.Encoding)
	v.SetDefault("run.interval", s.Run.Interval)
	v.SetDefault("metrics.addr", s.Metrics.Addr)
	v.SetDefault("rules.enabled", s.Rules.Enabled)
	v.SetDefault("jira.jql", s.Jira.JQL)
	v.SetDefault("journal.dir", s.Journal.Dir)
	v.SetDefault("journal.project", s.Journal.Project)
	v.SetDefault("hygiene.project", s.Hygiene.Project)
	v.SetDefault("hygiene.inbox", s.Hygiene.Inbox)
	v.SetDefault("chores.db", s.Chores.DB)
}

// Validate checks values viper can't.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendTodoist, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend: %q", s.Backend)
	}
	switch s.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log encoding: %q", s.Log.Encoding)
	}
	if s.Run.Interval <= 0 {
		return fmt.Errorf("run.interval must be positive")
	}
	for _, d := range s.Chores.Definitions {
		if d.Name == "" {
			return fmt.Errorf("chore definition without a name")
		}
		if d.IntervalDays < 1 {
			return fmt.Errorf("chore %q: interval_days must be at least 1", d.Name)
		}
	}
	for _, st := range s.Standing {
		if st.Name == "" {
			return fmt.Errorf("standing task without a name")
		}
	}
	return nil
}

// ChoreDBPath returns the chore history database path,
// defaulting to the user cache directory.
func (s Settings) ChoreDBPath() string {
	if s.Chores.DB != "" {
		return ExpandHome(s.Chores.DB)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName, "chores.db")
}

// WriteDefault writes a starter config.yaml to path.
func WriteDefault(path string) error {
	s := DefaultSettings()
	s.Email.Accounts = []MailAccount{{Account: "iCloud", Inbox: "INBOX"}}
	s.Chores.Definitions = []ChoreDefinition{{Name: "Water the plants", IntervalDays: 3}}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
