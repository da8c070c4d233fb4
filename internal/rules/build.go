package rules

import (
	"time"

	"mole/internal/config"
	"mole/internal/remote"
	"mole/internal/signal/mail"
)

// Deps are the signal sources rules read from. A nil source disables the
// rules that need it.
type Deps struct {
	Mail    MailCounter
	Jira    IssueSource
	Journal JournalChecker
	Chores  ChoreSource
	Now     func() time.Time
}

// Build registers every rule the settings and deps allow.
func Build(s config.Settings, deps Deps) (*Registry, error) {
	reg := NewRegistry()
	var rules []Rule

	if deps.Mail != nil && len(s.Email.Accounts) > 0 {
		inboxes := make([]mail.Inbox, 0, len(s.Email.Accounts))
		for _, a := range s.Email.Accounts {
			inboxes = append(inboxes, mail.Inbox{Account: a.Account, Mailbox: a.Inbox})
		}
		rules = append(rules, &Email{Counter: deps.Mail, Inboxes: inboxes, Project: s.Hygiene.Project})
	}
	if deps.Jira != nil {
		rules = append(rules, &Jira{Source: deps.Jira, Project: s.Hygiene.Project})
	}
	if deps.Journal != nil {
		rules = append(rules, &Journal{Checker: deps.Journal, Project: s.Journal.Project, Now: deps.Now})
	}
	rules = append(rules, &PriorityDue{Project: s.Hygiene.Project})
	if deps.Chores != nil && len(s.Chores.Definitions) > 0 {
		rules = append(rules, &Chores{Source: deps.Chores, Project: s.Hygiene.Project})
	}
	for _, st := range s.Standing {
		// Markers without a project would land in the inbox.
		task := remote.Task{Name: st.Name, Project: st.Project}
		if task.Project == "" {
			task.Project = s.Hygiene.Project
		}
		if st.Label != "" {
			task.Labels = []string{st.Label}
		}
		rules = append(rules, &Standing{Task: task})
	}

	inbox := &Inbox{Inbox: s.Hygiene.Inbox, Project: s.Hygiene.Project}
	for _, r := range rules {
		inbox.Owned = append(inbox.Owned, r.Scope())
	}
	rules = append(rules, inbox)

	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
