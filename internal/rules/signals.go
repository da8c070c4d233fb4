package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mole/internal/chores"
	"mole/internal/remote"
	"mole/internal/signal/jira"
	"mole/internal/signal/mail"
)

// Marker task names.
const (
	EmailTask       = "Check Email"
	JournalTask     = "Daily Journal"
	PriorityDueTask = "Check that priority items have a due date"
	InboxTask       = "Triage the inbox"
)

// Marker labels.
const (
	JiraLabel  = "jira"
	ChoreLabel = "chore"
)

// MailCounter counts unread mail.
type MailCounter interface {
	Count(ctx context.Context, inboxes []mail.Inbox) (mail.Counts, error)
}

// IssueSource lists the Jira issues waiting on the user.
type IssueSource interface {
	Issues(ctx context.Context) ([]jira.Issue, error)
}

// JournalChecker reports whether a journal entry was written on a day.
type JournalChecker interface {
	HasEntryOn(day time.Time) (bool, error)
}

// ChoreSource lists the chores that are due.
type ChoreSource interface {
	Due(ctx context.Context) ([]chores.Definition, error)
}

// Email wants "Check Email" while any watched inbox has unread mail.
type Email struct {
	Counter MailCounter
	Inboxes []mail.Inbox
	Project string
}

func (e *Email) Name() string { return "email" }

func (e *Email) Scope() remote.Filter { return remote.Filter{Name: EmailTask} }

func (e *Email) Slate(ctx context.Context, _ remote.Remote) ([]remote.Task, error) {
	counts, err := e.Counter.Count(ctx, e.Inboxes)
	if err != nil {
		return nil, signalError("mail", err)
	}
	if counts.Total() == 0 {
		return nil, nil
	}
	var lines []string
	for _, c := range counts {
		if c.Unread > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d unread", c.Inbox, c.Unread))
		}
	}
	return []remote.Task{{
		Name:        EmailTask,
		Description: strings.Join(lines, "\n"),
		Project:     e.Project,
	}}, nil
}

// Jira wants one task per open issue, matched on the issue key so a
// renamed issue updates its task instead of replacing it.
type Jira struct {
	Source  IssueSource
	Project string
}

func (j *Jira) Name() string { return "jira" }

func (j *Jira) Scope() remote.Filter { return remote.Filter{Label: JiraLabel} }

func (j *Jira) Slate(ctx context.Context, _ remote.Remote) ([]remote.Task, error) {
	issues, err := j.Source.Issues(ctx)
	if err != nil {
		return nil, signalError("jira", err)
	}
	tasks := make([]remote.Task, 0, len(issues))
	for _, issue := range issues {
		tasks = append(tasks, remote.Task{
			Name:    issue.Key + ": " + issue.Summary,
			Labels:  []string{JiraLabel},
			Project: j.Project,
		})
	}
	return tasks, nil
}

// Key returns the issue key, the text before the first colon.
func (j *Jira) Key(t remote.Task) string {
	key, _, _ := strings.Cut(t.Name, ":")
	return strings.TrimSpace(key)
}

// Journal wants "Daily Journal" until today's entry is written.
type Journal struct {
	Checker JournalChecker
	Project string
	Now     func() time.Time
}

func (j *Journal) Name() string { return "journal" }

func (j *Journal) Scope() remote.Filter { return remote.Filter{Name: JournalTask} }

func (j *Journal) Slate(ctx context.Context, _ remote.Remote) ([]remote.Task, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	written, err := j.Checker.HasEntryOn(now())
	if err != nil {
		return nil, signalError("journal", err)
	}
	if written {
		return nil, nil
	}
	return []remote.Task{{Name: JournalTask, Project: j.Project}}, nil
}

// PriorityDue wants a reminder while any prioritized task lacks a due date.
type PriorityDue struct {
	Project string
}

func (p *PriorityDue) Name() string { return "priority-due" }

func (p *PriorityDue) Scope() remote.Filter { return remote.Filter{Name: PriorityDueTask} }

func (p *PriorityDue) Slate(ctx context.Context, r remote.Remote) ([]remote.Task, error) {
	open, err := r.GetTasks(ctx, remote.Filter{})
	if err != nil {
		return nil, err
	}
	for _, t := range open {
		if t.Name == PriorityDueTask {
			continue
		}
		if t.Priority > 1 && t.Due == nil {
			return []remote.Task{{Name: PriorityDueTask, Project: p.Project}}, nil
		}
	}
	return nil, nil
}

// Inbox wants a triage reminder while the inbox project holds tasks.
// Markers of other rules are not counted: Owned lists their scopes.
type Inbox struct {
	Inbox   string
	Project string
	Owned   []remote.Filter
}

func (i *Inbox) Name() string { return "inbox" }

func (i *Inbox) Scope() remote.Filter { return remote.Filter{Name: InboxTask} }

func (i *Inbox) Slate(ctx context.Context, r remote.Remote) ([]remote.Task, error) {
	tasks, err := r.GetTasks(ctx, remote.Filter{Project: i.Inbox})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.Name != InboxTask && !i.owned(t) {
			return []remote.Task{{Name: InboxTask, Project: i.Project}}, nil
		}
	}
	return nil, nil
}

func (i *Inbox) owned(t remote.Task) bool {
	for _, f := range i.Owned {
		if f.Matches(t) {
			return true
		}
	}
	return false
}

// Chores wants one task per chore that is due. Completing the task in
// the task store does not count: record it with "mole chore <name>",
// otherwise the task comes back on the next pass.
type Chores struct {
	Source  ChoreSource
	Project string
}

func (c *Chores) Name() string { return "chores" }

func (c *Chores) Scope() remote.Filter { return remote.Filter{Label: ChoreLabel} }

func (c *Chores) Slate(ctx context.Context, _ remote.Remote) ([]remote.Task, error) {
	due, err := c.Source.Due(ctx)
	if err != nil {
		return nil, signalError("chores", err)
	}
	tasks := make([]remote.Task, 0, len(due))
	for _, d := range due {
		tasks = append(tasks, remote.Task{Name: d.Name, Labels: []string{ChoreLabel}, Project: c.Project})
	}
	return tasks, nil
}

// Standing always wants its task.
type Standing struct {
	Task remote.Task
}

func (s *Standing) Name() string { return "standing:" + s.Task.Name }

func (s *Standing) Scope() remote.Filter {
	f := remote.Filter{Name: s.Task.Name}
	if len(s.Task.Labels) > 0 {
		f.Label = s.Task.Labels[0]
	}
	return f
}

func (s *Standing) Slate(context.Context, remote.Remote) ([]remote.Task, error) {
	return []remote.Task{s.Task}, nil
}
