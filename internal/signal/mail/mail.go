// Package mail counts unread messages in Mail.app mailboxes via osascript.
package mail

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mole/internal/runner"
)

// DefaultTimeout bounds a single osascript call. Mail.app blocks scripts
// while it shows a modal dialog.
const DefaultTimeout = 10 * time.Second

const unreadScript = `tell application "Mail"
	set checkAccount to account %s
	set checkInbox to mailbox %s of checkAccount
	set unread to (messages of checkInbox whose read status is false)
	return count of unread
end tell`

// Inbox is one mailbox of one account.
type Inbox struct {
	Account string
	Mailbox string
}

func (i Inbox) String() string {
	return i.Account + "/" + i.Mailbox
}

// Count is the unread count of one inbox.
type Count struct {
	Inbox  Inbox
	Unread int
}

// Counts are per-inbox unread counts in configuration order.
type Counts []Count

// Total sums the unread counts.
func (c Counts) Total() int {
	n := 0
	for _, x := range c {
		n += x.Unread
	}
	return n
}

// Counter reads unread counts from Mail.app.
type Counter struct {
	Runner  runner.Runner
	Timeout time.Duration
}

// NewCounter creates a Counter using the osascript binary.
func NewCounter() *Counter {
	return &Counter{Runner: runner.Exec{}, Timeout: DefaultTimeout}
}

// Unread returns the number of unread messages in inbox.
func (c *Counter) Unread(ctx context.Context, inbox Inbox) (int, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := fmt.Sprintf(unreadScript, quote(inbox.Account), quote(inbox.Mailbox))
	out, err := c.Runner.Run(ctx, "osascript", "-e", script)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", inbox, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("reading %s: unexpected osascript output %q", inbox, out)
	}
	return n, nil
}

// Count reads every inbox. Any failure fails the whole count.
func (c *Counter) Count(ctx context.Context, inboxes []Inbox) (Counts, error) {
	counts := make(Counts, 0, len(inboxes))
	for _, inbox := range inboxes {
		n, err := c.Unread(ctx, inbox)
		if err != nil {
			return nil, err
		}
		counts = append(counts, Count{Inbox: inbox, Unread: n})
	}
	return counts, nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
