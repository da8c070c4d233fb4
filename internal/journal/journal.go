// Package journal writes dated Markdown journal entries to a directory.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	fileLayout   = "2006-01-02_15H-04M"
	dayLayout    = "2006-01-02"
	headerLayout = "Monday, January 02, 2006"
)

// ErrEntryExists is returned when an entry for the same minute already exists.
var ErrEntryExists = errors.New("journal entry already exists")

// Journal is a directory of entries named after the time they were written.
type Journal struct {
	Dir string
}

// New returns the journal in dir.
func New(dir string) *Journal {
	return &Journal{Dir: dir}
}

// Path returns the file an entry written at when goes to.
func (j *Journal) Path(when time.Time) string {
	return filepath.Join(j.Dir, when.Format(fileLayout)+".md")
}

// Write stores entry under a header for its date and returns the file path.
// Existing entries are never overwritten.
func (j *Journal) Write(entry string, when time.Time) (string, error) {
	if err := os.MkdirAll(j.Dir, 0700); err != nil {
		return "", fmt.Errorf("creating journal directory: %w", err)
	}
	path := j.Path(when)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrEntryExists, path)
	}
	if err != nil {
		return "", err
	}
	_, werr := fmt.Fprintf(f, "# %s\n\n%s\n", when.Format(headerLayout), entry)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("writing %s: %w", path, werr)
	}
	return path, nil
}

// HasEntryOn reports whether any entry was written on day's date.
// A missing directory means no entries.
func (j *Journal) HasEntryOn(day time.Time) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(j.Dir, day.Format(dayLayout)+"_*.md"))
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}
