package googletasks

import (
	"strconv"
	"strings"
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"mole/internal/remote"
)

const statusCompleted = "completed"

func fromAPI(l list, t *tasks.Task) remote.Task {
	desc, labels, priority := decodeNotes(t.Notes)
	task := remote.Task{
		ID:          joinID(l.ID, t.Id),
		Name:        t.Title,
		Completed:   t.Status == statusCompleted,
		Description: desc,
		Labels:      labels,
		Project:     l.Title,
		Priority:    priority,
	}
	if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
		day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		task.Due = &day
	}
	return task
}

func toAPI(t remote.Task) *tasks.Task {
	out := &tasks.Task{
		Title: t.Name,
		Notes: encodeNotes(t.Description, t.Labels, t.Priority),
	}
	if t.Due != nil {
		// The API keeps only the date part.
		out.Due = time.Date(t.Due.Year(), t.Due.Month(), t.Due.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	}
	return out
}

// encodeNotes appends labels and priority to the description as a tag line.
func encodeNotes(desc string, labels []string, priority int) string {
	var tags []string
	for _, l := range remote.NormalizeLabels(labels) {
		tags = append(tags, "#"+l)
	}
	if priority > 0 {
		tags = append(tags, "!"+strconv.Itoa(priority))
	}
	if len(tags) == 0 {
		return desc
	}
	line := strings.Join(tags, " ")
	if desc == "" {
		return line
	}
	return desc + "\n\n" + line
}

// decodeNotes splits notes written by encodeNotes. Notes whose last
// line isn't a tag line are returned unchanged as the description.
func decodeNotes(notes string) (desc string, labels []string, priority int) {
	notes = strings.TrimRight(notes, "\n")
	body, last := "", notes
	if i := strings.LastIndex(notes, "\n"); i >= 0 {
		body, last = notes[:i], notes[i+1:]
	}

	fields := strings.Fields(last)
	if len(fields) == 0 {
		return notes, nil, 0
	}
	for _, f := range fields {
		switch {
		case len(f) > 1 && f[0] == '#':
			labels = append(labels, f[1:])
		case len(f) > 1 && f[0] == '!':
			p, err := strconv.Atoi(f[1:])
			if err != nil {
				return notes, nil, 0
			}
			priority = p
		default:
			return notes, nil, 0
		}
	}
	return strings.TrimRight(body, "\n"), remote.NormalizeLabels(labels), priority
}
