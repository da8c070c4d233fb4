package todoist

import (
	"time"

	"mole/internal/remote"
)

const dateLayout = "2006-01-02"

type apiTask struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Checked     bool     `json:"checked"`
	Labels      []string `json:"labels"`
	ProjectID   string   `json:"project_id"`
	Priority    int      `json:"priority"`
	Due         *apiDue  `json:"due"`
	AddedAt     string   `json:"added_at"`
}

type apiDue struct {
	Date        string `json:"date"`
	String      string `json:"string,omitempty"`
	IsRecurring bool   `json:"is_recurring,omitempty"`
}

type apiProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type taskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
}

func newTaskRequest(t remote.Task) taskRequest {
	return taskRequest{
		Content:     t.Name,
		Description: t.Description,
		Labels:      remote.NormalizeLabels(t.Labels),
		Priority:    t.Priority,
		DueDate:     formatDue(t.Due),
	}
}

func (t apiTask) toTask(projects map[string]string) remote.Task {
	task := remote.Task{
		ID:          t.ID,
		Name:        t.Content,
		Completed:   t.Checked,
		Description: t.Description,
		Labels:      remote.NormalizeLabels(t.Labels),
		Project:     projects[t.ProjectID],
		Priority:    t.Priority,
		Due:         parseDue(t.Due),
	}
	if added, err := time.Parse(time.RFC3339Nano, t.AddedAt); err == nil {
		task.CreatedAt = added
	}
	return task
}

// parseDue keeps the date part of a due date, which may carry a time.
func parseDue(d *apiDue) *time.Time {
	if d == nil || len(d.Date) < len(dateLayout) {
		return nil
	}
	day, err := time.Parse(dateLayout, d.Date[:len(dateLayout)])
	if err != nil {
		return nil
	}
	return &day
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
