// Package tasks implements the on-disk task-directory persistence format:
// a minimal order-preserving frontmatter dialect, status-transition rules,
// and sequential task-id allocation.
package tasks

import (
	"fmt"
	"time"
)

// Status is the task lifecycle state. Valid transitions are
// pending -> running -> {completed, failed, aborted}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// Record is the parsed content of one task directory: task.md's frontmatter
// and body, plus the directory it was read from.
type Record struct {
	Dir string

	ID          string
	Name        string
	Description string
	Status      Status
	Created     string
	Started     string
	Completed   string
	Model       string
	Tags        []string

	// Instructions is task.md's free-form body: the worker instructions.
	Instructions string

	fm *Frontmatter
}

// taskIDPrefix is the prefix of every task directory name (t_ followed by
// digits; see dirNamePattern in store.go).
const taskIDPrefix = "t_"

// IDFromDir extracts a task id from its directory, which is simply the
// last path segment.
func IDFromDir(dir string) string {
	i := len(dir) - 1
	for i >= 0 && dir[i] != '/' {
		i--
	}
	return dir[i+1:]
}

func parseRecord(dir string, data []byte) (*Record, error) {
	lines, body, err := SplitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	fm, err := ParseFrontmatter(lines)
	if err != nil {
		return nil, err
	}

	var tags []string
	if v, ok := fm.Get("tags"); ok {
		if ss, ok := v.([]string); ok {
			tags = ss
		}
	}

	return &Record{
		Dir:          dir,
		ID:           fm.GetString("id"),
		Name:         fm.GetString("name"),
		Description:  fm.GetString("description"),
		Status:       Status(fm.GetString("status")),
		Created:      fm.GetString("created"),
		Started:      fm.GetString("started"),
		Completed:    fm.GetString("completed"),
		Model:        fm.GetString("model"),
		Tags:         tags,
		Instructions: string(body),
		fm:           fm,
	}, nil
}

// render re-serializes the record's frontmatter (reusing its original key
// order when the record was read from disk) followed by its body.
func (r *Record) render() []byte {
	fm := r.fm
	if fm == nil {
		fm = NewFrontmatter()
	}
	fm.Set("id", r.ID)
	fm.Set("name", r.Name)
	fm.Set("description", r.Description)
	fm.Set("status", string(r.Status))
	fm.Set("created", r.Created)
	fm.Set("started", r.Started)
	fm.Set("completed", r.Completed)
	fm.Set("model", r.Model)
	if r.Tags != nil {
		fm.Set("tags", r.Tags)
	}
	r.fm = fm

	out := fm.Render()
	out += "\n\n"
	out += r.Instructions
	return []byte(out)
}

// nowStamp formats the current time as an ISO-8601 timestamp for the
// started/completed frontmatter fields.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// TransitionRunning sets Status to running and, if Started is empty, stamps
// it with the current time. Per the spec, started is set on the first
// transition into running only.
func (r *Record) TransitionRunning() {
	r.Status = StatusRunning
	if r.Started == "" {
		r.Started = nowStamp()
	}
}

// TransitionTerminal sets Status to one of the terminal states and, if
// Completed is empty, stamps it with the current time. Completed is set on
// the first transition into a terminal state only.
func (r *Record) TransitionTerminal(status Status) error {
	switch status {
	case StatusCompleted, StatusFailed, StatusAborted:
	default:
		return fmt.Errorf("tasks: %q is not a terminal status", status)
	}
	r.Status = status
	if r.Completed == "" {
		r.Completed = nowStamp()
	}
	return nil
}
