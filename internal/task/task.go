package task

import (
	"strings"
	"time"
)

// Client identifies the customer a job is produced for.
type Client struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Attachment references an uploaded artwork or proof file.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"sizeBytes,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Specifications captures the production parameters of a job.
type Specifications struct {
	Quantity     int      `json:"quantity,omitempty"`
	Size         string   `json:"size,omitempty"`
	Material     string   `json:"material,omitempty"`
	ColorProfile string   `json:"colorProfile,omitempty"`
	Finishes     []string `json:"finishes,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// Note is an immutable audit-trail entry.
type Note struct {
	ID         string
	AuthorID   string
	AuthorName string
	Message    string
	Kind       NoteKind
	CreatedAt  time.Time
}

// Task is a print job tracked through production.
type Task struct {
	ID             string
	Title          string
	Description    string
	Client         Client
	Priority       Priority
	Status         Status
	AssignedTeam   Team
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DueDate        *time.Time
	EstimatedValue float64
	Notes          []Note
	Attachments    []Attachment
	Specs          Specifications
}

// Actor is the external identity invoking an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// DisplayName falls back to the identifier when no name was supplied.
func (a Actor) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return a.ID
}

// Draft carries caller-supplied fields for a new task.
type Draft struct {
	Title          string
	Description    string
	Client         Client
	Priority       Priority
	AssignedTeam   Team
	DueDate        *time.Time
	EstimatedValue float64
	Attachments    []Attachment
	Specs          Specifications
}

// AppendNote adds a note to the end of the audit trail.
func (t *Task) AppendNote(note Note) {
	t.Notes = append(t.Notes, note)
}

// SetStatus moves the task to a new status and stamps the update time.
func (t *Task) SetStatus(status Status, at time.Time) {
	t.Status = status
	t.UpdatedAt = at
}

// LastNote returns the most recently appended note, if any.
func (t *Task) LastNote() (Note, bool) {
	if t == nil || len(t.Notes) == 0 {
		return Note{}, false
	}
	return t.Notes[len(t.Notes)-1], true
}

// Clone returns a deep copy so callers can mutate without touching the
// repository's snapshot.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	cp.Notes = append([]Note(nil), t.Notes...)
	cp.Attachments = append([]Attachment(nil), t.Attachments...)
	cp.Specs.Finishes = append([]string(nil), t.Specs.Finishes...)
	return &cp
}

// IsOverdue reports whether the due date has passed without delivery.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return now.After(*t.DueDate)
}
