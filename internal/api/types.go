package api

import "printflow/internal/task"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a print job in a transport-friendly format.
type Task struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	Client         task.Client         `json:"client"`
	Priority       string              `json:"priority"`
	Status         string              `json:"status"`
	StatusLabel    string              `json:"statusLabel"`
	AssignedTeam   string              `json:"assignedTeam"`
	CreatedBy      string              `json:"createdBy"`
	CreatedAt      string              `json:"createdAt,omitempty"`
	UpdatedAt      string              `json:"updatedAt,omitempty"`
	DueDate        string              `json:"dueDate,omitempty"`
	Overdue        bool                `json:"overdue"`
	EstimatedValue float64             `json:"estimatedValue"`
	Notes          []Note              `json:"notes"`
	Attachments    []Attachment        `json:"attachments"`
	Specifications task.Specifications `json:"specifications"`
}

// Note is an audit-trail entry.
type Note struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Message    string `json:"message"`
	Kind       string `json:"kind"`
	CreatedAt  string `json:"createdAt"`
}

// Attachment references an uploaded file.
type Attachment struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	SizeBytes  int64  `json:"sizeBytes,omitempty"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}

// Notification is a stored inbox entry.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Kind        string `json:"kind"`
	TaskID      string `json:"taskId,omitempty"`
	Priority    string `json:"priority"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"createdAt"`
}

// Effect is a notification dispatch that ran after a transition committed.
type Effect struct {
	Kind       string   `json:"kind"`
	Recipients []string `json:"recipients"`
}

// CreateTaskRequest is the payload for creating a task. DueDate accepts
// RFC3339 or a plain YYYY-MM-DD date.
type CreateTaskRequest struct {
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	Client         task.Client         `json:"client"`
	Priority       string              `json:"priority,omitempty"`
	AssignedTeam   string              `json:"assignedTeam"`
	DueDate        string              `json:"dueDate,omitempty"`
	EstimatedValue float64             `json:"estimatedValue,omitempty"`
	Attachments    []Attachment        `json:"attachments,omitempty"`
	Specifications task.Specifications `json:"specifications"`
}

// UpdateTaskRequest is the payload for editing a task. Omitted fields are
// left unchanged; an empty dueDate with clearDueDate removes the due date.
// Attachments are appended. Status is accepted only so a status edit can be
// refused with a useful error.
type UpdateTaskRequest struct {
	Title          *string              `json:"title,omitempty"`
	Description    *string              `json:"description,omitempty"`
	Client         *task.Client         `json:"client,omitempty"`
	Priority       *string              `json:"priority,omitempty"`
	AssignedTeam   *string              `json:"assignedTeam,omitempty"`
	DueDate        *string              `json:"dueDate,omitempty"`
	ClearDueDate   bool                 `json:"clearDueDate,omitempty"`
	EstimatedValue *float64             `json:"estimatedValue,omitempty"`
	Specifications *task.Specifications `json:"specifications,omitempty"`
	Attachments    []Attachment         `json:"attachments,omitempty"`
	Status         *string              `json:"status,omitempty"`
}

// TaskQuery filters a task listing. DueFrom and DueTo accept RFC3339 or
// YYYY-MM-DD; plain dates cover the whole day.
type TaskQuery struct {
	Statuses   []string
	Priorities []string
	Teams      []string
	DueFrom    string
	DueTo      string
}

// StatusChangeRequest asks for a transition.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CommentRequest adds a comment note.
type CommentRequest struct {
	Message string `json:"message"`
}

// StatusChangeResponse reports a committed transition.
type StatusChangeResponse struct {
	Task    Task     `json:"task"`
	Note    Note     `json:"note"`
	Effects []Effect `json:"effects"`
}

// NextStatusesResponse lists the statuses the caller may request next.
type NextStatusesResponse struct {
	TaskID string   `json:"taskId"`
	Status string   `json:"status"`
	Role   string   `json:"role"`
	Next   []string `json:"next"`
}

// PolicyRule is one row of the transition table.
type PolicyRule struct {
	From      string   `json:"from"`
	FromLabel string   `json:"fromLabel"`
	Roles     []string `json:"roles"`
	Targets   []string `json:"targets"`
	Reachable bool     `json:"reachable"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Items []Task `json:"items"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// NoteResponse wraps a single note.
type NoteResponse struct {
	Note Note `json:"note"`
}

// NotificationListResponse wraps inbox entries and the unread count.
type NotificationListResponse struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

// PolicyResponse wraps the transition table.
type PolicyResponse struct {
	Rules []PolicyRule `json:"rules"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"databasePath"`
	LockFilePath  string         `json:"lockFilePath"`
	APIBind       string         `json:"apiBind"`
	TaskCounts    map[string]int `json:"taskCounts"`
	Unread        int            `json:"unread"`
	Notifications bool           `json:"notifications"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
