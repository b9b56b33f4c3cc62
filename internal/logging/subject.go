package logging

import "strings"

// FormatSubject builds the "Task 1a2b3c4d (manager)" subject used in console
// output. Task ids are shortened to their first eight characters.
func FormatSubject(taskID, role string) string {
	taskID = strings.TrimSpace(taskID)
	role = strings.TrimSpace(role)
	if len(taskID) > 8 {
		taskID = taskID[:8]
	}
	switch {
	case taskID != "" && role != "":
		return "Task " + taskID + " (" + role + ")"
	case taskID != "":
		return "Task " + taskID
	case role != "":
		return "(" + role + ")"
	default:
		return ""
	}
}
