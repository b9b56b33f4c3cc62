package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"printflow/internal/api"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// displayTime trims API timestamps to minute precision in local time.
func displayTime(value string) string {
	if value == "" {
		return "-"
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func buildTaskRows(items []api.Task, colorize bool) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		due := displayTime(item.DueDate)
		if item.Overdue {
			due += " (overdue)"
		}
		rows = append(rows, []string{
			shortID(item.ID),
			item.Title,
			colorStatus(item.Status, colorize),
			item.AssignedTeam,
			item.Priority,
			due,
		})
	}
	return rows
}

func printTaskList(out io.Writer, items []api.Task, colorize bool) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	printTable(out,
		[]string{"ID", "Title", "Status", "Team", "Priority", "Due"},
		buildTaskRows(items, colorize),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func printTaskDetail(out io.Writer, item api.Task, colorize bool) {
	fmt.Fprintf(out, "%s  %s\n", item.ID, item.Title)
	fmt.Fprintf(out, "  Status:     %s\n", colorStatus(item.Status, colorize))
	fmt.Fprintf(out, "  Team:       %s\n", item.AssignedTeam)
	fmt.Fprintf(out, "  Priority:   %s\n", item.Priority)
	fmt.Fprintf(out, "  Created:    %s by %s\n", displayTime(item.CreatedAt), item.CreatedBy)
	fmt.Fprintf(out, "  Updated:    %s\n", displayTime(item.UpdatedAt))
	if item.DueDate != "" {
		overdue := ""
		if item.Overdue {
			overdue = " (overdue)"
		}
		fmt.Fprintf(out, "  Due:        %s%s\n", displayTime(item.DueDate), overdue)
	}
	if item.Client.Name != "" {
		fmt.Fprintf(out, "  Client:     %s\n", strings.Join(nonEmpty(item.Client.Name, item.Client.Email, item.Client.Phone), ", "))
	}
	if item.EstimatedValue > 0 {
		fmt.Fprintf(out, "  Value:      %s\n", strconv.FormatFloat(item.EstimatedValue, 'f', 2, 64))
	}
	if item.Description != "" {
		fmt.Fprintf(out, "  Details:    %s\n", item.Description)
	}
	if spec := describeSpecs(item); spec != "" {
		fmt.Fprintf(out, "  Specs:      %s\n", spec)
	}
	for _, att := range item.Attachments {
		fmt.Fprintf(out, "  Attachment: %s %s\n", att.Name, att.URL)
	}

	if len(item.Notes) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(item.Notes))
	for _, note := range item.Notes {
		author := note.AuthorName
		if author == "" {
			author = note.AuthorID
		}
		rows = append(rows, []string{displayTime(note.CreatedAt), author, note.Kind, note.Message})
	}
	printTable(out, []string{"When", "Author", "Kind", "Message"}, rows, nil)
}

func describeSpecs(item api.Task) string {
	spec := item.Specifications
	var parts []string
	if spec.Quantity > 0 {
		parts = append(parts, fmt.Sprintf("qty %d", spec.Quantity))
	}
	parts = append(parts, nonEmpty(spec.Size, spec.Material, spec.ColorProfile)...)
	if len(spec.Finishes) > 0 {
		parts = append(parts, strings.Join(spec.Finishes, "+"))
	}
	if spec.Instructions != "" {
		parts = append(parts, spec.Instructions)
	}
	return strings.Join(parts, ", ")
}

func buildNotificationRows(items []api.Notification) [][]string {
	rows := make([][]string, 0, len(items))
	for _, n := range items {
		marker := "*"
		if n.Read {
			marker = ""
		}
		rows = append(rows, []string{
			marker,
			shortID(n.ID),
			n.RecipientID,
			n.Title,
			n.Message,
			shortID(n.TaskID),
			displayTime(n.CreatedAt),
		})
	}
	return rows
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
