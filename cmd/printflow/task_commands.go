package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"printflow/internal/api"
	"printflow/internal/services"
	"printflow/internal/task"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect and move print jobs",
	}

	taskCmd.AddCommand(newTaskCreateCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskEditCommand(ctx))
	taskCmd.AddCommand(newTaskMoveCommand(ctx))
	taskCmd.AddCommand(newTaskCommentCommand(ctx))
	taskCmd.AddCommand(newTaskDeleteCommand(ctx))
	taskCmd.AddCommand(newTaskNextCommand(ctx))

	return taskCmd
}

func newTaskCreateCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateTaskRequest
	var attachments []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in pending-design",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			for _, raw := range attachments {
				att, err := parseAttachment(raw)
				if err != nil {
					return err
				}
				req.Attachments = append(req.Attachments, att)
			}
			return ctx.withBackend(cmd, true, func(b backend) error {
				created, err := b.Create(cmd.Context(), req, actor)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, created, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s) for %s\n", created.ID, created.StatusLabel, created.AssignedTeam)
					return nil
				})
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Title, "title", "t", "", "Job title (required)")
	f.StringVarP(&req.Description, "description", "d", "", "Free-form description")
	f.StringVar(&req.AssignedTeam, "team", "design-team", "Team responsible for the job")
	f.StringVarP(&req.Priority, "priority", "p", "", "low, medium, high or urgent (default medium)")
	f.StringVar(&req.DueDate, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
	f.Float64Var(&req.EstimatedValue, "value", 0, "Estimated job value")
	f.StringVar(&req.Client.Name, "client", "", "Client name")
	f.StringVar(&req.Client.Email, "client-email", "", "Client email")
	f.StringVar(&req.Client.Phone, "client-phone", "", "Client phone")
	f.IntVar(&req.Specifications.Quantity, "quantity", 0, "Number of pieces")
	f.StringVar(&req.Specifications.Size, "size", "", "Finished size, e.g. A5")
	f.StringVar(&req.Specifications.Material, "material", "", "Paper or substrate")
	f.StringVar(&req.Specifications.ColorProfile, "color", "", "Color profile, e.g. CMYK")
	f.StringSliceVar(&req.Specifications.Finishes, "finish", nil, "Finishing steps (repeatable)")
	f.StringVar(&req.Specifications.Instructions, "instructions", "", "Production instructions")
	f.StringArrayVar(&attachments, "attach", nil, "Attachment as name=url (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var query api.TaskQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered by status, priority, team or due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, false, func(b backend) error {
				items, err := b.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, api.TaskListResponse{Items: items}, func() error {
					printTaskList(cmd.OutOrStdout(), items, shouldColorize(cmd.OutOrStdout()))
					return nil
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&query.Statuses, "status", "s", nil, "Filter by status (repeatable or comma separated)")
	f.StringSliceVarP(&query.Priorities, "priority", "p", nil, "Filter by priority (repeatable or comma separated)")
	f.StringSliceVar(&query.Teams, "team", nil, "Filter by assigned team (repeatable or comma separated)")
	f.StringVar(&query.DueFrom, "due-from", "", "Only tasks due on or after this date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&query.DueTo, "due-to", "", "Only tasks due on or before this date (YYYY-MM-DD or RFC3339)")
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, false, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				item, err := b.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, item, func() error {
					printTaskDetail(cmd.OutOrStdout(), item, shouldColorize(cmd.OutOrStdout()))
					return nil
				})
			})
		},
	}
}

func newTaskEditCommand(ctx *commandContext) *cobra.Command {
	var (
		title, description, priority, team, due string
		clientName, clientEmail, clientPhone    string
		value                                   float64
		clearDue                                bool
		specs                                   task.Specifications
		attachments                             []string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's details (status changes go through move)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			var req api.UpdateTaskRequest
			if f.Changed("title") {
				req.Title = &title
			}
			if f.Changed("description") {
				req.Description = &description
			}
			if f.Changed("priority") {
				req.Priority = &priority
			}
			if f.Changed("team") {
				req.AssignedTeam = &team
			}
			if f.Changed("due") {
				req.DueDate = &due
			}
			if f.Changed("value") {
				req.EstimatedValue = &value
			}
			req.ClearDueDate = clearDue
			for _, raw := range attachments {
				att, err := parseAttachment(raw)
				if err != nil {
					return err
				}
				req.Attachments = append(req.Attachments, att)
			}
			clientChanged := f.Changed("client") || f.Changed("client-email") || f.Changed("client-phone")
			specsChanged := false
			for _, name := range []string{"quantity", "size", "material", "color", "finish", "instructions"} {
				specsChanged = specsChanged || f.Changed(name)
			}

			return ctx.withBackend(cmd, true, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				if clientChanged || specsChanged {
					// Client and specifications are replaced whole, so merge
					// the flags over the stored values.
					current, err := b.Describe(cmd.Context(), id)
					if err != nil {
						return err
					}
					if clientChanged {
						merged := current.Client
						overlay(f.Changed("client"), &merged.Name, clientName)
						overlay(f.Changed("client-email"), &merged.Email, clientEmail)
						overlay(f.Changed("client-phone"), &merged.Phone, clientPhone)
						req.Client = &merged
					}
					if specsChanged {
						merged := current.Specifications
						if f.Changed("quantity") {
							merged.Quantity = specs.Quantity
						}
						overlay(f.Changed("size"), &merged.Size, specs.Size)
						overlay(f.Changed("material"), &merged.Material, specs.Material)
						overlay(f.Changed("color"), &merged.ColorProfile, specs.ColorProfile)
						overlay(f.Changed("instructions"), &merged.Instructions, specs.Instructions)
						if f.Changed("finish") {
							merged.Finishes = specs.Finishes
						}
						req.Specifications = &merged
					}
				}
				updated, err := b.Update(cmd.Context(), id, req, actor)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, updated, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s, %s)\n", shortID(updated.ID), updated.StatusLabel, updated.AssignedTeam)
					return nil
				})
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "Job title")
	f.StringVarP(&description, "description", "d", "", "Free-form description")
	f.StringVar(&team, "team", "", "Reassign to this team (notifies its members)")
	f.StringVarP(&priority, "priority", "p", "", "low, medium, high or urgent")
	f.StringVar(&due, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
	f.BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	f.Float64Var(&value, "value", 0, "Estimated job value")
	f.StringVar(&clientName, "client", "", "Client name")
	f.StringVar(&clientEmail, "client-email", "", "Client email")
	f.StringVar(&clientPhone, "client-phone", "", "Client phone")
	f.IntVar(&specs.Quantity, "quantity", 0, "Number of pieces")
	f.StringVar(&specs.Size, "size", "", "Finished size, e.g. A5")
	f.StringVar(&specs.Material, "material", "", "Paper or substrate")
	f.StringVar(&specs.ColorProfile, "color", "", "Color profile, e.g. CMYK")
	f.StringSliceVar(&specs.Finishes, "finish", nil, "Finishing steps, replacing the current list (repeatable)")
	f.StringVar(&specs.Instructions, "instructions", "", "Production instructions")
	f.StringArrayVar(&attachments, "attach", nil, "Append an attachment as name=url (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func overlay(changed bool, dst *string, value string) {
	if changed {
		*dst = value
	}
}

func newTaskMoveCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Request a status change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, true, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				resp, err := b.Move(cmd.Context(), id, api.StatusChangeRequest{Status: args[1], Reason: reason}, actor)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Task %s: %s\n", shortID(resp.Task.ID), resp.Note.Message)
					for _, effect := range resp.Effects {
						fmt.Fprintf(out, "  notified %s: %s\n", effect.Kind, strings.Join(effect.Recipients, ", "))
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded on the note (e.g. why a design was rejected)")
	return cmd
}

func newTaskCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <message...>",
		Short: "Add a comment to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, true, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				note, err := b.Comment(cmd.Context(), id, api.CommentRequest{Message: strings.Join(args[1:], " ")}, actor)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, note, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Comment added to task %s\n", shortID(id))
					return nil
				})
			})
		},
	}
}

func newTaskDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task and its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, true, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				if err := b.Delete(cmd.Context(), id); err != nil {
					return err
				}
				return emit(ctx, cmd, map[string]string{"deleted": id}, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
					return nil
				})
			})
		},
	}
}

func newTaskNextCommand(ctx *commandContext) *cobra.Command {
	var roleFlag string

	cmd := &cobra.Command{
		Use:   "next <id>",
		Short: "List the statuses you may move a task to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var role task.Role
			if strings.TrimSpace(roleFlag) != "" {
				parsed, ok := task.ParseRole(roleFlag)
				if !ok {
					return services.Wrap(services.ErrValidation, "parse role", "unknown role "+roleFlag, nil)
				}
				role = parsed
			} else {
				actor, err := ctx.actor()
				if err != nil {
					return err
				}
				role = actor.Role
			}
			return ctx.withBackend(cmd, false, func(b backend) error {
				id, err := resolveTaskID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				resp, err := b.Next(cmd.Context(), id, role)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Next) == 0 {
						fmt.Fprintf(out, "No transitions available to %s from %s\n", resp.Role, resp.Status)
						return nil
					}
					colorize := shouldColorize(out)
					for _, next := range resp.Next {
						fmt.Fprintf(out, "%s\t%s\n", next, colorStatus(next, colorize))
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&roleFlag, "role", "", "Role to evaluate (defaults to the acting role)")
	return cmd
}

// resolveTaskID accepts a full id or a unique prefix of one.
func resolveTaskID(ctx context.Context, b backend, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", services.Wrap(services.ErrValidation, "resolve task", "task id is required", nil)
	}
	if len(arg) >= 36 {
		return arg, nil
	}
	items, err := b.ListTasks(ctx, api.TaskQuery{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, item := range items {
		if item.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(item.ID, arg) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", services.Wrap(services.ErrValidation, "resolve task", fmt.Sprintf("prefix %q matches %d tasks", arg, len(matches)), nil)
	}
}

func parseAttachment(raw string) (api.Attachment, error) {
	name, url, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
		return api.Attachment{}, services.Wrap(services.ErrValidation, "parse attachment", "expected name=url, got "+raw, nil)
	}
	return api.Attachment{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)}, nil
}
