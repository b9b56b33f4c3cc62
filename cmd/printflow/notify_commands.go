package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"printflow/internal/notifications"
	"printflow/internal/services"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Read and manage the notification inbox",
	}

	notifyCmd.AddCommand(newNotifyListCommand(ctx))
	notifyCmd.AddCommand(newNotifyReadCommand(ctx))
	notifyCmd.AddCommand(newNotifyReadAllCommand(ctx))
	notifyCmd.AddCommand(newNotifyClearCommand(ctx))
	notifyCmd.AddCommand(newNotifyTestCommand(ctx))

	return notifyCmd
}

func newNotifyListCommand(ctx *commandContext) *cobra.Command {
	var recipient string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(recipient)
			if target == "" && !all {
				actor, err := ctx.actor()
				if err != nil {
					return err
				}
				target = actor.ID
			}
			return ctx.withBackend(cmd, false, func(b backend) error {
				resp, err := b.Notifications(cmd.Context(), target)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Items) == 0 {
						fmt.Fprintln(out, "No notifications")
						return nil
					}
					printTable(out,
						[]string{"", "ID", "To", "Title", "Message", "Task", "When"},
						buildNotificationRows(resp.Items),
						nil,
					)
					fmt.Fprintf(out, "%d unread\n", resp.Unread)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "Show this user's inbox (defaults to the acting user)")
	cmd.Flags().BoolVar(&all, "all", false, "Show every recipient's notifications")
	return cmd
}

func newNotifyReadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, true, func(b backend) error {
				id, err := resolveNotificationID(cmd.Context(), b, args[0])
				if err != nil {
					return err
				}
				if err := b.MarkRead(cmd.Context(), id); err != nil {
					return err
				}
				return emit(ctx, cmd, map[string]string{"read": id}, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", shortID(id))
					return nil
				})
			})
		},
	}
}

func newNotifyReadAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, true, func(b backend) error {
				if err := b.MarkAllRead(cmd.Context()); err != nil {
					return err
				}
				return emit(ctx, cmd, map[string]int{"unread": 0}, func() error {
					fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read")
					return nil
				})
			})
		},
	}
}

func newNotifyClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, true, func(b backend) error {
				if err := b.ClearNotifications(cmd.Context()); err != nil {
					return err
				}
				return emit(ctx, cmd, map[string]bool{"cleared": true}, func() error {
					fmt.Fprintln(cmd.OutOrStdout(), "Notifications cleared")
					return nil
				})
			})
		},
	}
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test message to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sink := notifications.NewNtfySink(cfg.Notifications.NtfyTopic, cfg.RequestTimeout())
			if sink == nil {
				return services.Wrap(services.ErrConfiguration, "notify test", "notifications.ntfy_topic is not set", nil)
			}
			if err := sink.Test(cmd.Context()); err != nil {
				return services.Wrap(services.ErrUnavailable, "notify test", "failed to send notification", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

// resolveNotificationID accepts a full id or a unique prefix of one.
func resolveNotificationID(ctx context.Context, b backend, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("notification id is required")
	}
	resp, err := b.Notifications(ctx, "")
	if err != nil {
		return "", err
	}
	var match string
	for _, n := range resp.Items {
		if n.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(n.ID, arg) {
			if match != "" {
				return "", services.Wrap(services.ErrValidation, "resolve notification", fmt.Sprintf("prefix %q is ambiguous", arg), nil)
			}
			match = n.ID
		}
	}
	if match == "" {
		return arg, nil
	}
	return match, nil
}

