package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pageforge/internal/ipc"
	"pageforge/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stringStats := make(map[string]int)
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					stringStats = status.QueueStats
				} else {
					stats, err := store.StatusCounts(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range stats {
						stringStats[string(status)] = count
					}
				}

				rows := buildQueueStatusRows(stringStats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var tasks []ipc.Task
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					tasks = resp.Tasks
				} else {
					var statuses []queue.Status
					for _, statusStr := range listStatuses {
						if parsed, ok := queue.ParseStatus(statusStr); ok {
							statuses = append(statuses, parsed)
						}
					}
					records, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					for _, task := range records {
						tasks = append(tasks, ipc.Task{
							ID:           task.ID,
							ServiceID:    task.ServiceID,
							LocationKey:  task.LocationKey,
							Status:       string(task.Status),
							AttemptCount: task.AttemptCount,
							CreatedAt:    task.CreatedAt.Format(time.RFC3339),
							UpdatedAt:    task.UpdatedAt.Format(time.RFC3339),
						})
					}
				}

				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Service", "Location", "Status", "Attempts", "Updated"},
					buildQueueListRows(tasks),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by task status (repeatable)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [taskID...]",
		Short: "Retry failed tasks",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueRetryResponse
					resp, err = client.QueueRetry(args)
					if resp != nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.RetryFailed(cmd.Context(), args...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed tasks\n", updated)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [taskID...]",
		Short: "Return errored tasks to pending",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueResetResponse
					resp, err = client.QueueReset(args)
					if resp != nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.ResetErrored(cmd.Context(), args...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d errored tasks\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health queue.HealthSummary
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					for name, count := range status.QueueStats {
						health.Total += count
						switch queue.Status(name) {
						case queue.StatusPending:
							health.Pending = count
						case queue.StatusInProgress:
							health.InProgress = count
						case queue.StatusPublished:
							health.Published = count
						case queue.StatusFailed:
							health.Failed = count
						case queue.StatusError:
							health.Errored = count
						}
					}
				} else {
					var err error
					health, err = store.Health(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nIn Progress: %d\nPublished: %d\nFailed: %d\nError: %d\n",
					health.Total,
					health.Pending,
					health.InProgress,
					health.Published,
					health.Failed,
					health.Errored,
				)
				return nil
			})
		},
	}
}
