package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pageforge/internal/ipc"
	"pageforge/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <taskID>",
		Short: "Show one task and its transition history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					printTaskDetails(out, resp.Task)
					printTaskEvents(out, resp.Events)
					return nil
				}

				task, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %s not found", id)
				}
				printTaskDetails(out, ipc.Task{
					ID:           task.ID,
					ServiceID:    task.ServiceID,
					LocationKey:  task.LocationKey,
					Status:       string(task.Status),
					Stage:        string(task.Stage),
					AttemptCount: task.AttemptCount,
					ErrorMessage: task.ErrorMessage,
					PublishedURL: task.PublishedURL,
					CreatedAt:    task.CreatedAt.Format(time.RFC3339),
					UpdatedAt:    task.UpdatedAt.Format(time.RFC3339),
				})

				events, err := store.Events(cmd.Context(), id)
				if err != nil {
					return err
				}
				dtos := make([]ipc.TaskEvent, 0, len(events))
				for _, ev := range events {
					dtos = append(dtos, ipc.TaskEvent{
						FromStatus: string(ev.FromStatus),
						ToStatus:   string(ev.ToStatus),
						Detail:     ev.Detail,
						CreatedAt:  ev.CreatedAt.Format(time.RFC3339),
					})
				}
				printTaskEvents(out, dtos)
				return nil
			})
		},
	}
}

func printTaskDetails(out io.Writer, task ipc.Task) {
	fmt.Fprintf(out, "Task:      %s\n", task.ID)
	fmt.Fprintf(out, "Service:   %s\n", task.ServiceID)
	fmt.Fprintf(out, "Location:  %s\n", task.LocationKey)
	fmt.Fprintf(out, "Status:    %s\n", formatStatusLabel(task.Status))
	if task.Stage != "" {
		fmt.Fprintf(out, "Stage:     %s\n", task.Stage)
	}
	fmt.Fprintf(out, "Attempts:  %d\n", task.AttemptCount)
	if task.PublishedURL != "" {
		fmt.Fprintf(out, "Published: %s\n", task.PublishedURL)
	}
	if task.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", task.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:   %s\n", formatDisplayTime(task.CreatedAt))
	fmt.Fprintf(out, "Updated:   %s\n", formatDisplayTime(task.UpdatedAt))
}

func printTaskEvents(out io.Writer, events []ipc.TaskEvent) {
	if len(events) == 0 {
		return
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			formatDisplayTime(ev.CreatedAt),
			formatStatusLabel(ev.FromStatus),
			formatStatusLabel(ev.ToStatus),
			ev.Detail,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Time", "From", "To", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
}
