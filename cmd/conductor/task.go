package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conductor-ai/conductor/internal/config"
	"github.com/conductor-ai/conductor/internal/tasks"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect task directories",
	}
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	return cmd
}

// openStore loads just enough config to find the tasks root, without
// requiring a usable provider (task inspection shouldn't need an API key).
func openStore() (*tasks.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return tasks.NewStore(cfg.TasksRoot)
}

func newTaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			records, err := store.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no tasks")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%s\t%-10s\t%s\n", r.ID, r.Status, r.Name)
			}
			return nil
		},
	}
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task's full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			rec, err := store.Read(taskDirFor(store, args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("id:          %s\n", rec.ID)
			fmt.Printf("name:        %s\n", rec.Name)
			fmt.Printf("description: %s\n", rec.Description)
			fmt.Printf("status:      %s\n", rec.Status)
			fmt.Printf("created:     %s\n", rec.Created)
			fmt.Printf("started:     %s\n", rec.Started)
			fmt.Printf("completed:   %s\n", rec.Completed)
			fmt.Printf("model:       %s\n", rec.Model)
			fmt.Printf("tags:        %v\n", rec.Tags)
			fmt.Printf("\n%s\n", rec.Instructions)
			return nil
		},
	}
}

func taskDirFor(store *tasks.Store, taskID string) string {
	return filepath.Join(store.Root(), taskID)
}
