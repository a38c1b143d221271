package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/board"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active tasks grouped by creation month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd, board.Active)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), s.Snapshot(), time.Now())
			return nil
		},
	}
}

func (a *app) deletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deleted",
		Short: "List soft-deleted tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd, board.Deleted)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), s.Snapshot(), time.Now())
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(board.Active)
			if err != nil {
				return err
			}
			t, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("could not load task %s: %w", args[0], err)
			}
			printTask(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

// taskFlags are shared by create and edit.
type taskFlags struct {
	title, description, assignee string
	status, priority             string
	start, end                   string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "task title")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&f.status, "status", "", "pending, in-progress or completed")
	cmd.Flags().StringVar(&f.priority, "priority", "", "normal, medium or high")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
}

// apply writes the flags the user set over t.
func (f *taskFlags) apply(cmd *cobra.Command, t *model.Task) error {
	set := cmd.Flags().Changed
	if set("title") {
		t.Title = strings.TrimSpace(f.title)
	}
	if set("description") {
		t.Description = strings.TrimSpace(f.description)
	}
	if set("assignee") {
		t.Assignee = strings.TrimSpace(f.assignee)
	}
	if set("status") {
		t.Status = model.Status(f.status)
	}
	if set("priority") {
		t.Priority = model.Priority(f.priority)
	}
	var err error
	if set("start") {
		if t.StartDate, err = model.ParseDate(f.start); err != nil {
			return err
		}
	}
	if set("end") {
		if t.EndDate, err = model.ParseDate(f.end); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Example: `  taskboard create --title "Write report" --description "Q3 numbers" \
    --start 2024-03-01 --end 2024-03-04 --priority high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var t model.Task
			if err := f.apply(cmd, &t); err != nil {
				return err
			}
			draft := model.Draft{
				Title:       t.Title,
				Description: t.Description,
				Assignee:    t.Assignee,
				Status:      t.Status,
				Priority:    t.Priority,
				StartDate:   t.StartDate,
				EndDate:     t.EndDate,
			}
			if err := draft.Validate(); err != nil {
				return err
			}

			s, err := a.store(board.Active)
			if err != nil {
				return err
			}
			created, err := s.Create(cmd.Context(), draft.WithDefaults())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", created.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(board.Active)
			if err != nil {
				return err
			}
			t, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("could not load task %s: %w", args[0], err)
			}
			if err := f.apply(cmd, &t); err != nil {
				return err
			}
			if _, err := s.Update(cmd.Context(), args[0], model.EditPatch(t)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", args[0])
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) rateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate ID RATING",
		Short: "Rate a task from 1 to 5 stars, or 0 to clear",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil || !model.ValidRating(rating) {
				return board.ErrInvalidRating
			}
			s, err := a.loaded(cmd, board.Active)
			if err != nil {
				return err
			}
			if err := s.SetRating(cmd.Context(), args[0], rating); err != nil {
				return err
			}
			t, ok := s.Snapshot().Find(args[0])
			if !ok {
				t.Title = args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", stars(rating), t.Title)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Soft-delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd, board.Active)
			if err != nil {
				return err
			}
			t, ok := s.Snapshot().Find(args[0])
			if !ok {
				t.Title = args[0]
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete task %q?", t.Title)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := s.SoftDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "The task has been deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID",
		Short: "Restore a soft-deleted task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd, board.Deleted)
			if err != nil {
				return err
			}
			if err := s.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "The task has been restored.")
			return nil
		},
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func printView(w io.Writer, v board.View, now time.Time) {
	if v.Len() == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	for _, g := range v.Groups {
		fmt.Fprintf(w, "%s\n", g.Key)
		for _, t := range g.Tasks {
			line := fmt.Sprintf("  %s [%s] %s (%s, %s) %s", stars(t.Rating), t.ID, t.Title, t.Status, t.Priority, orNA(t.Assignee))
			if !t.EndDate.IsZero() {
				line += " due " + t.EndDate.String()
			}
			if !t.Deleted && t.Overdue(now) {
				line += " OVERDUE"
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printTask(w io.Writer, t model.Task) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", t.Description)
	fmt.Fprintf(w, "Assignee:    %s\n", orNA(t.Assignee))
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Start:       %s\n", orNA(t.StartDate.String()))
	fmt.Fprintf(w, "End:         %s\n", orNA(t.EndDate.String()))
	if t.Rating > 0 {
		fmt.Fprintf(w, "Rating:      %s\n", stars(t.Rating))
	}
}

func stars(rating int) string {
	if rating < model.MinRating {
		rating = model.MinRating
	}
	if rating > model.MaxRating {
		rating = model.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", model.MaxRating-rating)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
