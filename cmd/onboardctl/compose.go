package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"onboarding-platform/backend/internal/composer"
	"onboarding-platform/backend/internal/tui"
)

type composeEdits struct {
	add    []int64
	remove []int
	up     []int
	down   []int
	save   bool
}

func (e composeEdits) empty() bool {
	return len(e.add) == 0 && len(e.remove) == 0 && len(e.up) == 0 && len(e.down) == 0 && !e.save
}

func newComposeCmd(a *app) *cobra.Command {
	var edits composeEdits

	cmd := &cobra.Command{
		Use:   "compose TEMPLATE_ID",
		Short: "Edit the ordered task list of a template",
		Long: `Without edit flags, compose opens the interactive composer.

With flags, edits are applied in this order: --remove, --add, --up, --down.
Positions are 1-based and refer to the list as it stands when the flag group
runs. Nothing is sent to the server unless --save is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			name := fmt.Sprintf("template %d", id)
			if err := a.state.RefreshTemplates(cmd.Context()); err == nil {
				if t, ok := a.state.Template(id); ok {
					name = t.Name
				}
			}

			session := a.state.Composer()
			if edits.empty() {
				err = runInteractive(cmd.Context(), cmd.OutOrStdout(), session, id, name)
			} else {
				err = runEdits(cmd.Context(), cmd.OutOrStdout(), session, id, edits)
			}
			if err == nil {
				if rerr := a.state.LastRefreshErr(); rerr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: saved, but reloading templates failed: %v\n", rerr)
				}
			}
			return err
		},
	}

	cmd.Flags().Int64SliceVar(&edits.add, "add", nil, "task template ids to append")
	cmd.Flags().IntSliceVar(&edits.remove, "remove", nil, "positions to remove")
	cmd.Flags().IntSliceVar(&edits.up, "up", nil, "positions to move up by one")
	cmd.Flags().IntSliceVar(&edits.down, "down", nil, "positions to move down by one")
	cmd.Flags().BoolVar(&edits.save, "save", false, "save the resulting list")
	return cmd
}

func runInteractive(ctx context.Context, out io.Writer, session *composer.Session, id int64, name string) error {
	model := tui.NewComposer(ctx, session, id, name)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	if model.Saved() {
		fmt.Fprintf(out, "saved tasks for %s\n", name)
	}
	return nil
}

func runEdits(ctx context.Context, out io.Writer, session *composer.Session, id int64, edits composeEdits) error {
	defer session.Close()
	if err := session.Open(ctx, id); err != nil {
		return err
	}

	remove := append([]int(nil), edits.remove...)
	sort.Sort(sort.Reverse(sort.IntSlice(remove)))
	for i, pos := range remove {
		if i > 0 && remove[i-1] == pos {
			continue
		}
		if err := session.Remove(pos - 1); err != nil {
			return fmt.Errorf("remove %d: %w", pos, err)
		}
	}
	for _, taskID := range edits.add {
		if err := session.Add(taskID); err != nil {
			return fmt.Errorf("add %d: %w", taskID, err)
		}
	}
	for _, pos := range edits.up {
		if !session.Move(pos-1, composer.Up) {
			return fmt.Errorf("cannot move position %d up", pos)
		}
	}
	for _, pos := range edits.down {
		if !session.Move(pos-1, composer.Down) {
			return fmt.Errorf("cannot move position %d down", pos)
		}
	}

	tasks := session.Tasks()
	printTasks(out, tasks)
	if !edits.save {
		fmt.Fprintln(out, "not saved (pass --save to store the list)")
		return nil
	}
	if err := session.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %d tasks\n", len(tasks))
	return nil
}
