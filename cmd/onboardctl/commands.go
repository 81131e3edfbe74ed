package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"onboarding-platform/backend/pkg/models"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"tasks"},
		Short:   "Manage the task template library",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List task templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.state.RefreshLibrary(cmd.Context()); err != nil {
				return err
			}
			printLibrary(cmd.OutOrStdout(), a.state.Library())
			return nil
		},
	})

	var in models.TaskTemplateInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a task template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.state.CreateTaskTemplate(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task template %d\n", created.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "task title (required)")
	create.Flags().StringVar(&in.Description, "description", "", "task description")
	cmd.AddCommand(create)

	var upd models.TaskTemplateInput
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update a task template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.state.UpdateTaskTemplate(cmd.Context(), id, upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task template %d\n", id)
			return nil
		},
	}
	update.Flags().StringVar(&upd.Title, "title", "", "task title (required)")
	update.Flags().StringVar(&upd.Description, "description", "", "task description")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task template that no template references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.state.DeleteTaskTemplate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task template %d\n", id)
			return nil
		},
	})
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage onboarding templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List onboarding templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.state.RefreshTemplates(cmd.Context()); err != nil {
				return err
			}
			printTemplates(cmd.OutOrStdout(), a.state.Templates())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks ID",
		Short: "Show a template's ordered tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			session := a.state.Composer()
			defer session.Close()
			if err := session.Open(cmd.Context(), id); err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), session.Tasks())
			return nil
		},
	})

	var in models.TemplateInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an onboarding template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.state.CreateTemplate(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created template %d\n", created.ID)
			return nil
		},
	}
	templateFlags(create, &in)
	cmd.AddCommand(create)

	var upd models.TemplateInput
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update template metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.state.UpdateTemplate(cmd.Context(), id, upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated template %d\n", id)
			return nil
		},
	}
	templateFlags(update, &upd)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete an onboarding template and its task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.state.DeleteTemplate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted template %d\n", id)
			return nil
		},
	})
	return cmd
}

func templateFlags(cmd *cobra.Command, in *models.TemplateInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "template name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "template description")
	cmd.Flags().StringVar(&in.Department, "department", "", "owning department")
	cmd.Flags().StringVar(&in.Category, "category", "", "template category")
}
