package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"onboarding-platform/backend/pkg/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func render(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func printLibrary(w io.Writer, library []models.TaskTemplate) {
	rows := make([][]string, 0, len(library))
	for _, t := range library {
		rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Title, t.Description})
	}
	render(w, []string{"ID", "TITLE", "DESCRIPTION"}, rows)
}

func printTemplates(w io.Writer, templates []models.OnboardingTemplate) {
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Name, t.Department, t.Category, strconv.Itoa(len(t.Tasks))})
	}
	render(w, []string{"ID", "NAME", "DEPARTMENT", "CATEGORY", "TASKS"}, rows)
}

func printTasks(w io.Writer, tasks []models.TemplateTask) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{strconv.Itoa(t.Sequence), strconv.FormatInt(t.TaskTemplateID, 10), t.Title})
	}
	render(w, []string{"#", "TASK ID", "TITLE"}, rows)
}
