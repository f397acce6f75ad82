package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/genixhq/genix/internal/payout"
)

type runState int

const (
	runStateForm runState = iota
	runStateRunning
	runStateResult
)

const runTimeout = 10 * time.Minute

// runValues is shared with the huh form, which keeps pointers to its fields
// across model copies.
type runValues struct {
	dryRun    bool
	limit     string
	confirmed bool
}

// RunModel collects run parameters, executes a payout run and shows its summary.
type RunModel struct {
	CommonModel
	payoutService *payout.Service

	state   runState
	values  *runValues
	form    *huh.Form
	spinner spinner.Model
	table   table.Model
	summary *payout.Summary
	status  string
	err     error
}

func NewRunModel(svc *payout.Service) RunModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	columns := []table.Column{
		{Title: "Developer", Width: 38},
		{Title: "Earnings", Width: 8},
		{Title: "Amount", Width: 18},
		{Title: "Status", Width: 16},
		{Title: "Error", Width: 40},
	}

	values := &runValues{dryRun: true, limit: strconv.Itoa(payout.DefaultLimit)}

	return RunModel{
		payoutService: svc,
		state:         runStateForm,
		values:        values,
		form:          buildRunForm(values),
		spinner:       s,
		table:         newTable(columns, 12),
	}
}

func (m RunModel) Title() string { return "Run Payouts" }

func (m RunModel) ShortHelp() string {
	switch m.state {
	case runStateRunning:
		return "Running..."
	case runStateResult:
		return "Esc: back to menu"
	}

	return "Esc: back | Enter: confirm"
}

func (m RunModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case runStateForm:
		return m.updateForm(msg)
	case runStateRunning:
		return m.updateRunning(msg)
	case runStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m RunModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.values.dryRun && !m.values.confirmed {
		m.status = "Live run cancelled."
		m.values.confirmed = false
		m.form = buildRunForm(m.values)

		return m, m.form.Init()
	}

	limit, _ := strconv.Atoi(strings.TrimSpace(m.values.limit))

	m.state = runStateRunning
	m.status = ""
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runCmd(payout.RunParams{DryRun: m.values.dryRun, Limit: limit}))
}

func (m RunModel) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(runResultMsg); ok {
		m.state = runStateResult
		m.err = result.err
		m.summary = result.summary

		if result.summary != nil {
			m.table.SetRows(resultRows(result.summary.Results))
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m RunModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func buildRunForm(values *runValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[bool]().
				Title("Mode").
				Options(
					huh.NewOption("Dry run (record as queued, no transfers)", true),
					huh.NewOption("Live (send transfers)", false),
				).
				Value(&values.dryRun),

			huh.NewInput().
				Key("limit").
				Title("Limit").
				Description(fmt.Sprintf("Earnings to process in this run (1-%d)", payout.MaxLimit)).
				Value(&values.limit).
				Validate(validateLimit),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Send real transfers?").
				Description("Transfers are initiated immediately and cannot be undone here.").
				Affirmative("Pay").
				Negative("Cancel").
				Value(&values.confirmed),
		).WithHideFunc(func() bool { return values.dryRun }),
	).WithWidth(60).WithShowHelp(false)
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("limit must be a number")
	}

	if n < 1 || n > payout.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", payout.MaxLimit)
	}

	return nil
}

func resultRows(results []payout.Result) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, table.Row{
			r.DeveloperID,
			strconv.Itoa(r.Entries),
			FormatAmount(r.Amount),
			string(r.Status),
			r.ErrorMessage,
		})
	}

	return rows
}

func (m RunModel) View() string {
	switch m.state {
	case runStateForm:
		content := m.form.View()
		if m.status != "" {
			content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
		}

		return lipgloss.NewStyle().Padding(1).Render(content)

	case runStateRunning:
		mode := "dry run"
		if !m.values.dryRun {
			mode = "live run"
		}

		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Processing payouts (%s)...", m.spinner.View(), mode),
		)

	case runStateResult:
		return m.viewResult()
	}

	return ""
}

func (m RunModel) viewResult() string {
	if m.err != nil {
		msg := fmt.Sprintf("Error: %v", m.err)
		if errors.Is(m.err, payout.ErrRunInProgress) {
			msg = "Another payout run is in progress. Try again when it finishes."
		}

		return lipgloss.NewStyle().Padding(1).Render(errorStyle(msg))
	}

	if m.summary.Processed == 0 {
		return lipgloss.NewStyle().Padding(1).Render("No pending payouts.")
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Run Complete!")

	line := fmt.Sprintf("Processed %s earnings across %s developers (dry run: %t)",
		activeStyle(strconv.Itoa(m.summary.Processed)),
		activeStyle(strconv.Itoa(m.summary.GroupedDevelopers)),
		m.summary.DryRun,
	)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			line,
			"",
			boxed(m.table.View()),
		),
	)
}

type runResultMsg struct {
	summary *payout.Summary
	err     error
}

func (m RunModel) runCmd(params payout.RunParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		summary, err := m.payoutService.Run(ctx, params)

		return runResultMsg{summary: summary, err: err}
	}
}
