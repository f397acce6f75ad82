package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/genixhq/genix/internal/payout"
)

var historyStatusFilters = []*payout.Status{
	nil,
	new(payout.StatusPaid),
	new(payout.StatusQueued),
	new(payout.StatusFailed),
	new(payout.StatusManualRequired),
	new(payout.StatusProcessing),
}

const historyLimit = payout.MaxLimit

// HistoryModel browses recorded transfer rows, newest first.
type HistoryModel struct {
	CommonModel
	payoutService *payout.Service

	table   table.Model
	records []*payout.TransferRecord

	statusFilterIdx int

	filter  payout.ListFilter
	loading bool
	err     error
}

func NewHistoryModel(svc *payout.Service) HistoryModel {
	columns := []table.Column{
		{Title: "Created", Width: 17},
		{Title: "Developer", Width: 38},
		{Title: "Source", Width: 24},
		{Title: "Amount", Width: 16},
		{Title: "Status", Width: 16},
		{Title: "Reference", Width: 32},
	}

	return HistoryModel{
		payoutService: svc,
		table:         newTable(columns, 15),
		filter:        payout.ListFilter{Limit: historyLimit},
		loading:       true,
	}
}

func (m HistoryModel) Title() string     { return "Transfer History" }
func (m HistoryModel) ShortHelp() string { return "Esc: back | s: status filter | r: refresh" }

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.records = msg.records
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(historyStatusFilters)
			m.filter.Status = historyStatusFilters[m.statusFilterIdx]
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *HistoryModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		rows = append(rows, table.Row{
			FormatTime(rec.CreatedAt),
			rec.DeveloperID,
			payout.SourceKey(rec.SourceType, rec.SourceID),
			FormatAmount(rec.Amount),
			string(rec.Status),
			rec.PayoutReference,
		})
	}

	m.table.SetRows(rows)
}

func (m HistoryModel) statusLabel() string {
	if s := historyStatusFilters[m.statusFilterIdx]; s != nil {
		return string(*s)
	}

	return "All"
}

func (m HistoryModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transfers...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Filter: [s] Status: %s | %d rows", activeStyle(m.statusLabel()), len(m.records))

	detail := ""
	if idx := m.table.Cursor(); idx >= 0 && idx < len(m.records) {
		if msg := m.records[idx].ErrorMessage; msg != nil {
			detail = errorStyle(*msg)
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
		detail,
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type historyLoadedMsg struct {
	records []*payout.TransferRecord
	err     error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		records, err := m.payoutService.ListTransfers(ctx, filter)

		return historyLoadedMsg{records: records, err: err}
	}
}
