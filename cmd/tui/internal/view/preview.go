package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/genixhq/genix/internal/payout"
)

// PreviewModel lists pending earnings per developer without side effects.
type PreviewModel struct {
	CommonModel
	payoutService *payout.Service

	table   table.Model
	groups  []payout.Group
	total   decimal.Decimal
	items   int
	loading bool
	err     error
}

func NewPreviewModel(svc *payout.Service) PreviewModel {
	columns := []table.Column{
		{Title: "Developer", Width: 38},
		{Title: "Earnings", Width: 10},
		{Title: "Amount", Width: 20},
	}

	return PreviewModel{
		payoutService: svc,
		table:         newTable(columns, 15),
		loading:       true,
	}
}

func (m PreviewModel) Title() string     { return "Pending Earnings" }
func (m PreviewModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m PreviewModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case previewLoadedMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.setPending(msg.items)
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
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *PreviewModel) setPending(items []payout.EarningItem) {
	m.items = len(items)
	m.groups = payout.GroupByRecipient(items)
	m.total = decimal.Zero

	rows := make([]table.Row, 0, len(m.groups))
	for _, g := range m.groups {
		sum := g.Total()
		m.total = m.total.Add(sum)

		rows = append(rows, table.Row{
			g.RecipientID,
			strconv.Itoa(len(g.Items)),
			FormatAmount(sum),
		})
	}

	m.table.SetRows(rows)
}

func (m PreviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading pending earnings...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"Pending: %s earnings | %s developers | %s",
		activeStyle(strconv.Itoa(m.items)),
		activeStyle(strconv.Itoa(len(m.groups))),
		activeStyle(FormatAmount(m.total)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type previewLoadedMsg struct {
	items []payout.EarningItem
	err   error
}

func (m PreviewModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.payoutService.Pending(ctx)

		return previewLoadedMsg{items: items, err: err}
	}
}
