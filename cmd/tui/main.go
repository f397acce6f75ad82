package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/genixhq/genix/cmd/tui/internal/view"
	"github.com/genixhq/genix/internal/config"
	"github.com/genixhq/genix/internal/database"
	"github.com/genixhq/genix/internal/lock"
	"github.com/genixhq/genix/internal/payout"
	payoutStore "github.com/genixhq/genix/internal/payout/store"
	"github.com/genixhq/genix/internal/transfer"
)

type model struct {
	payoutService *payout.Service

	currentView View

	previewView view.PreviewModel
	runView     view.RunModel
	historyView view.HistoryModel
}

type View int

const (
	ViewMenu    View = 0
	ViewPreview View = 1
	ViewRun     View = 2
	ViewHistory View = 3
)

func newPayoutService(cfg *config.Config) (*payout.Service, func(), error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	cleanup := func() { db.Close() }

	var locker payout.Locker = payoutStore.NewRunLock(db, cfg.Payout.LockName, zap.NewNop())

	if cfg.Redis.URL != "" {
		rdb, err := lock.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}

		locker = lock.NewRedisLock(rdb, "genix:"+cfg.Payout.LockName, cfg.Redis.LockTTL, zap.NewNop())
		cleanup = func() {
			rdb.Close()
			db.Close()
		}
	}

	svc := payout.NewService(
		payoutStore.New(db),
		transfer.NewClient(cfg.Transfer.BaseURL, cfg.Transfer.SecretKey, cfg.Transfer.Timeout),
		locker,
		payout.WithResolver(payout.NewDestinationResolver(payout.DestinationFieldsByName(cfg.Payout.DestinationFields))),
	)

	return svc, cleanup, nil
}

func initialModel(svc *payout.Service) model {
	return model{
		payoutService: svc,
		currentView:   ViewMenu,
		previewView:   view.NewPreviewModel(svc),
		runView:       view.NewRunModel(svc),
		historyView:   view.NewHistoryModel(svc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewPreview
				m.previewView = view.NewPreviewModel(m.payoutService)

				return m, m.previewView.Init()
			case "2":
				m.currentView = ViewRun
				m.runView = view.NewRunModel(m.payoutService)

				return m, m.runView.Init()
			case "3":
				m.currentView = ViewHistory
				m.historyView = view.NewHistoryModel(m.payoutService)

				return m, m.historyView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewPreview:
		var newModel tea.Model
		newModel, cmd = m.previewView.Update(msg)
		m.previewView = newModel.(view.PreviewModel)
	case ViewRun:
		var newModel tea.Model
		newModel, cmd = m.runView.Update(msg)
		m.runView = newModel.(view.RunModel)
	case ViewHistory:
		var newModel tea.Model
		newModel, cmd = m.historyView.Update(msg)
		m.historyView = newModel.(view.HistoryModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Genix Payouts\n\n" +
				"1. Preview Pending Earnings\n" +
				"2. Run Payouts\n" +
				"3. Transfer History\n\n" +
				"q. Quit",
		)
	case ViewPreview:
		return m.previewView.View()
	case ViewRun:
		return m.runView.View()
	case ViewHistory:
		return m.historyView.View()
	}

	return "Unknown View"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	svc, cleanup, err := newPayoutService(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(initialModel(svc))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to run TUI:", err)
		os.Exit(1)
	}
}
