package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// RoomController is what the room page drives. *gacha.Orchestrator
// satisfies it.
type RoomController interface {
	State() gacha.DisplayState
	Connected() bool
	Account() common.Address
	Connect(ctx context.Context) error
	Refresh(ctx context.Context)
	Swap(ctx context.Context, count int) (*gacha.SwapResult, error)
	Withdraw(ctx context.Context) (*gacha.WithdrawResult, error)
	CostLabel(count int) string
	Symbol() string
}

// NoticeQueue is a gacha.Notifier that hands notices to a running page.
type NoticeQueue chan gacha.Notice

// NewNoticeQueue creates a buffered queue.
func NewNoticeQueue() NoticeQueue { return make(NoticeQueue, 16) }

// Notify enqueues n, dropping it if the page is not keeping up.
func (q NoticeQueue) Notify(n gacha.Notice) {
	select {
	case q <- n:
	default:
	}
}

func (q NoticeQueue) next() tea.Cmd {
	return func() tea.Msg { return noticeMsg(<-q) }
}

type (
	roomTickMsg   time.Time
	noticeMsg     gacha.Notice
	snapshotMsg   struct{}
	opFinishedMsg struct {
		op  string
		err error
	}
)

// RoomModel is the interactive room page.
type RoomModel struct {
	ctx     context.Context
	ctrl    RoomController
	notices NoticeQueue
	every   time.Duration

	state     gacha.DisplayState
	connected bool
	account   common.Address
	quantity  int
	busy      string // operation running in the background, "" when idle
	notice    *gacha.Notice
	quitting  bool
}

// NewRoomModel builds the page. The view re-reads controller state every
// interval so progress made inside a long swap shows up live.
func NewRoomModel(ctx context.Context, ctrl RoomController, notices NoticeQueue, interval time.Duration) RoomModel {
	if interval <= 0 {
		interval = time.Second
	}
	return RoomModel{ctx: ctx, ctrl: ctrl, notices: notices, every: interval}
}

// Quantity returns the selected purchase count.
func (m RoomModel) Quantity() int { return m.quantity }

// CanSwap reports whether the swap action is enabled.
func (m RoomModel) CanSwap() bool {
	return m.connected && m.busy == "" && !m.state.Pending &&
		m.quantity > 0 && uint64(m.quantity) <= m.state.AvailableSupply
}

// CanWithdraw reports whether the owner panel's withdraw action is enabled.
func (m RoomModel) CanWithdraw() bool {
	return m.connected && m.state.IsCallerOwner && m.busy == "" && !m.state.Pending
}

func (m RoomModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.run("refresh", func(ctx context.Context) error {
		m.ctrl.Refresh(ctx)
		return nil
	}), m.tick()}
	if m.notices != nil {
		cmds = append(cmds, m.notices.next())
	}
	return tea.Batch(cmds...)
}

func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case roomTickMsg:
		m = m.snapshot()
		return m, m.tick()

	case snapshotMsg:
		return m.snapshot(), nil

	case opFinishedMsg:
		if msg.op == m.busy {
			m.busy = ""
		}
		if msg.err != nil && msg.op == "connect" {
			m.notice = &gacha.Notice{Level: gacha.LevelError, Text: "Connect failed: " + msg.err.Error()}
		}
		return m.snapshot(), nil

	case noticeMsg:
		n := gacha.Notice(msg)
		m.notice = &n
		return m, m.notices.next()
	}
	return m, nil
}

func (m RoomModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "c":
		if m.connected || m.busy != "" {
			return m, nil
		}
		m.busy = "connect"
		return m, m.run("connect", m.ctrl.Connect)

	case "r":
		if m.busy != "" {
			return m, nil
		}
		m.busy = "refresh"
		return m, m.run("refresh", func(ctx context.Context) error {
			m.ctrl.Refresh(ctx)
			return nil
		})

	case "up", "k", "+", "right", "l":
		m.quantity = gacha.ClampQuantity(m.quantity+1, m.state.AvailableSupply)

	case "down", "j", "-", "left", "h":
		m.quantity = gacha.ClampQuantity(m.quantity-1, m.state.AvailableSupply)

	case "backspace":
		m.quantity /= 10

	case "enter", "s":
		if !m.CanSwap() {
			return m, nil
		}
		count := m.quantity
		m.busy = "swap"
		m.notice = nil
		return m, m.run("swap", func(ctx context.Context) error {
			_, err := m.ctrl.Swap(ctx, count)
			return err
		})

	case "w":
		if !m.CanWithdraw() {
			return m, nil
		}
		m.busy = "withdraw"
		m.notice = nil
		return m, m.run("withdraw", func(ctx context.Context) error {
			_, err := m.ctrl.Withdraw(ctx)
			return err
		})

	default:
		if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			m.quantity = gacha.ClampQuantity(m.quantity*10+int(s[0]-'0'), m.state.AvailableSupply)
		}
	}
	return m, nil
}

// snapshot copies controller state into the model and re-clamps quantity.
func (m RoomModel) snapshot() RoomModel {
	m.state = m.ctrl.State()
	m.connected = m.ctrl.Connected()
	m.account = m.ctrl.Account()
	m.quantity = gacha.ClampQuantity(m.quantity, m.state.AvailableSupply)
	return m
}

func (m RoomModel) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opFinishedMsg{op: op, err: fn(ctx)}
	}
}

func (m RoomModel) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return roomTickMsg(t) })
}

func (m RoomModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(Banner())
	if m.connected {
		sb.WriteString("   " + StyleSuccess.Render("Connected") + " " + Addr(TruncateAddr(m.account.Hex())))
	} else {
		sb.WriteString("   " + button("[c] Connect Wallet", m.busy == ""))
	}
	sb.WriteString("\n\n")

	sym := m.ctrl.Symbol()
	sb.WriteString(KeyValueBlock("", [][2]string{
		{"Your " + sym, m.state.TokenBalance},
		{"Available NFTs", fmt.Sprintf("%d", m.state.AvailableSupply)},
	}))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Quantity  %s  %s\n\n",
		StyleValue.Render(fmt.Sprintf("◀ %d ▶", m.quantity)),
		Meta(fmt.Sprintf("max %d", m.state.AvailableSupply))))

	label := "[enter] Swap for " + m.ctrl.CostLabel(m.quantity)
	if m.busy == "swap" || m.state.Pending {
		label = "Swapping..."
	}
	sb.WriteString("  " + button(label, m.CanSwap()) + "\n")

	if m.connected && m.state.IsCallerOwner {
		sb.WriteString("\n")
		sb.WriteString(KeyValueBlock("Owner Panel", [][2]string{
			{"Contract " + sym, m.state.ContractTokenBalance},
		}))
		sb.WriteString("\n  " + button("[w] Withdraw "+sym, m.CanWithdraw()) + "\n")
	}

	if m.notice != nil {
		sb.WriteString("\n  " + Notice(*m.notice) + "\n")
	}

	sb.WriteString("\n" + Meta("  ↑↓/0-9 quantity · r refresh · q quit") + "\n")
	return sb.String()
}

func button(label string, enabled bool) string {
	if enabled {
		return StyleButton.Render(label)
	}
	return StyleButtonDisabled.Render(label)
}
