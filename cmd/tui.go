// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pelorus Project

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pelorus-gnss/pelorus/pkg/sbf"
)

var (
	tuiDynamics    uint8
	tuiNoConfigure bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Full-screen live navigation dashboard",
	Long: `Run the configuration handshake, then display a full-screen dashboard
with the current position solution, DOP and a satellite visibility table,
updated as navigation cycles complete.

Use --no-configure for receivers that are already streaming SBF.

Supports both serial and WebSocket connections.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Uint8Var(&tuiDynamics, "dynamics", 7, "Receiver dynamics parameter")
	tuiCmd.Flags().BoolVar(&tuiNoConfigure, "no-configure", false, "Skip the configuration handshake")
	rootCmd.AddCommand(tuiCmd)
}

// Messages from the receiver goroutine
type snapshotMsg struct {
	pos    sbf.PositionFix
	sats   sbf.SatelliteInfo
	result sbf.Result
}
type statusMsg string
type receiverErrMsg struct{ err error }

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tuiModel struct {
	connInfo string
	status   string

	pos     sbf.PositionFix
	havePos bool
	sats    sbf.SatelliteInfo
	cycles  uint64

	satTable table.Model

	width    int
	height   int
	quitting bool
}

func newTUIModel(connInfo string) tuiModel {
	columns := []table.Column{
		{Title: "SV", Width: 4},
		{Title: "Used", Width: 5},
		{Title: "Elev", Width: 5},
		{Title: "Az", Width: 5},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(sbf.MaxSatellites),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return tuiModel{
		connInfo: connInfo,
		status:   "waiting for receiver",
		satTable: t,
		width:    80,
		height:   24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case statusMsg:
		m.status = string(msg)

	case receiverErrMsg:
		m.status = fmt.Sprintf("receiver error: %v", msg.err)

	case snapshotMsg:
		if msg.result&sbf.ResultNav != 0 {
			m.cycles++
		}
		m.pos = msg.pos
		m.havePos = true
		m.sats = msg.sats
		m.status = "tracking"

		rows := make([]table.Row, 0, m.sats.Count)
		for i := 0; i < m.sats.Count; i++ {
			sat := m.sats.Satellites[i]
			used := ""
			if sat.Used {
				used = "yes"
			}
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", sat.SVID),
				used,
				fmt.Sprintf("%d°", sat.Elevation),
				fmt.Sprintf("%d°", sat.Azimuth),
			})
		}
		m.satTable.SetRows(rows)
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	title := titleStyle.Render("Pelorus - SBF Navigation Dashboard")
	conn := labelStyle.Render(m.connInfo) + "  " + statusStyle.Render(m.status)

	position := m.positionPanel()
	satellites := panelStyle.Render("Satellites\n" + m.satTable.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, position, " ", satellites)
	help := helpStyle.Render("q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, conn, "", body, "", help)
}

func (m tuiModel) positionPanel() string {
	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-12s", label)) + valueStyle.Render(value)
	}

	if !m.havePos {
		return panelStyle.Render("Position\n" + labelStyle.Render("no fix yet"))
	}

	utc := "-"
	if m.pos.TimeUTCMicros > 0 {
		utc = time.UnixMicro(int64(m.pos.TimeUTCMicros)).UTC().Format("15:04:05.000")
	}

	content := "Position\n" +
		line("Fix", m.pos.FixType.String()) + "\n" +
		line("Latitude", fmt.Sprintf("%.7f°", m.pos.Latitude)) + "\n" +
		line("Longitude", fmt.Sprintf("%.7f°", m.pos.Longitude)) + "\n" +
		line("Altitude", fmt.Sprintf("%.2f m", m.pos.Altitude)) + "\n" +
		line("Speed", fmt.Sprintf("%.2f m/s", m.pos.Speed)) + "\n" +
		line("Vel NED", fmt.Sprintf("%.2f %.2f %.2f", m.pos.VelN, m.pos.VelE, m.pos.VelD)) + "\n" +
		line("HDOP/VDOP", fmt.Sprintf("%.2f / %.2f", m.pos.HDOP, m.pos.VDOP)) + "\n" +
		line("Accuracy", fmt.Sprintf("±%.2f m H, ±%.2f m V", m.pos.EpH, m.pos.EpV)) + "\n" +
		line("Sats used", fmt.Sprintf("%d", m.pos.SatellitesUsed)) + "\n" +
		line("UTC", utc) + "\n" +
		line("Cycles", fmt.Sprintf("%d", m.cycles))

	return panelStyle.Render(content)
}

func runTUI(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	m := newTUIModel(connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go pollReceiver(p, conn)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// pollReceiver drives the SBF driver and feeds snapshots to the TUI.
// The driver is single-threaded; this goroutine is its only owner.
func pollReceiver(p *tea.Program, conn Connection) {
	driver := sbf.NewDriver(conn, nil)

	if !tuiNoConfigure {
		p.Send(statusMsg("configuring receiver..."))
		baud, err := driver.Configure(tuiDynamics)
		if err != nil {
			p.Send(receiverErrMsg{err})
			return
		}
		p.Send(statusMsg(fmt.Sprintf("configured at %d baud", baud)))
	}

	var pos sbf.PositionFix
	var sats sbf.SatelliteInfo

	for {
		result, err := driver.Receive(2*time.Second, &pos, &sats)
		if err != nil {
			if errors.Is(err, sbf.ErrTimeout) {
				p.Send(statusMsg("waiting for data..."))
				continue
			}
			p.Send(receiverErrMsg{err})
			return
		}
		p.Send(snapshotMsg{pos: pos, sats: sats, result: result})
	}
}
