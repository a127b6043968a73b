package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/tbarnes/volcano-companion/internal/go_func_utils"
	"github.com/tbarnes/volcano-companion/internal/volcano"
)

// Dashboard is the terminal front end: a status panel rendered from
// coordinator snapshots and a log tail. It registers itself as a coordinator
// observer; the observer callback only pokes a refresh channel, and a
// dedicated goroutine performs the actual redraw so fan-out never blocks on
// the terminal.
type Dashboard struct {
	logger      *logrus.Logger
	coordinator *volcano.Coordinator

	app         *tview.Application
	statusView  *tview.TextView
	logView     *tview.TextView
	refreshCh   chan struct{}
	stopRefresh chan struct{}

	// Local setpoint tracked for the +/- key bindings; the device does not
	// report its setpoint back, so the dashboard remembers the last one sent.
	setpoint float64
}

var _ volcano.Observer = (*Dashboard)(nil)

// NewDashboard creates the dashboard. Run must be called from the main
// goroutine.
func NewDashboard(coordinator *volcano.Coordinator, logger *logrus.Logger) *Dashboard {
	if coordinator == nil {
		panic("Dashboard: coordinator cannot be nil")
	}
	if logger == nil {
		panic("Dashboard: logger cannot be nil")
	}
	d := &Dashboard{
		logger:      logger,
		coordinator: coordinator,
		app:         tview.NewApplication(),
		refreshCh:   make(chan struct{}, 1),
		stopRefresh: make(chan struct{}),
		setpoint:    180.0,
	}

	d.statusView = tview.NewTextView().SetDynamicColors(true)
	d.statusView.SetBorder(true).SetTitle(" Volcano ")

	d.logView = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(false).
		SetMaxLines(500)
	d.logView.SetBorder(true).SetTitle(" Logs ")

	return d
}

// DeviceStateChanged implements volcano.Observer. It runs on the
// coordinator's goroutine and must not block, so it only marks the dashboard
// dirty.
func (d *Dashboard) DeviceStateChanged() {
	select {
	case d.refreshCh <- struct{}{}:
	default:
	}
}

// Stop terminates the UI event loop from another goroutine.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

// LogWriter returns a writer that mirrors log output into the log pane. The
// pane is only redrawn by the refresh loop, so writes never force a draw.
func (d *Dashboard) LogWriter() *tview.TextView {
	return d.logView
}

// Run builds the layout, registers the observer and blocks until the user
// quits.
func (d *Dashboard) Run() error {
	help := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	help.SetText("[yellow]c[white] Connect  [yellow]d[white] Disconnect  [yellow]p/P[white] Pump On/Off  [yellow]h/H[white] Heat On/Off  [yellow]+/-[white] Setpoint  [yellow]v/V[white] Vibration  [yellow]q[white] Quit")

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.statusView, 0, 1, false).
		AddItem(help, 3, 0, false)

	root := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(d.logView, 0, 1, false)

	d.app.SetInputCapture(d.handleKey)

	d.coordinator.RegisterObserver(d)
	defer d.coordinator.UnregisterObserver(d)

	go_func_utils.SafeGo(d.logger, d.refreshLoop)
	defer close(d.stopRefresh)

	d.render(d.coordinator.State())
	return d.app.SetRoot(root, true).Run()
}

// refreshLoop redraws on state changes, with a slow ticker so the log pane
// stays current even while the device state is quiet.
func (d *Dashboard) refreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopRefresh:
			return
		case <-d.refreshCh:
		case <-ticker.C:
		}
		state := d.coordinator.State()
		d.app.QueueUpdateDraw(func() {
			d.render(state)
		})
	}
}

func (d *Dashboard) render(state volcano.DeviceState) {
	temperature := "--.-"
	if state.Temperature != nil {
		temperature = fmt.Sprintf("%5.1f", *state.Temperature)
	}
	rssi := "n/a"
	if state.RSSI != nil {
		rssi = fmt.Sprintf("%d dBm", *state.RSSI)
	}

	statusColor := "red"
	switch state.Status {
	case volcano.StatusConnected:
		statusColor = "green"
	case volcano.StatusConnecting:
		statusColor = "yellow"
	}

	text := fmt.Sprintf(
		"[white]Status:      [%s]%s[white]\n\n"+
			"Temperature: [aqua]%s °C[white]\n"+
			"Setpoint:    %.1f °C\n"+
			"Heat:        %s\n"+
			"Pump:        %s\n"+
			"Signal:      %s\n",
		statusColor, state.Status, temperature, d.setpoint, state.Heat, state.Pump, rssi)

	if info := state.Info; info.SerialNumber != "" {
		text += fmt.Sprintf("\n[gray]S/N %s  FW %s  BLE %s[white]\n",
			info.SerialNumber, info.FirmwareVersion, info.BLEFirmwareVersion)
		if info.HoursOfOperation != nil && info.MinutesOfOperation != nil {
			text += fmt.Sprintf("[gray]Runtime %dh%02dm[white]\n",
				*info.HoursOfOperation, *info.MinutesOfOperation)
		}
	}
	if state.LastError != "" {
		text += fmt.Sprintf("\n[red]Last error: %s[white]\n", state.LastError)
	}

	d.statusView.SetText(text)
}

func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q':
		d.app.Stop()
		return nil
	case 'c':
		d.coordinator.UserConnect()
		return nil
	case 'd':
		d.coordinator.UserDisconnect()
		return nil
	case 'p':
		d.coordinator.PumpOn()
		return nil
	case 'P':
		d.coordinator.PumpOff()
		return nil
	case 'h':
		d.coordinator.HeatOn()
		return nil
	case 'H':
		d.coordinator.HeatOff()
		return nil
	case 'v':
		d.coordinator.SetVibration(true)
		return nil
	case 'V':
		d.coordinator.SetVibration(false)
		return nil
	case '+', '=':
		d.adjustSetpoint(5.0)
		return nil
	case '-', '_':
		d.adjustSetpoint(-5.0)
		return nil
	}
	return event
}

func (d *Dashboard) adjustSetpoint(delta float64) {
	d.setpoint += delta
	if d.setpoint < volcano.MinTargetTemperature {
		d.setpoint = volcano.MinTargetTemperature
	}
	if d.setpoint > volcano.MaxTargetTemperature {
		d.setpoint = volcano.MaxTargetTemperature
	}
	d.coordinator.SetTargetTemperature(d.setpoint)
	d.DeviceStateChanged()
}
