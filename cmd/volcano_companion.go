package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"tinygo.org/x/bluetooth"

	"github.com/tbarnes/volcano-companion/internal/bt"
	"github.com/tbarnes/volcano-companion/internal/config"
	"github.com/tbarnes/volcano-companion/internal/go_func_utils"
	"github.com/tbarnes/volcano-companion/internal/ui"
	"github.com/tbarnes/volcano-companion/internal/volcano"
)

func main() {
	fs := pflag.NewFlagSet("volcano-companion", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logFile := cfg.LogOutput()
	logger, err := cfg.NewLogger(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}

	var client bt.Client
	var mock *volcano.MockClient
	if cfg.Mock {
		logger.Info("running against simulated device")
		mock = volcano.NewMockClient()
		mock.SetRSSI(-58)
		client = mock
	} else {
		adapter := bluetooth.DefaultAdapter
		if err := adapter.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to enable BLE stack: %v\n", err)
			os.Exit(1)
		}
		client, err = bt.NewTinygoClient(adapter, cfg.DeviceAddress, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transport error: %v\n", err)
			os.Exit(1)
		}
	}

	coordinator := volcano.NewCoordinator(client, logger,
		volcano.WithPollInterval(cfg.PollInterval),
		volcano.WithRSSIInterval(cfg.RSSIInterval),
		volcano.WithReconnectInterval(cfg.ReconnectInterval),
	)

	dashboard := ui.NewDashboard(coordinator, logger)

	// Mirror log output into the dashboard's log pane alongside the file.
	logger.SetOutput(io.MultiWriter(logFile, dashboard.LogWriter()))

	stopCh := make(chan struct{})
	if mock != nil {
		go_func_utils.SafeGo(logger, func() { runMockSimulator(mock, stopCh) })
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go_func_utils.SafeGo(logger, func() {
		<-sigCh
		logger.Info("got signal, shutting down")
		dashboard.Stop()
	})

	coordinator.Start()

	if err := dashboard.Run(); err != nil {
		logger.Errorf("UI error: %v", err)
	}

	close(stopCh)
	coordinator.Stop()
	logger.Info("shutdown complete")
}

// runMockSimulator gives the simulated device some life: the heater ramps the
// temperature toward the last written setpoint, and control writes trigger
// pump/heat notifications the way the real firmware does.
func runMockSimulator(mock *volcano.MockClient, stopCh <-chan struct{}) {
	temperature := 21.0
	target := 180.0
	heatOn := false
	pumpOn := false
	seenWrites := 0

	notify := func() {
		pattern := [2]byte{0x00, 0x00}
		if heatOn {
			pattern[0] = 0x23
		}
		if pumpOn {
			pattern[1] = 0x30
		}
		mock.Notify(pattern[:])
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		writes := mock.Writes()
		for _, w := range writes[seenWrites:] {
			switch w.UUID {
			case volcano.CharUUIDHeatOn:
				heatOn = true
				notify()
			case volcano.CharUUIDHeatOff:
				heatOn = false
				notify()
			case volcano.CharUUIDPumpOn:
				pumpOn = true
				notify()
			case volcano.CharUUIDPumpOff:
				pumpOn = false
				notify()
			case volcano.CharUUIDHeaterSetpoint:
				if len(w.Data) >= 2 {
					target = float64(binary.LittleEndian.Uint16(w.Data)) / 10.0
				}
			}
		}
		seenWrites = len(writes)

		switch {
		case heatOn && temperature < target:
			temperature += 2.5
			if temperature > target {
				temperature = target
			}
		case !heatOn && temperature > 21.0:
			temperature -= 0.8
		}
		mock.SetTemperature(temperature)
	}
}
