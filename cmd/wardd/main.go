// Command wardd is the wireless arbitration and recovery daemon.
//
// The daemon supervises the radio hardware abstraction service,
// arbitrates the radio operating mode from user settings and runtime
// events, and recovers from hardware crashes. By default it runs
// against an in-process simulated hardware service and offers an
// interactive console for driving inputs.
//
// Usage:
//
//	wardd [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Append domain events to this file (CBOR)
//	-instance string   Hardware service instance name (default "ward-hal-sim")
//	-mdns              Discover the hardware service over mDNS
//	-profiles string   Load saved network profiles from this YAML file
//	-no-console        Run without the interactive console
//
// Examples:
//
//	# Run with the interactive console and debug logging
//	wardd -log-level debug
//
//	# Run headless with an event log
//	wardd -no-console -event-log /var/log/wardd.events
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ward-project/ward-go/cmd/wardd/interactive"
	"github.com/ward-project/ward-go/pkg/arbiter"
	"github.com/ward-project/ward-go/pkg/config"
	"github.com/ward-project/ward-go/pkg/discovery"
	"github.com/ward-project/ward-go/pkg/driver"
	"github.com/ward-project/ward-go/pkg/executor"
	"github.com/ward-project/ward-go/pkg/hal"
	"github.com/ward-project/ward-go/pkg/ifacelist"
	wlog "github.com/ward-project/ward-go/pkg/log"
	"github.com/ward-project/ward-go/pkg/provision"
	"github.com/ward-project/ward-go/pkg/scanproxy"
	"github.com/ward-project/ward-go/pkg/settings"
	"github.com/ward-project/ward-go/pkg/sim"
	"github.com/ward-project/ward-go/pkg/supervisor"
)

var flags struct {
	configFile string
	logLevel   string
	eventLog   string
	instance   string
	mdns       bool
	profiles   string
	noConsole  bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.eventLog, "event-log", "", "Append domain events to this file (CBOR)")
	flag.StringVar(&flags.instance, "instance", "ward-hal-sim", "Hardware service instance name")
	flag.BoolVar(&flags.mdns, "mdns", false, "Discover the hardware service over mDNS")
	flag.StringVar(&flags.profiles, "profiles", "", "Load saved network profiles from this YAML file")
	flag.BoolVar(&flags.noConsole, "no-console", false, "Run without the interactive console")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wardd: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	events, closeEvents, err := newEventLog(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wardd: %v\n", err)
		os.Exit(1)
	}
	defer closeEvents()

	logger.Info("wardd starting",
		"instance", flags.instance, "mdns", flags.mdns, "config", flags.configFile)

	store := settings.NewStore()

	profiles := provision.NewStore()
	if flags.profiles != "" {
		if err := profiles.LoadFile(flags.profiles); err != nil {
			logger.Error("failed to load profiles", "error", err)
			os.Exit(1)
		}
		logger.Info("profiles loaded", "count", profiles.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Simulated hardware and a registry to find it through. With -mdns
	// the daemon announces the instance and discovers it back over real
	// mDNS; the dial still lands on the in-process simulation.
	simReg := sim.NewRegistry(cfg.Discovery.Service)
	simCtl := sim.NewController(simReg, flags.instance, cfg.StartLag())

	registry, announcer, err := buildRegistry(ctx, cfg, simReg, logger)
	if err != nil {
		logger.Error("failed to build registry", "error", err)
		os.Exit(1)
	}
	if announcer != nil {
		defer announcer.Shutdown()
	}

	sup := supervisor.New(registry, supervisor.Config{
		Service:  cfg.Discovery.Service,
		Instance: flags.instance,
		Logger:   logger.With("component", "supervisor"),
		EventLog: events,
	})
	defer sup.Close()

	scans := scanproxy.New(scanproxy.ForwarderFunc(func(requester int) bool {
		return sup.Started()
	}), logger.With("component", "scanproxy"))

	ifaces := ifacelist.New()
	statusExec := executor.NewSerial()
	defer statusExec.Stop()
	sup.RegisterStatusCallback(&ifaceTracker{ifaces: ifaces, logger: logger}, statusExec)

	reportExec := executor.NewSerial()
	defer reportExec.Stop()

	arb := arbiter.New(store, &supervisorDriver{sup: sup, scans: scans, logger: logger}, arbiter.Config{
		ReenableDelay:    cfg.ReenableDelay(),
		DeferMargin:      cfg.DeferMargin(),
		DisableWifiInECM: cfg.DisableWifiInECM,
		Reporter:         &logReporter{logger: logger, events: events},
		ReportExec:       reportExec,
		Logger:           logger.With("component", "arbiter"),
		EventLog:         events,
	})

	sup.Initialize()
	simCtl.Spawn()
	if announcer != nil {
		if err := announcer.Announce(flags.instance, cfg.Discovery.Port, nil); err != nil {
			logger.Error("failed to announce hardware service", "error", err)
		}
	}
	arb.Start()
	defer arb.Stop()

	if flags.noConsole {
		waitForSignal(logger)
		return
	}

	console, err := interactive.New(interactive.Deps{
		Settings:   store,
		Arbiter:    arb,
		Supervisor: sup,
		Scans:      scans,
		Ifaces:     ifaces,
		Profiles:   profiles,
		Crash:      simCtl.Crash,
		Fail:       func() { simCtl.Fail(hal.StatusUnknownError) },
	})
	if err != nil {
		logger.Error("failed to start console", "error", err)
		os.Exit(1)
	}
	console.Run(ctx, cancel)

	logger.Info("wardd shutting down")
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		cfg, err = config.Load(flags.configFile)
		if err != nil {
			return cfg, err
		}
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.eventLog != "" {
		cfg.EventLogPath = flags.eventLog
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newEventLog(cfg config.Config, logger *slog.Logger) (wlog.Logger, func(), error) {
	loggers := []wlog.Logger{wlog.NewSlogAdapter(logger)}
	closeFn := func() {}

	if cfg.EventLogPath != "" {
		fileLog, err := wlog.NewFileLogger(cfg.EventLogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event log: %w", err)
		}
		loggers = append(loggers, fileLog)
		closeFn = func() { _ = fileLog.Close() }
	}

	return wlog.NewMultiLogger(loggers...), closeFn, nil
}

// buildRegistry returns the hardware service registry and, when mDNS
// is enabled, the announcer publishing the simulated instance.
func buildRegistry(ctx context.Context, cfg config.Config, simReg *sim.Registry, logger *slog.Logger) (hal.Registry, *discovery.Announcer, error) {
	if !flags.mdns {
		return simReg, nil, nil
	}

	mdnsReg, err := discovery.NewMDNSRegistry(discovery.RegistryConfig{
		Service: cfg.Discovery.Service,
		Domain:  cfg.Discovery.Domain,
		Connector: func(entry discovery.ServiceEntry) (hal.HardwareService, error) {
			return simReg.Service(cfg.Discovery.Service, entry.Instance)
		},
		Logger: logger.With("component", "discovery"),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := mdnsReg.Start(ctx); err != nil {
		return nil, nil, err
	}

	announcer := discovery.NewAnnouncer(discovery.AnnouncerConfig{
		Service: cfg.Discovery.Service,
		Domain:  cfg.Discovery.Domain,
	})
	return mdnsReg, announcer, nil
}

func waitForSignal(logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())
}

// supervisorDriver maps arbiter mode decisions onto the supervisor and
// the scan gate. Client, scan-only and access point operation all need
// the hardware up; they differ in what the daemon permits on top.
type supervisorDriver struct {
	sup    *supervisor.Supervisor
	scans  *scanproxy.Proxy
	logger *slog.Logger
}

func (d *supervisorDriver) EnterClientMode() {
	d.scans.SetEnabled(true)
	d.sup.Start()
}

func (d *supervisorDriver) EnterScanOnlyMode() {
	d.scans.SetEnabled(true)
	d.sup.Start()
}

func (d *supervisorDriver) EnterSoftApMode(cfg driver.SoftApConfig) {
	d.logger.Info("access point mode",
		"ssid", cfg.SSID, "band", cfg.Band, "channel", cfg.Channel)
	d.scans.SetEnabled(false)
	d.sup.Start()
}

func (d *supervisorDriver) DisableWifi() {
	d.scans.SetEnabled(false)
	d.sup.Stop()
}

var _ driver.ModeDriver = (*supervisorDriver)(nil)

// ifaceTracker keeps the interface list in step with hardware status.
type ifaceTracker struct {
	ifaces *ifacelist.List
	logger *slog.Logger
}

func (t *ifaceTracker) OnStarted() {
	if t.ifaces.Add("wlan0") {
		t.logger.Info("interface up", "iface", "wlan0")
	}
}

func (t *ifaceTracker) OnStopped() {
	if t.ifaces.Remove("wlan0") {
		t.logger.Info("interface down", "iface", "wlan0")
	}
}

// logReporter records diagnostics requests in the logs.
type logReporter struct {
	logger *slog.Logger
	events wlog.Logger
}

func (r *logReporter) TakeReport(title, detail string) {
	r.logger.Error("diagnostics report requested", "title", title, "detail", detail)
	r.events.Log(wlog.Failure(wlog.ComponentDaemon, title, detail))
}
