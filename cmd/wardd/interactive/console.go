// Package interactive provides the interactive command-line interface
// for the daemon.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ward-project/ward-go/pkg/arbiter"
	"github.com/ward-project/ward-go/pkg/driver"
	"github.com/ward-project/ward-go/pkg/ifacelist"
	"github.com/ward-project/ward-go/pkg/provision"
	"github.com/ward-project/ward-go/pkg/scanproxy"
	"github.com/ward-project/ward-go/pkg/settings"
	"github.com/ward-project/ward-go/pkg/supervisor"
)

// Deps provides the console access to the daemon components.
type Deps struct {
	Settings   *settings.Store
	Arbiter    *arbiter.Arbiter
	Supervisor *supervisor.Supervisor
	Scans      *scanproxy.Proxy
	Ifaces     *ifacelist.List
	Profiles   *provision.Store

	// Crash terminates the simulated hardware service incarnation.
	// Nil when running against real hardware.
	Crash func()

	// Fail injects a hardware failure callback. Nil when unavailable.
	Fail func()
}

// Console handles interactive mode for wardd.
type Console struct {
	deps Deps
	rl   *readline.Instance
}

// New creates a new interactive console.
func New(deps Deps) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ward> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{deps: deps, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "toggle", "wifi":
			c.cmdToggle(args)

		case "airplane":
			c.cmdAirplane(args)

		case "scan":
			c.cmdScanAlways(args)

		case "location":
			c.cmdLocation(args)

		case "ap":
			c.cmdAP(args)

		case "ecm":
			c.cmdEcm(args)

		case "call":
			c.cmdCall(args)

		case "recover":
			c.cmdRecover(args)

		case "crash":
			c.cmdCrash()

		case "fail":
			c.cmdFail()

		case "scanreq":
			c.cmdScanReq()

		case "profiles":
			c.cmdProfiles()

		case "status", "dump":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
WARD Daemon Commands:
  Settings:
    toggle on|off        - Flip the user wifi toggle
    airplane on|off      - Flip airplane mode
    scan on|off          - Flip the scan-always setting
    location off|sensors|battery|high - Set the location mode

  Access Point:
    ap start [ssid] [2g|5g] [channel] - Request the access point
    ap stop                           - Stop the access point

  Emergency:
    ecm on|off           - Enter/leave emergency mode
    call on|off          - Start/end an emergency call

  Failure Injection:
    recover restart [hal|iface|watchdog] - Trigger restart recovery
    recover disable                      - Trigger disable recovery
    crash                - Kill the simulated hardware service
    fail                 - Inject a hardware failure callback

  General:
    scanreq              - Issue a scan request through the proxy
    profiles             - List saved network profiles
    status               - Show daemon state
    help                 - Show this help
    quit                 - Exit`)
}

// parseOnOff parses an on/off argument.
func parseOnOff(args []string) (bool, error) {
	if len(args) < 1 {
		return false, fmt.Errorf("expected on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", args[0])
	}
}

func (c *Console) cmdToggle(args []string) {
	on, err := parseOnOff(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Usage: toggle on|off (%v)\n", err)
		return
	}
	c.deps.Settings.SetWifiEnabled(on)
	c.deps.Arbiter.SendWifiToggled()
	fmt.Fprintf(c.rl.Stdout(), "Wifi toggle: %v\n", on)
}

func (c *Console) cmdAirplane(args []string) {
	on, err := parseOnOff(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Usage: airplane on|off (%v)\n", err)
		return
	}
	c.deps.Settings.SetAirplaneMode(on)
	c.deps.Arbiter.SendAirplaneToggled()
	fmt.Fprintf(c.rl.Stdout(), "Airplane mode: %v\n", on)
}

func (c *Console) cmdScanAlways(args []string) {
	on, err := parseOnOff(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Usage: scan on|off (%v)\n", err)
		return
	}
	c.deps.Settings.SetScanAlwaysAvailable(on)
	c.deps.Arbiter.SendScanAlwaysChanged()
	fmt.Fprintf(c.rl.Stdout(), "Scan-always: %v\n", on)
}

func (c *Console) cmdLocation(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: location off|sensors|battery|high")
		return
	}

	var mode settings.LocationMode
	switch strings.ToLower(args[0]) {
	case "off":
		mode = settings.LocationModeOff
	case "sensors":
		mode = settings.LocationModeSensorsOnly
	case "battery":
		mode = settings.LocationModeBatterySaving
	case "high":
		mode = settings.LocationModeHighAccuracy
	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown location mode: %s\n", args[0])
		return
	}

	c.deps.Settings.SetLocationMode(mode)
	c.deps.Arbiter.SendLocationModeChanged()
	fmt.Fprintf(c.rl.Stdout(), "Location mode: %s\n", mode)
}

func (c *Console) cmdAP(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: ap start [ssid] [2g|5g] [channel] | ap stop")
		return
	}

	switch strings.ToLower(args[0]) {
	case "stop", "off":
		c.deps.Arbiter.SendSetAP(false, driver.SoftApConfig{})
		fmt.Fprintln(c.rl.Stdout(), "Access point stop requested")
		return
	case "start", "on":
	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown ap subcommand: %s\n", args[0])
		return
	}

	cfg := driver.SoftApConfig{SSID: "ward-ap", Band: driver.BandAny}
	if len(args) >= 2 {
		cfg.SSID = args[1]
	}
	if len(args) >= 3 {
		switch strings.ToLower(args[2]) {
		case "2g":
			cfg.Band = driver.Band2GHz
		case "5g":
			cfg.Band = driver.Band5GHz
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown band: %s\n", args[2])
			return
		}
	}
	if len(args) >= 4 {
		channel, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Invalid channel: %v\n", err)
			return
		}
		cfg.Channel = channel
	}

	c.deps.Arbiter.SendSetAP(true, cfg)
	fmt.Fprintf(c.rl.Stdout(), "Access point requested: ssid=%s band=%s\n", cfg.SSID, cfg.Band)
}

func (c *Console) cmdEcm(args []string) {
	on, err := parseOnOff(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Usage: ecm on|off (%v)\n", err)
		return
	}
	c.deps.Arbiter.SendEmergencyMode(on)
	fmt.Fprintf(c.rl.Stdout(), "Emergency mode: %v\n", on)
}

func (c *Console) cmdCall(args []string) {
	on, err := parseOnOff(args)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Usage: call on|off (%v)\n", err)
		return
	}
	c.deps.Arbiter.SendEmergencyCall(on)
	fmt.Fprintf(c.rl.Stdout(), "Emergency call: %v\n", on)
}

func (c *Console) cmdRecover(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: recover restart [hal|iface|watchdog] | recover disable")
		return
	}

	switch strings.ToLower(args[0]) {
	case "disable":
		c.deps.Arbiter.SendRecoveryDisable()
		fmt.Fprintln(c.rl.Stdout(), "Disable recovery requested")

	case "restart":
		reason := arbiter.ReasonWatchdog
		if len(args) >= 2 {
			switch strings.ToLower(args[1]) {
			case "hal":
				reason = arbiter.ReasonHalFailure
			case "iface":
				reason = arbiter.ReasonIfaceDown
			case "watchdog":
				reason = arbiter.ReasonWatchdog
			default:
				fmt.Fprintf(c.rl.Stdout(), "Unknown reason: %s\n", args[1])
				return
			}
		}
		c.deps.Arbiter.SendRecoveryRestart(reason)
		fmt.Fprintf(c.rl.Stdout(), "Restart recovery requested: %s\n", reason)

	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown recover subcommand: %s\n", args[0])
	}
}

func (c *Console) cmdCrash() {
	if c.deps.Crash == nil {
		fmt.Fprintln(c.rl.Stdout(), "Crash injection not available")
		return
	}
	c.deps.Crash()
	fmt.Fprintln(c.rl.Stdout(), "Hardware service crashed")
}

func (c *Console) cmdFail() {
	if c.deps.Fail == nil {
		fmt.Fprintln(c.rl.Stdout(), "Failure injection not available")
		return
	}
	c.deps.Fail()
	fmt.Fprintln(c.rl.Stdout(), "Hardware failure injected")
}

func (c *Console) cmdScanReq() {
	if c.deps.Scans.StartScan(0) {
		fmt.Fprintln(c.rl.Stdout(), "Scan forwarded")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Scan dropped")
	}
}

func (c *Console) cmdProfiles() {
	profiles := c.deps.Profiles.All()
	if len(profiles) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No saved profiles")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nSaved Profiles (%d):\n", len(profiles))
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	for _, p := range profiles {
		hidden := ""
		if p.Hidden {
			hidden = " (hidden)"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %-24s %-6s priority=%d%s\n", p.SSID, p.Security, p.Priority, hidden)
	}
	fmt.Fprintln(c.rl.Stdout())
}

func (c *Console) cmdStatus() {
	arb := c.deps.Arbiter.Dump()
	sup := c.deps.Supervisor.Dump()
	store := c.deps.Settings
	stats := c.deps.Scans.Stats()

	fmt.Fprintln(c.rl.Stdout(), "\nDaemon Status")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Mode:            %s\n", arb.Mode)
	fmt.Fprintf(c.rl.Stdout(), "  Supervisor:      %s\n", sup.State)
	fmt.Fprintf(c.rl.Stdout(), "  Hardware:        present=%v started=%v wanted=%v\n",
		sup.ServicePresent, sup.Started, sup.WantStarted)
	fmt.Fprintf(c.rl.Stdout(), "  Wifi toggle:     %v\n", store.WifiEnabled())
	fmt.Fprintf(c.rl.Stdout(), "  Airplane mode:   %v\n", store.AirplaneModeOn())
	fmt.Fprintf(c.rl.Stdout(), "  Scan-always:     %v\n", store.ScanAlwaysAvailable())
	fmt.Fprintf(c.rl.Stdout(), "  Location mode:   %s\n", store.LocationMode())
	fmt.Fprintf(c.rl.Stdout(), "  Emergency:       mode=%d call=%d\n", arb.EcmModeCount, arb.EcmCallCount)
	fmt.Fprintf(c.rl.Stdout(), "  Deferred toggle: %v\n", arb.DeferredPending)
	fmt.Fprintf(c.rl.Stdout(), "  Scan proxy:      enabled=%v forwarded=%d dropped=%d\n",
		c.deps.Scans.Enabled(), stats.Forwarded, stats.Dropped)
	fmt.Fprintf(c.rl.Stdout(), "  Interfaces:      %v\n", c.deps.Ifaces.Names())
	fmt.Fprintln(c.rl.Stdout())
}
