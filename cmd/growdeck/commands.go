package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openkairo/growdeck/internal/config"
	"github.com/openkairo/growdeck/internal/discovery"
	"github.com/openkairo/growdeck/internal/growbox"
	"github.com/openkairo/growdeck/internal/hass"
	"github.com/openkairo/growdeck/internal/logging"
	"github.com/openkairo/growdeck/internal/panel"
	"github.com/openkairo/growdeck/internal/urls"
)

// Command flags
var (
	instanceURL string
	scanTimeout int
	logHours    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&instanceURL, "url", "", "Home Assistant base URL (skips discovery)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(panelCmd)
}

// panelCmd launches the interactive dashboard
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Launch the interactive grow box panel",
	Long: `Launch the full-screen terminal panel.

The panel shows every grow box chamber on the instance with live climate
gauges, light schedule state, and the growth phase day counter. The
Settings and Phases tabs stage configuration edits locally until saved.`,
	Example: `  # Launch against the default instance
  growdeck panel
  # Or simply (panel is default):
  growdeck

  # Launch against a specific instance
  growdeck panel --url http://homeassistant.local:8123`,
	RunE: runPanel,
}

func runPanel(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()

	p := tea.NewProgram(panel.New(client, logging.GetLogger()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	return nil
}

// scanCmd discovers Home Assistant instances on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Home Assistant instances on the network",
	Long: `Scan for Home Assistant instances using mDNS/DNS-SD discovery.

Lists every instance found with its base URL and version. Use
'growdeck auth' afterwards to store an access token for one of them.`,
	Example: `  # Scan with the default 5 second timeout
  growdeck scan

  # Longer scan for slow networks
  growdeck scan --timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout.Seconds()), "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for Home Assistant instances (timeout: %ds)...\n\n", scanTimeout)

	instances, err := discovery.ScanForInstances(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(instances) == 0 {
		fmt.Println("No instances found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check that this machine is on the same network as Home Assistant")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --url to specify the instance manually if discovery fails")
		fmt.Println("  - See " + urls.TroubleshootingGuide)
		return nil
	}

	fmt.Printf("Found %d instance(s):\n\n", len(instances))
	for i, inst := range instances {
		fmt.Printf("%d. %s\n", i+1, inst.String())
		fmt.Printf("   URL: %s\n\n", inst.BaseURL())
	}

	fmt.Println("Use 'growdeck auth --url <url>' to store an access token")
	return nil
}

// authCmd stores a long-lived access token for an instance
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store an access token for a Home Assistant instance",
	Long: `Store a long-lived access token for an instance.

Create the token in Home Assistant under your user profile (Security ->
Long-lived access tokens), then paste it at the prompt. The token is
verified against the instance before it is saved. The first authorized
instance becomes the default.`,
	Example: `  # Authorize the only instance on the network
  growdeck auth

  # Authorize a specific instance
  growdeck auth --url http://homeassistant.local:8123`,
	RunE: runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	baseURL, err := resolveBaseURL(cmd.Context(), registry)
	if err != nil {
		return err
	}

	fmt.Printf("Authorizing %s\n", baseURL)
	fmt.Print("Access token (input hidden): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	// Verify before saving
	client := hass.NewClient(baseURL, token)
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}
	serverVersion := client.ServerVersion()
	client.Close()

	registry.SetToken(baseURL, token)
	registry.UpdateInstanceSeen(baseURL, "", serverVersion)
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✓ Token stored for %s (Home Assistant %s)\n", baseURL, serverVersion)
	return nil
}

// devicesCmd lists the grow box chambers on the instance
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List grow box chambers on the instance",
	Example: `  # List chambers on the default instance
  growdeck devices`,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	vms, err := growbox.BuildViewModels(ctx, client, logging.GetLogger())
	if err != nil {
		return err
	}

	if len(vms) == 0 {
		fmt.Println("No grow boxes found on this instance.")
		fmt.Println("See " + urls.DeviceSetup)
		return nil
	}

	fmt.Printf("Found %d chamber(s):\n\n", len(vms))
	for i, vm := range vms {
		fmt.Printf("%d. %s\n", i+1, vm.Name)
		fmt.Printf("   Phase:    %s", vm.Phase().Label())
		if days, ok := growbox.DaysInPhase(vm.Options, time.Now()); ok {
			fmt.Printf(" (day %d)", days)
		}
		fmt.Println()
		fmt.Printf("   Device:   %s\n", vm.DeviceID)
		fmt.Printf("   Entry:    %s\n\n", vm.EntryID)
	}
	return nil
}

// logCmd prints the recent event log without launching the panel
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print recent grow box events",
	Long: `Print the recent event log for every chamber on the instance.

Events come from the Home Assistant logbook, filtered down to the
entities each chamber tracks.`,
	Example: `  # Events from the last 48 hours (default)
  growdeck log

  # Events from the last 6 hours
  growdeck log --hours 6`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVar(&logHours, "hours", int(growbox.DefaultLogLookback.Hours()), "Lookback window in hours")
}

func runLog(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()
	vms, err := growbox.BuildViewModels(ctx, client, logging.GetLogger())
	if err != nil {
		return err
	}

	var ids []string
	for _, vm := range vms {
		ids = append(ids, vm.TrackedEntities()...)
	}
	if len(ids) == 0 {
		fmt.Println("No grow boxes found on this instance.")
		return nil
	}

	start := time.Now().Add(-time.Duration(logHours) * time.Hour)
	events, err := client.Events(ctx, start, ids)
	if err != nil {
		return err
	}

	entries := growbox.FilterEvents(events, nil)
	if len(entries) == 0 {
		fmt.Printf("No events in the last %dh.\n", logHours)
		return nil
	}

	for _, entry := range entries {
		name := entry.Event.Name
		if name == "" {
			name = entry.Event.EntityID
		}
		detail := entry.Event.Message
		if detail == "" {
			detail = "-> " + entry.Event.State
		}
		fmt.Printf("%s  [%-5s]  %s %s\n",
			entry.When.Local().Format("Jan 02 15:04"), entry.Kind, name, detail)
	}
	return nil
}

// connectClient resolves the target instance, checks its stored token,
// and returns a connected client.
func connectClient(ctx context.Context) (*hass.Client, *config.Registry, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, nil, err
	}

	baseURL, err := resolveBaseURL(ctx, registry)
	if err != nil {
		return nil, nil, err
	}

	inst := registry.GetInstance(baseURL)
	if inst == nil || inst.Token == "" {
		return nil, nil, fmt.Errorf("no access token stored for %s. Run 'growdeck auth --url %s' first", baseURL, baseURL)
	}

	client := hass.NewClient(baseURL, inst.Token)
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Connect(dialCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", baseURL, err)
	}

	registry.UpdateInstanceSeen(baseURL, "", client.ServerVersion())
	if err := registry.Save(); err != nil {
		logging.Warn("Could not update config registry")
	}
	return client, registry, nil
}

// resolveBaseURL picks the target instance: the --url flag, then the
// configured default, then network discovery.
func resolveBaseURL(ctx context.Context, registry *config.Registry) (string, error) {
	if instanceURL != "" {
		return strings.TrimRight(instanceURL, "/"), nil
	}

	if url, _ := registry.DefaultInstance(); url != "" {
		return url, nil
	}

	if !registry.Preferences.AutoDiscover {
		return "", fmt.Errorf("no instance configured. Use --url or run 'growdeck scan'")
	}

	fmt.Println("No instance configured, attempting auto-discovery...")
	timeout := time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	inst, err := discovery.NewScanner().FirstInstance(scanCtx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w. Use --url to specify the instance manually", err)
	}

	fmt.Printf("Found %s\n\n", inst.String())
	registry.EnsureInstance(inst.BaseURL())
	registry.UpdateInstanceSeen(inst.BaseURL(), inst.Name, inst.Version)
	return inst.BaseURL(), nil
}
