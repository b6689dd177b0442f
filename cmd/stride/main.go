package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/stridewm/stride/internal/borders"
	"github.com/stridewm/stride/internal/bridge"
	"github.com/stridewm/stride/internal/client"
	strideConfig "github.com/stridewm/stride/internal/config"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/manager"
	"github.com/stridewm/stride/internal/observer"
	"github.com/stridewm/stride/internal/output"
	"github.com/stridewm/stride/internal/server"
	strideState "github.com/stridewm/stride/internal/state"
	"github.com/stridewm/stride/internal/types"
)

var (
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
	debugMode  bool

	// Color functions
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride - macOS tiling window manager",
	Long: `Stride is a tiling window manager daemon and its command-line client.

Run the daemon with "stride run", then use the other commands to query
workspaces and windows, switch workspaces, change layouts, and move focus.`,
	Version: "0.1.0",
}

// Run command flags
var runConfigPath string

// runCmd starts the daemon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tiling daemon",
	Long: `Starts the tiling daemon: connects to the window-server bridge, adopts
the windows already on screen, and serves the IPC socket until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(runConfigPath)
	},
}

// pingCmd tests daemon connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		start := time.Now()
		if err := c.Ping(context.Background()); err != nil {
			printError(fmt.Sprintf("Ping failed: %v", err))
			return err
		}
		elapsed := time.Since(start)

		if jsonOutput {
			return printJSON(map[string]interface{}{"ok": true, "elapsedMs": elapsed.Milliseconds()})
		}
		successColor.Println("✓ Pong received")
		fmt.Printf("Response time: %v\n", elapsed)
		return nil
	},
}

// listCmd is the parent command for listing resources
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces, windows, or screens",
}

var listWorkspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"ws"},
	Short:   "List all workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		workspaces, err := c.Workspaces(context.Background())
		if err != nil {
			printError(fmt.Sprintf("Failed to list workspaces: %v", err))
			return err
		}
		if jsonOutput {
			return printJSON(workspaces)
		}
		output.PrintWorkspacesTable(workspaces)
		return nil
	},
}

var listWindowsWorkspace string

var listWindowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List windows on a workspace (default: focused workspace)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		windows, err := c.Windows(context.Background(), listWindowsWorkspace)
		if err != nil {
			printError(fmt.Sprintf("Failed to list windows: %v", err))
			return err
		}
		if jsonOutput {
			return printJSON(windows)
		}
		output.PrintWindowsTable(windows)
		return nil
	},
}

var listScreensCmd = &cobra.Command{
	Use:   "screens",
	Short: "List screens",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		screens, err := c.Screens(context.Background())
		if err != nil {
			printError(fmt.Sprintf("Failed to list screens: %v", err))
			return err
		}
		if jsonOutput {
			return printJSON(screens)
		}
		output.PrintScreensTable(screens)
		return nil
	},
}

// focusedCmd shows the focused window
var focusedCmd = &cobra.Command{
	Use:   "focused",
	Short: "Show the focused window",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		win, err := c.FocusedWindow(context.Background())
		if err != nil {
			printError(fmt.Sprintf("Failed to get focused window: %v", err))
			return err
		}
		if jsonOutput {
			return printJSON(win)
		}
		output.PrintFocusedWindow(win)
		return nil
	},
}

// workspaceCmd switches workspaces
var workspaceCmd = &cobra.Command{
	Use:     "workspace <name>",
	Aliases: []string{"ws"},
	Short:   "Switch to a workspace",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.SwitchWorkspace(context.Background(), args[0]); err != nil {
			printError(fmt.Sprintf("Failed to switch workspace: %v", err))
			return err
		}
		successColor.Printf("✓ Switched to workspace %s\n", args[0])
		return nil
	},
}

// Move command flags
var moveWindowID uint32

// moveCmd sends a window to a workspace
var moveCmd = &cobra.Command{
	Use:   "move <workspace>",
	Short: "Move a window to a workspace (default: focused window)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.MoveWindow(context.Background(), types.WindowID(moveWindowID), args[0]); err != nil {
			printError(fmt.Sprintf("Failed to move window: %v", err))
			return err
		}
		successColor.Printf("✓ Moved window to workspace %s\n", args[0])
		return nil
	},
}

// Layout command flags
var layoutWorkspace string

// layoutCmd changes the layout mode
var layoutCmd = &cobra.Command{
	Use:   "layout <mode>",
	Short: "Set a workspace's layout mode",
	Long: `Sets the layout mode of a workspace (default: focused workspace).

Modes: dwindle, master, monocle, split, split-horizontal, split-vertical,
grid, scrolling, floating`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.SetLayout(context.Background(), layoutWorkspace, args[0]); err != nil {
			printError(fmt.Sprintf("Failed to set layout: %v", err))
			return err
		}
		successColor.Printf("✓ Layout set to %s\n", args[0])
		return nil
	},
}

// ratioCmd adjusts the master ratio
var ratioCmd = &cobra.Command{
	Use:   "ratio <delta>",
	Short: "Adjust the focused workspace's master ratio",
	Long:  `Shifts the master area's share by a signed delta, e.g. "stride ratio 0.05".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			printError(fmt.Sprintf("Invalid delta %q", args[0]))
			return err
		}

		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.AdjustMasterRatio(context.Background(), delta); err != nil {
			printError(fmt.Sprintf("Failed to adjust ratio: %v", err))
			return err
		}
		return nil
	},
}

// proportionsCmd replaces the split layout's pane shares
var proportionsCmd = &cobra.Command{
	Use:   "proportions <fraction>...",
	Short: "Set the focused workspace's pane proportions",
	Long:  `Replaces a split workspace's pane shares, e.g. "stride proportions 0.3 0.7".`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		panes := make([]float64, len(args))
		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				printError(fmt.Sprintf("Invalid proportion %q", arg))
				return err
			}
			panes[i] = v
		}

		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.SetProportions(context.Background(), panes); err != nil {
			printError(fmt.Sprintf("Failed to set proportions: %v", err))
			return err
		}
		return nil
	},
}

// scrollCmd shifts the scrolling layout's strip
var scrollCmd = &cobra.Command{
	Use:   "scroll <delta>",
	Short: "Scroll the focused workspace's window strip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			printError(fmt.Sprintf("Invalid delta %q", args[0]))
			return err
		}

		c := client.New(socketPath, timeout)
		defer c.Close()

		if err := c.Scroll(context.Background(), delta); err != nil {
			printError(fmt.Sprintf("Failed to scroll: %v", err))
			return err
		}
		return nil
	},
}

// focusCmd is the parent command for directional focus
var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Move focus between windows",
}

// swapCmd is the parent command for directional swaps
var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap the focused window with a neighbor",
}

func directionCommand(dir string, swap bool) *cobra.Command {
	verb := "focus"
	if swap {
		verb = "swap"
	}
	return &cobra.Command{
		Use:   dir,
		Short: fmt.Sprintf("%s %s", verb, dir),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(socketPath, timeout)
			defer c.Close()

			var err error
			if swap {
				err = c.SwapDirection(context.Background(), dir)
			} else {
				err = c.FocusDirection(context.Background(), dir)
			}
			if err != nil {
				printError(fmt.Sprintf("Failed to %s %s: %v", verb, dir, err))
				return err
			}
			return nil
		},
	}
}

// Show command flags
var (
	showASCII   bool
	showUnicode bool
	showNoIDs   bool
	showWidth   int
	showHeight  int
)

// showCmd renders the focused workspace's layout in the terminal
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Visualize the focused workspace's layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(socketPath, timeout)
		defer c.Close()

		ctx := context.Background()
		workspaces, err := c.Workspaces(ctx)
		if err != nil {
			printError(fmt.Sprintf("Failed to query workspaces: %v", err))
			return err
		}

		var focused string
		var screenName string
		for _, ws := range workspaces {
			if ws.IsFocused {
				focused = ws.Name
				screenName = ws.ScreenName
				break
			}
		}
		if focused == "" {
			printError("No focused workspace")
			return fmt.Errorf("no focused workspace")
		}

		windows, err := c.Windows(ctx, focused)
		if err != nil {
			printError(fmt.Sprintf("Failed to query windows: %v", err))
			return err
		}
		screens, err := c.Screens(ctx)
		if err != nil {
			printError(fmt.Sprintf("Failed to query screens: %v", err))
			return err
		}
		screen := screens[0]
		for _, s := range screens {
			if s.Name == screenName || (screenName == "" && s.IsMain) {
				screen = s
			}
		}

		fmt.Print(output.VisualizeWorkspace(focused, windows, screen, showOptions()))
		return nil
	},
}

// configCmd is the parent command for configuration management
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configPathFlag string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := strideConfig.LoadConfig(configPathFlag)
		if err != nil {
			printError(fmt.Sprintf("Failed to load config: %v", err))
			return err
		}
		return printJSON(cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := strideConfig.LoadConfig(configPathFlag)
		if err != nil {
			printError(fmt.Sprintf("Configuration invalid: %v", err))
			return err
		}
		if err := cfg.Validate(); err != nil {
			printError(fmt.Sprintf("Configuration invalid: %v", err))
			return err
		}
		successColor.Println("✓ Configuration valid")
		return nil
	},
}

// stateCmd is the parent command for persisted-state management
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset persisted layout state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted layout snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := strideState.LoadSnapshot()
		if err != nil {
			printError(fmt.Sprintf("Failed to load snapshot: %v", err))
			return err
		}
		if snap == nil {
			fmt.Println("No persisted state")
			return nil
		}
		return printJSON(snap)
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the persisted layout snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := strideState.GetStatePath()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			printError(fmt.Sprintf("Failed to remove %s: %v", path, err))
			return err
		}
		successColor.Println("✓ Persisted state cleared")
		return nil
	},
}

// runDaemon assembles the daemon services and supervises them until a
// termination signal arrives.
func runDaemon(configPath string) error {
	cfg, err := strideConfig.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bridgeClient := bridge.NewClient(cfg.SocketPath, bridge.DefaultTimeout)
	defer bridgeClient.Close()
	backend := bridge.New(bridgeClient)

	obs := observer.New(cfg.SocketPath, cfg.Ignore.Apps, cfg.Ignore.BundleIDs)
	decorations := borders.New(cfg.Borders.SocketPath)

	mgr := manager.New(manager.Options{
		Backend:  backend,
		State:    strideState.New(),
		Observer: obs,
		Borders:  decorations,
		Config:   cfg,
	})
	if err := mgr.Init(ctx); err != nil {
		return fmt.Errorf("manager init: %w", err)
	}

	watcher := strideConfig.NewWatcher(configPath, func(next *strideConfig.Config) {
		mgr.OnConfigChange(ctx, next)
	})

	sup := suture.NewSimple("stride")
	sup.Add(obs)
	sup.Add(mgr)
	sup.Add(server.New(socketPath, mgr))
	sup.Add(watcher)

	logging.Info().Msg("stride daemon starting")
	err = sup.Serve(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	logging.Info().Msg("stride daemon stopped")
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", client.DefaultSocketPath, "Daemon IPC socket path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Config file path (default: ~/.config/stride/config.yaml)")

	// Add top-level commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(focusedCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(ratioCmd)
	rootCmd.AddCommand(proportionsCmd)
	rootCmd.AddCommand(scrollCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stateCmd)

	// Add list subcommands
	listCmd.AddCommand(listWorkspacesCmd)
	listCmd.AddCommand(listWindowsCmd)
	listCmd.AddCommand(listScreensCmd)
	listWindowsCmd.Flags().StringVar(&listWindowsWorkspace, "workspace", "", "Workspace name (default: focused)")

	// Add move flags
	moveCmd.Flags().Uint32Var(&moveWindowID, "window-id", 0, "Window ID to move (default: focused window)")

	// Add layout flags
	layoutCmd.Flags().StringVar(&layoutWorkspace, "workspace", "", "Workspace name (default: focused)")

	// Add directional subcommands
	for _, dir := range []string{"left", "right", "up", "down"} {
		focusCmd.AddCommand(directionCommand(dir, false))
		swapCmd.AddCommand(directionCommand(dir, true))
	}

	// Add show flags
	showCmd.Flags().BoolVar(&showASCII, "ascii", false, "Force ASCII mode (no Unicode)")
	showCmd.Flags().BoolVar(&showUnicode, "unicode", false, "Force Unicode mode")
	showCmd.Flags().BoolVar(&showNoIDs, "no-ids", false, "Hide window IDs")
	showCmd.Flags().IntVar(&showWidth, "width", 0, "Override terminal width")
	showCmd.Flags().IntVar(&showHeight, "height", 0, "Override terminal height")

	// Add config subcommands
	configCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Config file path (default: ~/.config/stride/config.yaml)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	// Add state subcommands
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)

	// Disable color if requested, enable debug logging if requested
	cobra.OnInitialize(func() {
		if noColor {
			color.NoColor = true
		}
		if debugMode {
			logging.SetDebug()
		}
	})
}

func main() {
	// Initialize logging
	logging.Init()
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Helper functions

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printError(msg string) {
	if noColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	} else {
		errorColor.Fprint(os.Stderr, "✗ Error: ")
		fmt.Fprintln(os.Stderr, msg)
	}
}

// showOptions builds visualization options from flags
func showOptions() output.Options {
	opts := output.DefaultOptions()
	if showASCII {
		opts.UseUnicode = false
	}
	if showUnicode {
		opts.UseUnicode = true
	}
	if showNoIDs {
		opts.ShowIDs = false
	}
	if showWidth > 0 {
		opts.MaxWidth = showWidth
	}
	if showHeight > 0 {
		opts.MaxHeight = showHeight
	}
	return opts
}
