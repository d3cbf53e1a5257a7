package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wlanmgr/internal/server"
	"github.com/muurk/wlanmgr/internal/ui"
	"github.com/muurk/wlanmgr/internal/wlan"
)

const defaultDiagnosticsAddr = "127.0.0.1:8765"

// Remote command flags
var (
	remoteAddr    string
	remoteTimeout time.Duration
	statusJSON    bool
	opTry         bool
	opOpTimeout   time.Duration
	opSSID        string
	opPassword    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running manager",
	Long: `Connect to a running manager's diagnostics server and print the
station state, the connected network and the networks in range.`,
	Example: `  # Local manager started with --listen 127.0.0.1:8765
  wlanmgr status

  # Manager found with 'wlanmgr discover'
  wlanmgr status --addr 192.168.1.20:8765

  # Machine-readable
  wlanmgr status --json`,
	RunE: runStatus,
}

var opCmd = &cobra.Command{
	Use:   "op OPERATION",
	Short: "Run a station operation on a running manager",
	Long: `Queue an operation on a running manager and wait for it to finish.

OPERATION is one of INIT, DEINIT, START, STOP, CONNECT, DISCONNECT,
SCAN_START or SCAN_STOP. By default the operation is forced: the manager
unwinds whatever it is doing to reach the required state. With --try it
only runs from the state the operation needs and fails otherwise.`,
	Example: `  # Join a network
  wlanmgr op connect --ssid Home --password password123

  # Scan unless the manager is busy
  wlanmgr op scan_start --try`,
	Args: cobra.ExactArgs(1),
	RunE: runOp,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, opCmd} {
		c.Flags().StringVar(&remoteAddr, "addr", "", "Diagnostics server address (default diagnostics.listen or "+defaultDiagnosticsAddr+")")
		c.Flags().DurationVar(&remoteTimeout, "timeout", 10*time.Second, "Overall timeout")
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the snapshot as JSON")

	opCmd.Flags().BoolVar(&opTry, "try", false, "Only run from the required state")
	opCmd.Flags().DurationVar(&opOpTimeout, "wait", 0, "How long the manager waits for the target state (0 returns once queued)")
	opCmd.Flags().StringVar(&opSSID, "ssid", "", "Network to join (CONNECT only)")
	opCmd.Flags().StringVar(&opPassword, "password", "", "Password for --ssid")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(opCmd)
}

// resolveAddr picks --addr, then diagnostics.listen, then the default.
func resolveAddr() string {
	if remoteAddr != "" {
		return remoteAddr
	}
	cfg, err := loadConfig()
	if err != nil || cfg.Diagnostics.Listen == "" {
		return defaultDiagnosticsAddr
	}
	listen := cfg.Diagnostics.Listen
	if strings.HasPrefix(listen, ":") {
		return "127.0.0.1" + listen
	}
	return listen
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
	defer cancel()

	addr := resolveAddr()
	printer := ui.NewPrinter(os.Stdout)

	client, err := server.Dial(ctx, addr)
	if err != nil {
		printer.PrintError("Manager unreachable", err)
		return err
	}
	defer func() { _ = client.Close() }()

	snap, err := client.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	printer.PrintSnapshot(snap)
	return nil
}

func runOp(cmd *cobra.Command, args []string) error {
	op, err := wlan.ParseOperation(args[0])
	if err != nil {
		return err
	}
	if opSSID != "" && op != wlan.OpConnect {
		return fmt.Errorf("--ssid only applies to CONNECT")
	}

	mode := "force"
	if opTry {
		mode = "try"
	}
	command := server.Command{
		Op:        op.String(),
		Mode:      mode,
		TimeoutMS: int(opOpTimeout / time.Millisecond),
		SSID:      opSSID,
		Password:  opPassword,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout+opOpTimeout)
	defer cancel()

	addr := resolveAddr()
	printer := ui.NewPrinter(os.Stdout)

	client, err := server.Dial(ctx, addr)
	if err != nil {
		printer.PrintError("Manager unreachable", err)
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Do(ctx, command); err != nil {
		printer.PrintError(op.String()+" failed", err)
		return err
	}
	details := map[string]string{"Manager": addr, "Mode": mode}
	if opSSID != "" {
		details["SSID"] = opSSID
	}
	printer.PrintSuccess(op.String(), details)
	return nil
}
