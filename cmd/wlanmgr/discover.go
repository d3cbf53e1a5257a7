package main

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wlanmgr/internal/discovery"
	"github.com/muurk/wlanmgr/internal/ui"
)

var (
	discoverTimeout int
	discoverWait    string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find running managers on the local network",
	Long: `Browse mDNS for wlanmgr instances started with --mdns.

A manager announces itself only while its station is connected, so the
list shows managers that are online together with the network each one
joined.`,
	Example: `  # Browse for 5 seconds (default)
  wlanmgr discover

  # Longer browse for busy networks
  wlanmgr discover --timeout 15

  # Block until the manager named "lab" comes online
  wlanmgr discover --wait lab --timeout 60`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 5, "Browse timeout in seconds")
	discoverCmd.Flags().StringVar(&discoverWait, "wait", "", "Wait for the named instance instead of listing all")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader("Discover", "wlanmgr discover", map[string]string{
		"Service": discovery.ServiceType,
		"Timeout": strconv.Itoa(discoverTimeout) + "s",
	})

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(discoverTimeout) * time.Second

	if discoverWait != "" {
		p, err := scanner.WaitForPeer(cmd.Context(), discoverWait)
		if err != nil {
			printer.PrintError("Manager not found", err)
			return err
		}
		printPeer(printer, p)
		return nil
	}

	peers, err := scanner.ScanForPeers(cmd.Context())
	if err != nil {
		printer.PrintError("Discovery failed", err)
		return err
	}

	if len(peers) == 0 {
		printer.Println("No managers found.")
		printer.Println("")
		printer.Println("Troubleshooting:")
		printer.Println("  - Start the manager with --listen and --mdns")
		printer.Println("  - The manager only announces while connected to a network")
		printer.Println("  - Check that multicast (UDP 5353) is allowed")
		printer.Println("  - Try increasing --timeout")
		return nil
	}

	for _, p := range peers {
		printPeer(printer, p)
	}
	printer.Println("Use 'wlanmgr status --addr <address>' to inspect a manager")
	return nil
}

func printPeer(printer *ui.Printer, p *discovery.Peer) {
	printer.PrintSuccess(p.Instance, map[string]string{
		"Address": p.Addr(),
		"Host":    p.Hostname,
		"SSID":    p.SSID(),
		"Version": p.Version(),
	})
}
