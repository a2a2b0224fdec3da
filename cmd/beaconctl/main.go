// Package main provides beaconctl, the operator CLI for the beacon registry.
// It registers, resolves, lists, and removes service records over the same
// HTTP API the service SDK uses.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/relatorlabs/beacon/discovery"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		url     string
		apiKey  string
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "beaconctl",
		Short: "Operator CLI for the beacon service registry",
		Long: `beaconctl talks to a running beacon registry over its HTTP API.

The registry URL and API key default to the DISCOVERY_URL and
DISCOVERY_API_KEY environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&url, "url", "", "Registry base URL (default: DISCOVERY_URL)")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Bearer API key (default: DISCOVERY_API_KEY)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON responses")

	newClient := func() (*discovery.Client, error) {
		cfg := discovery.ConfigFromEnv()
		if url != "" {
			cfg.URL = url
		}
		if apiKey != "" {
			cfg.APIKey = apiKey
		}
		cfg.RequestTimeout = timeout
		// Resolve immediately; callers retry by rerunning the command.
		cfg.FindMaxAttempts = 1
		log := logger.NewDefault("beaconctl")
		return discovery.NewClient(cfg, log)
	}

	printJSON := func(v any) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var (
		regHost     string
		regPort     int
		regTTL      int
		regMetadata []string
	)
	registerCmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a service record (single lease, no heartbeat)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			metadata, err := parseMetadata(regMetadata)
			if err != nil {
				return err
			}
			resp, err := client.RegisterOnce(cmd.Context(), discovery.RegisterOptions{
				Name:       args[0],
				Host:       regHost,
				Port:       regPort,
				Metadata:   metadata,
				TTLSeconds: regTTL,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			fmt.Printf("registered %s at %s (lease expires %s)\n",
				resp.Name, resp.Endpoint, resp.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	registerCmd.Flags().StringVar(&regHost, "host", "", "Advertised host (default: autodetected local IP)")
	registerCmd.Flags().IntVar(&regPort, "port", 0, "Advertised port (required)")
	registerCmd.Flags().IntVar(&regTTL, "ttl", 0, "Lease TTL in seconds (default: registry default)")
	registerCmd.Flags().StringArrayVar(&regMetadata, "metadata", nil, "Metadata as key=value (repeatable)")
	_ = registerCmd.MarkFlagRequired("port")

	discoverCmd := &cobra.Command{
		Use:   "discover <name>",
		Short: "Resolve a service name to its endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			svc, err := client.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(svc)
			}
			fmt.Println(svc.Endpoint)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all live service records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			resp, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			if resp.Count == 0 {
				fmt.Println("no services registered")
				return nil
			}
			for _, svc := range resp.Services {
				fmt.Printf("%-24s %-24s expires %s\n",
					svc.Name, svc.Endpoint, svc.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	unregisterCmd := &cobra.Command{
		Use:   "unregister <name>",
		Short: "Remove a service record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			removed, err := client.Unregister(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Printf("unregistered %s\n", args[0])
			} else {
				fmt.Printf("%s was not registered\n", args[0])
			}
			return nil
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check registry health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(health)
			}
			fmt.Printf("%s (%d registered)\n", health.Status, health.Registered)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetVersionInfo()
			fmt.Printf("beaconctl %s", info.Version)
			if info.GitCommit != "" {
				fmt.Printf(" (%s)", info.GitCommit)
			}
			fmt.Println()
		},
	}

	cmd.AddCommand(registerCmd, discoverCmd, listCmd, unregisterCmd, healthCmd, versionCmd)
	return cmd
}

// parseMetadata converts repeated key=value flags into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
