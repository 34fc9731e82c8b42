// fleetctl is a developer CLI for the FleetDash API, used to poke the
// backend during development and to exercise the client end to end against
// mockfleet.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	fleetdash "github.com/fleetdash/client-go"
)

var (
	configPath string
	debug      bool

	client *fleetdash.Client
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "FleetDash fleet-management CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if debug || cfg.Logging.Level == "debug" {
				level = slog.LevelDebug
			}
			logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.RFC3339,
			}))
			slog.SetDefault(logger)

			opts := []fleetdash.Option{
				fleetdash.WithLogger(logger),
				fleetdash.WithSessionExpiredHandler(func() {
					logger.Warn("session expired, log in again via the dashboard")
				}),
			}
			if cfg.Client.Timeout > 0 {
				opts = append(opts, fleetdash.WithTimeout(cfg.Client.Timeout))
			}
			if cfg.Client.UploadTimeout > 0 {
				opts = append(opts, fleetdash.WithUploadTimeout(cfg.Client.UploadTimeout))
			}
			if cfg.Client.Retries > 0 {
				opts = append(opts, fleetdash.WithRetries(cfg.Client.Retries))
			}
			if cfg.Client.RetryDelay > 0 {
				opts = append(opts, fleetdash.WithRetryDelay(cfg.Client.RetryDelay))
			}

			client, err = fleetdash.New(cfg.BaseURL, opts...)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "fleetctl.yaml", "config file path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(vehiclesCmd(), driversCmd(), workOrdersCmd(), summaryCmd(), batchCmd())
	return root
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func vehiclesCmd() *cobra.Command {
	var status, fleet string

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			vehicles, err := client.Vehicles.List(ctx, &fleetdash.VehicleListOptions{
				Status: status,
				Fleet:  fleet,
			})
			if err != nil {
				return err
			}
			return printJSON(vehicles)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&fleet, "fleet", "", "filter by fleet")

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			vehicle, err := client.Vehicles.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(vehicle)
		},
	})
	return cmd
}

func driversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			drivers, err := client.Drivers.List(ctx, nil)
			if err != nil {
				return err
			}
			return printJSON(drivers)
		},
	}
}

func workOrdersCmd() *cobra.Command {
	var vehicleID, status string

	cmd := &cobra.Command{
		Use:   "work-orders",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			orders, err := client.WorkOrders.List(ctx, &fleetdash.WorkOrderListOptions{
				VehicleID: vehicleID,
				Status:    status,
			})
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "filter by vehicle ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")

	cmd.AddCommand(&cobra.Command{
		Use:   "close <id>",
		Short: "Close a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			return client.WorkOrders.Close(ctx, args[0])
		},
	})
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the fleet dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			summary, err := client.Analytics.Summary(ctx)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

// batchCmd reads a JSON array of batch entries from stdin and submits them
// as one round trip.
func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Submit a batch of requests read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var requests []fleetdash.BatchRequest
			if err := json.NewDecoder(os.Stdin).Decode(&requests); err != nil {
				return fmt.Errorf("parse batch input: %w", err)
			}

			ctx, cancel := cmdContext()
			defer cancel()

			results, err := client.Batch(ctx, requests)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
}
