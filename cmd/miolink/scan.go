package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hakerfromrussia/miolink/internal/device/goble"
	"github.com/hakerfromrussia/miolink/internal/locator"
	"github.com/hakerfromrussia/miolink/pkg/config"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for nearby peripherals and report the first matching band",
	Long: `Scans for BLE peripherals, listing every newly discovered device.
The scan stops as soon as a device whose advertised name contains the
name filter is seen, or when the duration elapses.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanName     string
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVar(&scanName, "name", "", "Advertised name substring to match (overrides config)")
}

func runScan(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if scanName != "" {
		cfg.DeviceName = scanName
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if scanDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, scanDuration)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	scanner, err := goble.NewScanner()
	if err != nil {
		return err
	}
	loc := locator.New(scanner, logger)

	type findResult struct {
		addr string
		err  error
	}
	resultCh := make(chan findResult, 1)
	go func() {
		addr, err := loc.Find(ctx, cfg.DeviceName)
		resultCh <- findResult{addr: addr, err: err}
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI")

	for {
		select {
		case ev := <-loc.Events():
			if ev.Type == locator.EventNew {
				name := ev.Name
				if name == "" {
					name = "(unnamed)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", name, ev.Address, ev.RSSI)
				w.Flush()
			}
		case res := <-resultCh:
			w.Flush()
			if res.err != nil {
				if errors.Is(res.err, context.DeadlineExceeded) {
					return ErrNoDeviceFound
				}
				return res.err
			}
			fmt.Fprintf(os.Stdout, "\nMatched %q at %s\n", cfg.DeviceName, res.addr)
			return nil
		}
	}
}
