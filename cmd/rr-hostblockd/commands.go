package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/config"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/parsers"
)

// newCheckCmd rebuilds once from the configured items and prints a verdict
// per host. The snapshot store is left untouched.
func newCheckCmd(loadConfig func() (*config.AppConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "check <host>...",
		Short: "Build the decision set once and check hostnames against it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Store.Path = ""
			cfg.Admin.Addr = ""

			app, err := buildApplication(cfg, log.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}
			defer app.Close()

			res, err := app.RebuildOnce(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# generation %d, %d hosts, %d failed items\n", res.Generation, res.Hosts, res.Failed())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, host := range args {
				d := app.service.Check(host)
				verdict := "allowed"
				if d.Blocked {
					verdict = "blocked"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", host, verdict, d.MatchedRule)
			}
			return tw.Flush()
		},
	}
}

// newParseCmd prints the hostnames the line parser accepts from a list file
// ("-" reads stdin).
func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the hostnames a list file contributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			out := cmd.OutOrStdout()
			n, err := parsers.ScanLines(cmd.Context(), r, args[0], log.GetLogger(), func(host string) {
				fmt.Fprintln(out, host)
			})
			if err != nil {
				return fmt.Errorf("parse %s after %d hosts: %w", args[0], n, err)
			}
			return nil
		},
	}
}
