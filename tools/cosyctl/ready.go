package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const keyStrict = "strict"

func (c *cli) newReadyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "Refresh the speaker list and push settings, then report the outcome",
		Long: `Run a readiness check: the speaker list refresh and the settings push run
concurrently and both always complete. Failures are reported but only fail the
command with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runReady(cmd)
		},
	}
	cmd.Flags().Bool(keyStrict, false, "Exit non-zero when either step failed")
	return cmd
}

func (c *cli) runReady(cmd *cobra.Command) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()
	ctx := cmd.Context()

	report := a.service.CheckReady(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "endpoint: %s\n", a.service.Settings().Endpoint())
	fmt.Fprintf(out, "voices:   %d\n", report.Voices)
	fmt.Fprintf(out, "catalog:  %s\n", outcome(report.CatalogErr))
	fmt.Fprintf(out, "settings: %s\n", outcome(report.SettingsErr))
	fmt.Fprintf(out, "took:     %s\n", report.Duration)

	if strict, _ := cmd.Flags().GetBool(keyStrict); strict && !report.OK() {
		return errors.Join(report.CatalogErr, report.SettingsErr)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "failed: " + err.Error()
}
