package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const keyJSON = "json"

func (c *cli) newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the speakers offered by the CosyVoice server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runVoices(cmd)
		},
	}
	cmd.Flags().Bool(keyJSON, false, "Print the speaker list as JSON")
	return cmd
}

func (c *cli) runVoices(cmd *cobra.Command) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()
	ctx := cmd.Context()

	voices, err := a.service.Catalog().Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool(keyJSON); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(voices)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSPEAKER\tLANGUAGE\tGENDER")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Speaker(), v.Language, v.Gender)
	}
	return tw.Flush()
}
