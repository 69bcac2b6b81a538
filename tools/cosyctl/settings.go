package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/statestore"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

func (c *cli) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change the persisted provider settings",
		Long: `Inspect and change the settings record kept in the configured persistence
backend. With the memory backend the record only lives for one command, so
these subcommands are mostly useful with persistence.backend: redis.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings and the persisted record",
			Args:  cobra.NoArgs,
			RunE:  c.runSettingsShow,
		},
		&cobra.Command{
			Use:   "set FIELD VALUE",
			Short: "Update one setting and persist the record",
			Long: `Update one setting. Values are stored as given; "streaming" accepts
true/false/1/0. Unknown fields are rejected.`,
			Args: cobra.ExactArgs(2),
			RunE: c.runSettingsSet,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete the persisted record so the defaults apply again",
			Args:  cobra.NoArgs,
			RunE:  c.runSettingsReset,
		},
		&cobra.Command{
			Use:   "providers",
			Short: "List providers with a persisted record",
			Args:  cobra.NoArgs,
			RunE:  c.runSettingsProviders,
		},
	)
	return cmd
}

func (c *cli) openApp(cmd *cobra.Command) (*app, func(), error) {
	cfg, overrides, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, overrides)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close(ctx) }, nil
}

func (c *cli) runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	persisted, err := statestore.LoadOrEmpty(cmd.Context(), a.store, tts.ProviderName)
	if err != nil {
		return fmt.Errorf("failed to load persisted settings: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"effective": a.service.Settings().Map(),
		"persisted": persisted,
	})
}

// runSettingsSet writes the persisted record plus the one changed field.
// Config file values and environment or flag overrides are not copied in.
func (c *cli) runSettingsSet(cmd *cobra.Command, args []string) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	field, value := args[0], args[1]
	key, known := tts.SettingKey(field)
	if !known {
		return fmt.Errorf("failed to update %s: %w", field, tts.ErrUnknownSetting)
	}

	// Decode through a throwaway store so the saved value has the field's type.
	scratch := tts.NewSettingsStore(tts.ProviderName, nil)
	if err := scratch.Update(cmd.Context(), key, value); err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	decoded := scratch.Map()[key]

	record := maps.Clone(a.persisted)
	if record == nil {
		record = map[string]any{}
	}
	record[key] = decoded
	if err := a.store.SaveSettings(cmd.Context(), tts.ProviderName, record); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	if key == tts.SettingFormat && !tts.IsSupportedFormat(value) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: format %q is not one of the supported formats\n", value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
	return nil
}

func (c *cli) runSettingsReset(cmd *cobra.Command, _ []string) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := a.store.DeleteSettings(cmd.Context(), tts.ProviderName); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "settings reset")
	return nil
}

func (c *cli) runSettingsProviders(cmd *cobra.Command, _ []string) error {
	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	providers, err := a.store.ListProviders(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list providers: %w", err)
	}
	sort.Strings(providers)
	for _, p := range providers {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
