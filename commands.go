package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"musicbridge/config"
	"musicbridge/itunes/model"
)

func playCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "play <track name...>",
		Short: "Play the best library match for a track name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			res := a.service.PlayTrack(cmd.Context(), strings.Join(args, " "))
			return printResult(cmd.OutOrStdout(), res, jsonOut)
		},
	}
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	return cmd
}

func openPlayerCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "open-player",
		Short: "Launch or focus the media application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			return printResult(cmd.OutOrStdout(), a.service.OpenPlayer(cmd.Context()), jsonOut)
		},
	}
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	return cmd
}

func searchCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Open a video search in the configured browser",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			res := a.service.OpenBrowserSearch(cmd.Context(), strings.Join(args, " "))
			return printResult(cmd.OutOrStdout(), res, jsonOut)
		},
	}
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	return cmd
}

func configCommand() *cobra.Command {
	var showPath bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		// --path must work even when the config file does not load.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showPath {
				return nil
			}
			return cmd.Root().PersistentPreRunE(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showPath {
				path, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}
			return fromContext(cmd).cfg.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&showPath, "path", false, "print the default config file path instead")
	return cmd
}

// printResult writes an action result and turns Success=false into
// errActionFailed.
func printResult(w io.Writer, res model.ActionResult, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, res.Message); err != nil {
			return err
		}
	}
	if !res.Success {
		return errActionFailed
	}
	return nil
}
