package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/craftlaunch/pkg/launch/compose"
	"github.com/provide-io/craftlaunch/pkg/launch/metadata"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

func newScriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script <profile>",
		Short: "Print the launch script for a profile without running it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
			player, profiles, err := lookup(a, args)
			if err != nil {
				return err
			}
			sup, err := a.supervisor()
			if err != nil {
				return err
			}

			profile := profiles[0]
			plan, err := sup.Plan(cmd.Context(), player, profile, a.cfg.Effective(profile))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), plan.Script)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&playerName, "player", "p", "", "Player username or ID (defaults to the selected player)")
	return cmd
}

func newClasspathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classpath <version>",
		Short: "Print the classpath of an installed version, one entry per line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
			meta, err := metadata.NewResolver(a.layout.Versions(), a.logger).ResolveID(args[0])
			if err != nil {
				return err
			}

			env := rules.CurrentEnvironment(nil)
			paths, err := compose.Classpath(meta, a.layout.Libraries(), a.layout.ClientJar(meta.ClientJarID()), env)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}),
	}
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <version>",
		Short: "Print the resolved metadata of a version as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
			meta, err := metadata.NewResolver(a.layout.Versions(), a.logger).ResolveID(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		}),
	}
}

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List installed versions",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
			ids, err := a.layout.InstalledVersions()
			if err != nil {
				return withCode(ExitIOError, err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}),
	}
}
