package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhaslem/herald/internal/catalog"
)

type appFactory func() (*app, error)

func newScanCmd(open appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Rescan the plugin directory and refresh the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.close()

			repo, err := a.store.Rescan()
			if err != nil {
				return err
			}
			// A persist failure is reported but the fresh scan remains
			// usable in memory.
			if err := a.store.Persist(repo); err != nil {
				a.logger.Warn("repository persist failed", "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d plugins, %d events\n",
				repo.Count(), len(repo.Events()))
			for _, p := range repo.Plugins() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s, %d events)\n",
					p.Name, p.Activity, len(p.Methods))
			}
			return nil
		},
	}
}

func newEventsCmd(open appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the events in the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.close()

			for _, event := range a.repo.Events() {
				m, ok := a.repo.Method(event)
				if !ok {
					continue
				}
				title := m.Title
				if title == "" {
					title = event
				}
				access := "public"
				if !m.Public() {
					access = fmt.Sprintf("%d requirement(s)", len(m.Requirements))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", event, title, access)
			}
			return nil
		},
	}
}

func newDispatchCmd(open appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <event> [key=value...]",
		Short: "Broadcast an event to its subscribers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.close()

			payload, err := parsePayload(args[1:])
			if err != nil {
				return err
			}

			result, err := a.dispatcher.Broadcast(args[0], payload)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Result: %v\n", result)
			if next := a.dispatcher.NextEvent(); next != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", next)
			}
			return nil
		},
	}
}

func newResyncCmd(open appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Rebuild the security tables from the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.Resynchronize(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Security tables resynchronized")
			return nil
		},
	}
}

func newActivityCmd(open appFactory, enable bool) *cobra.Command {
	use, short := "disable <plugin>", "Deactivate a plugin"
	state := catalog.Inactive
	if enable {
		use, short = "enable <plugin>", "Activate a plugin"
		state = catalog.Active
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.repo.SetActive(args[0], state); err != nil {
				return err
			}
			if err := a.store.Persist(a.repo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plugin %s is now %s\n", strings.ToLower(args[0]), state)
			return nil
		},
	}
}

// parsePayload turns key=value arguments into broadcast arguments.
func parsePayload(args []string) (map[string]interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	payload := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed argument %q, want key=value", arg)
		}
		payload[key] = value
	}
	return payload, nil
}
