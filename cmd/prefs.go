package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

var errNotificationsDenied = errors.New("desktop notifications are not permitted")

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show the stored sound and notification preferences",
	Long: `Show the preferences the timer restores on start:

  soundEnabled            play the alarm at zero (true/false)
  notificationsEnabled    show a desktop notification at zero (true/false)
  notificationPermission  default, granted or denied`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := app.prefs.List(context.Background())
		if err != nil {
			return err
		}
		return printPreferences(cmd.OutOrStdout(), prefs, jsonOutput)
	},
}

var prefsGetCmd = &cobra.Command{
	Use:       "get KEY",
	Short:     "Print one preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: domain.PreferenceKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := app.prefs.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one preference",
	Long: `Change one preference. Turning notifications on asks for permission
first unless it was already granted.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: domain.PreferenceKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		key, value := args[0], args[1]

		if err := domain.ValidatePreference(key, value); err != nil {
			return err
		}
		if key == domain.KeyNotificationsEnabled && value == "true" {
			if err := ensureNotificationPermission(ctx, app.notifier, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		if err := app.prefs.Set(ctx, key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}

// ensureNotificationPermission asks on in/out when no decision is stored
// and records the answer.
func ensureNotificationPermission(ctx context.Context, n ports.Notifier, in io.Reader, out io.Writer) error {
	perm, err := n.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request notification permission: %w", err)
	}

	if perm == domain.PermissionPrompt {
		fmt.Fprint(out, "Allow desktop notifications? [y/N]: ")
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))

		perm = domain.PermissionDenied
		if answer == "y" || answer == "yes" {
			perm = domain.PermissionGranted
		}
		if err := n.RecordPermission(ctx, perm); err != nil {
			return fmt.Errorf("failed to save notification permission: %w", err)
		}
	}

	if perm != domain.PermissionGranted {
		return errNotificationsDenied
	}
	return nil
}

func printPreferences(w io.Writer, prefs map[string]string, asJSON bool) error {
	if asJSON {
		jsonData, err := json.MarshalIndent(prefs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal preferences: %w", err)
		}
		fmt.Fprintln(w, string(jsonData))
		return nil
	}

	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-24s %s\n", k, prefs[k])
	}
	return nil
}
