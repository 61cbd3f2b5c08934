package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/countdown-cli/internal/adapters/tui"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/validate"
)

// askFunc asks for one value, prefilled with value. ok is false when the
// user backs out.
type askFunc func(title, value string) (answer string, ok bool)

func tuiAsk(theme *config.ThemeConfig) askFunc {
	return func(title, value string) (string, bool) {
		r := tui.RunTextPrompt(title, value, theme)
		return r.Value, !r.Aborted
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit presets, the default duration and alert text",
	Long: `Interactively configure the three countdown presets, the default minutes
used while every field is empty, and the desktop notification text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg := app.config
		ask := tuiAsk(&cfg.Theme)

		for {
			items := configItems(cfg)
			result := tui.RunPicker("Configure countdown:", items, &cfg.Theme)
			if result.Aborted || result.Index == len(items)-1 {
				return nil
			}

			var (
				changed bool
				err     error
			)
			switch result.Index {
			case 0, 1, 2:
				changed, err = editPreset(cfg, result.Index+1, ask)
			case 3:
				changed, err = editDefaultMinutes(cfg, ask)
			case 4:
				changed, err = editNotificationText(cfg, ask)
			}
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(out, "  Saved: %s\n", items[result.Index].Label)
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), app.config, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func configItems(cfg *config.Config) []tui.PickerItem {
	items := make([]tui.PickerItem, 0, 6)
	for i, p := range cfg.Presets.GetPresets() {
		items = append(items, tui.PickerItem{
			Label: fmt.Sprintf("Preset %d", i+1),
			Desc:  fmt.Sprintf("%s · %s", p.Name, formatMinutes(p.Duration)),
		})
	}
	items = append(items,
		tui.PickerItem{Label: "Default", Desc: fmt.Sprintf("%d minutes while the fields are empty", cfg.Timer.DefaultMinutes)},
		tui.PickerItem{Label: "Alert text", Desc: fmt.Sprintf("%s: %s", cfg.Notifications.Title, cfg.Notifications.Body)},
		tui.PickerItem{Label: "Done", Desc: ""},
	)
	return items
}

func editPreset(cfg *config.Config, num int, ask askFunc) (bool, error) {
	p := cfg.Presets.GetPresets()[num-1]

	name, ok := ask(fmt.Sprintf("Preset %d name:", num), p.Name)
	if !ok {
		return false, nil
	}
	if name == "" {
		name = p.Name
	}

	durInput, ok := ask(fmt.Sprintf("Preset %d duration:", num), formatMinutes(p.Duration))
	if !ok {
		return false, nil
	}
	dur := p.Duration
	if durInput != "" {
		parsed, err := time.ParseDuration(durInput)
		if err != nil {
			return false, fmt.Errorf("invalid duration %q: %w", durInput, err)
		}
		if err := validate.Var(parsed, "countdown"); err != nil {
			return false, fmt.Errorf("preset duration must be between 1s and %s, got %s", domain.MaxDuration, parsed)
		}
		dur = parsed
	}

	if err := cfg.Presets.SetPreset(num, name, dur); err != nil {
		return false, err
	}
	return name != p.Name || dur != p.Duration, nil
}

func editDefaultMinutes(cfg *config.Config, ask askFunc) (bool, error) {
	input, ok := ask("Default minutes:", strconv.Itoa(cfg.Timer.DefaultMinutes))
	if !ok || input == "" {
		return false, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return false, fmt.Errorf("invalid number %q: %w", input, err)
	}
	if err := validate.Var(n, "min=0,max=99"); err != nil {
		return false, fmt.Errorf("default minutes must be between 0 and 99, got %d", n)
	}
	changed := n != cfg.Timer.DefaultMinutes
	cfg.Timer.DefaultMinutes = n
	return changed, nil
}

func editNotificationText(cfg *config.Config, ask askFunc) (bool, error) {
	title, ok := ask("Notification title:", cfg.Notifications.Title)
	if !ok {
		return false, nil
	}
	body, ok := ask("Notification text:", cfg.Notifications.Body)
	if !ok {
		return false, nil
	}
	if title == "" {
		title = cfg.Notifications.Title
	}
	if body == "" {
		body = cfg.Notifications.Body
	}
	changed := title != cfg.Notifications.Title || body != cfg.Notifications.Body
	cfg.Notifications.Title, cfg.Notifications.Body = title, body
	return changed, nil
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintf(w, "  Config file:      %s\n", path)
	fmt.Fprintf(w, "  Database:         %s\n", config.GetDBPath(cfg))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Presets:")
	for i, p := range cfg.Presets.GetPresets() {
		fmt.Fprintf(w, "    [%d] %-10s %s\n", i+1, p.Name, formatMinutes(p.Duration))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Default minutes:  %d\n", cfg.Timer.DefaultMinutes)
	fmt.Fprintf(w, "  Tick interval:    %s\n", cfg.Timer.TickInterval)
	fmt.Fprintf(w, "  Alarm:            %d × %gHz beeps, %s apart\n",
		cfg.Sound.Beeps, cfg.Sound.Frequency, cfg.Sound.Pause)
	fmt.Fprintf(w, "  Notification:     %s\n", strings.TrimSpace(cfg.Notifications.Title+": "+cfg.Notifications.Body))
	fmt.Fprintf(w, "  Alert lifetime:   %s\n", cfg.Notifications.Lifetime)
}
