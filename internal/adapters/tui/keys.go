package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the countdown screen.
type keyMap struct {
	Digit     key.Binding
	Backspace key.Binding
	Left      key.Binding
	Right     key.Binding
	Next      key.Binding
	Prev      key.Binding
	Toggle    key.Binding
	Reset     key.Binding
	Sound     key.Binding
	Notify    key.Binding
	Dismiss   key.Binding
	Presets   key.Binding
	Help      key.Binding
	Quit      key.Binding

	// Permission prompt.
	Allow key.Binding
	Deny  key.Binding

	// Preset search.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "type"),
		),
		Backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "delete")),
		Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "caret left")),
		Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "caret right")),
		Next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Toggle:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start/stop")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Sound:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sound")),
		Notify:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Dismiss:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss alert")),
		Presets:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "presets")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Allow: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "allow")),
		Deny:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "deny")),

		Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Sound, k.Notify, k.Presets, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Digit, k.Backspace, k.Left, k.Right, k.Next, k.Prev},
		{k.Toggle, k.Reset, k.Dismiss, k.Presets},
		{k.Sound, k.Notify, k.Help, k.Quit},
	}
}
