package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the alert UI.
type KeyMap struct {
	// Navigation
	Down   key.Binding
	Up     key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding

	Search  key.Binding
	Command key.Binding
	Help    key.Binding
	Refresh key.Binding

	// List filters
	ToggleAll  key.Binding
	CycleType  key.Binding
	ClearTypes key.Binding

	// Alert actions
	Complete key.Binding
	Dismiss  key.Binding
	Snooze   key.Binding
	Unsnooze key.Binding
	Send     key.Binding

	AutoSend key.Binding
	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "show/hide done"),
		),
		CycleType: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle type filter"),
		),
		ClearTypes: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		Complete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "complete/reopen"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss"),
		),
		Snooze: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "snooze"),
		),
		Unsnooze: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "unsnooze"),
		),
		Send: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "send to owner"),
		),
		AutoSend: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "toggle auto-send"),
		),
		Settings: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "alert settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Complete, k.Snooze,
		k.Send, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.ToggleAll, k.CycleType, k.ClearTypes},
		{k.Complete, k.Dismiss, k.Snooze, k.Unsnooze, k.Send},
		{k.AutoSend, k.Settings},
	}
}
