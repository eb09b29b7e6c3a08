package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the normal-mode bindings. Form screens route keys to the
// focused input instead.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	reload     key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	choose     key.Binding
	back       key.Binding
	history    key.Binding
	profile    key.Binding
	agenda     key.Binding
	newEntry   key.Binding
	deleteItem key.Binding
	about      key.Binding
	logout     key.Binding
}

// newKeyMap returns the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "right")),
		choose:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		history:    key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "history")),
		profile:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "profile")),
		agenda:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "agenda")),
		newEntry:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		deleteItem: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		about:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "about")),
		logout:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log out")),
	}
}

// ShortHelp satisfies help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.choose, k.back, k.history, k.profile, k.toggleHelp, k.quit}
}

// FullHelp satisfies help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.moveLeft, k.moveRight, k.choose, k.back},
		{k.history, k.profile, k.agenda, k.newEntry, k.deleteItem},
		{k.about, k.reload, k.logout, k.toggleHelp, k.quit},
	}
}
