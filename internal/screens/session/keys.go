package session

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Choose  key.Binding
	Up      key.Binding
	Down    key.Binding
	Submit  key.Binding
	Pass    key.Binding
	Next    key.Binding
	Pause   key.Binding
	Explain key.Binding
	Mode    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Decline key.Binding
}

var keys = keyMap{
	Choose:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "回答")),
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "決定")),
	Pass:    key.NewBinding(key.WithKeys("p", "s"), key.WithHelp("P", "パス")),
	Next:    key.NewBinding(key.WithKeys("enter", "n", "right"), key.WithHelp("Enter", "次へ")),
	Pause:   key.NewBinding(key.WithKeys("space"), key.WithHelp("Space", "一時停止")),
	Explain: key.NewBinding(key.WithKeys("e"), key.WithHelp("E", "解説")),
	Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("M", "モード")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("Q", "終了")),
	Confirm: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("Y", "終了する")),
	Decline: key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("N", "続ける")),
}
