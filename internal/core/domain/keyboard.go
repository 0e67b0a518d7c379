package domain

// Button is a single keyboard entry. CallbackData is set only on inline
// buttons; plain reply buttons echo their label as message text.
type Button struct {
	Label        string
	CallbackData string
}

// Keyboard is a transport-neutral keyboard description. Exactly one of the
// shapes applies: Remove clears any visible keyboard, Inline renders the
// rows as inline buttons, otherwise the rows render as a reply keyboard.
type Keyboard struct {
	Inline bool
	Remove bool
	Rows   [][]Button
}

// Reply is the outbound message intent a step handler emits.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}
