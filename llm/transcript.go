package llm

// Transcript is the ordered log of turns in one conversation.
//
// It is append-only except for in-place growth of an open assistant
// placeholder and removal of the trailing turn on rollback.
// Transcript is not safe for concurrent use; Engine serializes access.
type Transcript struct {
	turns []Turn
	open  bool
}

// NewTranscript returns a transcript seeded with a system turn when
// systemPrompt is non-empty.
func NewTranscript(systemPrompt string) *Transcript {
	t := &Transcript{}
	t.Reset(systemPrompt)
	return t
}

// Append adds turn at the end. Any open placeholder stops being writable.
func (t *Transcript) Append(turn Turn) error {
	if !turn.Role.Valid() {
		return ErrInvalidRole
	}
	t.turns = append(t.turns, turn)
	t.open = false
	return nil
}

// OpenPlaceholder appends an empty assistant turn that accepts fragments
// until Seal, Append or RemoveLast.
func (t *Transcript) OpenPlaceholder() {
	t.turns = append(t.turns, Turn{Role: RoleAssistant})
	t.open = true
}

// LastMutable returns the trailing turn when it is an assistant turn still
// open for streaming.
func (t *Transcript) LastMutable() (*Turn, error) {
	if !t.open || len(t.turns) == 0 {
		return nil, ErrNotOpenForWrite
	}
	last := &t.turns[len(t.turns)-1]
	if last.Role != RoleAssistant {
		return nil, ErrNotOpenForWrite
	}
	return last, nil
}

// Grow appends fragment to the open placeholder.
func (t *Transcript) Grow(fragment string) error {
	turn, err := t.LastMutable()
	if err != nil {
		return err
	}
	turn.Content += fragment
	return nil
}

// Seal closes the placeholder; its content becomes final.
func (t *Transcript) Seal() {
	t.open = false
}

// RemoveLast drops the final turn and returns it.
func (t *Transcript) RemoveLast() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	last := t.turns[len(t.turns)-1]
	t.turns = t.turns[:len(t.turns)-1]
	t.open = false
	return last, true
}

// Reset replaces the contents with the initial seed.
func (t *Transcript) Reset(systemPrompt string) {
	t.turns = nil
	t.open = false
	if systemPrompt != "" {
		t.turns = append(t.turns, Turn{Role: RoleSystem, Content: systemPrompt})
	}
}

// Turns returns a copy of all turns.
func (t *Transcript) Turns() []Turn {
	cp := make([]Turn, len(t.turns))
	copy(cp, t.turns)
	return cp
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the final turn and true, or a zero Turn and false when empty.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}
