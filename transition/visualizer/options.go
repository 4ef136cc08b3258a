package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowNames labels each edge with the transition name
	ShowNames bool

	// ShowGuards marks guarded edges with a [guarded] suffix, or the guard
	// name when rendering definitions
	ShowGuards bool

	// Direction controls diagram flow: "TB" (top-bottom) or "LR" (left-right)
	Direction string

	// InitialState draws a [*] start marker into the given state
	InitialState string

	// HighlightStates highlights specific states in the diagram
	HighlightStates []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowNames:  true,
		ShowGuards: true,
		Direction:  "TB",
	}
}

// WithShowNames enables/disables transition name labels.
func (o Options) WithShowNames(show bool) Options {
	o.ShowNames = show

	return o
}

// WithShowGuards enables/disables guard markers.
func (o Options) WithShowGuards(show bool) Options {
	o.ShowGuards = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithInitialState sets the state the start marker points to.
func (o Options) WithInitialState(state string) Options {
	o.InitialState = state

	return o
}

// WithHighlightStates sets states to highlight.
func (o Options) WithHighlightStates(states []string) Options {
	o.HighlightStates = states

	return o
}
