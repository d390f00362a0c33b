package domain

// EvalContext describes one pipeline invocation: the entity scope the
// contributions are attributed to, the requested time window, and the
// already-assembled source material. How the material is discovered from
// source systems belongs to the caller; the pipeline only consumes it.
type EvalContext struct {
	// Scope identifies the entity (member, project) whose activity is
	// being evaluated. Used to pair new contributions with old ones.
	Scope string `json:"scope" validate:"required,min=1"`

	// Window is the time window the run covers. Identified contribution
	// periods must fall inside it.
	Window Period `json:"window" validate:"required"`

	// Source is the assembled activity material handed to the identify
	// agent. Opaque to the pipeline.
	Source string `json:"source" validate:"required,min=1"`

	// Previous lists contributions already recorded for the scope. The
	// merge stage reconciles fresh contributions against them so the same
	// underlying work is never rewarded twice.
	Previous []OldContribution `json:"previous,omitempty" validate:"omitempty,dive"`

	// Metadata carries optional tracking key-value pairs. Use WithMeta to
	// derive modified copies.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks structural constraints and the window invariant.
func (c *EvalContext) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Window.Validate()
}

// WithMeta returns a copy of the context with the key-value pair added,
// preserving immutability of the receiver.
func (c EvalContext) WithMeta(key, value string) EvalContext {
	meta := cloneStringMap(c.Metadata)
	if meta == nil {
		meta = make(map[string]string)
	}
	meta[key] = value
	c.Metadata = meta
	return c
}
