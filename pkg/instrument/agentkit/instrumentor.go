package agentkit

import (
	"fmt"
	"log/slog"
	"sync"

	"phare-hq/phare/pkg/instrument"
)

// instrumentorName is the identifier used in logs and the disabled list.
const instrumentorName = "agentkit"

// Instrumentor wraps the three boundaries of an injected Surface with
// observing adapters. Instrument and Uninstrument are idempotent; wrapping
// an already-wrapped boundary is a no-op.
type Instrumentor struct {
	mu      sync.Mutex
	surface *Surface

	// originals holds the unwrapped members for restoration.
	originals Surface
	applied   bool
	logger    *slog.Logger
}

// New creates an instrumentor for the given surface. The surface must
// outlive the instrumentor; its members are swapped in place.
func New(surface *Surface) *Instrumentor {
	return &Instrumentor{surface: surface}
}

// Loader builds the policy-table entry for this instrumentor. The module
// and minimum version describe the framework the surface adapts.
func Loader(surface *Surface, module, minVersion string) instrument.Loader {
	inst := New(surface)
	return instrument.Loader{
		Module:     module,
		MinVersion: minVersion,
		New:        func() instrument.Instrumentor { return inst },
	}
}

// Name implements instrument.Instrumentor.
func (i *Instrumentor) Name() string { return instrumentorName }

// Instrument swaps each present surface member for an observing wrapper.
// Missing members are logged and skipped; only a surface with no members
// at all is an error.
func (i *Instrumentor) Instrument(args instrument.Args) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	logger := args.Logger
	if logger == nil {
		logger = slog.Default()
	}
	i.logger = logger.With("component", "instrument.agentkit")

	if i.surface == nil {
		return fmt.Errorf("no surface: %w", instrument.ErrPatchTargetMissing)
	}
	if i.applied {
		return nil
	}

	wrapped := 0

	if i.surface.Runner != nil {
		if _, already := i.surface.Runner.(*instrumentedRunner); already {
			wrapped++
		} else {
			i.originals.Runner = i.surface.Runner
			i.surface.Runner = &instrumentedRunner{inner: i.surface.Runner, args: args}
			wrapped++
		}
	} else {
		i.logger.Warn("agent run boundary missing, skipping")
	}

	if i.surface.Model != nil {
		if _, already := i.surface.Model.(*instrumentedModel); already {
			wrapped++
		} else {
			i.originals.Model = i.surface.Model
			i.surface.Model = &instrumentedModel{inner: i.surface.Model, args: args}
			wrapped++
		}
	} else {
		i.logger.Warn("model call boundary missing, skipping")
	}

	if i.surface.Tool != nil {
		i.originals.Tool = i.surface.Tool
		i.surface.Tool = wrapToolFunc(i.surface.Tool, args)
		wrapped++
	} else {
		i.logger.Warn("tool boundary missing, skipping")
	}

	if wrapped == 0 {
		return fmt.Errorf("surface exposes no boundaries: %w", instrument.ErrPatchTargetMissing)
	}

	i.applied = true
	i.logger.Info("surface instrumented", "boundaries", wrapped)
	return nil
}

// Uninstrument restores every boundary that was wrapped.
func (i *Instrumentor) Uninstrument() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.applied {
		return nil
	}

	if i.originals.Runner != nil {
		i.surface.Runner = i.originals.Runner
	}
	if i.originals.Model != nil {
		i.surface.Model = i.originals.Model
	}
	if i.originals.Tool != nil {
		i.surface.Tool = i.originals.Tool
	}

	i.originals = Surface{}
	i.applied = false

	if i.logger != nil {
		i.logger.Info("surface restored")
	}
	return nil
}
