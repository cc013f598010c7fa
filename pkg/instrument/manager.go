package instrument

import (
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"phare-hq/phare/pkg/config"
)

var (
	// ErrAgenticExclusive is reported when instrumentation is blocked
	// because an agentic library is already active.
	ErrAgenticExclusive = errors.New("agentic library active, further instrumentation blocked")

	// ErrVersionBelowMinimum is reported when an installed module is older
	// than its instrumentor's minimum version.
	ErrVersionBelowMinimum = errors.New("installed version below instrumentor minimum")

	// ErrPatchTargetMissing is returned by instrumentors whose target
	// surface exposes nothing to wrap.
	ErrPatchTargetMissing = errors.New("instrumentation target not present")
)

// goPseudoModule is the reserved module key for the Go runtime itself.
// Loaders registered under it are version-gated against runtime.Version().
const goPseudoModule = "go"

// Manager decides which instrumentors to apply when target libraries are
// announced. It partitions targets into two classes with a mutual-exclusion
// policy: once an agentic-library instrumentor is active, no further
// instrumentation of any kind is permitted, and all active provider
// instrumentors are removed first.
//
// Hosts announce targets with OnLoad at composition time; Scan covers
// libraries already linked into the binary before the manager existed.
type Manager struct {
	mu sync.Mutex

	// Policy tables, disjoint by module path.
	providers map[string]Loader
	agentic   map[string]Loader

	// active maps module path to its applied instrumentor.
	active map[string]Instrumentor

	// agenticActive blocks all further registrations once set.
	agenticActive bool

	// inProgress guards against reentrant application for a module.
	inProgress map[string]struct{}

	// disabled holds instrumentor names and module paths to skip.
	disabled map[string]struct{}

	enabled bool
	args    Args
	logger  *slog.Logger

	// Test seams for installed-package resolution.
	readBuildInfo  func() (*debug.BuildInfo, bool)
	runtimeVersion func() string
}

// NewManager creates an instrumentation manager. The args are handed to
// every instrumentor it applies.
func NewManager(cfg config.InstrumentConfig, args Args, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	disabled := make(map[string]struct{}, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = struct{}{}
	}

	return &Manager{
		providers:      make(map[string]Loader),
		agentic:        make(map[string]Loader),
		active:         make(map[string]Instrumentor),
		inProgress:     make(map[string]struct{}),
		disabled:       disabled,
		enabled:        cfg.Enabled == nil || *cfg.Enabled,
		args:           args,
		logger:         logger.With("component", "instrument"),
		readBuildInfo:  debug.ReadBuildInfo,
		runtimeVersion: runtime.Version,
	}
}

// RegisterProvider adds a provider-class target to the policy table.
// Providers coexist with each other but are removed when an agentic
// library activates.
func (m *Manager) RegisterProvider(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[loader.Module] = loader
}

// RegisterAgenticLibrary adds an agentic-library target to the policy
// table. The first agentic library to activate wins exclusively.
func (m *Manager) RegisterAgenticLibrary(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentic[loader.Module] = loader
}

// OnLoad announces that a package path has been loaded. The path is matched
// against the policy tables; the path itself and any policy key that is a
// slash-boundary prefix of it are candidates. Failures are logged and never
// propagate to the caller.
func (m *Manager) OnLoad(pkgPath string) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range m.candidatesLocked(pkgPath) {
		m.applyLocked(key)
	}
}

// Scan walks the binary's build info and applies instrumentation for every
// policy-table module already linked in. It covers libraries present before
// the manager was created.
func (m *Manager) Scan() {
	if !m.enabled {
		return
	}

	info, ok := m.readBuildInfo()
	if !ok {
		m.logger.Warn("build info unavailable, skipping instrumentation scan")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, dep := range info.Deps {
		if _, isProvider := m.providers[dep.Path]; isProvider {
			m.applyLocked(dep.Path)
			continue
		}
		if _, isAgentic := m.agentic[dep.Path]; isAgentic {
			m.applyLocked(dep.Path)
		}
	}

	// The runtime pseudo-module never appears in Deps.
	if _, ok := m.providers[goPseudoModule]; ok {
		m.applyLocked(goPseudoModule)
	}
	if _, ok := m.agentic[goPseudoModule]; ok {
		m.applyLocked(goPseudoModule)
	}
}

// candidatesLocked resolves a loaded package path to policy-table keys:
// the path itself plus any key that prefixes it at a slash boundary
// (a load of "example.com/kit/runner" matches the key "example.com/kit").
func (m *Manager) candidatesLocked(pkgPath string) []string {
	seen := map[string]struct{}{}
	var keys []string

	add := func(key string) {
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	check := func(key string) {
		if key == pkgPath || strings.HasPrefix(pkgPath, key+"/") {
			add(key)
		}
	}

	for key := range m.providers {
		check(key)
	}
	for key := range m.agentic {
		check(key)
	}
	return keys
}

// applyLocked runs the full decision procedure for one policy-table key.
// Any failure is logged and swallowed; instrumentation is never fatal.
func (m *Manager) applyLocked(key string) {
	loader, isAgentic, ok := m.lookupLocked(key)
	if !ok {
		return
	}

	// Reentrancy guard: a nested load triggered while this module is being
	// instrumented must not re-apply it.
	if _, busy := m.inProgress[key]; busy {
		return
	}
	if _, done := m.active[key]; done {
		return
	}

	if m.skipDisabledLocked(key) {
		return
	}

	if m.agenticActive {
		m.logger.Debug("instrumentation blocked",
			"module", key, "reason", ErrAgenticExclusive)
		return
	}

	installed, ok := m.installedVersionLocked(key)
	if !ok {
		m.logger.Debug("module not installed, skipping instrumentation",
			"module", key)
		return
	}

	satisfied, err := versionSatisfied(installed, loader.MinVersion)
	if err != nil {
		m.logger.Warn("version check failed, skipping instrumentation",
			"module", key, "error", err)
		return
	}
	if !satisfied {
		m.logger.Info("skipping instrumentation",
			"module", key,
			"installed", installed,
			"min_version", loader.MinVersion,
			"reason", ErrVersionBelowMinimum)
		return
	}

	m.inProgress[key] = struct{}{}
	defer delete(m.inProgress, key)

	if isAgentic {
		// First agentic library wins exclusively: drop every provider
		// before applying, then block all future registrations.
		m.uninstrumentProvidersLocked()
	}

	inst := loader.New()
	if err := inst.Instrument(m.args); err != nil {
		m.logger.Warn("failed to instrument module",
			"module", key, "instrumentor", inst.Name(), "error", err)
		return
	}

	m.active[key] = inst
	if isAgentic {
		m.agenticActive = true
	}

	m.logger.Info("module instrumented",
		"module", key,
		"instrumentor", inst.Name(),
		"version", installed,
		"agentic", isAgentic)
}

func (m *Manager) lookupLocked(key string) (Loader, bool, bool) {
	if loader, ok := m.agentic[key]; ok {
		return loader, true, true
	}
	if loader, ok := m.providers[key]; ok {
		return loader, false, true
	}
	return Loader{}, false, false
}

// skipDisabledLocked honors the configured disabled list, which may name a
// module path either in full or by its last path element.
func (m *Manager) skipDisabledLocked(key string) bool {
	if _, off := m.disabled[key]; off {
		m.logger.Debug("instrumentation disabled by configuration", "module", key)
		return true
	}
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		if _, off := m.disabled[key[i+1:]]; off {
			m.logger.Debug("instrumentation disabled by configuration", "module", key)
			return true
		}
	}
	return false
}

// uninstrumentProvidersLocked removes every active provider instrumentor.
// Restore failures are logged, never raised.
func (m *Manager) uninstrumentProvidersLocked() {
	for module, inst := range m.active {
		if _, isProvider := m.providers[module]; !isProvider {
			continue
		}
		if err := inst.Uninstrument(); err != nil {
			m.logger.Warn("failed to uninstrument provider",
				"module", module, "instrumentor", inst.Name(), "error", err)
		} else {
			m.logger.Info("provider uninstrumented for agentic library",
				"module", module, "instrumentor", inst.Name())
		}
		delete(m.active, module)
	}
}

// installedVersionLocked resolves the installed version of a module.
// A module counts as installed when it appears in build info without a
// local replace directive and with a real (non-devel) version. The "go"
// pseudo-module resolves to the runtime version.
func (m *Manager) installedVersionLocked(module string) (string, bool) {
	if module == goPseudoModule {
		v := m.runtimeVersion()
		if !strings.HasPrefix(v, "go") {
			// Development builds report e.g. "devel +abcdef".
			return "", false
		}
		return v, true
	}

	info, ok := m.readBuildInfo()
	if !ok {
		return "", false
	}

	for _, dep := range info.Deps {
		if dep.Path != module {
			continue
		}
		if dep.Replace != nil {
			// Locally replaced modules are treated as the application's
			// own code and never instrumented.
			return "", false
		}
		if dep.Version == "" || dep.Version == "(devel)" {
			return "", false
		}
		return dep.Version, true
	}
	return "", false
}

// ActiveInstrumentors returns the module paths currently instrumented.
func (m *Manager) ActiveInstrumentors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	modules := make([]string, 0, len(m.active))
	for module := range m.active {
		modules = append(modules, module)
	}
	return modules
}

// AgenticActive reports whether an agentic-library instrumentor holds the
// exclusive slot.
func (m *Manager) AgenticActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agenticActive
}

// Reset uninstruments everything and clears the exclusion flag. Intended
// for tests.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for module, inst := range m.active {
		if err := inst.Uninstrument(); err != nil {
			m.logger.Warn("failed to uninstrument module during reset",
				"module", module, "error", err)
		}
		delete(m.active, module)
	}
	m.agenticActive = false
}
