package parser

import (
	"io"
	"log/slog"
	"time"

	"github.com/aledsdavies/svelteparse/runtime/config"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Parse counts only
	TelemetryTiming                      // Parse counts + timing per phase
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Block and region enter/exit
	DebugDetailed                   // Each-binding state transitions
)

// WhitespacePolicy decides how whitespace after a sigil ("{# if}") is
// reported.
type WhitespacePolicy int

const (
	WhitespaceWarning WhitespacePolicy = iota // Default
	WhitespaceError
	WhitespaceIgnore
)

// DefaultMaxEachTransitions bounds the each-binding state machine.
const DefaultMaxEachTransitions = 1000

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry          TelemetryMode
	debug              DebugLevel
	mode               lexer.LanguageMode // ModeUnset: detect from <script lang>
	filename           string
	logger             *slog.Logger
	maxEachTransitions int
	whitespace         WhitespacePolicy
	strictTargets      bool
	svelteVersion      string
}

func newConfig(opts []ParserOpt) *ParserConfig {
	c := &ParserConfig{
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxEachTransitions: DefaultMaxEachTransitions,
		strictTargets:      true,
		svelteVersion:      config.DefaultSvelteVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetryBasic enables basic telemetry (parse counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per phase)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugDetailed
	}
}

// WithLanguageMode is used when the document has no <script lang>. It
// never overrides a typed script.
func WithLanguageMode(mode lexer.LanguageMode) ParserOpt {
	return func(c *ParserConfig) {
		c.mode = mode
	}
}

// WithFilename sets the filename reported in errors.
func WithFilename(name string) ParserOpt {
	return func(c *ParserConfig) {
		c.filename = name
	}
}

// WithLogger routes parser tracing to logger.
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxEachTransitions bounds the number of state transitions the
// each-binding parser may take before giving up on a block header.
func WithMaxEachTransitions(n int) ParserOpt {
	return func(c *ParserConfig) {
		if n > 0 {
			c.maxEachTransitions = n
		}
	}
}

// WithWhitespacePolicy sets how whitespace after a sigil is reported.
func WithWhitespacePolicy(p WhitespacePolicy) ParserOpt {
	return func(c *ParserConfig) {
		c.whitespace = p
	}
}

// WithStrictTargets reports misplaced directives as errors instead of
// warnings.
func WithStrictTargets(strict bool) ParserOpt {
	return func(c *ParserConfig) {
		c.strictTargets = strict
	}
}

// WithSvelteVersion sets the targeted Svelte version ("5.0.0" or "v5").
// Snippets and {@render} need version 5.
func WithSvelteVersion(v string) ParserOpt {
	return func(c *ParserConfig) {
		c.svelteVersion = config.CanonicalVersion(v)
	}
}

// WithConfig applies a loaded project configuration.
func WithConfig(cfg *config.Config) ParserOpt {
	return func(c *ParserConfig) {
		if cfg == nil {
			return
		}
		if mode, err := lexer.ParseLanguageMode(cfg.Language); err == nil {
			c.mode = mode
		}
		if cfg.MaxEachTransitions > 0 {
			c.maxEachTransitions = cfg.MaxEachTransitions
		}
		switch cfg.Whitespace {
		case config.WhitespaceError:
			c.whitespace = WhitespaceError
		case config.WhitespaceIgnore:
			c.whitespace = WhitespaceIgnore
		default:
			c.whitespace = WhitespaceWarning
		}
		c.strictTargets = cfg.Directives.StrictTargets
		if cfg.Svelte != "" {
			c.svelteVersion = config.CanonicalVersion(cfg.Svelte)
		}
	}
}

// ParseTelemetry holds parser performance metrics (production-safe)
type ParseTelemetry struct {
	LexTime     time.Duration // Time spent lexing markup
	ParseTime   time.Duration // Time spent building the document and regions
	TotalTime   time.Duration // Total parse time
	TokenCount  int           // Number of markup tokens
	RegionCount int           // Number of mustache regions parsed
	EventCount  int           // Number of builder events across all builders
	ErrorCount  int           // Number of parse errors
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_block", "exit_region", "each_state", etc.
	TokenPos  int    // Current token position
	Context   string // Additional context
}
