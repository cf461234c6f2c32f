package lexer

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/net/html/atom"
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + timing per type
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // State transitions
	DebugDetailed                   // Every emitted token
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
	logger    *slog.Logger
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per type)
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables state transition tracing (development only)
func WithDebugPaths() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables per-token tracing (development only)
func WithDebugDetailed() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugDetailed
	}
}

// WithLogger routes debug output to logger instead of DefaultLogger.
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// TokenTelemetry holds per-token type telemetry (production-safe)
type TokenTelemetry struct {
	Type      TokenType
	Count     int
	TotalTime time.Duration
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "enter_tag", "enter_raw", "emit"
	Position  Position // Current lexer position
	Context   string   // Tag name, token text, etc.
}

// DefaultLogger returns the stderr logger used by the lexer and parser. It
// logs at debug level only when SVELTEPARSE_DEBUG is set.
func DefaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, os.Getenv("SVELTEPARSE_DEBUG") != "")
}

// NewLogger builds a text logger without timestamp or level attributes.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove timestamp for cleaner output
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			// Simplify level display
			if a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

type lexState uint8

const (
	stateContent lexState = iota // character data between tags
	stateTag                     // inside <name ...> or </name>
	stateQuoted                  // inside a quoted attribute value
	stateRaw                     // inside <script> or <style>
)

// Lexer tokenizes markup. Mustache regions are emitted whole as MUSTACHE
// tokens; their contents are tokenized separately by ScriptLexer.
type Lexer struct {
	input    []byte
	position int
	line     int
	column   int

	state       lexState
	quote       byte
	tagAtom     atom.Atom
	tagName     []byte
	rawName     []byte
	closingTag  bool
	expectName  bool
	expectValue bool
	langPending bool
	afterTrivia bool
	done        bool

	mode LanguageMode

	telemetryMode  TelemetryMode
	tokenTelemetry map[TokenType]*TokenTelemetry
	debugLevel     DebugLevel
	debugEvents    []DebugEvent
	logger         *slog.Logger
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	l := &Lexer{
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
		logger:        config.logger,
	}
	if l.logger == nil {
		l.logger = DefaultLogger()
	}
	if config.telemetry > TelemetryOff {
		l.tokenTelemetry = make(map[TokenType]*TokenTelemetry)
	}
	if config.debug > DebugOff {
		l.debugEvents = make([]DebugEvent, 0, 256)
	}

	l.Init([]byte(input))
	return l
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = 1
	l.column = 1
	l.state = stateContent
	l.mode = ModeUnset
	l.afterTrivia = false
	l.done = false
	l.expectName, l.expectValue, l.langPending = false, false, false

	for k := range l.tokenTelemetry {
		delete(l.tokenTelemetry, k)
	}
	if l.debugEvents != nil {
		l.debugEvents = l.debugEvents[:0]
	}
}

// LanguageMode returns the mode declared by a <script lang="..."> tag seen so
// far. A TypeScript script anywhere in the document wins. ModeUnset means no
// script declared a language.
func (l *Lexer) LanguageMode() LanguageMode {
	return l.mode
}

// GetTokenTelemetry returns per-token type telemetry (production safe)
func (l *Lexer) GetTokenTelemetry() map[TokenType]*TokenTelemetry {
	if l.tokenTelemetry == nil {
		return nil
	}
	result := make(map[TokenType]*TokenTelemetry, len(l.tokenTelemetry))
	for k, v := range l.tokenTelemetry {
		c := *v
		result[k] = &c
	}
	return result
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugEvents == nil {
		return nil
	}
	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

// NextToken returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	tok := l.lexToken()

	if l.telemetryMode > TelemetryOff {
		tel, ok := l.tokenTelemetry[tok.Type]
		if !ok {
			tel = &TokenTelemetry{Type: tok.Type}
			l.tokenTelemetry[tok.Type] = tel
		}
		tel.Count++
		if l.telemetryMode >= TelemetryTiming {
			tel.TotalTime += time.Since(start)
		}
	}
	if l.debugLevel >= DebugDetailed {
		l.recordDebugEvent("emit", tok.Type.String()+" "+string(tok.Text))
	}
	return tok
}

// GetTokens returns all remaining tokens, terminated by EOF.
func (l *Lexer) GetTokens() []Token {
	tokens := make([]Token, 0, len(l.input)/4+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugEvents == nil {
		return
	}
	pos := l.pos()
	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  pos,
		Context:   context,
	})
	l.logger.Debug("lexer", "event", event, "line", pos.Line, "column", pos.Column, "context", context)
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// advanceTo moves the cursor to end, tracking line and rune column.
func (l *Lexer) advanceTo(end int) {
	for l.position < end {
		c := l.input[l.position]
		l.position++
		if c == '\n' {
			l.line++
			l.column = 1
		} else if c&0xC0 != 0x80 {
			l.column++
		}
	}
}

func (l *Lexer) emit(typ TokenType, start int, pos Position) Token {
	tok := Token{
		Type:           typ,
		Text:           l.input[start:l.position],
		Position:       pos,
		HasSpaceBefore: l.afterTrivia,
	}
	l.afterTrivia = typ == WHITESPACE
	return tok
}

func (l *Lexer) lexToken() Token {
	if l.position >= len(l.input) {
		if !l.done && l.debugLevel >= DebugPaths {
			l.recordDebugEvent("eof", "")
		}
		l.done = true
		return Token{Type: EOF, Position: l.pos(), HasSpaceBefore: l.afterTrivia}
	}

	switch l.state {
	case stateTag:
		return l.lexTag()
	case stateQuoted:
		return l.lexQuoted()
	case stateRaw:
		return l.lexRaw()
	default:
		return l.lexContent()
	}
}

func (l *Lexer) lexContent() Token {
	start, pos := l.position, l.pos()
	rest := l.input[start:]

	switch c := rest[0]; {
	case c == '{':
		l.advanceTo(ScanMustache(l.input, start))
		return l.emit(MUSTACHE, start, pos)

	case bytes.HasPrefix(rest, []byte("<!--")):
		end := bytes.Index(rest[4:], []byte("-->"))
		if end < 0 {
			l.advanceTo(len(l.input))
		} else {
			l.advanceTo(start + 4 + end + 3)
		}
		return l.emit(COMMENT, start, pos)

	case bytes.HasPrefix(rest, []byte("<!")):
		end := bytes.IndexByte(rest, '>')
		if end < 0 {
			l.advanceTo(len(l.input))
		} else {
			l.advanceTo(start + end + 1)
		}
		return l.emit(COMMENT, start, pos)

	case c == '<' && len(rest) > 2 && rest[1] == '/' && letterAt(rest, 2):
		l.advanceTo(start + 2)
		l.enterTag(true)
		return l.emit(END_TAG_OPEN, start, pos)

	case c == '<' && letterAt(rest, 1):
		l.advanceTo(start + 1)
		l.enterTag(false)
		return l.emit(TAG_OPEN, start, pos)

	case spaceAt(rest, 0):
		l.advanceTo(l.scanSpace(start))
		return l.emit(WHITESPACE, start, pos)

	default:
		// A stray '<' is character data.
		l.advanceTo(l.scanText(start + 1))
		return l.emit(TEXT, start, pos)
	}
}

func (l *Lexer) enterTag(closing bool) {
	l.state = stateTag
	l.closingTag = closing
	l.expectName = true
	l.expectValue = false
	l.langPending = false
	l.tagName = nil
	l.tagAtom = 0
	if l.debugLevel >= DebugPaths {
		l.recordDebugEvent("enter_tag", "")
	}
}

func (l *Lexer) leaveTag() {
	l.state = stateContent
	if !l.closingTag && (l.tagAtom == atom.Script || l.tagAtom == atom.Style) {
		l.state = stateRaw
		l.rawName = l.tagName
		if l.debugLevel >= DebugPaths {
			l.recordDebugEvent("enter_raw", string(l.tagName))
		}
	}
}

func (l *Lexer) lexTag() Token {
	start, pos := l.position, l.pos()
	c := l.input[start]
	next := byte(0)
	if start+1 < len(l.input) {
		next = l.input[start+1]
	}

	switch {
	case spaceAt(l.input, start):
		l.advanceTo(l.scanSpace(start))
		return l.emit(WHITESPACE, start, pos)

	case l.expectName:
		l.expectName = false
		end := l.scanUntil(start, &endsTagName)
		if end == start {
			return l.lexTag()
		}
		l.advanceTo(end)
		l.tagName = l.input[start:end]
		l.tagAtom = atom.Lookup(bytes.ToLower(l.tagName))
		return l.emit(TAG_NAME, start, pos)

	case c == '>':
		l.advanceTo(start + 1)
		l.leaveTag()
		return l.emit(TAG_CLOSE, start, pos)

	case c == '/' && next == '>':
		l.advanceTo(start + 2)
		l.state = stateContent
		return l.emit(TAG_SELF_CLOSE, start, pos)

	case c == '=':
		l.advanceTo(start + 1)
		l.expectValue = true
		return l.emit(ATTR_EQ, start, pos)

	case c == '{':
		l.expectValue = false
		l.langPending = false
		l.advanceTo(ScanMustache(l.input, start))
		return l.emit(MUSTACHE, start, pos)

	case l.expectValue && (c == '"' || c == '\''):
		l.expectValue = false
		l.quote = c
		l.state = stateQuoted
		l.advanceTo(start + 1)
		return l.emit(QUOTE, start, pos)

	case l.expectValue:
		l.expectValue = false
		end := l.scanUntil(start, &endsAttrValue)
		if end == start {
			end = start + 1
		}
		l.advanceTo(end)
		l.noteAttrValue(l.input[start:end])
		return l.emit(ATTR_VALUE, start, pos)

	case c == '<':
		// "<div <span>": the open tag was never closed.
		l.state = stateContent
		return l.lexContent()

	default:
		end := l.scanAttrName(start)
		if end == start {
			l.advanceTo(start + 1)
			return l.emit(ILLEGAL, start, pos)
		}
		l.advanceTo(end)
		name := l.input[start:end]
		l.langPending = !l.closingTag && l.tagAtom == atom.Script && bytes.EqualFold(name, []byte("lang"))
		return l.emit(ATTR_NAME, start, pos)
	}
}

func (l *Lexer) lexQuoted() Token {
	start, pos := l.position, l.pos()

	switch c := l.input[start]; c {
	case l.quote:
		l.advanceTo(start + 1)
		l.state = stateTag
		l.langPending = false
		return l.emit(QUOTE, start, pos)
	case '{':
		l.advanceTo(ScanMustache(l.input, start))
		return l.emit(MUSTACHE, start, pos)
	}

	end := start
	for end < len(l.input) && l.input[end] != l.quote && l.input[end] != '{' {
		end++
	}
	l.advanceTo(end)
	l.noteAttrValue(l.input[start:end])
	return l.emit(ATTR_VALUE, start, pos)
}

func (l *Lexer) lexRaw() Token {
	start, pos := l.position, l.pos()
	l.state = stateContent

	end := indexCloseTag(l.input[start:], l.rawName)
	if end < 0 {
		end = len(l.input)
	} else {
		end += start
	}
	if end == start {
		return l.lexContent()
	}
	l.advanceTo(end)
	return l.emit(RAW_TEXT, start, pos)
}

// noteAttrValue records the language declared by <script lang="...">.
func (l *Lexer) noteAttrValue(value []byte) {
	if !l.langPending {
		return
	}
	l.langPending = false
	if m := modeFromLang(value); m > l.mode {
		l.mode = m
		if l.debugLevel >= DebugPaths {
			l.recordDebugEvent("language_mode", m.String())
		}
	}
}

func (l *Lexer) scanSpace(i int) int {
	for spaceAt(l.input, i) {
		i++
	}
	return i
}

func (l *Lexer) scanText(i int) int {
	for i < len(l.input) && l.input[i] != '<' && l.input[i] != '{' {
		i++
	}
	return i
}

func (l *Lexer) scanUntil(i int, stop *[128]bool) int {
	for i < len(l.input) {
		c := l.input[i]
		if c < 128 && stop[c] {
			break
		}
		i++
	}
	return i
}

func (l *Lexer) scanAttrName(i int) int {
	for i < len(l.input) {
		c := l.input[i]
		if c < 128 && endsAttrName[c] {
			break
		}
		if c == '/' && i+1 < len(l.input) && l.input[i+1] == '>' {
			break
		}
		i++
	}
	return i
}

// indexCloseTag finds "</name" (case-insensitive) followed by a delimiter.
func indexCloseTag(src, name []byte) int {
	offset := 0
	for {
		idx := bytes.Index(src[offset:], []byte("</"))
		if idx < 0 {
			return -1
		}
		at := offset + idx
		nameEnd := at + 2 + len(name)
		if nameEnd <= len(src) && bytes.EqualFold(src[at+2:nameEnd], name) &&
			(nameEnd == len(src) || spaceAt(src, nameEnd) || src[nameEnd] == '>' || src[nameEnd] == '/') {
			return at
		}
		offset = at + 2
	}
}

// ScanMustache returns the offset just past the '}' that closes the region
// opened by src[start] == '{', or len(src) when the region is unterminated.
// Nested braces, string and template literals, and comments are skipped.
func ScanMustache(src []byte, start int) int {
	end, _ := scanBalanced(src, start+1)
	return end
}

// IsWholeMustache reports whether src is exactly one terminated region: it
// opens with '{' and the brace that closes it is the last byte.
func IsWholeMustache(src []byte) bool {
	if len(src) < 2 || src[0] != '{' {
		return false
	}
	end, ok := scanBalanced(src, 1)
	return ok && end == len(src)
}

// scanBalanced scans from i to the '}' at depth zero and returns the offset
// after it, reporting whether one was found.
func scanBalanced(src []byte, i int) (int, bool) {
	depth := 0
	for i < len(src) {
		switch src[i] {
		case '{':
			depth++
			i++
		case '}':
			if depth == 0 {
				return i + 1, true
			}
			depth--
			i++
		case '"', '\'':
			i = skipString(src, i)
		case '`':
			i = skipTemplate(src, i)
		case '/':
			i = skipComment(src, i)
		default:
			i++
		}
	}
	return len(src), false
}

// skipString returns the offset after the string literal at src[i]. An
// unterminated string stops at the end of the line.
func skipString(src []byte, i int) int {
	quote := src[i]
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			return i
		default:
			i++
		}
	}
	return len(src)
}

// skipTemplate returns the offset after the template literal at src[i].
func skipTemplate(src []byte, i int) int {
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			return i + 1
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			end, ok := scanBalanced(src, i+2)
			if !ok {
				return len(src)
			}
			i = end
		default:
			i++
		}
	}
	return len(src)
}

// skipComment skips a // or /* comment at src[i], or a lone '/'.
func skipComment(src []byte, i int) int {
	if i+1 >= len(src) {
		return i + 1
	}
	switch src[i+1] {
	case '/':
		end := bytes.IndexByte(src[i:], '\n')
		if end < 0 {
			return len(src)
		}
		return i + end
	case '*':
		end := bytes.Index(src[i+2:], []byte("*/"))
		if end < 0 {
			return len(src)
		}
		return i + 2 + end + 2
	default:
		return i + 1
	}
}
