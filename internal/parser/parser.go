// Package parser builds a rule graph (internal/rules) from tokens produced
// by internal/lexer, per the skhdrc grammar.
package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/lexer"
	"github.com/skhd-go/skhd/internal/rules"
	"github.com/skhd-go/skhd/internal/skhderrors"
	"go.uber.org/multierr"
)

// ReadFileFunc abstracts file reading so tests can parse in-memory sources
// without touching disk. The production default is os.ReadFile.
type ReadFileFunc func(path string) (string, error)

func defaultReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse compiles the config file at rootPath (and everything it `.load`s)
// into a *rules.Mappings. Parse errors are collected and returned combined
// via multierr so callers can both range over (via multierr.Errors) and
// treat the whole batch as one error; a non-nil *rules.Mappings is always
// returned, even when errors occurred, reflecting everything parsed before
// the first unrecoverable condition.
func Parse(rootPath string) (*rules.Mappings, error) {
	return ParseWithReader(rootPath, defaultReadFile)
}

// ParseWithReader is Parse with an injectable file reader, for tests.
func ParseWithReader(rootPath string, readFile ReadFileFunc) (*rules.Mappings, error) {
	p := &parser{
		mappings: rules.NewMappings(),
		readFile: readFile,
		visiting: make(map[string]bool),
		loaded:   make(map[string]bool),
	}
	p.parseFile(rootPath)
	if len(p.errs) == 0 {
		return p.mappings, nil
	}
	var combined error
	for _, e := range p.errs {
		combined = multierr.Append(combined, e)
	}
	return p.mappings, combined
}

type parser struct {
	mappings *rules.Mappings
	readFile ReadFileFunc
	visiting map[string]bool // files currently on the .load stack (cycle detection)
	loaded   map[string]bool // files already fully loaded (dedup sibling .loads)

	errs skhderrors.ErrorList

	// per-file parse state
	path   string
	toks   []lexer.Token
	pos    int
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (p *parser) parseFile(path string) {
	abs := absPath(path)
	if p.visiting[abs] {
		p.errs = append(p.errs, skhderrors.NewParseError(skhderrors.ErrCyclicLoad, abs, 0, 0, "", "cyclic .load of "+abs))
		return
	}
	if p.loaded[abs] {
		return
	}

	src, err := p.readFile(path)
	if err != nil {
		p.errs = append(p.errs, skhderrors.NewParseError(skhderrors.ErrLoadNotFound, abs, 0, 0, "", err.Error()))
		return
	}

	p.visiting[abs] = true
	defer delete(p.visiting, abs)
	p.loaded[abs] = true
	p.mappings.LoadedFiles = append(p.mappings.LoadedFiles, abs)

	// Save/restore the parse cursor so nested .load files don't corrupt the
	// caller's position.
	savedPath, savedToks, savedPos := p.path, p.toks, p.pos
	defer func() { p.path, p.toks, p.pos = savedPath, savedToks, savedPos }()

	p.path = abs
	p.toks = nil
	p.pos = 0

	l := lexer.New(abs, src)
	for {
		tok, lexErr := l.Next()
		if lexErr != nil {
			p.errs = append(p.errs, skhderrors.NewParseError(skhderrors.ErrInvalidUTF8, abs, 0, 0, "", lexErr.Error()))
			return
		}
		p.toks = append(p.toks, tok)
		if tok.Kind == lexer.EOF {
			break
		}
	}

	p.parseTopLevel()
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool       { return p.cur().Kind == lexer.EOF }
func (p *parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) recordErr(kind error, tok lexer.Token, message string) {
	p.errs = append(p.errs, skhderrors.NewParseError(kind, p.path, tok.Line, tok.Column, tok.Text, message))
}

// recover skips tokens until it reaches one on a later source line than the
// token that caused the error, so the next top-level form can be attempted.
func (p *parser) recover(errLine int) {
	for !p.atEOF() && p.cur().Line <= errLine {
		p.advance()
	}
}

func (p *parser) parseTopLevel() {
	for !p.atEOF() {
		startLine := p.cur().Line
		switch p.cur().Kind {
		case lexer.Option:
			if err := p.parseDirective(); err != nil {
				p.recover(startLine)
			}
		case lexer.Decl:
			// ":: name" form: the "::" comes before the mode name list.
			p.advance()
			names, err := p.parseModeNameList()
			if err == nil {
				err = p.declareModes(names)
			}
			if err != nil {
				p.recover(startLine)
			}
		case lexer.Identifier, lexer.Modifier, lexer.Literal, lexer.Key, lexer.KeyHex,
			lexer.Dash, lexer.Equals, lexer.BeginList, lexer.EndList, lexer.Plus,
			lexer.Comma, lexer.Capture, lexer.Unbound, lexer.Wildcard:
			// A bare punctuation key with no modifier prefix (e.g. "- : cmd")
			// starts a hotkey with its own structural token kind rather than
			// lexer.Key; parseTrigger resolves it via the active layout.
			if err := p.parseHotkey(); err != nil {
				p.recover(startLine)
			}
		default:
			tok := p.cur()
			p.recordErr(skhderrors.ErrUnexpectedToken, tok, "unexpected token at top level")
			p.recover(startLine)
		}
	}
}

// --- directives ---

func (p *parser) parseDirective() error {
	opt := p.advance() // Option token, Text is the directive name
	switch opt.Text {
	case "load":
		return p.parseLoadDirective(opt)
	case "shell":
		return p.parseShellDirective(opt)
	case "blacklist":
		return p.parseBlacklistDirective(opt)
	case "define":
		return p.parseDefineDirective(opt)
	default:
		p.recordErr(skhderrors.ErrUnexpectedToken, opt, "unknown directive .'"+opt.Text+"'")
		return errSentinel
	}
}

func (p *parser) parseLoadDirective(opt lexer.Token) error {
	if p.cur().Kind != lexer.String {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected string after .load")
		return errSentinel
	}
	target := p.advance().Text
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(p.path), target)
	}
	p.parseFile(target)
	return nil
}

func (p *parser) parseShellDirective(opt lexer.Token) error {
	if p.cur().Kind != lexer.String {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected string after .shell")
		return errSentinel
	}
	p.mappings.SetShell(p.advance().Text)
	return nil
}

func (p *parser) parseBlacklistDirective(opt lexer.Token) error {
	if p.cur().Kind != lexer.BeginList {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected '[' after .blacklist")
		return errSentinel
	}
	p.advance()
	any := false
	for p.cur().Kind != lexer.EndList {
		if p.cur().Kind != lexer.Identifier && p.cur().Kind != lexer.String {
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected process name in .blacklist")
			return errSentinel
		}
		name := p.advance().Text
		if err := p.mappings.AddBlacklist(name); err != nil {
			p.recordErr(skhderrors.ErrBlacklistDuplicate, opt, err.Error())
		}
		any = true
	}
	if !any {
		p.recordErr(skhderrors.ErrUnexpectedToken, opt, ".blacklist requires at least one entry")
	}
	p.advance() // ']'
	return nil
}

// parseDefineDirective consumes `.define name` and an optional `= value`
// token. The definition is discarded: names are not substituted later.
func (p *parser) parseDefineDirective(opt lexer.Token) error {
	if p.cur().Kind != lexer.Identifier {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected identifier after .define")
		return errSentinel
	}
	p.advance() // name (not recorded)
	if p.cur().Kind == lexer.Equals {
		p.advance()
		if !p.atEOF() {
			p.advance()
		}
	}
	return nil
}

// --- mode declarations ---

// parseModeNameList reads identifier ("," identifier)* immediately
// preceding a Decl or Insert token, already consumed up to the current
// identifier. It is used by both mode_decl and hotkey's mode_prefix.
func (p *parser) parseModeNameList() ([]string, error) {
	var names []string
	for {
		if p.cur().Kind != lexer.Identifier {
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected mode name")
			return nil, errSentinel
		}
		name := p.advance().Text
		for _, n := range names {
			if n == name {
				p.recordErr(skhderrors.ErrDuplicateModeInList, p.cur(), "duplicate mode '"+name+"' in list")
				return nil, errSentinel
			}
		}
		names = append(names, name)
		if p.cur().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	return names, nil
}

// --- hotkeys ---

func (p *parser) parseHotkey() error {
	var modeNames []string
	// Look ahead: an identifier list followed by '::' is a mode_decl; an
	// identifier list followed by '<' is a hotkey's mode_prefix.
	if p.cur().Kind == lexer.Identifier {
		names, err := p.parseModeNameList()
		if err != nil {
			return err
		}
		switch p.cur().Kind {
		case lexer.Decl:
			return p.finishModeDecl(names)
		case lexer.Insert:
			p.advance()
			modeNames = names
		default:
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected '::' or '<' after mode name list")
			return errSentinel
		}
	}
	if modeNames == nil {
		modeNames = []string{rules.DefaultModeName}
	} else {
		for _, name := range modeNames {
			if _, exists := p.mappings.Modes[name]; !exists {
				p.recordErr(skhderrors.ErrModeNotFound, p.cur(), "mode '"+name+"' not declared")
				return errSentinel
			}
		}
	}

	mods, key, nx, err := p.parseTrigger()
	if err != nil {
		return err
	}

	hk := &rules.Hotkey{Modifiers: mods, Key: key, NX: nx}

	if p.cur().Kind == lexer.BeginList {
		if err := p.parseProcessMap(hk); err != nil {
			return err
		}
	} else {
		act, passthrough, onRelease, err := p.parseAction()
		if err != nil {
			return err
		}
		hk.Default = act
		hk.Passthrough = passthrough
		hk.OnRelease = onRelease
	}

	if err := p.mappings.AddHotkey(modeNames, hk); err != nil {
		p.recordErr(skhderrors.ErrDuplicateHotkey, p.cur(), err.Error())
		return errSentinel
	}
	return nil
}

// finishModeDecl handles identifier ("," identifier)* "::" ("@")? command?
// once the name list has already been consumed.
func (p *parser) finishModeDecl(names []string) error {
	if p.cur().Kind != lexer.Decl {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected '::'")
		return errSentinel
	}
	p.advance()
	return p.declareModes(names)
}

// declareModes reads the optional "@" capture marker and on-enter command
// that follow a mode declaration's "::" and registers each named mode.
func (p *parser) declareModes(names []string) error {
	capture := false
	if p.cur().Kind == lexer.Capture {
		p.advance()
		capture = true
	}
	var onEnter string
	if p.cur().Kind == lexer.Command {
		onEnter = p.advance().Text
	}
	for _, name := range names {
		if err := p.mappings.PutMode(name, capture, onEnter); err != nil {
			p.recordErr(skhderrors.ErrModeAlreadyExists, p.cur(), err.Error())
			return errSentinel
		}
	}
	return nil
}

// parseTrigger consumes (modifier ("+" modifier)* "-")? key_token and
// returns the resolved modifier mask, keycode, and whether this trigger is
// an NX (media key) trigger.
func (p *parser) parseTrigger() (keycodes.Modifier, keycodes.KeyCode, bool, error) {
	var mask keycodes.Modifier
	for p.cur().Kind == lexer.Modifier {
		name := p.advance().Text
		bit, ok := keycodes.ModifierNames[name]
		if !ok {
			p.recordErr(skhderrors.ErrUnknownModifier, p.cur(), "unknown modifier '"+name+"'")
			return 0, 0, false, errSentinel
		}
		mask |= bit
		if p.cur().Kind == lexer.Plus {
			p.advance()
			continue
		}
		break
	}
	if mask != 0 {
		if p.cur().Kind != lexer.Dash {
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected '-' after modifier list")
			return 0, 0, false, errSentinel
		}
		p.advance()
	}

	tok := p.cur()
	switch tok.Kind {
	case lexer.Literal:
		p.advance()
		code := keycodes.LiteralKeys[tok.Text]
		return mask, code, keycodes.ImplicitNXKeys[tok.Text], nil
	case lexer.KeyHex:
		p.advance()
		n, err := strconv.ParseUint(tok.Text, 0, 32)
		if err != nil {
			p.recordErr(skhderrors.ErrUnresolvableKey, tok, "malformed hex keycode '"+tok.Text+"'")
			return 0, 0, false, errSentinel
		}
		return mask, keycodes.KeyCode(n), false, nil
	case lexer.Key:
		p.advance()
		code, ok := keycodes.ResolveChar(tok.Text)
		if !ok {
			p.recordErr(skhderrors.ErrUnresolvableKey, tok, "key '"+tok.Text+"' has no keycode on the active layout")
			return 0, 0, false, errSentinel
		}
		return mask, code, false, nil
	default:
		// Punctuation keys (-, =, [, ], etc.) lex as their own structural
		// token kind everywhere else in the grammar, so a bare key trigger
		// like "- : cmd" or "cmd - [ : cmd" arrives here rather than as
		// lexer.Key. Any single-rune token is a candidate layout key.
		if utf8.RuneCountInString(tok.Text) == 1 {
			p.advance()
			code, ok := keycodes.ResolveChar(tok.Text)
			if !ok {
				p.recordErr(skhderrors.ErrUnresolvableKey, tok, "key '"+tok.Text+"' has no keycode on the active layout")
				return 0, 0, false, errSentinel
			}
			return mask, code, false, nil
		}
		p.recordErr(skhderrors.ErrUnexpectedToken, tok, "expected a key token")
		return 0, 0, false, errSentinel
	}
}

// parseAction consumes one of the `action` grammar alternatives.
func (p *parser) parseAction() (rules.Action, bool, bool, error) {
	switch p.cur().Kind {
	case lexer.Command:
		cmd := p.advance().Text
		return rules.Action{Command: cmd}, false, false, nil
	case lexer.Arrow:
		p.advance()
		if p.cur().Kind != lexer.Command {
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected ':' command after '->'")
			return rules.Action{}, false, false, errSentinel
		}
		cmd := p.advance().Text
		return rules.Action{Command: cmd}, true, false, nil
	case lexer.Forward:
		p.advance()
		mods, key, _, err := p.parseTrigger()
		if err != nil {
			return rules.Action{}, false, false, err
		}
		return rules.Action{Forward: &rules.ForwardKey{Modifiers: mods, Key: key}}, false, false, nil
	case lexer.Activate:
		mode := p.advance().Text
		if _, ok := p.mappings.Modes[mode]; !ok {
			p.recordErr(skhderrors.ErrModeNotFound, p.cur(), "mode '"+mode+"' not declared")
			return rules.Action{}, false, false, errSentinel
		}
		return rules.Action{Activate: mode}, false, false, nil
	case lexer.Unbound:
		p.advance()
		return rules.Action{Unbound: true}, false, false, nil
	default:
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected an action")
		return rules.Action{}, false, false, errSentinel
	}
}

// parseProcessMap consumes "[" (process_entry)+ "]" and installs each
// entry as a process-specific or wildcard override on hk.
func (p *parser) parseProcessMap(hk *rules.Hotkey) error {
	p.advance() // '['
	any := false
	for p.cur().Kind != lexer.EndList {
		if p.atEOF() {
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "unterminated process map")
			return errSentinel
		}
		var name string
		switch p.cur().Kind {
		case lexer.String:
			name = p.advance().Text
		case lexer.Wildcard:
			p.advance()
			name = "*"
		default:
			p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "expected process name or '*' in process map")
			return errSentinel
		}
		act, _, _, err := p.parseAction()
		if err != nil {
			return err
		}
		if err := hk.SetProcessOverride(name, act); err != nil {
			p.recordErr(skhderrors.ErrDuplicateModeInList, p.cur(), err.Error())
			return errSentinel
		}
		any = true
	}
	if !any {
		p.recordErr(skhderrors.ErrUnexpectedToken, p.cur(), "process map requires at least one entry")
	}
	p.advance() // ']'
	return nil
}

// errSentinel marks "an error was already recorded onto p.errs"; callers
// only check whether it is non-nil, never its text.
var errSentinel = errors.New("parse error recorded")
