package parser

import (
	"fmt"
	"strconv"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/lexer"
)

// ParseHotkeySpec parses a single trigger ("cmd + shift - a", "0x0B", "f1")
// outside of a config file, for the CLI's -k/--key flag. It reuses the
// lexer and the same modifier-list grammar as a config hotkey's trigger,
// but expects nothing past the key token.
func ParseHotkeySpec(spec string) (keycodes.Modifier, keycodes.KeyCode, error) {
	l := lexer.New("<key-spec>", spec)

	var mask keycodes.Modifier
	tok, err := l.Next()
	if err != nil {
		return 0, 0, err
	}

	for tok.Kind == lexer.Modifier {
		bit, ok := keycodes.ModifierNames[tok.Text]
		if !ok {
			return 0, 0, fmt.Errorf("%d:%d: error: unknown modifier '%s' near '%s'", tok.Line, tok.Column, tok.Text, tok.Text)
		}
		mask |= bit

		tok, err = l.Next()
		if err != nil {
			return 0, 0, err
		}
		if tok.Kind == lexer.Plus {
			tok, err = l.Next()
			if err != nil {
				return 0, 0, err
			}
			continue
		}
		break
	}

	if mask != 0 {
		if tok.Kind != lexer.Dash {
			return 0, 0, fmt.Errorf("%d:%d: error: expected '-' after modifier list near '%s'", tok.Line, tok.Column, tok.Text)
		}
		tok, err = l.Next()
		if err != nil {
			return 0, 0, err
		}
	}

	var code keycodes.KeyCode
	switch tok.Kind {
	case lexer.Literal:
		code = keycodes.LiteralKeys[tok.Text]
	case lexer.KeyHex:
		n, perr := strconv.ParseUint(tok.Text, 0, 32)
		if perr != nil {
			return 0, 0, fmt.Errorf("%d:%d: error: malformed hex keycode '%s' near '%s'", tok.Line, tok.Column, tok.Text, tok.Text)
		}
		code = keycodes.KeyCode(n)
	case lexer.Key:
		resolved, ok := keycodes.ResolveChar(tok.Text)
		if !ok {
			return 0, 0, fmt.Errorf("%d:%d: error: key '%s' has no keycode on the active layout near '%s'", tok.Line, tok.Column, tok.Text, tok.Text)
		}
		code = resolved
	default:
		return 0, 0, fmt.Errorf("%d:%d: error: expected a key token near '%s'", tok.Line, tok.Column, tok.Text)
	}

	end, err := l.Next()
	if err != nil {
		return 0, 0, err
	}
	if end.Kind != lexer.EOF {
		return 0, 0, fmt.Errorf("%d:%d: error: unexpected trailing token near '%s'", end.Line, end.Column, end.Text)
	}

	return mask, code, nil
}
