// Package skhderrors centralizes the sentinel and structured error kinds
// raised while loading a config: lexing, parsing, rule-graph construction,
// and IPC.
//
// Error categories:
//   - Lexing/parsing: invalid UTF-8, unexpected tokens, unknown modifiers,
//     unresolvable keys.
//   - Rule graph: mode not found, duplicate mode/hotkey, blacklist
//     duplicates, cyclic loads.
//   - System: IO errors, missing config file.
//
// ParseError wraps a sentinel with file/line/col/token context so callers
// can both match on the underlying kind with errors.Is and print a
// human-readable location.
package skhderrors
