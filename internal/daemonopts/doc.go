// Package config provides the daemon's own settings, kept separate from
// internal/rules (which owns the hotkey rule file's grammar and semantics).
//
// Configuration is TOML, loaded from $XDG_CONFIG_HOME/skhd/skhd.toml or
// $HOME/.config/skhd/skhd.toml; the --config flag selects the skhdrc rule
// file, not this file. Settings cover logging (level, file, rotation) and
// daemon behavior (auto-reload, and a blacklist that is validated but not
// applied to the dispatcher nor merged with the rule file's `.blacklist`).
package config
