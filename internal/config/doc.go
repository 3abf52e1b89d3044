// Package config loads commutewatch configuration.
//
// Two load paths produce the same Config:
//   - FromEnv() — the scheduled-run contract: everything comes from
//     environment variables (TOMTOM_API_KEY, COMMUTE_ORIGIN_LAT, ...).
//   - Load(path) — a YAML file for watch-mode deployments. Secrets never
//     live in the file; *_env fields name the environment variables that
//     hold them, resolved at use time.
//
// Validation is shared: the API key and both coordinate pairs are
// required, and a MissingError listing every absent setting is returned
// before any network call can happen. Watch(ctx, path, onChange) follows
// the file with fsnotify for hot reload; a failed reload keeps the
// previous config.
package config
