/*
Package config loads the AI orchestration subsystem's configuration.

Configuration is merged from three sources, in priority order: built-in
defaults, an optional YAML file, and environment variables prefixed with
AIOPS_ (e.g. AIOPS_VAULT_MASTER_ENCRYPTION_KEY). Every field maps to a row
of the configuration table in spec §6: provider defaults and timeouts,
per-feature thresholds, per-namespace cache TTLs, and rate-limit bounds.
*/
package config
