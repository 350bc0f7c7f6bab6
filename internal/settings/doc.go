// Package settings persists the daemon's runtime configuration.
//
// Settings live in a YAML file and may be overridden per process through
// CRASHD_* environment variables. A settings file that cannot be read or
// parsed is never fatal: the affected values fall back to their defaults and
// a warning is logged. Writes go through a sibling lock file so that two
// processes toggling crash reporting at once cannot interleave.
package settings
