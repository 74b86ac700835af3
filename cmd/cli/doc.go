// Package cli constructs the gitflow command-line interface. It loads the
// layered application configuration, builds the zap logger selected by the
// --log-level and --log-format flags, and mounts the init, config, feature,
// release and hotfix commands.
package cli
