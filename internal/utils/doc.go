// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI, plus
// the CommandContextAccessor used to hand root flag values to subcommands.
package utils
