// Package flags provides Cobra/pflag helpers shared by gitflow commands.
package flags
