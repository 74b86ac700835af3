// Package flowconfig resolves git-flow settings from a repository's git
// configuration.
//
// Settings live under the gitflow section (gitflow.prefix.* and
// gitflow.branch.*) and are read from disk on every call, so a change made by
// another process between two operations is always observed.
package flowconfig
