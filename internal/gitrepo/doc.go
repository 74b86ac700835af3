// Package gitrepo opens git repositories and performs the branch operations
// the flow orchestrator builds on.
//
// Reads (branch tips, commits, HEAD, repository configuration) go through
// go-git. Mutations (branch creation, checkout, merge, rebase, tag and branch
// deletion) run the git executable through execshell so that conflict state is
// left exactly as git leaves it.
package gitrepo
