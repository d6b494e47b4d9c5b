// Package auth provides the credentials used to talk to VCS hosts: static
// personal access tokens wrapped as an oauth2 token source, and short-lived
// RS256 JWTs for GitHub App authentication.
package auth
