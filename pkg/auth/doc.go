// Package auth holds the data shape the `auth status` CLI command reports:
// one Status per configured OAuth server, derived from the OAuth vault rather
// than a live connection.
package auth
