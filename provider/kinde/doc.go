// Package kinde integrates the Kinde IdP management API: a
// client-credentials token flow plus the user-profile lookup the
// synchronizer treats as the authoritative profile snapshot.
package kinde
