// Package identity owns the user slice of the e-commerce backend: the user
// aggregate and its value objects, the role model extracted from bearer
// tokens, and the synchronizer that reconciles the local record with the
// Identity Provider.
//
// Reconciliation model:
//   - The IdP is the source of truth for profile data (names, email, image)
//     and role grants. The local record additionally accrues state the IdP
//     knows nothing about: a shipping address, the internal numeric id, and
//     a public UUID minted once at signup.
//   - Synchronizer decides per request whether to create, update, or skip a
//     write. Email is the merge key across the two systems; the public id is
//     the stable internal-facing identity.
//   - Profile updates only flow through User.UpdateProfileFrom so that
//     local-only fields are never clobbered. Address changes bypass the sync
//     protocol entirely via UserStore.UpdateAddress.
//
// Claims handling:
//   - Claims is a read-only view over a token's claim mapping with accessors
//     that keep "key absent" distinct from "key present but malformed".
//   - Authentication is a closed set of representations (user-details,
//     token, OIDC, raw principal); Principal resolves each variant exactly
//     once at the boundary instead of probing ambient state.
package identity
