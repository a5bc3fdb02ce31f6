// Package httpapi serves the OAuth sign-in flow and identity management as a
// JSON API on chi.
//
//	GET    /auth/{provider}            redirect to the provider
//	GET    /auth/{provider}/callback   complete the flow, sign in
//	POST   /auth/{provider}/callback   same, for response_mode=form_post
//	POST   /auth/signout               clear the user cookie
//	GET    /identities                 identities of the signed-in user
//	DELETE /identities/{provider}      unlink a provider
//	GET    /healthz, /readyz, /metrics
//
// A callback links the identity to the signed-in user, signs in the user the
// identity already belongs to, or registers a new user from the provider's
// email and name.
package httpapi
