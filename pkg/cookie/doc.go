// Package cookie manages HTTP cookies with optional HMAC signing and
// AES-GCM encryption, and stores OAuth session params between the
// authorize redirect and the callback.
//
// Signed and encrypted cookies need a secret of at least 32 bytes; without
// one those operations return [ErrNoSecret].
//
//	m, err := cookie.New(
//		cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//		cookie.WithSecure(true),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Current user id, readable by the client but tamper-proof.
//	_ = m.SetSigned(w, "uid", user.ID.String(), 86400)
//
//	// OAuth state, one-time and unreadable by the client.
//	store, _ := cookie.NewSessionStore(m, 10*time.Minute)
//	_ = store.Save(w, r, "github", res.SessionParams)
//	params, err := store.Take(w, r, "github")
package cookie
