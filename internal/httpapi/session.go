package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

const userCookie = "oauthlink_uid"

// userSession tracks the signed-in user in a signed cookie holding the user id.
type userSession struct {
	cookies *cookie.Manager
	ttl     time.Duration
}

// current returns the signed-in user or nil. A cookie naming a user that no
// longer exists is cleared.
func (u *userSession) current(w http.ResponseWriter, r *http.Request, svc *identity.Service) (*identity.User, error) {
	raw, err := u.cookies.GetSigned(r, userCookie)
	if err != nil {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		u.clear(w)
		return nil, nil
	}

	user, err := svc.GetUser(r.Context(), id)
	if errors.Is(err, identity.ErrNotFound) {
		u.clear(w)
		return nil, nil
	}
	return user, err
}

func (u *userSession) require(w http.ResponseWriter, r *http.Request, svc *identity.Service) (*identity.User, error) {
	user, err := u.current(w, r, svc)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (u *userSession) signIn(w http.ResponseWriter, user *identity.User) error {
	return u.cookies.SetSigned(w, userCookie, user.ID.String(), int(u.ttl.Seconds()))
}

func (u *userSession) clear(w http.ResponseWriter) {
	u.cookies.Delete(w, userCookie)
}
