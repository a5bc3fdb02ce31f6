package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

type identitiesResponse struct {
	UserID     string                  `json:"user_id"`
	Identities []identity.UserIdentity `json:"identities"`
}

func (s *Server) listIdentities(w http.ResponseWriter, r *http.Request) error {
	user, err := s.users.require(w, r, s.identities)
	if err != nil {
		return err
	}

	list, err := s.identities.All(r.Context(), user)
	if err != nil {
		return err
	}
	if list == nil {
		list = []identity.UserIdentity{}
	}
	writeJSON(w, http.StatusOK, identitiesResponse{UserID: user.ID.String(), Identities: list})
	return nil
}

func (s *Server) deleteIdentity(w http.ResponseWriter, r *http.Request) error {
	user, err := s.users.require(w, r, s.identities)
	if err != nil {
		return err
	}

	n, err := s.identities.Delete(r.Context(), user, chi.URLParam(r, "provider"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	return nil
}
