package api

import (
	"net/http"
	"strings"

	"github.com/hackgods/salon-scheduling/internal/user"
)

func registerHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		role := user.Role(req.Role)
		if role == "" {
			role = user.RoleClient
		}

		sess, err := users.Register(r.Context(), user.RegisterInput{
			Login:       req.Login,
			Password:    req.Password,
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Role:        role,
		})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, TokenResponse{
			AccessToken: sess.Token,
			TokenType:   "bearer",
			User:        toUserResponse(sess.User),
		})
	}
}

// tokenHandler accepts JSON {login, password} or the OAuth2 password form
// fields username and password.
func tokenHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse form")
				return
			}
			req = LoginRequest{Login: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
			if err := validate.Struct(req); err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", describeValidation(err))
				return
			}
		} else if !decodeJSON(w, r, &req) {
			return
		}

		sess, err := users.Login(r.Context(), req.Login, req.Password)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			AccessToken: sess.Token,
			TokenType:   "bearer",
			User:        toUserResponse(sess.User),
		})
	}
}

func meHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := principalFrom(r.Context())

		u, err := users.Get(r.Context(), p.UserID)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func listMastersHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		masters, err := users.ListMasters(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}

		resp := make([]MasterResponse, 0, len(masters))
		for _, m := range masters {
			resp = append(resp, MasterResponse{
				ID:            m.ID,
				FullName:      m.FullName,
				Role:          string(m.Role),
				PhoneNumber:   m.PhoneNumber,
				ServicesCount: m.ServicesCount,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
