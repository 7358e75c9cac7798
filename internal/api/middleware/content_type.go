package middleware

import (
	"net/http"
	"strings"

	"github.com/carelens/carelens/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST, PUT and PATCH bodies that declare a non-JSON
// Content-Type. A missing Content-Type is accepted.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				models.NewProblem(models.ProblemTypeValidation, "Unsupported media type",
					http.StatusUnsupportedMediaType, GetRequestID(r.Context())).
					WithDetail("Content-Type must be application/json").
					WithInstance(r.URL.Path).
					Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
