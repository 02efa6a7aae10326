package http

import (
	"encoding/json"
	"net/http"

	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/preference"
)

// GET /preferences/language
func GetLanguageHandler(svc *preference.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, err := svc.Get(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"language": string(lang)})
	}
}

// PUT /preferences/language  { "language": "ar" }
func PutLanguageHandler(svc *preference.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		lang, err := preference.ParseLanguage(req.Language)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := svc.Set(r.Context(), auth.SubjectFromContext(r.Context()), lang); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"language": string(lang)})
	}
}
