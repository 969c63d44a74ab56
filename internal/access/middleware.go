package access

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// CountryLookup annotates denied requests in the log.
type CountryLookup interface {
	CountryCode(ip string) string
}

// Guard rejects requests the evaluator denies with a bare 403. The response
// never says which check failed.
func Guard(store *Store, eval Evaluator, geo CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := Request{
				Path:       r.URL.Path,
				RemoteAddr: RemoteHost(r.RemoteAddr),
			}

			if eval.Decide(req, store.Load()) == Deny {
				fields := []interface{}{"path", req.Path, "remote", req.RemoteAddr}
				if geo != nil {
					fields = append(fields, "country", geo.CountryCode(req.RemoteAddr))
				}
				log.Warn("Request denied", fields...)

				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
