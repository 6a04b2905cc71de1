package middleware

import (
	"net/http"
	"slices"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/i18n"
)

// Language negotiates the request language from the Accept-Language header
// against the loaded catalog, with the site's configured language as the
// fallback, and injects a bound translator into the context.
func Language(catalog *i18n.Catalog, site *config.Site) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			available := prioritize(catalog.Languages(), site.Get(config.KeyLanguage))
			lang := i18n.ParseAcceptLanguage(r.Header.Get("Accept-Language"), available)

			tr := i18n.NewTranslator(catalog, lang)
			next.ServeHTTP(w, r.WithContext(dispatch.WithTranslator(r.Context(), tr.Func())))
		})
	}
}

// prioritize moves lang to the front of available so it wins when the
// header matches nothing.
func prioritize(available []string, lang string) []string {
	idx := slices.Index(available, lang)
	if idx <= 0 {
		return available
	}
	out := make([]string, 0, len(available))
	out = append(out, lang)
	out = append(out, slices.Delete(slices.Clone(available), idx, idx+1)...)
	return out
}
