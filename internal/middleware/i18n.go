// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// languageFor maps the first Accept-Language preference onto a catalog
// name, e.g. "zh-TW,zh;q=0.9,en;q=0.8" becomes zh_TW.
func languageFor(header string) string {
	if header == "" {
		return "en"
	}
	firstLang := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(strings.ReplaceAll(firstLang, "_", "-")) {
	case "zh-tw", "zh-hant", "zh-hk", "zh":
		return "zh_TW"
	default:
		return "en"
	}
}

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := languageFor(c.GetHeader("Accept-Language"))
		c.Set("lang", lang)
		c.Header("Content-Language", strings.ReplaceAll(lang, "_", "-"))
		c.Next()
	}
}
