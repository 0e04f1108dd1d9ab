package analysis

import (
	"html"
	"strings"
)

// StripFences limpia el wrapper markdown que el modelo a veces agrega
// aunque el prompt lo prohíbe.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		// etiqueta de lenguaje opcional: ```html / ```HTML
		if len(s) >= 4 && strings.EqualFold(s[:4], "html") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), fence)

	return strings.TrimSpace(s)
}

const (
	fallbackHeading = "<h2>오류 발생</h2>"
	fallbackApology = "<p>AI 분석 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.</p>"
	fallbackUnknown = "<p>AI 분석 중 알 수 없는 오류가 발생했습니다.</p>"
)

// FallbackHTML convierte una falla del proveedor en un fragmento
// renderizable. El mensaje va escapado dentro de <pre>.
func FallbackHTML(err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if strings.TrimSpace(msg) == "" {
		return fallbackHeading + fallbackUnknown
	}
	// Se escapa porque el resultado se inyecta sin escapar en la página: el
	// <pre> muestra el mensaje literal aunque traiga <, > o &.
	return fallbackHeading + fallbackApology + "<pre>" + html.EscapeString(msg) + "</pre>"
}
