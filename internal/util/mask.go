package util

import "strings"

// MaskToken deja visibles solo los extremos de un token o clave para logs
// y salidas de consola.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "…" + s[len(s)-4:]
	}
}
