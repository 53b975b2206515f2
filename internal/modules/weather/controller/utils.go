package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const maxLangLen = 35

func parseOffset(r *http.Request) (int, error) {
	s := r.URL.Query().Get("offset")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'offset' (expected integer)")
	}
	if n < 0 {
		return 0, errors.New("'offset' must be >= 0")
	}
	return n, nil
}

// parseLang reads the lang query parameter and falls back to the first
// Accept-Language tag. An empty result selects the server default.
func parseLang(r *http.Request) (string, error) {
	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang == "" {
		lang = firstLanguageTag(r.Header.Get("Accept-Language"))
		if !validLang(lang) {
			return "", nil
		}
		return lang, nil
	}
	if !validLang(lang) {
		return "", errors.New("invalid 'lang' (expected language tag like 'en' or 'sr')")
	}
	return lang, nil
}

func firstLanguageTag(header string) string {
	tag, _, _ := strings.Cut(header, ",")
	tag, _, _ = strings.Cut(tag, ";")
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return ""
	}
	return tag
}

func validLang(s string) bool {
	if s == "" || len(s) > maxLangLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
