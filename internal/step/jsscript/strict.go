package jsscript

import "strings"

// StrictModeError is returned when a py script opens with a 'use strict' directive.
// Strict eval gives the script its own variable environment, so top-level var and
// function declarations never reach the scratch scope and save() cannot find them.
type StrictModeError struct {
	Key string
}

// Error implements the error interface.
func (e *StrictModeError) Error() string {
	return "context['" + e.Key + "'] starts with a 'use strict' directive; top-level declarations " +
		"in strict mode stay out of the py step scope and cannot be saved. " +
		"Drop the directive, put it inside a function, or use pycode."
}

// hasStrictDirective reports whether the directive prologue of src contains 'use strict'.
func hasStrictDirective(src string) bool {
	s := src
	for {
		s = skipSpaceAndComments(s, true)
		if s == "" || (s[0] != '\'' && s[0] != '"') {
			return false
		}
		quote := s[0]
		end := strings.IndexAny(s[1:], string(quote)+"\\\n")
		if end < 0 || s[1+end] != quote {
			// 带转义的字符串不是 'use strict' 指令
			return false
		}
		lit := s[1 : 1+end]
		s = skipSpaceAndComments(s[2+end:], false)
		// 指令必须单独成句
		switch {
		case s == "":
		case s[0] == ';':
			s = s[1:]
		case s[0] == '\n' || s[0] == '\r':
		default:
			return false
		}
		if lit == "use strict" {
			return true
		}
	}
}

// skipSpaceAndComments trims leading whitespace and comments. Line breaks are kept
// unless newlines is set.
func skipSpaceAndComments(s string, newlines bool) string {
	for s != "" {
		switch {
		case s[0] == ' ' || s[0] == '\t' || s[0] == '\f' || s[0] == '\v':
			s = s[1:]
		case newlines && (s[0] == '\n' || s[0] == '\r'):
			s = s[1:]
		case strings.HasPrefix(s, "\uFEFF"):
			s = s[len("\uFEFF"):]
		case strings.HasPrefix(s, "//"):
			i := strings.IndexAny(s, "\r\n")
			if i < 0 {
				return ""
			}
			s = s[i:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			body := s[2 : 2+i]
			s = s[4+i:]
			if !newlines && strings.ContainsAny(body, "\r\n") {
				return "\n" + s
			}
		default:
			return s
		}
	}
	return s
}
