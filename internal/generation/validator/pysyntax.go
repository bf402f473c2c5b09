// internal/generation/validator/pysyntax.go
package validator

import "fmt"

// checkPythonSyntax runs a structural check over Python source: balanced
// brackets and terminated string literals, with strings, comments and
// triple-quoted blocks skipped correctly. It catches the truncation and
// bad-splice failures remote generation produces; it is not a full parser.
func checkPythonSyntax(src string) error {
	type bracket struct {
		ch   byte
		line int
	}

	var stack []bracket
	line := 1
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch c {
		case '\n':
			line++
			i++
			continue

		case '#':
			for i < n && src[i] != '\n' {
				i++
			}
			continue

		case '\'', '"':
			quote := c
			if i+2 < n && src[i+1] == quote && src[i+2] == quote {
				// Triple-quoted string
				i += 3
				startLine := line
				closed := false
				for i < n {
					if src[i] == '\n' {
						line++
						i++
						continue
					}
					if src[i] == quote && i+2 < n && src[i+1] == quote && src[i+2] == quote {
						i += 3
						closed = true
						break
					}
					i++
				}
				if !closed {
					return fmt.Errorf("unterminated triple-quoted string starting at line %d", startLine)
				}
				continue
			}

			// Single-line string
			startLine := line
			i++
			for {
				if i >= n || src[i] == '\n' {
					return fmt.Errorf("unterminated string literal at line %d", startLine)
				}
				if src[i] == '\\' {
					i += 2
					continue
				}
				if src[i] == quote {
					i++
					break
				}
				i++
			}
			continue

		case '(', '[', '{':
			stack = append(stack, bracket{ch: c, line: line})

		case ')', ']', '}':
			if len(stack) == 0 {
				return fmt.Errorf("unmatched %q at line %d", c, line)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if matching(open.ch) != c {
				return fmt.Errorf("mismatched %q at line %d (opened with %q at line %d)", c, line, open.ch, open.line)
			}
		}

		i++
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return fmt.Errorf("unclosed %q opened at line %d", open.ch, open.line)
	}

	return nil
}

func matching(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}
