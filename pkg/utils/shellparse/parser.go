// Package shellparse splits user-supplied argument strings, such as custom JVM
// flags, into words and quotes words back for a launch script.
package shellparse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted string is not properly closed
	ErrUnclosedQuote = errors.New("unclosed quote in argument string")

	// ErrTrailingEscape is returned when a backslash appears at the end of input
	ErrTrailingEscape = errors.New("trailing escape character at end of argument string")
)

type state int

const (
	stateBare state = iota
	stateSingle
	stateDouble
)

type splitter struct {
	words   []string
	word    strings.Builder
	started bool
	state   state
}

func (s *splitter) flush() {
	if s.started {
		s.words = append(s.words, s.word.String())
		s.word.Reset()
		s.started = false
	}
}

func (s *splitter) add(r ...rune) {
	for _, c := range r {
		s.word.WriteRune(c)
	}
	s.started = true
}

// Split breaks input into words with POSIX shell quoting rules:
//
//	-Xmx2G -Dname="two words"   => [-Xmx2G -Dname=two words]
//	'-Dpath=C:\Games' -Dx=\$y   => [-Dpath=C:\Games -Dx=$y]
//	""                          => [""]
//
// Nothing is expanded.
func Split(input string) ([]string, error) {
	s := &splitter{}
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch s.state {
		case stateSingle:
			if ch == '\'' {
				s.state = stateBare
				continue
			}
			s.add(ch)

		case stateDouble:
			switch ch {
			case '"':
				s.state = stateBare
			case '\\':
				if i+1 >= len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				if strings.ContainsRune("\"\\$`", runes[i]) {
					s.add(runes[i])
				} else {
					s.add('\\', runes[i])
				}
			default:
				s.add(ch)
			}

		default:
			switch {
			case unicode.IsSpace(ch):
				s.flush()
			case ch == '\'':
				s.state = stateSingle
				s.started = true
			case ch == '"':
				s.state = stateDouble
				s.started = true
			case ch == '\\':
				if i+1 >= len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				s.add(runes[i])
			default:
				s.add(ch)
			}
		}
	}

	switch s.state {
	case stateSingle:
		return nil, fmt.Errorf("%w: unclosed single quote", ErrUnclosedQuote)
	case stateDouble:
		return nil, fmt.Errorf("%w: unclosed double quote", ErrUnclosedQuote)
	}

	s.flush()
	if s.words == nil {
		return []string{}, nil
	}
	return s.words, nil
}

// Quote wraps arg in double quotes for /bin/sh, escaping the characters
// that stay special inside them.
func Quote(arg string) string {
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for _, r := range arg {
		if strings.ContainsRune("\\\"$`", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteWindows wraps arg in double quotes for a batch file. Embedded quotes
// are doubled and % is escaped so cmd.exe does not expand variables.
func QuoteWindows(arg string) string {
	arg = strings.ReplaceAll(arg, `"`, `""`)
	arg = strings.ReplaceAll(arg, "%", "%%")
	return `"` + arg + `"`
}

// Join quotes each arg with quote and joins them with spaces.
func Join(args []string, quote func(string) string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}
