package formatter

import (
	"strings"
	"unicode"
)

// SectionSign introduces a formatting code.
const SectionSign = '§'

var ansiCodes = map[rune]string{
	'0': "\033[0m\033[30m",
	'1': "\033[0m\033[34m",
	'2': "\033[0m\033[32m",
	'3': "\033[0m\033[36m",
	'4': "\033[0m\033[31m",
	'5': "\033[0m\033[36m",
	'6': "\033[0m\033[33m",
	'7': "\033[0m\033[38;5;246m",
	'8': "\033[0m\033[38;5;243m",
	'9': "\033[0m\033[34;1m",
	'a': "\033[0m\033[32;1m",
	'b': "\033[0m\033[36;1m",
	'c': "\033[0m\033[31;1m",
	'd': "\033[0m\033[35;1m",
	'e': "\033[0m\033[33;1m",
	'f': "\033[0m\033[37;1m",
	'k': "\033[5m",
	'l': "\033[1m",
	'm': "\033[9m",
	'n': "\033[4m",
	'o': "\033[3m",
	'r': "\033[0m",
}

const ansiReset = "\033[0m"

func formatCode(r rune) (string, bool) {
	seq, ok := ansiCodes[unicode.ToLower(r)]
	return seq, ok
}

// Default renders or strips section sign formatting codes in strings and in any
// TextMapper payload.
type Default struct{}

func (Default) Priority() int {
	return DefaultPriority
}

func (f Default) Format(v interface{}) interface{} {
	return mapText(v, FormatCodes)
}

func (f Default) Clean(v interface{}) interface{} {
	return mapText(v, CleanCodes)
}

func mapText(v interface{}, fn func(string) string) interface{} {
	switch content := v.(type) {
	case string:
		return fn(content)
	case TextMapper:
		return content.MapText(fn)
	}
	return v
}

// FormatCodes replaces every valid code with its ANSI sequence and terminates the text
// with a reset. Unknown codes are left alone.
func FormatCodes(text string) string {
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == SectionSign && i+1 < len(runes) {
			if seq, ok := formatCode(runes[i+1]); ok {
				b.WriteString(seq)
				i++
				continue
			}
		}
		b.WriteRune(runes[i])
	}
	b.WriteString(ansiReset)
	return b.String()
}

// CleanCodes removes every valid code. Codes that only appear once another code has
// been removed are removed as well, so CleanCodes(CleanCodes(s)) == CleanCodes(s).
func CleanCodes(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		out = append(out, r)
		n := len(out)
		if n >= 2 && out[n-2] == SectionSign {
			if _, ok := formatCode(out[n-1]); ok {
				out = out[:n-2]
			}
		}
	}
	return string(out)
}
