package formatter

import (
	"strings"

	"github.com/OwenCochell/mctools/mc"
)

// chatNames maps chat object color and style names to their formatting codes.
var chatNames = map[string]rune{
	"black":         '0',
	"dark_blue":     '1',
	"dark_green":    '2',
	"dark_aqua":     '3',
	"dark_red":      '4',
	"dark_purple":   '5',
	"gold":          '6',
	"gray":          '7',
	"dark_gray":     '8',
	"blue":          '9',
	"green":         'a',
	"aqua":          'b',
	"red":           'c',
	"light_purple":  'd',
	"yellow":        'e',
	"white":         'f',
	"obfuscated":    'k',
	"bold":          'l',
	"strikethrough": 'm',
	"underlined":    'n',
	"italic":        'o',
}

// ChatObject flattens a chat object status description into a single string. Format
// keeps the styling as section sign codes for Default to render; Clean drops it.
type ChatObject struct{}

func (ChatObject) Priority() int {
	return 10
}

func (f ChatObject) Format(v interface{}) interface{} {
	return flattenDescription(v, func(chat mc.Chat) string {
		return chatCodes(chat, "", nil)
	})
}

func (f ChatObject) Clean(v interface{}) interface{} {
	return flattenDescription(v, mc.Chat.PlainText)
}

func flattenDescription(v interface{}, flatten func(mc.Chat) string) interface{} {
	status, ok := v.(mc.StatusResponse)
	if !ok || status.Description.Chat == nil {
		return v
	}
	status.Description = mc.Description{Text: flatten(*status.Description.Chat)}
	return status
}

type style struct {
	name string
	flag *bool
}

// chatCodes renders chat and its extras, extras inherit the color and styles of their
// parent unless they set them explicitly.
func chatCodes(chat mc.Chat, color string, styles []rune) string {
	if code, ok := chatNames[chat.Color]; ok && code < 'k' {
		color = string([]rune{SectionSign, code})
	}
	styles = append([]rune(nil), styles...)
	for _, s := range []style{
		{"obfuscated", chat.Obfuscated},
		{"bold", chat.Bold},
		{"strikethrough", chat.Strikethrough},
		{"underlined", chat.Underlined},
		{"italic", chat.Italic},
	} {
		if s.flag == nil {
			continue
		}
		styles = setStyle(styles, chatNames[s.name], *s.flag)
	}

	var b strings.Builder
	b.WriteRune(SectionSign)
	b.WriteRune('r')
	b.WriteString(color)
	for _, code := range styles {
		b.WriteRune(SectionSign)
		b.WriteRune(code)
	}
	b.WriteString(chat.Text)
	for _, extra := range chat.Extra {
		b.WriteString(chatCodes(extra, color, styles))
	}
	return b.String()
}

func setStyle(styles []rune, code rune, on bool) []rune {
	for i, existing := range styles {
		if existing == code {
			if on {
				return styles
			}
			return append(styles[:i], styles[i+1:]...)
		}
	}
	if on {
		styles = append(styles, code)
	}
	return styles
}
