package mc

import (
	"bytes"
	"encoding/json"
)

// Chat is a styled text component as found in a status description. Style flags are
// pointers so an explicit false, which cancels a style inherited from the parent, can
// be told apart from an absent one.
type Chat struct {
	Text          string `json:"text"`
	Color         string `json:"color,omitempty"`
	Bold          *bool  `json:"bold,omitempty"`
	Italic        *bool  `json:"italic,omitempty"`
	Underlined    *bool  `json:"underlined,omitempty"`
	Strikethrough *bool  `json:"strikethrough,omitempty"`
	Obfuscated    *bool  `json:"obfuscated,omitempty"`
	Extra         []Chat `json:"extra,omitempty"`
}

type chatObject Chat

// UnmarshalJSON accepts a plain string, an array of components or a component object.
func (c *Chat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		*c = Chat{}
		return json.Unmarshal(data, &c.Text)
	case '[':
		var parts []Chat
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Chat{Extra: parts}
		return nil
	}
	var obj chatObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = Chat(obj)
	return nil
}

// PlainText concatenates the text of the component and all its extras.
func (c Chat) PlainText() string {
	text := c.Text
	for _, extra := range c.Extra {
		text += extra.PlainText()
	}
	return text
}

func (c Chat) mapText(fn func(string) string) Chat {
	out := c
	out.Text = fn(c.Text)
	if c.Extra != nil {
		out.Extra = make([]Chat, len(c.Extra))
		for i, extra := range c.Extra {
			out.Extra[i] = extra.mapText(fn)
		}
	}
	return out
}

// Description is the status motd. Servers send either a plain string or a chat object;
// Chat is nil for the former.
type Description struct {
	Text string
	Chat *Chat
}

func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*d = Description{}
		return json.Unmarshal(data, &d.Text)
	}
	var chat Chat
	if err := json.Unmarshal(data, &chat); err != nil {
		return err
	}
	*d = Description{Chat: &chat}
	return nil
}

func (d Description) MarshalJSON() ([]byte, error) {
	if d.Chat != nil {
		return json.Marshal(d.Chat)
	}
	return json.Marshal(d.Text)
}

// String returns the description text without any styling.
func (d Description) String() string {
	if d.Chat != nil {
		return d.Chat.PlainText()
	}
	return d.Text
}

func (d Description) mapText(fn func(string) string) Description {
	if d.Chat != nil {
		chat := d.Chat.mapText(fn)
		return Description{Chat: &chat}
	}
	return Description{Text: fn(d.Text)}
}
