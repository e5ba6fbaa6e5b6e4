package types

import (
	"encoding/json"
	"fmt"
	"path"
	"text/template"
)

// TemplateFuncs are available in every template loaded from a file. They are
// placeholders that the prompt renderer replaces before execution.
//
//nolint:gochecknoglobals
var TemplateFuncs = template.FuncMap{
	"translate": func(s string) string { return s },
	"qrcode":    func(string) string { return "" },
}

type Template struct {
	*template.Template
	path string
}

func NewTemplate(filePath string) (Template, error) {
	tmpl, err := template.New(path.Base(filePath)).Funcs(TemplateFuncs).ParseFiles(filePath)
	if err != nil {
		return Template{}, fmt.Errorf("failed to create template: %w", err)
	}

	return Template{tmpl, filePath}, nil
}

// IsEmpty checks if the template is empty.
//
//goland:noinspection GoMixedReceiverTypes
func (t *Template) IsEmpty() bool {
	return t == nil || t.Template == nil
}

// String returns the path of the template.
//
//goland:noinspection GoMixedReceiverTypes
func (t *Template) String() string {
	if t == nil {
		return ""
	}

	return t.path
}

// MarshalText implements the [encoding.TextMarshaler] interface.
//
//goland:noinspection GoMixedReceiverTypes
func (t Template) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// An empty path selects the built-in template.
//
//goland:noinspection GoMixedReceiverTypes
func (t *Template) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = Template{}

		return nil
	}

	tmpl, err := NewTemplate(string(text))
	if err != nil {
		return err
	}

	*t = tmpl

	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
//
//goland:noinspection GoMixedReceiverTypes
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String()) //nolint:wrapcheck
}
