package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind tells the sender whether the user has to acknowledge the text.
type Kind int

const (
	KindInfo Kind = iota
	KindPrompt
)

// Sender shows a text to the user.
type Sender interface {
	Send(ctx context.Context, kind Kind, text string) error
}

const defaultTemplate = `
{{- if .QRCode }}
{{ .QRCode }}
{{- if .VerificationURIComplete }}
{{ translate "Scan QR code above or login via provided link in your web browser:" }}
{{ .VerificationURIComplete }}
{{- else }}
{{ translate "Scan QR code above or open provided link in your web browser:" }}
{{ .VerificationURI }}
{{ translate "And enter this unique code:" }}
{{ .UserCode }}
{{- end }}
{{- else if .VerificationURIComplete }}
{{ translate "Login via provided link in your web browser:" }}
{{ .VerificationURIComplete }}
{{- else }}
{{ translate "Open provided link in your web browser:" }}
{{ .VerificationURI }}
{{ translate "And enter this unique code:" }}
{{ .UserCode }}
{{- end }}
{{ if .WaitForEnter }}{{ translate "Press \"ENTER\" after successful authentication: " }}{{ end }}`

// Data is passed to the prompt template.
type Data struct {
	types.DeviceAuthorization

	// QRCode encodes the complete verification URI if the provider sent one,
	// the verification URI otherwise. It is empty if QR codes are disabled.
	QRCode       string
	WaitForEnter bool
}

// Renderer produces the verification instructions shown to the user.
type Renderer struct {
	tmpl         *template.Template
	printer      *message.Printer
	logger       *slog.Logger
	waitForEnter bool
	qrCode       bool
}

type RendererOption func(*Renderer)

// WithQRCode enables QR codes. Encoding failures are logged to logger and the
// instructions fall back to text only.
func WithQRCode(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.qrCode = true
		r.logger = logger
	}
}

// NewRenderer returns a renderer for lang. A nil tmpl selects the built-in template.
// The template can call the translate and qrcode functions.
func NewRenderer(lang string, tmpl *template.Template, waitForEnter bool, opts ...RendererOption) (*Renderer, error) {
	printer := message.NewPrinter(matchLanguage(lang), message.Catalog(messages))

	renderer := &Renderer{
		printer:      printer,
		logger:       slog.New(slog.DiscardHandler),
		waitForEnter: waitForEnter,
	}

	for _, opt := range opts {
		opt(renderer)
	}

	funcs := template.FuncMap{
		"translate": func(key string) string {
			return printer.Sprintf(message.Reference(key))
		},
		"qrcode": renderer.qrCodeOf,
	}

	var err error

	if tmpl == nil {
		tmpl, err = template.New("prompt").Funcs(funcs).Parse(defaultTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt template: %w", err)
		}
	} else {
		tmpl, err = tmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone prompt template: %w", err)
		}

		tmpl = tmpl.Funcs(funcs)
	}

	renderer.tmpl = tmpl

	return renderer, nil
}

// Render returns the instructions for auth.
func (r *Renderer) Render(auth types.DeviceAuthorization) (string, error) {
	data := Data{DeviceAuthorization: auth, WaitForEnter: r.waitForEnter}

	if r.qrCode {
		target := auth.VerificationURIComplete
		if target == "" {
			target = auth.VerificationURI
		}

		data.QRCode = r.qrCodeOf(target)
	}

	var sb strings.Builder

	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return sb.String(), nil
}

// qrCodeOf returns text as QR code, or an empty string if it cannot be encoded.
func (r *Renderer) qrCodeOf(text string) string {
	code, err := renderQRCode(text)
	if err != nil {
		r.logger.Warn("falling back to text only instructions", slog.Any("err", err))

		return ""
	}

	return code
}

// Kind returns the kind of message the rendered text has to be sent with.
func (r *Renderer) Kind() Kind {
	if r.waitForEnter {
		return KindPrompt
	}

	return KindInfo
}

// Printer returns the localized printer of the renderer.
func (r *Renderer) Printer() *message.Printer {
	return r.printer
}

// Terminal is a [Sender] writing to out. Prompts wait for a line on in.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	terminal := &Terminal{out: out}
	if in != nil {
		terminal.in = bufio.NewReader(in)
	}

	return terminal
}

func (t *Terminal) Send(ctx context.Context, kind Kind, text string) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	if _, err := io.WriteString(t.out, text); err != nil {
		return fmt.Errorf("unable to write prompt: %w", err)
	}

	if kind != KindPrompt || t.in == nil {
		return nil
	}

	if _, err := t.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read acknowledgment: %w", err)
	}

	return nil
}

func matchLanguage(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}

	_, index, _ := matcher.Match(tag)

	return supportedLanguages[index]
}
