package errs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okane-project/ledgerkit/internal/output"
)

// Formatter renders one or more errors for a CLI consumer. Two
// implementations exist, text (for a terminal) and JSON (for scripting), the
// same split the teacher's error formatter makes.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

// TextFormatter renders an error as "<pos>: message" when the error carries
// a source position and as the bare message otherwise, styled when styles
// is non-nil.
type TextFormatter struct {
	Styles *output.Styles
}

func NewTextFormatter(styles *output.Styles) *TextFormatter {
	return &TextFormatter{Styles: styles}
}

func (f *TextFormatter) Format(err error) string {
	c := Classify(err)
	msg := c.Err.Error()
	if f.Styles != nil {
		msg = f.Styles.Error(msg)
	}
	if c.Position != nil {
		loc := c.Position.String()
		if f.Styles != nil {
			loc = f.Styles.FilePath(loc)
		}
		return fmt.Sprintf("%s: %s", loc, msg)
	}
	return msg
}

func (f *TextFormatter) FormatAll(errs []error) string {
	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(f.Format(err))
		if i < len(errs)-1 {
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// JSONFormatter renders errors as structured JSON, one object per error,
// carrying the Kind tag so a scripted consumer can switch on it instead of
// matching the message text.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

type errorJSON struct {
	Kind     Kind          `json:"kind"`
	Message  string        `json:"message"`
	Position *positionJSON `json:"position,omitempty"`
}

type positionJSON struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func (f *JSONFormatter) toJSON(err error) errorJSON {
	c := Classify(err)
	j := errorJSON{Kind: c.Kind, Message: c.Err.Error()}
	if c.Position != nil {
		j.Position = &positionJSON{Filename: c.Position.Filename, Line: c.Position.Line, Column: c.Position.Column}
	}
	return j
}

func (f *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(f.toJSON(err))
	return string(data)
}

func (f *JSONFormatter) FormatAll(errs []error) string {
	list := make([]errorJSON, len(errs))
	for i, err := range errs {
		list[i] = f.toJSON(err)
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return string(data)
}
