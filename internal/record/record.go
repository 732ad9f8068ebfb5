package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags a ContentBlock. The set is closed; decoding an unknown kind fails.
type Kind string

// Block kinds. Heading, text, description and the two function kinds carry
// Text only; section adds Title; parameter and endpoint have their own fields.
const (
	KindHeading             Kind = "heading"
	KindText                Kind = "text"
	KindDescription         Kind = "description"
	KindSection             Kind = "section"
	KindFunctionSignature   Kind = "function_signature"
	KindFunctionDescription Kind = "function_description"
	KindParameter           Kind = "parameter"
	KindEndpoint            Kind = "endpoint"
)

// Valid reports whether k is one of the known block kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHeading, KindText, KindDescription, KindSection,
		KindFunctionSignature, KindFunctionDescription, KindParameter, KindEndpoint:
		return true
	}
	return false
}

// TimestampLayout is ISO-8601 with microseconds, always rendered in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// DocumentRecord is the normalized, persisted result of scraping one URL.
type DocumentRecord struct {
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Timestamp string         `json:"timestamp"`
	Content   []ContentBlock `json:"content"`
}

// ContentBlock is one typed unit of extracted content. Which fields are
// meaningful depends on Type; the JSON form carries only those fields.
type ContentBlock struct {
	Type        Kind
	Text        string
	Title       string
	Name        string
	Description string
	Method      string
	Path        string
}

// Heading returns a heading block.
func Heading(text string) ContentBlock { return ContentBlock{Type: KindHeading, Text: text} }

// Text returns a prose or code text block.
func Text(text string) ContentBlock { return ContentBlock{Type: KindText, Text: text} }

// Description returns a module or page description block.
func Description(text string) ContentBlock { return ContentBlock{Type: KindDescription, Text: text} }

// Section returns a titled section block.
func Section(title, text string) ContentBlock {
	return ContentBlock{Type: KindSection, Title: title, Text: text}
}

// FunctionSignature returns a block holding one function signature.
func FunctionSignature(text string) ContentBlock {
	return ContentBlock{Type: KindFunctionSignature, Text: text}
}

// FunctionDescription returns the description of the preceding signature.
func FunctionDescription(text string) ContentBlock {
	return ContentBlock{Type: KindFunctionDescription, Text: text}
}

// Parameter returns a named parameter block.
func Parameter(name, description string) ContentBlock {
	return ContentBlock{Type: KindParameter, Name: name, Description: description}
}

// Endpoint returns an HTTP endpoint block.
func Endpoint(method, path, description string) ContentBlock {
	return ContentBlock{Type: KindEndpoint, Method: method, Path: path, Description: description}
}

type textBlock struct {
	Type Kind   `json:"type"`
	Text string `json:"text"`
}

type sectionBlock struct {
	Type  Kind   `json:"type"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type parameterBlock struct {
	Type        Kind   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type endpointBlock struct {
	Type        Kind   `json:"type"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// MarshalJSON emits "type" first followed by the fields of that kind only.
// HTML characters are left literal; whether they end up escaped is decided
// by the outer encoder.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case KindHeading, KindText, KindDescription, KindFunctionSignature, KindFunctionDescription:
		return encodeLiteral(textBlock{Type: b.Type, Text: b.Text})
	case KindSection:
		return encodeLiteral(sectionBlock{Type: b.Type, Title: b.Title, Text: b.Text})
	case KindParameter:
		return encodeLiteral(parameterBlock{Type: b.Type, Name: b.Name, Description: b.Description})
	case KindEndpoint:
		return encodeLiteral(endpointBlock{Type: b.Type, Method: b.Method, Path: b.Path, Description: b.Description})
	}
	return nil, fmt.Errorf("marshal content block: unknown type %q", b.Type)
}

func encodeLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON accepts any known kind and keeps only the fields it defines.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        Kind   `json:"type"`
		Text        string `json:"text"`
		Title       string `json:"title"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Method      string `json:"method"`
		Path        string `json:"path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case KindHeading, KindText, KindDescription, KindFunctionSignature, KindFunctionDescription:
		*b = ContentBlock{Type: raw.Type, Text: raw.Text}
	case KindSection:
		*b = Section(raw.Title, raw.Text)
	case KindParameter:
		*b = Parameter(raw.Name, raw.Description)
	case KindEndpoint:
		*b = Endpoint(raw.Method, raw.Path, raw.Description)
	default:
		return fmt.Errorf("unmarshal content block: unknown type %q", raw.Type)
	}
	return nil
}
