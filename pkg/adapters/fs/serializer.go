package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/globalstate/pkg/core"
)

// Document is one action record read from a file: the action kind and its
// payload, before boundary decoding.
type Document struct {
	Type    string
	Payload core.Payload
}

// Action decodes the document into a validated action.
func (d Document) Action() (core.Action, error) {
	return core.DecodeAction(d.Type, d.Payload)
}

// Decoder reads every action document held by a file of one format.
type Decoder interface {
	Decode(r io.Reader) ([]Document, error)
}

// DefaultDecoders returns the decoders keyed by file extension.
func DefaultDecoders(strict bool) map[string]Decoder {
	return map[string]Decoder{
		".json": NewJSONDecoder(strict),
		".yaml": NewYAMLDecoder(strict),
		".yml":  NewYAMLDecoder(strict),
		".csv":  NewCSVDecoder(strict),
	}
}

// --- JSON Decoder ---

// JSONDecoder reads a single action object or an array of them. An empty
// file holds no actions.
type JSONDecoder struct {
	// Strict keeps numbers as json.Number to avoid precision loss.
	Strict bool
}

// NewJSONDecoder creates a new JSON decoder.
func NewJSONDecoder(strict bool) *JSONDecoder {
	return &JSONDecoder{Strict: strict}
}

func (d *JSONDecoder) Decode(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	v, err := core.ParseJSON(data, d.Strict)
	if err != nil {
		return nil, err
	}
	return documentsOf(v)
}

// --- YAML Decoder ---

// YAMLDecoder reads a single document, a sequence of action mappings, or a
// multi-document stream.
type YAMLDecoder struct {
	// Strict converts numbers to json.Number, matching JSON strict mode.
	Strict bool
}

// NewYAMLDecoder creates a new YAML decoder.
func NewYAMLDecoder(strict bool) *YAMLDecoder {
	return &YAMLDecoder{Strict: strict}
}

func (d *YAMLDecoder) Decode(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)

	var docs []Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}

		v, err := core.ParseYAMLNode(&node)
		if err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		if v == nil {
			continue
		}
		if d.Strict {
			v = strictNumbers(v)
		}

		more, err := documentsOf(v)
		if err != nil {
			return nil, err
		}
		docs = append(docs, more...)
	}
	return docs, nil
}

// --- CSV Decoder ---

// CSVDecoder reads one action per row. The header must name a "type"
// column; every other non-empty cell becomes a payload field.
type CSVDecoder struct {
	// Strict keeps numbers as json.Number to avoid precision loss.
	Strict bool
}

// NewCSVDecoder creates a new CSV decoder.
func NewCSVDecoder(strict bool) *CSVDecoder {
	return &CSVDecoder{Strict: strict}
}

func (d *CSVDecoder) Decode(r io.Reader) ([]Document, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	typeCol := -1
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if strings.EqualFold(headers[i], "type") {
			typeCol = i
		}
	}
	if typeCol < 0 {
		return nil, errors.New("csv header has no type column")
	}

	var docs []Document
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		doc := Document{Type: strings.TrimSpace(row[typeCol]), Payload: core.Payload{}}
		for i, h := range headers {
			if i == typeCol {
				continue
			}
			val := strings.TrimSpace(row[i])
			if val == "" {
				continue
			}
			doc.Payload[h] = UnmarshalCSVValue(val, d.Strict)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// UnmarshalCSVValue parses a cell that looks like a JSON object, array,
// number or boolean. Anything else stays a string.
//
// A raw string that happens to be valid JSON (e.g. "[1]") is read as JSON.
func UnmarshalCSVValue(val string, strict bool) any {
	switch {
	case strings.HasPrefix(val, "{") && strings.HasSuffix(val, "}"),
		strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]"):
		if v, err := core.ParseJSON([]byte(val), strict); err == nil {
			return v
		}
	case val == "true" || val == "false":
		return val == "true"
	default:
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			if v, err := core.ParseJSON([]byte(val), strict); err == nil {
				return v
			}
		}
	}
	return val
}

// --- Helpers ---

// documentsOf accepts one action mapping or a list of them.
func documentsOf(v any) ([]Document, error) {
	if l, ok := v.(core.List); ok {
		docs := make([]Document, 0, l.Len())
		for i, item := range l.Items() {
			doc, err := documentOf(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	}
	doc, err := documentOf(v)
	if err != nil {
		return nil, err
	}
	return []Document{doc}, nil
}

func documentOf(v any) (Document, error) {
	m, ok := v.(core.OrderedMap)
	if !ok {
		return Document{}, fmt.Errorf("action must be a mapping, got %T", v)
	}
	kind, ok := m.Get("type")
	if !ok {
		return Document{}, errors.New("action has no type")
	}
	name, ok := kind.(string)
	if !ok || name == "" {
		return Document{}, fmt.Errorf("action type must be a non-empty string, got %v", kind)
	}

	doc := Document{Type: name}
	raw, _ := m.Get("payload")
	switch p := raw.(type) {
	case core.OrderedMap:
		doc.Payload = p.ToPayload()
	case nil:
	default:
		return Document{}, fmt.Errorf("%s: payload must be a mapping, got %T", name, raw)
	}
	return doc, nil
}

// strictNumbers converts every number to json.Number so YAML strict mode
// agrees with JSON strict mode.
func strictNumbers(v any) any {
	switch t := v.(type) {
	case core.OrderedMap:
		out := t
		t.Range(func(k string, val any) bool {
			out = out.Set(k, strictNumbers(val))
			return true
		})
		return out
	case core.List:
		items := t.Items()
		for i, item := range items {
			items[i] = strictNumbers(item)
		}
		return core.ListOf(items...)
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return v
	}
}
