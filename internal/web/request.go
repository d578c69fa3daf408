package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// decodeFields reads a JSON object into a FieldSet, keeping the key order
// of the document. Numbers stay json.Number so integers never pass through
// float64.
func decodeFields(r io.Reader) (core.FieldSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return core.FieldSet{}, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a JSON object of column values")
	}

	var fs core.FieldSet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		column, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		fs = fs.Set(column, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fs, nil
}

// fieldsJSON decodes an embedded object with decodeFields.
type fieldsJSON core.FieldSet

func (f *fieldsJSON) UnmarshalJSON(b []byte) error {
	fs, err := decodeFields(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*f = fieldsJSON(fs)
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// readFields decodes the request body as a single field object.
func readFields(w http.ResponseWriter, r *http.Request) (core.FieldSet, error) {
	return decodeFields(http.MaxBytesReader(w, r.Body, maxBodySize))
}

// readJSON decodes the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.UseNumber()
	return dec.Decode(v)
}

// keyParam parses a primary key URL parameter.
func keyParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	key, err := core.ParseKey(raw)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Value: raw, Message: "malformed key"}
	}
	return key, nil
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
