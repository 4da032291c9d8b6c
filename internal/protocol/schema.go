package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

// Schema compiles (once) the embedded schema with the given file name, e.g. "move.schema.json".
func Schema(name string) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	url := "mem://schemas/" + name
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	schemaCache[name] = s
	return s, nil
}

// ValidateMove checks a raw MOVE frame against move.schema.json and decodes it.
func ValidateMove(raw []byte) (MoveMsg, error) {
	s, err := Schema("move.schema.json")
	if err != nil {
		return MoveMsg{}, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return MoveMsg{}, fmt.Errorf("bad json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return MoveMsg{}, fmt.Errorf("invalid MOVE: %w", err)
	}
	var m MoveMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		return MoveMsg{}, fmt.Errorf("bad MOVE: %w", err)
	}
	return m, nil
}
