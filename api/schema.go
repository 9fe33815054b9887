package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Request body schemas, keyed by resource name.
var schemaSources = map[string]string{
	"forward.json": `{
		"type": "object",
		"required": ["sender", "content"],
		"properties": {
			"sender":    {"type": "string"},
			"content":   {"type": "string"},
			"timestamp": {"type": ["string", "null"]}
		}
	}`,
	"rule-create.json": `{
		"type": "object",
		"required": ["name", "filter_type"],
		"properties": {
			"name":         {"type": "string", "minLength": 1},
			"filter_type":  {"enum": ["all", "sender", "keyword"]},
			"filter_value": {"type": ["string", "null"]},
			"enabled":      {"type": "boolean"}
		}
	}`,
	"rule-patch.json": `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"name":         {"type": "string", "minLength": 1},
			"filter_type":  {"enum": ["all", "sender", "keyword"]},
			"filter_value": {"type": ["string", "null"]},
			"enabled":      {"type": "boolean"}
		}
	}`,
	"transport.json": `{
		"type": "object",
		"required": ["email_type", "recipient_email"],
		"properties": {
			"email_type":      {"enum": ["smtp", "emergent", "device"]},
			"smtp_server":     {"type": "string"},
			"smtp_port":       {"type": "integer", "minimum": 0, "maximum": 65535},
			"smtp_username":   {"type": "string"},
			"smtp_password":   {"type": "string"},
			"use_tls":         {"type": "boolean"},
			"recipient_email": {"type": "string", "minLength": 3},
			"sender_name":     {"type": "string"}
		}
	}`,
	"test-email.json": `{
		"type": "object",
		"required": ["recipient_email"],
		"properties": {
			"recipient_email": {"type": "string", "minLength": 3},
			"test_message":    {"type": "string"}
		}
	}`,
}

// schemaSet holds the compiled request schemas.
type schemaSet struct {
	schemas map[string]*jsonschema.Schema
}

func mustCompileSchemas() *schemaSet {
	set, err := compileSchemas(schemaSources)
	if err != nil {
		panic(err)
	}
	return set
}

func compileSchemas(sources map[string]string) (*schemaSet, error) {
	c := jsonschema.NewCompiler()
	for name, src := range sources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("api: parse schema %s: %w", name, err)
		}
		if err := c.AddResource(schemaURL(name), doc); err != nil {
			return nil, fmt.Errorf("api: add schema %s: %w", name, err)
		}
	}

	set := &schemaSet{schemas: make(map[string]*jsonschema.Schema, len(sources))}
	for name := range sources {
		compiled, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("api: compile schema %s: %w", name, err)
		}
		set.schemas[name] = compiled
	}
	return set, nil
}

func schemaURL(name string) string {
	return "smsrelay://schemas/" + name
}

// errInvalidJSON is reported for bodies that are not a JSON document.
var errInvalidJSON = errors.New("invalid JSON body")

// decode reads the request body, validates it against the named schema and
// unmarshals it into v.
func (s *schemaSet) decode(r *http.Request, name string, v any) error {
	defer r.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errInvalidJSON
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return errInvalidJSON
	}

	if err := s.schemas[name].Validate(inst); err != nil {
		return fmt.Errorf("invalid request body: %s", schemaMessage(err))
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidJSON
	}
	return nil
}

// schemaMessage flattens a schema validation error into one line.
func schemaMessage(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "- ")
	}
	return strings.Join(lines, "; ")
}
