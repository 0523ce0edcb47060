package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// JSON writes manifests with encoding/json. Other tools can read them
// without this module.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// GoJSON produces the same bytes as JSON through github.com/goccy/go-json,
// which is faster on manifests with large region offset tables.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }
