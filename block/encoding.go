package block

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

func jsonUnmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func cborMarshal(v any) ([]byte, error) { return cbor.Marshal(v) }

func cborUnmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }
