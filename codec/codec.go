// Package codec centralizes manifest encoding.
//
// Manifests record the codec name in their envelope, so changing the default
// never breaks containers written with an older one.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// This is used by the manifest envelope, which stores the codec name in its
// header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "cbor":
		return CBOR{}, true
	default:
		return nil, false
	}
}

// Names lists the built-in codec names.
func Names() []string { return []string{"cbor", "go-json", "json"} }

// Default is the codec used for newly written manifests. Existing
// manifests are decoded with the codec named in their envelope.
var Default Codec = CBOR{}
