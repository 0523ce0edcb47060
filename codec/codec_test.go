package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name    string            `json:"name" cbor:"name"`
	Rows    int64             `json:"rows" cbor:"rows"`
	Offsets []uint64          `json:"offsets" cbor:"offsets"`
	Attrs   map[string]string `json:"attrs" cbor:"attrs"`
}

func TestCodecs(t *testing.T) {
	in := payload{
		Name:    "scene",
		Rows:    120_000,
		Offsets: []uint64{0, 9_999_999_998},
		Attrs:   map[string]string{"sensor": "x-band", "mode": "spotlight"},
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			data, err := c.Marshal(in)
			require.NoError(t, err)
			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestJSONFlavoursAgree(t *testing.T) {
	in := payload{Name: "a", Rows: 3, Offsets: []uint64{1}}
	std, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, GoJSON{}.Unmarshal(std, &out))
	assert.Equal(t, in, out)

	goOut, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(std), string(goOut))
}

func mustMarshal(t *testing.T, c Codec, v any) []byte {
	t.Helper()
	b, err := c.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestCBORIsDeterministic(t *testing.T) {
	m := map[string]int{"z": 1, "a": 2, "m": 3}
	first := mustMarshal(t, CBOR{}, m)
	for range 10 {
		assert.Equal(t, first, mustMarshal(t, CBOR{}, m))
	}
}

func TestByNameUnknown(t *testing.T) {
	_, ok := ByName("protobuf")
	assert.False(t, ok)
	// Default is CBOR: small unsigned ints are a single byte.
	assert.Equal(t, []byte{0x01}, mustMarshal(t, Default, 1))
}
