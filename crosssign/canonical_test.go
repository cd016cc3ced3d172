package crosssign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON_SortsKeysAndStripsExcludedFields(t *testing.T) {
	attrs := map[string]interface{}{
		"user_id":    "@bob:example.org",
		"device_id":  "DEVICE1",
		"verified":   true,
		"blocked":    false,
		"unsigned":   map[string]interface{}{"foo": "bar"},
		"signatures": map[string]interface{}{"@bob:example.org": map[string]interface{}{}},
	}

	out, err := CanonicalJSON(attrs)
	require.NoError(t, err)

	got := string(out)
	assert.Equal(t, `{"device_id":"DEVICE1","user_id":"@bob:example.org"}`, got)
}

func TestCanonicalJSON_DeterministicAcrossInputOrder(t *testing.T) {
	a := map[string]interface{}{"b": 1, "a": 2, "c": 3}
	b := map[string]interface{}{"c": 3, "a": 2, "b": 1}

	outA, err := CanonicalJSON(a)
	require.NoError(t, err)
	outB, err := CanonicalJSON(b)
	require.NoError(t, err)

	assert.Equal(t, outA, outB)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(outA))
}

func TestCanonicalJSON_NoTrailingZeroOnWholeFloats(t *testing.T) {
	out, err := CanonicalJSON(map[string]interface{}{"n": 10.0})
	require.NoError(t, err)
	assert.Equal(t, `{"n":10}`, string(out))
}

func TestCanonicalJSON_NestedArraysPreserveOrder(t *testing.T) {
	out, err := CanonicalJSON(map[string]interface{}{"algorithms": []string{"m.megolm.v1.aes-sha2", "m.olm.v1.curve25519-aes-sha2"}})
	require.NoError(t, err)
	assert.Equal(t, `{"algorithms":["m.megolm.v1.aes-sha2","m.olm.v1.curve25519-aes-sha2"]}`, string(out))
}

func TestToAttrMap_RoundTripsThroughDeviceKey(t *testing.T) {
	pub, _ := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE1", pub, NewEd25519Verifier())

	attrs := device.signableAttrs()
	m, err := toAttrMap(attrs)
	require.NoError(t, err)
	assert.Equal(t, "@bob:example.org", m["user_id"])
	assert.Equal(t, "DEVICE1", m["device_id"])
}
