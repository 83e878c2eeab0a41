package invoke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	payload := []byte(`{"organization_id":"org-1","quantity":2,"unit_amount":10}`)

	first, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", payload)
	require.NoError(t, err)
	second, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestDeriveKey_KeyOrderIndependent(t *testing.T) {
	a := []byte(`{"a":1,"b":{"x":true,"y":[1,2]}}`)
	b := []byte(`{"b":{"y":[1,2],"x":true},"a":1}`)

	keyA, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", a)
	require.NoError(t, err)
	keyB, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestDeriveKey_SensitiveToEachInput(t *testing.T) {
	payload := []byte(`{"quantity":2}`)

	base, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", payload)
	require.NoError(t, err)

	otherCode, err := DeriveKey("HERA.UNIV.TXN.LINE.UPDATE.V1", "org-1", payload)
	require.NoError(t, err)
	otherOrg, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-2", payload)
	require.NoError(t, err)
	otherPayload, err := DeriveKey("HERA.UNIV.TXN.LINE.ADD.V1", "org-1", []byte(`{"quantity":3}`))
	require.NoError(t, err)

	assert.NotEqual(t, base, otherCode)
	assert.NotEqual(t, base, otherOrg)
	assert.NotEqual(t, base, otherPayload)
}

func TestPayloadHash(t *testing.T) {
	a, err := PayloadHash([]byte(`{"x":1,"y":2}`))
	require.NoError(t, err)
	b, err := PayloadHash([]byte(`{"y":2,"x":1}`))
	require.NoError(t, err)
	c, err := PayloadHash([]byte(`{"x":1,"y":3}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStableJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "empty payload", in: "", want: "null"},
		{name: "sorted keys", in: `{"b":2,"a":1}`, want: `{"a":1,"b":2}`},
		{name: "nested sorting", in: `{"z":{"b":null,"a":true}}`, want: `{"z":{"a":true,"b":null}}`},
		{name: "array order preserved", in: `[3,1,2]`, want: `[3,1,2]`},
		{name: "string escaping", in: `{"k":"a\"b"}`, want: `{"k":"a\"b"}`},
		{name: "malformed", in: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []byte
			if tt.in != "" {
				in = []byte(tt.in)
			}
			got, err := stableJSON(in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
