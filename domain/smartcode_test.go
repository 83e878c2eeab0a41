package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSmartCode(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantCanonical string
		wantRouting   string
		wantVersion   int
		wantErr       bool
	}{
		{
			name:          "lowercase version is canonicalized",
			raw:           "HERA.SALON.POS.CART.REPRICE.v1",
			wantCanonical: "HERA.SALON.POS.CART.REPRICE.V1",
			wantRouting:   "hera_salon_pos_cart_reprice_v1",
			wantVersion:   1,
		},
		{
			name:          "uppercase version kept",
			raw:           "HERA.UNIV.TXN.HEADER.CREATE.V1",
			wantCanonical: "HERA.UNIV.TXN.HEADER.CREATE.V1",
			wantRouting:   "hera_univ_txn_header_create_v1",
			wantVersion:   1,
		},
		{
			name:          "multi digit version",
			raw:           "HERA.REST.MENU.ITEM.UPSERT.v12",
			wantCanonical: "HERA.REST.MENU.ITEM.UPSERT.V12",
			wantRouting:   "hera_rest_menu_item_upsert_v12",
			wantVersion:   12,
		},
		{
			name:          "segments with underscores and digits",
			raw:           "HERA.WA.MSG_OUT.SEND2.v3",
			wantCanonical: "HERA.WA.MSG_OUT.SEND2.V3",
			wantRouting:   "hera_wa_msg_out_send2_v3",
			wantVersion:   3,
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "not a code at all", raw: "NOT_A_CODE", wantErr: true},
		{name: "wrong namespace", raw: "ACME.UNIV.TXN.CREATE.v1", wantErr: true},
		{name: "lowercase namespace", raw: "hera.UNIV.TXN.CREATE.v1", wantErr: true},
		{name: "missing version", raw: "HERA.UNIV.TXN.CREATE", wantErr: true},
		{name: "too few segments", raw: "HERA.TXN.v1", wantErr: true},
		{name: "lowercase segment", raw: "HERA.univ.TXN.CREATE.v1", wantErr: true},
		{name: "empty segment", raw: "HERA.UNIV..CREATE.v1", wantErr: true},
		{name: "bad version suffix", raw: "HERA.UNIV.TXN.CREATE.vX", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ParseSmartCode(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsDomainError(err, ErrCodeInvalidSmartCode),
					"expected InvalidSmartCode, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanonical, code.Canonical)
			assert.Equal(t, tt.wantRouting, code.RoutingKey)
			assert.Equal(t, tt.wantVersion, code.Version)
		})
	}
}

func TestSmartCode_Segments(t *testing.T) {
	code, err := ParseSmartCode("HERA.SALON.POS.CART.CREATE.v1")
	require.NoError(t, err)

	assert.Equal(t, []string{"SALON", "POS", "CART", "CREATE"}, code.Segments)
	assert.True(t, code.HasSegment("CART"))
	assert.False(t, code.HasSegment("HERA"), "namespace is not a business segment")
	assert.False(t, code.HasSegment("V1"), "version is not a business segment")
}
