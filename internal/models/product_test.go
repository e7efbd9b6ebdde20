package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_KeepsUnknownFields(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"_id":"P1","name":"Shirt","tags":["a","b"],"meta":{"season":"fall"}}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "P1", p.ID)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"P1","name":"Shirt","tags":["a","b"],"meta":{"season":"fall"}}`, string(out))
}

func TestProduct_IDFallbacks(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":42}`), &p))
	assert.Equal(t, "42", p.ID)
}

func TestProduct_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"name":"x"}`},
		{"empty id", `{"_id":""}`},
		{"object id", `{"_id":{"$oid":"1"}}`},
		{"not an object", `["P1"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			err := json.Unmarshal([]byte(tt.body), &p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
		})
	}
}

func TestVariant_Decode(t *testing.T) {
	var v Variant
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"V1","productId":"P1","price":19.5,"sku":"S-1"}`), &v))
	assert.Equal(t, "P1", v.ProductID)
	assert.Equal(t, 19.5, v.Price)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"V1","productId":"P1","price":19.5,"sku":"S-1"}`, string(out))
}

func TestVariant_Malformed(t *testing.T) {
	for _, body := range []string{
		`{"price":10}`,
		`{"productId":"P1"}`,
		`{"productId":"P1","price":"ten"}`,
	} {
		var v Variant
		err := json.Unmarshal([]byte(body), &v)
		assert.ErrorIs(t, err, ErrMalformedRecord, body)
	}
}

func TestMergedProduct_Marshal(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"P1","variants":"stale","name":"Shirt"}`), &p))
	var v Variant
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"P1","price":50}`), &v))

	out, err := json.Marshal(MergedProduct{Product: p, Variants: []Variant{v}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"P1","name":"Shirt","variants":[{"productId":"P1","price":50}]}`, string(out))

	out, err = json.Marshal(MergedProduct{Product: p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"P1","name":"Shirt","variants":[]}`, string(out))
}

func TestMergedProduct_FirstPrice(t *testing.T) {
	assert.Equal(t, 0.0, MergedProduct{}.FirstPrice())
	assert.Equal(t, 30.0, MergedProduct{Variants: []Variant{{Price: 30}, {Price: 10}}}.FirstPrice())
}

func TestVariant_MarshalWithoutFields(t *testing.T) {
	out, err := json.Marshal(Variant{ProductID: "P1", Price: 12.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"productId":"P1","price":12.5}`, string(out))
}
