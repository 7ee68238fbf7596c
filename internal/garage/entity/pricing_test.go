package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricedItems() []WOItem {
	a := NewWOItem(ServiceItem{ID: "S-OIL", LaborHours: 0.6, BasePrice: 35})
	a.Parts = []PartRequirement{
		{Part: Part{ID: "P001", UnitPrice: 50}, Qty: 4},
		{Part: Part{ID: "P002", UnitPrice: 30}, Qty: 1},
	}
	b := NewWOItem(ServiceItem{ID: "S-CHECK", LaborHours: 0.5, BasePrice: 30})
	return []WOItem{a, b}
}

func TestSubtotal(t *testing.T) {
	// 35 + 0.6*100 + 200 + 30 = 325; 30 + 0.5*100 = 80
	assert.InDelta(t, 405.0, Subtotal(pricedItems(), 100), 1e-9)
	assert.Equal(t, 0.0, Subtotal(nil, 100))
}

func TestPricingPolicies(t *testing.T) {
	items := pricedItems()
	subtotal := Subtotal(items, 120)

	assert.InDelta(t, subtotal, StandardPricing().Total(items, 120), 1e-9)
	assert.InDelta(t, subtotal*0.9, MemberDiscount(0.9).Total(items, 120), 1e-9)
	assert.InDelta(t, subtotal*0.8, Promotional(0.8).Total(items, 120), 1e-9)
	assert.InDelta(t, subtotal*0.75, MemberDiscount(0.75).Total(items, 120), 1e-9)

	// 零值视为标准计价
	assert.InDelta(t, subtotal, PricingPolicy{}.Total(items, 120), 1e-9)
}

func TestPricingCopiesAreIndependent(t *testing.T) {
	original := MemberDiscount(0.9)
	copied := original
	copied.Rate = 0.5
	assert.Equal(t, 0.9, original.Rate)
}

func TestPricingValidate(t *testing.T) {
	assert.NoError(t, StandardPricing().Validate())
	assert.NoError(t, Promotional(0).Validate())
	assert.ErrorIs(t, MemberDiscount(-0.1).Validate(), ErrConfiguration)
	assert.ErrorIs(t, Promotional(-1).Validate(), ErrConfiguration)
	assert.ErrorIs(t, PricingPolicy{Kind: "Bogus"}.Validate(), ErrConfiguration)

	wo := newTestOrder()
	assert.ErrorIs(t, wo.SetPricing(MemberDiscount(-0.9)), ErrConfiguration)
	assert.Equal(t, PricingStandard, wo.Pricing.Kind)
}

func TestParsePricing(t *testing.T) {
	cases := []struct {
		kind string
		rate float64
		want PricingPolicy
	}{
		{"", 0, StandardPricing()},
		{"Normal", 0, StandardPricing()},
		{"Standard", 0.5, StandardPricing()},
		{"Member", 0.9, MemberDiscount(0.9)},
		{"member_discount", 0.85, MemberDiscount(0.85)},
		{"Campaign", 0.8, Promotional(0.8)},
		{"promotional", 0.7, Promotional(0.7)},
	}
	for _, tc := range cases {
		got, err := ParsePricing(tc.kind, tc.rate)
		require.NoError(t, err, tc.kind)
		assert.Equal(t, tc.want, got, tc.kind)
	}

	_, err := ParsePricing("Member", -0.9)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = ParsePricing("free", 1)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPricingUnmarshalLegacyName(t *testing.T) {
	cases := []struct {
		raw  string
		want PricingPolicy
	}{
		{`"Normal"`, StandardPricing()},
		{`"Member"`, MemberDiscount(DefaultMemberRate)},
		{`"Campaign"`, Promotional(DefaultPromotionRate)},
		{`{"kind":"Member","rate":0.75}`, MemberDiscount(0.75)},
		{`{"kind":"Promotional","rate":0}`, Promotional(0)},
	}
	for _, tc := range cases {
		var p PricingPolicy
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &p), tc.raw)
		assert.Equal(t, tc.want, p, tc.raw)
	}

	var p PricingPolicy
	assert.ErrorIs(t, json.Unmarshal([]byte(`"Free"`), &p), ErrConfiguration)
}
