package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLines() *Cart {
	return New([]Line{
		{ProductID: "p1", Name: "Widget", UnitPrice: 100, TaxRatePercent: 16},
		{ProductID: "p2", Name: "Gadget", UnitPrice: 49.5, TaxRatePercent: 16},
	})
}

func TestNew_DefaultsQuantityToOne(t *testing.T) {
	c := twoLines()
	require.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 1, c.Lines[1].Quantity)
}

func TestNew_CopiesCatalogLines(t *testing.T) {
	catalog := []Line{{ProductID: "p1", UnitPrice: 10}}
	c := New(catalog)
	c.SetQuantity(0, 5)

	assert.Equal(t, 0, catalog[0].Quantity, "catalog slice must not be mutated")
}

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		quantity int
		want     bool
	}{
		{"valid update", 0, 3, true},
		{"zero is valid", 0, 0, true},
		{"no upper clamp", 0, 100000, true},
		{"negative rejected", 0, -1, false},
		{"index out of range", 2, 1, false},
		{"negative index", -1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := twoLines()
			got := c.SetQuantity(tt.index, tt.quantity)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.Equal(t, tt.quantity, c.Lines[tt.index].Quantity)
			}
		})
	}
}

func TestSetQuantity_RejectedLeavesLineUntouched(t *testing.T) {
	c := twoLines()
	c.SetQuantity(0, -5)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestSetQuantity_ZeroLineStaysPresent(t *testing.T) {
	c := twoLines()
	require.True(t, c.SetQuantity(0, 0))

	// Removed-but-present: the line stays, contributes nothing.
	assert.Equal(t, 2, c.Len())
	assert.InDelta(t, 49.5, c.Total(), 1e-9)
}

func TestTotal(t *testing.T) {
	c := twoLines()
	c.SetQuantity(0, 2)

	assert.InDelta(t, 100*2+49.5, c.Total(), 1e-9)
}

func TestTotal_LineContribution(t *testing.T) {
	// For all q >= 0, the line's contribution equals unitPrice * q.
	for _, q := range []int{0, 1, 2, 7, 1000} {
		c := New([]Line{{ProductID: "p1", UnitPrice: 33.25}})
		require.True(t, c.SetQuantity(0, q))
		assert.InDelta(t, 33.25*float64(q), c.Total(), 1e-9, "q=%d", q)
	}
}

func TestTotal_IndependentOfLineOrder(t *testing.T) {
	a := New([]Line{
		{ProductID: "p1", UnitPrice: 10.10, Quantity: 3},
		{ProductID: "p2", UnitPrice: 0.99, Quantity: 7},
		{ProductID: "p3", UnitPrice: 250, Quantity: 1},
	})
	b := New([]Line{
		{ProductID: "p3", UnitPrice: 250, Quantity: 1},
		{ProductID: "p1", UnitPrice: 10.10, Quantity: 3},
		{ProductID: "p2", UnitPrice: 0.99, Quantity: 7},
	})

	assert.Equal(t, a.Total(), b.Total())
}

func TestTotal_EmptyCart(t *testing.T) {
	assert.Zero(t, New(nil).Total())
}

func TestCustomerInfo_Validate(t *testing.T) {
	valid := CustomerInfo{
		Email:       "ana@example.com",
		FullName:    "Ana Torres",
		AddressLine: "Av. Reforma 1",
		City:        "CDMX",
		PostalCode:  "06600",
	}

	tests := []struct {
		name   string
		mutate func(*CustomerInfo)
		want   bool
	}{
		{"all fields present", func(ci *CustomerInfo) {}, true},
		{"phone optional", func(ci *CustomerInfo) { ci.Phone = "" }, true},
		{"missing email", func(ci *CustomerInfo) { ci.Email = "" }, false},
		{"missing name", func(ci *CustomerInfo) { ci.FullName = "" }, false},
		{"missing address", func(ci *CustomerInfo) { ci.AddressLine = "" }, false},
		{"missing city", func(ci *CustomerInfo) { ci.City = "" }, false},
		{"missing postal code", func(ci *CustomerInfo) { ci.PostalCode = "" }, false},
		{"whitespace-only is empty", func(ci *CustomerInfo) { ci.City = "   " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := valid
			tt.mutate(&ci)
			ok, msg := ci.Validate()
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.NotEmpty(t, msg, "failing validation must carry a user-facing message")
			}
		})
	}
}

func TestCustomerInfo_Trimmed(t *testing.T) {
	ci := CustomerInfo{Email: "  a@b.c  ", FullName: "\tAna ", City: "CDMX"}
	got := ci.Trimmed()

	assert.Equal(t, "a@b.c", got.Email)
	assert.Equal(t, "Ana", got.FullName)
	assert.Equal(t, "CDMX", got.City)
}
