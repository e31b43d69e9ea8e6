package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
)

// seqGenerator returns "id-1", "id-2", ... for deterministic keys.
type seqGenerator struct{ n int }

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func testConfig(signatureRequired bool) *config.Config {
	return &config.Config{
		AccountID:         "acct-123",
		SignatureRequired: signatureRequired,
		Currency:          "MXN",
		Catalog: []config.CatalogLine{
			{ProductID: "p1", Name: "Widget", UnitPrice: 100, TaxRatePercent: 16},
			{ProductID: "p2", Name: "Gadget", UnitPrice: 50, TaxRatePercent: 16},
		},
	}
}

func TestCreate_UsesCatalogAndSignatureFlag(t *testing.T) {
	r := New(testConfig(true))
	inst := r.Create("checkout-main")

	assert.Equal(t, "checkout-main", inst.ContainerID())
	assert.True(t, inst.SignatureRequired())
	require.Equal(t, 2, inst.Cart.Len())
	assert.Equal(t, "Widget", inst.Cart.Lines[0].Name)
	assert.Equal(t, 1, inst.Cart.Lines[0].Quantity, "catalog lines default to quantity 1")
}

func TestCreate_EmptyContainerIDGetsGeneratedKey(t *testing.T) {
	r := New(testConfig(false), WithIDGenerator(&seqGenerator{}))
	inst := r.Create("")

	assert.Equal(t, "id-1", inst.ContainerID())
	got, err := r.Get("id-1")
	require.NoError(t, err)
	assert.Same(t, inst, got)
}

func TestGet_EmptyIDResolvesLastCreated(t *testing.T) {
	r := New(testConfig(false))
	first := r.Create("a")
	second := r.Create("b")

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Same(t, second, got)

	got, err = r.Get("a")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestGet_UnknownID(t *testing.T) {
	r := New(testConfig(false))
	r.Create("a")

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_EmptyIDWithNoInstances(t *testing.T) {
	r := New(testConfig(false))
	_, err := r.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInstances_AreIsolated(t *testing.T) {
	r := New(testConfig(false))
	r.Create("a")
	r.Create("b")
	require.NoError(t, r.Open("a"))
	require.NoError(t, r.Open("b"))

	require.NoError(t, r.UpdateQuantity(0, 5, "a"))

	a, _ := r.Get("a")
	b, _ := r.Get("b")
	assert.Equal(t, 5, a.Cart.Lines[0].Quantity)
	assert.Equal(t, 1, b.Cart.Lines[0].Quantity, "mutating one cart never touches another")
	assert.Equal(t, 550.0, a.Cart.Total())
	assert.Equal(t, 150.0, b.Cart.Total())
}

func TestOpenCloseReopen_ThroughRegistry(t *testing.T) {
	r := New(testConfig(false))
	r.Create("a")

	require.NoError(t, r.Open("a"))
	inst, _ := r.Get("a")
	require.NoError(t, inst.Continue())
	require.Equal(t, flow.StepCustomerInfo, inst.Step())

	require.NoError(t, r.Close("a"))
	assert.False(t, inst.IsOpen())

	// Reopen resets to the cart step; the instance itself survives.
	require.NoError(t, r.Open(""))
	assert.Equal(t, flow.StepCart, inst.Step())
	assert.True(t, inst.IsOpen())
}

func TestGoToStep_ThroughRegistry(t *testing.T) {
	r := New(testConfig(false))
	inst := r.Create("a")
	require.NoError(t, r.Open("a"))
	require.NoError(t, inst.Continue())

	require.NoError(t, r.GoToStep(flow.StepCart, "a"))
	assert.Equal(t, flow.StepCart, inst.Step())

	assert.Error(t, r.GoToStep(flow.StepPayment, "a"), "forward jumps rejected")
	assert.ErrorIs(t, r.GoToStep(flow.StepCart, "nope"), ErrNotFound)
}

func TestRemove(t *testing.T) {
	r := New(testConfig(false))
	r.Create("a")
	inst := r.Create("b")
	require.NoError(t, r.Open("b"))

	require.NoError(t, r.Remove("b"))
	assert.False(t, inst.IsOpen(), "removal closes the instance")
	assert.Equal(t, 1, r.Len())

	_, err := r.Get("b")
	assert.ErrorIs(t, err, ErrNotFound)

	// "b" was last-created; id-less addressing is gone until the next Create.
	_, err = r.Get("")
	assert.ErrorIs(t, err, ErrNotFound)

	next := r.Create("c")
	got, errGet := r.Get("")
	require.NoError(t, errGet)
	assert.Same(t, next, got)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.Generate()
	b := gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
