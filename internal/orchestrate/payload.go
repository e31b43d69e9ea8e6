package orchestrate

import (
	"strings"
	"time"

	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
	"github.com/sacscloud/checkout/internal/money"
)

// OrderHeader carries the order-level figures and customer snapshot.
//
// Subtotal and Tax use the display approximation (fixed nominal rate), as
// the backend expects; the per-line figures in OrderLine use each line's
// own rate. The two paths are deliberately separate - see internal/money.
type OrderHeader struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM:SS

	Subtotal float64
	Tax      float64
	Total    float64
	Currency string

	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
	CustomerCity       string
	CustomerPostalCode string
	CustomerTypeKey    string

	WarehouseKey  string
	WarehouseName string
	BranchKey     string
	BranchName    string

	Status        string // always "open" from this channel
	PaymentStatus string // always "paid": commit only happens after capture
	Channel       string
	PaymentMethod string
	IntentID      string
}

// OrderLine is one persisted line with its derived tax fields.
type OrderLine struct {
	ProductID string
	Name      string
	Variant   string
	Quantity  int

	// Tax-inclusive catalog unit price, for reference.
	UnitPriceIncTax float64
	TaxRatePercent  float64

	// Derived via the per-line path.
	UnitPriceExTax float64
	AmountExTax    float64
	TaxAmount      float64
	AmountIncTax   float64
}

// Charge records the captured payment against the order.
type Charge struct {
	Method   string
	Amount   float64
	Currency string
	IntentID string
}

// OrderPayload is the single order-commit request body.
type OrderPayload struct {
	AccountID string
	Header    OrderHeader
	Lines     []OrderLine
	Charges   []Charge

	// SignaturePNG is attached verbatim when the flow captured one; nil
	// otherwise.
	SignaturePNG []byte
}

const (
	orderStatusOpen   = "open"
	paymentStatusPaid = "paid"
	orderChannel      = "ecommerce-widget"
	paymentMethodCard = "card"
)

// buildPayload assembles the commit request from the instance state, the
// confirmed attempt, and the account defaults. Called from exactly one
// place after processor confirmation.
func buildPayload(inst *flow.Instance, cfg *config.Config, defaults config.Defaults, now time.Time) OrderPayload {
	total := inst.Cart.Total()
	display := money.DisplayTotals(total)

	header := OrderHeader{
		Date:               now.Format("2006-01-02"),
		Time:               now.Format("15:04:05"),
		Subtotal:           display.Subtotal,
		Tax:                display.Tax,
		Total:              total,
		Currency:           cfg.Currency,
		CustomerName:       inst.Customer.FullName,
		CustomerEmail:      inst.Customer.Email,
		CustomerPhone:      inst.Customer.Phone,
		CustomerAddress:    inst.Customer.AddressLine,
		CustomerCity:       inst.Customer.City,
		CustomerPostalCode: inst.Customer.PostalCode,
		CustomerTypeKey:    defaults.CustomerType.Key,
		WarehouseKey:       defaults.Warehouse.Key,
		WarehouseName:      defaults.Warehouse.Name,
		BranchKey:          defaults.Branch.Key,
		BranchName:         defaults.Branch.Name,
		Status:             orderStatusOpen,
		PaymentStatus:      paymentStatusPaid,
		Channel:            orderChannel,
		PaymentMethod:      paymentMethodCard,
		IntentID:           inst.Attempt.IntentID,
	}

	lines := make([]OrderLine, 0, inst.Cart.Len())
	for _, l := range inst.Cart.Lines {
		la := money.DeriveLine(l.UnitPrice, l.TaxRatePercent, l.Quantity)
		lines = append(lines, OrderLine{
			ProductID:       l.ProductID,
			Name:            l.Name,
			Variant:         l.Variant,
			Quantity:        l.Quantity,
			UnitPriceIncTax: l.UnitPrice,
			TaxRatePercent:  l.TaxRatePercent,
			UnitPriceExTax:  la.ExUnit,
			AmountExTax:     la.ExTax,
			TaxAmount:       la.TaxAmount,
			AmountIncTax:    la.IncTax,
		})
	}

	return OrderPayload{
		AccountID: cfg.AccountID,
		Header:    header,
		Lines:     lines,
		Charges: []Charge{{
			Method:   paymentMethodCard,
			Amount:   total,
			Currency: cfg.Currency,
			IntentID: inst.Attempt.IntentID,
		}},
		SignaturePNG: inst.Pad.Image(),
	}
}

// DisplayReference derives the human-facing transaction reference from a
// processor intent id: the "pi_" style prefix is stripped and the rest
// uppercased.
func DisplayReference(intentID string) string {
	if len(intentID) > 3 {
		return strings.ToUpper(intentID[3:])
	}
	return strings.ToUpper(intentID)
}
