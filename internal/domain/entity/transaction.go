package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind clasifica una línea del reporte de liquidación.
// El motor solo procesa Order y Refund; cualquier otro valor se ignora.
type TransactionKind string

const (
	KindOrder  TransactionKind = "Order"
	KindRefund TransactionKind = "Refund"
)

// Fulfillment es el canal canónico de una transacción individual,
// resuelto una sola vez desde el tag crudo del ledger.
type Fulfillment int

const (
	FulfillmentUnknown  Fulfillment = iota // tag vacío o no reconocido
	FulfillmentOrigin                      // AFN/FBA: despacha el operador del marketplace
	FulfillmentMerchant                    // MFN/FBM: despacha el vendedor
)

// ParseFulfillment mapea el tag crudo del ledger al canal canónico.
// Los reportes usan dos sinónimos por canal: "AFN"/"FBA" y "MFN"/"FBM".
func ParseFulfillment(raw string) Fulfillment {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "AFN", "FBA":
		return FulfillmentOrigin
	case "MFN", "FBM":
		return FulfillmentMerchant
	default:
		return FulfillmentUnknown
	}
}

// Channel es el canal efectivo de un grupo de transacciones (SKU o rollup).
// Un grupo con transacciones de ambos canales canónicos es siempre Mixed,
// sin importar cuál tenga más volumen.
type Channel string

const (
	ChannelFBA   Channel = "FBA"
	ChannelFBM   Channel = "FBM"
	ChannelMixed Channel = "Mixed"
)

// Transaction es una línea del ledger de liquidación (hecho inmutable).
// Los importes llevan el signo del reporte: ventas positivas, comisiones
// y reembolsos negativos, rebates promocionales negativos.
type Transaction struct {
	SKU                string
	ProductName        string // descripción del listing; clave del rollup SKU→Producto
	ParentASIN         string // identificador del listing padre (variantes talla/color)
	Category           string
	Marketplace        string // ej: "amazon.com", "amazon.de"
	Currency           string // moneda de los importes de esta línea
	FulfillmentTag     string // tag crudo del reporte: AFN, FBA, MFN, FBM o vacío
	Kind               TransactionKind
	ProductSales       decimal.Decimal
	PromotionalRebates decimal.Decimal
	SellingFees        decimal.Decimal
	FBAFees            decimal.Decimal
	TaxCollected       decimal.Decimal // IVA/GST recaudado por el marketplace
	Quantity           int64
	PostedAt           time.Time
}

// Fulfillment resuelve el canal canónico de la línea.
func (t Transaction) Fulfillment() Fulfillment {
	return ParseFulfillment(t.FulfillmentTag)
}
