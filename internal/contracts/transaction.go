package contracts

import "time"

// Required input columns of a transaction ledger
const (
	FieldCustomerID   = "ID_cliente"
	FieldPurchaseDate = "DiaCompra"
	FieldPurchaseCode = "CodigoCompra"
	FieldTotalValue   = "ValorTotal"
)

// RequiredFields lists the columns every ledger must carry, in canonical order
var RequiredFields = []string{
	FieldCustomerID,
	FieldPurchaseDate,
	FieldPurchaseCode,
	FieldTotalValue,
}

// Transaction is one purchase row as supplied by a transaction store
// ⭐ SSOT: Store → Engine 입력 행
type Transaction struct {
	CustomerID   string    `json:"customer_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	PurchaseCode string    `json:"purchase_code"` // counted only, uniqueness not enforced
	TotalValue   float64   `json:"total_value"`
}
