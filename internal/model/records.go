package model

// SaleRecord is one line item of a retail sale. Multiple records share a
// SaleID when they belong to the same basket. Optional monetary columns
// (profit, discount, refund) carry zero values when the source table did
// not include them; column presence is tracked at the table level so a
// missing column is never mistaken for a real zero observation.
type SaleRecord struct {
	Date     Date
	SaleID   string
	Location string
	Category string
	Product  string
	Supplier string
	Quantity int
	Revenue  float64
	Profit   float64
	Discount float64
	Refund   float64
}

// InventoryRecord is a point-in-time stock snapshot for one product at one
// location. There is no movement history behind it.
type InventoryRecord struct {
	Location   string
	Category   string
	Product    string
	StockLevel float64
	TradePrice float64
	RRP        float64
}
