package model

// 在庫の現在値とバージョンの組（readStockの戻り値）
type StockLevel struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	Version     int64
}

// 在庫が足りるか
func (s StockLevel) Covers(qty int64) bool {
	return qty <= s.Quantity
}
