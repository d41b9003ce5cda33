package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"retailsynth/pkg/domain"
)

// Artifact file names.
const (
	ProductsArtifact  = "productos.csv"
	StoresArtifact    = "tiendas.csv"
	InventoryArtifact = "inventarios.csv"
	ManifestArtifact  = "manifest.json"
	salesPrefix       = "ventas_"
)

// SalesArtifact returns the file name of a year's point-of-sale lines.
func SalesArtifact(year int) string { return fmt.Sprintf("%s%d.csv", salesPrefix, year) }

// IsArtifactName reports whether name is one of the files a run produces.
func IsArtifactName(name string) bool {
	switch name {
	case ProductsArtifact, StoresArtifact, InventoryArtifact, ManifestArtifact:
		return true
	}
	year, ok := strings.CutPrefix(name, salesPrefix)
	if !ok {
		return false
	}
	year, ok = strings.CutSuffix(year, ".csv")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(year)
	return err == nil
}

const dateLayout = time.DateOnly

var (
	productHeader = []string{"id_producto", "sku", "nombre_producto", "marca", "categoria", "subcategoria", "precio_sugerido"}
	storeHeader   = []string{"id_tienda", "codigo_tienda", "nombre_tienda", "cadena", "formato", "region", "ciudad", "estado", "superficie_m2", "fecha_apertura"}
	salesHeader   = []string{"id_producto", "id_tienda", "fecha", "hora", "ticket_id", "cantidad", "precio_unitario", "descuento_pct", "canal"}
	stockHeader   = []string{"id_producto", "id_tienda", "fecha", "stock_inicial", "stock_final", "entradas", "salidas", "costo_unitario"}
)

func productRecord(p domain.Product) []string {
	return []string{
		strconv.Itoa(p.ID),
		p.SKU,
		p.Name,
		p.Brand,
		string(p.Category),
		p.Subcategory,
		p.SuggestedPrice.StringFixed(2),
	}
}

func storeRecord(s domain.Store) []string {
	return []string{
		strconv.Itoa(s.ID),
		s.Code,
		s.Name,
		string(s.Chain),
		string(s.Format),
		string(s.Region),
		s.City,
		string(s.State),
		strconv.Itoa(s.AreaM2),
		s.OpenedOn.Format(dateLayout),
	}
}

// salesRecords flattens a transaction into one row per line item.
func salesRecords(txn domain.Transaction) [][]string {
	date := txn.Date.Format(dateLayout)
	hora := ClockTime(txn.Hour, txn.Minute)
	store := strconv.Itoa(txn.StoreID)
	out := make([][]string, 0, len(txn.Lines))
	for _, li := range txn.Lines {
		out = append(out, []string{
			strconv.Itoa(li.ProductID),
			store,
			date,
			hora,
			txn.TicketID,
			strconv.Itoa(li.Quantity),
			li.UnitPrice.StringFixed(2),
			strconv.Itoa(li.DiscountPct),
			string(li.Channel),
		})
	}
	return out
}

func stockRecord(s domain.InventorySnapshot) []string {
	return []string{
		strconv.Itoa(s.ProductID),
		strconv.Itoa(s.StoreID),
		s.Date.Format(dateLayout),
		strconv.Itoa(s.OpeningStock),
		strconv.Itoa(s.ClosingStock),
		strconv.Itoa(s.Incoming),
		strconv.Itoa(s.Outgoing),
		s.UnitCost.StringFixed(2),
	}
}

// ClockTime renders the hora column; seconds are always zero.
func ClockTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d:00", hour, minute)
}
