// Package domain defines the retail entities, closed enumerations and error
// conditions shared by the generation engine and its sinks.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of product categories.
type Category string

// Product categories.
const (
	CategoryLacteos   Category = "Lacteos"
	CategoryBebidas   Category = "Bebidas"
	CategorySnacks    Category = "Snacks"
	CategoryPan       Category = "Pan"
	CategoryVerduras  Category = "Verduras"
	CategoryHigiene   Category = "Higiene"
	CategoryCarnes    Category = "Carnes"
	CategoryAbarrotes Category = "Abarrotes"
)

// Categories lists every category in catalog enumeration order.
var Categories = []Category{
	CategoryLacteos,
	CategoryBebidas,
	CategorySnacks,
	CategoryPan,
	CategoryVerduras,
	CategoryHigiene,
	CategoryCarnes,
	CategoryAbarrotes,
}

// Format is the closed set of store formats.
type Format string

// Store formats.
const (
	FormatSuper       Format = "Super"
	FormatExpress     Format = "Express"
	FormatHiper       Format = "Hiper"
	FormatConvenience Format = "Convenience"
)

// Formats lists every store format.
var Formats = []Format{FormatSuper, FormatExpress, FormatHiper, FormatConvenience}

// Region is the closed set of sales regions.
type Region string

// Sales regions.
const (
	RegionNorte  Region = "Norte"
	RegionSur    Region = "Sur"
	RegionCentro Region = "Centro"
	RegionEste   Region = "Este"
	RegionOeste  Region = "Oeste"
	RegionBajio  Region = "Bajío"
)

// Regions lists every region.
var Regions = []Region{RegionNorte, RegionSur, RegionCentro, RegionEste, RegionOeste, RegionBajio}

// Chain identifies the retail chain operating a store.
type Chain string

// Retail chains.
const (
	ChainSuperMax    Chain = "SuperMax"
	ChainMercadoPlus Chain = "MercadoPlus"
	ChainTiendaFresh Chain = "TiendaFresh"
	ChainCompraFacil Chain = "CompraFácil"
)

// Chains lists every chain.
var Chains = []Chain{ChainSuperMax, ChainMercadoPlus, ChainTiendaFresh, ChainCompraFacil}

// State is the closed set of states stores are located in.
type State string

// States.
const (
	StateCDMX       State = "CDMX"
	StateJalisco    State = "Jalisco"
	StateNuevoLeon  State = "Nuevo León"
	StatePuebla     State = "Puebla"
	StateVeracruz   State = "Veracruz"
	StateGuanajuato State = "Guanajuato"
	StateMichoacan  State = "Michoacán"
)

// States lists every state.
var States = []State{StateCDMX, StateJalisco, StateNuevoLeon, StatePuebla, StateVeracruz, StateGuanajuato, StateMichoacan}

// Channel is the sales channel of a line item.
type Channel string

// Sales channels.
const (
	ChannelInStore Channel = "in-store"
	ChannelOnline  Channel = "online"
	ChannelMobile  Channel = "mobile"
)

// Channels lists every channel in weight-table order.
var Channels = []Channel{ChannelInStore, ChannelOnline, ChannelMobile}

// DiscountTiers are the non-zero discount percentages a line item may carry.
var DiscountTiers = []int{5, 10, 15, 20, 25}

// MaxNameLength bounds Product.Name.
const MaxNameLength = 200

// Product is an immutable catalog entry.
type Product struct {
	ID             int             `json:"id_producto"`
	SKU            string          `json:"sku"`
	Name           string          `json:"nombre_producto"`
	Brand          string          `json:"marca"`
	Category       Category        `json:"categoria"`
	Subcategory    string          `json:"subcategoria"`
	SuggestedPrice decimal.Decimal `json:"precio_sugerido"`
}

// Store is an immutable point of sale.
type Store struct {
	ID       int       `json:"id_tienda"`
	Code     string    `json:"codigo_tienda"`
	Name     string    `json:"nombre_tienda"`
	Chain    Chain     `json:"cadena"`
	Format   Format    `json:"formato"`
	Region   Region    `json:"region"`
	City     string    `json:"ciudad"`
	State    State     `json:"estado"`
	AreaM2   int       `json:"superficie_m2"`
	OpenedOn time.Time `json:"fecha_apertura"`
}

// LineItem is one product entry within a transaction.
type LineItem struct {
	ProductID   int             `json:"id_producto"`
	Quantity    int             `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	DiscountPct int             `json:"descuento_pct"`
	Channel     Channel         `json:"canal"`
}

// Transaction groups the line items of a single ticket.
type Transaction struct {
	TicketID string     `json:"ticket_id"`
	StoreID  int        `json:"id_tienda"`
	Date     time.Time  `json:"fecha"`
	Hour     int        `json:"hour"`
	Minute   int        `json:"minute"`
	Lines    []LineItem `json:"lines"`
}

// Year returns the calendar year the transaction belongs to.
func (t Transaction) Year() int { return t.Date.Year() }

// InventorySnapshot records the monthly stock flow of a product in a store.
type InventorySnapshot struct {
	ProductID    int             `json:"id_producto"`
	StoreID      int             `json:"id_tienda"`
	Date         time.Time       `json:"fecha"`
	OpeningStock int             `json:"stock_inicial"`
	ClosingStock int             `json:"stock_final"`
	Incoming     int             `json:"entradas"`
	Outgoing     int             `json:"salidas"`
	UnitCost     decimal.Decimal `json:"costo_unitario"`
}

// ClosingStockFor applies the stock flow balance, clamped at zero.
func ClosingStockFor(opening, incoming, outgoing int) int {
	return max(0, opening+incoming-outgoing)
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
