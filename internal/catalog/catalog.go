// Package catalog is the workshop's static price list: product type name
// to estimated price range. Pure lookup, no storage behind it.
package catalog

// PriceInfo holds the estimated range for a product type. Min == Max for
// fixed-price items; RangeLabel is the display string shown to clients.
type PriceInfo struct {
	RangeLabel string  `json:"range"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// ProductType pairs a catalog key with its price info, for choice lists.
type ProductType struct {
	Name string `json:"name"`
	PriceInfo
}

var productPrices = map[string]PriceInfo{
	"настенные часы":              {RangeLabel: "165-495 BYN", Min: 165, Max: 495},
	"каминные часы":               {RangeLabel: "1 320 BYN", Min: 1320, Max: 1320},
	"песочные часы":               {RangeLabel: "100-950 BYN", Min: 100, Max: 950},
	"настольные часы":             {RangeLabel: "85-200 BYN", Min: 85, Max: 200},
	"письменный набор":            {RangeLabel: "115-990 BYN", Min: 115, Max: 990},
	"метеостанция":                {RangeLabel: "165-420 BYN", Min: 165, Max: 420},
	"поддон для бумаг":            {RangeLabel: "99-230 BYN", Min: 99, Max: 230},
	"карандашница":                {RangeLabel: "66 BYN", Min: 66, Max: 66},
	"флагшток":                    {RangeLabel: "45-75 BYN", Min: 45, Max: 75},
	"вечный календарь":            {RangeLabel: "200 BYN", Min: 200, Max: 200},
	"подставка под календарь":     {RangeLabel: "66 BYN", Min: 66, Max: 66},
	"бювар":                       {RangeLabel: "130-400 BYN", Min: 130, Max: 400},
	"плакетки (наградные доски)":  {RangeLabel: "65-330 BYN", Min: 65, Max: 330},
	"настенные панно":             {RangeLabel: "85-990 BYN", Min: 85, Max: 990},
	"ключницы":                    {RangeLabel: "150-165 BYN", Min: 150, Max: 165},
	"икона":                       {RangeLabel: "400-600 BYN", Min: 400, Max: 600},
	"сувенирная упаковка":         {RangeLabel: "60-220 BYN", Min: 60, Max: 220},
}

// productOrder keeps List deterministic for choice lists and CSV exports.
var productOrder = []string{
	"настенные часы",
	"каминные часы",
	"песочные часы",
	"настольные часы",
	"письменный набор",
	"метеостанция",
	"поддон для бумаг",
	"карандашница",
	"флагшток",
	"вечный календарь",
	"подставка под календарь",
	"бювар",
	"плакетки (наградные доски)",
	"настенные панно",
	"ключницы",
	"икона",
	"сувенирная упаковка",
}

// Lookup resolves a product type to its price info. An unknown type is not
// an error: the order simply carries no derived pricing.
func Lookup(productType string) (PriceInfo, bool) {
	info, ok := productPrices[productType]
	return info, ok
}

// List returns every product type with its price range, in catalog order.
func List() []ProductType {
	out := make([]ProductType, 0, len(productOrder))
	for _, name := range productOrder {
		out = append(out, ProductType{Name: name, PriceInfo: productPrices[name]})
	}
	return out
}
