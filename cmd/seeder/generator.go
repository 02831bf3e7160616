package main

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

type product struct {
	name         string
	manufacturer string
	model        string
	minPrice     int
	maxPrice     int
}

// catalog lists the products generated per category
var catalog = map[string][]product{
	"Tools": {
		{"Cordless Drill", "DeWalt", "DCD771C2", 80, 160},
		{"Circular Saw", "Makita", "5007MG", 90, 180},
		{"Socket Set", "Craftsman", "CMMT99206", 40, 110},
		{"Stud Finder", "Zircon", "A200", 15, 40},
		{"Orbital Sander", "Bosch", "ROS20VSC", 50, 90},
		{"Bench Grinder", "WEN", "4276", 45, 80},
	},
	"Electronics": {
		{"Bluetooth Speaker", "JBL", "Flip 6", 70, 130},
		{"Mirrorless Camera", "Sony", "A6400", 700, 1000},
		{"Wireless Router", "Netgear", "RAX50", 120, 220},
		{"Tablet", "Apple", "MK2K3LL/A", 300, 500},
		{"Portable Monitor", "ASUS", "MB16AC", 150, 250},
	},
	"Kitchen": {
		{"Stand Mixer", "KitchenAid", "KSM150PS", 250, 430},
		{"Cast Iron Skillet", "Lodge", "L10SK3", 20, 45},
		{"Espresso Machine", "Breville", "BES870XL", 500, 700},
		{"Slow Cooker", "Crock-Pot", "SCV700SS", 30, 60},
	},
	"Outdoor": {
		{"Camping Tent", "Coleman", "2000027941", 80, 200},
		{"Leaf Blower", "Ryobi", "RY40440", 120, 220},
		{"Pressure Washer", "Sun Joe", "SPX3000", 140, 230},
		{"Kayak Paddle", "Bending Branches", "Angler Classic", 90, 170},
	},
	"Office": {
		{"Label Printer", "Brother", "QL-800", 80, 140},
		{"Desk Lamp", "BenQ", "e-Reading", 150, 230},
		{"Paper Shredder", "Fellowes", "79Ci", 200, 320},
	},
	"Holiday": {
		{"Christmas Lights", "GE", "Energy Smart", 15, 40},
		{"Artificial Tree", "National Tree", "PEDH4-307-75", 150, 400},
		{"Halloween Inflatable", "Gemmy", "36520", 30, 70},
	},
}

var locations = []string{"Garage", "Basement", "Attic", "Office", "Kitchen", "Hall Closet", "Shed"}

// LabelClassifier derives labels from product names and descriptions
type LabelClassifier struct {
	labelKeywords map[string][]string
}

func NewLabelClassifier() *LabelClassifier {
	return &LabelClassifier{
		labelKeywords: map[string][]string{
			"power":     {"cordless", "drill", "saw", "sander", "grinder", "blower", "washer"},
			"fragile":   {"camera", "tablet", "monitor", "lamp", "lights"},
			"seasonal":  {"christmas", "halloween", "tree", "inflatable", "tent"},
			"warranty":  {"espresso", "mixer", "router", "camera", "shredder"},
			"battery":   {"cordless", "speaker", "tablet", "blower"},
			"heavy":     {"skillet", "mixer", "washer", "grinder", "shredder"},
			"electric":  {"espresso", "cooker", "printer", "lamp", "router", "monitor"},
			"outdoor":   {"tent", "kayak", "leaf", "pressure"},
			"cookware":  {"skillet", "cooker", "mixer"},
			"woodwork":  {"saw", "sander", "stud"},
			"lendable":  {"drill", "tent", "washer", "kayak"},
			"decor":     {"lights", "tree", "inflatable", "lamp"},
			"wifi":      {"router", "tablet", "camera"},
			"bluetooth": {"speaker"},
		},
	}
}

// Classify returns the labels whose keywords appear in text, in sorted order
func (c *LabelClassifier) Classify(text string) []string {
	text = strings.ToLower(text)

	var labels []string
	for label, keywords := range c.labelKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				labels = append(labels, label)
				break
			}
		}
	}
	slices.Sort(labels)
	return labels
}

// Generator produces deterministic demo items for a seed
type Generator struct {
	rng        *rand.Rand
	classifier *LabelClassifier
	categories []string
}

func NewGenerator(seed uint64) *Generator {
	categories := make([]string, 0, len(catalog))
	for name := range catalog {
		categories = append(categories, name)
	}
	slices.Sort(categories)

	return &Generator{
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		classifier: NewLabelClassifier(),
		categories: categories,
	}
}

// Items generates count items with asset IDs starting after offset
func (g *Generator) Items(count, offset int) []domain.Item {
	items := make([]domain.Item, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, g.item(offset+i+1))
	}
	return items
}

func (g *Generator) item(seq int) domain.Item {
	category := g.categories[g.rng.IntN(len(g.categories))]
	products := catalog[category]
	p := products[g.rng.IntN(len(products))]

	description := fmt.Sprintf("%s %s in %s condition", p.manufacturer, strings.ToLower(p.name), g.condition())

	labels := []domain.Ref{}
	for _, name := range g.classifier.Classify(p.name + " " + description) {
		labels = append(labels, domain.Ref{Name: name})
	}

	cents := (p.minPrice + g.rng.IntN(p.maxPrice-p.minPrice+1)) * 100
	cents += g.rng.IntN(100)

	quantity := 1
	if g.rng.IntN(5) == 0 {
		quantity = 2 + g.rng.IntN(4)
	}

	return domain.Item{
		Name:          p.name,
		Description:   description,
		AssetID:       fmt.Sprintf("%03d-%03d", seq/1000, seq%1000),
		SerialNumber:  fmt.Sprintf("SN-%08X", g.rng.Uint32()),
		ModelNumber:   p.model,
		Manufacturer:  p.manufacturer,
		UPCCode:       g.upc(),
		Location:      &domain.Ref{Name: locations[g.rng.IntN(len(locations))]},
		Category:      &domain.Ref{Name: category},
		Labels:        labels,
		Quantity:      quantity,
		PurchasePrice: decimal.New(int64(cents), -2),
		IsArchived:    g.rng.IntN(20) == 0,
	}
}

func (g *Generator) condition() string {
	conditions := []string{"new", "excellent", "good", "used", "worn"}
	return conditions[g.rng.IntN(len(conditions))]
}

// upc builds a 12 digit UPC-A code with a valid check digit
func (g *Generator) upc() string {
	digits := make([]int, 11)
	sum := 0
	for i := range digits {
		digits[i] = g.rng.IntN(10)
		if i%2 == 0 {
			sum += digits[i] * 3
		} else {
			sum += digits[i]
		}
	}

	var b strings.Builder
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}
	b.WriteByte(byte('0' + (10-sum%10)%10))
	return b.String()
}
