package vending

import (
	"fmt"
	"strings"
)

// Product identifies an item the machine sells.
type Product string

const (
	// ProductNone is returned when a selection does not dispense anything.
	ProductNone Product = ""
	// ProductCola costs one dollar.
	ProductCola Product = "cola"
	// ProductChips costs fifty cents.
	ProductChips Product = "chips"
	// ProductCandy costs sixty-five cents.
	ProductCandy Product = "candy"
)

// DefaultStock is the number of units of each product a new machine starts with.
const DefaultStock = 42

var priceList = map[Product]int{
	ProductCola:  100,
	ProductChips: 50,
	ProductCandy: 65,
}

var products = []Product{ProductCola, ProductChips, ProductCandy}

// Price returns the fixed price of p in cents and whether p is sold at all.
func (p Product) Price() (int, bool) {
	price, ok := priceList[p]
	return price, ok
}

// Valid reports whether p is a sellable product.
func (p Product) Valid() bool {
	_, ok := priceList[p]
	return ok
}

func (p Product) String() string {
	if p == ProductNone {
		return "none"
	}

	return string(p)
}

// ParseProduct converts user input such as "Cola" into a Product.
func ParseProduct(raw string) (Product, error) {
	product := Product(strings.ToLower(strings.TrimSpace(raw)))
	if !product.Valid() {
		return ProductNone, fmt.Errorf("%w: %q", ErrInvalidProduct, raw)
	}

	return product, nil
}

// Products returns the sellable products in menu order.
func Products() []Product {
	return append([]Product(nil), products...)
}

// DefaultInventory returns a fresh inventory stocked with DefaultStock units of every product.
func DefaultInventory() map[Product]int {
	inventory := make(map[Product]int, len(products))
	for _, product := range products {
		inventory[product] = DefaultStock
	}

	return inventory
}
