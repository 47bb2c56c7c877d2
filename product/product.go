// Package product holds the product slice's value objects and aggregate.
// Construction is the single enforcement point for every invariant.
package product

import (
	"strings"

	"github.com/codecake/ecom-identity"
	"github.com/google/uuid"
)

const nameMinLength = 3

// CategoryName labels a product category. Non-blank, at least three runes.
type CategoryName struct {
	value string
}

// NewCategoryName validates and wraps a category name.
func NewCategoryName(value string) (CategoryName, error) {
	if err := checkLabel("category.name", value); err != nil {
		return CategoryName{}, err
	}
	return CategoryName{value: value}, nil
}

func (n CategoryName) String() string { return n.value }

// ProductBrand labels the brand. Same bounds as category names.
type ProductBrand struct {
	value string
}

// NewProductBrand validates and wraps a brand label.
func NewProductBrand(value string) (ProductBrand, error) {
	if err := checkLabel("product.brand", value); err != nil {
		return ProductBrand{}, err
	}
	return ProductBrand{value: value}, nil
}

func (b ProductBrand) String() string { return b.value }

// ProductName is the display name of a product.
type ProductName struct {
	value string
}

// NewProductName validates and wraps a product name.
func NewProductName(value string) (ProductName, error) {
	if err := checkLabel("product.name", value); err != nil {
		return ProductName{}, err
	}
	return ProductName{value: value}, nil
}

func (n ProductName) String() string { return n.value }

// ProductDescription is the long-form description.
type ProductDescription struct {
	value string
}

// NewProductDescription validates and wraps a description.
func NewProductDescription(value string) (ProductDescription, error) {
	if err := checkLabel("product.description", value); err != nil {
		return ProductDescription{}, err
	}
	return ProductDescription{value: value}, nil
}

func (d ProductDescription) String() string { return d.value }

// PriceMinimum is the smallest sellable price.
const PriceMinimum = 0.1

// ProductPrice is a strictly positive price with a floor.
type ProductPrice struct {
	value float64
}

// NewProductPrice validates and wraps a price.
func NewProductPrice(value float64) (ProductPrice, error) {
	if value < PriceMinimum {
		return ProductPrice{}, identity.NewOutOfRange("product.price", PriceMinimum)
	}
	return ProductPrice{value: value}, nil
}

func (p ProductPrice) Value() float64 { return p.value }

// ProductSize is the declared size label (e.g. "M", "42").
type ProductSize struct {
	value string
}

// NewProductSize validates and wraps a size label.
func NewProductSize(value string) (ProductSize, error) {
	if strings.TrimSpace(value) == "" {
		return ProductSize{}, identity.NewMissingField("product.size")
	}
	return ProductSize{value: value}, nil
}

func (s ProductSize) String() string { return s.value }

// ProductColor is the declared color label.
type ProductColor struct {
	value string
}

// NewProductColor validates and wraps a color label.
func NewProductColor(value string) (ProductColor, error) {
	if strings.TrimSpace(value) == "" {
		return ProductColor{}, identity.NewMissingField("product.color")
	}
	return ProductColor{value: value}, nil
}

func (c ProductColor) String() string { return c.value }

func checkLabel(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return identity.NewMissingField(field)
	}
	if len(value) < nameMinLength {
		return identity.NewTooShort(field, nameMinLength)
	}
	return nil
}

// Product is the aggregate root for a sellable item. All mandatory fields
// are validated once, at assembly.
type Product struct {
	Brand       ProductBrand
	Color       ProductColor
	Description ProductDescription
	Name        ProductName
	Price       ProductPrice
	Size        ProductSize
	Category    CategoryName
	Featured    bool
	NbInStock   int
	PublicID    uuid.UUID
}

// ProductConfig carries the named, optional fields a Product is assembled
// from. Validation happens once at the end of assembly.
type ProductConfig struct {
	Brand       string
	Color       string
	Description string
	Name        string
	Price       float64
	Size        string
	Category    string
	Featured    bool
	NbInStock   int
}

// NewProduct assembles and validates a product.
func NewProduct(cfg ProductConfig) (*Product, error) {
	brand, err := NewProductBrand(cfg.Brand)
	if err != nil {
		return nil, err
	}
	color, err := NewProductColor(cfg.Color)
	if err != nil {
		return nil, err
	}
	description, err := NewProductDescription(cfg.Description)
	if err != nil {
		return nil, err
	}
	name, err := NewProductName(cfg.Name)
	if err != nil {
		return nil, err
	}
	price, err := NewProductPrice(cfg.Price)
	if err != nil {
		return nil, err
	}
	size, err := NewProductSize(cfg.Size)
	if err != nil {
		return nil, err
	}
	category, err := NewCategoryName(cfg.Category)
	if err != nil {
		return nil, err
	}
	if cfg.NbInStock < 0 {
		return nil, identity.NewOutOfRange("product.nb_in_stock", 0)
	}

	return &Product{
		Brand:       brand,
		Color:       color,
		Description: description,
		Name:        name,
		Price:       price,
		Size:        size,
		Category:    category,
		Featured:    cfg.Featured,
		NbInStock:   cfg.NbInStock,
	}, nil
}

// InitDefaultFields mints the public id for a brand-new product. Caller
// contract: only for products that have never been persisted.
func (p *Product) InitDefaultFields() {
	p.PublicID = uuid.New()
}
