// Package producttype decides what a product record is allowed to be. It never writes;
// the only store access is the parent and sibling reads the checks need.
package producttype

import (
	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
)

// Role is one row of the legality table.
type Role int

const (
	RoleInvalid Role = iota
	// RoleStandaloneBase is a catalog entry whose sizes/colors are options on a single stock.
	RoleStandaloneBase
	// RoleStandaloneVariant is materialized per (size, color) selection and carries no stock.
	RoleStandaloneVariant
	// RoleVariantBasedBase is a template that needs at least one variant to be sold.
	RoleVariantBasedBase
	// RoleVariantBasedVariant is an independently stocked SKU.
	RoleVariantBasedVariant
)

func (r Role) String() string {
	switch r {
	case RoleStandaloneBase:
		return "standalone base"
	case RoleStandaloneVariant:
		return "standalone variant"
	case RoleVariantBasedBase:
		return "variant-based base"
	case RoleVariantBasedVariant:
		return "variant-based variant"
	default:
		return "invalid"
	}
}

// Purchasable reports whether records playing this role can go into a cart.
func (r Role) Purchasable() bool {
	return r == RoleStandaloneVariant || r == RoleVariantBasedVariant
}

// Variant reports whether the role needs a parent.
func (r Role) Variant() bool {
	return r.Purchasable()
}

// Shape is the part of a record that decides its role.
type Shape struct {
	ProductType     models.ProductType
	RecordType      models.RecordType
	ParentProductID *string
}

// ShapeOf extracts the classification columns of p.
func ShapeOf(p *models.Product) Shape {
	return Shape{ProductType: p.ProductType, RecordType: p.RecordType, ParentProductID: p.ParentProductID}
}

func (s Shape) hasParent() bool {
	return s.ParentProductID != nil && *s.ParentProductID != ""
}

type legalRow struct {
	productType models.ProductType
	recordType  models.RecordType
	hasParent   bool
	role        Role
}

var legalityTable = []legalRow{
	{models.ProductTypeStandalone, models.RecordTypeBaseProduct, false, RoleStandaloneBase},
	{models.ProductTypeStandalone, models.RecordTypeVariant, true, RoleStandaloneVariant},
	{models.ProductTypeVariantBased, models.RecordTypeBaseProduct, false, RoleVariantBasedBase},
	{models.ProductTypeVariantBased, models.RecordTypeVariant, true, RoleVariantBasedVariant},
}

// Classify maps a shape onto its role and rejects combinations outside the table.
func Classify(s Shape) (Role, error) {
	if !s.ProductType.Valid() {
		return RoleInvalid, apperrors.InvalidOperation("Unknown productType %q", s.ProductType)
	}
	if !s.RecordType.Valid() {
		return RoleInvalid, apperrors.InvalidOperation("Unknown recordType %q", s.RecordType)
	}
	for _, row := range legalityTable {
		if row.productType == s.ProductType && row.recordType == s.RecordType && row.hasParent == s.hasParent() {
			return row.role, nil
		}
	}
	if s.RecordType == models.RecordTypeBaseProduct {
		return RoleInvalid, apperrors.InvalidOperation("Base product cannot have parentProductId")
	}
	return RoleInvalid, apperrors.InvalidOperation("Variant must have parentProductId")
}

// RoleOf classifies a stored record.
func RoleOf(p *models.Product) (Role, error) {
	return Classify(ShapeOf(p))
}

// IsPurchasable reports whether p may be added to a cart.
func IsPurchasable(p *models.Product) bool {
	return p.RecordType == models.RecordTypeVariant
}

// AssertPurchasable rejects base products with the corrective action for the caller.
func AssertPurchasable(p *models.Product) error {
	if !IsPurchasable(p) {
		return apperrors.InvalidOperation("Only variants can be added to cart. " +
			"For standalone products, select size (and color) to create a variant. " +
			"For variant-based products, select a specific variant.")
	}
	return nil
}
