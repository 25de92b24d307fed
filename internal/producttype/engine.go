package producttype

import (
	"context"
	"errors"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
)

// Reader is the slice of the Catalog Store the engine reads from.
type Reader interface {
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	CountVariants(ctx context.Context, parentID, excludeID string) (int64, error)
}

// Engine runs the checks that need parent or sibling state.
type Engine struct {
	r Reader
}

func NewEngine(r Reader) *Engine {
	return &Engine{r: r}
}

// WithReader returns an engine reading through r, typically a transaction-bound store.
func (e *Engine) WithReader(r Reader) *Engine {
	return &Engine{r: r}
}

// Defaults returns the shape of a product created without explicit types.
func Defaults() Shape {
	return Shape{ProductType: models.ProductTypeStandalone, RecordType: models.RecordTypeBaseProduct}
}

// ValidateStandaloneCreate accepts only STANDALONE base products without a parent.
// Empty types fall back to the defaults.
func ValidateStandaloneCreate(in Shape) error {
	if in.ProductType == "" {
		in.ProductType = models.ProductTypeStandalone
	}
	if in.RecordType == "" {
		in.RecordType = models.RecordTypeBaseProduct
	}
	if in.ProductType != models.ProductTypeStandalone {
		return apperrors.InvalidOperation("Standalone product must have productType STANDALONE")
	}
	if in.RecordType != models.RecordTypeBaseProduct {
		return apperrors.InvalidOperation("Standalone product must have recordType BASE_PRODUCT")
	}
	if in.hasParent() {
		return apperrors.InvalidOperation("Standalone product cannot have parentProductId")
	}
	return nil
}

// ValidateVariantBasedBaseCreate accepts only VARIANT_BASED base products without a parent.
func ValidateVariantBasedBaseCreate(in Shape) error {
	if in.ProductType != models.ProductTypeVariantBased {
		return apperrors.InvalidOperation("Variant-based base must have productType VARIANT_BASED")
	}
	if in.RecordType == "" {
		in.RecordType = models.RecordTypeBaseProduct
	}
	if in.RecordType != models.RecordTypeBaseProduct {
		return apperrors.InvalidOperation("Variant-based base product must have recordType BASE_PRODUCT")
	}
	if in.hasParent() {
		return apperrors.InvalidOperation("Base product cannot have parentProductId")
	}
	return nil
}

// ValidateBaseCreate dispatches on the requested product type.
func ValidateBaseCreate(in Shape) error {
	if in.ProductType == models.ProductTypeVariantBased {
		return ValidateVariantBasedBaseCreate(in)
	}
	return ValidateStandaloneCreate(in)
}

// ValidateVariantCreate checks an explicit VARIANT_BASED variant against its parent and
// returns the parent it was checked against.
func (e *Engine) ValidateVariantCreate(ctx context.Context, in Shape) (*models.Product, error) {
	if in.ProductType != models.ProductTypeVariantBased {
		return nil, apperrors.InvalidOperation("Variant record must belong to a VARIANT_BASED product")
	}
	if in.RecordType != models.RecordTypeVariant {
		return nil, apperrors.InvalidOperation("Variant record must have recordType VARIANT")
	}
	if !in.hasParent() {
		return nil, apperrors.InvalidOperation("Variant must have parentProductId")
	}

	parent, err := e.r.FindProductByID(ctx, *in.ParentProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Parent product with ID %s not found", *in.ParentProductID)
		}
		return nil, apperrors.Wrap("Failed to load parent product", err)
	}
	if parent.ProductType != models.ProductTypeVariantBased {
		return nil, apperrors.InvalidOperation("Parent product must be VARIANT_BASED to add variants")
	}
	if parent.RecordType != models.RecordTypeBaseProduct {
		return nil, apperrors.InvalidOperation("Parent product must be BASE_PRODUCT (cannot nest variants)")
	}
	return parent, nil
}

func (e *Engine) countVariants(ctx context.Context, parentID, excludeID string) (int64, error) {
	n, err := e.r.CountVariants(ctx, parentID, excludeID)
	if err != nil {
		return 0, apperrors.Wrap("Failed to count variants", err)
	}
	return n, nil
}

// AssertNoVariantsForStandalone fails with Conflict while productID still has variant children.
func (e *Engine) AssertNoVariantsForStandalone(ctx context.Context, productID string) error {
	n, err := e.countVariants(ctx, productID, "")
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.Conflict("Standalone products cannot have variant records. Remove variants or change product type.")
	}
	return nil
}

// AssertHasVariants fails while productID has no variant children.
func (e *Engine) AssertHasVariants(ctx context.Context, productID string) error {
	n, err := e.countVariants(ctx, productID, "")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.InvalidOperation("Variant-based product must have at least one variant before it can be used.")
	}
	return nil
}

// AssertNotLastVariant rejects removing v when it is the only variant of a VARIANT_BASED family.
// Other records pass.
func (e *Engine) AssertNotLastVariant(ctx context.Context, v *models.Product) error {
	if v.ProductType != models.ProductTypeVariantBased || v.ParentProductID == nil {
		return nil
	}
	n, err := e.countVariants(ctx, *v.ParentProductID, v.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.InvalidOperation("Cannot delete the last variant. Variant-based products must have at least one variant.")
	}
	return nil
}

// ValidateProductTypeConsistency re-checks a record whose productType or recordType is
// about to change. Switching a base between families requires it to have no variants,
// since the existing children would no longer match the parent's type.
func (e *Engine) ValidateProductTypeConsistency(ctx context.Context, productID string, newType models.ProductType, newRecord models.RecordType) error {
	if !newType.Valid() {
		return apperrors.InvalidOperation("Unknown productType %q", newType)
	}
	if !newRecord.Valid() {
		return apperrors.InvalidOperation("Unknown recordType %q", newRecord)
	}

	current, err := e.r.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Product with ID %s not found", productID)
		}
		return apperrors.Wrap("Failed to load product", err)
	}

	target := Shape{ProductType: newType, RecordType: newRecord, ParentProductID: current.ParentProductID}
	if _, err := Classify(target); err != nil {
		return err
	}

	switch {
	case newType == models.ProductTypeStandalone && newRecord == models.RecordTypeBaseProduct:
		if current.ProductType != models.ProductTypeStandalone {
			return e.AssertNoVariantsForStandalone(ctx, productID)
		}
	case newType == models.ProductTypeStandalone:
		return apperrors.InvalidOperation("Standalone variants are created from a size selection, not by update")
	case newRecord == models.RecordTypeBaseProduct:
		if current.ProductType != models.ProductTypeVariantBased {
			n, err := e.countVariants(ctx, productID, "")
			if err != nil {
				return err
			}
			if n > 0 {
				return apperrors.Conflict("Product still has standalone variants. Remove them before changing to VARIANT_BASED.")
			}
		}
	default:
		_, err := e.ValidateVariantCreate(ctx, target)
		return err
	}
	return nil
}
