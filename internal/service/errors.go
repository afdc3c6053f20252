package service

import (
	"github.com/dukerupert/dokan/internal/domain"
)

// Catalog errors - use domain.ENOTFOUND
var (
	ErrProductNotFound = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrVariantNotFound = domain.Errorf(domain.ENOTFOUND, "", "This option is no longer available")
)

// Cart errors
var (
	ErrUnknownChoice = domain.Errorf(domain.EINVALID, "", "Please choose one of the offered options")
)

// Checkout errors
var (
	ErrUnknownPaymentMethod = domain.Errorf(domain.EINVALID, "", "Please choose an available payment method")
)
