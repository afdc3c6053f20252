package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/pricing"
	"github.com/dukerupert/dokan/internal/telemetry"
)

const (
	defaultPageSize = 12
	maxPageSize     = 48
)

// ProductService provides catalog browsing with resolved prices.
type ProductService interface {
	ListProducts(ctx context.Context, q domain.ProductQuery) (*ProductListing, error)
	GetProduct(ctx context.Context, productID, variantID string) (*ProductDetail, error)
	GetBusiness(ctx context.Context) (domain.Business, error)
}

// ProductCard is a product with the price of its default variant.
type ProductCard struct {
	domain.Product
	SelectedVariant *domain.Variant
	Pricing         domain.Pricing
	PreOrder        bool
	InStock         bool
}

// ProductListing is one page of product cards.
type ProductListing struct {
	Products   []ProductCard
	Query      domain.ProductQuery
	Page       int
	TotalPages int
	Total      int
	Categories []domain.Category
}

// HasNext reports whether another page follows.
func (l *ProductListing) HasNext() bool {
	return l.Page < l.TotalPages
}

// VariantOption is one selectable variant on the product page.
type VariantOption struct {
	domain.Variant
	Pricing  domain.Pricing
	PreOrder bool
	InStock  bool
	Selected bool
}

// ProductDetail is a product page: the card for the selected variant plus
// every option.
type ProductDetail struct {
	ProductCard
	Options []VariantOption
}

type productService struct {
	backend  Backend
	resolver *pricing.Resolver
	logger   *slog.Logger
}

// NewProductService creates a new ProductService instance
func NewProductService(backend Backend, resolver *pricing.Resolver, logger *slog.Logger) ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &productService{backend: backend, resolver: resolver, logger: logger}
}

// ListProducts normalizes the query, fetches a page and prices every product.
// Categories come from the business settings; failing to load them only
// hides the category filter.
func (s *productService) ListProducts(ctx context.Context, q domain.ProductQuery) (*ProductListing, error) {
	q = normalizeQuery(q)

	page, err := s.backend.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}

	listing := &ProductListing{
		Products:   make([]ProductCard, 0, len(page.Products)),
		Query:      q,
		Page:       max(page.Page, q.Page),
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for _, p := range page.Products {
		if !p.IsPublish {
			continue
		}
		listing.Products = append(listing.Products, s.card(p, nil))
	}

	if b, err := s.backend.GetBusiness(ctx); err != nil {
		s.logger.Warn("failed to load categories", "error", err)
	} else {
		listing.Categories = b.Categories
	}

	telemetry.Business.RecordProductView("list")
	return listing, nil
}

// GetProduct loads one product. An empty variantID selects the first
// variant in stock.
func (s *productService) GetProduct(ctx context.Context, productID, variantID string) (*ProductDetail, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ErrProductNotFound
	}

	p, err := s.backend.GetProduct(ctx, productID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.IsPublish {
		return nil, ErrProductNotFound
	}

	var selected *domain.Variant
	if variantID != "" {
		v, ok := p.Variant(variantID)
		if !ok {
			return nil, ErrVariantNotFound
		}
		selected = v
	}

	detail := &ProductDetail{ProductCard: s.card(p, selected)}
	for i := range p.Variants {
		v := &p.Variants[i]
		detail.Options = append(detail.Options, VariantOption{
			Variant:  *v,
			Pricing:  s.resolver.Resolve(p, v),
			PreOrder: pricing.IsPreOrder(p, v),
			InStock:  pricing.CheckAvailability(p, v) == nil,
			Selected: detail.SelectedVariant != nil && detail.SelectedVariant.ID == v.ID,
		})
	}

	telemetry.Business.RecordProductView("detail")
	return detail, nil
}

func (s *productService) GetBusiness(ctx context.Context) (domain.Business, error) {
	return s.backend.GetBusiness(ctx)
}

func (s *productService) card(p domain.Product, v *domain.Variant) ProductCard {
	v = pricing.SelectVariant(p, v)
	return ProductCard{
		Product:         p,
		SelectedVariant: v,
		Pricing:         s.resolver.Resolve(p, v),
		PreOrder:        pricing.IsPreOrder(p, v),
		InStock:         pricing.CheckAvailability(p, v) == nil,
	}
}

func normalizeQuery(q domain.ProductQuery) domain.ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	return q
}
