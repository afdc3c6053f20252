package storefront

import (
	"net/http"
	"strings"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/service"
)

// ProductHandler serves the product listing and product pages.
type ProductHandler struct {
	site     *Site
	products service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(site *Site, products service.ProductService) *ProductHandler {
	return &ProductHandler{site: site, products: products}
}

// List handles GET / and GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := domain.ProductQuery{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}

	listing, err := h.products.ListProducts(r.Context(), q)
	if err != nil {
		h.site.renderError(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, listing)
		return
	}

	data := h.site.BaseTemplateData(w, r)
	data["Listing"] = listing
	h.site.Renderer.RenderHTTP(w, "products", data)
}

// Detail handles GET /products/{id}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.site.renderError(w, r, service.ErrProductNotFound)
		return
	}

	detail, err := h.products.GetProduct(r.Context(), id, r.URL.Query().Get("variant"))
	if err != nil {
		h.site.renderError(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, detail)
		return
	}

	data := h.site.BaseTemplateData(w, r)
	data["Product"] = detail
	h.site.Renderer.RenderHTTP(w, "product", data)
}
