package storefront

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/cart"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/service"
)

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	site  *Site
	carts service.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(site *Site, carts service.CartService) *CartHandler {
	return &CartHandler{site: site, carts: carts}
}

// cartResponse is the JSON shape of a cart.
type cartResponse struct {
	Mode      cart.Mode         `json:"mode"`
	Items     []domain.LineItem `json:"items"`
	Preorder  *domain.LineItem  `json:"preorder,omitempty"`
	ItemCount int               `json:"itemCount"`
	Units     int               `json:"units"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Discount  decimal.Decimal   `json:"discount"`
	Total     decimal.Decimal   `json:"total"`
	Currency  string            `json:"currency,omitempty"`
	Pending   *cart.Pending     `json:"pending,omitempty"`
	Conflict  *conflictResponse `json:"conflict,omitempty"`
}

type conflictResponse struct {
	Blocking cart.Mode     `json:"blocking"`
	Choices  []cart.Choice `json:"choices"`
	Message  string        `json:"message"`
}

type addResponse struct {
	OK       bool              `json:"ok"`
	Mode     cart.Mode         `json:"mode"`
	Item     domain.LineItem   `json:"item"`
	Conflict *conflictResponse `json:"conflict,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Cart     cartResponse      `json:"cart"`
}

func newConflictResponse(c *cart.Conflict) *conflictResponse {
	if c == nil {
		return nil
	}
	return &conflictResponse{Blocking: c.Blocking, Choices: c.Choices, Message: c.Message}
}

func newCartResponse(v *service.CartView) cartResponse {
	if v == nil {
		return cartResponse{Items: []domain.LineItem{}}
	}
	items := v.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartResponse{
		Mode:      v.Mode,
		Items:     items,
		Preorder:  v.Preorder,
		ItemCount: v.ItemCount,
		Units:     v.Units,
		Subtotal:  v.Subtotal,
		Discount:  v.Discount,
		Total:     v.Total,
		Currency:  v.Currency,
		Pending:   v.Pending,
		Conflict:  newConflictResponse(v.Conflict),
	}
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), sessionID(r))
	if err != nil {
		h.site.renderError(w, r, err)
		return
	}
	h.renderCart(w, r, http.StatusOK, view)
}

func (h *CartHandler) renderCart(w http.ResponseWriter, r *http.Request, status int, view *service.CartView) {
	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, status, newCartResponse(view))
		return
	}
	data := h.site.BaseTemplateData(w, r)
	data["Cart"] = view
	h.site.Renderer.RenderStatus(w, status, "cart", data)
}

// Add handles POST /cart/add
//
// A regular item lands in the cart and the cart opens. A preorder goes
// straight to checkout. An add that would mix the two carts is answered with
// 409 and the conflict prompt; the rejected add waits in the session until
// the shopper picks a choice at POST /cart/resolve.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("cart.add", "Invalid form data"), backTo(r, "/products"))
		return
	}

	quantity, err := parseQuantity(r.FormValue("quantity"), 1)
	if err != nil {
		h.site.fail(w, r, err, backTo(r, "/products"))
		return
	}

	params := service.AddItemParams{
		ProductID: r.FormValue("product_id"),
		VariantID: r.FormValue("variant_id"),
		Quantity:  quantity,
	}
	if params.ProductID == "" {
		h.site.fail(w, r, service.ErrProductNotFound, backTo(r, "/products"))
		return
	}

	res, err := h.carts.AddItem(r.Context(), sessionID(r), params)
	if err != nil {
		h.site.fail(w, r, err, backTo(r, "/products"))
		return
	}

	h.respondAdd(w, r, res)
}

// Resolve handles POST /cart/resolve
func (h *CartHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("cart.resolve", "Invalid form data"), "/cart")
		return
	}

	choice := cart.Choice(r.FormValue("choice"))
	res, err := h.carts.ResolveConflict(r.Context(), sessionID(r), choice)
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}

	if choice == cart.ChoiceCheckout {
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, http.StatusOK, addResponse{
				Mode:     res.Mode,
				Item:     res.Item,
				Redirect: "/checkout",
				Cart:     newCartResponse(res.Cart),
			})
			return
		}
		redirect(w, r, "/checkout")
		return
	}

	h.respondAdd(w, r, res)
}

func (h *CartHandler) respondAdd(w http.ResponseWriter, r *http.Request, res *service.AddItemResult) {
	if !res.OK {
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, http.StatusConflict, addResponse{
				Mode:     res.Mode,
				Item:     res.Item,
				Conflict: newConflictResponse(res.Conflict),
				Cart:     newCartResponse(res.Cart),
			})
			return
		}
		h.renderCart(w, r, http.StatusConflict, res.Cart)
		return
	}

	next := "/cart"
	msg := res.Item.Name + " was added to your cart."
	if res.Mode == cart.ModePreorder {
		next = "/checkout"
		msg = res.Item.Name + " is reserved for pre-order. Complete it below."
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, addResponse{
			OK:       true,
			Mode:     res.Mode,
			Item:     res.Item,
			Redirect: next,
			Cart:     newCartResponse(res.Cart),
		})
		return
	}
	h.site.Cookies.SetFlash(w, msg)
	redirect(w, r, next)
}

// Update handles POST /cart/update. A quantity below 1 removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("cart.update", "Invalid form data"), "/cart")
		return
	}

	quantity, err := parseQuantity(r.FormValue("quantity"), 1)
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}

	view, err := h.carts.UpdateItemQuantity(r.Context(), sessionID(r), r.FormValue("product_id"), r.FormValue("variant_id"), quantity)
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}
	h.afterMutation(w, r, view, "")
}

// Remove handles POST /cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("cart.remove", "Invalid form data"), "/cart")
		return
	}

	view, err := h.carts.RemoveItem(r.Context(), sessionID(r), r.FormValue("product_id"), r.FormValue("variant_id"))
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}
	h.afterMutation(w, r, view, "Item removed.")
}

// Clear handles POST /cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), sessionID(r)); err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}
	h.afterClear(w, r, "Your cart was cleared.")
}

// UpdatePreorder handles POST /preorder/update
func (h *CartHandler) UpdatePreorder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("preorder.update", "Invalid form data"), "/cart")
		return
	}

	quantity, err := parseQuantity(r.FormValue("quantity"), 1)
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}

	view, err := h.carts.UpdatePreorderQuantity(r.Context(), sessionID(r), quantity)
	if err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}
	h.afterMutation(w, r, view, "")
}

// ClearPreorder handles POST /preorder/clear
func (h *CartHandler) ClearPreorder(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearPreorder(r.Context(), sessionID(r)); err != nil {
		h.site.fail(w, r, err, "/cart")
		return
	}
	h.afterClear(w, r, "Your pre-order was removed.")
}

func (h *CartHandler) afterMutation(w http.ResponseWriter, r *http.Request, view *service.CartView, flash string) {
	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, newCartResponse(view))
		return
	}
	if flash != "" {
		h.site.Cookies.SetFlash(w, flash)
	}
	redirect(w, r, "/cart")
}

func (h *CartHandler) afterClear(w http.ResponseWriter, r *http.Request, flash string) {
	if handler.AcceptsJSON(r) {
		view, err := h.carts.GetCart(r.Context(), sessionID(r))
		if err != nil {
			h.site.renderError(w, r, err)
			return
		}
		handler.WriteJSON(w, http.StatusOK, newCartResponse(view))
		return
	}
	h.site.Cookies.SetFlash(w, flash)
	redirect(w, r, backTo(r, "/cart"))
}
