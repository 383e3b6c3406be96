package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thomas/eva-cart-go/internal/cart"
	"github.com/thomas/eva-cart-go/internal/catalog"
	"github.com/thomas/eva-cart-go/internal/session"
)

func (m Model) loadProducts() tea.Cmd {
	params := catalog.ListParams{
		Page:        m.currentPage,
		PerPage:     m.perPage,
		Search:      m.searchInput.Value(),
		InStockOnly: m.inStockOnly,
	}

	return func() tea.Msg {
		products, err := m.catalog.GetProducts(m.ctx, params)
		if err != nil {
			return errMsg{err: fmt.Errorf("loading products: %w", err)}
		}
		return productsLoadedMsg{products: products}
	}
}

func (m Model) loadProduct(id int) tea.Cmd {
	return func() tea.Msg {
		p, err := m.catalog.GetProduct(m.ctx, id)
		if err != nil {
			return errMsg{err: fmt.Errorf("loading product: %w", err)}
		}
		return productLoadedMsg{product: p}
	}
}

// waitForEvent blocks until the session reports a change or the model's
// context ends, in which case it yields no message.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	done := m.ctx.Done()
	return func() tea.Msg {
		select {
		case ev := <-events:
			return sessionEventMsg{event: ev}
		case <-done:
			return nil
		}
	}
}

// submitAddForm adds the configured product. The session opens the drawer.
func (m Model) submitAddForm() tea.Cmd {
	if m.selectedProduct == nil || m.addChoice == nil {
		return nil
	}
	p := *m.selectedProduct
	qty, err := parseQuantity(m.addChoice.Quantity)
	if err != nil {
		return func() tea.Msg { return errMsg{err: err} }
	}

	var variant *catalog.Variant
	if p.HasVariants() {
		v, ok := p.Variant(m.addChoice.VariantID)
		if !ok {
			return nil
		}
		variant = &v
	}
	product := p.CartProduct(variant)

	sess := m.session
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sess.AddItem(ctx, product, qty)
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap}
	}
}

// quickAdd adds one unit without opening the drawer.
func (m Model) quickAdd(p catalog.Product) tea.Cmd {
	product := p.CartProduct(nil)
	sess := m.session
	ctx := m.ctx
	_, locale := sess.Region()

	return func() tea.Msg {
		var notice string
		snap, err := sess.AddItem(ctx, product, 1, session.WithCompletion(func(s cart.Snapshot) {
			it, _ := s.Item(product.Key())
			notice = fmt.Sprintf("Added %s • %d in cart", it.DisplayName(locale), s.ItemCount)
		}))
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap, notice: notice}
	}
}

func (m Model) updateQuantity(key string, qty int) tea.Cmd {
	sess := m.session
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sess.UpdateQuantity(ctx, key, qty)
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap}
	}
}

func (m Model) removeItem(key string) tea.Cmd {
	sess := m.session
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sess.RemoveItem(ctx, key)
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap}
	}
}

func (m Model) clearCart() tea.Cmd {
	sess := m.session
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sess.ClearCart(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap, notice: "Cart cleared"}
	}
}

func (m Model) reloadCart() tea.Cmd {
	sess := m.session
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sess.Reload(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return cartUpdatedMsg{snapshot: snap}
	}
}
