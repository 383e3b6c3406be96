package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thomas/eva-cart-go/internal/cart"
)

// View renders the current view.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string

	switch m.viewState {
	case ViewProductList:
		content = m.viewProductList()
	case ViewProductDetails:
		content = m.viewProductDetails()
	case ViewAddToCart:
		content = m.viewAddToCart()
	case ViewCart:
		content = m.viewCart()
	case ViewRegion:
		content = m.viewRegion()
	}

	return m.styles.App.Render(content)
}

func (m Model) viewProductList() string {
	var sb strings.Builder

	header := m.styles.HeaderTitle.Render("Eva Coffee")
	if m.inStockOnly {
		header += m.styles.Highlight.Render(" [In Stock Only]")
	}
	header += "  " + m.regionLabel()
	sb.WriteString(m.styles.Header.Render(header))
	sb.WriteString("\n")

	if m.showSearch {
		sb.WriteString("Search: ")
		sb.WriteString(m.searchInput.View())
		sb.WriteString("\n\n")
	}

	switch {
	case m.loadingProducts:
		sb.WriteString(m.listSpinner.View())
		sb.WriteString(" Loading products...")
	case m.err != nil:
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
	default:
		sb.WriteString(m.productList.View())
	}

	if m.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Success.Render(m.notice))
	}

	cartInfo := ""
	if m.snapshot.ItemCount > 0 {
		cartInfo = fmt.Sprintf(" • cart: %d (%s)", m.snapshot.ItemCount, m.snapshot.Format(m.snapshot.TotalPrice))
	}
	help := "/ search • f in-stock • r refresh • enter details • a quick add • c cart • g region • q quit" + cartInfo
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render(help))

	return sb.String()
}

func (m Model) viewProductDetails() string {
	if m.selectedProduct == nil {
		return "No product selected"
	}

	var sb strings.Builder
	p := m.selectedProduct
	_, locale := m.session.Region()

	sb.WriteString(m.styles.ProductName.Render(cart.Localized(p.LocalizedNames, locale, p.Name)))
	sb.WriteString("\n\n")

	preview := m.session.Preview(p.CartProduct(nil))
	sb.WriteString(m.styles.ProductPrice.Render(m.snapshot.Format(preview.Price)))
	sb.WriteString(" ")
	sb.WriteString(m.styles.OriginalPrice.Render(m.snapshot.Format(preview.OriginalPrice)))
	sb.WriteString("\n")

	if p.IsInStock() {
		sb.WriteString(m.styles.InStock.Render("✓ In Stock"))
	} else {
		sb.WriteString(m.styles.OutOfStock.Render("✗ Out of Stock"))
	}
	sb.WriteString("\n")

	if desc := StripHTML(p.Description); desc != "" {
		sb.WriteString(m.styles.ProductDescription.Render(desc))
		sb.WriteString("\n")
	}

	if p.HasVariants() {
		sb.WriteString(m.styles.Subtle.Render("Options:"))
		sb.WriteString("\n")
		for _, v := range p.Variants {
			it := m.session.Preview(p.CartProduct(&v))
			line := fmt.Sprintf("  • %s  %s", v.Name, m.snapshot.Format(it.Price))
			if !v.IsInStock() {
				line += m.styles.OutOfStock.Render("  sold out")
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if m.loadingProduct {
		sb.WriteString("\n")
		sb.WriteString(m.listSpinner.View())
		sb.WriteString(" Refreshing...")
	}
	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	helpText := "esc back • c cart"
	if p.IsInStock() {
		helpText = "enter add to cart • " + helpText
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render(helpText))

	return m.styles.Box.Render(sb.String())
}

func (m Model) viewAddToCart() string {
	if m.selectedProduct == nil {
		return "No product selected"
	}

	var sb strings.Builder
	sb.WriteString(m.styles.ProductName.Render(fmt.Sprintf("Add %s", m.selectedProduct.Name)))
	sb.WriteString("\n\n")
	if m.addForm != nil {
		sb.WriteString(m.addForm.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("esc back • tab next • enter confirm"))

	return m.styles.Box.Render(sb.String())
}

func (m Model) viewCart() string {
	var sb strings.Builder
	snap := m.snapshot
	locale := snap.Locale

	sb.WriteString(m.styles.DrawerTitle.Render(fmt.Sprintf("Your Cart (%d)", snap.ItemCount)))
	sb.WriteString("  ")
	sb.WriteString(m.regionLabel())
	sb.WriteString("\n")

	if snap.IsEmpty() {
		sb.WriteString(m.styles.Subtle.Render("Your cart is empty"))
		sb.WriteString("\n")
		if m.notice != "" {
			sb.WriteString(m.styles.Success.Render(m.notice))
			sb.WriteString("\n")
		}
		sb.WriteString(m.styles.HelpBar.Render("g region • esc close"))
		return m.styles.Drawer.Render(sb.String())
	}

	nameWidth := 28
	if m.width > 0 {
		nameWidth = min(max(m.width-50, 12), 48)
	}

	for i, it := range snap.Items {
		prefix := "  "
		if i == m.selectedIdx {
			prefix = "▸ "
		}
		name := truncate(it.ShortTitle(locale), nameWidth)
		line := fmt.Sprintf("%s%-*s  %s  x%d  = %s",
			prefix, nameWidth, name,
			snap.Format(it.Price), it.Quantity, snap.Format(it.LineTotal()))
		if i == m.selectedIdx {
			line = m.styles.LineSelected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Total.Render("Total: " + snap.Format(snap.TotalPrice)))
	if snap.OriginalTotalPrice > snap.TotalPrice {
		sb.WriteString("  ")
		sb.WriteString(m.styles.OriginalPrice.Render(snap.Format(snap.OriginalTotalPrice)))
		sb.WriteString("\n")
		sb.WriteString(m.styles.Savings.Render("You save " + snap.Format(snap.Savings())))
	}
	sb.WriteString("\n")

	if snap.RateFallback {
		sb.WriteString(m.styles.Warning.Render(fmt.Sprintf("No exchange rate for %s, prices shown in USD", snap.Currency.Code)))
		sb.WriteString("\n")
	}

	if gift := m.viewGiftProgress(); gift != "" {
		sb.WriteString(m.styles.Gift.Render(gift))
		sb.WriteString("\n")
	}

	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}
	if m.notice != "" {
		sb.WriteString(m.styles.Success.Render(m.notice))
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.HelpBar.Render("↑/↓ select • +/- quantity • d delete • x clear • r reload • g region • esc close"))

	return m.styles.Drawer.Render(sb.String())
}

func (m Model) viewGiftProgress() string {
	gp := m.snapshot.GiftProgress
	snap := m.snapshot
	var lines []string

	if gp.CurrentTier != nil {
		gift := "Free gift: " + gp.CurrentTier.Name
		if gp.LocalizedCurrentGiftValue != nil {
			gift += fmt.Sprintf(" (worth %s)", snap.Format(*gp.LocalizedCurrentGiftValue))
		}
		lines = append(lines, m.styles.Success.Render(gift))
	}

	switch {
	case gp.IsFinalTierUnlocked:
		lines = append(lines, m.styles.Highlight.Render("Every gift unlocked!"))
	case gp.NextTier != nil:
		next := gp.NextTier.Name
		if gp.LocalizedNextGiftValue != nil {
			next += fmt.Sprintf(" (worth %s)", snap.Format(*gp.LocalizedNextGiftValue))
		}
		if gp.LocalizedAmountNeededForNextTier != nil {
			lines = append(lines, fmt.Sprintf("Spend %s more to unlock %s",
				snap.Format(*gp.LocalizedAmountNeededForNextTier), next))
		}
	default:
		return ""
	}

	lines = append(lines, m.giftBar.ViewAs(gp.ProgressPercentage/100))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewRegion() string {
	var sb strings.Builder
	sb.WriteString(m.styles.ProductName.Render("Region"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Subtle.Render("Prices follow the shipping country's currency."))
	sb.WriteString("\n\n")
	if m.regionForm != nil {
		sb.WriteString(m.regionForm.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("esc cancel • tab next • enter confirm"))
	return m.styles.Box.Render(sb.String())
}

func (m Model) regionLabel() string {
	snap := m.snapshot
	return m.styles.Region.Render(fmt.Sprintf("%s · %s · %s", snap.Country, snap.Currency.Code, snap.Locale))
}
