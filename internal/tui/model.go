package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/thomas/eva-cart-go/internal/cart"
	"github.com/thomas/eva-cart-go/internal/catalog"
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/session"
)

// ViewState represents the current view in the application.
type ViewState int

const (
	ViewProductList ViewState = iota
	ViewProductDetails
	ViewAddToCart
	ViewCart
	ViewRegion
)

const maxQuantity = 99

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Dependencies
	ctx       context.Context
	catalog   *catalog.Client
	session   *session.Session
	countries []string
	events    chan session.Event

	unsubscribe func()

	// View state
	viewState ViewState
	prevView  ViewState
	width     int
	height    int
	styles    Styles

	// Product list view
	productList     list.Model
	products        []catalog.Product
	searchInput     textinput.Model
	showSearch      bool
	inStockOnly     bool
	currentPage     int
	perPage         int
	loadingProducts bool
	listSpinner     spinner.Model

	// Product details and add-to-cart form
	selectedProduct *catalog.Product
	loadingProduct  bool
	addForm         *huh.Form
	addChoice       *addChoice

	// Cart drawer
	snapshot    cart.Snapshot
	selectedIdx int
	giftBar     progress.Model
	notice      string

	// Region form
	regionForm   *huh.Form
	regionChoice *regionChoice

	err error
}

// Form values live behind pointers so they survive Model copies.
type addChoice struct {
	VariantID string
	Quantity  string
}

type regionChoice struct {
	Country string
	Locale  string
}

// productItem implements list.Item for products.
type productItem struct {
	product catalog.Product
	title   string
	price   string
}

func (i productItem) Title() string { return i.title }

func (i productItem) Description() string {
	stock := "In Stock"
	if !i.product.IsInStock() {
		stock = "Out of Stock"
	}
	options := ""
	if i.product.HasVariants() {
		options = fmt.Sprintf(" • %d options", len(i.product.Variants))
	}
	return fmt.Sprintf("%s • %s%s", i.price, stock, options)
}

func (i productItem) FilterValue() string { return i.title }

// Messages
type (
	productsLoadedMsg struct {
		products []catalog.Product
	}
	productLoadedMsg struct {
		product catalog.Product
	}
	cartUpdatedMsg struct {
		snapshot cart.Snapshot
		notice   string
	}
	sessionEventMsg struct {
		event session.Event
	}
	errMsg struct {
		err error
	}
)

// NewModel creates a TUI bound to one cart session. countries feeds the
// region picker.
func NewModel(ctx context.Context, client *catalog.Client, sess *session.Session, countries []string) Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorCaramel)

	ti := textinput.New()
	ti.Placeholder = "Search products..."
	ti.CharLimit = 50
	ti.Width = 30

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorHighlight).
		BorderLeftForeground(colorHighlight)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorMocha).
		BorderLeftForeground(colorHighlight)

	productList := list.New([]list.Item{}, delegate, 0, 0)
	productList.Title = "Coffee & Gear"
	productList.SetShowHelp(false)
	productList.SetFilteringEnabled(true)
	productList.Styles.Title = styles.ListTitle

	bar := progress.New(
		progress.WithScaledGradient(string(colorCaramel), string(colorHighlight)),
		progress.WithWidth(40),
	)

	events := make(chan session.Event, 32)
	unsubscribe := sess.Subscribe(func(ev session.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	// The listener goes away with the connection.
	context.AfterFunc(ctx, unsubscribe)

	return Model{
		ctx:         ctx,
		catalog:     client,
		session:     sess,
		countries:   countries,
		events:      events,
		unsubscribe: unsubscribe,
		viewState:   ViewProductList,
		styles:      styles,
		productList: productList,
		searchInput: ti,
		listSpinner: sp,
		currentPage: 1,
		perPage:     20,
		snapshot:    sess.Snapshot(),
		giftBar:     bar,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.listSpinner.Tick,
		m.loadProducts(),
		m.waitForEvent(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.productList.SetSize(msg.Width-4, msg.Height-8)
		m.giftBar.Width = min(max(msg.Width-16, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.listSpinner, cmd = m.listSpinner.Update(msg)
		cmds = append(cmds, cmd)

	case productsLoadedMsg:
		m.loadingProducts = false
		m.err = nil
		m.products = msg.products
		m.updateProductList()

	case productLoadedMsg:
		m.loadingProduct = false
		if m.selectedProduct != nil && m.selectedProduct.ID == msg.product.ID {
			p := msg.product
			m.selectedProduct = &p
		}

	case cartUpdatedMsg:
		m.err = nil
		m.snapshot = msg.snapshot
		m.notice = msg.notice
		m.clampSelection()
		m.syncDrawer()

	case sessionEventMsg:
		// Events can trail command results, so read the live snapshot.
		m.snapshot = m.session.Snapshot()
		m.clampSelection()
		if msg.event.Kind == session.EventContextChanged {
			m.updateProductList()
		}
		m.syncDrawer()
		return m, m.waitForEvent()

	case errMsg:
		m.err = msg.err
		m.loadingProducts = false
		m.loadingProduct = false
	}

	switch m.viewState {
	case ViewProductList:
		var cmd tea.Cmd
		if m.showSearch {
			m.searchInput, cmd = m.searchInput.Update(msg)
		} else {
			m.productList, cmd = m.productList.Update(msg)
		}
		cmds = append(cmds, cmd)

	case ViewAddToCart:
		if m.addForm != nil {
			cmds = append(cmds, m.updateAddForm(msg))
		}

	case ViewRegion:
		if m.regionForm != nil {
			cmds = append(cmds, m.updateRegionForm(msg))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return m.quit()
	case "q":
		if m.viewState == ViewProductList && !m.showSearch && m.productList.FilterState() != list.Filtering {
			return m.quit()
		}
	}

	switch m.viewState {
	case ViewProductList:
		return m.handleProductListKeys(msg)
	case ViewProductDetails:
		return m.handleProductDetailsKeys(msg)
	case ViewAddToCart:
		return m.handleAddToCartKeys(msg)
	case ViewCart:
		return m.handleCartKeys(msg)
	case ViewRegion:
		return m.handleRegionKeys(msg)
	}

	return m, nil
}

func (m Model) handleProductListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showSearch {
		switch key {
		case "enter":
			m.showSearch = false
			m.searchInput.Blur()
			m.loadingProducts = true
			return m, m.loadProducts()
		case "esc":
			m.showSearch = false
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	// Keys below would clash with list filtering while it is active.
	if m.productList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.productList, cmd = m.productList.Update(msg)
		return m, cmd
	}

	switch key {
	case "/":
		m.showSearch = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case "f":
		m.inStockOnly = !m.inStockOnly
		m.loadingProducts = true
		return m, m.loadProducts()

	case "r":
		m.catalog.Invalidate()
		m.loadingProducts = true
		return m, m.loadProducts()

	case "c":
		m.session.OpenDrawer()
		m.syncDrawer()
		return m, nil

	case "g":
		return m.openRegionForm()

	case "a":
		// Quick add keeps the buyer in the list.
		if item, ok := m.productList.SelectedItem().(productItem); ok && !item.product.HasVariants() {
			return m, m.quickAdd(item.product)
		}
		return m, nil

	case "enter":
		if item, ok := m.productList.SelectedItem().(productItem); ok {
			p := item.product
			m.selectedProduct = &p
			m.viewState = ViewProductDetails
			m.loadingProduct = true
			m.notice = ""
			return m, m.loadProduct(p.ID)
		}
	}

	var cmd tea.Cmd
	m.productList, cmd = m.productList.Update(msg)
	return m, cmd
}

func (m Model) handleProductDetailsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewState = ViewProductList
		m.selectedProduct = nil
		return m, nil

	case "enter", "a":
		if m.selectedProduct != nil && m.selectedProduct.IsInStock() {
			m.initAddForm()
			m.viewState = ViewAddToCart
			return m, m.addForm.Init()
		}

	case "c":
		m.session.OpenDrawer()
		m.syncDrawer()
	}

	return m, nil
}

func (m Model) handleAddToCartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewState = ViewProductDetails
		m.addForm = nil
		return m, nil
	}
	if m.addForm == nil {
		return m, nil
	}
	cmd := m.updateAddForm(msg)
	return m, cmd
}

func (m Model) handleCartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snapshot.Items

	switch msg.String() {
	case "esc", "backspace", "c", "s":
		m.session.CloseDrawer()
		m.syncDrawer()
		return m, nil

	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case "down", "j":
		if m.selectedIdx < len(items)-1 {
			m.selectedIdx++
		}
		return m, nil

	case "+", "=":
		if it, ok := m.selectedItem(); ok && it.Quantity < maxQuantity {
			return m, m.updateQuantity(it.Key(), it.Quantity+1)
		}
		return m, nil

	case "-":
		if it, ok := m.selectedItem(); ok {
			return m, m.updateQuantity(it.Key(), it.Quantity-1)
		}
		return m, nil

	case "d", "delete":
		if it, ok := m.selectedItem(); ok {
			return m, m.removeItem(it.Key())
		}
		return m, nil

	case "x":
		if !m.snapshot.IsEmpty() {
			return m, m.clearCart()
		}
		return m, nil

	case "r":
		return m, m.reloadCart()

	case "g":
		return m.openRegionForm()
	}

	return m, nil
}

func (m Model) handleRegionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewState = m.prevView
		m.regionForm = nil
		return m, nil
	}
	if m.regionForm == nil {
		return m, nil
	}
	cmd := m.updateRegionForm(msg)
	return m, cmd
}

func (m *Model) updateAddForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.addForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.addForm = f
	}

	switch m.addForm.State {
	case huh.StateCompleted:
		m.addForm = nil
		m.viewState = ViewProductDetails
		return m.submitAddForm()
	case huh.StateAborted:
		m.addForm = nil
		m.viewState = ViewProductDetails
		return nil
	}
	return cmd
}

func (m *Model) updateRegionForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.regionForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.regionForm = f
	}

	switch m.regionForm.State {
	case huh.StateCompleted:
		m.regionForm = nil
		m.viewState = m.prevView
		locale := currency.NormalizeLocale(m.regionChoice.Locale)
		m.snapshot = m.session.SetContext(m.regionChoice.Country, locale)
		m.updateProductList()
		return nil
	case huh.StateAborted:
		m.regionForm = nil
		m.viewState = m.prevView
		return nil
	}
	return cmd
}

func (m *Model) initAddForm() {
	p := m.selectedProduct
	m.addChoice = &addChoice{Quantity: "1"}

	var fields []huh.Field
	if p.HasVariants() {
		var options []huh.Option[string]
		for _, v := range p.Variants {
			if !v.IsInStock() {
				continue
			}
			cp := p.CartProduct(&v)
			label := fmt.Sprintf("%s (%s)", v.Name, m.formatPreview(cp))
			options = append(options, huh.NewOption(label, v.ID))
		}
		if len(options) > 0 {
			m.addChoice.VariantID = options[0].Value
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Choose an option").
			Options(options...).
			Value(&m.addChoice.VariantID))
	}

	fields = append(fields, huh.NewInput().
		Title("Quantity").
		Value(&m.addChoice.Quantity).
		Validate(validateQuantity))

	m.addForm = huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithShowErrors(true)
}

func (m Model) openRegionForm() (tea.Model, tea.Cmd) {
	country, locale := m.session.Region()
	m.regionChoice = &regionChoice{Country: country, Locale: locale}

	options := make([]huh.Option[string], 0, len(m.countries))
	for _, c := range m.countries {
		options = append(options, huh.NewOption(c, c))
	}

	m.regionForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Shipping country").
				Options(options...).
				Value(&m.regionChoice.Country),
			huh.NewInput().
				Title("Locale").
				Placeholder(currency.FallbackLocale).
				Value(&m.regionChoice.Locale).
				Validate(func(s string) error {
					if currency.NormalizeLocale(s) == "" {
						return fmt.Errorf("use a tag like en-US or de-DE")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	if m.viewState != ViewRegion {
		m.prevView = m.viewState
	}
	m.viewState = ViewRegion
	return m, m.regionForm.Init()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

func validateQuantity(s string) error {
	_, err := parseQuantity(s)
	return err
}

// parseQuantity accepts whole numbers from 1 to maxQuantity.
func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > maxQuantity {
		return 0, fmt.Errorf("enter a number from 1 to %d", maxQuantity)
	}
	return n, nil
}

// syncDrawer follows the session's drawer flag.
func (m *Model) syncDrawer() {
	open := m.session.DrawerOpen()
	switch {
	case open && m.viewState != ViewCart:
		m.prevView = m.viewState
		if m.prevView == ViewAddToCart || m.prevView == ViewRegion {
			m.prevView = ViewProductDetails
			if m.selectedProduct == nil {
				m.prevView = ViewProductList
			}
		}
		m.viewState = ViewCart
	case !open && m.viewState == ViewCart:
		m.viewState = m.prevView
		if m.viewState == ViewProductDetails && m.selectedProduct == nil {
			m.viewState = ViewProductList
		}
	}
}

func (m *Model) clampSelection() {
	if n := len(m.snapshot.Items); m.selectedIdx >= n {
		m.selectedIdx = max(n-1, 0)
	}
}

func (m Model) selectedItem() (cart.Item, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.snapshot.Items) {
		return cart.Item{}, false
	}
	return m.snapshot.Items[m.selectedIdx], true
}

func (m *Model) updateProductList() {
	_, locale := m.session.Region()
	items := make([]list.Item, len(m.products))
	for i, p := range m.products {
		cp := p.CartProduct(nil)
		items[i] = productItem{
			product: p,
			title:   cart.Localized(p.LocalizedNames, locale, p.Name),
			price:   m.formatPreview(cp),
		}
	}
	m.productList.SetItems(items)
}

func (m Model) formatPreview(p cart.Product) string {
	return m.snapshot.Format(m.session.Preview(p).Price)
}

// GetViewState returns the current view state (for testing).
func (m Model) GetViewState() ViewState {
	return m.viewState
}

// GetSelectedProduct returns the currently selected product (for testing).
func (m Model) GetSelectedProduct() *catalog.Product {
	return m.selectedProduct
}

// Snapshot returns the cart snapshot the model renders (for testing).
func (m Model) Snapshot() cart.Snapshot {
	return m.snapshot
}
