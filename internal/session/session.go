// Package session is the single writer of a buyer's cart. It applies
// mutations through the store, re-projects after each change and tells
// subscribers what happened.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/thomas/eva-cart-go/internal/cart"
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/store"
)

// ErrInvalidPrice is returned when an added item's price is NaN or infinite.
var ErrInvalidPrice = errors.New("price is not a finite number")

// StorageKey is the per-scope suffix of the durable cart key.
const StorageKey = "cart-items"

// DefaultCountry is used when no region is configured.
const DefaultCountry = "US"

// Session owns one buyer's cart. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	store      store.Store
	engine     *cart.Engine
	key        string
	logger     *log.Logger
	country    string
	locale     string
	items      []cart.LineItem
	snap       cart.Snapshot
	drawerOpen bool

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegion sets the initial country and locale.
func WithRegion(country, locale string) Option {
	return func(s *Session) {
		if country != "" {
			s.country = country
		}
		if locale != "" {
			s.locale = locale
		}
	}
}

// Open loads the cart stored under scope and projects it. A corrupt blob is
// logged, deleted and replaced by an empty cart.
func Open(ctx context.Context, st store.Store, scope string, engine *cart.Engine, opts ...Option) (*Session, error) {
	s := &Session{
		store:     st,
		engine:    engine,
		key:       Key(scope),
		logger:    log.New(io.Discard),
		country:   DefaultCountry,
		locale:    currency.FallbackLocale,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	s.snap = s.project()
	return s, nil
}

// Key returns the durable store key for scope.
func Key(scope string) string {
	return scope + ":" + StorageKey
}

// AddOption tunes a single AddItem call.
type AddOption func(*addConfig)

type addConfig struct {
	unitPrice  *float64
	completion func(cart.Snapshot)
}

// WithUnitPrice overrides the product base price for a new row.
func WithUnitPrice(usd float64) AddOption {
	return func(c *addConfig) { c.unitPrice = &usd }
}

// WithCompletion calls fn with the new snapshot instead of opening the
// drawer.
func WithCompletion(fn func(cart.Snapshot)) AddOption {
	return func(c *addConfig) { c.completion = fn }
}

// AddItem adds quantity units of product. An existing row keeps the price it
// was first added at. Quantities below one are treated as one.
func (s *Session) AddItem(ctx context.Context, product cart.Product, quantity int, opts ...AddOption) (cart.Snapshot, error) {
	cfg := addConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if quantity <= 0 {
		quantity = 1
	}
	price := product.BasePriceUSD
	if cfg.unitPrice != nil {
		price = *cfg.unitPrice
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return cart.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	key := product.Key()

	s.mu.Lock()
	snap, err := s.mutate(ctx, func(items []cart.LineItem) ([]cart.LineItem, bool) {
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity += quantity
				return items, true
			}
		}
		return append(items, cart.NewLineItem(product, quantity, price)), true
	})
	if err != nil {
		s.mu.Unlock()
		return cart.Snapshot{}, err
	}
	events := []Event{{Kind: EventItemAdded, Key: key, Snapshot: snap}}
	if cfg.completion == nil && !s.drawerOpen {
		s.drawerOpen = true
		events = append(events, Event{Kind: EventDrawerOpened, Snapshot: snap})
	}
	s.mu.Unlock()

	s.logger.Debug("item added", "key", key, "quantity", quantity, "items", snap.ItemCount)
	s.emit(events...)
	if cfg.completion != nil {
		cfg.completion(snap)
	}
	return snap, nil
}

// RemoveItem deletes the row with key. Missing keys are ignored.
func (s *Session) RemoveItem(ctx context.Context, key string) (cart.Snapshot, error) {
	s.mu.Lock()
	removed := false
	snap, err := s.mutate(ctx, func(items []cart.LineItem) ([]cart.LineItem, bool) {
		removed = false
		out := items[:0]
		for _, li := range items {
			if li.Key() == key {
				removed = true
				continue
			}
			out = append(out, li)
		}
		return out, removed
	})
	s.mu.Unlock()
	if err != nil {
		return cart.Snapshot{}, err
	}

	if removed {
		s.emit(Event{Kind: EventItemRemoved, Key: key, Snapshot: snap})
	}
	return snap, nil
}

// UpdateQuantity sets the quantity of key. A quantity of zero or less
// removes the row.
func (s *Session) UpdateQuantity(ctx context.Context, key string, quantity int) (cart.Snapshot, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, key)
	}

	s.mu.Lock()
	changed := false
	snap, err := s.mutate(ctx, func(items []cart.LineItem) ([]cart.LineItem, bool) {
		changed = false
		for i := range items {
			if items[i].Key() == key {
				changed = items[i].Quantity != quantity
				items[i].Quantity = quantity
				break
			}
		}
		return items, changed
	})
	s.mu.Unlock()
	if err != nil {
		return cart.Snapshot{}, err
	}

	if changed {
		s.emit(Event{Kind: EventQuantityChanged, Key: key, Snapshot: snap})
	}
	return snap, nil
}

// ClearCart removes every row.
func (s *Session) ClearCart(ctx context.Context) (cart.Snapshot, error) {
	s.mu.Lock()
	snap, err := s.mutate(ctx, func([]cart.LineItem) ([]cart.LineItem, bool) {
		return nil, true
	})
	s.mu.Unlock()
	if err != nil {
		return cart.Snapshot{}, err
	}

	s.emit(Event{Kind: EventCleared, Snapshot: snap})
	return snap, nil
}

// GetItem returns the projected line for key.
func (s *Session) GetItem(key string) (cart.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.snap.Item(key)
	if !ok {
		return cart.Item{}, false
	}
	it.LineItem = it.LineItem.Clone()
	return it, true
}

// Snapshot returns the current projection.
func (s *Session) Snapshot() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.snap)
}

// Items returns a copy of the persisted rows.
func (s *Session) Items() []cart.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Preview projects one unit of product for the current region without
// touching the cart.
func (s *Session) Preview(product cart.Product) cart.Item {
	s.mu.Lock()
	country, locale := s.country, s.locale
	s.mu.Unlock()

	li := cart.NewLineItem(product, 1, product.BasePriceUSD)
	return s.engine.Project([]cart.LineItem{li}, country, locale).Items[0]
}

// Region reports the country and locale the cart is projected for.
func (s *Session) Region() (country, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.country, s.locale
}

// SetContext re-projects the cart for a new country and locale. Nothing is
// written to the store.
func (s *Session) SetContext(country, locale string) cart.Snapshot {
	s.mu.Lock()
	s.country = country
	s.locale = locale
	s.snap = s.project()
	snap := cloneSnapshot(s.snap)
	s.mu.Unlock()

	s.logger.Debug("region changed", "country", country, "locale", locale, "currency", snap.Currency.Code)
	s.emit(Event{Kind: EventContextChanged, Snapshot: snap})
	return snap
}

// Reload re-reads the store, picking up writes from other sessions that
// share the same scope.
func (s *Session) Reload(ctx context.Context) (cart.Snapshot, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return cart.Snapshot{}, err
	}
	s.items = items
	s.snap = s.project()
	snap := cloneSnapshot(s.snap)
	s.mu.Unlock()

	s.emit(Event{Kind: EventReloaded, Snapshot: snap})
	return snap, nil
}

// OpenDrawer marks the cart drawer visible.
func (s *Session) OpenDrawer() {
	s.setDrawer(true)
}

// CloseDrawer hides the cart drawer.
func (s *Session) CloseDrawer() {
	s.setDrawer(false)
}

// ToggleDrawer flips the drawer and returns the new state.
func (s *Session) ToggleDrawer() bool {
	s.mu.Lock()
	open := !s.drawerOpen
	s.mu.Unlock()
	s.setDrawer(open)
	return open
}

// DrawerOpen reports whether the drawer is visible.
func (s *Session) DrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}

func (s *Session) setDrawer(open bool) {
	s.mu.Lock()
	if s.drawerOpen == open {
		s.mu.Unlock()
		return
	}
	s.drawerOpen = open
	snap := cloneSnapshot(s.snap)
	s.mu.Unlock()

	kind := EventDrawerClosed
	if open {
		kind = EventDrawerOpened
	}
	s.emit(Event{Kind: kind, Snapshot: snap})
}

// Subscribe registers fn for every future event and returns a function that
// removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Session) emit(events ...Event) {
	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.lmu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// mutate applies fn to the stored rows inside a store transaction and
// commits the result to memory only once it is persisted. fn may run more
// than once when the store retries. s.mu must be held.
func (s *Session) mutate(ctx context.Context, fn func([]cart.LineItem) ([]cart.LineItem, bool)) (cart.Snapshot, error) {
	var next []cart.LineItem

	err := s.store.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		items, ok := decode(current)
		if !ok {
			s.logger.Warn("discarding corrupt cart", "key", s.key, "bytes", len(current))
		}
		items, changed := fn(items)
		next = items
		if !changed && ok {
			return current, nil
		}
		if len(items) == 0 {
			return nil, nil
		}
		return json.Marshal(items)
	})
	if err != nil {
		s.logger.Error("persisting cart failed", "key", s.key, "err", err)
		return cart.Snapshot{}, fmt.Errorf("persisting cart: %w", err)
	}

	s.items = next
	s.snap = s.project()
	return cloneSnapshot(s.snap), nil
}

// load reads and normalizes the stored rows. s.mu must be held or the
// session not yet shared.
func (s *Session) load(ctx context.Context) ([]cart.LineItem, error) {
	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	items, ok := decode(data)
	if !ok {
		s.logger.Warn("discarding corrupt cart", "key", s.key, "bytes", len(data))
		if err := s.store.Delete(ctx, s.key); err != nil {
			return nil, fmt.Errorf("deleting corrupt cart: %w", err)
		}
	}
	return items, nil
}

func (s *Session) project() cart.Snapshot {
	return s.engine.Project(s.items, s.country, s.locale)
}

// decode parses a stored blob. A nil blob is an empty cart; anything that is
// not a JSON array of rows reports ok=false.
func decode(data []byte) ([]cart.LineItem, bool) {
	if data == nil {
		return nil, true
	}
	var items []cart.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return normalize(items), true
}

// normalize drops rows with no quantity and merges rows sharing an identity
// key into the first one.
func normalize(items []cart.LineItem) []cart.LineItem {
	out := make([]cart.LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, li := range items {
		if li.Quantity <= 0 {
			continue
		}
		if i, ok := index[li.Key()]; ok {
			out[i].Quantity += li.Quantity
			continue
		}
		index[li.Key()] = len(out)
		out = append(out, li)
	}
	return out
}

func cloneItems(items []cart.LineItem) []cart.LineItem {
	if items == nil {
		return nil
	}
	out := make([]cart.LineItem, len(items))
	for i, li := range items {
		out[i] = li.Clone()
	}
	return out
}

func cloneSnapshot(snap cart.Snapshot) cart.Snapshot {
	items := make([]cart.Item, len(snap.Items))
	for i, it := range snap.Items {
		it.LineItem = it.LineItem.Clone()
		items[i] = it
	}
	snap.Items = items
	return snap
}
