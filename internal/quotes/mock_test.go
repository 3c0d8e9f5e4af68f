package quotes

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type catalogEntry struct {
	companyID int64
	name      string
	price     decimal.Decimal
}

type counterKey struct {
	companyID int64
	year      int
}

// memRepository keeps quotes in memory. WithTx holds the lock for the whole
// callback and restores a snapshot on error, so writes are all-or-nothing.
type memRepository struct {
	mu       sync.Mutex
	quotes   map[int64]Quote
	items    map[int64]LineItem
	counters map[counterKey]int64
	clients  map[int64]int64
	catalog  map[LineItemRef]catalogEntry
	nextID   int64

	// Error injection
	numberConflicts int
	insertItemError error
	listError       error
}

func newMemRepository() *memRepository {
	return &memRepository{
		quotes:   make(map[int64]Quote),
		items:    make(map[int64]LineItem),
		counters: make(map[counterKey]int64),
		clients:  make(map[int64]int64),
		catalog:  make(map[LineItemRef]catalogEntry),
		nextID:   1,
	}
}

func (m *memRepository) addClient(companyID, id int64) {
	m.clients[id] = companyID
}

func (m *memRepository) addCatalog(companyID int64, ref LineItemRef, name, price string) {
	m.catalog[ref] = catalogEntry{companyID: companyID, name: name, price: decimal.RequireFromString(price)}
}

type memSnapshot struct {
	quotes   map[int64]Quote
	items    map[int64]LineItem
	counters map[counterKey]int64
	nextID   int64
}

func (m *memRepository) snapshot() memSnapshot {
	s := memSnapshot{
		quotes:   make(map[int64]Quote, len(m.quotes)),
		items:    make(map[int64]LineItem, len(m.items)),
		counters: make(map[counterKey]int64, len(m.counters)),
		nextID:   m.nextID,
	}
	for k, v := range m.quotes {
		s.quotes[k] = v
	}
	for k, v := range m.items {
		s.items[k] = v
	}
	for k, v := range m.counters {
		s.counters[k] = v
	}
	return s
}

func (m *memRepository) restore(s memSnapshot) {
	m.quotes, m.items, m.counters, m.nextID = s.quotes, s.items, s.counters, s.nextID
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memRepository) Get(ctx context.Context, companyID, id int64) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok || q.CompanyID != companyID {
		return Quote{}, shared.ErrNotFound
	}
	q.Items = m.itemsOf(id)
	return q, nil
}

func (m *memRepository) itemsOf(quoteID int64) []LineItem {
	items := []LineItem{}
	for _, item := range m.items {
		if item.QuoteID == quoteID {
			item.Name = m.catalog[item.Ref].name
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (m *memRepository) List(ctx context.Context, companyID int64, filter ListFilter) ([]ListEntry, int, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []ListEntry{}
	for _, q := range m.quotes {
		if q.CompanyID != companyID {
			continue
		}
		if filter.ClientID > 0 && q.ClientID != filter.ClientID {
			continue
		}
		if filter.Year > 0 && q.Year != filter.Year {
			continue
		}
		totals := Compute(m.itemsOf(q.ID), q.Discount)
		entries = append(entries, ListEntry{
			ID: q.ID, Number: q.Number, Year: q.Year, ClientID: q.ClientID,
			Discount: q.Discount, Subtotal: totals.Subtotal, CreatedAt: q.CreatedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, len(entries), nil
}

func (m *memRepository) GetItem(ctx context.Context, companyID, itemID int64) (LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.CompanyID != companyID {
		return LineItem{}, shared.ErrNotFound
	}
	item.Name = m.catalog[item.Ref].name
	return item, nil
}

func (m *memRepository) quoteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quotes)
}

func (m *memRepository) itemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memTx struct {
	m *memRepository
}

func (t *memTx) AssignNumber(ctx context.Context, companyID int64, year int) (int64, error) {
	if t.m.numberConflicts > 0 {
		t.m.numberConflicts--
		return 0, db.ClassifyError(&pgconn.PgError{Code: db.CodeUniqueViolation, ConstraintName: "quotes_number_unique"})
	}
	key := counterKey{companyID, year}
	if _, ok := t.m.counters[key]; !ok {
		var max int64
		for _, q := range t.m.quotes {
			if q.CompanyID == companyID && q.Year == year && q.Number > max {
				max = q.Number
			}
		}
		t.m.counters[key] = max
	}
	t.m.counters[key]++
	return t.m.counters[key], nil
}

func (t *memTx) CheckClient(ctx context.Context, companyID, clientID int64) error {
	if owner, ok := t.m.clients[clientID]; !ok || owner != companyID {
		return shared.ErrNotFound
	}
	return nil
}

func (t *memTx) CatalogPrice(ctx context.Context, companyID int64, ref LineItemRef) (decimal.Decimal, error) {
	entry, ok := t.m.catalog[ref]
	if !ok || entry.companyID != companyID {
		return decimal.Decimal{}, shared.ErrNotFound
	}
	return entry.price, nil
}

func (t *memTx) CreateQuote(ctx context.Context, q Quote) (int64, error) {
	q.ID = t.m.nextID
	t.m.nextID++
	t.m.quotes[q.ID] = q
	return q.ID, nil
}

func (t *memTx) LockQuote(ctx context.Context, companyID, id int64) error {
	if q, ok := t.m.quotes[id]; !ok || q.CompanyID != companyID {
		return shared.ErrNotFound
	}
	return nil
}

func (t *memTx) UpdateQuote(ctx context.Context, q Quote) error {
	existing, ok := t.m.quotes[q.ID]
	if !ok || existing.CompanyID != q.CompanyID {
		return shared.ErrNotFound
	}
	q.Number, q.Year, q.Month, q.CreatedBy, q.CreatedAt = existing.Number, existing.Year, existing.Month, existing.CreatedBy, existing.CreatedAt
	t.m.quotes[q.ID] = q
	return nil
}

func (t *memTx) DeleteQuote(ctx context.Context, companyID, id int64) error {
	if q, ok := t.m.quotes[id]; !ok || q.CompanyID != companyID {
		return shared.ErrNotFound
	}
	for _, item := range t.m.items {
		if item.QuoteID == id {
			return shared.ErrConflict
		}
	}
	delete(t.m.quotes, id)
	return nil
}

func (t *memTx) InsertItem(ctx context.Context, item LineItem) (int64, error) {
	if t.m.insertItemError != nil {
		return 0, t.m.insertItemError
	}
	if item.Ref.IsZero() {
		return 0, shared.NewValidationError(shared.ReasonMissingReference, "", "check violation")
	}
	item.ID = t.m.nextID
	t.m.nextID++
	t.m.items[item.ID] = item
	return item.ID, nil
}

func (t *memTx) UpdateItem(ctx context.Context, item LineItem) error {
	existing, ok := t.m.items[item.ID]
	if !ok || existing.CompanyID != item.CompanyID {
		return shared.ErrNotFound
	}
	t.m.items[item.ID] = item
	return nil
}

func (t *memTx) DeleteItem(ctx context.Context, companyID, itemID int64) error {
	if item, ok := t.m.items[itemID]; !ok || item.CompanyID != companyID {
		return shared.ErrNotFound
	}
	delete(t.m.items, itemID)
	return nil
}

func (t *memTx) DeleteItems(ctx context.Context, companyID, quoteID int64) error {
	for id, item := range t.m.items {
		if item.QuoteID == quoteID && item.CompanyID == companyID {
			delete(t.m.items, id)
		}
	}
	return nil
}

// ============================================================================
// INVALIDATOR
// ============================================================================

type recordingInvalidator struct {
	mu        sync.Mutex
	companies []int64
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, companyID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies = append(r.companies, companyID)
	return nil
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.companies)
}
