package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/queue"
	"github.com/entradalibre/ticketing/internal/repository"
)

// The fakes mirror the real stores closely enough to exercise the
// workflows without a database.  fakeInventory in particular enforces
// the same uniqueness rule the seats table does, atomically per Reserve
// call, so racing goroutines observe real conflict semantics.

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeInventory struct {
	mu     sync.Mutex
	nextID uint64
	byKey  map[string]uint64 // event/session/label -> seat id
	byID   map[uint64]*model.Seat
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{byKey: make(map[string]uint64), byID: make(map[uint64]*model.Seat)}
}

func seatKey(eventID, sessionID uint64, label string) string {
	return fmt.Sprintf("%d/%d/%s", eventID, sessionID, label)
}

func (f *fakeInventory) Reserve(ctx context.Context, seats []model.Seat) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conflict := &repository.SeatsUnavailableError{}
	for _, s := range seats {
		if _, taken := f.byKey[seatKey(s.EventID, s.SessionID, s.Label)]; taken {
			conflict.Labels = append(conflict.Labels, s.Label)
		}
	}
	if len(conflict.Labels) > 0 {
		return nil, conflict
	}
	out := make([]model.Seat, 0, len(seats))
	for _, s := range seats {
		f.nextID++
		s.ID = f.nextID
		f.byKey[seatKey(s.EventID, s.SessionID, s.Label)] = s.ID
		stored := s
		f.byID[s.ID] = &stored
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeInventory) MarkSold(ctx context.Context, seatIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range seatIDs {
		if s, ok := f.byID[id]; ok {
			s.Status = model.SeatSold
		}
	}
	return nil
}

func (f *fakeInventory) Release(ctx context.Context, seatIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range seatIDs {
		s, ok := f.byID[id]
		if !ok || s.Status != model.SeatReserved {
			continue
		}
		delete(f.byKey, seatKey(s.EventID, s.SessionID, s.Label))
		delete(f.byID, id)
	}
	return nil
}

func (f *fakeInventory) LabelsByID(ctx context.Context, seatIDs []uint64) (map[uint64]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	labels := make(map[uint64]string, len(seatIDs))
	for _, id := range seatIDs {
		if s, ok := f.byID[id]; ok {
			labels[id] = s.Label
		}
	}
	return labels, nil
}

func (f *fakeInventory) CountSold(ctx context.Context, eventID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.byID {
		if s.EventID == eventID && s.Status == model.SeatSold {
			n++
		}
	}
	return n, nil
}

func (f *fakeInventory) seat(id uint64) (model.Seat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return model.Seat{}, false
	}
	return *s, true
}

func (f *fakeInventory) held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeOrders struct {
	mu         sync.Mutex
	nextID     uint64
	nextItemID uint64
	orders     map[uint64]*model.Order
	items      map[uint64][]model.OrderItem
	now        time.Time
}

func newFakeOrders(now time.Time) *fakeOrders {
	return &fakeOrders{orders: make(map[uint64]*model.Order), items: make(map[uint64][]model.OrderItem), now: now}
}

func (f *fakeOrders) Create(ctx context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = f.now
	o.UpdatedAt = f.now
	stored := *o
	f.orders[o.ID] = &stored
	return nil
}

func (f *fakeOrders) CreateItems(ctx context.Context, items []model.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		f.nextItemID++
		it.ID = f.nextItemID
		it.CreatedAt = f.now
		f.items[it.OrderID] = append(f.items[it.OrderID], it)
	}
	return nil
}

func (f *fakeOrders) GetWithItems(ctx context.Context, orderID uint64) (model.Order, []model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return model.Order{}, nil, repository.ErrOrderNotFound
	}
	return *o, append([]model.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeOrders) GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, []model.OrderItem, error) {
	o, items, err := f.GetWithItems(ctx, orderID)
	if err != nil {
		return model.Order{}, nil, err
	}
	if o.UserID != userID {
		return model.Order{}, nil, repository.ErrOrderNotFound
	}
	return o, items, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeOrders) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for id, o := range f.orders {
		if o.Status == model.OrderPending && o.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrders) status(orderID uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		return o.Status
	}
	return ""
}

type fakeCatalog struct {
	mu         sync.Mutex
	event      model.Event
	session    model.Session
	categories []model.TicketCategory
}

func (f *fakeCatalog) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.event.ID {
		return model.Event{}, repository.ErrEventNotFound
	}
	return f.event, nil
}

func (f *fakeCatalog) GetSession(ctx context.Context, eventID, sessionID uint64) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eventID != f.event.ID || sessionID != f.session.ID {
		return model.Session{}, repository.ErrSessionNotFound
	}
	return f.session, nil
}

func (f *fakeCatalog) CategoriesByEvent(ctx context.Context, eventID uint64) ([]model.TicketCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TicketCategory(nil), f.categories...), nil
}

func (f *fakeCatalog) SetStatus(ctx context.Context, eventID uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.event.Status = status
	return nil
}

func (f *fakeCatalog) setPrice(categoryID uint64, cents uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == categoryID {
			f.categories[i].PriceCents = cents
		}
	}
}

type fakePayments struct {
	mu      sync.Mutex
	records map[uint64]model.Payment
	upserts int
}

func newFakePayments() *fakePayments {
	return &fakePayments{records: make(map[uint64]model.Payment)}
}

func (f *fakePayments) Upsert(ctx context.Context, orderID uint64, externalID, status string, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.records[orderID] = model.Payment{OrderID: orderID, ExternalTransactionID: externalID, Status: status, RawResponse: raw}
	return nil
}

func (f *fakePayments) GetByOrder(ctx context.Context, orderID uint64) (model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[orderID]
	if !ok {
		return model.Payment{}, repository.ErrOrderNotFound
	}
	return p, nil
}

type fakeTickets struct {
	mu     sync.Mutex
	nextID uint64
	byItem map[uint64]*model.Ticket
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byItem: make(map[uint64]*model.Ticket)}
}

func (f *fakeTickets) ExistsForItem(ctx context.Context, orderItemID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byItem[orderItemID]
	return ok, nil
}

func (f *fakeTickets) Create(ctx context.Context, t *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.byItem[t.OrderItemID]; dup {
		return fmt.Errorf("duplicate ticket for item %d", t.OrderItemID)
	}
	f.nextID++
	t.ID = f.nextID
	stored := *t
	f.byItem[t.OrderItemID] = &stored
	return nil
}

func (f *fakeTickets) ListByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.byItem {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTickets) Redeem(ctx context.Context, qrCode string, now time.Time) (model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byItem {
		if t.QRCode != qrCode {
			continue
		}
		if t.UsedAt != nil {
			return model.Ticket{}, repository.ErrTicketUsed
		}
		used := now
		t.UsedAt = &used
		return *t, nil
	}
	return model.Ticket{}, repository.ErrTicketNotFound
}

func (f *fakeTickets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byItem)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.OrderPaidEvent
	fail   bool
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, event queue.OrderPaidEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []queue.OrderPaidEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.OrderPaidEvent(nil), f.events...)
}

type fakeUsers struct {
	users map[uint64]model.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}
