// Package memstore repositorios en memoria para tests de casos de uso y handlers.
// Las entidades se copian al entrar y al salir, como haría una base de datos.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/contract"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

// Store estado compartido por todos los repositorios.
type Store struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	users         map[string]entity.User
	contracts     map[string]entity.Contract
	orders        map[string]entity.Order
	items         map[string]entity.OrderItem
	audit         []entity.AuditLog
	roleRequests  map[string]entity.RoleRequest
	verifications map[string]entity.VerificationCode
	settings      *entity.Settings

	// inyección de fallos en CreateItem
	itemFailAfter int
	itemFailErr   error
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:         map[string]entity.User{},
		contracts:     map[string]entity.Contract{},
		orders:        map[string]entity.Order{},
		items:         map[string]entity.OrderItem{},
		roleRequests:  map[string]entity.RoleRequest{},
		verifications: map[string]entity.VerificationCode{},
	}
}

// Repos repositorios sobre el store.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Users:         userRepo{s},
		Contracts:     contractRepo{s},
		Orders:        orderRepo{s},
		Audit:         auditRepo{s},
		RoleRequests:  roleRequestRepo{s},
		Verifications: verificationRepo{s},
		Settings:      settingsRepo{s},
	}
}

// Run implementa ports.TxRunner: serializa las transacciones y restaura el estado si fn falla.
func (s *Store) Run(ctx context.Context, fn func(repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(s.Repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users         map[string]entity.User
	contracts     map[string]entity.Contract
	orders        map[string]entity.Order
	items         map[string]entity.OrderItem
	audit         []entity.AuditLog
	roleRequests  map[string]entity.RoleRequest
	verifications map[string]entity.VerificationCode
	settings      *entity.Settings
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:         copyMap(s.users),
		contracts:     copyMap(s.contracts),
		orders:        copyMap(s.orders),
		items:         copyMap(s.items),
		audit:         append([]entity.AuditLog(nil), s.audit...),
		roleRequests:  copyMap(s.roleRequests),
		verifications: copyMap(s.verifications),
	}
	if s.settings != nil {
		cp := *s.settings
		snap.settings = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.contracts = snap.contracts
	s.orders = snap.orders
	s.items = snap.items
	s.audit = snap.audit
	s.roleRequests = snap.roleRequests
	s.verifications = snap.verifications
	s.settings = snap.settings
}

func copyMap[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AuditEntries copia del log (helper de tests).
func (s *Store) AuditEntries() []entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.AuditLog(nil), s.audit...)
}

// AuditActions acciones registradas en orden.
func (s *Store) AuditActions() []string {
	var out []string
	for _, e := range s.AuditEntries() {
		out = append(out, e.Action)
	}
	return out
}

// PutUser inserta o reemplaza un usuario (helper de tests).
func (s *Store) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutContract inserta o reemplaza un contrato.
func (s *Store) PutContract(c entity.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ID] = c
}

// PutOrder inserta o reemplaza un pedido con sus líneas.
func (s *Store) PutOrder(o entity.Order, items ...entity.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	for _, it := range items {
		it.OrderID = o.ID
		s.items[it.ID] = it
	}
}

// Contract lectura directa.
func (s *Store) Contract(id string) (entity.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	return c, ok
}

// Order lectura directa.
func (s *Store) Order(id string) (entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// FailItemInsertAfter hace que CreateItem devuelva err después de n inserciones exitosas.
func (s *Store) FailItemInsertAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemFailAfter = n
	s.itemFailErr = err
}

// OrderCount pedidos guardados.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// ItemCount líneas del pedido.
func (s *Store) ItemCount(orderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.OrderID == orderID {
			n++
		}
	}
	return n
}

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r userRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) List(_ context.Context, limit, offset int) ([]*entity.User, int, error) {
	r.s.mu.Lock()
	all := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := u
		all = append(all, &cp)
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), len(all), nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

// ---- contracts ----

type contractRepo struct{ s *Store }

func (r contractRepo) liveFor(customerID, exceptID string) bool {
	for _, c := range r.s.contracts {
		if c.CustomerID == customerID && c.ID != exceptID && contract.IsLive(c.Status) {
			return true
		}
	}
	return false
}

func (r contractRepo) Create(_ context.Context, c *entity.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if contract.IsLive(c.Status) && r.liveFor(c.CustomerID, c.ID) {
		return domain.ErrConflict
	}
	r.s.contracts[c.ID] = *c
	return nil
}

func (r contractRepo) GetByID(_ context.Context, id string) (*entity.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r contractRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Contract, error) {
	return r.GetByID(ctx, id)
}

func (r contractRepo) GetLiveByCustomer(_ context.Context, customerID string) (*entity.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contracts {
		if c.CustomerID == customerID && contract.IsLive(c.Status) {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r contractRepo) List(_ context.Context, f repository.ContractFilter) ([]*entity.Contract, int, error) {
	r.s.mu.Lock()
	var all []*entity.Contract
	for _, c := range r.s.contracts {
		if f.CustomerID != "" && c.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		cp := c
		all = append(all, &cp)
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

func (r contractRepo) Update(_ context.Context, c *entity.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	if contract.IsLive(c.Status) && r.liveFor(c.CustomerID, c.ID) {
		return domain.ErrConflict
	}
	r.s.contracts[c.ID] = *c
	return nil
}

func (r contractRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.contracts, id)
	for oid, o := range r.s.orders {
		if o.ContractID != nil && *o.ContractID == id {
			o.ContractID = nil
			r.s.orders[oid] = o
		}
	}
	return nil
}

// ---- orders ----

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, o *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r orderRepo) CreateItem(_ context.Context, it *entity.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[it.OrderID]; !ok {
		return domain.ErrNotFound
	}
	if r.s.itemFailErr != nil {
		if r.s.itemFailAfter == 0 {
			return r.s.itemFailErr
		}
		r.s.itemFailAfter--
	}
	r.s.items[it.ID] = *it
	return nil
}

func (r orderRepo) DeleteItems(_ context.Context, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.items {
		if it.OrderID == orderID {
			delete(r.s.items, id)
		}
	}
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r orderRepo) GetItems(ctx context.Context, orderID string) ([]*entity.OrderItem, error) {
	m, err := r.ItemsByOrderIDs(ctx, []string{orderID})
	return m[orderID], err
}

func (r orderRepo) ItemsByOrderIDs(_ context.Context, ids []string) (map[string][]*entity.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := map[string][]*entity.OrderItem{}
	for _, it := range r.s.items {
		if want[it.OrderID] {
			cp := it
			out[it.OrderID] = append(out[it.OrderID], &cp)
		}
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out, nil
}

func (r orderRepo) List(_ context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	r.s.mu.Lock()
	var all []*entity.Order
	for _, o := range r.s.orders {
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.StaffID != "" && o.CreatorID() != f.StaffID && o.CustomerStatus != entity.OrderStatusDisputed {
			continue
		}
		if f.Status != "" && o.CustomerStatus != f.Status {
			continue
		}
		cp := o
		all = append(all, &cp)
	}
	r.s.mu.Unlock()
	less := func(a, b *entity.Order) bool {
		switch f.SortBy {
		case "order_date":
			return a.OrderDate.Before(b.OrderDate)
		case "total_amount":
			return a.TotalAmount.LessThan(b.TotalAmount)
		case "order_number":
			return a.OrderNumber < b.OrderNumber
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if f.SortDesc {
			return less(all[j], all[i])
		}
		return less(all[i], all[j])
	})
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

func (r orderRepo) Update(_ context.Context, o *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r orderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, id)
	return nil
}

func (r orderRepo) CountByCustomer(_ context.Context, customerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, o := range r.s.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r orderRepo) LockExpired(_ context.Context, cutoff, now time.Time, orderID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, o := range r.s.orders {
		if orderID != "" && id != orderID {
			continue
		}
		if o.IsLocked || o.ManuallyUnlocked || o.CustomerStatus != entity.OrderStatusPending || !o.OrderDate.Before(cutoff) {
			continue
		}
		locked := now
		o.IsLocked = true
		o.LockedDate = &locked
		o.UpdatedAt = now
		r.s.orders[id] = o
		n++
	}
	return n, nil
}

// ---- audit ----

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, e *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r auditRepo) List(_ context.Context, f repository.AuditFilter) ([]*entity.AuditLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		all = append(all, &e)
	}
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

// ---- role requests ----

type roleRequestRepo struct{ s *Store }

func (r roleRequestRepo) Create(_ context.Context, rr *entity.RoleRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.roleRequests[rr.ID] = *rr
	return nil
}

func (r roleRequestRepo) GetByID(_ context.Context, id string) (*entity.RoleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rr, ok := r.s.roleRequests[id]
	if !ok {
		return nil, nil
	}
	return &rr, nil
}

func (r roleRequestRepo) GetPendingByUser(_ context.Context, userID string) (*entity.RoleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rr := range r.s.roleRequests {
		if rr.UserID == userID && rr.Status == entity.RoleRequestPending {
			cp := rr
			return &cp, nil
		}
	}
	return nil, nil
}

func (r roleRequestRepo) List(_ context.Context, userID, status string, limit, offset int) ([]*entity.RoleRequest, int, error) {
	r.s.mu.Lock()
	var all []*entity.RoleRequest
	for _, rr := range r.s.roleRequests {
		if userID != "" && rr.UserID != userID {
			continue
		}
		if status != "" && rr.Status != status {
			continue
		}
		cp := rr
		all = append(all, &cp)
	}
	r.s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), len(all), nil
}

func (r roleRequestRepo) Update(_ context.Context, rr *entity.RoleRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roleRequests[rr.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.roleRequests[rr.ID] = *rr
	return nil
}

// ---- verification codes ----

type verificationRepo struct{ s *Store }

func (r verificationRepo) Create(_ context.Context, c *entity.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.verifications[c.ID] = *c
	return nil
}

func (r verificationRepo) GetLatestActive(_ context.Context, destination, purpose string) (*entity.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *entity.VerificationCode
	for _, c := range r.s.verifications {
		if c.Destination != destination || c.Purpose != purpose || c.ConsumedAt != nil {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			cp := c
			latest = &cp
		}
	}
	return latest, nil
}

func (r verificationRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.verifications[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	c.Attempts++
	r.s.verifications[id] = c
	return c.Attempts, nil
}

func (r verificationRepo) Consume(_ context.Context, id string, at time.Time, maxAttempts int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.verifications[id]
	if !ok || c.ConsumedAt != nil || c.Attempts >= maxAttempts {
		return false, nil
	}
	c.ConsumedAt = &at
	r.s.verifications[id] = c
	return true, nil
}


// ---- settings ----

type settingsRepo struct{ s *Store }

func (r settingsRepo) Get(_ context.Context) (*entity.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.settings == nil {
		return nil, nil
	}
	cp := *r.s.settings
	return &cp, nil
}

func (r settingsRepo) Upsert(_ context.Context, st *entity.Settings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *st
	r.s.settings = &cp
	return nil
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
