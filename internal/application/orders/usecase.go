// Package orders ciclo de vida de pedidos: creación, edición, respuesta del cliente,
// bloqueo manual y automático.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/contract"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/order"
	"github.com/jhoicas/rebate-api/internal/domain/rebate"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/pkg/logger"
	"github.com/jhoicas/rebate-api/pkg/sanitize"
)

// SettingsProvider configuración vigente, resuelta una vez por operación.
type SettingsProvider interface {
	Current(ctx context.Context) (entity.Settings, error)
}

// sortColumns allow-list de ?sortBy=.
var sortColumns = map[string]bool{
	"order_date":   true,
	"created_at":   true,
	"total_amount": true,
	"order_number": true,
}

// UseCase casos de uso de pedidos.
type UseCase struct {
	repos    repository.Repos
	tx       ports.TxRunner
	settings SettingsProvider
	events   ports.EventPublisher
	pdf      PDFGenerator
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. repos se usa para lecturas fuera de transacción.
func NewUseCase(
	repos repository.Repos,
	tx ports.TxRunner,
	settings SettingsProvider,
	publisher ports.EventPublisher,
	pdf PDFGenerator,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		repos:    repos,
		tx:       tx,
		settings: settings,
		events:   publisher,
		pdf:      pdf,
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// List devuelve pedidos visibles para el principal, aplicando antes el auto-bloqueo a toda la tabla.
func (uc *UseCase) List(ctx context.Context, p access.Principal, in dto.OrderListRequest) (*dto.Page[dto.OrderResponse], error) {
	scope, err := access.ListScope(p, access.OrderView)
	if err != nil {
		return nil, err
	}
	in.Normalize()

	sortBy := in.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !sortColumns[sortBy] {
		return nil, fmt.Errorf("%w: sortBy no permitido: %s", domain.ErrInvalidInput, in.SortBy)
	}
	desc := true
	switch strings.ToLower(in.SortOrder) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, fmt.Errorf("%w: sortOrder debe ser asc o desc", domain.ErrInvalidInput)
	}
	if in.Status != "" && !order.IsValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: status inválido: %s", domain.ErrInvalidInput, in.Status)
	}

	if _, err := uc.autoLock(ctx, ""); err != nil {
		return nil, err
	}

	customerID := in.CustomerID
	if scope.CustomerID != "" {
		customerID = scope.CustomerID
	} else if customerID != "" && !entity.IsValidID(customerID) {
		return nil, fmt.Errorf("%w: customer_id no es un UUID", domain.ErrInvalidInput)
	}
	rows, total, err := uc.repos.Orders.List(ctx, repository.OrderFilter{
		CustomerID: customerID,
		StaffID:    scope.StaffID,
		Status:     in.Status,
		SortBy:     sortBy,
		SortDesc:   desc,
		Limit:      in.PageSize,
		Offset:     in.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("orders: listar: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	itemsByOrder, err := uc.repos.Orders.ItemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("orders: líneas: %w", err)
	}
	out := make([]dto.OrderResponse, 0, len(rows))
	for _, o := range rows {
		out = append(out, *toResponse(o, itemsByOrder[o.ID]))
	}
	page := dto.NewPage(out, in.PageRequest, total)
	return &page, nil
}

// Get devuelve un pedido con sus líneas. Existencia primero (404), luego pertenencia (403).
func (uc *UseCase) Get(ctx context.Context, p access.Principal, id string) (*dto.OrderResponse, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.OrderView, resourceOf(o)); err != nil {
		return nil, err
	}
	items, err := uc.repos.Orders.GetItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("orders: líneas: %w", err)
	}
	return toResponse(o, items), nil
}

// Create crea el pedido con sus líneas en una transacción. Si es el primer pedido del cliente
// y el contrato está pending, el contrato pasa a active en la misma transacción.
func (uc *UseCase) Create(ctx context.Context, p access.Principal, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if !access.Can(p, access.OrderCreate) {
		return nil, domain.ErrForbidden
	}
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" && p.Role == entity.RoleUser {
		customerID = p.UserID
	}
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id es obligatorio", domain.ErrInvalidInput)
	}
	if !entity.IsValidID(customerID) {
		return nil, fmt.Errorf("%w: customer_id no es un UUID", domain.ErrInvalidInput)
	}
	if err := access.Check(p, access.OrderCreate, access.Resource{CustomerID: customerID}); err != nil {
		return nil, err
	}
	if in.RebatePercentage != nil {
		if !access.IsPrivileged(p) {
			return nil, domain.ErrForbidden
		}
		if !rebate.ValidPercentage(*in.RebatePercentage) {
			return nil, fmt.Errorf("%w: rebate_percentage debe estar entre 0 y 100 con 2 decimales", domain.ErrInvalidInput)
		}
	}
	items, sum, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}
	total := sum
	if in.TotalAmount != nil {
		if err := order.ValidateTotal(*in.TotalAmount); err != nil {
			return nil, err
		}
		total = *in.TotalAmount
	}

	customer, err := uc.repos.Users.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("orders: cliente: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}

	cfg, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	orderDate := now
	if in.OrderDate != nil && !in.OrderDate.IsZero() {
		orderDate = in.OrderDate.Time
	}

	o := &entity.Order{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		OrderNumber:    order.NewNumber(now),
		OrderDate:      orderDate,
		TotalAmount:    total,
		CustomerStatus: entity.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Role != entity.RoleUser {
		creator := p.UserID
		o.CreatedBy = &creator
	}
	var activated *entity.Contract

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		c, err := resolveContract(ctx, r.Contracts, customerID, in.ContractID)
		if err != nil {
			return err
		}
		prior, err := r.Orders.CountByCustomer(ctx, customerID)
		if err != nil {
			return err
		}

		pct := cfg.DefaultRebatePercentage
		switch {
		case in.RebatePercentage != nil:
			pct = *in.RebatePercentage
		case c != nil:
			pct = c.RebatePercentage
		}
		if c != nil {
			cid := c.ID
			o.ContractID = &cid
		}
		o.RebatePercentage = pct
		o.RebateAmount = rebate.Calculate(o.TotalAmount, pct)

		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}
		for _, it := range items {
			it.OrderID = o.ID
			if err := r.Orders.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		if err := audit.Record(ctx, r.Audit, p, entity.AuditCreateOrder, entity.EntityOrder, o.ID, map[string]any{
			"order_number": o.OrderNumber,
			"customer_id":  o.CustomerID,
			"total_amount": o.TotalAmount.String(),
			"items":        len(items),
		}); err != nil {
			return err
		}

		if contract.ShouldActivateOnFirstOrder(c, prior) {
			c.Status = entity.ContractActive
			c.UpdatedAt = now
			if err := r.Contracts.Update(ctx, c); err != nil {
				return err
			}
			if err := audit.Record(ctx, r.Audit, p, entity.AuditActivateContract, entity.EntityContract, c.ID, map[string]any{
				"order_id": o.ID,
			}); err != nil {
				return err
			}
			activated = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publishOrder(ctx, p, events.OrderCreated, o)
	if activated != nil {
		uc.events.Publish(ctx, events.StreamContracts, events.New(events.ContractActivated, p.UserID, activated.ID, events.ContractPayload{
			ContractID:     activated.ID,
			CustomerID:     activated.CustomerID,
			ContractNumber: activated.ContractNumber,
			Status:         activated.Status,
		}))
	}
	return toResponse(o, items), nil
}

// Update edición parcial. Un cliente solo puede enviar customer_status / customer_comment;
// el resto de roles sigue la tabla de capacidades y la regla de pedido confirmado.
func (uc *UseCase) Update(ctx context.Context, p access.Principal, id string, in dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Role == entity.RoleUser {
		if err := access.Check(p, access.OrderRespond, resourceOf(o)); err != nil {
			return nil, err
		}
		if in.HasFieldEdits() {
			return nil, domain.ErrForbidden
		}
		if in.CustomerStatus == nil && in.CustomerComment == nil {
			return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
		}
		to := o.CustomerStatus
		if in.CustomerStatus != nil {
			to = *in.CustomerStatus
		}
		return uc.respond(ctx, p, o, to, in.CustomerComment)
	}

	if err := access.Check(p, access.OrderEdit, resourceOf(o)); err != nil {
		return nil, err
	}
	if err := order.CheckEditable(o.CustomerStatus, in.CustomerStatus); err != nil {
		return nil, err
	}

	now := uc.now()
	changed := make([]string, 0, 6)

	if in.OrderDate != nil && !in.OrderDate.IsZero() {
		o.OrderDate = in.OrderDate.Time
		changed = append(changed, "order_date")
	}
	if in.CustomerStatus != nil {
		if !order.IsValidStatus(*in.CustomerStatus) {
			return nil, fmt.Errorf("%w: customer_status inválido: %s", domain.ErrInvalidInput, *in.CustomerStatus)
		}
		if *in.CustomerStatus == entity.OrderStatusConfirmed && o.CustomerStatus != entity.OrderStatusConfirmed {
			o.CustomerConfirmedDate = &now
		}
		o.CustomerStatus = *in.CustomerStatus
		changed = append(changed, "customer_status")
	}
	if in.CustomerComment != nil {
		o.CustomerComment = sanitize.Text(*in.CustomerComment, order.MaxCommentLen)
		changed = append(changed, "customer_comment")
	}

	var newItems []*entity.OrderItem
	repriced := false
	if in.Items != nil {
		items, sum, err := buildItems(in.Items)
		if err != nil {
			return nil, err
		}
		newItems = items
		o.TotalAmount = sum
		repriced = true
		changed = append(changed, "items")
	}
	if in.TotalAmount != nil {
		if err := order.ValidateTotal(*in.TotalAmount); err != nil {
			return nil, err
		}
		o.TotalAmount = *in.TotalAmount
		repriced = true
		changed = append(changed, "total_amount")
	}
	if repriced {
		cfg, err := uc.settings.Current(ctx)
		if err != nil {
			return nil, err
		}
		o.RebatePercentage = cfg.DefaultRebatePercentage
		o.RebateAmount = rebate.Calculate(o.TotalAmount, o.RebatePercentage)
	}
	if len(changed) == 0 && in.ContractID == nil {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}
	o.UpdatedAt = now

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if in.ContractID != nil {
			if strings.TrimSpace(*in.ContractID) == "" {
				o.ContractID = nil
			} else {
				c, err := resolveContract(ctx, r.Contracts, o.CustomerID, in.ContractID)
				if err != nil {
					return err
				}
				cid := c.ID
				o.ContractID = &cid
			}
			changed = append(changed, "contract_id")
		}
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		if newItems != nil {
			if err := r.Orders.DeleteItems(ctx, o.ID); err != nil {
				return err
			}
			for _, it := range newItems {
				it.OrderID = o.ID
				if err := r.Orders.CreateItem(ctx, it); err != nil {
					return err
				}
			}
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditUpdateOrder, entity.EntityOrder, o.ID, map[string]any{
			"fields": changed,
		})
	})
	if err != nil {
		return nil, err
	}

	items := newItems
	if items == nil {
		if items, err = uc.repos.Orders.GetItems(ctx, o.ID); err != nil {
			return nil, fmt.Errorf("orders: líneas: %w", err)
		}
	}
	uc.publishOrder(ctx, p, events.OrderUpdated, o)
	return toResponse(o, items), nil
}

// Delete elimina el pedido y sus líneas (solo admin).
func (uc *UseCase) Delete(ctx context.Context, p access.Principal, id string) error {
	if !entity.IsValidID(id) {
		return domain.ErrNotFound
	}
	o, err := uc.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("orders: obtener: %w", err)
	}
	if o == nil {
		return domain.ErrNotFound
	}
	if err := access.Check(p, access.OrderDelete, resourceOf(o)); err != nil {
		return err
	}
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Orders.DeleteItems(ctx, o.ID); err != nil {
			return err
		}
		if err := r.Orders.Delete(ctx, o.ID); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditDeleteOrder, entity.EntityOrder, o.ID, map[string]any{
			"order_number": o.OrderNumber,
			"customer_id":  o.CustomerID,
		})
	})
	if err != nil {
		return err
	}
	uc.publishOrder(ctx, p, events.OrderDeleted, o)
	return nil
}

// Lock bloquea el pedido manualmente (admin/manager), sin importar su estado.
func (uc *UseCase) Lock(ctx context.Context, p access.Principal, id string) (*dto.OrderResponse, error) {
	return uc.setLock(ctx, p, id, true)
}

// Unlock desbloquea el pedido y lo exime del auto-bloqueo. Desbloquear un pedido ya
// desbloqueado está permitido y también queda auditado.
func (uc *UseCase) Unlock(ctx context.Context, p access.Principal, id string) (*dto.OrderResponse, error) {
	return uc.setLock(ctx, p, id, false)
}

func (uc *UseCase) setLock(ctx context.Context, p access.Principal, id string, lock bool) (*dto.OrderResponse, error) {
	if !entity.IsValidID(id) {
		return nil, domain.ErrNotFound
	}
	o, err := uc.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("orders: obtener: %w", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.Check(p, access.OrderLock, resourceOf(o)); err != nil {
		return nil, err
	}

	now := uc.now()
	action, eventType := entity.AuditUnlockOrder, events.OrderUnlocked
	wasLocked := o.IsLocked
	if lock {
		action, eventType = entity.AuditLockOrder, events.OrderLocked
		o.IsLocked = true
		o.LockedDate = &now
	} else {
		o.IsLocked = false
		o.LockedDate = nil
		o.ManuallyUnlocked = true
	}
	o.UpdatedAt = now

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, action, entity.EntityOrder, o.ID, map[string]any{
			"was_locked": wasLocked,
		})
	})
	if err != nil {
		return nil, err
	}
	items, err := uc.repos.Orders.GetItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("orders: líneas: %w", err)
	}
	uc.publishOrder(ctx, p, eventType, o)
	return toResponse(o, items), nil
}

// Confirm el cliente confirma su pedido pendiente y desbloqueado. El comentario es opcional.
func (uc *UseCase) Confirm(ctx context.Context, p access.Principal, id string, comment string) (*dto.OrderResponse, error) {
	return uc.customerRespond(ctx, p, id, entity.OrderStatusConfirmed, comment)
}

// Dispute el cliente disputa su pedido; el comentario es obligatorio.
func (uc *UseCase) Dispute(ctx context.Context, p access.Principal, id string, comment string) (*dto.OrderResponse, error) {
	return uc.customerRespond(ctx, p, id, entity.OrderStatusDisputed, comment)
}

func (uc *UseCase) customerRespond(ctx context.Context, p access.Principal, id, to, comment string) (*dto.OrderResponse, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.OrderRespond, resourceOf(o)); err != nil {
		return nil, err
	}
	var c *string
	if comment != "" {
		c = &comment
	}
	return uc.respond(ctx, p, o, to, c)
}

// respond aplica la respuesta del cliente. to igual al estado actual = solo comentario.
func (uc *UseCase) respond(ctx context.Context, p access.Principal, o *entity.Order, to string, comment *string) (*dto.OrderResponse, error) {
	if o.IsLocked {
		return nil, domain.ErrOrderLocked
	}
	commentOnly := to == o.CustomerStatus
	if commentOnly {
		if o.CustomerStatus != entity.OrderStatusPending {
			return nil, fmt.Errorf("%w: el pedido ya fue respondido (%s)", domain.ErrConflict, o.CustomerStatus)
		}
	} else {
		if to != entity.OrderStatusConfirmed && to != entity.OrderStatusDisputed {
			return nil, fmt.Errorf("%w: customer_status debe ser confirmed o disputed", domain.ErrInvalidInput)
		}
		if err := order.CanRespond(o, to); err != nil {
			return nil, err
		}
	}

	clean := ""
	if comment != nil {
		clean = sanitize.Text(*comment, order.MaxCommentLen)
	}
	if to == entity.OrderStatusDisputed && !commentOnly && clean == "" {
		return nil, fmt.Errorf("%w: la disputa requiere un comentario", domain.ErrInvalidInput)
	}

	now := uc.now()
	eventType := events.OrderUpdated
	if !commentOnly {
		o.CustomerStatus = to
		if to == entity.OrderStatusConfirmed {
			o.CustomerConfirmedDate = &now
			eventType = events.OrderConfirmed
		} else {
			eventType = events.OrderDisputed
		}
	}
	if comment != nil {
		o.CustomerComment = clean
	}
	o.UpdatedAt = now

	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		return audit.Record(ctx, r.Audit, p, entity.AuditUpdateOrder, entity.EntityOrder, o.ID, map[string]any{
			"customer_status": o.CustomerStatus,
		})
	})
	if err != nil {
		return nil, err
	}
	items, err := uc.repos.Orders.GetItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("orders: líneas: %w", err)
	}
	uc.publishOrder(ctx, p, eventType, o)
	return toResponse(o, items), nil
}

// SweepAutoLock aplica el auto-bloqueo a toda la tabla. Lo usa el barrido periódico.
func (uc *UseCase) SweepAutoLock(ctx context.Context) (int64, error) {
	n, err := uc.autoLock(ctx, "")
	if err != nil {
		return 0, err
	}
	return n, nil
}

// load aplica el auto-bloqueo acotado al id y luego lee el pedido.
func (uc *UseCase) load(ctx context.Context, id string) (*entity.Order, error) {
	if !entity.IsValidID(id) {
		return nil, domain.ErrNotFound
	}
	if _, err := uc.autoLock(ctx, id); err != nil {
		return nil, err
	}
	o, err := uc.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("orders: obtener: %w", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// autoLock ejecuta el UPDATE condicional de auto-bloqueo (orderID vacío = toda la tabla).
func (uc *UseCase) autoLock(ctx context.Context, orderID string) (int64, error) {
	cfg, err := uc.settings.Current(ctx)
	if err != nil {
		return 0, err
	}
	now := uc.now()
	cutoff := order.LockCutoff(now, cfg.AutoLockDays)
	n, err := uc.repos.Orders.LockExpired(ctx, cutoff, now, orderID)
	if err != nil {
		return 0, fmt.Errorf("orders: auto-bloqueo: %w", err)
	}
	if n > 0 {
		uc.log.Debug().Int64("locked", n).Str("order_id", orderID).Msg("auto-bloqueo aplicado")
		if orderID == "" {
			uc.events.Publish(ctx, events.StreamOrders, events.New(events.OrdersAutoLocked, "", "", events.AutoLockPayload{
				Locked: n,
				Cutoff: cutoff,
			}))
		}
	}
	return n, nil
}

func (uc *UseCase) publishOrder(ctx context.Context, p access.Principal, eventType string, o *entity.Order) {
	uc.events.Publish(ctx, events.StreamOrders, events.New(eventType, p.UserID, o.ID, events.OrderPayload{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		OrderNumber:    o.OrderNumber,
		CustomerStatus: o.CustomerStatus,
		IsLocked:       o.IsLocked,
		TotalAmount:    o.TotalAmount.StringFixed(2),
		RebateAmount:   o.RebateAmount.StringFixed(2),
	}))
}

// resolveContract contrato explícito (bloqueado FOR UPDATE) o el contrato vivo del cliente.
// Devuelve nil si el cliente no tiene contrato y no se indicó uno.
func resolveContract(ctx context.Context, repo repository.ContractRepository, customerID string, contractID *string) (*entity.Contract, error) {
	id := ""
	if contractID != nil {
		id = strings.TrimSpace(*contractID)
	}
	if id == "" {
		live, err := repo.GetLiveByCustomer(ctx, customerID)
		if err != nil || live == nil {
			return nil, err
		}
		id = live.ID
	} else if !entity.IsValidID(id) {
		return nil, fmt.Errorf("%w: contract_id no es un UUID", domain.ErrInvalidInput)
	}
	c, err := repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: contrato %s", domain.ErrNotFound, id)
	}
	if c.CustomerID != customerID {
		return nil, fmt.Errorf("%w: el contrato no pertenece al cliente", domain.ErrInvalidInput)
	}
	if !contract.AcceptsOrders(c.Status) {
		return nil, fmt.Errorf("%w: el contrato está %s", domain.ErrConflict, c.Status)
	}
	return c, nil
}

// buildItems valida y sanitiza las líneas; devuelve también la suma.
func buildItems(in []dto.OrderItemRequest) ([]*entity.OrderItem, decimal.Decimal, error) {
	if err := order.ValidateItemCount(len(in)); err != nil {
		return nil, decimal.Zero, err
	}
	items := make([]*entity.OrderItem, 0, len(in))
	lines := make([]rebate.Line, 0, len(in))
	for i, it := range in {
		name := strings.TrimSpace(it.ProductName)
		if err := order.ValidateItem(name, it.Quantity, it.UnitPrice); err != nil {
			return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, &entity.OrderItem{
			ID:          uuid.New().String(),
			ProductName: sanitize.Text(name, order.MaxProductNameLen),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  rebate.LineTotal(it.Quantity, it.UnitPrice),
		})
		lines = append(lines, rebate.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return items, rebate.SumLines(lines), nil
}

func resourceOf(o *entity.Order) access.Resource {
	return access.Resource{
		CustomerID: o.CustomerID,
		CreatedBy:  o.CreatorID(),
		Disputed:   o.CustomerStatus == entity.OrderStatusDisputed,
	}
}

func toResponse(o *entity.Order, items []*entity.OrderItem) *dto.OrderResponse {
	out := &dto.OrderResponse{
		ID:                    o.ID,
		CustomerID:            o.CustomerID,
		ContractID:            o.ContractID,
		CreatedBy:             o.CreatedBy,
		OrderNumber:           o.OrderNumber,
		OrderDate:             o.OrderDate,
		TotalAmount:           o.TotalAmount,
		RebatePercentage:      o.RebatePercentage,
		RebateAmount:          o.RebateAmount,
		CustomerStatus:        o.CustomerStatus,
		CustomerComment:       o.CustomerComment,
		CustomerConfirmedDate: o.CustomerConfirmedDate,
		IsLocked:              o.IsLocked,
		LockedDate:            o.LockedDate,
		ManuallyUnlocked:      o.ManuallyUnlocked,
		Items:                 make([]dto.OrderItemResponse, 0, len(items)),
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.OrderItemResponse{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return out
}
