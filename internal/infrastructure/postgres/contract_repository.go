package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

var _ repository.ContractRepository = (*ContractRepo)(nil)

const contractColumns = `
	id, customer_id, contract_number, start_date, end_date, rebate_percentage, status,
	COALESCE(signed_contract_url, ''), COALESCE(customer_signature_data_url, ''),
	COALESCE(manager_signature_data_url, ''), COALESCE(manager_name, ''), COALESCE(manager_position, ''),
	COALESCE(approved_by, ''), approved_date, COALESCE(created_by::text, ''), created_at, updated_at`

// ContractRepo implementación de ContractRepository (usable con pool o tx).
type ContractRepo struct {
	q Querier
}

// NewContractRepository construye el adaptador. Pasar pool o tx (Querier).
func NewContractRepository(q Querier) *ContractRepo {
	return &ContractRepo{q: q}
}

// Create persiste el contrato. El índice parcial contracts_one_live_per_customer se traduce a ErrConflict.
func (r *ContractRepo) Create(ctx context.Context, c *entity.Contract) error {
	query := `
		INSERT INTO contracts (id, customer_id, contract_number, start_date, end_date, rebate_percentage, status,
			signed_contract_url, customer_signature_data_url, manager_signature_data_url, manager_name,
			manager_position, approved_by, approved_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CustomerID, c.ContractNumber, c.StartDate, c.EndDate, c.RebatePercentage, c.Status,
		nullIfEmpty(c.SignedContractURL), nullIfEmpty(c.CustomerSignatureDataURL), nullIfEmpty(c.ManagerSignatureDataURL),
		nullIfEmpty(c.ManagerName), nullIfEmpty(c.ManagerPosition), nullIfEmpty(c.ApprovedBy), c.ApprovedDate,
		nullIfEmpty(c.CreatedBy), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el cliente ya tiene un contrato vigente", domain.ErrConflict)
		}
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

// GetByID obtiene un contrato por ID.
func (r *ContractRepo) GetByID(ctx context.Context, id string) (*entity.Contract, error) {
	return r.findOne(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
}

// GetByIDForUpdate igual que GetByID con SELECT ... FOR UPDATE (usar dentro de una tx).
func (r *ContractRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Contract, error) {
	return r.findOne(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id)
}

// GetLiveByCustomer contrato vivo del cliente (a lo sumo uno por el índice parcial).
func (r *ContractRepo) GetLiveByCustomer(ctx context.Context, customerID string) (*entity.Contract, error) {
	return r.findOne(ctx, `SELECT `+contractColumns+` FROM contracts
		WHERE customer_id = $1 AND status NOT IN ('rejected', 'expired')
		ORDER BY created_at DESC LIMIT 1`, customerID)
}

func (r *ContractRepo) findOne(ctx context.Context, query string, arg any) (*entity.Contract, error) {
	c, err := scanContract(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

// List contratos filtrados, más recientes primero, con el total.
func (r *ContractRepo) List(ctx context.Context, f repository.ContractFilter) ([]*entity.Contract, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM contracts%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		contractColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contract: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// Update reescribe todos los campos editables del contrato.
func (r *ContractRepo) Update(ctx context.Context, c *entity.Contract) error {
	query := `
		UPDATE contracts
		SET customer_id = $2, start_date = $3, end_date = $4, rebate_percentage = $5, status = $6,
		    signed_contract_url = $7, customer_signature_data_url = $8, manager_signature_data_url = $9,
		    manager_name = $10, manager_position = $11, approved_by = $12, approved_date = $13, updated_at = $14
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.CustomerID, c.StartDate, c.EndDate, c.RebatePercentage, c.Status,
		nullIfEmpty(c.SignedContractURL), nullIfEmpty(c.CustomerSignatureDataURL), nullIfEmpty(c.ManagerSignatureDataURL),
		nullIfEmpty(c.ManagerName), nullIfEmpty(c.ManagerPosition), nullIfEmpty(c.ApprovedBy), c.ApprovedDate, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el cliente ya tiene un contrato vigente", domain.ErrConflict)
		}
		return fmt.Errorf("update contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el contrato; los pedidos quedan con contract_id NULL (ON DELETE SET NULL).
func (r *ContractRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}

func scanContract(row pgx.Row) (*entity.Contract, error) {
	var c entity.Contract
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.ContractNumber, &c.StartDate, &c.EndDate, &c.RebatePercentage, &c.Status,
		&c.SignedContractURL, &c.CustomerSignatureDataURL, &c.ManagerSignatureDataURL, &c.ManagerName,
		&c.ManagerPosition, &c.ApprovedBy, &c.ApprovedDate, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
