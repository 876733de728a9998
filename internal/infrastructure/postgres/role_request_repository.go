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

var _ repository.RoleRequestRepository = (*RoleRequestRepo)(nil)

const roleRequestColumns = `id, user_id, requested_role, COALESCE(reason, ''), status,
	COALESCE(reviewed_by::text, ''), reviewed_at, created_at`

// RoleRequestRepo solicitudes de cambio de rol.
type RoleRequestRepo struct {
	q Querier
}

// NewRoleRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRoleRequestRepository(q Querier) *RoleRequestRepo {
	return &RoleRequestRepo{q: q}
}

// Create inserta la solicitud. El índice de una pendiente por usuario se traduce a ErrDuplicate.
func (r *RoleRequestRepo) Create(ctx context.Context, rr *entity.RoleRequest) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO role_requests (id, user_id, requested_role, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rr.ID, rr.UserID, rr.RequestedRole, nullIfEmpty(rr.Reason), rr.Status, rr.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una solicitud pendiente", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert role request: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud.
func (r *RoleRequestRepo) GetByID(ctx context.Context, id string) (*entity.RoleRequest, error) {
	return r.findOne(ctx, `SELECT `+roleRequestColumns+` FROM role_requests WHERE id = $1`, id)
}

// GetPendingByUser solicitud pendiente del usuario.
func (r *RoleRequestRepo) GetPendingByUser(ctx context.Context, userID string) (*entity.RoleRequest, error) {
	return r.findOne(ctx, `SELECT `+roleRequestColumns+` FROM role_requests WHERE user_id = $1 AND status = 'pending'`, userID)
}

func (r *RoleRequestRepo) findOne(ctx context.Context, query string, arg any) (*entity.RoleRequest, error) {
	rr, err := scanRoleRequest(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role request: %w", err)
	}
	return rr, nil
}

// List solicitudes filtradas por usuario y estado.
func (r *RoleRequestRepo) List(ctx context.Context, userID, status string, limit, offset int) ([]*entity.RoleRequest, int, error) {
	var (
		conds []string
		args  []any
	)
	if userID != "" {
		args = append(args, userID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM role_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count role requests: %w", err)
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM role_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		roleRequestColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list role requests: %w", err)
	}
	defer rows.Close()
	var list []*entity.RoleRequest
	for rows.Next() {
		rr, err := scanRoleRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan role request: %w", err)
		}
		list = append(list, rr)
	}
	return list, total, rows.Err()
}

// Update guarda la revisión.
func (r *RoleRequestRepo) Update(ctx context.Context, rr *entity.RoleRequest) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE role_requests SET status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`,
		rr.ID, rr.Status, nullIfEmpty(rr.ReviewedBy), rr.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update role request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRoleRequest(row pgx.Row) (*entity.RoleRequest, error) {
	var rr entity.RoleRequest
	if err := row.Scan(&rr.ID, &rr.UserID, &rr.RequestedRole, &rr.Reason, &rr.Status, &rr.ReviewedBy, &rr.ReviewedAt, &rr.CreatedAt); err != nil {
		return nil, err
	}
	return &rr, nil
}
