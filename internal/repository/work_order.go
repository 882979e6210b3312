package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bessima/fieldops/internal/config/db"
	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/retry"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const workOrderColumns = `id,order_no,status,service_date,location,technician,notes,completion_status,source,reviewed_by,review_note,imported_at,updated_at`

type WorkOrderRepository struct {
	db *db.DB
}

type WorkOrderStorageRepositoryI interface {
	Upsert(ctx context.Context, order models.WorkOrder) (bool, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*models.WorkOrder, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, error)
	UpdateStatus(ctx context.Context, orderNo string, allowed []models.OrderStatus, to models.OrderStatus, actor string, note *string) (*models.WorkOrder, *models.StatusChange, error)
	ListStatusChanges(ctx context.Context, orderNo string) ([]models.StatusChange, error)
}

func NewWorkOrderRepository(dbObj *db.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: dbObj}
}

// Upsert inserts the order or refreshes its imported fields. Review state
// (status, reviewer) of an existing row is left untouched. The returned flag
// is true for a fresh insert.
func (repository *WorkOrderRepository) Upsert(ctx context.Context, order models.WorkOrder) (bool, error) {
	query := `INSERT INTO work_orders (order_no,status,service_date,location,technician,notes,completion_status,source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_no) DO UPDATE SET
			service_date = COALESCE(EXCLUDED.service_date, work_orders.service_date),
			location = EXCLUDED.location,
			technician = EXCLUDED.technician,
			notes = EXCLUDED.notes,
			completion_status = EXCLUDED.completion_status,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted`

	return retry.DoRetryWithResult(ctx, func() (bool, error) {
		var inserted bool
		err := repository.db.Pool.QueryRow(
			ctx,
			query,
			order.OrderNo,
			order.Status,
			order.ServiceDate,
			order.Location,
			order.Technician,
			order.Notes,
			order.CompletionStatus,
			order.Source,
		).Scan(&inserted)
		if err != nil {
			return false, wrapPGError(err, order.OrderNo)
		}
		return inserted, nil
	})
}

func (repository *WorkOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE order_no = $1`

	return retry.DoRetryWithResult(ctx, func() (*models.WorkOrder, error) {
		row := repository.db.Pool.QueryRow(ctx, query, orderNo)

		order, err := scanWorkOrder(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customerror.NewNotFoundError(fmt.Sprintf("order %s", orderNo))
		}
		if err != nil {
			return nil, err
		}
		return order, nil
	})
}

// List returns orders matching filter ordered by service date, undated last.
func (repository *WorkOrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("service_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("service_date < $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY service_date NULLS LAST, order_no`

	return retry.DoRetryWithResult(ctx, func() ([]models.WorkOrder, error) {
		rows, err := repository.db.Pool.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		orders := []models.WorkOrder{}
		for rows.Next() {
			order, err := scanWorkOrder(rows)
			if err != nil {
				return nil, err
			}
			orders = append(orders, *order)
		}

		if err = rows.Err(); err != nil {
			return nil, err
		}
		return orders, nil
	})
}

// UpdateStatus переводит заказ в статус to, если текущий статус входит в allowed,
// и записывает изменение в status_changes в одной транзакции.
func (repository *WorkOrderRepository) UpdateStatus(
	ctx context.Context,
	orderNo string,
	allowed []models.OrderStatus,
	to models.OrderStatus,
	actor string,
	note *string,
) (*models.WorkOrder, *models.StatusChange, error) {
	querySelect := `SELECT status FROM work_orders WHERE order_no = $1 FOR UPDATE`
	queryUpdate := `UPDATE work_orders SET status = $1, reviewed_by = $2, review_note = $3, updated_at = now()
		WHERE order_no = $4 RETURNING ` + workOrderColumns
	queryHistory := `INSERT INTO status_changes (order_no, from_status, to_status, actor, note) VALUES ($1, $2, $3, $4, $5)`

	type updated struct {
		order  *models.WorkOrder
		change *models.StatusChange
	}

	result, err := retry.DoRetryWithResult(ctx, func() (*updated, error) {
		tx, err := repository.db.Pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		var current models.OrderStatus
		err = tx.QueryRow(ctx, querySelect, orderNo).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			err = customerror.NewNotFoundError(fmt.Sprintf("order %s", orderNo))
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		if !containsStatus(allowed, current) {
			err = customerror.NewConflictError(fmt.Sprintf("order %s cannot move from %s to %s", orderNo, current, to))
			return nil, err
		}

		order, err := scanWorkOrder(tx.QueryRow(ctx, queryUpdate, to, actor, note, orderNo))
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, queryHistory, orderNo, current, to, actor, note)
		if err != nil {
			return nil, err
		}

		if err = tx.Commit(ctx); err != nil {
			return nil, err
		}

		return &updated{
			order: order,
			change: &models.StatusChange{
				OrderNo:   orderNo,
				From:      current,
				To:        to,
				Actor:     actor,
				Note:      note,
				ChangedAt: order.UpdatedAt,
			},
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result.order, result.change, nil
}

func (repository *WorkOrderRepository) ListStatusChanges(ctx context.Context, orderNo string) ([]models.StatusChange, error) {
	query := `SELECT order_no,from_status,to_status,actor,note,changed_at FROM status_changes WHERE order_no = $1 ORDER BY changed_at, id`

	return retry.DoRetryWithResult(ctx, func() ([]models.StatusChange, error) {
		rows, err := repository.db.Pool.Query(ctx, query, orderNo)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		changes := []models.StatusChange{}
		for rows.Next() {
			var change models.StatusChange
			err = rows.Scan(&change.OrderNo, &change.From, &change.To, &change.Actor, &change.Note, &change.ChangedAt)
			if err != nil {
				return nil, err
			}
			changes = append(changes, change)
		}

		if err = rows.Err(); err != nil {
			return nil, err
		}
		return changes, nil
	})
}

func scanWorkOrder(row pgx.Row) (*models.WorkOrder, error) {
	order := models.WorkOrder{}
	err := row.Scan(
		&order.ID,
		&order.OrderNo,
		&order.Status,
		&order.ServiceDate,
		&order.Location,
		&order.Technician,
		&order.Notes,
		&order.CompletionStatus,
		&order.Source,
		&order.ReviewedBy,
		&order.ReviewNote,
		&order.ImportedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func wrapPGError(err error, orderNo string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return customerror.NewUniqueViolationError(fmt.Sprintf("order %s already exists", orderNo))
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return err
		}
		return customerror.NewCommonPGError(err.Error())
	}
	return err
}

func containsStatus(statuses []models.OrderStatus, status models.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
