package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const ruleColumns = `id, professional_id, weekday, specific_date, start_time, end_time,
	slot_duration_minutes, active, closed, created_at`

// queryRower is satisfied by both the pool and a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanRule(row pgx.Row) (*Rule, error) {
	var (
		r            Rule
		weekday      *int16
		specificDate *time.Time
		start, end   pgtype.Time
	)

	err := row.Scan(
		&r.ID,
		&r.ProfessionalID,
		&weekday,
		&specificDate,
		&start,
		&end,
		&r.SlotDurationMinutes,
		&r.Active,
		&r.Closed,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	if weekday != nil {
		w := Weekday(*weekday)
		r.Weekday = &w
	}
	if specificDate != nil {
		d := DateOf(*specificDate)
		r.SpecificDate = &d
	}
	r.StartTime = fromPgTime(start)
	r.EndTime = fromPgTime(end)

	return &r, nil
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / int64(time.Second/time.Microsecond))
}

func toPgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

func ruleArgs(r Rule) []any {
	var weekday *int16
	if r.Weekday != nil {
		w := int16(*r.Weekday)
		weekday = &w
	}
	var specificDate *time.Time
	if r.SpecificDate != nil {
		d := r.SpecificDate.In(time.UTC)
		specificDate = &d
	}
	return []any{
		r.ID,
		r.ProfessionalID,
		weekday,
		specificDate,
		toPgTime(r.StartTime),
		toPgTime(r.EndTime),
		r.SlotDurationMinutes,
		r.Active,
		r.Closed,
	}
}

func insertRule(ctx context.Context, q queryRower, rule Rule) (*Rule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	row := q.QueryRow(ctx, `
		INSERT INTO availability_rules (id, professional_id, weekday, specific_date, start_time, end_time,
			slot_duration_minutes, active, closed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING `+ruleColumns,
		ruleArgs(rule)...)
	return scanRule(row)
}

func (r *PgRepository) Insert(ctx context.Context, rule Rule) (*Rule, error) {
	return insertRule(ctx, r.pool, rule)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_rules
		WHERE id = $1
	`, id)
	return scanRule(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) ReplaceAll(ctx context.Context, professionalID uuid.UUID, rules []Rule) ([]Rule, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE professional_id = $1`, professionalID); err != nil {
		return nil, fmt.Errorf("delete rules: %w", err)
	}

	stored := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		rule.ProfessionalID = professionalID
		created, err := insertRule(ctx, tx, rule)
		if err != nil {
			return nil, fmt.Errorf("insert rule: %w", err)
		}
		stored = append(stored, *created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return stored, nil
}

func (r *PgRepository) ListActive(ctx context.Context, professionalID uuid.UUID) ([]Rule, error) {
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_rules
		WHERE professional_id = $1 AND active
		ORDER BY specific_date NULLS FIRST, weekday, start_time
	`, professionalID)
}

func (r *PgRepository) ListActiveByKey(ctx context.Context, professionalID uuid.UUID, key Key) ([]Rule, error) {
	if key.Recurring {
		return r.list(ctx, `
			SELECT `+ruleColumns+`
			FROM availability_rules
			WHERE professional_id = $1 AND active AND weekday = $2
			ORDER BY start_time
		`, professionalID, int16(key.Weekday))
	}
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_rules
		WHERE professional_id = $1 AND active AND specific_date = $2
		ORDER BY start_time
	`, professionalID, key.Date.In(time.UTC))
}

func (r *PgRepository) list(ctx context.Context, sql string, args ...any) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
