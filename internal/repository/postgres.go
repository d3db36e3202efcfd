package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// NewPostgresStores builds the pgx-backed gateways sharing one pool.
func NewPostgresStores(db *pgxpool.Pool) Stores {
	return Stores{
		Events:       &PostgresEventStore{db: db},
		Participants: &PostgresParticipantStore{db: db},
		Logistics:    &PostgresLogisticsStore{db: db},
	}
}

// ─── Events ──────────────────────────────────────────────────────────────────

// PostgresEventStore handles persistence for events.
type PostgresEventStore struct {
	db *pgxpool.Pool
}

const pgEventColumns = `id, description, start_date, end_date, cost`

func scanPgEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Description, &e.StartDate, &e.EndDate, &e.Cost); err != nil {
		return nil, err
	}
	return &e, nil
}

func collectPgEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanPgEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// FindByID returns the event with its participants and logistics, or ErrNotFound.
func (r *PostgresEventStore) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanPgEvent(r.db.QueryRow(ctx,
		`SELECT `+pgEventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return r.loadRelations(ctx, e)
}

// ExistsByID reports whether an event row with id exists.
func (r *PostgresEventStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}

// Save upserts the event row and replaces its participant links atomically.
func (r *PostgresEventStore) Save(ctx context.Context, event *model.Event) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	saved := *event
	if saved.ID == 0 {
		err = tx.QueryRow(ctx,
			`INSERT INTO events (description, start_date, end_date, cost)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			saved.Description, saved.StartDate, saved.EndDate, saved.Cost,
		).Scan(&saved.ID)
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx,
			`INSERT INTO events (id, description, start_date, end_date, cost)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			   description = EXCLUDED.description,
			   start_date  = EXCLUDED.start_date,
			   end_date    = EXCLUDED.end_date,
			   cost        = EXCLUDED.cost`,
			saved.ID, saved.Description, saved.StartDate, saved.EndDate, saved.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert event: %w", err)
		}
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM event_participants WHERE event_id = $1`, saved.ID,
	); err != nil {
		return nil, fmt.Errorf("clear participant links: %w", err)
	}
	for _, p := range saved.Participants {
		if p.ID == 0 {
			continue
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO event_participants (event_id, participant_id)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			saved.ID, p.ID,
		); err != nil {
			return nil, fmt.Errorf("link participant %d: %w", p.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &saved, nil
}

// DeleteByID removes the event; links and logistics cascade.
func (r *PostgresEventStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByDescription returns the oldest event with exactly this description.
func (r *PostgresEventStore) FindByDescription(ctx context.Context, description string) (*model.Event, error) {
	e, err := scanPgEvent(r.db.QueryRow(ctx,
		`SELECT `+pgEventColumns+` FROM events WHERE description = $1 ORDER BY id LIMIT 1`,
		description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event by description: %w", err)
	}
	return r.loadRelations(ctx, e)
}

// List returns all events ordered by start date, without relations.
func (r *PostgresEventStore) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+pgEventColumns+` FROM events ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectPgEvents(rows)
}

// FindByParticipantRole returns the events a participant with the given role takes part in.
func (r *PostgresEventStore) FindByParticipantRole(ctx context.Context, participantID int64, role model.Role) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.description, e.start_date, e.end_date, e.cost
		 FROM events e
		 JOIN event_participants ep ON ep.event_id = e.id
		 JOIN participants p ON p.id = ep.participant_id
		 WHERE p.id = $1 AND p.role = $2
		 ORDER BY e.start_date, e.id`,
		participantID, string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by participant: %w", err)
	}
	return collectPgEvents(rows)
}

func (r *PostgresEventStore) loadRelations(ctx context.Context, e *model.Event) (*model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.reference, p.first_name, p.last_name, p.role
		 FROM participants p
		 JOIN event_participants ep ON ep.participant_id = p.id
		 WHERE ep.event_id = $1
		 ORDER BY p.id`,
		e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event participants: %w", err)
	}
	e.Participants, err = collectPgParticipants(rows)
	if err != nil {
		return nil, err
	}

	e.Logistics, err = (&PostgresLogisticsStore{db: r.db}).FindByEvent(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ─── Participants ────────────────────────────────────────────────────────────

// PostgresParticipantStore handles persistence for participants.
type PostgresParticipantStore struct {
	db *pgxpool.Pool
}

func scanPgParticipant(row pgx.Row) (*model.Participant, error) {
	var (
		p    model.Participant
		role string
	)
	if err := row.Scan(&p.ID, &p.Reference, &p.FirstName, &p.LastName, &role); err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}

func collectPgParticipants(rows pgx.Rows) ([]model.Participant, error) {
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanPgParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// FindByID returns a single participant or ErrNotFound.
func (r *PostgresParticipantStore) FindByID(ctx context.Context, id int64) (*model.Participant, error) {
	p, err := scanPgParticipant(r.db.QueryRow(ctx,
		`SELECT id, reference, first_name, last_name, role FROM participants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// FindByReference returns the participant registered under reference or ErrNotFound.
func (r *PostgresParticipantStore) FindByReference(ctx context.Context, reference string) (*model.Participant, error) {
	p, err := scanPgParticipant(r.db.QueryRow(ctx,
		`SELECT id, reference, first_name, last_name, role FROM participants WHERE reference = $1`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant by reference: %w", err)
	}
	return p, nil
}

// Save upserts the participant by ID.
func (r *PostgresParticipantStore) Save(ctx context.Context, participant *model.Participant) (*model.Participant, error) {
	saved := *participant
	var err error
	if saved.ID == 0 {
		err = r.db.QueryRow(ctx,
			`INSERT INTO participants (reference, first_name, last_name, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			saved.Reference, saved.FirstName, saved.LastName, string(saved.Role),
		).Scan(&saved.ID)
	} else {
		_, err = r.db.Exec(ctx,
			`INSERT INTO participants (id, reference, first_name, last_name, role)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			   reference  = EXCLUDED.reference,
			   first_name = EXCLUDED.first_name,
			   last_name  = EXCLUDED.last_name,
			   role       = EXCLUDED.role`,
			saved.ID, saved.Reference, saved.FirstName, saved.LastName, string(saved.Role),
		)
	}
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, fmt.Errorf("participant reference %q already exists: %w", saved.Reference, ErrConflict)
		}
		return nil, fmt.Errorf("save participant: %w", err)
	}
	return &saved, nil
}

// ─── Logistics ───────────────────────────────────────────────────────────────

// PostgresLogisticsStore handles persistence for logistics entries.
type PostgresLogisticsStore struct {
	db *pgxpool.Pool
}

func collectPgLogistics(rows pgx.Rows) ([]model.Logistics, error) {
	defer rows.Close()

	var items []model.Logistics
	for rows.Next() {
		var (
			l       model.Logistics
			eventID *int64
		)
		if err := rows.Scan(&l.ID, &l.Description, &l.Reserved, &l.Price, &eventID); err != nil {
			return nil, fmt.Errorf("scan logistics: %w", err)
		}
		l.EventID = derefID(eventID)
		items = append(items, l)
	}
	return items, rows.Err()
}

// Save upserts the logistics entry by ID.
func (r *PostgresLogisticsStore) Save(ctx context.Context, logistics *model.Logistics) (*model.Logistics, error) {
	saved := *logistics
	var err error
	if saved.ID == 0 {
		err = r.db.QueryRow(ctx,
			`INSERT INTO logistics (description, reserved, price, event_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			saved.Description, saved.Reserved, saved.Price, nullableID(saved.EventID),
		).Scan(&saved.ID)
	} else {
		_, err = r.db.Exec(ctx,
			`INSERT INTO logistics (id, description, reserved, price, event_id)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			   description = EXCLUDED.description,
			   reserved    = EXCLUDED.reserved,
			   price       = EXCLUDED.price,
			   event_id    = EXCLUDED.event_id`,
			saved.ID, saved.Description, saved.Reserved, saved.Price, nullableID(saved.EventID),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("save logistics: %w", err)
	}
	return &saved, nil
}

// FindByEvent returns all logistics attached to the event.
func (r *PostgresLogisticsStore) FindByEvent(ctx context.Context, eventID int64) ([]model.Logistics, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, description, reserved, price, event_id
		 FROM logistics WHERE event_id = $1 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event logistics: %w", err)
	}
	return collectPgLogistics(rows)
}

// FindByEventDatesBetween returns logistics whose event starts or ends within [from, to].
func (r *PostgresLogisticsStore) FindByEventDatesBetween(ctx context.Context, from, to time.Time) ([]model.Logistics, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.description, l.reserved, l.price, l.event_id
		 FROM logistics l
		 JOIN events e ON e.id = l.event_id
		 WHERE e.start_date BETWEEN $1 AND $2
		    OR e.end_date BETWEEN $1 AND $2
		 ORDER BY e.start_date, l.id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list logistics by dates: %w", err)
	}
	return collectPgLogistics(rows)
}
