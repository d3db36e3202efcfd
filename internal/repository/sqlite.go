package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// NewSQLiteStores builds the SQLite-backed gateways sharing one handle.
// Dates are stored as YYYY-MM-DD text so BETWEEN compares lexically.
func NewSQLiteStores(db *sql.DB) Stores {
	return Stores{
		Events:       &SQLiteEventStore{db: db},
		Participants: &SQLiteParticipantStore{db: db},
		Logistics:    &SQLiteLogisticsStore{db: db},
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func participantSaveError(reference string, err error) error {
	if isSQLiteUniqueViolation(err) {
		return fmt.Errorf("participant reference %q already exists: %w", reference, ErrConflict)
	}
	return fmt.Errorf("save participant: %w", err)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// ─── Events ──────────────────────────────────────────────────────────────────

// SQLiteEventStore handles persistence for events.
type SQLiteEventStore struct {
	db *sql.DB
}

func scanSQLiteEvent(row scanner) (*model.Event, error) {
	var (
		e          model.Event
		start, end string
	)
	if err := row.Scan(&e.ID, &e.Description, &start, &end, &e.Cost); err != nil {
		return nil, err
	}
	var err error
	if e.StartDate, err = model.ParseDate(start); err != nil {
		return nil, fmt.Errorf("event %d start_date: %w", e.ID, err)
	}
	if e.EndDate, err = model.ParseDate(end); err != nil {
		return nil, fmt.Errorf("event %d end_date: %w", e.ID, err)
	}
	return &e, nil
}

func collectSQLiteEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// FindByID returns the event with its participants and logistics, or ErrNotFound.
func (r *SQLiteEventStore) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanSQLiteEvent(r.db.QueryRowContext(ctx,
		`SELECT id, description, start_date, end_date, cost FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return r.loadRelations(ctx, e)
}

// ExistsByID reports whether an event row with id exists.
func (r *SQLiteEventStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}

// Save upserts the event row and replaces its participant links atomically.
func (r *SQLiteEventStore) Save(ctx context.Context, event *model.Event) (*model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := *event
	if saved.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO events (description, start_date, end_date, cost) VALUES (?, ?, ?, ?)`,
			saved.Description, formatDate(saved.StartDate), formatDate(saved.EndDate), saved.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
		if saved.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("insert event id: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, description, start_date, end_date, cost)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   description = excluded.description,
			   start_date  = excluded.start_date,
			   end_date    = excluded.end_date,
			   cost        = excluded.cost`,
			saved.ID, saved.Description, formatDate(saved.StartDate), formatDate(saved.EndDate), saved.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert event: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = ?`, saved.ID,
	); err != nil {
		return nil, fmt.Errorf("clear participant links: %w", err)
	}
	for _, p := range saved.Participants {
		if p.ID == 0 {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_participants (event_id, participant_id) VALUES (?, ?)`,
			saved.ID, p.ID,
		); err != nil {
			return nil, fmt.Errorf("link participant %d: %w", p.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &saved, nil
}

// DeleteByID removes the event; links and logistics cascade.
func (r *SQLiteEventStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByDescription returns the oldest event with exactly this description.
func (r *SQLiteEventStore) FindByDescription(ctx context.Context, description string) (*model.Event, error) {
	e, err := scanSQLiteEvent(r.db.QueryRowContext(ctx,
		`SELECT id, description, start_date, end_date, cost
		 FROM events WHERE description = ? ORDER BY id LIMIT 1`,
		description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event by description: %w", err)
	}
	return r.loadRelations(ctx, e)
}

// List returns all events ordered by start date, without relations.
func (r *SQLiteEventStore) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, start_date, end_date, cost FROM events ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectSQLiteEvents(rows)
}

// FindByParticipantRole returns the events a participant with the given role takes part in.
func (r *SQLiteEventStore) FindByParticipantRole(ctx context.Context, participantID int64, role model.Role) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.description, e.start_date, e.end_date, e.cost
		 FROM events e
		 JOIN event_participants ep ON ep.event_id = e.id
		 JOIN participants p ON p.id = ep.participant_id
		 WHERE p.id = ? AND p.role = ?
		 ORDER BY e.start_date, e.id`,
		participantID, string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by participant: %w", err)
	}
	return collectSQLiteEvents(rows)
}

func (r *SQLiteEventStore) loadRelations(ctx context.Context, e *model.Event) (*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.reference, p.first_name, p.last_name, p.role
		 FROM participants p
		 JOIN event_participants ep ON ep.participant_id = p.id
		 WHERE ep.event_id = ?
		 ORDER BY p.id`,
		e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event participants: %w", err)
	}
	e.Participants, err = collectSQLiteParticipants(rows)
	if err != nil {
		return nil, err
	}

	e.Logistics, err = (&SQLiteLogisticsStore{db: r.db}).FindByEvent(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ─── Participants ────────────────────────────────────────────────────────────

// SQLiteParticipantStore handles persistence for participants.
type SQLiteParticipantStore struct {
	db *sql.DB
}

func scanSQLiteParticipant(row scanner) (*model.Participant, error) {
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

func collectSQLiteParticipants(rows *sql.Rows) ([]model.Participant, error) {
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanSQLiteParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// FindByID returns a single participant or ErrNotFound.
func (r *SQLiteParticipantStore) FindByID(ctx context.Context, id int64) (*model.Participant, error) {
	p, err := scanSQLiteParticipant(r.db.QueryRowContext(ctx,
		`SELECT id, reference, first_name, last_name, role FROM participants WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// FindByReference returns the participant registered under reference or ErrNotFound.
func (r *SQLiteParticipantStore) FindByReference(ctx context.Context, reference string) (*model.Participant, error) {
	p, err := scanSQLiteParticipant(r.db.QueryRowContext(ctx,
		`SELECT id, reference, first_name, last_name, role FROM participants WHERE reference = ?`, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant by reference: %w", err)
	}
	return p, nil
}

// Save upserts the participant by ID.
func (r *SQLiteParticipantStore) Save(ctx context.Context, participant *model.Participant) (*model.Participant, error) {
	saved := *participant
	if saved.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO participants (reference, first_name, last_name, role) VALUES (?, ?, ?, ?)`,
			saved.Reference, saved.FirstName, saved.LastName, string(saved.Role),
		)
		if err != nil {
			return nil, participantSaveError(saved.Reference, err)
		}
		if saved.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("save participant id: %w", err)
		}
		return &saved, nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO participants (id, reference, first_name, last_name, role)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   reference  = excluded.reference,
		   first_name = excluded.first_name,
		   last_name  = excluded.last_name,
		   role       = excluded.role`,
		saved.ID, saved.Reference, saved.FirstName, saved.LastName, string(saved.Role),
	)
	if err != nil {
		return nil, participantSaveError(saved.Reference, err)
	}
	return &saved, nil
}

// ─── Logistics ───────────────────────────────────────────────────────────────

// SQLiteLogisticsStore handles persistence for logistics entries.
type SQLiteLogisticsStore struct {
	db *sql.DB
}

func collectSQLiteLogistics(rows *sql.Rows) ([]model.Logistics, error) {
	defer rows.Close()

	var items []model.Logistics
	for rows.Next() {
		var (
			l       model.Logistics
			eventID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.Description, &l.Reserved, &l.Price, &eventID); err != nil {
			return nil, fmt.Errorf("scan logistics: %w", err)
		}
		l.EventID = eventID.Int64
		items = append(items, l)
	}
	return items, rows.Err()
}

// Save upserts the logistics entry by ID.
func (r *SQLiteLogisticsStore) Save(ctx context.Context, logistics *model.Logistics) (*model.Logistics, error) {
	saved := *logistics
	if saved.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO logistics (description, reserved, price, event_id) VALUES (?, ?, ?, ?)`,
			saved.Description, saved.Reserved, saved.Price, nullableID(saved.EventID),
		)
		if err != nil {
			return nil, fmt.Errorf("save logistics: %w", err)
		}
		if saved.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("save logistics id: %w", err)
		}
		return &saved, nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO logistics (id, description, reserved, price, event_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   description = excluded.description,
		   reserved    = excluded.reserved,
		   price       = excluded.price,
		   event_id    = excluded.event_id`,
		saved.ID, saved.Description, saved.Reserved, saved.Price, nullableID(saved.EventID),
	)
	if err != nil {
		return nil, fmt.Errorf("save logistics: %w", err)
	}
	return &saved, nil
}

// FindByEvent returns all logistics attached to the event.
func (r *SQLiteLogisticsStore) FindByEvent(ctx context.Context, eventID int64) ([]model.Logistics, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, reserved, price, event_id
		 FROM logistics WHERE event_id = ? ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event logistics: %w", err)
	}
	return collectSQLiteLogistics(rows)
}

// FindByEventDatesBetween returns logistics whose event starts or ends within [from, to].
func (r *SQLiteLogisticsStore) FindByEventDatesBetween(ctx context.Context, from, to time.Time) ([]model.Logistics, error) {
	lo, hi := formatDate(from), formatDate(to)
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.description, l.reserved, l.price, l.event_id
		 FROM logistics l
		 JOIN events e ON e.id = l.event_id
		 WHERE e.start_date BETWEEN ? AND ?
		    OR e.end_date BETWEEN ? AND ?
		 ORDER BY e.start_date, l.id`,
		lo, hi, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("list logistics by dates: %w", err)
	}
	return collectSQLiteLogistics(rows)
}
