package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"betledger/internal/bet"
	"betledger/internal/method"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrMethodInUse     = errors.New("method is in use")
	ErrDuplicateMethod = errors.New("a method with that name already exists")
	ErrUnknownMethod   = errors.New("unknown method")
)

// Store persists bets and methods.
type Store struct {
	db *DB
}

func NewStore(d *DB) *Store {
	return &Store{db: d}
}

var _ method.Backend = (*Store)(nil)

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const betColumns = `b.id, b.placed_at, b.game, b.method_id, m.name, b.risk, b.profit_loss`

const betSelect = `SELECT ` + betColumns + ` FROM bets b JOIN methods m ON m.id = b.method_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (bet.Bet, error) {
	var (
		b      bet.Bet
		placed string
	)
	if err := row.Scan(&b.ID, &placed, &b.Game, &b.MethodID, &b.MethodName, &b.Risk, &b.ProfitLoss); err != nil {
		return bet.Bet{}, err
	}
	ts, err := bet.ParseTimestamp(placed)
	if err != nil {
		return bet.Bet{}, fmt.Errorf("bet %d: %w", b.ID, err)
	}
	b.Timestamp = ts
	return b, nil
}

// ListBets returns every bet, newest first.
func (s *Store) ListBets(ctx context.Context) ([]bet.Bet, error) {
	rows, err := s.db.QueryContext(ctx, betSelect+` ORDER BY b.placed_at DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying bets: %w", err)
	}
	defer rows.Close()

	bets := []bet.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func (s *Store) GetBet(ctx context.Context, id int64) (bet.Bet, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(betSelect+` WHERE b.id = ?`), id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return bet.Bet{}, fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return bet.Bet{}, fmt.Errorf("loading bet %d: %w", id, err)
	}
	return b, nil
}

// CreateBet inserts f and returns the stored bet with its new id.
func (s *Store) CreateBet(ctx context.Context, f bet.Fields) (bet.Bet, error) {
	if err := s.requireMethod(ctx, f.MethodID); err != nil {
		return bet.Bet{}, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.db.rebind(`
		INSERT INTO bets (placed_at, game, method_id, risk, profit_loss)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		f.Timestamp.String(), f.Game, f.MethodID, f.Risk, f.ProfitLoss,
	).Scan(&id)
	if err != nil {
		return bet.Bet{}, fmt.Errorf("inserting bet: %w", err)
	}
	return s.GetBet(ctx, id)
}

// UpdateBet replaces every field of bet id.
func (s *Store) UpdateBet(ctx context.Context, id int64, f bet.Fields) (bet.Bet, error) {
	if err := s.requireMethod(ctx, f.MethodID); err != nil {
		return bet.Bet{}, err
	}

	res, err := s.db.ExecContext(ctx, s.db.rebind(`
		UPDATE bets
		SET placed_at = ?, game = ?, method_id = ?, risk = ?, profit_loss = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		f.Timestamp.String(), f.Game, f.MethodID, f.Risk, f.ProfitLoss, id,
	)
	if err != nil {
		return bet.Bet{}, fmt.Errorf("updating bet %d: %w", id, err)
	}
	if err := requireAffected(res, "bet", id); err != nil {
		return bet.Bet{}, err
	}
	return s.GetBet(ctx, id)
}

func (s *Store) DeleteBet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(`DELETE FROM bets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting bet %d: %w", id, err)
	}
	return requireAffected(res, "bet", id)
}

// ListMethods returns every method in creation order.
func (s *Store) ListMethods(ctx context.Context) ([]method.Method, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM methods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying methods: %w", err)
	}
	defer rows.Close()

	methods := []method.Method{}
	for rows.Next() {
		var m method.Method
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *Store) GetMethod(ctx context.Context, id int64) (method.Method, error) {
	var m method.Method
	err := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT id, name FROM methods WHERE id = ?`), id).
		Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return method.Method{}, fmt.Errorf("method %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return method.Method{}, fmt.Errorf("loading method %d: %w", id, err)
	}
	return m, nil
}

// CreateMethod inserts a method. Names are unique and compared exactly.
func (s *Store) CreateMethod(ctx context.Context, name string) (method.Method, error) {
	if err := s.requireUniqueName(ctx, name, 0); err != nil {
		return method.Method{}, err
	}

	m := method.Method{Name: name}
	err := s.db.QueryRowContext(ctx, s.db.rebind(`INSERT INTO methods (name) VALUES (?) RETURNING id`), name).
		Scan(&m.ID)
	if err != nil {
		return method.Method{}, fmt.Errorf("inserting method: %w", err)
	}
	return m, nil
}

// UpdateMethod renames method id.
func (s *Store) UpdateMethod(ctx context.Context, id int64, name string) (method.Method, error) {
	if _, err := s.GetMethod(ctx, id); err != nil {
		return method.Method{}, err
	}
	if err := s.requireUniqueName(ctx, name, id); err != nil {
		return method.Method{}, err
	}

	if _, err := s.db.ExecContext(ctx, s.db.rebind(`UPDATE methods SET name = ? WHERE id = ?`), name, id); err != nil {
		return method.Method{}, fmt.Errorf("updating method %d: %w", id, err)
	}
	return method.Method{ID: id, Name: name}, nil
}

// DeleteMethod removes a method that no bet references. A referenced method
// is left in place and ErrMethodInUse is returned with the bet count.
func (s *Store) DeleteMethod(ctx context.Context, id int64) error {
	if _, err := s.GetMethod(ctx, id); err != nil {
		return err
	}
	n, err := s.CountBetsForMethod(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w by %d bet(s)", ErrMethodInUse, n)
	}

	res, err := s.db.ExecContext(ctx, s.db.rebind(`DELETE FROM methods WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting method %d: %w", id, err)
	}
	return requireAffected(res, "method", id)
}

func (s *Store) CountBetsForMethod(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT count(*) FROM bets WHERE method_id = ?`), id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting bets for method %d: %w", id, err)
	}
	return n, nil
}

// SeedMethods inserts names when the method table is empty and reports how
// many were added.
func (s *Store) SeedMethods(ctx context.Context, names []string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM methods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting methods: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	added := 0
	for _, name := range names {
		name, err := method.NormalizeName(name)
		if err != nil {
			continue
		}
		if _, err := s.CreateMethod(ctx, name); err != nil {
			if errors.Is(err, ErrDuplicateMethod) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Store) requireMethod(ctx context.Context, id int64) error {
	if _, err := s.GetMethod(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("method %d: %w", id, ErrUnknownMethod)
		}
		return err
	}
	return nil
}

// requireUniqueName fails if another method (other than except) has name.
func (s *Store) requireUniqueName(ctx context.Context, name string, except int64) error {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT count(*) FROM methods WHERE name = ? AND id <> ?`), name, except).
		Scan(&n)
	if err != nil {
		return fmt.Errorf("checking method name: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%q: %w", name, ErrDuplicateMethod)
	}
	return nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
