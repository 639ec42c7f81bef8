// Package postgres implements the store interface for PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq" // registers the postgres driver used by database/sql

	"github.com/idefi-ai/agents/lib/store"
)

// schema is applied by Migrate.
const schema = `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id        TEXT PRIMARY KEY,
	user_email     TEXT NOT NULL DEFAULT '',
	wallet_address TEXT NOT NULL DEFAULT '',
	agent1         BOOLEAN NOT NULL DEFAULT FALSE,
	agent2         BOOLEAN NOT NULL DEFAULT FALSE,
	agent3         BOOLEAN NOT NULL DEFAULT FALSE,
	component_a    BOOLEAN NOT NULL DEFAULT FALSE,
	component_b    BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS insights (
	id           BIGSERIAL PRIMARY KEY,
	user_address TEXT NOT NULL,
	insights     TEXT NOT NULL,
	ts           BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS mail (
	id      BIGSERIAL PRIMARY KEY,
	to_addr TEXT NOT NULL,
	subject TEXT NOT NULL,
	html    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS monitored_addresses (
	id      BIGSERIAL PRIMARY KEY,
	net     TEXT NOT NULL,
	name    TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL,
	UNIQUE (net, name, address)
);`

// Postgres implements a connection to a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection' and makes sure the schema
// exists.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB in %s: %w", connection, err)
	}

	p := NewWithDB(db)
	if err = p.Migrate(context.Background()); err != nil {
		_ = db.Close()

		return nil, err
	}

	return p, nil
}

// NewWithDB wraps an already opened database.
func NewWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables used by the store.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("cannot create schema: %w", err)
	}

	return nil
}

// ClosePostgres will close any database connection. Must be called at termination time.
func (p *Postgres) ClosePostgres() error {
	return p.db.Close()
}

// LoadSettings reads the settings row of userID.
func (p *Postgres) LoadSettings(ctx context.Context, userID string) (s store.UserSettings, err error) {
	err = p.db.QueryRowContext(ctx,
		`SELECT user_id, user_email, wallet_address, agent1, agent2, agent3, component_a, component_b
		FROM user_settings WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.UserEmail, &s.WalletAddress, &s.Preferences.Agent1, &s.Preferences.Agent2,
			&s.Preferences.Agent3, &s.Preferences.ComponentA, &s.Preferences.ComponentB)
	if errors.Is(err, sql.ErrNoRows) {
		err = store.ErrDataNotFound
	}

	return
}

// SaveSettings upserts the settings row of s.UserID.
func (p *Postgres) SaveSettings(ctx context.Context, s store.UserSettings) error {
	if s.UserID == "" {
		return store.ErrNoUser
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, user_email, wallet_address, agent1, agent2, agent3, component_a, component_b)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET user_email = EXCLUDED.user_email,
			wallet_address = EXCLUDED.wallet_address, agent1 = EXCLUDED.agent1, agent2 = EXCLUDED.agent2,
			agent3 = EXCLUDED.agent3, component_a = EXCLUDED.component_a, component_b = EXCLUDED.component_b`,
		s.UserID, s.UserEmail, s.WalletAddress, s.Preferences.Agent1, s.Preferences.Agent2, s.Preferences.Agent3,
		s.Preferences.ComponentA, s.Preferences.ComponentB)
	if err != nil {
		return fmt.Errorf("could not save settings for %s: %w", s.UserID, err)
	}

	return nil
}

// AddInsight appends a record to the insight log.
func (p *Postgres) AddInsight(ctx context.Context, i store.Insight) error {
	if _, err := p.db.ExecContext(ctx, `INSERT INTO insights (user_address, insights, ts) VALUES ($1, $2, $3)`,
		i.UserAddress, i.Insights, i.Timestamp); err != nil {
		return fmt.Errorf("could not insert insight: %w", err)
	}

	return nil
}

// GetInsights returns the insight records of address ordered by timestamp.
func (p *Postgres) GetInsights(ctx context.Context, address string) ([]store.Insight, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT user_address, insights, ts FROM insights WHERE user_address = $1 ORDER BY ts, id`, address)
	if err != nil {
		return nil, fmt.Errorf("could not query insights: %w", err)
	}
	defer rows.Close()

	r := []store.Insight{}

	for rows.Next() {
		var i store.Insight
		if err = rows.Scan(&i.UserAddress, &i.Insights, &i.Timestamp); err != nil {
			return nil, fmt.Errorf("could not scan insight: %w", err)
		}

		r = append(r, i)
	}

	return r, rows.Err()
}

// QueueMail inserts a mail into the outbox table.
func (p *Postgres) QueueMail(ctx context.Context, m store.OutboxMail) error {
	if _, err := p.db.ExecContext(ctx, `INSERT INTO mail (to_addr, subject, html) VALUES ($1, $2, $3)`,
		m.To, m.Message.Subject, m.Message.HTML); err != nil {
		return fmt.Errorf("could not queue mail: %w", err)
	}

	return nil
}

// AddAddress saves an address for its owner (a.Name) if the pair does not already exist and returns its id.
func (p *Postgres) AddAddress(ctx context.Context, a store.Address, net string) ([]byte, error) {
	var id int64

	err := p.db.QueryRowContext(ctx,
		`INSERT INTO monitored_addresses (net, name, address) VALUES ($1, $2, $3)
		ON CONFLICT (net, name, address) DO UPDATE SET name = monitored_addresses.name
		RETURNING id`, net, a.Name, a.Addr).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("could not insert address in db: %w", err)
	}

	return []byte(fmt.Sprintf("%d", id)), nil
}

// RemoveAddress deletes the entry of a.Name for a.Addr from the database.
func (p *Postgres) RemoveAddress(ctx context.Context, a store.Address, net string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM monitored_addresses WHERE net = $1 AND name = $2 AND address = $3`,
		net, a.Name, a.Addr)
	if err != nil {
		return fmt.Errorf("could not delete address: %w", err)
	}

	if n, _ := res.RowsAffected(); n != 1 {
		return store.ErrAddrNotFound
	}

	return nil
}

// GetAddresses returns the addresses monitored for the networks in nets, or all of them when nets is empty.
func (p *Postgres) GetAddresses(ctx context.Context, nets []string) ([]store.ListenedAddresses, error) {
	q := `SELECT id, net, name, address FROM monitored_addresses ORDER BY net, id`
	args := []interface{}{}

	if len(nets) > 0 {
		q = `SELECT id, net, name, address FROM monitored_addresses WHERE net = ANY($1) ORDER BY net, id`
		args = append(args, pq.Array(nets))
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query addresses: %w", err)
	}
	defer rows.Close()

	r := []store.ListenedAddresses{}

	for rows.Next() {
		var (
			id  int64
			net string
			a   store.Address
		)

		if err = rows.Scan(&id, &net, &a.Name, &a.Addr); err != nil {
			return nil, fmt.Errorf("could not scan address: %w", err)
		}

		a.ID = []byte(fmt.Sprintf("%d", id))

		if len(r) == 0 || r[len(r)-1].Net != net {
			r = append(r, store.ListenedAddresses{Net: net, Addr: []store.Address{}})
		}

		r[len(r)-1].Addr = append(r[len(r)-1].Addr, a)
	}

	return r, rows.Err()
}
