package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrPropertyNotFound = errors.New("property not found")

type Repository interface {
	CreateProperty(ctx context.Context, p Property) (Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (Property, error)
	FindByHost(ctx context.Context, hostId int) ([]Property, error)
	FindAllLinked(ctx context.Context) ([]Property, error)
	UpdateProperty(ctx context.Context, p Property) error
	UpdateCalendarURL(ctx context.Context, id uuid.UUID, url string) error
	TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteProperty(ctx context.Context, id uuid.UUID) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const propertyColumns = `id, host_id, name, address, calendar_url, last_sync_at`

func (r *RepositoryImpl) CreateProperty(ctx context.Context, p Property) (Property, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO property (id, host_id, name, address, calendar_url) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, p.ID.String(), p.HostID, p.Name, p.Address, p.CalendarURL)
	if err != nil {
		err := fmt.Errorf("could not store property: %w", err)
		log.Error(err)
		return Property{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM property WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id.String())
	p, err := scanProperty(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Property{}, ErrPropertyNotFound
	}
	if err != nil {
		log.Errorf("could not read property %s: %v", id, err)
		return Property{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) FindByHost(ctx context.Context, hostId int) ([]Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM property WHERE host_id = $1 ORDER BY name`
	return r.queryProperties(ctx, query, hostId)
}

// FindAllLinked returns every property with a calendar feed configured,
// across all hosts. Used by the recurring sync pass.
func (r *RepositoryImpl) FindAllLinked(ctx context.Context) ([]Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM property WHERE calendar_url <> '' ORDER BY host_id, name`
	return r.queryProperties(ctx, query)
}

func (r *RepositoryImpl) UpdateProperty(ctx context.Context, p Property) error {
	query := `UPDATE property SET name = $1, address = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Address, p.ID.String())
	if err != nil {
		err := fmt.Errorf("could not update property: %w", err)
		log.Error(err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (r *RepositoryImpl) UpdateCalendarURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE property SET calendar_url = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, url, id.String())
	if err != nil {
		err := fmt.Errorf("could not update calendar url: %w", err)
		log.Error(err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (r *RepositoryImpl) TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE property SET last_sync_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id.String())
	if err != nil {
		err := fmt.Errorf("could not update last sync timestamp: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM property WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		err := fmt.Errorf("could not delete property: %w", err)
		log.Error(err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (r *RepositoryImpl) queryProperties(ctx context.Context, query string, args ...any) ([]Property, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query properties: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	properties := make([]Property, 0, 10)
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func scanProperty(scan func(dest ...any) error) (Property, error) {
	var p Property
	var id string
	var lastSync sql.NullTime
	if err := scan(&id, &p.HostID, &p.Name, &p.Address, &p.CalendarURL, &lastSync); err != nil {
		return Property{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Property{}, fmt.Errorf("invalid property id %q: %w", id, err)
	}
	p.ID = parsed
	if lastSync.Valid {
		t := lastSync.Time
		p.LastSyncAt = &t
	}
	return p, nil
}
