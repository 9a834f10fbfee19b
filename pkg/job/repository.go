package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrJobNotFound = errors.New("job not found")

type Repository interface {
	CreateJob(ctx context.Context, j Job) (Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	UpdateJob(ctx context.Context, j Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	FindByAddress(ctx context.Context, address string) ([]Job, error)
	FindFeedOwnedByAddress(ctx context.Context, address string) ([]Job, error)
	FindByAddressAndStatus(ctx context.Context, address string, status Status) ([]Job, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const jobColumns = `id, property_address, scheduled_date, status, provenance,
	reservation_uid, guest_name, guest_phone_last_four, reservation_url, cleaner_id`

func (r *RepositoryImpl) CreateJob(ctx context.Context, j Job) (Job, error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = StatusOpen
	}
	query := `INSERT INTO cleaning_job (id, property_address, scheduled_date, status, provenance,
				reservation_uid, guest_name, guest_phone_last_four, reservation_url, cleaner_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		j.ID.String(),
		j.PropertyAddress,
		j.ScheduledDate,
		string(j.Status),
		string(j.Provenance),
		j.ReservationUID,
		j.GuestName,
		j.GuestPhoneLastFour,
		j.ReservationURL,
		j.CleanerID,
	)
	if err != nil {
		err := fmt.Errorf("could not store cleaning job: %w", err)
		log.Error(err)
		return Job{}, err
	}
	return j, nil
}

func (r *RepositoryImpl) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM cleaning_job WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id.String())
	j, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		log.Errorf("could not read cleaning job %s: %v", id, err)
		return Job{}, err
	}
	return j, nil
}

func (r *RepositoryImpl) UpdateJob(ctx context.Context, j Job) error {
	query := `UPDATE cleaning_job
			  SET scheduled_date = $1, status = $2, guest_name = $3,
			      guest_phone_last_four = $4, reservation_url = $5, cleaner_id = $6
			  WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query,
		j.ScheduledDate,
		string(j.Status),
		j.GuestName,
		j.GuestPhoneLastFour,
		j.ReservationURL,
		j.CleanerID,
		j.ID.String(),
	)
	if err != nil {
		err := fmt.Errorf("could not update cleaning job: %w", err)
		log.Error(err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteJob(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cleaning_job WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		err := fmt.Errorf("could not delete cleaning job: %w", err)
		log.Error(err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *RepositoryImpl) FindByAddress(ctx context.Context, address string) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM cleaning_job WHERE property_address = $1 ORDER BY scheduled_date`
	return r.queryJobs(ctx, query, address)
}

func (r *RepositoryImpl) FindFeedOwnedByAddress(ctx context.Context, address string) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM cleaning_job
			  WHERE property_address = $1 AND provenance = $2 ORDER BY scheduled_date`
	return r.queryJobs(ctx, query, address, string(ProvenanceFeed))
}

func (r *RepositoryImpl) FindByAddressAndStatus(ctx context.Context, address string, status Status) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM cleaning_job
			  WHERE property_address = $1 AND status = $2 ORDER BY scheduled_date`
	return r.queryJobs(ctx, query, address, string(status))
}

func (r *RepositoryImpl) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query cleaning jobs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	jobs := make([]Job, 0, 10)
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(scan func(dest ...any) error) (Job, error) {
	var j Job
	var id string
	var status, provenance string
	var scheduled time.Time
	err := scan(&id, &j.PropertyAddress, &scheduled, &status, &provenance,
		&j.ReservationUID, &j.GuestName, &j.GuestPhoneLastFour, &j.ReservationURL, &j.CleanerID)
	if err != nil {
		return Job{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Job{}, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	j.ID = parsed
	j.ScheduledDate = scheduled
	j.Status = Status(status)
	j.Provenance = Provenance(provenance)
	return j, nil
}
