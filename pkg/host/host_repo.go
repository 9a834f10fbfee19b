package host

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"
)

var ErrHostNotFound = errors.New("host not found")

type Repo interface {
	CreateHost(ctx context.Context, h Host) (int, error)
	GetHost(ctx context.Context, id int) (Host, error)
	GetHostByUid(ctx context.Context, uid string) (Host, error)
	UpdateHost(ctx context.Context, hostId int, h Host) (Host, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewHostRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) CreateHost(ctx context.Context, h Host) (int, error) {
	query := `INSERT INTO host (uid, display_name, email, phone) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := r.db.QueryRowContext(ctx, query, h.Uid, h.DisplayName, h.Email, h.Phone).Scan(&id)
	if err != nil {
		log.Errorf("failed to create host: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *RepoImpl) GetHost(ctx context.Context, id int) (Host, error) {
	query := `SELECT id, uid, display_name, email, phone FROM host WHERE id = $1`
	return r.scanHost(r.db.QueryRowContext(ctx, query, id))
}

func (r *RepoImpl) GetHostByUid(ctx context.Context, uid string) (Host, error) {
	query := `SELECT id, uid, display_name, email, phone FROM host WHERE uid = $1`
	return r.scanHost(r.db.QueryRowContext(ctx, query, uid))
}

func (r *RepoImpl) UpdateHost(ctx context.Context, hostId int, h Host) (Host, error) {
	query := `UPDATE host SET display_name = $1, email = $2, phone = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, h.DisplayName, h.Email, h.Phone, hostId)
	if err != nil {
		log.Errorf("failed to update host %d: %v", hostId, err)
		return Host{}, err
	}
	h.Id = hostId
	return h, nil
}

func (r *RepoImpl) scanHost(row *sql.Row) (Host, error) {
	var h Host
	err := row.Scan(&h.Id, &h.Uid, &h.DisplayName, &h.Email, &h.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return Host{}, ErrHostNotFound
	}
	if err != nil {
		log.Errorf("failed to scan host: %v", err)
		return Host{}, err
	}
	return h, nil
}
