package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"heritage_hunter/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface {
	Scan(dest ...any) error
}

func scanPub(s scanner) (domain.Pub, error) {
	var p domain.Pub
	var camraID sql.NullString
	var desc sql.NullString
	var lat, lon sql.NullFloat64
	if err := s.Scan(
		&p.ID,
		&p.CustomPubID,
		&camraID,
		&p.Name,
		&p.Address,
		&desc,
		&p.InventoryStars,
		&p.Listed,
		&p.Open,
		&p.URL,
		&lat, &lon,
	); err != nil {
		return domain.Pub{}, err
	}
	if camraID.Valid {
		c := camraID.String
		p.CamraID = &c
	}
	p.Description = desc.String
	if lat.Valid {
		f := lat.Float64
		p.Lat = &f
	}
	if lon.Valid {
		f := lon.Float64
		p.Lon = &f
	}
	return p, nil
}

func (r *Repo) queryPubs(ctx context.Context, query string, args ...any) ([]domain.Pub, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Pub
	for rows.Next() {
		p, err := scanPub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreatePub(ctx context.Context, p domain.Pub) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertPubSQL,
		p.CustomPubID,
		valStr(p.CamraID),
		p.Name,
		p.Address,
		p.Description,
		p.InventoryStars,
		p.Listed,
		p.Open,
		p.URL,
		valF64(p.Lat),
		valF64(p.Lon),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdatePub(ctx context.Context, p domain.Pub) error {
	res, err := r.db.ExecContext(ctx, updatePubSQL,
		valStr(p.CamraID),
		p.Name,
		p.Address,
		p.Description,
		p.InventoryStars,
		p.Listed,
		p.Open,
		p.URL,
		valF64(p.Lat),
		valF64(p.Lon),
		p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm the pub exists.
		if _, err := r.GetPub(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) DeleteAllPubs(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range deleteAllPubsSQL {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) SetCoords(ctx context.Context, id int64, lat, lon float64) error {
	_, err := r.db.ExecContext(ctx, setCoordsSQL, lat, lon, id)
	return err
}

func (r *Repo) SaveVisit(ctx context.Context, ownerID, pubID int64, content string, date *time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, pubExistsSQL, pubID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, insertPostSQL, pubID, ownerID, content, valTime(date)); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertVisitSQL, pubID, ownerID); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return tx.Commit()
}

func (r *Repo) DeleteVisit(ctx context.Context, ownerID, pubID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deletePostsSQL, pubID, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNoVisit
	}
	if _, err := tx.ExecContext(ctx, deleteVisitSQL, pubID, ownerID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) GetPub(ctx context.Context, id int64) (domain.Pub, error) {
	p, err := scanPub(r.db.QueryRowContext(ctx, getPubSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pub{}, domain.ErrNotFound
		}
		return domain.Pub{}, err
	}
	return p, nil
}

func (r *Repo) ListListedPubs(ctx context.Context) ([]domain.Pub, error) {
	pubs, err := r.queryPubs(ctx, listListedPubsSQL)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, listListedVisitsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := make(map[int64][]int64, len(pubs))
	for rows.Next() {
		var pubID, userID int64
		if err := rows.Scan(&pubID, &userID); err != nil {
			return nil, err
		}
		visits[pubID] = append(visits[pubID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range pubs {
		pubs[i].UsersVisited = visits[pubs[i].ID]
	}
	return pubs, nil
}

func (r *Repo) ListAllPubs(ctx context.Context) ([]domain.Pub, error) {
	return r.queryPubs(ctx, listAllPubsSQL)
}

func (r *Repo) ListPubsMissingCoords(ctx context.Context) ([]domain.Pub, error) {
	return r.queryPubs(ctx, listMissingCoordsSQL)
}

func (r *Repo) ListPostsByOwner(ctx context.Context, ownerID int64) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, listPostsByOwnerSQL, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		var p domain.Post
		var date sql.NullTime
		if err := rows.Scan(&p.ID, &p.PubID, &p.OwnerID, &p.Content, &date, &p.CreatedAt); err != nil {
			return nil, err
		}
		if date.Valid {
			d := date.Time
			p.DateVisited = &d
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) StarStats(ctx context.Context) (domain.StarStats, error) {
	var st domain.StarStats
	rows, err := r.db.QueryContext(ctx, starStatsSQL)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var stars, total, open int
		if err := rows.Scan(&stars, &total, &open); err != nil {
			return st, err
		}
		if stars < 0 || stars >= len(st) {
			continue
		}
		st[stars].Total = total
		st[stars].Open = open
	}
	return st, rows.Err()
}
