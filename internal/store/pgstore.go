package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/katakuxiko/deenbot/internal/model"
)

var ErrNotFound = errors.New("not found")

type PgStore struct {
	db *sql.DB
}

// NewPgStore opens a pool for conn. No connection is made until the first
// query, so an unreachable database surfaces in EnsureSchema or later.
func NewPgStore(conn string) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

func (s *PgStore) Add(ctx context.Context, doc string, c model.Chunk, v []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (doc_name, chunk_id, text, embedding)
		VALUES ($1, $2, $3, $4::vector)
	`, doc, c.ID, c.Text, floatsToPgVectorLiteral(v))
	if err != nil {
		return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
	}
	return nil
}

func (s *PgStore) Search(ctx context.Context, q []float32, k int) ([]model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, text
		FROM chunks
		ORDER BY embedding <-> $1::vector
		LIMIT $2
	`, floatsToPgVectorLiteral(q), k)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var res []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.Text); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *PgStore) Documents(ctx context.Context, prefix string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_name, COUNT(*)
		FROM chunks
		WHERE doc_name LIKE $1
		GROUP BY doc_name
		ORDER BY doc_name
	`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.Name, &d.Chunks); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PgStore) DeleteDocument(ctx context.Context, doc string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE doc_name = $1`, doc)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", doc, err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func floatsToPgVectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, f := range v {
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', 6, 32))
		if i < len(v)-1 {
			sb.WriteString(",")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
