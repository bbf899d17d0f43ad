package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/snipx/internal/models"
)

// LanguageRepository keeps the server's language enum in server order.
type LanguageRepository struct {
	db *sql.DB
}

func NewLanguageRepository(db *sql.DB) *LanguageRepository {
	return &LanguageRepository{db: db}
}

// ReplaceAll overwrites the stored list with langs.
func (r *LanguageRepository) ReplaceAll(langs []models.Language) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM languages`); err != nil {
			return fmt.Errorf("failed to clear languages: %w", err)
		}
		for i, l := range langs {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO languages (name, position) VALUES (?, ?)`, l, i); err != nil {
				return fmt.Errorf("failed to store language %s: %w", l, err)
			}
		}
		return nil
	})
}

// List returns stored languages in server order.
func (r *LanguageRepository) List() ([]models.Language, error) {
	rows, err := r.db.Query(`SELECT name FROM languages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	var langs []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}
