package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vet-lab-report/internal/domain/patients"
)

// BreedsRepo lee el catálogo de razas de la tabla breeds:
//
//	CREATE TABLE breeds (
//		species  text    NOT NULL, -- DOG | CAT
//		name     text    NOT NULL,
//		position integer NOT NULL,
//		PRIMARY KEY (species, name)
//	);
//
// Solo lectura. Sin filas para la especie => lista por defecto.
type BreedsRepo struct {
	db *sql.DB
}

func NewBreedsRepo(db *sql.DB) *BreedsRepo {
	return &BreedsRepo{db: db}
}

func (r *BreedsRepo) ListBreeds(ctx context.Context, species patients.Species) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name
		FROM breeds
		WHERE species = $1
		ORDER BY position ASC, name ASC
	`, string(species))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		// el centinela lo agregamos siempre al final
		if name == "" || name == patients.CustomBreed {
			continue
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return patients.DefaultBreeds(species), nil
	}
	return append(out, patients.CustomBreed), nil
}
