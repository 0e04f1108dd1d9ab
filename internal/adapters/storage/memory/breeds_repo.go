package memory

import (
	"context"

	"vet-lab-report/internal/domain/patients"
)

// breedCatalog sirve las listas fijas; es el default cuando no hay DB_DSN.
type breedCatalog struct{}

func NewBreedCatalog() patients.BreedCatalog {
	return breedCatalog{}
}

func (breedCatalog) ListBreeds(ctx context.Context, species patients.Species) ([]string, error) {
	return patients.DefaultBreeds(species), nil
}
