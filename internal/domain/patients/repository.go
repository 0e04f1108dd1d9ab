package patients

import "context"

// BreedCatalog lista las razas seleccionables para una especie, en orden.
type BreedCatalog interface {
	ListBreeds(ctx context.Context, species Species) ([]string, error)
}
