package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidSpecies  = fmt.Errorf("%w: species must be DOG or CAT", ErrInvalidInput)
	ErrInvalidSex      = fmt.Errorf("%w: sex must be male, female or empty", ErrInvalidInput)
	ErrUnknownBreed    = fmt.Errorf("%w: breed not in species list", ErrInvalidInput)
	ErrInvalidTestDate = fmt.Errorf("%w: testDate must be YYYY-MM-DD", ErrInvalidInput)
)

type Service struct {
	catalog BreedCatalog
	now     func() time.Time
}

func NewService(catalog BreedCatalog) *Service {
	return &Service{
		catalog: catalog,
		now:     time.Now,
	}
}

// Default es la ficha inicial de cada sesión.
func (s *Service) Default() Record {
	return DefaultRecord(s.now())
}

func (s *Service) Breeds(ctx context.Context, species Species) ([]string, error) {
	sp, err := ParseSpecies(string(species))
	if err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return DefaultBreeds(sp), nil
	}
	return s.catalog.ListBreeds(ctx, sp)
}

// Validate chequea solo la forma de la ficha; los valores clínicos no se validan.
func (s *Service) Validate(ctx context.Context, r Record) error {
	if _, err := ParseSpecies(string(r.Species)); err != nil {
		return err
	}
	if _, err := ParseSex(string(r.Sex)); err != nil {
		return err
	}
	if d := strings.TrimSpace(r.TestDate); d != "" {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return ErrInvalidTestDate
		}
	}

	breeds, err := s.Breeds(ctx, r.Species)
	if err != nil {
		return err
	}
	if !contains(breeds, r.Breed) {
		return ErrUnknownBreed
	}
	return nil
}

// Normalize devuelve la ficha en forma canónica (códigos DOG/CAT y
// male/female, campos recortados) y la valida.
func (s *Service) Normalize(ctx context.Context, r Record) (Record, error) {
	out, err := canonical(r)
	if err != nil {
		return r, err
	}
	if err := s.Validate(ctx, out); err != nil {
		return r, err
	}
	return out, nil
}

// Update aplica next sobre prev. La lista de razas depende de la especie:
// si cambia la especie y la raza enviada no pertenece a la nueva lista, se
// vuelve a la primera raza y se limpia CustomBreed.
func (s *Service) Update(ctx context.Context, prev, next Record) (Record, error) {
	out, err := canonical(next)
	if err != nil {
		return prev, err
	}
	species := out.Species

	breeds, err := s.Breeds(ctx, species)
	if err != nil {
		return prev, err
	}
	if species != prev.Species && !contains(breeds, out.Breed) {
		out.Breed = breeds[0]
		out.CustomBreed = ""
	}
	if out.Breed == "" {
		out.Breed = breeds[0]
	}

	if err := s.Validate(ctx, out); err != nil {
		return prev, err
	}
	return out, nil
}

func canonical(r Record) (Record, error) {
	species, err := ParseSpecies(string(r.Species))
	if err != nil {
		return r, err
	}
	sex, err := ParseSex(string(r.Sex))
	if err != nil {
		return r, err
	}

	return Record{
		Species:      species,
		Breed:        strings.TrimSpace(r.Breed),
		CustomBreed:  strings.TrimSpace(r.CustomBreed),
		Name:         strings.TrimSpace(r.Name),
		AgeYears:     strings.TrimSpace(r.AgeYears),
		AgeMonths:    strings.TrimSpace(r.AgeMonths),
		Sex:          sex,
		IsNeutered:   r.IsNeutered,
		TestDate:     strings.TrimSpace(r.TestDate),
		SpecialNotes: strings.TrimSpace(r.SpecialNotes),
		VetNotes:     strings.TrimSpace(r.VetNotes),
	}, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
