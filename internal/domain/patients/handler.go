package patients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/breeds", listBreedsHandler(svc))
	r.Get("/api/patients/default", defaultRecordHandler(svc))
}

type breedsResponse struct {
	Species     Species  `json:"species"`
	Label       string   `json:"label"`
	Breeds      []string `json:"breeds"`
	CustomBreed string   `json:"custom_breed"`
}

// listBreedsHandler godoc
// @Summary Listar razas por especie
// @Description Devuelve la lista fija de razas de la especie. El último valor es el centinela que habilita la raza libre.
// @Tags patients
// @Produce json
// @Param species query string true "DOG o CAT (también acepta 개 / 고양이)"
// @Success 200 {object} breedsResponse
// @Failure 400 {string} string "invalid species"
// @Router /api/breeds [get]
func listBreedsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		species, err := ParseSpecies(r.URL.Query().Get("species"))
		if err != nil {
			http.Error(w, "invalid species", http.StatusBadRequest)
			return
		}

		breeds, err := svc.Breeds(r.Context(), species)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, breedsResponse{
			Species:     species,
			Label:       species.Label(),
			Breeds:      breeds,
			CustomBreed: CustomBreed,
		})
	}
}

// defaultRecordHandler godoc
// @Summary Ficha inicial
// @Description Ficha por defecto: perro, primera raza, fecha de hoy, campos opcionales vacíos.
// @Tags patients
// @Produce json
// @Success 200 {object} Record
// @Router /api/patients/default [get]
func defaultRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, svc.Default())
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
