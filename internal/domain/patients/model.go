package patients

import (
	"strings"
	"time"
)

// Species define las especies soportadas.
// @Enum DOG, CAT
type Species string

const (
	SpeciesDog Species = "DOG"
	SpeciesCat Species = "CAT"
)

// Label es el texto que ve el veterinario y el que va en el prompt.
func (s Species) Label() string {
	switch s {
	case SpeciesDog:
		return "개"
	case SpeciesCat:
		return "고양이"
	default:
		return string(s)
	}
}

// ParseSpecies acepta el código (DOG/cat) o la etiqueta (개/고양이).
func ParseSpecies(s string) (Species, error) {
	v := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(v, string(SpeciesDog)) || v == SpeciesDog.Label():
		return SpeciesDog, nil
	case strings.EqualFold(v, string(SpeciesCat)) || v == SpeciesCat.Label():
		return SpeciesCat, nil
	default:
		return "", ErrInvalidSpecies
	}
}

// Sex solo admite tres valores literales.
// @Enum male, female, ""
type Sex string

const (
	SexUnset  Sex = ""
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "수"
	case SexFemale:
		return "암"
	default:
		return ""
	}
}

func ParseSex(s string) (Sex, error) {
	v := strings.TrimSpace(s)
	switch {
	case v == "":
		return SexUnset, nil
	case strings.EqualFold(v, string(SexMale)) || v == SexMale.Label():
		return SexMale, nil
	case strings.EqualFold(v, string(SexFemale)) || v == SexFemale.Label():
		return SexFemale, nil
	default:
		return "", ErrInvalidSex
	}
}

// CustomBreed es el valor centinela del select de raza que habilita el
// campo de texto libre.
const CustomBreed = "직접 입력"

const DateLayout = "2006-01-02"

// Record es la ficha del paciente que arma el formulario.
// Todos los campos salvo Species/Breed son opcionales.
type Record struct {
	Species     Species `json:"species"`
	Breed       string  `json:"breed"`
	CustomBreed string  `json:"customBreed"`

	Name      string `json:"name"`
	AgeYears  string `json:"ageYears"`
	AgeMonths string `json:"ageMonths"`
	Sex       Sex    `json:"sex"`

	IsNeutered bool   `json:"isNeutered"`
	TestDate   string `json:"testDate"` // YYYY-MM-DD

	SpecialNotes string `json:"specialNotes"` // síntomas reportados por el tutor
	VetNotes     string `json:"vetNotes"`     // pedido de foco del veterinario
}

// DefaultRecord: perro, primera raza, fecha de hoy, resto vacío.
func DefaultRecord(now time.Time) Record {
	return Record{
		Species:  SpeciesDog,
		Breed:    DefaultBreeds(SpeciesDog)[0],
		TestDate: now.Format(DateLayout),
	}
}

// EffectiveBreed ignora CustomBreed salvo que Breed sea el centinela.
func (r Record) EffectiveBreed() string {
	if r.Breed == CustomBreed {
		return strings.TrimSpace(r.CustomBreed)
	}
	return strings.TrimSpace(r.Breed)
}

// NeuterStatus devuelve una de las dos frases fijas.
func (r Record) NeuterStatus() string {
	if r.IsNeutered {
		return "중성화 완료"
	}
	return "중성화 안함"
}
