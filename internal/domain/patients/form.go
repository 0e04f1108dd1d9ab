package patients

import (
	"net/url"
	"strings"
)

// FromForm vuelca los campos del formulario HTML sobre base. Los campos
// ausentes conservan el valor de base; el checkbox isNeutered solo viaja
// cuando está marcado, así que se interpreta con formPresent.
func FromForm(form url.Values, base Record) Record {
	out := base

	set := func(key string, dst *string) {
		if _, ok := form[key]; ok {
			*dst = form.Get(key)
		}
	}

	if _, ok := form["species"]; ok {
		out.Species = Species(strings.TrimSpace(form.Get("species")))
	}
	set("breed", &out.Breed)
	set("customBreed", &out.CustomBreed)
	set("name", &out.Name)
	set("ageYears", &out.AgeYears)
	set("ageMonths", &out.AgeMonths)
	if _, ok := form["sex"]; ok {
		out.Sex = Sex(strings.TrimSpace(form.Get("sex")))
	}
	set("testDate", &out.TestDate)
	set("specialNotes", &out.SpecialNotes)
	set("vetNotes", &out.VetNotes)

	// El form de la página manda formPresent=1 siempre; así distinguimos
	// "checkbox desmarcado" de "form parcial sin el campo".
	if _, ok := form["isNeutered"]; ok {
		out.IsNeutered = isChecked(form.Get("isNeutered"))
	} else if form.Get("formPresent") != "" {
		out.IsNeutered = false
	}

	return out
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
