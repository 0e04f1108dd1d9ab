package intake

import (
	"time"

	"vet-lab-report/internal/domain/patients"
)

// Session es el estado de la pantalla de un veterinario: la ficha, el
// archivo ingerido y el último análisis. Vive solo en memoria.
//
// Canales de error (nunca se mezclan):
//   - UploadError: falla de ingesta; FileText y FileName quedan vacíos.
//   - AnalysisError: falla del controlador (ficha inválida, cancelación);
//     Result queda vacío.
//   - Result con Fallback=true: falla del proveedor convertida en HTML.
type Session struct {
	ID      string
	Patient patients.Record

	FileName    string
	FileText    string
	UploadError string

	Result        string
	Fallback      bool
	Model         string
	AnalysisError string
	InFlight      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasResult indica si hay algo para descargar.
func (s Session) HasResult() bool { return s.Result != "" }

// ReportFileName es el nombre de la descarga HTML; la imagen usa el mismo
// prefijo con .png.
const (
	ReportFileName = "ai_vet_report.html"
	ImageFileName  = "ai_vet_report.png"
)
