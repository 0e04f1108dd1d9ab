// Package labfiles convierte la planilla de resultados de laboratorio en el
// texto que se embebe en el prompt: un bloque CSV por hoja, con el nombre de
// la hoja como encabezado.
package labfiles

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported spreadsheet extension")
	ErrCorruptFile          = errors.New("spreadsheet could not be decoded")
	ErrReadFailed           = errors.New("spreadsheet could not be read")
)

// Mensajes para el usuario, uno por clase de falla.
const (
	MsgUnsupportedExtension = "엑셀 파일(.xlsx, .xls)만 업로드할 수 있습니다."
	MsgCorruptFile          = "파일을 읽는 중 오류가 발생했습니다. 파일이 손상되지 않았는지 확인해주세요."
	MsgReadFailed           = "파일을 읽는 데 실패했습니다."
)

// zip local file header: los .xlsx (y algunos .xls renombrados) empiezan así.
var zipMagic = []byte("PK\x03\x04")

// Sheet es una hoja ya decodificada, en el orden del libro.
type Sheet struct {
	Name string
	Rows [][]string
}

// Accepts indica si el nombre tiene una extensión de planilla reconocida.
func Accepts(fileName string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".xlsx", ".xls":
		return true
	default:
		return false
	}
}

// Ingest lee el archivo completo en memoria (sin límite de tamaño) y devuelve
// el texto concatenado de todas las hojas.
func Ingest(ctx context.Context, fileName string, r io.Reader) (string, error) {
	if !Accepts(fileName) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, fileName)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	sheets, err := Decode(fileName, data)
	if err != nil {
		return "", err
	}
	return Render(sheets)
}

// Decode elige el decoder por contenido: OOXML con excelize, BIFF con xls.
func Decode(fileName string, data []byte) ([]Sheet, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return decodeXLSX(data)
	}
	if strings.EqualFold(filepath.Ext(fileName), ".xls") {
		return decodeXLS(data)
	}
	return nil, fmt.Errorf("%w: not an OOXML workbook", ErrCorruptFile)
}

func decodeXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	out := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrCorruptFile, name, err)
		}
		out = append(out, Sheet{Name: name, Rows: rows})
	}
	return out, nil
}

func decodeXLS(data []byte) (sheets []Sheet, err error) {
	// El parser BIFF puede entrar en pánico con archivos truncados.
	defer func() {
		if p := recover(); p != nil {
			sheets = nil
			err = fmt.Errorf("%w: %v", ErrCorruptFile, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	out := make([]Sheet, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for ri := 0; ri <= int(ws.MaxRow); ri++ {
			row := ws.Row(ri)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			// LastCol es el índice de la última celda, o uno más si el archivo
			// trae registros ROW; se recorre inclusivo y se recortan vacías.
			cells := make([]string, 0, row.LastCol()+1)
			for ci := 0; ci <= row.LastCol(); ci++ {
				cells = append(cells, row.Col(ci))
			}
			for len(cells) > 0 && cells[len(cells)-1] == "" {
				cells = cells[:len(cells)-1]
			}
			rows = append(rows, cells)
		}
		out = append(out, Sheet{Name: ws.Name, Rows: rows})
	}
	return out, nil
}

// Render arma "--- <hoja> ---\n<csv>\n\n" por hoja y recorta el total.
func Render(sheets []Sheet) (string, error) {
	var sb strings.Builder
	for _, s := range sheets {
		body, err := toCSV(s.Rows)
		if err != nil {
			return "", fmt.Errorf("%w: sheet %q: %v", ErrCorruptFile, s.Name, err)
		}
		sb.WriteString("--- ")
		sb.WriteString(s.Name)
		sb.WriteString(" ---\n")
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// toCSV rellena cada fila hasta el ancho de la fila más ancha (rango usado)
// y descarta filas vacías al final.
func toCSV(rows [][]string) (string, error) {
	rows = trimTrailingEmpty(rows)

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		rec := make([]string, width)
		copy(rec, row)
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isEmptyRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// UserMessage traduce el error de Ingest al mensaje que se muestra junto al
// control de carga.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedExtension):
		return MsgUnsupportedExtension
	case errors.Is(err, ErrCorruptFile):
		return MsgCorruptFile
	default:
		return MsgReadFailed
	}
}
