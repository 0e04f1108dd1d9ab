package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	mem "vet-lab-report/internal/adapters/storage/memory"
	"vet-lab-report/internal/domain/analysis"
	"vet-lab-report/internal/domain/labfiles"
	"vet-lab-report/internal/domain/patients"
)

// flag -> campo del form de la ficha
var promptFields = map[string]string{
	"species":       "species",
	"breed":         "breed",
	"custom-breed":  "customBreed",
	"name":          "name",
	"age-years":     "ageYears",
	"age-months":    "ageMonths",
	"sex":           "sex",
	"test-date":     "testDate",
	"special-notes": "specialNotes",
	"vet-notes":     "vetNotes",
}

var promptCmd = &cobra.Command{
	Use:   "prompt [flags]",
	Short: "Imprime el prompt que se mandaría al LLM, sin llamarlo",
	Long: `Arma la ficha (default + flags), lee la planilla opcional y muestra
el prompt completo. Útil para revisar qué recibe el modelo.

Ejemplos:
  vetreport prompt
  vetreport prompt --species CAT --breed 페르시안 --name Nabi
  vetreport prompt --file resultados.xlsx --vet-notes "신장 수치 확인"`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	for flag := range promptFields {
		promptCmd.Flags().String(flag, "", "campo "+promptFields[flag]+" de la ficha")
	}
	promptCmd.Flags().Bool("neutered", false, "marca el paciente como castrado")
	promptCmd.Flags().StringP("file", "f", "", "planilla .xlsx / .xls con resultados")

	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	svc := patients.NewService(mem.NewBreedCatalog())
	base := svc.Default()

	form := url.Values{}
	for flag, field := range promptFields {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			form.Set(field, v)
		}
	}
	if cmd.Flags().Changed("neutered") {
		neutered, _ := cmd.Flags().GetBool("neutered")
		form.Set("formPresent", "1")
		if neutered {
			form.Set("isNeutered", "on")
		}
	}

	rec, err := svc.Update(cmd.Context(), base, patients.FromForm(form, base))
	if err != nil {
		return err
	}

	var fileText string
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		fileText, err = labfiles.Ingest(cmd.Context(), filepath.Base(path), f)
		if err != nil {
			return fmt.Errorf("%s: %w", labfiles.UserMessage(err), err)
		}
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), analysis.BuildPrompt(rec, fileText))
	return err
}
