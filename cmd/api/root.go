package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vetreport",
	Short: "Asistente de informes de laboratorio veterinario",
	Long: `Servidor web que toma la ficha del paciente y una planilla de
resultados (.xlsx / .xls), arma el prompt y pide al LLM configurado
un informe HTML para el tutor.

Ejemplos:
  vetreport serve
  vetreport serve --config vetreport.yaml
  vetreport prompt --species CAT --name Nabi --file resultados.xlsx`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "archivo de config (default ./vetreport.yaml si existe)")
}
