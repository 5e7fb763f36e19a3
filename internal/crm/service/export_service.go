package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	*base
}

var leadExportHeaders = []string{
	"Empresa", "Contacto", "Sector", "Ciudad", "Teléfono", "Email", "Servicio",
	"Etapa", "Progreso %", "Valor propuesta", "Valor mensualidad",
	"Primer contacto", "Último contacto", "Notas",
}

// ExportLeads writes the pipeline to an xlsx workbook, one sheet row per
// lead plus a totals row. The caller closes the file.
func (s *ExportService) ExportLeads(ctx context.Context, filter LeadFilter) (*excelize.File, string, error) {
	filter.IncludeConverted = false
	if filter.Etapa != "" {
		if err := checkLeadStage(filter.Etapa); err != nil {
			return nil, "", err
		}
	}
	leads, err := s.repos.Lead.List(ctx, leadListParams(filter))
	if err != nil {
		return nil, "", fmt.Errorf("list leads: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Pipeline"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range leadExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	var totalPropuesta, totalMensualidad float64
	for _, l := range leads {
		if !matchKeyword(filter.Keyword, l.NombreEmpresa, l.NombreContacto, l.Ciudad, l.Sector) {
			continue
		}
		propuesta := l.ValorPropuesta.InexactFloat64()
		mensualidad := l.ValorMensualidad.InexactFloat64()
		totalPropuesta += propuesta
		totalMensualidad += mensualidad

		values := []interface{}{
			l.NombreEmpresa, l.NombreContacto, l.Sector, l.Ciudad, l.Telefono, l.Email, l.Servicio,
			string(l.Etapa), l.Progress(), propuesta, mensualidad,
			l.FechaPrimerContacto, l.FechaUltimoContacto, l.Notas,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d leads", row-2))
	f.SetCellValue(sheet, fmt.Sprintf("J%d", row), totalPropuesta)
	f.SetCellValue(sheet, fmt.Sprintf("K%d", row), totalMensualidad)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("N%d", row), totalStyle)

	colWidths := []float64{24, 20, 14, 14, 16, 24, 18, 18, 10, 14, 14, 14, 14, 30}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	name := "pipeline"
	if filter.Etapa != "" {
		name += "_" + string(filter.Etapa)
	}
	filename := asciiFileName(fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102")))
	return f, filename, nil
}

func leadListParams(filter LeadFilter) repository.LeadListParams {
	return repository.LeadListParams{
		Etapa:            filter.Etapa,
		AssignedUserID:   filter.AssignedUserID,
		IncludeConverted: filter.IncludeConverted,
	}
}
