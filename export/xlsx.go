package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/aditinnerkar/veilix-app/graph"
)

// WriteInventory streams an XLSX component inventory for g to w: a
// Components sheet, a Flows sheet, and a Summary sheet with counts and
// graph metrics. source names the document the graph came from.
func WriteInventory(w io.Writer, g *graph.Graph, source string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeComponentsSheet(f, g); err != nil {
		return err
	}
	if err := writeFlowsSheet(f, g); err != nil {
		return err
	}
	if err := writeSummarySheet(f, g, source); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex("Components")
	if err != nil {
		return fmt.Errorf("locating Components sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// setRow writes values left to right starting at column 1 of row.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func writeComponentsSheet(f *excelize.File, g *graph.Graph) error {
	const sheet = "Components"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, "ID", "Label", "Type", "X", "Y"); err != nil {
		return err
	}
	for i, n := range g.Nodes() {
		values := []any{n.ID, n.Label, n.Type, "", ""}
		if n.Position != nil {
			values[3] = n.Position.X
			values[4] = n.Position.Y
		}
		if err := setRow(f, sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func writeFlowsSheet(f *excelize.File, g *graph.Graph) error {
	const sheet = "Flows"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, "ID", "Source", "Target", "Type"); err != nil {
		return err
	}
	for i, e := range g.Edges() {
		if err := setRow(f, sheet, i+2, e.ID, e.Source, e.Target, e.Type); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, g *graph.Graph, source string) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}

	rows := [][]any{
		{"Source", source},
		{"Components", g.NodeCount()},
		{"Flows", g.EdgeCount()},
		{"Density", g.Density()},
		{"Connected components", g.ConnectedComponents()},
	}
	row := 1
	for _, r := range rows {
		if err := setRow(f, sheet, row, r...); err != nil {
			return err
		}
		row++
	}

	row++
	if err := setRow(f, sheet, row, "Component type", "Count"); err != nil {
		return err
	}
	row++
	for _, tc := range g.NodeTypes() {
		if err := setRow(f, sheet, row, tc.Type, tc.Count); err != nil {
			return err
		}
		row++
	}
	return nil
}
