package excel

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SplitWorkbook 把主表按 sheet 拆成独立的 xlsx（仅值，不带格式），打包成 zip
func SplitWorkbook(master io.Reader) ([]byte, string, []string, error) {
	wb, err := excelize.OpenReader(master)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open master workbook: %w", err)
	}
	defer wb.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, sheetName := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheetName)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}

		single := excelize.NewFile()
		single.SetSheetName("Sheet1", sheetName)
		for i, row := range rows {
			for j, v := range row {
				if v == "" {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
				single.SetCellValue(sheetName, cell, v)
			}
		}

		data, err := single.WriteToBuffer()
		single.Close()
		if err != nil {
			return nil, "", nil, fmt.Errorf("write sheet %q: %w", sheetName, err)
		}

		safeName := strings.NewReplacer("/", "_", "\\", "_").Replace(sheetName)
		w, err := zw.Create(safeName + ".xlsx")
		if err != nil {
			return nil, "", nil, fmt.Errorf("create zip entry for %q: %w", sheetName, err)
		}
		if _, err := w.Write(data.Bytes()); err != nil {
			return nil, "", nil, fmt.Errorf("write zip entry for %q: %w", sheetName, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, "", nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), stampedName("Master_DataSheet_Split", ".zip"), []string{}, nil
}
