package excel_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// sheetDef 测试工作簿中的一个 sheet：rows 为 1-based 行号 → 行内容（自 A 列起）
type sheetDef struct {
	name string
	rows map[int][]any
}

func buildWorkbook(t *testing.T, sheets []sheetDef) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	for i, def := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", def.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(def.name); err != nil {
			t.Fatalf("create sheet %q: %v", def.name, err)
		}
		for row, values := range def.rows {
			for col, v := range values {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := f.SetCellValue(def.name, cell, v); err != nil {
					t.Fatalf("set %s!%s: %v", def.name, cell, err)
				}
			}
		}
	}
	return f
}

func workbookReader(t *testing.T, f *excelize.File) io.Reader {
	t.Helper()

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func openResult(t *testing.T, data []byte) *excelize.File {
	t.Helper()

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open result workbook: %v", err)
	}
	return wb
}

func cellAt(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()

	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, ref, err)
	}
	return v
}

func hasSkip(skipped []string, substr string) bool {
	for _, s := range skipped {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// masterSheet 主表 sheet 骨架：固定表头 + 行3设备名 + 行5起的参数行
func masterSheet(name string, equipment []string, params [][3]string) sheetDef {
	rows := map[int][]any{
		1: {name},
		2: {"Number of units ="},
		3: {"Parameter Category", "Input Parameters", "Units"},
		4: {"Parameter Category", "Input Parameters", "Units"},
	}

	head := rows[3]
	for _, equip := range equipment {
		head = append(head, equip)
	}
	rows[3] = head

	for i, p := range params {
		rows[5+i] = []any{nilIfEmpty(p[0]), p[1], p[2]}
	}
	return sheetDef{name: name, rows: rows}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
