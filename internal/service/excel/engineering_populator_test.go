package excel_test

import (
	"testing"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/service/excel"
)

func TestPopulateEngineeringInputs(t *testing.T) {
	tank := masterSheet("Tank", []string{"TK-0102_Feed", "TK-0205_Other"}, [][3]string{
		{"Engineering Inputs", "Mixing Time:", "min"},
		{"", "Motor Power", "kW"},
		{"", "Impeller Type", ""},
	})
	// D5 已有值：回填只写空单元格，从不覆盖
	tank.rows[5] = []any{"Engineering Inputs", "Mixing Time:", "min", 42}
	pump := masterSheet("Pump", nil, nil)

	master := buildWorkbook(t, []sheetDef{tank, pump})
	if err := master.MergeCell("Tank", "A5", "A7"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// 数据表：参数名 C 列，取值 K 列
	datasheets := buildWorkbook(t, []sheetDef{
		{name: "Tank", rows: map[int][]any{
			2: {nil, nil, "mixing time", nil, nil, nil, nil, nil, nil, nil, 15.5},
			3: {nil, nil, "Motor Power:", nil, nil, nil, nil, nil, nil, nil, "vendor TBD"},
		}},
	})

	data, fileName, skipped, err := excel.PopulateEngineeringInputs(workbookReader(t, master), workbookReader(t, datasheets))
	if err != nil {
		t.Fatalf("PopulateEngineeringInputs: %v", err)
	}
	if fileName == "" {
		t.Fatal("empty output filename")
	}

	out := openResult(t, data)
	defer out.Close()

	// 参数名规范化：大小写、空白、尾部冒号都不影响匹配
	if got := cellAt(t, out, "Tank", "D5"); got != "42" {
		t.Fatalf("Tank!D5=%q, want preserved 42", got)
	}
	if got := cellAt(t, out, "Tank", "E5"); got != "15.5" {
		t.Fatalf("Tank!E5=%q, want 15.5", got)
	}
	for _, ref := range []string{"D6", "E6"} {
		if got := cellAt(t, out, "Tank", ref); got != "vendor TBD" {
			t.Fatalf("Tank!%s=%q, want broadcast text value", ref, got)
		}
	}

	// 数据表里没有的参数：记跳过，单元格保持为空
	for _, ref := range []string{"D7", "E7"} {
		if got := cellAt(t, out, "Tank", ref); got != "" {
			t.Fatalf("Tank!%s=%q, want untouched empty", ref, got)
		}
	}
	if !hasSkip(skipped, "parameter 'Impeller Type' not found in datasheets") {
		t.Fatalf("skipped=%v, missing impeller entry", skipped)
	}
	if !hasSkip(skipped, "Sheet 'Pump' not found in datasheets workbook") {
		t.Fatalf("skipped=%v, missing pump sheet entry", skipped)
	}
}
