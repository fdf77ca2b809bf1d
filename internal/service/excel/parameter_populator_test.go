package excel_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/rules"
	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/service/excel"
)

func tankRules() rules.Table {
	return rules.Table{
		"Tank": rules.RuleSet{
			"volume": rules.EquipmentListLookup{
				ColIdx: 15,
				Fallback: rules.StreamLookup{
					StreamType: rules.StreamOutput,
					ColIdx:     5,
					Convert:    rules.ConvertMultiply1000,
				},
			},
			"density": rules.WithOverrides{
				Default: rules.StreamLookup{StreamType: rules.StreamOutput, ColIdx: 6},
				Overrides: map[string]rules.Rule{
					"TK-0205_Other": rules.StreamLookup{TagOverride: "special-stream", ColIdx: 6},
				},
			},
			"stream name": rules.NamedStreamPassthrough{StreamType: rules.StreamInput},
			"material":    rules.Literal{Text: "SS316"},
			"flow avg":    rules.StreamAggregate{StreamType: rules.StreamInput, ColIdx: 7, Agg: rules.AggAvg},
			"level":       rules.StreamLookup{TagOverride: "strm-001", ColIdx: 3},
			"temp":        rules.StreamLookup{StreamType: rules.StreamOutput, ColIdx: 8},
		},
		"Agitator": rules.RuleSet{
			"stream name": rules.NamedStreamPassthrough{StreamType: rules.StreamInput},
		},
	}
}

func buildParamMaster(t *testing.T) []byte {
	tank := masterSheet("Tank", []string{"TK-0102_Feed", "TK-0205_Other", "TK-0999_Ghost"}, [][3]string{
		{"SysCAD Inputs", "Volume", "m3"},
		{"", "Density", "kg/m3"},
		{"", "Stream name", ""},
		{"", "Material", ""},
		{"", "Unconfigured", ""},
		{"", "Flow avg", "t/h"},
		{"", "Level", "m"},
		{"", "Temp", "C"},
	})
	// D9 预置旧值：未配置规则的行必须被清空
	tank.rows[9] = []any{nil, "Unconfigured", nil, "stale"}
	// F5 预置值：无绑定的设备列整列跳过，不碰单元格
	tank.rows[5] = []any{"SysCAD Inputs", "Volume", "m3", nil, nil, "keepme"}

	agitator := masterSheet("Agitator", []string{"A-0102_Feed"}, [][3]string{
		{"SysCAD Inputs", "Stream name", ""},
	})
	misc := masterSheet("Misc", nil, nil)

	wb := buildWorkbook(t, []sheetDef{tank, agitator, misc})
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write master: %v", err)
	}
	return buf.Bytes()
}

func buildParamStreamtable(t *testing.T) []byte {
	list := sheetDef{name: "Equipment & Stream List", rows: map[int][]any{
		4: {"TK-0102_Feed", "out-1", nil, nil, nil, nil, "in-1", "in-2", nil, nil, nil, nil, nil, nil, 3.14159},
		5: {"TK-0205_Other", "out-2"},
	}}
	table := sheetDef{name: "Stream Table V", rows: map[int][]any{
		7:  {"Tag"},
		8:  {"out-1", nil, nil, nil, nil, 998.2},
		9:  {"out-2", nil, nil, nil, 0.0025},
		10: {"Special-Stream", nil, nil, nil, nil, 1100.456},
		11: {"in-1", nil, nil, nil, nil, nil, 10.0},
		12: {"in-2"},
	}}
	wb := buildWorkbook(t, []sheetDef{list, table})
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write streamtable: %v", err)
	}
	return buf.Bytes()
}

func TestPopulateParameters(t *testing.T) {
	master := buildParamMaster(t)
	streamtable := buildParamStreamtable(t)

	data, fileName, skipped, err := excel.PopulateParameters(bytes.NewReader(master), bytes.NewReader(streamtable), tankRules())
	if err != nil {
		t.Fatalf("PopulateParameters: %v", err)
	}
	if fileName == "" {
		t.Fatal("empty output filename")
	}

	out := openResult(t, data)
	defer out.Close()

	wants := map[string]string{
		"D5":  "3.14",    // Equipment & Stream List 第 15 列，保留两位
		"E5":  "2.5",     // 列表缺失 → 回退流表 out-2 第 5 列 ×1000
		"F5":  "keepme",  // 无绑定的列整列不动
		"D6":  "998.2",   // 默认规则：输出流 0 第 6 列
		"E6":  "1100.46", // 按设备覆盖：直接指定流号
		"D7":  "in-1",    // 写流号本身
		"E7":  "",        // 无输入流 → 清空并记跳过
		"D8":  "SS316",
		"E8":  "SS316",
		"D9":  "",   // 未配置规则 → 清空，不记跳过
		"D10": "10", // NaN 忽略均值：10 与空白 → 10
		"E10": "",
		"D11": "", // strm-001 不在流表
		"D12": "", // out-1 第 8 列为空 → NaN
	}
	for ref, want := range wants {
		if got := cellAt(t, out, "Tank", ref); got != want {
			t.Fatalf("Tank!%s=%q, want %q", ref, got, want)
		}
	}

	if got := cellAt(t, out, "Agitator", "D5"); got != "in-1" {
		t.Fatalf("Agitator!D5=%q, want in-1 (binding via TK-0102_Feed)", got)
	}

	for _, want := range []string{
		"Sheet 'Misc': no param_mapping defined",
		"TK-0999_Ghost: no streams found for base 'TK-0999_Ghost'",
		"TK-0205_Other: no stream at index 0 for Stream name (stream name)",
		"no streams found for inputs for Flow avg",
		"stream 'strm-001' not found for Level",
		"NaN for Temp in stream 'out-1' at col 8",
	} {
		if !hasSkip(skipped, want) {
			t.Fatalf("skipped=%v, missing %q", skipped, want)
		}
	}
	if hasSkip(skipped, "Unconfigured") {
		t.Fatalf("skipped=%v, unconfigured parameter must not be reported", skipped)
	}
}

func TestPopulateParametersIdempotent(t *testing.T) {
	master := buildParamMaster(t)
	streamtable := buildParamStreamtable(t)

	first, _, _, err := excel.PopulateParameters(bytes.NewReader(master), bytes.NewReader(streamtable), tankRules())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, _, _, err := excel.PopulateParameters(bytes.NewReader(first), bytes.NewReader(streamtable), tankRules())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a := openResult(t, first)
	defer a.Close()
	b := openResult(t, second)
	defer b.Close()

	rowsA, err := a.GetRows("Tank")
	if err != nil {
		t.Fatalf("rows of first: %v", err)
	}
	rowsB, err := b.GetRows("Tank")
	if err != nil {
		t.Fatalf("rows of second: %v", err)
	}
	if !reflect.DeepEqual(rowsA, rowsB) {
		t.Fatalf("re-run changed values:\nfirst:  %v\nsecond: %v", rowsA, rowsB)
	}
}
