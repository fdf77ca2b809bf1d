package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/model"
)

// DefaultPrefixSheets 设备代号前缀 → 主表 sheet 的有序映射。
// 顺序即匹配优先级，首个命中生效
var DefaultPrefixSheets = model.PrefixSheetMapping{
	{Prefix: "TK", Sheet: "Tank"},
	{Prefix: "BP_TK", Sheet: "Bolted Panel Tank"},
	{Prefix: "PF_TK", Sheet: "PreFab Tank"},
	{Prefix: "P_TK", Sheet: "Poly Tank"},
	{Prefix: "FP_PK", Sheet: "Filter Press"},
	{Prefix: "IX_PK", Sheet: "Ion Exchange"},
	{Prefix: "RO_PK", Sheet: "Reverse Osmosis System"},
	{Prefix: "S", Sheet: "Clarifier"},
	{Prefix: "E", Sheet: "Heat Exchanger-1"},
	{Prefix: "SL", Sheet: "Silos"},
	{Prefix: "F", Sheet: "Media Filter"},
}

// DefaultImpliedEquipment 隐含设备表：每台 TK 在 Agitator sheet 另生成一台 A
var DefaultImpliedEquipment = map[string][]model.ImpliedEquipment{
	"TK": {{Prefix: "A", Sheet: "Agitator"}},
}

// SpecialCaseRule 特例设备集：按完整设备名精确匹配，
// 命中后在 Sheet 上追加一列，并按 Implied 生成伴生设备。
// 与前缀映射的结果相互独立，是纯增量副作用
type SpecialCaseRule struct {
	Names   []string
	Sheet   string
	Implied []model.ImpliedEquipment
}

// EquipmentOptions 可替换的映射表（默认取上面的固定表）
type EquipmentOptions struct {
	PrefixSheets model.PrefixSheetMapping
	Implied      map[string][]model.ImpliedEquipment
	SpecialCases []SpecialCaseRule
}

// PopulateEquipmentNames 把 Equipment & Stream List 中的设备名写入主表：
// 每台设备占目标 sheet 行 3 自 D 列起的第一个空列，
// 各 sheet 的累计台数写入 B2
func PopulateEquipmentNames(master, streamtable io.Reader) ([]byte, string, []string, error) {
	return PopulateEquipmentNamesWithOptions(master, streamtable, EquipmentOptions{})
}

// PopulateEquipmentNamesWithOptions 同上，允许替换映射表
func PopulateEquipmentNamesWithOptions(master, streamtable io.Reader, opts EquipmentOptions) ([]byte, string, []string, error) {
	if opts.PrefixSheets == nil {
		opts.PrefixSheets = DefaultPrefixSheets
	}
	if opts.Implied == nil {
		opts.Implied = DefaultImpliedEquipment
	}

	wb, err := excelize.OpenReader(master)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open master workbook: %w", err)
	}
	defer wb.Close()

	st, err := excelize.OpenReader(streamtable)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open streamtable workbook: %w", err)
	}
	defer st.Close()

	names, err := readEquipmentNames(st)
	if err != nil {
		return nil, "", nil, err
	}

	skipped := make([]string, 0)
	counts := make(map[string]int)

	for _, name := range names {
		inst, ok := model.ParseEquipmentName(name)
		if !ok {
			skipped = append(skipped, fmt.Sprintf("%s: no numeric part in name", name))
			continue
		}

		matched := false
		for _, entry := range opts.PrefixSheets {
			if inst.CodePrefix != entry.Prefix {
				continue
			}
			matched = true
			if !sheetExists(wb, entry.Sheet) {
				skipped = append(skipped, fmt.Sprintf("%s: sheet '%s' not found", name, entry.Sheet))
				break
			}
			if err := appendEquipment(wb, entry.Sheet, name, counts); err != nil {
				return nil, "", nil, err
			}
			for _, implied := range opts.Implied[entry.Prefix] {
				impliedName := implied.Prefix + "-" + inst.NumericTag
				if !sheetExists(wb, implied.Sheet) {
					skipped = append(skipped, fmt.Sprintf("%s: sheet '%s' not found", impliedName, implied.Sheet))
					continue
				}
				if err := appendEquipment(wb, implied.Sheet, impliedName, counts); err != nil {
					return nil, "", nil, err
				}
			}
			break
		}
		if !matched {
			skipped = append(skipped, fmt.Sprintf("%s: no mapping for code", name))
		}

		// 特例集与前缀映射互不影响，命中即追加
		for _, sc := range opts.SpecialCases {
			if !containsName(sc.Names, name) {
				continue
			}
			if !sheetExists(wb, sc.Sheet) {
				skipped = append(skipped, fmt.Sprintf("%s: sheet '%s' not found", name, sc.Sheet))
			} else if err := appendEquipment(wb, sc.Sheet, name, counts); err != nil {
				return nil, "", nil, err
			}
			for _, implied := range sc.Implied {
				impliedName := implied.Prefix + "-" + inst.NumericTag
				if !sheetExists(wb, implied.Sheet) {
					skipped = append(skipped, fmt.Sprintf("%s: sheet '%s' not found", impliedName, implied.Sheet))
					continue
				}
				if err := appendEquipment(wb, implied.Sheet, impliedName, counts); err != nil {
					return nil, "", nil, err
				}
			}
		}
	}

	for sheet, count := range counts {
		if err := setCell(wb, sheet, unitCountCol, unitCountRow, count); err != nil {
			return nil, "", nil, fmt.Errorf("write unit count for %q: %w", sheet, err)
		}
	}

	data, err := saveWorkbook(wb)
	if err != nil {
		return nil, "", nil, err
	}
	return data, stampedName("Master_DataSheet_EquipmentPopulated", ".xlsx"), skipped, nil
}

// readEquipmentNames 流表 Equipment & Stream List 第 1 列，数据自行 4 起，保持源行序。
// 列分配顺序完全由源行序决定，从不排序
func readEquipmentNames(st *excelize.File) ([]string, error) {
	rows, err := st.GetRows(streamListSheet)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", streamListSheet, err)
	}

	var names []string
	for i := streamListStartRow - 1; i < len(rows); i++ {
		if name := rowCell(rows[i], streamListNameCol); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func appendEquipment(wb *excelize.File, sheet, name string, counts map[string]int) error {
	col, err := FirstEmptyColumn(wb, sheet, equipRow, equipAnchorCol)
	if err != nil {
		return fmt.Errorf("scan columns of %q: %w", sheet, err)
	}
	if err := setCell(wb, sheet, col, equipRow, name); err != nil {
		return fmt.Errorf("write equipment %q: %w", name, err)
	}
	counts[sheet]++
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
