package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/model"
)

// ColumnTriple 原始数据表中参数名/单位/分类标签所在列（0-based）
type ColumnTriple struct {
	Param    int
	Unit     int
	Category int
}

// defaultColumns 默认取 C / E / I 三列
var defaultColumns = ColumnTriple{Param: 2, Unit: 4, Category: 8}

// sheetColumns 按 sheet 名覆盖默认列位
var sheetColumns = map[string]ColumnTriple{
	"Heat Exchanger-1": {Param: 2, Unit: 11, Category: 25}, // C / L / Z
}

// GenerateMaster 从原始设备数据表生成主表骨架：
// 每个设备类型一个 sheet，参数按固定五类分组，分类标签在 A 列按块纵向合并。
// 分类列缺失或没有可识别分类的 sheet 整体跳过，不生成输出 sheet
func GenerateMaster(raw io.Reader) ([]byte, string, []string, error) {
	src, err := excelize.OpenReader(raw)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open raw workbook: %w", err)
	}
	defer src.Close()

	out := excelize.NewFile()
	skipped := make([]string, 0)
	created := 0

	for _, sheetName := range src.GetSheetList() {
		rows, err := src.GetRows(sheetName)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}

		cols, ok := sheetColumns[sheetName]
		if !ok {
			cols = defaultColumns
		}

		records := classifySheet(rows, cols)
		if len(records) == 0 {
			skipped = append(skipped, fmt.Sprintf("[SKIP] Sheet '%s': no category data", sheetName))
			continue
		}

		// Excel sheet 名上限 31 字符
		name := sheetName
		if len(name) > 31 {
			name = name[:31]
		}
		if _, err := out.NewSheet(name); err != nil {
			return nil, "", nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		writeMasterSheet(out, name, sheetName, records)
		created++
	}

	if created > 0 {
		if err := out.DeleteSheet("Sheet1"); err != nil {
			return nil, "", nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	data, err := saveWorkbook(out)
	if err != nil {
		return nil, "", nil, err
	}
	return data, stampedName("Master_DataSheet", ".xlsx"), skipped, nil
}

// classifySheet 把原始行分桶成参数记录。
// 仅当参数名和分类单元格都非空、且分类标签严格命中五类之一时才产出记录
func classifySheet(rows [][]string, cols ColumnTriple) []model.ParameterRecord {
	var records []model.ParameterRecord
	for _, row := range rows {
		param := rowCell(row, cols.Param+1)
		rawCategory := rowCell(row, cols.Category+1)
		if param == "" || rawCategory == "" {
			continue
		}
		category, ok := model.CategoryFromLabel(rawCategory)
		if !ok {
			continue
		}
		records = append(records, model.ParameterRecord{
			Category: category,
			Name:     param,
			Unit:     rowCell(row, cols.Unit+1),
		})
	}
	return records
}

func writeMasterSheet(out *excelize.File, name, title string, records []model.ParameterRecord) {
	grouped := make(map[model.Category][]model.ParameterRecord)
	for _, rec := range records {
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}

	setCell(out, name, 1, 1, title)
	setCell(out, name, 1, unitCountRow, "Number of units =")
	headers := []string{"Parameter Category", "Input Parameters", "Units"}
	for i, h := range headers {
		setCell(out, name, i+1, equipRow, h)
		setCell(out, name, i+1, equipRow+1, h)
	}

	row := paramStartRow
	for _, category := range model.OrderedCategories() {
		list := grouped[category]
		if len(list) == 0 {
			continue
		}

		start := row
		setCell(out, name, categoryCol, row, string(category))
		for _, rec := range list {
			setCell(out, name, paramNameCol, row, rec.Name)
			setCell(out, name, unitCol, row, rec.Unit)
			row++
		}

		if end := row - 1; end > start {
			startCell, _ := excelize.CoordinatesToCellName(categoryCol, start)
			endCell, _ := excelize.CoordinatesToCellName(categoryCol, end)
			out.MergeCell(name, startCell, endCell)
		}
	}
}
