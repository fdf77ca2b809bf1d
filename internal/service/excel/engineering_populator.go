package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 工程输入值在原始数据表中的固定列位：参数名 C 列，取值 K 列
const (
	engineeringParamCol = 3
	engineeringValueCol = 11
)

// PopulateEngineeringInputs 把工程输入值回填进主表。
// 按 sheet 名对应到原始数据表的同名 sheet，以规范化参数名查值，
// 命中后广播到该行所有当前为空的设备列；与核心引擎不同，本步从不清空已有值
func PopulateEngineeringInputs(master, datasheets io.Reader) ([]byte, string, []string, error) {
	wb, err := excelize.OpenReader(master)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open master workbook: %w", err)
	}
	defer wb.Close()

	ds, err := excelize.OpenReader(datasheets)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open datasheets workbook: %w", err)
	}
	defer ds.Close()

	skipped := make([]string, 0)

	for _, sheetName := range wb.GetSheetList() {
		if !sheetExists(ds, sheetName) {
			skipped = append(skipped, fmt.Sprintf("[SKIP] Sheet '%s' not found in datasheets workbook.", sheetName))
			continue
		}

		values, err := readEngineeringValues(ds, sheetName)
		if err != nil {
			return nil, "", nil, err
		}

		rows, err := wb.GetRows(sheetName)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		maxCol := 0
		for _, row := range rows {
			if len(row) > maxCol {
				maxCol = len(row)
			}
		}

		for row := paramStartRow; row <= len(rows); row++ {
			category, err := CurrentCategory(wb, sheetName, row)
			if err != nil {
				return nil, "", nil, err
			}
			if category == "" {
				continue
			}

			paramName := rowCell(rows[row-1], paramNameCol)
			if paramName == "" {
				continue
			}

			value, ok := values[normalizeParam(paramName)]
			if !ok {
				skipped = append(skipped, fmt.Sprintf("[SKIP] %s (%s): parameter '%s' not found in datasheets", sheetName, category, paramName))
				continue
			}

			for col := equipAnchorCol; col <= maxCol; col++ {
				current, err := cellValue(wb, sheetName, col, row)
				if err != nil {
					return nil, "", nil, err
				}
				if current != "" {
					continue
				}
				if err := setCell(wb, sheetName, col, row, value); err != nil {
					return nil, "", nil, err
				}
			}
		}
	}

	data, err := saveWorkbook(wb)
	if err != nil {
		return nil, "", nil, err
	}
	return data, stampedName("Master_DataSheet_EngineeringInputsPopulated", ".xlsx"), skipped, nil
}

// readEngineeringValues 建 规范化参数名 → 取值 的映射。
// 数值可解析时按数值写入，否则按原文写入
func readEngineeringValues(ds *excelize.File, sheetName string) (map[string]any, error) {
	rows, err := ds.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read datasheets sheet %q: %w", sheetName, err)
	}

	values := make(map[string]any)
	for _, row := range rows {
		param := rowCell(row, engineeringParamCol)
		if param == "" {
			continue
		}
		raw := rowCell(row, engineeringValueCol)
		if v, ok := parseCellFloat(raw); ok {
			values[normalizeParam(param)] = v
		} else {
			values[normalizeParam(param)] = raw
		}
	}
	return values, nil
}

// normalizeParam 参数名规范化：去空白、转小写、去掉尾部冒号
func normalizeParam(s string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), ":")
}
