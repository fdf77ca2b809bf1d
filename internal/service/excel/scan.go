package excel

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FirstEmptyColumn 返回 row 行中自 anchor 列起第一个空单元格的列号。
// 设备列即按此约定顺次分配，不留空洞也不复用
func FirstEmptyColumn(f *excelize.File, sheet string, row, anchor int) (int, error) {
	for col := anchor; ; col++ {
		v, err := cellValue(f, sheet, col, row)
		if err != nil {
			return 0, err
		}
		if v == "" {
			return col, nil
		}
	}
}

// CurrentCategory 从 row 行起在 A 列向上扫描，返回所属分类块的标签。
// 分类单元格按块纵向合并，只有块首行有值，向上找到的第一个非空值即当前分类
func CurrentCategory(f *excelize.File, sheet string, row int) (string, error) {
	for r := row; r >= paramStartRow; r-- {
		v, err := cellValue(f, sheet, categoryCol, r)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

func cellValue(f *excelize.File, sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	v, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

// clearCell 显式清空：所有未命中路径都写空，不留旧值
func clearCell(f *excelize.File, sheet string, col, row int) error {
	return setCell(f, sheet, col, row, nil)
}

func sheetExists(f *excelize.File, sheet string) bool {
	idx, err := f.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// rowCell 从 GetRows 快照按 1-based 列号取值，越界返回空
func rowCell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

// parseCellFloat 单元格文本转数值。空白、非数值、NaN 一律视为缺失
func parseCellFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// round2 数值结果统一保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
