package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/model"
)

// 流表导出文件的固定版式
const (
	streamListSheet    = "Equipment & Stream List"
	streamListStartRow = 4 // 数据行起点（1-based）
	streamListNameCol  = 1
	streamListOutLo    = 2 // 输出流号占 B..F
	streamListOutHi    = 6
	streamListInLo     = 7 // 输入流号占 G..M
	streamListInHi     = 13

	streamTableSheet   = "Stream Table V"
	streamTableDataRow = 8 // 表头占前 7 行，数据自此行起
)

// StreamBindings 设备名 → 输入/输出流号绑定，并保留源行用于逐设备取值
type StreamBindings struct {
	byName map[string]model.EquipmentStreamBinding
	rows   [][]string
}

// Lookup 按设备名查绑定
func (b *StreamBindings) Lookup(name string) (model.EquipmentStreamBinding, bool) {
	bind, ok := b.byName[name]
	return bind, ok
}

// Row 按设备名（大小写不敏感）在源行中找该设备自己的一行，按源顺序首个命中
func (b *StreamBindings) Row(name string) ([]string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, row := range b.rows {
		if strings.ToLower(rowCell(row, streamListNameCol)) == want {
			return row, true
		}
	}
	return nil, false
}

// parseStreamBindings 解析 Equipment & Stream List：
// 第 1 列设备名，第 2–6 列输出流号，第 7–13 列输入流号
func parseStreamBindings(f *excelize.File) (*StreamBindings, error) {
	rows, err := f.GetRows(streamListSheet)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", streamListSheet, err)
	}

	b := &StreamBindings{byName: make(map[string]model.EquipmentStreamBinding)}
	for i := streamListStartRow - 1; i < len(rows); i++ {
		row := rows[i]
		name := rowCell(row, streamListNameCol)
		if name == "" {
			continue
		}
		b.byName[name] = model.EquipmentStreamBinding{
			EquipmentName: name,
			Outputs:       streamTags(row, streamListOutLo, streamListOutHi),
			Inputs:        streamTags(row, streamListInLo, streamListInHi),
		}
		b.rows = append(b.rows, row)
	}
	return b, nil
}

// streamTags 取 [lo, hi] 区间内的非空流号，保持列序
func streamTags(row []string, lo, hi int) []string {
	var tags []string
	for col := lo; col <= hi; col++ {
		if tag := rowCell(row, col); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// StreamTable Stream Table V 的索引：规范化流号 → 整行。
// 建好后不保证行序，只保证按流号查找；流号重复时后出现的行覆盖先出现的
type StreamTable struct {
	byTag map[string]model.StreamRecord
}

// Lookup 按流号查行，查前做同样的规范化。查不到是正常缺失，不是错误
func (t *StreamTable) Lookup(tag string) (model.StreamRecord, bool) {
	rec, ok := t.byTag[normalizeTag(tag)]
	return rec, ok
}

func parseStreamTable(f *excelize.File) (*StreamTable, error) {
	rows, err := f.GetRows(streamTableSheet)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", streamTableSheet, err)
	}

	t := &StreamTable{byTag: make(map[string]model.StreamRecord)}
	for i := streamTableDataRow - 1; i < len(rows); i++ {
		row := rows[i]
		tag := normalizeTag(rowCell(row, 1))
		if tag == "" {
			continue
		}
		columns := make([]string, len(row))
		copy(columns, row)
		t.byTag[tag] = model.StreamRecord{Tag: tag, Columns: columns}
	}
	return t, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
