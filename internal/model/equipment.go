package model

import (
	"regexp"
	"strings"
)

// EquipmentInstance 主表中的一台设备，占所属 sheet 的一列
type EquipmentInstance struct {
	FullName   string // 完整设备名，如 "TK-0102_Oxidation_Filter_Feed_Tank"
	CodePrefix string // 首个连字符之前的代号前缀
	NumericTag string // 首个连字符之后的编号后缀
	Sheet      string
	Column     int // 1-based 列号，自 D(4) 起顺次分配，同一 sheet 内不复用
}

// numericPart 设备名必须在连字符之后带数字编号
var numericPart = regexp.MustCompile(`-.*?\d`)

// ParseEquipmentName 拆出设备名的代号前缀和编号后缀。
// 连字符后不含数字的名字不合法
func ParseEquipmentName(name string) (EquipmentInstance, bool) {
	if !numericPart.MatchString(name) {
		return EquipmentInstance{}, false
	}
	prefix, suffix, _ := strings.Cut(name, "-")
	return EquipmentInstance{
		FullName:   name,
		CodePrefix: prefix,
		NumericTag: suffix,
	}, true
}

// EquipmentStreamBinding 设备关联的输入/输出流号
// 隐含设备（如 Agitator）按其本体（TK-<编号>）的名字查找
type EquipmentStreamBinding struct {
	EquipmentName string
	Outputs       []string
	Inputs        []string
}

// PrefixSheetEntry 设备代号前缀到目标 sheet 的一条映射
type PrefixSheetEntry struct {
	Prefix string
	Sheet  string
}

// PrefixSheetMapping 有序的前缀映射表。
// 顺序即匹配优先级：按插入顺序逐条比对，首个命中生效，
// 因此表内条目的先后是语义的一部分。
type PrefixSheetMapping []PrefixSheetEntry

// Lookup 按优先级查找前缀对应的 sheet
func (m PrefixSheetMapping) Lookup(prefix string) (string, bool) {
	for _, e := range m {
		if e.Prefix == prefix {
			return e.Sheet, true
		}
	}
	return "", false
}

// ImpliedEquipment 隐含设备：由另一台设备推导出的设备（前缀替换，保留编号后缀）
type ImpliedEquipment struct {
	Prefix string
	Sheet  string
}
