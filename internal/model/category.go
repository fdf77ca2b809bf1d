package model

// Category 参数分类（主表固定五类）
type Category string

const (
	CategoryProjectConstant Category = "Project Constant"
	CategorySysCAD          Category = "SysCAD Inputs"
	CategoryLabPilot        Category = "Lab/Pilot Inputs"
	CategoryEngineering     Category = "Engineering Inputs"
	CategoryVendor          Category = "Vendor Inputs"
)

// categoryLabels 原始数据表中的分类标签 → 标准分类
// 只认这五个标签，严格全量匹配，未识别的行直接丢弃
var categoryLabels = map[string]Category{
	"SysCAD":            CategorySysCAD,
	"Engineering Input": CategoryEngineering,
	"Lab/Pilot Value":   CategoryLabPilot,
	"Project Constant":  CategoryProjectConstant,
	"Vendor Input":      CategoryVendor,
}

// orderedCategories 主表输出的固定分类顺序，与原始行顺序无关
var orderedCategories = []Category{
	CategoryProjectConstant,
	CategorySysCAD,
	CategoryLabPilot,
	CategoryEngineering,
	CategoryVendor,
}

// CategoryFromLabel 识别原始分类标签
func CategoryFromLabel(raw string) (Category, bool) {
	c, ok := categoryLabels[raw]
	return c, ok
}

// OrderedCategories 返回固定分类顺序的副本
func OrderedCategories() []Category {
	out := make([]Category, len(orderedCategories))
	copy(out, orderedCategories)
	return out
}
