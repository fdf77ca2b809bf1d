package model

// ParameterRecord 主表中的一行参数，分类后不再变化
type ParameterRecord struct {
	Category Category
	Name     string
	Unit     string
}
