package model

// StreamRecord Stream Table V 中的一行
type StreamRecord struct {
	Tag     string   // 规范化流号：去空白并转小写
	Columns []string // 整行单元格值，按列位置存放
}

// Column 按 1-based 列号取值，越界返回空
func (r StreamRecord) Column(colIdx int) string {
	if colIdx < 1 || colIdx > len(r.Columns) {
		return ""
	}
	return r.Columns[colIdx-1]
}
