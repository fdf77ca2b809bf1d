package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// 主表锚点约定：
// B2 = 设备台数，行3 = 完整设备名（自 D 列起），行4 = 可选简称行，
// 行5 起为参数数据（A 分类 / B 参数名 / C 单位 / D+ 各设备取值）
const (
	unitCountRow   = 2
	unitCountCol   = 2 // B
	equipRow       = 3
	equipAnchorCol = 4 // D
	paramScanRow   = 4 // 参数解析自此行向下扫描
	paramStartRow  = 5 // 分类分组数据自此行写入
	categoryCol    = 1 // A
	paramNameCol   = 2 // B
	unitCol        = 3 // C
)

// stampedName 带 年-月-日_时-分 时间戳的输出文件名
func stampedName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, time.Now().Format("2006-01-02_15-04"), ext)
}

// saveWorkbook 把工作簿写成字节流。所有公开操作只进出内存，不落盘
func saveWorkbook(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
