package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/model"
	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/rules"
)

// ImpliedBindingBases 隐含设备 sheet → 流绑定所属的本体前缀。
// Agitator 自己没有流，绑定挂在推导它的 TK-<编号> 名下
var ImpliedBindingBases = map[string]string{
	"Agitator": "TK",
}

// PopulateParameters 参数解析引擎。
// 对主表每个 (sheet, 设备列, 参数行) 按规则表取值并写入：
// 未配置规则的参数清空且不记跳过；配置了但取不到值的清空并记一条跳过原因；
// 成功取到的数值统一保留两位小数。未知换算键视为规则表损坏，整个运行失败
func PopulateParameters(master, streamtable io.Reader, table rules.Table) ([]byte, string, []string, error) {
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

	bindings, err := parseStreamBindings(st)
	if err != nil {
		return nil, "", nil, err
	}
	streams, err := parseStreamTable(st)
	if err != nil {
		return nil, "", nil, err
	}

	skipped := make([]string, 0)

	for _, sheetName := range wb.GetSheetList() {
		ruleSet, ok := table[sheetName]
		if !ok {
			skipped = append(skipped, fmt.Sprintf("[SKIP] Sheet '%s': no param_mapping defined", sheetName))
			continue
		}

		rows, err := wb.GetRows(sheetName)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		maxRow := len(rows)
		maxCol := 0
		for _, row := range rows {
			if len(row) > maxCol {
				maxCol = len(row)
			}
		}

		for col := equipAnchorCol; col <= maxCol; col++ {
			equipName := ""
			if equipRow <= len(rows) {
				equipName = rowCell(rows[equipRow-1], col)
			}
			if equipName == "" {
				continue
			}

			// 隐含设备的流绑定挂在本体名下：前缀替换，编号后缀不变
			streamsKey := equipName
			if base, implied := ImpliedBindingBases[sheetName]; implied {
				if !strings.Contains(equipName, "-") {
					skipped = append(skipped, fmt.Sprintf("[SKIP] %s: invalid format for implied equipment", equipName))
					continue
				}
				_, suffix, _ := strings.Cut(equipName, "-")
				streamsKey = base + "-" + suffix
			}

			binding, ok := bindings.Lookup(streamsKey)
			if !ok {
				skipped = append(skipped, fmt.Sprintf("[SKIP] %s: no streams found for base '%s'", equipName, streamsKey))
				continue
			}

			env := &paramEnv{
				wb:         wb,
				sheet:      sheetName,
				equipName:  equipName,
				streamsKey: streamsKey,
				binding:    binding,
				bindings:   bindings,
				streams:    streams,
				col:        col,
				skipped:    &skipped,
			}

			for row := paramScanRow; row <= maxRow; row++ {
				paramName := rowCell(rows[row-1], paramNameCol)
				rule, ok := ruleSet.Lookup(paramName)
				if !ok {
					// 未配置即清空，不算跳过
					if err := clearCell(wb, sheetName, col, row); err != nil {
						return nil, "", nil, err
					}
					continue
				}
				env.row = row
				if err := env.apply(rule, paramName); err != nil {
					return nil, "", nil, err
				}
			}
		}
	}

	data, err := saveWorkbook(wb)
	if err != nil {
		return nil, "", nil, err
	}
	return data, stampedName("Master_DataSheet_ParametersPopulated", ".xlsx"), skipped, nil
}

// paramEnv 一台设备一列的求值上下文
type paramEnv struct {
	wb         *excelize.File
	sheet      string
	equipName  string
	streamsKey string
	binding    model.EquipmentStreamBinding
	bindings   *StreamBindings
	streams    *StreamTable
	col        int
	row        int
	skipped    *[]string
}

func (env *paramEnv) apply(rule rules.Rule, paramName string) error {
	switch r := rule.(type) {
	case rules.WithOverrides:
		next := r.Default
		if override, ok := r.Overrides[env.equipName]; ok {
			next = override
		}
		return env.apply(next, paramName)

	case rules.Literal:
		return env.write(r.Text)

	case rules.EquipmentListLookup:
		if row, ok := env.bindings.Row(env.streamsKey); ok {
			if v, ok := parseCellFloat(rowCell(row, r.ColIdx)); ok {
				return env.write(round2(v))
			}
		}
		if r.Fallback == nil {
			return env.skip("[SKIP] %s: %s missing in Equipment & Stream List, no fallback", env.equipName, paramName)
		}
		return env.apply(r.Fallback, paramName)

	case rules.NamedStreamPassthrough:
		tags := env.tags(r.StreamType)
		if r.StreamIndex >= len(tags) {
			return env.skip("[SKIP] %s: no stream at index %d for %s (stream name)", env.equipName, r.StreamIndex, paramName)
		}
		return env.write(tags[r.StreamIndex])

	case rules.StreamLookup:
		tag := r.TagOverride
		if tag == "" {
			tags := env.tags(r.StreamType)
			if len(tags) == 0 {
				return env.skip("[SKIP] %s: no streams found for %ss for %s", env.equipName, r.StreamType, paramName)
			}
			if r.StreamIndex >= len(tags) {
				return env.skip("[SKIP] %s: no stream at index %d for %s", env.equipName, r.StreamIndex, paramName)
			}
			tag = normalizeTag(tags[r.StreamIndex])
		}

		rec, ok := env.streams.Lookup(tag)
		if !ok {
			return env.skip("[SKIP] %s: stream '%s' not found for %s", env.equipName, tag, paramName)
		}
		v, ok := parseCellFloat(rec.Column(r.ColIdx))
		if !ok {
			return env.skip("[SKIP] %s: NaN for %s in stream '%s' at col %d", env.equipName, paramName, tag, r.ColIdx)
		}
		converted, err := r.Convert.Apply(v)
		if err != nil {
			return err
		}
		return env.write(round2(converted))

	case rules.StreamAggregate:
		tags := env.tags(r.StreamType)
		if len(tags) == 0 {
			return env.skip("[SKIP] %s: no streams found for %ss for %s", env.equipName, r.StreamType, paramName)
		}
		// NaN 忽略聚合：查不到的流号与空白/非数值单元格同样略过
		var sum float64
		var n int
		for _, tag := range tags {
			rec, ok := env.streams.Lookup(tag)
			if !ok {
				continue
			}
			if v, ok := parseCellFloat(rec.Column(r.ColIdx)); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return env.skip("[SKIP] %s: NaN for %s across %s streams at col %d", env.equipName, paramName, r.StreamType, r.ColIdx)
		}
		result := sum
		if r.Agg == rules.AggAvg {
			result = sum / float64(n)
		}
		converted, err := r.Convert.Apply(result)
		if err != nil {
			return err
		}
		return env.write(round2(converted))

	default:
		return fmt.Errorf("unsupported rule kind %T for %q", rule, paramName)
	}
}

func (env *paramEnv) tags(t rules.StreamType) []string {
	if t == rules.StreamInput {
		return env.binding.Inputs
	}
	return env.binding.Outputs
}

func (env *paramEnv) write(v any) error {
	return setCell(env.wb, env.sheet, env.col, env.row, v)
}

// skip 记一条跳过原因并清空单元格，从不留下旧值
func (env *paramEnv) skip(format string, args ...any) error {
	*env.skipped = append(*env.skipped, fmt.Sprintf(format, args...))
	return clearCell(env.wb, env.sheet, env.col, env.row)
}
