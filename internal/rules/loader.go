package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSet 某个 sheet 的规则集，键为去空白后的小写参数名
type RuleSet map[string]Rule

// Lookup 大小写不敏感的参数名精确匹配
func (s RuleSet) Lookup(paramName string) (Rule, bool) {
	r, ok := s[strings.ToLower(strings.TrimSpace(paramName))]
	return r, ok
}

// Table 目标 sheet 名 → 规则集。每次解析运行重新加载
type Table map[string]RuleSet

// LoadFile 从 YAML 文件读入规则表
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load 解码 YAML 规则表。
// 规则体的键沿用 param_mapping.yaml 的写法（text / use_stream_name /
// stream_type / stream_index / col_idx / convert / stream_tag_override /
// agg / per_equipment / fallback / fallback_rule / default / overrides），
// 解码成闭合变体；对不上任何变体、或换算/聚合键未知时加载失败。
func Load(r io.Reader) (Table, error) {
	var raw map[string]map[string]map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rule table: %w", err)
	}

	table := make(Table, len(raw))
	for sheet, params := range raw {
		set := make(RuleSet, len(params))
		for param, body := range params {
			rule, err := fromRaw(body)
			if err != nil {
				return nil, fmt.Errorf("rule %q / %q: %w", sheet, param, err)
			}
			set[strings.ToLower(strings.TrimSpace(param))] = rule
		}
		table[sheet] = set
	}
	return table, nil
}

func fromRaw(m map[string]any) (Rule, error) {
	d, hasDefault := m["default"]
	o, hasOverrides := m["overrides"]
	if !hasDefault && !hasOverrides {
		return leafFromRaw(m)
	}
	if !hasDefault || !hasOverrides {
		return nil, errors.New("default/overrides must appear together")
	}

	dm, ok := asMap(d)
	if !ok {
		return nil, errors.New("default must be a rule body")
	}
	om, ok := asMap(o)
	if !ok {
		return nil, errors.New("overrides must map equipment names to rule bodies")
	}

	def, err := leafFromRaw(dm)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}

	overrides := make(map[string]Rule, len(om))
	for equip, body := range om {
		bm, ok := asMap(body)
		if !ok {
			return nil, fmt.Errorf("override for %q must be a rule body", equip)
		}
		// 覆盖体允许只写差异字段，解码时与默认体合并成完整规则
		merged := make(map[string]any, len(dm)+len(bm))
		for k, v := range dm {
			merged[k] = v
		}
		for k, v := range bm {
			merged[k] = v
		}
		rule, err := leafFromRaw(merged)
		if err != nil {
			return nil, fmt.Errorf("override for %q: %w", equip, err)
		}
		overrides[equip] = rule
	}
	return WithOverrides{Default: def, Overrides: overrides}, nil
}

func leafFromRaw(m map[string]any) (Rule, error) {
	if t, ok := m["text"]; ok {
		return Literal{Text: stringOf(t)}, nil
	}

	if stringOf(m["sheet"]) == "Equipment & Stream List" && boolOf(m["per_equipment"]) {
		col, ok := intOf(m["col_idx"])
		if !ok {
			return nil, errors.New("per_equipment rule needs col_idx")
		}
		var fallback Rule
		if boolOf(m["fallback"]) {
			fm, ok := asMap(m["fallback_rule"])
			if !ok {
				return nil, errors.New("fallback declared without fallback_rule")
			}
			var err error
			fallback, err = leafFromRaw(fm)
			if err != nil {
				return nil, fmt.Errorf("fallback_rule: %w", err)
			}
		}
		return EquipmentListLookup{ColIdx: col, Fallback: fallback}, nil
	}

	streamType, err := streamTypeOf(m)
	if err != nil {
		return nil, err
	}
	streamIndex, _ := intOf(m["stream_index"])

	if boolOf(m["use_stream_name"]) {
		return NamedStreamPassthrough{StreamType: streamType, StreamIndex: streamIndex}, nil
	}

	col, hasCol := intOf(m["col_idx"])
	if !hasCol {
		return nil, errors.New("rule body matches no known variant")
	}

	convert := Convert(stringOf(m["convert"]))
	if !convert.Valid() {
		return nil, fmt.Errorf("unknown convert key: %q", stringOf(m["convert"]))
	}

	if a, ok := m["agg"]; ok {
		agg := Agg(stringOf(a))
		if !agg.Valid() {
			return nil, fmt.Errorf("unknown agg key: %q", stringOf(a))
		}
		return StreamAggregate{StreamType: streamType, ColIdx: col, Convert: convert, Agg: agg}, nil
	}

	return StreamLookup{
		StreamType:  streamType,
		StreamIndex: streamIndex,
		ColIdx:      col,
		Convert:     convert,
		TagOverride: strings.ToLower(strings.TrimSpace(stringOf(m["stream_tag_override"]))),
	}, nil
}

func streamTypeOf(m map[string]any) (StreamType, error) {
	v, ok := m["stream_type"]
	if !ok {
		return StreamOutput, nil
	}
	t := StreamType(stringOf(v))
	if !t.Valid() {
		return "", fmt.Errorf("unknown stream_type: %q", stringOf(v))
	}
	return t, nil
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func boolOf(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func intOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
