package rules

import "fmt"

// StreamType 流方向：设备的输入流或输出流
type StreamType string

const (
	StreamInput  StreamType = "input"
	StreamOutput StreamType = "output"
)

// Valid 是否为已知流方向
func (t StreamType) Valid() bool {
	return t == StreamInput || t == StreamOutput
}

// Convert 数值换算方式
type Convert string

const (
	ConvertNone         Convert = ""
	ConvertMultiply1000 Convert = "multiply_1000"
	ConvertMultiply100  Convert = "multiply_100"
	ConvertDivide1000   Convert = "divide_1000"
)

// Apply 对数值施加换算。未知换算键视为规则表损坏，整个运行失败
func (c Convert) Apply(v float64) (float64, error) {
	switch c {
	case ConvertNone:
		return v, nil
	case ConvertMultiply1000:
		return v * 1000, nil
	case ConvertMultiply100:
		return v * 100, nil
	case ConvertDivide1000:
		return v / 1000, nil
	default:
		return 0, fmt.Errorf("unknown convert key: %q", string(c))
	}
}

// Valid 是否为已知换算键
func (c Convert) Valid() bool {
	switch c {
	case ConvertNone, ConvertMultiply1000, ConvertMultiply100, ConvertDivide1000:
		return true
	}
	return false
}

// Agg 跨流聚合方式
type Agg string

const (
	AggAvg Agg = "avg"
	AggSum Agg = "sum"
)

// Valid 是否为已知聚合键
func (a Agg) Valid() bool {
	return a == AggAvg || a == AggSum
}

// Rule 参数取值规则，闭合变体。
// fallback 与 override 在解码时展开为叶子规则，变体本身无法构成环，
// 因此求值必然终止。
type Rule interface {
	isRule()
}

// Literal 固定文本，原样写入，永不失败
type Literal struct {
	Text string
}

// NamedStreamPassthrough 直接写入流号本身（而非流的数值）
type NamedStreamPassthrough struct {
	StreamType  StreamType
	StreamIndex int
}

// StreamLookup 按流号去 Stream Table V 取某列的数值
type StreamLookup struct {
	StreamType  StreamType
	StreamIndex int
	ColIdx      int // 1-based
	Convert     Convert
	TagOverride string // 非空时跳过流号列表，直接用该流号
}

// StreamAggregate 对设备某方向的全部流做 NaN 忽略聚合
type StreamAggregate struct {
	StreamType StreamType
	ColIdx     int // 1-based
	Convert    Convert
	Agg        Agg
}

// EquipmentListLookup 从 Equipment & Stream List 中该设备自己的行取值，
// 缺失时可回退到另一条规则
type EquipmentListLookup struct {
	ColIdx   int // 1-based
	Fallback Rule
}

// WithOverrides 默认规则加按设备名的覆盖规则
type WithOverrides struct {
	Default   Rule
	Overrides map[string]Rule
}

func (Literal) isRule()                {}
func (NamedStreamPassthrough) isRule() {}
func (StreamLookup) isRule()           {}
func (StreamAggregate) isRule()        {}
func (EquipmentListLookup) isRule()    {}
func (WithOverrides) isRule()          {}
