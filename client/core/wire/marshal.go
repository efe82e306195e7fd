package wire

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/holiman/uint256"
)

// ArgumentMarshaler 由参数结构体自行实现的整体转换
//
// 实现该接口的类型跳过反射，直接返回参数序列。
type ArgumentMarshaler interface {
	MarshalArguments() ([]Value, error)
}

// ValueMarshaler 由字段类型自行实现的单值转换
type ValueMarshaler interface {
	MarshalWire() (Value, error)
}

var (
	valueMarshalerType = reflect.TypeOf((*ValueMarshaler)(nil)).Elem()
	textMarshalerType  = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	valueType          = reflect.TypeOf((*Value)(nil)).Elem()
	uint256Type        = reflect.TypeOf(uint256.Int{})
)

// encoderFunc 单值编码函数
type encoderFunc func(v reflect.Value) (Value, error)

// encoder 按类型缓存的编码器
//
// err 非空表示该类型不可表示，任何值（包括 nil）都返回 err。
// wait 非空表示构建尚未完成的间接编码器。
type encoder struct {
	fn   encoderFunc
	err  error
	wait func() *encoder
}

func (e *encoder) resolved() *encoder {
	if e.wait != nil {
		return e.wait()
	}
	return e
}

func (e *encoder) encode(v reflect.Value) (Value, error) {
	r := e.resolved()
	if r.err != nil {
		return nil, r.err
	}
	return r.fn(v)
}

// fieldPlan 单个字段的编码计划
type fieldPlan struct {
	name  string
	index int
	enc   *encoder
}

// structPlan 结构体类型的编码计划
type structPlan struct {
	fields []fieldPlan
	err    error // 形状错误，缓存后直接返回
}

var (
	plans    sync.Map // map[reflect.Type]*structPlan
	encoders sync.Map // map[reflect.Type]*encoder
)

// Marshal 将参数结构体转换为有序参数序列
//
// 接受结构体或指向结构体的指针。失败时返回 nil 切片与错误：
//   - 非结构体、含未导出字段或匿名嵌入字段：ErrUnsupportedShape
//   - 某字段值无法表示：*FieldError（errors.Is 匹配 ErrFieldSerializationFailed）
func Marshal(params interface{}) ([]Value, error) {
	if params == nil {
		return nil, shapeError("nil parameters")
	}

	if m, ok := params.(ArgumentMarshaler); ok {
		return marshalCustom(m)
	}

	rv := reflect.ValueOf(params)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, shapeError("nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, shapeError("%s is not a struct", rv.Type())
	}

	plan := planFor(rv.Type())
	if plan.err != nil {
		return nil, plan.err
	}

	out := make([]Value, 0, len(plan.fields))
	for _, f := range plan.fields {
		v, err := f.enc.encode(rv.Field(f.index))
		if err != nil {
			return nil, asFieldError(f.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func marshalCustom(m ArgumentMarshaler) ([]Value, error) {
	out, err := m.MarshalArguments()
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) || errors.Is(err, ErrUnsupportedShape) {
			return nil, err
		}
		return nil, &FieldError{Field: "*", Err: err}
	}
	for i, v := range out {
		if v == nil {
			return nil, &FieldError{Field: strconv.Itoa(i), Err: errors.New("nil value")}
		}
	}
	return out, nil
}

// planFor 获取或构建结构体编码计划
func planFor(t reflect.Type) *structPlan {
	if cached, ok := plans.Load(t); ok {
		return cached.(*structPlan)
	}
	plan := buildPlan(t)
	actual, _ := plans.LoadOrStore(t, plan)
	return actual.(*structPlan)
}

func buildPlan(t reflect.Type) *structPlan {
	plan := &structPlan{fields: make([]fieldPlan, 0, t.NumField())}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			return &structPlan{err: shapeError("%s: embedded field %s", t, sf.Name)}
		}
		if !sf.IsExported() {
			return &structPlan{err: shapeError("%s: unexported field %s", t, sf.Name)}
		}
		plan.fields = append(plan.fields, fieldPlan{
			name:  sf.Name,
			index: i,
			enc:   typeEncoder(sf.Type),
		})
	}
	return plan
}

// typeEncoder 获取或构建类型的编码器
//
// 元素编码器在构建时一并解析；自引用类型在构建期间先拿到一个等待构建完成的间接编码器。
func typeEncoder(t reflect.Type) *encoder {
	if cached, ok := encoders.Load(t); ok {
		return cached.(*encoder)
	}

	var (
		wg    sync.WaitGroup
		built *encoder
	)
	wg.Add(1)
	indirect := &encoder{wait: func() *encoder {
		wg.Wait()
		return built
	}}
	if actual, loaded := encoders.LoadOrStore(t, indirect); loaded {
		return actual.(*encoder)
	}

	built = newEncoder(t)
	wg.Done()
	encoders.Store(t, built)
	return built
}

func unsupported(t reflect.Type) *encoder {
	return &encoder{err: fmt.Errorf("type %s is not representable", t)}
}

// newEncoder 按类型选择编码函数
//
// 顺序：ValueMarshaler → Value 透传 → uint256 → 指针(Option) → TextMarshaler → 基本种类
func newEncoder(t reflect.Type) *encoder {
	if t.Implements(valueMarshalerType) {
		return &encoder{fn: encodeValueMarshaler}
	}
	if t == valueType {
		return &encoder{fn: encodeValue}
	}
	if t == uint256Type {
		return &encoder{fn: encodeUint256}
	}
	if t.Kind() == reflect.Pointer && t.Elem() == uint256Type {
		return &encoder{fn: encodeUint256Ptr}
	}
	if t.Kind() == reflect.Pointer {
		return optionEncoder(t)
	}
	if t.Implements(textMarshalerType) {
		return &encoder{fn: encodeText}
	}
	if reflect.PointerTo(t).Implements(textMarshalerType) {
		return &encoder{fn: encodeTextAddr}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &encoder{fn: func(v reflect.Value) (Value, error) {
			return Bool(v.Bool()), nil
		}}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &encoder{fn: func(v reflect.Value) (Value, error) {
			return NewNumber(v.Uint()), nil
		}}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &encoder{fn: encodeSigned}
	case reflect.String:
		return &encoder{fn: func(v reflect.Value) (Value, error) {
			return String(v.String()), nil
		}}
	case reflect.Slice, reflect.Array:
		return sequenceEncoder(t)
	case reflect.Interface:
		return &encoder{fn: encodeDynamic}
	default:
		return unsupported(t)
	}
}

func encodeValueMarshaler(v reflect.Value) (Value, error) {
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil, errors.New("nil marshaler")
	}
	out, err := v.Interface().(ValueMarshaler).MarshalWire()
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("marshaler returned nil value")
	}
	return out, nil
}

func encodeValue(v reflect.Value) (Value, error) {
	if v.IsNil() {
		return nil, errors.New("nil value")
	}
	return v.Interface().(Value), nil
}

func encodeUint256(v reflect.Value) (Value, error) {
	x := v.Interface().(uint256.Int)
	return String(x.Dec()), nil
}

func encodeUint256Ptr(v reflect.Value) (Value, error) {
	if v.IsNil() {
		return nil, errors.New("nil uint256")
	}
	return String(v.Interface().(*uint256.Int).Dec()), nil
}

func encodeText(v reflect.Value) (Value, error) {
	text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return nil, err
	}
	return String(text), nil
}

func encodeTextAddr(v reflect.Value) (Value, error) {
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return encodeText(ptr)
}

func encodeSigned(v reflect.Value) (Value, error) {
	n := v.Int()
	if n < 0 {
		return nil, fmt.Errorf("negative integer %d", n)
	}
	return NewNumber(uint64(n)), nil
}

// optionEncoder 指针编码为 Option：nil → []，非 nil → [elem]
func optionEncoder(t reflect.Type) *encoder {
	elem := typeEncoder(t.Elem())
	if elem.err != nil {
		return &encoder{err: elem.err}
	}
	return &encoder{fn: func(v reflect.Value) (Value, error) {
		if err := elem.resolved().err; err != nil {
			return nil, err
		}
		if v.IsNil() {
			return Array{}, nil
		}
		inner, err := elem.encode(v.Elem())
		if err != nil {
			return nil, err
		}
		return Array{inner}, nil
	}}
}

// sequenceEncoder 切片/数组编码为 Array（[]byte 逐字节为 Number）
func sequenceEncoder(t reflect.Type) *encoder {
	elem := typeEncoder(t.Elem())
	if elem.err != nil {
		return &encoder{err: elem.err}
	}
	return &encoder{fn: func(v reflect.Value) (Value, error) {
		if err := elem.resolved().err; err != nil {
			return nil, err
		}
		if v.Kind() == reflect.Slice && v.IsNil() {
			return Array{}, nil
		}
		out := make(Array, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := elem.encode(v.Index(i))
			if err != nil {
				return nil, indexError(i, err)
			}
			out[i] = item
		}
		return out, nil
	}}
}

// encodeDynamic 接口字段按运行时类型编码
func encodeDynamic(v reflect.Value) (Value, error) {
	if v.IsNil() {
		return nil, errors.New("nil interface")
	}
	inner := v.Elem()
	return typeEncoder(inner.Type()).encode(inner)
}

// elementError 嵌套元素错误，path 形如 [2][0]
type elementError struct {
	path string
	err  error
}

func (e *elementError) Error() string { return e.path + ": " + e.err.Error() }
func (e *elementError) Unwrap() error { return e.err }

// indexError 为嵌套元素错误附加下标
func indexError(i int, err error) error {
	var ee *elementError
	if errors.As(err, &ee) {
		return &elementError{path: "[" + strconv.Itoa(i) + "]" + ee.path, err: ee.err}
	}
	return &elementError{path: "[" + strconv.Itoa(i) + "]", err: err}
}

// asFieldError 包装为字段错误，嵌套下标并入字段名
func asFieldError(field string, err error) error {
	var ee *elementError
	if errors.As(err, &ee) {
		return &FieldError{Field: field + ee.path, Err: ee.err}
	}
	return &FieldError{Field: field, Err: err}
}
