package wire

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/expansion/v1/pkg/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type barFoo struct {
	Bar uint64
	Foo uint64
}

type fooBar struct {
	Foo uint64
	Bar uint64
}

func TestMarshalPreservesDeclarationOrder(t *testing.T) {
	out, err := Marshal(barFoo{Bar: 20, Foo: 21})
	require.NoError(t, err)
	assert.Equal(t, []Value{Number("20"), Number("21")}, out)

	// 同样的值，不同的声明顺序
	out, err = Marshal(fooBar{Foo: 21, Bar: 20})
	require.NoError(t, err)
	assert.Equal(t, []Value{Number("21"), Number("20")}, out)
}

type everyKind struct {
	Small   uint8
	Mid     uint32
	Signed  int
	Flag    bool
	Name    string
	Object  types.ObjectID
	Owner   types.Address
	Bytes   []byte
	Amounts []uint64
	Nested  [][]uint16
	Maybe   *uint64
	Nothing *types.ObjectID
	Big     *uint256.Int
	BigVal  uint256.Int
	Raw     Value
}

func TestMarshalEncodingTable(t *testing.T) {
	seven := uint64(7)
	in := everyKind{
		Small:   1,
		Mid:     70000,
		Signed:  5,
		Flag:    true,
		Name:    "scene",
		Object:  types.MustParseObjectID("0x2"),
		Owner:   types.MustParseAddress("0xabc"),
		Bytes:   []byte{0, 255},
		Amounts: []uint64{10, 20},
		Nested:  [][]uint16{{1}, {}},
		Maybe:   &seven,
		Big:     uint256.MustFromDecimal("340282366920938463463374607431768211455"),
		BigVal:  *uint256.NewInt(9),
		Raw:     Bool(false),
	}

	out, err := Marshal(&in)
	require.NoError(t, err)
	require.Len(t, out, 15)

	assert.Equal(t, Number("1"), out[0])
	assert.Equal(t, Number("70000"), out[1])
	assert.Equal(t, Number("5"), out[2])
	assert.Equal(t, Bool(true), out[3])
	assert.Equal(t, String("scene"), out[4])
	assert.Equal(t, String(types.MustParseObjectID("0x2").String()), out[5])
	assert.Equal(t, String(types.MustParseAddress("0xabc").String()), out[6])
	assert.Equal(t, Array{Number("0"), Number("255")}, out[7])
	assert.Equal(t, Array{Number("10"), Number("20")}, out[8])
	assert.Equal(t, Array{Array{Number("1")}, Array{}}, out[9])
	assert.Equal(t, Array{Number("7")}, out[10])
	assert.Equal(t, Array{}, out[11])
	assert.Equal(t, String("340282366920938463463374607431768211455"), out[12])
	assert.Equal(t, String("9"), out[13])
	assert.Equal(t, Bool(false), out[14])
}

func TestMarshalJSONForm(t *testing.T) {
	out, err := Marshal(struct {
		Amount uint64
		Target string
		Ids    []uint8
		Opt    *bool
	}{Amount: 18446744073709551615, Target: "0x1", Ids: nil})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[18446744073709551615, "0x1", [], []]`, string(data))
	// 大整数按原样输出，不经过浮点
	assert.Contains(t, string(data), "18446744073709551615")
}

func TestMarshalFieldFailureReturnsNoPartialList(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		field string
	}{
		{"浮点", struct {
			A uint64
			B float64
		}{A: 1, B: 1.5}, "B"},
		{"负数", struct {
			A int64
			B uint8
		}{A: -1}, "A"},
		{"映射", struct{ M map[string]uint64 }{M: map[string]uint64{}}, "M"},
		{"嵌套结构体", struct{ S struct{ X uint8 } }{}, "S"},
		{"向量元素", struct{ V []int }{V: []int{1, -2}}, "V[1]"},
		{"空接口", struct{ I interface{} }{}, "I"},
		{"空 uint256", struct{ Big *uint256.Int }{}, "Big"},
		{"空浮点 Option", struct{ F *float64 }{}, "F"},
		{"空映射 Option", struct{ M *map[string]int }{}, "M"},
		{"空浮点向量", struct{ V []float64 }{}, "V"},
		{"空浮点向量的 Option", struct{ V *[]float64 }{}, "V"},
		{"零长浮点数组", struct{ A [0]float64 }{}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.in)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrFieldSerializationFailed))
			assert.False(t, errors.Is(err, ErrUnsupportedShape))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

type withHidden struct {
	Visible uint64
	hidden  uint64
}

type embedded struct {
	barFoo
	X uint8
}

func TestMarshalUnsupportedShape(t *testing.T) {
	var nilPtr *barFoo
	tests := []struct {
		name string
		in   interface{}
	}{
		{"nil", nil},
		{"scalar", uint64(3)},
		{"slice", []uint64{1}},
		{"map", map[string]uint64{"a": 1}},
		{"nil pointer", nilPtr},
		{"unexported field", withHidden{Visible: 1, hidden: 2}},
		{"embedded field", embedded{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.in)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrUnsupportedShape)
		})
	}
}

func TestMarshalEmptyStruct(t *testing.T) {
	out, err := Marshal(struct{}{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

type customArgs struct {
	amount uint64
}

func (c customArgs) MarshalArguments() ([]Value, error) {
	if c.amount == 0 {
		return nil, errors.New("amount required")
	}
	return []Value{NewNumber(c.amount), String("fixed")}, nil
}

func TestArgumentMarshalerTakesPrecedence(t *testing.T) {
	out, err := Marshal(customArgs{amount: 3})
	require.NoError(t, err)
	assert.Equal(t, []Value{Number("3"), String("fixed")}, out)

	out, err = Marshal(customArgs{})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrFieldSerializationFailed)
}

type coinKind uint8

func (k coinKind) MarshalWire() (Value, error) {
	if k > 2 {
		return nil, errors.New("unknown coin kind")
	}
	return String([]string{"sui", "xcoin", "stake"}[k]), nil
}

func TestValueMarshalerField(t *testing.T) {
	out, err := Marshal(struct {
		Kind  coinKind
		Kinds []coinKind
	}{Kind: 1, Kinds: []coinKind{0, 2}})
	require.NoError(t, err)
	assert.Equal(t, []Value{String("xcoin"), Array{String("sui"), String("stake")}}, out)

	_, err = Marshal(struct{ Kind coinKind }{Kind: 9})
	assert.ErrorIs(t, err, ErrFieldSerializationFailed)
}

type tree struct {
	Children []tree
}

func (tr tree) MarshalWire() (Value, error) {
	out := make(Array, 0, len(tr.Children))
	for _, c := range tr.Children {
		v, err := c.MarshalWire()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type nested []nested

func TestMarshalSelfReferentialTypes(t *testing.T) {
	out, err := Marshal(struct {
		N nested
		P *nested
		T tree
	}{
		N: nested{nested{}, nil},
		T: tree{Children: []tree{{}}},
	})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[[[], []], [], [[]]]`, string(data))
}

func TestMarshalConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := Marshal(barFoo{Bar: uint64(i), Foo: uint64(i + 1)})
			assert.NoError(t, err)
			assert.Equal(t, []Value{NewNumber(uint64(i)), NewNumber(uint64(i + 1))}, out)
		}(i)
	}
	wg.Wait()
}

func TestNumberMarshalRejectsGarbage(t *testing.T) {
	_, err := json.Marshal(Number("1e3"))
	assert.Error(t, err)

	n, err := NewNumber(42).Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
	assert.Equal(t, "array", Kind(Array{}))
}
