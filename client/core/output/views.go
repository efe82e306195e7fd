package output

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/expansion/v1/client/core/builder"
	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/pkg/types"
)

// EntityView 新建实体
type EntityView struct {
	ObjectID string `json:"object_id"`
	Owner    string `json:"owner"`
	Type     string `json:"type,omitempty"`
}

// GasView gas 消耗（单位 SUI）
type GasView struct {
	Computation string `json:"computation"`
	Storage     string `json:"storage"`
	Rebate      string `json:"rebate"`
	Net         string `json:"net"`
}

// PublishView 发布结果
type PublishView struct {
	Digest       string       `json:"digest"`
	PackageID    string       `json:"package_id"`
	StateID      string       `json:"state_id"`
	UpgradeCapID string       `json:"upgrade_cap_id,omitempty"`
	Gas          *GasView     `json:"gas,omitempty"`
	Created      []EntityView `json:"created"`
}

// NewPublishView 由发布结果生成视图
func NewPublishView(res *contract.PublishResult) PublishView {
	v := PublishView{
		Digest:    res.Digest.String(),
		PackageID: res.PackageID.String(),
		StateID:   res.StateID.String(),
	}
	if res.UpgradeCapID != nil {
		v.UpgradeCapID = res.UpgradeCapID.String()
	}
	if res.Effects != nil {
		v.Gas = newGasView(res.Effects.GasUsed)
		v.Created = entityViews(res.Effects.Created)
	}
	return v
}

func (v PublishView) HasHeader() bool { return false }

func (v PublishView) Rows() pterm.TableData {
	rows := pterm.TableData{
		{"Digest", v.Digest},
		{"Package", v.PackageID},
		{"State", v.StateID},
	}
	if v.UpgradeCapID != "" {
		rows = append(rows, []string{"UpgradeCap", v.UpgradeCapID})
	}
	if v.Gas != nil {
		rows = append(rows, []string{"Gas", v.Gas.Net + " SUI"})
	}
	return rows
}

// OutcomeView 调用结果
type OutcomeView struct {
	Function string       `json:"function"`
	Digest   string       `json:"digest"`
	Status   string       `json:"status"`
	Gas      *GasView     `json:"gas,omitempty"`
	Created  []EntityView `json:"created"`
}

// NewOutcomeView 由调用结果生成视图
func NewOutcomeView(function string, out *contract.Outcome) OutcomeView {
	v := OutcomeView{
		Function: function,
		Digest:   out.Digest.String(),
		Created:  []EntityView{},
	}
	if out.Effects != nil {
		v.Status = out.Effects.Status.Status
		v.Gas = newGasView(out.Effects.GasUsed)
		v.Created = entityViews(out.Effects.Created)
	}
	return v
}

func (v OutcomeView) HasHeader() bool { return false }

func (v OutcomeView) Rows() pterm.TableData {
	rows := pterm.TableData{
		{"Function", v.Function},
		{"Digest", v.Digest},
		{"Status", v.Status},
	}
	if v.Gas != nil {
		rows = append(rows, []string{"Gas", v.Gas.Net + " SUI"})
	}
	for i, e := range v.Created {
		label := ""
		if i == 0 {
			label = "Created"
		}
		rows = append(rows, []string{label, fmt.Sprintf("%s (%s)", e.ObjectID, e.Owner)})
	}
	return rows
}

// ObjectView 链上对象
type ObjectView struct {
	ObjectID string          `json:"object_id"`
	Version  uint64          `json:"version"`
	Type     string          `json:"type,omitempty"`
	Owner    string          `json:"owner,omitempty"`
	Fields   json.RawMessage `json:"fields,omitempty"`
}

// NewObjectView 由对象数据生成视图
func NewObjectView(obj *transport.ObjectData) ObjectView {
	v := ObjectView{
		ObjectID: obj.ObjectID.String(),
		Version:  uint64(obj.Version),
		Type:     obj.Type,
	}
	if obj.Owner != nil {
		v.Owner = obj.Owner.String()
	}
	if obj.Content != nil {
		if v.Type == "" {
			v.Type = obj.Content.Type
		}
		v.Fields = obj.Content.Fields
	}
	return v
}

func (v ObjectView) HasHeader() bool { return false }

func (v ObjectView) Rows() pterm.TableData {
	rows := pterm.TableData{
		{"Object", v.ObjectID},
		{"Version", fmt.Sprintf("%d", v.Version)},
		{"Type", v.Type},
		{"Owner", v.Owner},
	}
	if len(v.Fields) > 0 {
		rows = append(rows, []string{"Fields", string(v.Fields)})
	}
	return rows
}

// AddressesView 签名器地址列表
type AddressesView struct {
	Addresses []string `json:"addresses"`
	Active    string   `json:"active,omitempty"`
}

// NewAddressesView 生成地址列表视图，active 为当前发送方（可为空）
func NewAddressesView(addrs []types.Address, active types.Address) AddressesView {
	v := AddressesView{Addresses: make([]string, len(addrs))}
	for i, a := range addrs {
		v.Addresses[i] = a.String()
	}
	if !active.IsZero() {
		v.Active = active.String()
	}
	return v
}

func (v AddressesView) HasHeader() bool { return true }

func (v AddressesView) Rows() pterm.TableData {
	rows := pterm.TableData{{"#", "Address", "Active"}}
	for i, a := range v.Addresses {
		mark := ""
		if a == v.Active {
			mark = "*"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i), a, mark})
	}
	return rows
}

func newGasView(g types.GasCostSummary) *GasView {
	return &GasView{
		Computation: builder.NewAmountFromUnits(uint64(g.ComputationCost)).StringTrimmed(),
		Storage:     builder.NewAmountFromUnits(uint64(g.StorageCost)).StringTrimmed(),
		Rebate:      builder.NewAmountFromUnits(uint64(g.StorageRebate)).StringTrimmed(),
		Net:         builder.GasAmount(g).StringTrimmed(),
	}
}

func entityViews(created []types.EntityReference) []EntityView {
	out := make([]EntityView, len(created))
	for i, e := range created {
		out[i] = EntityView{
			ObjectID: e.ObjectID.String(),
			Owner:    e.Owner.String(),
			Type:     e.ObjectType,
		}
	}
	return out
}
