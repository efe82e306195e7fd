// Package output provides output formatting functionality for client commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON JSON格式
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatTable 表格格式（默认）
	FormatTable Format = "table"
	// FormatText 纯文本格式
	FormatText Format = "text"
)

// ParseFormat 解析输出格式
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatTable, nil
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON/表格等）
	logWriter io.Writer // 提示输出（Info/Success/Error等）
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}

	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr, // 提示输出到 stderr，避免污染 JSON
	}
}

// SetLogWriter 设置提示输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Format 当前格式
func (f *Formatter) Format() Format {
	return f.format
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}

	switch f.format {
	case FormatJSON:
		return f.printJSON(data, false)
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

// printJSON 打印JSON格式
func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var out []byte
	var err error

	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 打印表格格式
func (f *Formatter) printTable(data interface{}) error {
	switch v := data.(type) {
	case Tabular:
		return f.renderTable(v.Rows(), v.HasHeader())
	case map[string]interface{}:
		return f.renderTable(mapRows(v), true)
	case []interface{}:
		return f.renderTable(sliceRows(v), true)
	default:
		// 降级到JSON
		return f.printJSON(data, true)
	}
}

// renderTable 用 pterm 渲染后写入数据输出
func (f *Formatter) renderTable(rows pterm.TableData, header bool) error {
	if len(rows) == 0 {
		return nil
	}
	table := pterm.DefaultTable.WithData(rows)
	if header {
		table = table.WithHasHeader().WithHeaderRowSeparator("-")
	}
	rendered, err := table.Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printText 打印纯文本格式
func (f *Formatter) printText(data interface{}) error {
	if t, ok := data.(Tabular); ok {
		for _, row := range t.Rows() {
			if _, err := fmt.Fprintln(f.writer, strings.Join(row, "\t")); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	}
	if _, err := fmt.Fprintf(f.writer, "%v\n", data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSection 打印小节标题（仅表格格式）
func (f *Formatter) PrintSection(title string) {
	if f.silent || f.format != FormatTable {
		return
	}
	_, _ = fmt.Fprint(f.writer, pterm.DefaultSection.Sprintln(title))
}

// PrintSuccess 打印成功消息
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Success.Sprintln(message))
}

// PrintError 打印错误消息
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprint(f.logWriter, pterm.Error.Sprintln(err.Error()))
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Warning.Sprintln(message))
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Info.Sprintln(message))
}

// ===== 辅助函数 =====

// Tabular 可按行渲染的数据
type Tabular interface {
	Rows() pterm.TableData
	HasHeader() bool
}

// mapRows 两列: Key | Value，按键排序
func mapRows(data map[string]interface{}) pterm.TableData {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := pterm.TableData{{"Key", "Value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(data[k])})
	}
	return rows
}

// sliceRows 两列: # | Value
func sliceRows(data []interface{}) pterm.TableData {
	rows := pterm.TableData{{"#", "Value"}}
	for i, v := range data {
		rows = append(rows, []string{fmt.Sprintf("%d", i), formatValue(v)})
	}
	return rows
}

// formatValue 格式化值
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int64, uint, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.Format(time.RFC3339)
	case nil:
		return "-"
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	out := &ErrorOutput{}
	out.Error.Code = code
	out.Error.Message = message
	out.Error.Details = details
	return out
}
