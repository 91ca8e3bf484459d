package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString 接受 JSON 字符串、数字、布尔或 null，统一保存为字符串。
// provider 的计数/时长字段在不同版本里类型不一致（123 / "123" / "1.2M"）。
// null、false、数值 0 一律视为“无值”，落成空串（与对外的默认空串保持一致）。
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	case 't', 'f':
		v, err := strconv.ParseBool(string(b))
		if err != nil {
			return err
		}
		if !v {
			*f = ""
			return nil
		}
		*f = "true"
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		if v, err := n.Float64(); err == nil && v == 0 {
			*f = ""
			return nil
		}
		*f = FlexString(n.String())
		return nil
	}
}

func (f FlexString) String() string { return string(f) }
