package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/eino-contrib/jsonschema"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

const (
	MinRiskScore = 0
	MaxRiskScore = 100
)

const instructionsHead = `The output should be formatted as a JSON instance that conforms to the JSON schema below.
Return only the JSON object, without markdown fences or any text before or after it.
Every property is required.

Here is the output schema:
`

var (
	instructionsOnce sync.Once
	instructions     string
)

// FormatInstructions 由 CreditReport 反射出的 JSON Schema 说明，结果只计算一次
func FormatInstructions() string {
	instructionsOnce.Do(func() {
		r := &jsonschema.Reflector{
			ExpandedStruct: true,
			DoNotReference: true,
		}
		s := r.Reflect(&model.CreditReport{})
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			// 反射结果来自固定类型，不会失败
			panic(fmt.Sprintf("marshal report schema: %v", err))
		}
		instructions = instructionsHead + "```\n" + string(data) + "\n```"
	})
	return instructions
}

// Parse 把推理输出解析为 CreditReport。
// 输出必须恰好包含一个完整对象，截断或多个对象都会被拒绝。
// 解码依次尝试严格 JSON、json-repair 修复、hjson 宽松解析；
// 任何失败都返回 *fault.SchemaValidationError，不会返回部分结果。
func Parse(raw string) (*model.CreditReport, error) {
	fail := func(format string, args ...any) error {
		return &fault.SchemaValidationError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
	}

	text, ok := locateObject(raw)
	if !ok {
		return nil, fail("no JSON object in response")
	}
	switch n, balanced := countObjects(text); {
	case !balanced:
		return nil, fail("truncated JSON object in response")
	case n > 1:
		return nil, fail("%d JSON objects in response, want exactly one", n)
	}
	obj, err := decodeObject(text)
	if err != nil {
		return nil, fail("not a JSON object: %v", err)
	}

	summary, err := requiredString(obj, "summary")
	if err != nil {
		return nil, fail("%v", err)
	}
	score, err := riskScore(obj)
	if err != nil {
		return nil, fail("%v", err)
	}
	verdictText, err := requiredString(obj, "final_verdict")
	if err != nil {
		return nil, fail("%v", err)
	}
	verdict, ok := model.ParseVerdict(verdictText)
	if !ok {
		return nil, fail("final_verdict %q is not one of %s", verdictText, verdictList())
	}
	rationale, err := requiredString(obj, "rationale")
	if err != nil {
		return nil, fail("%v", err)
	}

	return &model.CreditReport{
		Summary:      summary,
		RiskScore:    score,
		FinalVerdict: verdict,
		Rationale:    rationale,
	}, nil
}

// locateObject 去掉 markdown 代码块和前后的说明文字，截取第一个 '{' 到最后一个 '}'。
// 没有闭合的 '}' 时返回 '{' 之后的全部文本，由 countObjects 判定为截断。
func locateObject(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return text[start:], true
	}
	return text[start : end+1], true
}

// countObjects 统计顶层对象个数，忽略字符串内的括号；括号或引号未闭合时 balanced 为 false
func countObjects(text string) (count int, balanced bool) {
	depth := 0
	inString, escaped := false, false
	for _, c := range text {
		switch {
		case escaped:
			escaped = false
		case inString:
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[':
			if depth == 0 && c == '{' {
				count++
			}
			depth++
		case c == '}' || c == ']':
			depth--
			if depth < 0 {
				return count, false
			}
		}
	}
	return count, depth == 0 && !inString
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	strictErr := json.Unmarshal([]byte(text), &obj)
	if strictErr == nil && obj != nil {
		return obj, nil
	}

	if repaired, err := jsonrepair.RepairJSON(text); err == nil {
		obj = nil
		if err := json.Unmarshal([]byte(repaired), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	var loose map[string]any
	if err := hjson.Unmarshal([]byte(text), &loose); err == nil && loose != nil {
		data, err := json.Marshal(loose)
		if err == nil {
			obj = nil
			if err := json.Unmarshal(data, &obj); err == nil {
				return obj, nil
			}
		}
	}

	if strictErr == nil {
		strictErr = errors.New("null")
	}
	return nil, strictErr
}

func present(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := obj[key]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

func requiredString(obj map[string]json.RawMessage, key string) (string, error) {
	v, ok := present(obj, key)
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%s must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is blank", key)
	}
	return s, nil
}

// riskScore 接受整数值的数字或数字字符串 (85, 85.0, "85")，拒绝小数
func riskScore(obj map[string]json.RawMessage) (int, error) {
	v, ok := present(obj, "risk_score")
	if !ok {
		return 0, errors.New("missing risk_score")
	}
	text := strings.TrimSpace(string(v))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, errors.New("risk_score must be an integer")
		}
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("risk_score must be an integer, got %s", string(v))
	}
	if d.LessThan(decimal.NewFromInt(MinRiskScore)) || d.GreaterThan(decimal.NewFromInt(MaxRiskScore)) {
		return 0, fmt.Errorf("risk_score %s out of range [%d,%d]", d.String(), MinRiskScore, MaxRiskScore)
	}
	return int(d.IntPart()), nil
}

func verdictList() string {
	names := make([]string, 0, len(model.Verdicts))
	for _, v := range model.Verdicts {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}
