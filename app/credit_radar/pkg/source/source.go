package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

// Extensions 批处理时识别的文件扩展名
var Extensions = []string{".json", ".yaml", ".yml", ".hjson"}

// Document 一份待分析的输入，内容在 Decode 时才读取
type Document struct {
	Name string
	load func() ([]byte, error)
}

// FromBytes 包装内存中的内容，例如上传的文件
func FromBytes(name string, body []byte) Document {
	return Document{Name: name, load: func() ([]byte, error) { return body, nil }}
}

// FromFile 包装磁盘上的文件
func FromFile(path string) Document {
	return Document{Name: filepath.Base(path), load: func() ([]byte, error) { return os.ReadFile(path) }}
}

// Supported 文件名是否为可识别的输入格式
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Discover 列出目录下所有可识别的输入文件，按文件名排序。
// 目录不存在或不可读时返回错误。
func Discover(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, FromFile(filepath.Join(dir, name)))
	}
	return docs, nil
}

// Decode 读取并解析为 CompanyRecord，失败时返回 *fault.DecodeError
func (d Document) Decode() (*model.CompanyRecord, error) {
	if d.load == nil {
		return nil, &fault.DecodeError{Item: d.Name, Err: errors.New("empty document")}
	}
	data, err := d.load()
	if err != nil {
		return nil, &fault.DecodeError{Item: d.Name, Err: err}
	}
	rec, err := decode(d.Name, data)
	if err != nil {
		return nil, &fault.DecodeError{Item: d.Name, Err: err}
	}
	return rec, nil
}

func decode(name string, data []byte) (*model.CompanyRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return viaJSON(v)
	case ".hjson":
		var v map[string]any
		if err := hjson.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return viaJSON(v)
	default:
		var rec model.CompanyRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}
}

// viaJSON 把 yaml/hjson 的通用结构转为 JSON 再解码，数值字段统一走 decimal 的 JSON 解析
func viaJSON(v any) (*model.CompanyRecord, error) {
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("top level must be a mapping, got %T", v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec model.CompanyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
