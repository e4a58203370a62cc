package conf

type Bootstrap struct {
	Server  *Server
	Analyst *Analyst
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
	// MaxUploadMb 单次上传的总大小上限
	MaxUploadMb int32 `json:"max_upload_mb"`
}

// Analyst 分析流水线配置，未填写的项由环境变量与默认值补齐
type Analyst struct {
	Llm         *LLM         `json:"llm"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Workers     int32        `json:"workers"`
}

type LLM struct {
	Provider       string  `json:"provider"`
	BaseUrl        string  `json:"base_url"`
	ApiKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature"`
	TimeoutSeconds int32   `json:"timeout_seconds"`
	Language       string  `json:"language"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}
