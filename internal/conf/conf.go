// Package conf 定义服务的强类型配置结构，由 config_loader 从 YAML 扫描并校验。
package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 是配置文件的根节点。
type Bootstrap struct {
	Server   *Server   `json:"server" validate:"required"`
	Data     *Data     `json:"data" validate:"required"`
	Storage  *Storage  `json:"storage" validate:"required"`
	Events   *Events   `json:"events"`
	Handlers *Handlers `json:"handlers"`
}

// Server 描述 HTTP 与 gRPC 监听配置。
type Server struct {
	HTTP    *Listener `json:"http" validate:"required"`
	GRPC    *Listener `json:"grpc"`
	Metrics *Metrics  `json:"metrics"`
}

// Listener 描述单个监听端点。
type Listener struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr" validate:"required"`
	Timeout Duration `json:"timeout"`
}

// Metrics 控制 Prometheus 指标暴露。
type Metrics struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Data 描述记录存储配置。driver 为 postgres 时 postgres 节点必填。
type Data struct {
	Driver   string    `json:"driver" validate:"required,oneof=postgres memory"`
	Postgres *Postgres `json:"postgres" validate:"required_if=Driver postgres"`
}

// Postgres 描述 pgxpool 连接池参数。
type Postgres struct {
	DSN                      string   `json:"dsn"`
	MaxOpenConns             int32    `json:"max_open_conns" validate:"gte=0"`
	MinOpenConns             int32    `json:"min_open_conns" validate:"gte=0"`
	MaxConnLifetime          Duration `json:"max_conn_lifetime"`
	MaxConnIdleTime          Duration `json:"max_conn_idle_time"`
	HealthCheckPeriod        Duration `json:"health_check_period"`
	Schema                   string   `json:"schema"`
	EnablePreparedStatements bool     `json:"enable_prepared_statements"`
	AutoMigrate              bool     `json:"auto_migrate"`
	SlowQueryThreshold       Duration `json:"slow_query_threshold"`
}

// Storage 描述媒体文件存储后端。
type Storage struct {
	Driver string        `json:"driver" validate:"required,oneof=fs gcs minio"`
	FS     *FSStorage    `json:"fs" validate:"required_if=Driver fs"`
	GCS    *GCSStorage   `json:"gcs" validate:"required_if=Driver gcs"`
	MinIO  *MinIOStorage `json:"minio" validate:"required_if=Driver minio"`
}

// FSStorage 本地目录存储。
type FSStorage struct {
	Root    string `json:"root" validate:"required"`
	BaseURL string `json:"base_url"`
}

// GCSStorage Google Cloud Storage 存储。
type GCSStorage struct {
	Bucket          string `json:"bucket" validate:"required"`
	BaseURL         string `json:"base_url"`
	CredentialsFile string `json:"credentials_file"`
	Endpoint        string `json:"endpoint"`
}

// MinIOStorage S3 兼容对象存储。
type MinIOStorage struct {
	Endpoint  string `json:"endpoint" validate:"required"`
	AccessKey string `json:"access_key" validate:"required"`
	SecretKey string `json:"secret_key" validate:"required"`
	Bucket    string `json:"bucket" validate:"required"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
	BaseURL   string `json:"base_url"`
}

// Events 描述视频生命周期事件的 Pub/Sub 发布配置。
type Events struct {
	Enabled          bool     `json:"enabled"`
	ProjectID        string   `json:"project_id" validate:"required_if=Enabled true"`
	TopicID          string   `json:"topic_id" validate:"required_if=Enabled true"`
	EmulatorEndpoint string   `json:"emulator_endpoint"`
	PublishTimeout   Duration `json:"publish_timeout"`
}

// Handlers 描述 HTTP handler 的超时与上传限制。
type Handlers struct {
	CommandTimeout Duration `json:"command_timeout"`
	QueryTimeout   Duration `json:"query_timeout"`
	UploadTimeout  Duration `json:"upload_timeout"`
	MaxUploadBytes int64    `json:"max_upload_bytes" validate:"gte=0"`
}

// Duration 支持在 YAML/JSON 中以 "5s"、"1m30s" 形式或整数纳秒书写时长。
type Duration time.Duration

// Std 转换为 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON 输出 time.Duration 的字符串形式。
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON 解析字符串或数值形式的时长。
func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration type %T", raw)
	}
	return nil
}
