// Package loader 负责加载 configs/ 下的 YAML 配置、合并 .env 与环境变量覆盖，并执行结构校验。
package loader

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultConfPath    = "configs"
	defaultServiceName = "videos"
	defaultVersion     = "dev"
	defaultEnvironment = "development"

	envConfPath       = "CONF_PATH"
	envServiceName    = "SERVICE_NAME"
	envServiceVersion = "SERVICE_VERSION"
	envAppEnv         = "APP_ENV"
	envDatabaseURL    = "DATABASE_URL"
	envPort           = "PORT"
	envGRPCPort       = "GRPC_PORT"
	envStorageDriver  = "STORAGE_DRIVER"
	envPubSubEmulator = "PUBSUB_EMULATOR_HOST"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
}

// ServiceMetadata 保存服务标识信息，供日志和指标组件使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Bootstrap *conf.Bootstrap
	Service   ServiceMetadata
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// Build 从配置文件构建 Bundle。
//
// 流程：
// 1. 解析配置路径（应用回退规则）并加载 .env 文件
// 2. 加载 YAML、应用环境变量覆盖、补全默认值
// 3. 使用 validator 校验结构约束
// 4. 推导服务元信息
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	bootstrap, err := loadBootstrap(confPath)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Bootstrap: bootstrap,
		Service:   buildServiceMetadata(),
	}, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// loadBootstrap 从指定路径加载并解析 Bootstrap 配置。
//
// 错误阶段：
//   - "load": 文件读取失败
//   - "scan": YAML 解析失败或类型不匹配
//   - "validate": 必填字段缺失、约束不满足
func loadBootstrap(confPath string) (*conf.Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	applyDefaults(&bc)
	applyEnvOverrides(&bc)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&bc); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return &bc, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的特定字段。
//
// 支持的环境变量：
//   - DATABASE_URL: 覆盖 data.postgres.dsn
//   - PORT: 覆盖 server.http.addr 的端口部分（Cloud Run 动态端口）
//   - GRPC_PORT: 覆盖 server.grpc.addr 的端口部分
//   - STORAGE_DRIVER: 覆盖 storage.driver
//   - PUBSUB_EMULATOR_HOST: 覆盖 events.emulator_endpoint
//
// 环境变量为空时不覆盖；除 data.postgres 外不会创建缺失的节点。
func applyEnvOverrides(bc *conf.Bootstrap) {
	if bc == nil {
		return
	}
	if dsn := os.Getenv(envDatabaseURL); dsn != "" && bc.Data != nil {
		if bc.Data.Postgres == nil {
			bc.Data.Postgres = &conf.Postgres{}
		}
		bc.Data.Postgres.DSN = dsn
	}
	if port := os.Getenv(envPort); port != "" && bc.Server != nil && bc.Server.HTTP != nil {
		bc.Server.HTTP.Addr = replacePort(bc.Server.HTTP.Addr, port)
	}
	if port := os.Getenv(envGRPCPort); port != "" && bc.Server != nil && bc.Server.GRPC != nil {
		bc.Server.GRPC.Addr = replacePort(bc.Server.GRPC.Addr, port)
	}
	if driver := os.Getenv(envStorageDriver); driver != "" && bc.Storage != nil {
		bc.Storage.Driver = driver
	}
	if emulator := os.Getenv(envPubSubEmulator); emulator != "" && bc.Events != nil {
		bc.Events.EmulatorEndpoint = emulator
	}
}

// applyDefaults 补全可省略的节点，使下游无需判空。
func applyDefaults(bc *conf.Bootstrap) {
	if bc.Events == nil {
		bc.Events = &conf.Events{}
	}
	if bc.Handlers == nil {
		bc.Handlers = &conf.Handlers{}
	}
	if bc.Server != nil && bc.Server.Metrics == nil {
		bc.Server.Metrics = &conf.Metrics{Enabled: true}
	}
	if bc.Server != nil && bc.Server.Metrics.Path == "" {
		bc.Server.Metrics.Path = "/metrics"
	}
}

// buildServiceMetadata 构建服务元信息，用于日志与指标标签。
// 数据来源：SERVICE_NAME、SERVICE_VERSION、APP_ENV 环境变量，缺省时使用默认值。
func buildServiceMetadata() ServiceMetadata {
	host, _ := os.Hostname()
	return ServiceMetadata{
		Name:        firstNonEmpty(os.Getenv(envServiceName), defaultServiceName),
		Version:     firstNonEmpty(os.Getenv(envServiceVersion), defaultVersion),
		Environment: firstNonEmpty(os.Getenv(envAppEnv), defaultEnvironment),
		InstanceID:  firstNonEmpty(host, "unknown"),
	}
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略以保持幂等。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 返回存在的 .env 文件，配置所在目录先于工作目录，
// 同一目录内 .env.local 先于 .env。godotenv 不覆盖已设置的变量，因此靠前者优先。
func envFileCandidates(confPath string) []string {
	var dirs []string
	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			dir := confPath
			if !info.IsDir() {
				dir = filepath.Dir(confPath)
			}
			dirs = append(dirs, filepath.Clean(dir))
		}
	}
	if cwd, err := os.Getwd(); err == nil && !slices.Contains(dirs, filepath.Clean(cwd)) {
		dirs = append(dirs, filepath.Clean(cwd))
	}

	var files []string
	for _, dir := range dirs {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				files = append(files, candidate)
			}
		}
	}
	return files
}

// replacePort 替换地址中的端口部分，保留 host。
//   - "0.0.0.0:9090" -> "0.0.0.0:8080"
//   - "[::1]:9090" -> "[::1]:8080"
//   - 无法解析时回退为 "0.0.0.0:<port>"
func replacePort(addr, newPort string) string {
	if addr == "" {
		return "0.0.0.0:" + newPort
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0:" + newPort
	}
	return net.JoinHostPort(host, newPort)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
