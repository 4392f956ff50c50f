package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Режимы хранения журнала генераций
const (
	ModeDatabase = "database"
	ModeFile     = "file"
	ModeMemory   = "memory"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress        string `json:"server_address"`
	GRPCAddress          string `json:"grpc_address"`
	FileStoragePath      string `json:"file_storage_path"`
	DatabaseDSN          string `json:"database_dsn"`
	EnableHTTPS          bool   `json:"enable_https"`
	TLSCertPath          string `json:"tls_cert_path"`
	TLSKeyPath           string `json:"tls_key_path"`
	TrustedSubnet        string `json:"trusted_subnet"`
	SecretKey            string `json:"secret_key"`
	MaxUploadMB          int64  `json:"max_upload_mb"`
	RateLimit            string `json:"rate_limit"`
	TrustProxy           bool   `json:"trust_proxy"`
	DefaultPlaceholder   string `json:"default_placeholder"`
	DefaultItemsPerSlide int    `json:"default_items_per_slide"`
	Mode                 string `json:"-"`
}

// fileConfig повторяет Config с указателями, чтобы отличать "не задано" от пустого значения.
type fileConfig struct {
	ServerAddress        *string `json:"server_address"`
	GRPCAddress          *string `json:"grpc_address"`
	FileStoragePath      *string `json:"file_storage_path"`
	DatabaseDSN          *string `json:"database_dsn"`
	EnableHTTPS          *bool   `json:"enable_https"`
	TLSCertPath          *string `json:"tls_cert_path"`
	TLSKeyPath           *string `json:"tls_key_path"`
	TrustedSubnet        *string `json:"trusted_subnet"`
	SecretKey            *string `json:"secret_key"`
	MaxUploadMB          *int64  `json:"max_upload_mb"`
	RateLimit            *string `json:"rate_limit"`
	TrustProxy           *bool   `json:"trust_proxy"`
	DefaultPlaceholder   *string `json:"default_placeholder"`
	DefaultItemsPerSlide *int    `json:"default_items_per_slide"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		ServerAddress:        "localhost:8080",
		FileStoragePath:      "generations.json",
		TLSCertPath:          "cert.pem",
		TLSKeyPath:           "key.pem",
		MaxUploadMB:          32,
		RateLimit:            "60-M",
		DefaultPlaceholder:   "{{NUM}}",
		DefaultItemsPerSlide: 1,
	}
}

// Load собирает конфигурацию. Приоритет: флаг > переменная окружения (.env) > JSON-файл > значение по умолчанию.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Читаем .env, если есть (не переопределяет переменные окружения!)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // Ошибку игнорируем, если файла нет

	fs := flag.NewFlagSet("pptxgen", flag.ContinueOnError)
	serverAddress := fs.String("a", "", "HTTP server address")
	grpcAddress := fs.String("g", "", "gRPC server address (empty disables gRPC)")
	fileStoragePath := fs.String("f", "", "generation journal file (JSON lines)")
	databaseDSN := fs.String("d", "", "PostgreSQL DSN")
	enableHTTPS := fs.Bool("s", false, "enable HTTPS")
	tlsCertPath := fs.String("cert", "", "path to TLS certificate")
	tlsKeyPath := fs.String("key", "", "path to TLS key")
	trustedSubnet := fs.String("t", "", "trusted subnet in CIDR format")
	secretKey := fs.String("k", "", "session cookie signing key")
	maxUploadMB := fs.Int64("m", 0, "maximum upload size in MB")
	rateLimit := fs.String("r", "", "rate limit for /generate, e.g. 60-M")
	trustProxy := fs.Bool("p", false, "take client IP from X-Forwarded-For (only behind a reverse proxy)")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Какие флаги переданы явно
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := Default()

	// Загружаем JSON-конфигурацию (если указана)
	if *configPath == "" {
		*configPath = v.GetString("CONFIG")
	}
	if *configPath != "" {
		if err := cfg.applyFile(*configPath); err != nil {
			return nil, err
		}
	}

	// Переменные окружения перекрывают JSON
	envString := func(env string, target *string) {
		if v.IsSet(env) {
			*target = v.GetString(env)
		}
	}
	envString("SERVER_ADDRESS", &cfg.ServerAddress)
	envString("GRPC_ADDRESS", &cfg.GRPCAddress)
	envString("FILE_STORAGE_PATH", &cfg.FileStoragePath)
	envString("DATABASE_DSN", &cfg.DatabaseDSN)
	envString("TLS_CERT_PATH", &cfg.TLSCertPath)
	envString("TLS_KEY_PATH", &cfg.TLSKeyPath)
	envString("TRUSTED_SUBNET", &cfg.TrustedSubnet)
	envString("SECRET_KEY", &cfg.SecretKey)
	envString("RATE_LIMIT", &cfg.RateLimit)
	envString("DEFAULT_PLACEHOLDER", &cfg.DefaultPlaceholder)
	if v.IsSet("ENABLE_HTTPS") {
		cfg.EnableHTTPS = v.GetBool("ENABLE_HTTPS")
	}
	if v.IsSet("TRUST_PROXY") {
		cfg.TrustProxy = v.GetBool("TRUST_PROXY")
	}
	if v.IsSet("MAX_UPLOAD_MB") {
		cfg.MaxUploadMB = v.GetInt64("MAX_UPLOAD_MB")
	}
	if v.IsSet("DEFAULT_ITEMS_PER_SLIDE") {
		cfg.DefaultItemsPerSlide = v.GetInt("DEFAULT_ITEMS_PER_SLIDE")
	}

	// Флаги перекрывают всё остальное
	flagString := func(name string, value *string, target *string) {
		if set[name] {
			*target = *value
		}
	}
	flagString("a", serverAddress, &cfg.ServerAddress)
	flagString("g", grpcAddress, &cfg.GRPCAddress)
	flagString("f", fileStoragePath, &cfg.FileStoragePath)
	flagString("d", databaseDSN, &cfg.DatabaseDSN)
	flagString("cert", tlsCertPath, &cfg.TLSCertPath)
	flagString("key", tlsKeyPath, &cfg.TLSKeyPath)
	flagString("t", trustedSubnet, &cfg.TrustedSubnet)
	flagString("k", secretKey, &cfg.SecretKey)
	flagString("r", rateLimit, &cfg.RateLimit)
	if set["s"] {
		cfg.EnableHTTPS = *enableHTTPS
	}
	if set["p"] {
		cfg.TrustProxy = *trustProxy
	}
	if set["m"] {
		cfg.MaxUploadMB = *maxUploadMB
	}

	// Определяем режим работы
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = ModeDatabase
	case cfg.FileStoragePath != "":
		cfg.Mode = ModeFile
	default:
		cfg.Mode = ModeMemory
	}

	if cfg.SecretKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = key
		log.Printf("SECRET_KEY не задан, сгенерирован ключ на время работы процесса")
	}

	log.Printf("Инициализация конфигурации: ServerAddress=%s", cfg.ServerAddress)
	log.Printf("Инициализация конфигурации: GRPCAddress=%s", cfg.GRPCAddress)
	log.Printf("Инициализация конфигурации: FileStoragePath=%s", cfg.FileStoragePath)
	log.Printf("Инициализация конфигурации: Mode=%s", cfg.Mode)
	log.Printf("Инициализация конфигурации: EnableHTTPS=%v", cfg.EnableHTTPS)
	log.Printf("Инициализация конфигурации: MaxUploadMB=%d RateLimit=%s TrustProxy=%v", cfg.MaxUploadMB, cfg.RateLimit, cfg.TrustProxy)

	// Проверка корректности конфигурации
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	return cfg, nil
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("не удалось прочитать JSON-файл конфигурации %q: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("ошибка разбора JSON-файла конфигурации: %w", err)
	}

	str := func(src *string, dst *string) {
		if src != nil {
			*dst = *src
		}
	}
	str(fc.ServerAddress, &cfg.ServerAddress)
	str(fc.GRPCAddress, &cfg.GRPCAddress)
	str(fc.FileStoragePath, &cfg.FileStoragePath)
	str(fc.DatabaseDSN, &cfg.DatabaseDSN)
	str(fc.TLSCertPath, &cfg.TLSCertPath)
	str(fc.TLSKeyPath, &cfg.TLSKeyPath)
	str(fc.TrustedSubnet, &cfg.TrustedSubnet)
	str(fc.SecretKey, &cfg.SecretKey)
	str(fc.RateLimit, &cfg.RateLimit)
	str(fc.DefaultPlaceholder, &cfg.DefaultPlaceholder)
	if fc.EnableHTTPS != nil {
		cfg.EnableHTTPS = *fc.EnableHTTPS
	}
	if fc.TrustProxy != nil {
		cfg.TrustProxy = *fc.TrustProxy
	}
	if fc.MaxUploadMB != nil {
		cfg.MaxUploadMB = *fc.MaxUploadMB
	}
	if fc.DefaultItemsPerSlide != nil {
		cfg.DefaultItemsPerSlide = *fc.DefaultItemsPerSlide
	}
	return nil
}

// MaxUploadBytes возвращает лимит загрузки в байтах.
func (cfg *Config) MaxUploadBytes() int64 {
	return cfg.MaxUploadMB << 20
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("адрес сервера не может быть пустым")
	}
	if _, _, err := net.SplitHostPort(cfg.ServerAddress); err != nil {
		return fmt.Errorf("некорректный адрес сервера %q: %w", cfg.ServerAddress, err)
	}
	if cfg.GRPCAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.GRPCAddress); err != nil {
			return fmt.Errorf("некорректный адрес gRPC %q: %w", cfg.GRPCAddress, err)
		}
	}
	if cfg.MaxUploadMB <= 0 {
		return fmt.Errorf("лимит загрузки должен быть положительным, получено %d", cfg.MaxUploadMB)
	}
	if cfg.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(cfg.RateLimit); err != nil {
			return fmt.Errorf("некорректный RATE_LIMIT %q: %w", cfg.RateLimit, err)
		}
	}
	if cfg.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(cfg.TrustedSubnet); err != nil {
			return fmt.Errorf("некорректная доверенная подсеть %q: %w", cfg.TrustedSubnet, err)
		}
	}
	if cfg.DefaultItemsPerSlide < 1 {
		return fmt.Errorf("число кодов на слайд должно быть не меньше 1, получено %d", cfg.DefaultItemsPerSlide)
	}
	if cfg.EnableHTTPS && (cfg.TLSCertPath == "" || cfg.TLSKeyPath == "") {
		return errors.New("для HTTPS нужны пути к сертификату и ключу")
	}
	return nil
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
