package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	HTTPAddr           string
	DBDriver           string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	SQLitePath         string
	JWTSecret          string
	SessionCookie      string
	LogLevel           string
	TemplatesDir       string
	StaticDir          string
	CacheBackend       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	PageCacheTTL       time.Duration
	StorageBackend     string
	LocalStoragePath   string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	FrontendURL        string
	BackendURL         string
	AuthRateLimit      float64
	AuthRateBurst      int
	Debug              bool
}

// AppConfig 是全局配置变量
var AppConfig = Defaults()

// Defaults 返回不依赖环境变量的默认配置
func Defaults() Config {
	return Config{
		HTTPAddr:         ":8000",
		DBDriver:         "mysql",
		SQLitePath:       "./yatube.db",
		SessionCookie:    "yatube_session",
		LogLevel:         "info",
		TemplatesDir:     "web/templates",
		StaticDir:        "web/static",
		CacheBackend:     "memory",
		RedisAddr:        "localhost:6379",
		PageCacheTTL:     20 * 15 * time.Second,
		StorageBackend:   "local",
		LocalStoragePath: "./media",
		SMTPHost:         "smtp.gmail.com",
		SMTPPort:         465,
		FrontendURL:      "http://localhost:8000",
		BackendURL:       "http://localhost:8000",
		AuthRateLimit:    1,
		AuthRateBurst:    5,
	}
}

// Init 函数用于初始化配置
func Init() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Load()

	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("错误：%v", err)
	}

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库驱动：%s，缓存：%s，存储：%s",
		AppConfig.DBDriver, AppConfig.CacheBackend, AppConfig.StorageBackend)
}

// Load 从环境变量中读取配置
func Load() Config {
	d := Defaults()
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", d.HTTPAddr),
		DBDriver:           getEnv("DB_DRIVER", d.DBDriver),
		DBHost:             getEnv("DB_HOST", ""),
		DBPort:             getEnv("DB_PORT", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", ""),
		SQLitePath:         getEnv("SQLITE_PATH", d.SQLitePath),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SessionCookie:      getEnv("SESSION_COOKIE", d.SessionCookie),
		LogLevel:           getEnv("LOG_LEVEL", d.LogLevel),
		TemplatesDir:       getEnv("TEMPLATES_DIR", d.TemplatesDir),
		StaticDir:          getEnv("STATIC_DIR", d.StaticDir),
		CacheBackend:       getEnv("CACHE_BACKEND", d.CacheBackend),
		RedisAddr:          getEnv("REDIS_ADDR", d.RedisAddr),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		PageCacheTTL:       getEnvAsDuration("PAGE_CACHE_TTL", d.PageCacheTTL),
		StorageBackend:     getEnv("STORAGE_BACKEND", d.StorageBackend),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", d.LocalStoragePath),
		S3Region:           getEnv("S3_REGION", "us-west-2"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSProjectID:       getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		SMTPHost:           getEnv("SMTP_HOST", d.SMTPHost),
		SMTPPort:           getEnvAsInt("SMTP_PORT", d.SMTPPort),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		FrontendURL:        getEnv("FRONTEND_URL", d.FrontendURL),
		BackendURL:         getEnv("BACKEND_URL", d.BackendURL),
		AuthRateLimit:      getEnvAsFloat("AUTH_RATE_LIMIT", d.AuthRateLimit),
		AuthRateBurst:      getEnvAsInt("AUTH_RATE_BURST", d.AuthRateBurst),
		Debug:              getEnvAsBool("DEBUG", false),
	}
}

// Validate 检查必填配置项
func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBName == "" {
			return errIncomplete("数据库配置不完整")
		}
	case "sqlite3":
		if c.SQLitePath == "" {
			return errIncomplete("SQLITE_PATH 未设置")
		}
	default:
		return errIncomplete("不支持的数据库驱动: " + c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errIncomplete("JWT密钥未设置")
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errIncomplete("S3_BUCKET 未设置")
		}
	case "gcs":
		if c.GCSBucketName == "" {
			return errIncomplete("GCS_BUCKET_NAME 未设置")
		}
	default:
		return errIncomplete("不支持的存储后端: " + c.StorageBackend)
	}
	if c.CacheBackend != "memory" && c.CacheBackend != "redis" {
		return errIncomplete("不支持的缓存后端: " + c.CacheBackend)
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errIncomplete(msg string) error { return configError(msg) }

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

// getEnvAsDuration 同时接受 "300s" 形式和纯秒数
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(valStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
