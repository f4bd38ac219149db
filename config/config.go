package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 同步听歌室的运行配置
type Config struct {
	// 服务监听
	ListenAddr    string
	WSPath        string
	UseXRealIP    bool
	AdminPassword string

	// 发言与点歌限制
	MinChatWait    time.Duration
	MaxChatLength  int
	MaxUserMusic   int
	MaxMusicLength int // 秒

	// 调度
	TickInterval time.Duration
	PlayEpsilon  time.Duration

	// 状态存储后端: memory / redis / badger / mysql
	StateBackend string

	// Redis配置
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	BadgerPath string

	// MySQL配置
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MinIO 配置，Endpoint 为空时不启用镜像
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	// 音乐源
	MusicAPI        string
	NeteaseLyricAPI string
	MiguAPI         string
	MiguListenAPI   string

	DataDir        string // random.txt / username.json / 恢复快照
	CacheDir       string // {id}.mp3 / {id}.lrc
	MediaURLPrefix string
	FFprobePath    string

	// 日志
	LogLevel      string
	LogPath       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// Load 从 .env 与环境变量加载配置，.env 不会覆盖已存在的环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv 仅从当前环境变量构建配置
func FromEnv() *Config {
	tick := getEnvInt("TICK_INTERVAL", 5)
	if tick < 1 {
		tick = 1
	}
	if tick > 5 {
		tick = 5
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		WSPath:        getEnv("WS_PATH", "/ws"),
		UseXRealIP:    getEnvBool("USE_X_REAL_IP", false),
		AdminPassword: getEnv("ADMIN_PASS", "123456789"),

		MinChatWait:    time.Duration(getEnvInt("MIN_CHATWAIT", 3)) * time.Second,
		MaxChatLength:  getEnvInt("MAX_CHATLENGTH", 200),
		MaxUserMusic:   getEnvInt("MAX_USERMUSIC", 5),
		MaxMusicLength: getEnvInt("MAX_MUSICLENGTH", 600),

		TickInterval: time.Duration(tick) * time.Second,
		PlayEpsilon:  time.Duration(getEnvInt("PLAY_EPSILON", 3)) * time.Second,

		StateBackend: strings.ToLower(getEnv("STATE_BACKEND", "memory")),

		RedisHost:      getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", ""),

		BadgerPath: getEnv("BADGER_PATH", "data/state"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "syncmusic"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "syncmusic"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		MusicAPI:        strings.TrimRight(getEnv("MUSIC_API", "https://cdn.zerodream.net/netease"), "/"),
		NeteaseLyricAPI: getEnv("NETEASE_LYRIC_API", "https://music.163.com/api/song/lyric"),
		MiguAPI:         strings.TrimRight(getEnv("MIGU_API", "https://pd.musicapp.migu.cn"), "/"),
		MiguListenAPI:   strings.TrimRight(getEnv("MIGU_LISTEN_API", "https://app.pd.nf.migu.cn"), "/"),

		DataDir:        getEnv("DATA_DIR", "data"),
		CacheDir:       getEnv("CACHE_DIR", "tmp"),
		MediaURLPrefix: getEnv("MEDIA_URL_PREFIX", "/media/"),
		FFprobePath:    getEnv("FFPROBE_PATH", "ffprobe"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 7),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}
