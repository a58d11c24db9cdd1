package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	WeChat   WeChatConfig
	Booking  BookingConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type WeChatConfig struct {
	AppID        string
	AppSecret    string
	SessionURL   string
	PayURL       string
	SubMchID     string
	EnvID        string
	ServiceName  string
	CallbackPath string
	LoginTimeout time.Duration
	PayTimeout   time.Duration
}

type BookingConfig struct {
	PendingTTL    time.Duration
	SweepInterval time.Duration
}

// RedisConfig is optional; an empty URL disables the login limiter.
type RedisConfig struct {
	URL         string
	LoginLimit  int64
	LoginWindow time.Duration
}

// AMQPConfig is optional; an empty URL disables event publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "room-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 15)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIN_CONNS", 2)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("JWT_ISSUER", "room-booking")
	viper.SetDefault("JWT_EXPIRE_MINUTES", 120)
	viper.SetDefault("JWT_REFRESH_EXPIRE_MINUTES", 7*24*60)
	viper.SetDefault("WECHAT_SESSION_URL", "https://api.weixin.qq.com/sns/jscode2session")
	viper.SetDefault("WECHAT_PAY_URL", "http://api.weixin.qq.com/_/pay/unifiedOrder")
	viper.SetDefault("WECHAT_CALLBACK_PATH", "/api/v1/payment/callback")
	viper.SetDefault("WECHAT_LOGIN_TIMEOUT_SECONDS", 10)
	viper.SetDefault("WECHAT_PAY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("BOOKING_PENDING_TTL_MINUTES", 30)
	viper.SetDefault("BOOKING_SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("LOGIN_RATE_LIMIT", 20)
	viper.SetDefault("LOGIN_RATE_WINDOW_SECONDS", 60)
	viper.SetDefault("AMQP_EXCHANGE", "room-booking.events")

	// .env is optional in containers where everything comes from the environment
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: seconds("SHUTDOWN_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			URL:         viper.GetString("DATABASE_URL"),
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			MinConns:    viper.GetInt32("DB_MIN_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			Issuer:        viper.GetString("JWT_ISSUER"),
			AccessExpiry:  minutes("JWT_EXPIRE_MINUTES"),
			RefreshExpiry: minutes("JWT_REFRESH_EXPIRE_MINUTES"),
		},
		WeChat: WeChatConfig{
			AppID:        viper.GetString("WECHAT_APPID"),
			AppSecret:    viper.GetString("WECHAT_APPSECRET"),
			SessionURL:   viper.GetString("WECHAT_SESSION_URL"),
			PayURL:       viper.GetString("WECHAT_PAY_URL"),
			SubMchID:     viper.GetString("WECHAT_SUB_MCH_ID"),
			EnvID:        viper.GetString("WECHAT_ENV_ID"),
			ServiceName:  viper.GetString("WECHAT_SERVICE_NAME"),
			CallbackPath: viper.GetString("WECHAT_CALLBACK_PATH"),
			LoginTimeout: seconds("WECHAT_LOGIN_TIMEOUT_SECONDS"),
			PayTimeout:   seconds("WECHAT_PAY_TIMEOUT_SECONDS"),
		},
		Booking: BookingConfig{
			PendingTTL:    minutes("BOOKING_PENDING_TTL_MINUTES"),
			SweepInterval: seconds("BOOKING_SWEEP_INTERVAL_SECONDS"),
		},
		Redis: RedisConfig{
			URL:         viper.GetString("REDIS_URL"),
			LoginLimit:  viper.GetInt64("LOGIN_RATE_LIMIT"),
			LoginWindow: seconds("LOGIN_RATE_WINDOW_SECONDS"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

func minutes(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Minute
}
