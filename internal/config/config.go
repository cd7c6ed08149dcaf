package config

import (
	"fmt"
	"time"

	"ton_shooter/internal/antibot"
	"ton_shooter/internal/economy"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/ton"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string        `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"720h"`

	BotToken         string        `env:"BOT_TOKEN,required,notEmpty"`
	BotUsername      string        `env:"BOT_USERNAME"`
	AdminTelegramIDs []int64       `env:"ADMIN_TELEGRAM_IDS" envSeparator:","` // tg id админов через запятую
	AdminBotEnabled  bool          `env:"ADMIN_BOT_ENABLED" envDefault:"false"`
	InitDataMaxAge   time.Duration `env:"INIT_DATA_MAX_AGE" envDefault:"24h"`
	DevMode          bool          `env:"DEV_MODE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Rate limits, окно в секундах
	APIRateLimit   int `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow  int `env:"API_RATE_WINDOW" envDefault:"60"`
	AuthRateLimit  int `env:"AUTH_RATE_LIMIT" envDefault:"10"`
	AuthRateWindow int `env:"AUTH_RATE_WINDOW" envDefault:"60"`
	GameRateLimit  int `env:"GAME_RATE_LIMIT" envDefault:"120"`
	GameRateWindow int `env:"GAME_RATE_WINDOW" envDefault:"60"`

	// Economy overrides
	DevFeeBps                 int64 `env:"DEV_FEE_BPS" envDefault:"200"`
	ReferralDailyCap          int   `env:"REFERRAL_DAILY_CAP" envDefault:"10"`
	AntibotMinActionMs        int   `env:"ANTIBOT_MIN_ACTION_MS" envDefault:"120"`
	AntibotSuspicionThreshold int   `env:"ANTIBOT_SUSPICION_THRESHOLD" envDefault:"8"`

	// TON
	TonNetwork         string `env:"TON_NETWORK" envDefault:"testnet"`
	TonReceiverAddress string `env:"TON_RECEIVER_ADDRESS"`
	TonCenterAPIKey    string `env:"TONCENTER_API_KEY"`
	AllowMockTon       bool   `env:"ALLOW_MOCK_TON" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Parse reads the environment (and .env when present).
func Parse() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Загрузка конфига из env, без конфига не стартуем
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func (c *Config) validate() error {
	for name, v := range map[string]int{
		"API_RATE_WINDOW":  c.APIRateWindow,
		"AUTH_RATE_WINDOW": c.AuthRateWindow,
		"GAME_RATE_WINDOW": c.GameRateWindow,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.DevFeeBps < 0 || c.DevFeeBps >= 10_000 {
		return fmt.Errorf("DEV_FEE_BPS out of range: %d", c.DevFeeBps)
	}
	if c.TonReceiverAddress != "" && !ton.ValidateAddress(c.TonReceiverAddress) {
		return fmt.Errorf("TON_RECEIVER_ADDRESS is not a TON address")
	}
	return nil
}

// Rules builds the economy from the defaults plus env overrides.
func (c *Config) Rules() economy.Rules {
	r := economy.DefaultRules()
	r.WithdrawFeeBps = c.DevFeeBps
	r.ReferralDailyCap = c.ReferralDailyCap
	return r
}

func (c *Config) AntibotPolicy() antibot.Policy {
	return antibot.Policy{
		MinInterval: time.Duration(c.AntibotMinActionMs) * time.Millisecond,
		Threshold:   c.AntibotSuspicionThreshold,
	}
}

func (c *Config) Network() ton.Network { return ton.ParseNetwork(c.TonNetwork) }

func (c *Config) window(seconds int) time.Duration { return time.Duration(seconds) * time.Second }

func (c *Config) APIWindow() time.Duration  { return c.window(c.APIRateWindow) }
func (c *Config) AuthWindow() time.Duration { return c.window(c.AuthRateWindow) }
func (c *Config) GameWindow() time.Duration { return c.window(c.GameRateWindow) }
