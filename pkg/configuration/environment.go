package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first use.
func Use() *Configuration {
	return singleton()
}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"flyroom"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type FlyBaseOptions struct {
	BaseURL     string        `env:"FLYBASE_BASE_URL"`
	Timeout     time.Duration `env:"FLYBASE_TIMEOUT" envDefault:"10s"`
	OfflineMode bool          `env:"FLYBASE_OFFLINE" envDefault:"false"`
}

type ImportOptions struct {
	SessionTTL    time.Duration `env:"IMPORT_SESSION_TTL" envDefault:"30m"`
	StockIDPrefix string        `env:"IMPORT_STOCK_ID_PREFIX" envDefault:"IMP"`
	EnableLLM     bool          `env:"IMPORT_ENABLE_LLM_DETECTOR" envDefault:"false"`
	MaxFileBytes  int64         `env:"IMPORT_MAX_FILE_BYTES" envDefault:"10485760"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	FlyBase    FlyBaseOptions
	Import     ImportOptions
	Prometheus PrometheusOptions

	ServerPort    int      `env:"PORT" envDefault:"8080"`
	GoAppEnv      string   `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress string   `env:"-"`
	AllowOrigins  []string `env:"ALLOW_ORIGINS" envSeparator:","`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`

	logger *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)

	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.GoAppEnv == Production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	c.logger = logger
	return nil
}
