package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/bibliotech/library-service/pkg/logger"
	"github.com/bibliotech/library-service/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

// Policy holds the loan-period and fine knobs.
type Policy struct {
	LoanPeriodDays int           `yaml:"loanPeriodDays" envconfig:"LOAN_PERIOD_DAYS" default:"14"`
	DailyFeeRate   float64       `yaml:"dailyFeeRate" envconfig:"DAILY_FEE_RATE" default:"1.0"`
	FineGraceDays  int           `yaml:"fineGraceDays" envconfig:"FINE_GRACE_DAYS" default:"0"`
	LockWait       time.Duration `yaml:"lockWait" envconfig:"LOCK_WAIT" default:"3s"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Policy   Policy       `yaml:"policy"`
	Log      logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
