package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `yaml:"Server"`
	DB     DBConfig     `yaml:"DB"`
	Token  TokenConfig  `yaml:"Token"`
	Logger LoggerConfig `yaml:"Logger"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DBConfig struct {
	DatabaseURL        string        `yaml:"databaseURL"`
	MaxOpenConnection  int           `yaml:"maxOpenConnection"`
	MaxIdleConnection  int           `yaml:"maxIdleConnection"`
	ConnectionLifetime time.Duration `yaml:"connectionLifetime"`
	// CallTimeout bounds every single round trip to the store so a slow
	// dependency surfaces as a timeout instead of a hung request.
	CallTimeout time.Duration `yaml:"callTimeout"`
}

type TokenConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type LoggerConfig struct {
	LoggerLevel string `yaml:"loggerLevel"`
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./internal/config")

	viper.SetDefault("Server.port", "8080")
	viper.SetDefault("Server.readTimeout", 10*time.Second)
	viper.SetDefault("Server.writeTimeout", 10*time.Second)
	viper.SetDefault("Server.idleTimeout", 30*time.Second)
	viper.SetDefault("Server.shutdownTimeout", 5*time.Second)
	viper.SetDefault("DB.maxOpenConnection", 15)
	viper.SetDefault("DB.maxIdleConnection", 10)
	viper.SetDefault("DB.connectionLifetime", time.Hour)
	viper.SetDefault("DB.callTimeout", 5*time.Second)
	viper.SetDefault("Logger.loggerLevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("config file not found, using env and defaults")
		} else {
			log.Println("error reading config file")
		}
	} else {
		log.Printf("using config file: %s", viper.ConfigFileUsed())
	}

	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &config, nil
}
