package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del cliente y del stub API.
type Config struct {
	APIBaseURL    string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	StatePath     string `env:"STATE_PATH"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	AdminEmail    string `env:"ADMIN_SEED_EMAIL" envDefault:"admin@unchainedcoffee.com"`
	AdminPassword string `env:"ADMIN_SEED_PASSWORD" envDefault:"admin123"`
	ProductID     string `env:"PRODUCT_ID" envDefault:"ethiopia-yirgacheffe"`
	VariantID     string `env:"VARIANT_ID" envDefault:"250g-whole-bean"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
