package config

import "github.com/caarlos0/env/v11"

// Config holds service-level configuration loaded from the environment.
type Config struct {
	MongoURI  string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB   string `env:"MONGO_DB" envDefault:"flowtune"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8080"`

	HostUsername string `env:"HOST_USERNAME" envDefault:"admin"`
	HostPassword string `env:"HOST_PASSWORD" envDefault:"password123"`
	JWTSecret    string `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
