package app

import (
	"strings"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	AllowOrigins []string
	Port         string
}

func LoadConfig(log *logger.Logger) Config {
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	return Config{
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AllowOrigins: strings.Split(origins, ","),
		Port:         utils.GetEnv("PORT", "8080", log),
	}
}
