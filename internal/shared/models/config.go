package models

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type GatewayConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

type AppConfig struct {
	BaseURL   string
	JWTSecret string
}

type ServicesConfig struct {
	BookingPort      string
	FleetPort        string
	NotificationPort string
}

type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Gateway  GatewayConfig
	App      AppConfig
	Services ServicesConfig
}
