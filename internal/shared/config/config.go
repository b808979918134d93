package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"car-rental/internal/shared/models"
)

// LoadConfig reads a sectioned yaml-ish config file. Values may reference
// environment variables with the ${VAR:-default} form.
func LoadConfig(filename string) (*models.Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &models.Config{}
	var section string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.Contains(line, ":") {
			continue
		}

		if strings.HasSuffix(line, ":") {
			section = strings.TrimSuffix(line, ":")
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		if strings.HasPrefix(val, "${") {
			inside := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			parts := strings.SplitN(inside, ":-", 2)

			envVar := parts[0]
			defVal := ""
			if len(parts) == 2 {
				defVal = parts[1]
			}

			if v, ok := os.LookupEnv(envVar); ok {
				val = v
			} else {
				val = defVal
			}
		}

		switch section {
		case "database":
			switch key {
			case "host":
				cfg.Database.Host = val
			case "port":
				cfg.Database.Port = val
			case "user":
				cfg.Database.User = val
			case "password":
				cfg.Database.Password = val
			case "database":
				cfg.Database.Database = val
			}
		case "rabbitmq":
			switch key {
			case "host":
				cfg.RabbitMQ.Host = val
			case "port":
				cfg.RabbitMQ.Port = val
			case "user":
				cfg.RabbitMQ.User = val
			case "password":
				cfg.RabbitMQ.Password = val
			}
		case "gateway":
			switch key {
			case "base_url":
				cfg.Gateway.BaseURL = val
			case "api_key":
				cfg.Gateway.APIKey = val
			case "timeout_seconds":
				if n, err := strconv.Atoi(val); err == nil {
					cfg.Gateway.TimeoutSeconds = n
				}
			}
		case "app":
			switch key {
			case "base_url":
				cfg.App.BaseURL = val
			case "jwt_secret":
				cfg.App.JWTSecret = val
			}
		case "services":
			switch key {
			case "booking_port":
				cfg.Services.BookingPort = val
			case "fleet_port":
				cfg.Services.FleetPort = val
			case "notification_port":
				cfg.Services.NotificationPort = val
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = 10
	}

	return cfg, nil
}
