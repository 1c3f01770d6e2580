package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// App holds all runtime configuration, populated from the environment
type App struct {
	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// JWT
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// Store
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"2s"`
	// Websocket
	WriteWait  time.Duration `envconfig:"WS_WRITE_WAIT" default:"10s"`
	PongWait   time.Duration `envconfig:"WS_PONG_WAIT" default:"60s"`
	SendBuffer int           `envconfig:"WS_SEND_BUFFER" default:"16"`
}

// Load reads configuration from the environment
func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
