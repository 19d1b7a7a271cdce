package main

import (
	"log/slog"
	"os"

	"github.com/stellar/go/network"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/foodlog/internal/config"
	"github.com/mtlprog/foodlog/internal/logger"
)

//	@title						foodlog API
//	@version					1.0
//	@description				Restaurant reviews with reputation-weighted ratings.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	app := &cli.App{
		Name:  "foodlog",
		Usage: "Restaurant review service with reputation-weighted ratings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL connection URL; empty runs on an in-memory store",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "tuning",
				Usage:   "Path to a TOML tuning file",
				EnvVars: []string{"TUNING_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:     "jwt-secret",
						Usage:    "HS256 secret of session tokens",
						EnvVars:  []string{"JWT_SECRET"},
						Required: true,
					},
					&cli.IntFlag{
						Name:    "rate-limit",
						Value:   config.DefaultRateLimit,
						Usage:   "Requests per minute per client IP",
						EnvVars: []string{"RATE_LIMIT"},
					},
					&cli.BoolFlag{
						Name:    "trust-proxy",
						Usage:   "Take client IPs from X-Forwarded-For / X-Real-IP",
						EnvVars: []string{"TRUST_PROXY"},
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis URL for the display-name cache; empty uses an in-process cache",
						EnvVars: []string{"REDIS_URL"},
					},
					&cli.StringFlag{
						Name:    "minio-endpoint",
						Usage:   "MinIO endpoint (host:port); empty stores images in the database",
						EnvVars: []string{"MINIO_ENDPOINT"},
					},
					&cli.StringFlag{
						Name:    "minio-access-key",
						EnvVars: []string{"MINIO_ACCESS_KEY"},
					},
					&cli.StringFlag{
						Name:    "minio-secret-key",
						EnvVars: []string{"MINIO_SECRET_KEY"},
					},
					&cli.BoolFlag{
						Name:    "minio-secure",
						Usage:   "Use TLS for MinIO",
						EnvVars: []string{"MINIO_SECURE"},
					},
					&cli.StringFlag{
						Name:    "minio-bucket-prefix",
						Value:   "foodlog-",
						EnvVars: []string{"MINIO_BUCKET_PREFIX"},
					},
					&cli.StringFlag{
						Name:    "minio-public-url",
						Usage:   "Public base URL of uploaded objects",
						EnvVars: []string{"MINIO_PUBLIC_URL"},
					},
					&cli.StringFlag{
						Name:    "horizon-url",
						Aliases: []string{"H"},
						Value:   config.DefaultHorizonURL,
						Usage:   "Stellar Horizon API URL",
						EnvVars: []string{"HORIZON_URL"},
					},
					&cli.StringFlag{
						Name:    "network-passphrase",
						Value:   network.PublicNetworkPassphrase,
						Usage:   "Stellar network passphrase",
						EnvVars: []string{"NETWORK_PASSPHRASE"},
					},
					&cli.StringFlag{
						Name:    "token-issuer-secret",
						Usage:   "Secret seed of the reward token issuer; empty disables likes",
						EnvVars: []string{"TOKEN_ISSUER_SECRET"},
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Action: migrate,
			},
			{
				Name:  "recompute",
				Usage: "Recompute rolling and daily stats of every restaurant",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Day of the daily stats (YYYY-MM-DD); defaults to today",
					},
				},
				Action: recompute,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
