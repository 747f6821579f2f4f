// Package main runs the fittrack MCP server over stdio for a single owner
// (for local use from an MCP-capable editor or assistant).
// The same tools are also mounted on the main backend at /mcp over HTTP,
// where the owner comes from the bearer token instead of the -owner flag.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/2beens/fittrack/internal/cache"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	fittrackmcp "github.com/2beens/fittrack/internal/mcp"
	"github.com/2beens/fittrack/internal/progress"
	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	ownerID := flag.String("owner", "", "id of the user whose workouts are exposed")
	flag.Parse()

	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	if *ownerID == "" {
		log.Fatal("-owner is required")
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("load .env: %s", err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	location, err := cfg.Location()
	if err != nil {
		log.Fatalf("load location: %v", err)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     os.Getenv("FITTRACK_DB_PASS"),
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	usersService := users.NewService(users.NewRepo(dbPool), nil, nil)
	workoutsService := workouts.NewService(workouts.NewServiceParams{
		Repo:     workouts.NewRepo(dbPool),
		Profiles: usersService,
		Location: location,
	})
	progressService := progress.NewService(progress.NewServiceParams{
		Lister:   workoutsService,
		Profiles: usersService,
		Cache:    cache.NewFreeCache(1, cfg.DashboardCacheTTLSeconds),
		Location: location,
	})

	server := fittrackmcp.NewServer(*ownerID, fittrackmcp.ServerDeps{
		Dashboard: progressService,
		Workouts:  workoutsService,
		Profiles:  usersService,
	})

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
