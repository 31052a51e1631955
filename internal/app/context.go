// Package app wires the process: workspace, database, migrations, config,
// engine, and the optional calendar publisher.
package app

import (
	"database/sql"
	"time"

	"getmoredone/internal/calendar"
	"getmoredone/internal/config"
	"getmoredone/internal/db"
	"getmoredone/internal/engine"
	"getmoredone/internal/migrate"
	"getmoredone/internal/resolve"
	"getmoredone/internal/timer"
)

// App is everything a command needs after bootstrap.
type App struct {
	Workspace string
	DB        *sql.DB
	Config    *config.Config
	Engine    *engine.Engine
	Timer     *timer.Controller
	Calendar  calendar.Publisher
}

// Open bootstraps a workspace: creates the data directory, opens and
// migrates the database, loads config, and builds the engine stack.
func Open(workspace string) (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	eng := engine.New(conn, resolve.Calendar{
		IncludeSaturday: cfg.IncludeSaturday(),
		IncludeSunday:   cfg.IncludeSunday(),
	})

	var pub calendar.Publisher = calendar.Disabled{}
	if cfg.Calendar.URL != "" {
		pub = calendar.NewHTTPPublisher(cfg.Calendar.URL, time.Duration(cfg.Calendar.TimeoutSeconds)*time.Second)
	}

	return &App{
		Workspace: workspace,
		DB:        conn,
		Config:    cfg,
		Engine:    eng,
		Timer:     timer.NewController(eng),
		Calendar:  pub,
	}, nil
}

// TimerConfig converts the loaded settings for the session state machine.
func (a *App) TimerConfig() timer.Config {
	return timer.Config{
		BlockMinutes:  a.Config.Timer.BlockMinutes,
		BreakMinutes:  a.Config.Timer.BreakMinutes,
		WarnThreshold: a.Config.Timer.WarnThresholdMinutes,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
