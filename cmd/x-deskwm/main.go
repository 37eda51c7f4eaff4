package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/ItsNotGoodName/x-deskwm/internal/api"
	"github.com/ItsNotGoodName/x-deskwm/internal/build"
	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/config"
	"github.com/ItsNotGoodName/x-deskwm/internal/core"
	"github.com/ItsNotGoodName/x-deskwm/internal/desktop"
	"github.com/ItsNotGoodName/x-deskwm/internal/session"
	"github.com/ItsNotGoodName/x-deskwm/pkg/sutureext"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/k0kubun/pp"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
)

type Options struct {
	Debug  bool   `doc:"enable debug"`
	Host   string `doc:"host to listen on"`
	Port   int    `doc:"port to listen on" default:"8080"`
	Config string `doc:"config file" default:".x-deskwm.yaml"`
}

func main() {
	godotenv.Load()

	var opts *Options
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		opts = options
		if options.Debug {
			InitLogger(slog.LevelDebug)
		} else {
			InitLogger(slog.LevelInfo)
		}

		OnServe(hooks, func(ctx context.Context) error {
			cfg, err := LoadConfig(options.Config)
			if err != nil {
				return err
			}

			driver, err := session.NewDriver(cfg.Session.Driver, cfg.Session.Path, cfg.Session.Name)
			if err != nil {
				return err
			}
			store, err := session.NewStore(driver)
			if err != nil {
				return err
			}
			saved, err := store.Load()
			if err != nil {
				return err
			}

			d := desktop.New(bus.New(), cfg.ViewportValue(), cfg.Snap.Threshold)
			autosave := desktop.NewAutosave(d, store, cfg.Session.Autosave)
			router := api.NewRouter(api.NewHandler(d, autosave, cfg.Window.MinWidth, cfg.Window.MinHeight))

			super := sutureext.New("root")
			sutureext.Add(super,
				d,
				autosave,
				api.NewServer(core.Address(options.Host, options.Port), router),
				sutureext.NewServiceFunc("session.Restore", func(ctx context.Context) error {
					if err := d.Restore(ctx, saved); err != nil {
						slog.Warn("Session restored with errors", "error", err)
					}
					return suture.ErrDoNotRestart
				}),
			)

			return super.Serve(ctx)
		})
	})

	cli.Root().Use = "x-deskwm"
	cli.Root().Version = build.Current.Version
	cli.Root().AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Dump(opts.Config)
		},
	})

	cli.Run()
}

func InitLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}

// LoadConfig reads the config file when it exists and falls back to defaults
// and environment variables otherwise.
func LoadConfig(path string) (config.Config, error) {
	exists, err := core.FileExists(path)
	if err != nil {
		return config.Config{}, err
	}
	if !exists {
		slog.Debug("Config file not found, using defaults", "path", path)
		path = ""
	}
	return config.Load(path)
}

func Dump(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	driver, err := session.NewDriver(cfg.Session.Driver, cfg.Session.Path, cfg.Session.Name)
	if err != nil {
		return err
	}

	if d, ok := driver.(session.DiskV); ok {
		pp.Println(d.Names())
	}

	s, err := driver.Read()
	if err != nil {
		return err
	}
	pp.Println(s)

	return nil
}

func OnServe(hooks humacli.Hooks, serveFn func(ctx context.Context) error) {
	stopC := make(chan struct{})
	hooks.OnStart(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errC := make(chan error, 1)

		go func() { errC <- serveFn(ctx) }()

		select {
		case <-stopC:
			cancel()
		case err := <-errC:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Fatal(err)
			}
			return
		}

		<-errC
		<-stopC
	})
	hooks.OnStop(func() {
		stopC <- struct{}{}
		stopC <- struct{}{}
	})
}
