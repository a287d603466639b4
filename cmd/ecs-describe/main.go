package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/in4it/ecs-describe/internal/api"
	"github.com/in4it/ecs-describe/internal/auth"
	"github.com/in4it/ecs-describe/internal/config"
	"github.com/in4it/ecs-describe/internal/service"
	"github.com/in4it/ecs-describe/internal/storage"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

func main() {
	// Cancel in-flight requests on termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatalf("ecs-describe: %v", err)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "ecs-describe",
		Usage:  "describe services managed by ecs-deploy",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "yaml",
				Usage:   "output format: yaml or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "service",
				Usage:     "show a service together with its versions",
				ArgsUsage: "<service-name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withService(ctx, cmd, func(svc *service.ServiceDetailService, name string) (interface{}, error) {
						return svc.Describe(ctx, name)
					})
				},
			},
			{
				Name:      "versions",
				Usage:     "list the image versions of a service",
				ArgsUsage: "<service-name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withService(ctx, cmd, func(svc *service.ServiceDetailService, name string) (interface{}, error) {
						result := <-svc.GetServiceDetail(ctx, name)
						if result.Err != nil {
							return nil, result.Err
						}
						return svc.GetVersions(ctx)
					})
				},
			},
			{
				Name:  "list",
				Usage: "list all services",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, logger, err := newServiceFromFlags(cmd)
					if err != nil {
						return err
					}
					defer logger.Sync() //nolint:errcheck

					services, err := svc.ListServices(ctx)
					if err != nil {
						return err
					}
					return render(cmd.Root().Writer, cmd.String("output"), services)
				},
			},
		},
	}
}

// withService resolves the service name argument, builds the service and renders what fetch returns.
func withService(ctx context.Context, cmd *cli.Command, fetch func(svc *service.ServiceDetailService, name string) (interface{}, error)) error {
	name := cmd.Args().First()
	if name == "" {
		return errors.New("a service name is required")
	}

	svc, logger, err := newServiceFromFlags(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	value, err := fetch(svc, name)
	if err != nil {
		return err
	}
	return render(cmd.Root().Writer, cmd.String("output"), value)
}

func newServiceFromFlags(cmd *cli.Command) (*service.ServiceDetailService, *zap.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return newService(cfg, logger), logger, nil
}

// newService wires the token provider, API client and store into a ServiceDetailService.
func newService(cfg config.Config, logger *zap.Logger) *service.ServiceDetailService {
	var tokens auth.TokenProviderInterface
	if cfg.Token != "" {
		tokens = auth.NewStaticTokenProvider(cfg.Token)
	} else {
		tokens = auth.NewLoginTokenProvider(cfg.APIURL, auth.Credentials{Username: cfg.Username, Password: cfg.Password}, logger)
	}

	describeAPI := api.NewDescribeAPI(api.DescribeConfig{APIURL: cfg.APIURL, Timeout: cfg.Timeout}, logger)
	return service.NewServiceDetailService(describeAPI, api.NewAuthMiddleware(tokens, logger), storage.NewDetailStore(), logger)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func render(out io.Writer, format string, value interface{}) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case "yaml", "":
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
