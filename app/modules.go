package app

import (
	"context"
	"fmt"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/server"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"

	"github.com/zachfi/tunego/modules/skill"
	"github.com/zachfi/tunego/pkg/messagebus"
	"github.com/zachfi/tunego/pkg/player"
)

const (
	Server     string = "server"
	MessageBus string = "message-bus"

	Skill string = "skill"

	All string = "all"
)

func (a *App) setupModuleManager() error {
	mm := modules.NewManager(kitlog.NewLogfmtLogger(os.Stderr))
	mm.RegisterModule(Server, a.initServer, modules.UserInvisibleModule)
	mm.RegisterModule(MessageBus, a.initMessageBus, modules.UserInvisibleModule)

	mm.RegisterModule(Skill, a.initSkill)

	mm.RegisterModule(All, nil)

	deps := map[string][]string{
		// Server:       nil,
		// MessageBus:   nil,
		Skill: {Server, MessageBus},

		All: {Skill},
	}

	for mod, targets := range deps {
		if err := mm.AddDependency(mod, targets...); err != nil {
			return err
		}
	}

	a.ModuleManager = mm

	return nil
}

// initMessageBus returns no service when no bus url is configured.
func (a *App) initMessageBus() (services.Service, error) {
	if a.cfg.Bus.URL == "" {
		a.logger.Info("message bus disabled")
		return nil, nil
	}

	c, err := messagebus.New(a.cfg.Bus, a.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init "+MessageBus)
	}
	a.bus = c

	return c, nil
}

func (a *App) initSkill() (services.Service, error) {
	var speaker skill.Speaker = skill.LogSpeaker{Logger: a.logger.With("module", "speaker")}
	if a.bus != nil {
		speaker = messagebus.NewSpeaker(a.bus)
	}

	var audio skill.AudioService
	switch a.cfg.Skill.AudioBackend {
	case skill.AudioBackendBus:
		if a.bus == nil {
			return nil, fmt.Errorf("audio backend %q requires bus.url", skill.AudioBackendBus)
		}
		audio = messagebus.NewAudioService(a.bus)
	case skill.AudioBackendMpv:
		a.player = player.New(a.cfg.Player, a.logger)
		audio = a.player
	default:
		return nil, fmt.Errorf("unknown audio backend %q", a.cfg.Skill.AudioBackend)
	}

	s, err := skill.New(a.cfg.Skill, speaker, audio, a.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init "+Skill)
	}

	s.RegisterRoutes(a.Server.HTTP)
	if a.bus != nil {
		s.RegisterBusHandlers(a.bus)
	}

	return s, nil
}

func (a *App) initServer() (services.Service, error) {
	a.cfg.Server.MetricsNamespace = metricsNamespace
	a.cfg.Server.ExcludeRequestInLog = true
	a.cfg.Server.RegisterInstrumentation = true
	a.cfg.Server.Log = kitlog.NewLogfmtLogger(os.Stderr)

	server, err := server.New(a.cfg.Server)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create server")
	}

	servicesToWaitFor := func() []services.Service {
		svs := []services.Service(nil)
		for m, s := range a.serviceMap {
			// Server should not wait for itself.
			if m != Server {
				svs = append(svs, s)
			}
		}

		return svs
	}

	a.Server = server

	serverDone := make(chan error, 1)

	runFn := func(ctx context.Context) error {
		go func() {
			defer close(serverDone)
			serverDone <- server.Run()
		}()

		select {
		case <-ctx.Done():
			return nil
		case err := <-serverDone:
			if err != nil {
				return err
			}

			return fmt.Errorf("server stopped unexpectedly")
		}
	}

	stoppingFn := func(_ error) error {
		// wait until all modules are done, and then shutdown server.
		for _, s := range servicesToWaitFor() {
			_ = s.AwaitTerminated(context.Background())
		}

		// shutdown HTTP and gRPC servers (this also unblocks Run)
		server.Shutdown()

		// if not closed yet, wait until server stops.
		<-serverDone
		a.logger.Info("server stopped")
		return nil
	}

	return services.NewBasicService(nil, runFn, stoppingFn), nil
}
