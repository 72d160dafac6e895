package appmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"LedgerSync/api"
	"LedgerSync/internal/config"
	"LedgerSync/internal/dashboard"
	"LedgerSync/internal/jobs"
	"LedgerSync/internal/ledger"
	"LedgerSync/internal/logger"
	"LedgerSync/internal/resource"
	"LedgerSync/internal/serviceiface"
	"LedgerSync/internal/store"
	"LedgerSync/internal/syncer"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Deps are the shared components services are built from.
type Deps struct {
	Config  config.Config
	Store   store.RecordStore
	Syncer  *syncer.Syncer
	Builder *ledger.Builder
	Events  *dashboard.SSEServer
}

type constructor func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error)

var serviceConstructors = map[string]constructor{
	"logger": func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error) {
		return logger.NewLoggerService(cfg), nil
	},
	"resourcemanager": func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error) {
		rm := resource.NewResourceManagerService(cfg)
		rm.AddResource("store", am.deps.Store)
		return rm, nil
	},
	"events": func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error) {
		if am.deps.Events == nil {
			return nil, errors.New("events service needs an SSE server")
		}
		return am.deps.Events, nil
	},
	"cron": func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error) {
		sc := jobs.NewDefaultSyncConfig()
		if am.deps.Config.SyncSchedule != "" {
			sc.Schedule = am.deps.Config.SyncSchedule
		}
		if am.deps.Config.SyncTimeZone != "" {
			sc.TimeZone = am.deps.Config.SyncTimeZone
		}
		sc.ApplyServiceConfig(cfg)
		return jobs.NewSyncService(sc, am.deps.Syncer, logger.L()), nil
	},
	"gateway": func(cfg map[string]interface{}, am *AppManager) (serviceiface.Service, error) {
		d := &api.Deps{
			Store:   am.deps.Store,
			Syncer:  am.deps.Syncer,
			Builder: am.deps.Builder,
			Health:  am.healthReporters(),
		}
		router := api.NewRouter(d, api.RouterConfig{
			CORSOrigins: am.deps.Config.CORSOrigins,
			Events:      am.deps.Events,
			Log:         logger.L().Named("http"),
		})
		gw := api.NewGatewayService(cfg, am.deps.Config.Port, router)
		if ev := am.deps.Events; ev != nil {
			gw.OnShutdown(func() { _ = ev.Stop(context.Background()) })
		}
		return gw, nil
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	started  map[string]bool
	deps     Deps
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
		started:  make(map[string]bool),
	}
}

// SetDeps provides the components used by service constructors.
func (am *AppManager) SetDeps(d Deps) {
	am.deps = d
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

// StartLogger builds and starts the logger service ahead of the others so
// components created afterwards log through it.
func (am *AppManager) StartLogger(configs []ServiceConfig) error {
	for _, c := range configs {
		if c.Name != "logger" {
			continue
		}
		svc := logger.NewLoggerService(c.Config)
		if err := svc.Start(); err != nil {
			return fmt.Errorf("failed to start service logger: %w", err)
		}
		am.RegisterService(svc)
		am.mu.Lock()
		am.started[svc.Name()] = true
		am.mu.Unlock()
		return nil
	}
	return nil
}

// AutoRegisterServices builds every configured service in order. Services
// already registered are skipped; unknown names are an error.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) error {
	for _, c := range configs {
		if am.GetServiceByName(c.Name) != nil {
			continue
		}
		ctor, ok := serviceConstructors[c.Name]
		if !ok {
			return fmt.Errorf("unknown service %q in service sequence", c.Name)
		}
		svc, err := ctor(c.Config, am)
		if err != nil {
			return fmt.Errorf("building service %s: %w", c.Name, err)
		}
		am.RegisterService(svc)
	}
	return nil
}

// StartAll starts services in registration order. When one fails, the ones
// already started are stopped again.
func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	for i, service := range am.services {
		if am.started[service.Name()] {
			continue
		}
		logger.L().Info("starting service", zap.String("service", service.Name()))
		if err := service.Start(); err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
			defer cancel()
			for j := i - 1; j >= 0; j-- {
				if s := am.services[j]; am.started[s.Name()] {
					_ = s.Stop(ctx)
					delete(am.started, s.Name())
				}
			}
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
		am.started[service.Name()] = true
	}
	return nil
}

// StopAll stops started services in reverse order and reports every failure.
func (am *AppManager) StopAll(ctx context.Context) error {
	am.mu.Lock()
	defer am.mu.Unlock()

	var errs []error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if !am.started[svc.Name()] {
			continue
		}
		logger.L().Info("stopping service", zap.String("service", svc.Name()))
		if err := svc.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop service %s: %w", svc.Name(), err))
		}
		delete(am.started, svc.Name())
	}
	return errors.Join(errs...)
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}

func (am *AppManager) healthReporters() map[string]serviceiface.HealthReporter {
	am.mu.Lock()
	defer am.mu.Unlock()
	out := make(map[string]serviceiface.HealthReporter)
	for _, svc := range am.services {
		if h, ok := svc.(serviceiface.HealthReporter); ok {
			out[svc.Name()] = h
		}
	}
	return out
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

// DefaultSequence is used when no services file exists.
func DefaultSequence() []ServiceConfig {
	return []ServiceConfig{
		{Name: "logger", StartOrder: 1, Config: map[string]interface{}{"folder_path": "./logs", "max_file_mb": 10, "retention_days": 7}},
		{Name: "resourcemanager", StartOrder: 2, Config: map[string]interface{}{"heartbeat_interval": "30s"}},
		{Name: "events", StartOrder: 3},
		{Name: "cron", StartOrder: 4},
		{Name: "gateway", StartOrder: 5},
	}
}

// LoadServiceSequence reads path and sorts services by start_order. A
// missing file yields DefaultSequence.
func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSequence(), nil
	}
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}
