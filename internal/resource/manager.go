package resource

import (
	"context"
	"sync"
	"time"

	"LedgerSync/internal/logger"

	"go.uber.org/zap"
)

// Pinger is a dependency whose reachability is tracked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the last heartbeat result of one resource.
type Status struct {
	Up        bool      `json:"up"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// ResourceManager pings registered resources on an interval and keeps the
// latest result for the health endpoint.
type ResourceManager struct {
	resources         map[string]Pinger
	status            map[string]Status
	mu                sync.RWMutex
	stopChan          chan struct{}
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	log               *zap.Logger
}

func NewResourceManagerService(cfg map[string]interface{}) *ResourceManager {
	interval := 30 * time.Second
	if val, ok := cfg["heartbeat_interval"]; ok {
		switch v := val.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				interval = d
			}
		case int:
			interval = time.Duration(v) * time.Second
		case float64:
			interval = time.Duration(v * float64(time.Second))
		}
	}
	return &ResourceManager{
		resources:         make(map[string]Pinger),
		status:            make(map[string]Status),
		stopChan:          make(chan struct{}),
		heartbeatInterval: interval,
		log:               logger.L().Named("resource"),
	}
}

func (rm *ResourceManager) Name() string { return "resourcemanager" }

func (rm *ResourceManager) Start() error {
	logger.Audit("resource manager started", zap.Duration("interval", rm.heartbeatInterval), zap.Strings("resources", rm.ListResources()))
	rm.CheckNow(context.Background())
	rm.wg.Add(1)
	go rm.heartbeatLoop()
	return nil
}

func (rm *ResourceManager) Stop(ctx context.Context) error {
	close(rm.stopChan)
	rm.wg.Wait()
	return nil
}

func (rm *ResourceManager) heartbeatLoop() {
	defer rm.wg.Done()
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			rm.CheckNow(context.Background())
		}
	}
}

// CheckNow pings every resource once.
func (rm *ResourceManager) CheckNow(ctx context.Context) {
	rm.mu.RLock()
	targets := make(map[string]Pinger, len(rm.resources))
	for k, p := range rm.resources {
		targets[k] = p
	}
	rm.mu.RUnlock()

	for key, p := range targets {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Ping(pctx)
		cancel()

		st := Status{Up: err == nil, CheckedAt: time.Now()}
		if err != nil {
			st.Error = err.Error()
		}
		rm.mu.Lock()
		prev, seen := rm.status[key]
		rm.status[key] = st
		rm.mu.Unlock()

		if err != nil && (!seen || prev.Up) {
			rm.log.Warn("resource down", zap.String("resource", key), zap.Error(err))
		} else if err == nil && seen && !prev.Up {
			rm.log.Info("resource recovered", zap.String("resource", key))
		}
	}
}

func (rm *ResourceManager) AddResource(key string, p Pinger) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.resources[key] = p
}

func (rm *ResourceManager) RemoveResource(key string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.resources, key)
	delete(rm.status, key)
}

func (rm *ResourceManager) ListResources() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	keys := make([]string, 0, len(rm.resources))
	for key := range rm.resources {
		keys = append(keys, key)
	}
	return keys
}

// StatusOf returns the last heartbeat of key.
func (rm *ResourceManager) StatusOf(key string) (Status, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	st, ok := rm.status[key]
	return st, ok
}

// Health reports every resource's last state.
func (rm *ResourceManager) Health() map[string]interface{} {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make(map[string]interface{}, len(rm.status))
	for k, st := range rm.status {
		out[k] = st
	}
	return out
}
