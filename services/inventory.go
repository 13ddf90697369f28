// ABOUTME: Inventory service for source servers, their databases, and destination instances
// ABOUTME: Static YAML inventory with optional live SQL Server scans and vSphere disk counts

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// ErrServerNotFound is returned for servers missing from the inventory
var ErrServerNotFound = errors.New("server not found in inventory")

// DatabaseScanner reads live database sizes from SQL Server
type DatabaseScanner interface {
	ListDatabases(ctx context.Context, server string) ([]models.SourceDatabase, error)
	ProbeInstance(ctx context.Context, server string) (models.ExistingInstance, error)
}

// DiskCounter reports the observed data disk count of a destination instance
type DiskCounter interface {
	DataDiskCount(ctx context.Context, instanceName string) (int, error)
}

// InventoryOptions configures an InventoryService
type InventoryOptions struct {
	Scanner     DatabaseScanner // nil uses the static snapshot from the inventory file
	Disks       DiskCounter     // nil keeps the scanner's drive-letter count
	Cache       *cache.Cache
	CacheTTL    time.Duration
	Concurrency int
	NamePrefix  string
	ScanTimeout time.Duration // bound on one shared scan, default 2m
}

// InventoryService answers inventory questions for the API and the CLI
type InventoryService struct {
	inventory models.Inventory
	opts      InventoryOptions
	group     singleflight.Group
}

// LoadInventoryFile reads and validates a YAML inventory
func LoadInventoryFile(path string) (models.Inventory, error) {
	var inv models.Inventory

	data, err := os.ReadFile(path)
	if err != nil {
		return inv, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return inv, fmt.Errorf("parsing inventory %s: %w", path, err)
	}

	for i := range inv.Servers {
		for j := range inv.Servers[i].Databases {
			db := &inv.Servers[i].Databases[j]
			db.InstanceName = inv.Servers[i].Name
			if db.TotalSizeMB == 0 {
				db.TotalSizeMB = db.DataSizeMB + db.LogSizeMB
			}
		}
	}
	if err := models.ValidateStruct(inv); err != nil {
		return inv, fmt.Errorf("invalid inventory %s: %w", path, err)
	}

	slog.Info("Inventory loaded", "path", path, "servers", len(inv.Servers), "destinations", len(inv.Destinations))
	return inv, nil
}

// NewInventoryService creates an inventory service
func NewInventoryService(inv models.Inventory, opts InventoryOptions) *InventoryService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 2 * time.Minute
	}
	return &InventoryService{inventory: inv, opts: opts}
}

// Live reports whether databases are scanned from SQL Server
func (s *InventoryService) Live() bool {
	return s.opts.Scanner != nil
}

// ListServers returns source servers, optionally filtered by environment, sorted by name
func (s *InventoryService) ListServers(environment string) []models.SourceServer {
	servers := make([]models.SourceServer, 0, len(s.inventory.Servers))
	for _, srv := range s.inventory.Servers {
		if environment == "" || strings.EqualFold(srv.Environment, environment) {
			servers = append(servers, srv)
		}
	}
	sort.SliceStable(servers, func(i, j int) bool {
		return servers[i].Name < servers[j].Name
	})
	return servers
}

func (s *InventoryService) findServer(name string) (models.SourceServer, bool) {
	for _, srv := range s.inventory.Servers {
		if strings.EqualFold(srv.Name, name) {
			return srv, true
		}
	}
	return models.SourceServer{}, false
}

// ListDatabases returns the databases of one source server.
// Live results are cached and concurrent requests for the same server share one scan.
func (s *InventoryService) ListDatabases(ctx context.Context, server string) ([]models.SourceDatabase, error) {
	srv, ok := s.findServer(server)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, sanitizeForLog(server))
	}

	if s.opts.Scanner == nil {
		dbs := make([]models.SourceDatabase, len(srv.Databases))
		copy(dbs, srv.Databases)
		return dbs, nil
	}

	key := "inventory:databases:" + strings.ToUpper(srv.Name)
	if s.opts.Cache != nil {
		if cached, found := s.opts.Cache.Get(key); found {
			return cached.([]models.SourceDatabase), nil
		}
	}

	v, err := s.shared(ctx, key, func(sctx context.Context) (interface{}, error) {
		dbs, err := s.opts.Scanner.ListDatabases(sctx, srv.Name)
		observeScan("databases", err)
		if err != nil {
			return nil, err
		}
		if s.opts.Cache != nil {
			s.opts.Cache.SetWithTTL(key, dbs, s.opts.CacheTTL)
		}
		return dbs, nil
	})
	if err != nil {
		slog.Error("Database scan failed", "server", srv.Name, "error", err)
		return nil, err
	}
	return v.([]models.SourceDatabase), nil
}

// ProbeDestinations returns the existing destination instances for an environment.
// Live probes run concurrently; an unreachable instance is reported with
// ConnectionSuccess false instead of failing the whole listing.
func (s *InventoryService) ProbeDestinations(ctx context.Context, environment string) ([]models.ExistingInstance, error) {
	var targets []models.ExistingInstance
	for _, dest := range s.inventory.Destinations {
		if environment == "" || dest.Environment == "" || strings.EqualFold(dest.Environment, environment) {
			targets = append(targets, dest)
		}
	}

	if s.opts.Scanner == nil {
		out := make([]models.ExistingInstance, len(targets))
		for i, dest := range targets {
			// Static snapshots are declared by the operator and treated as reachable
			dest.ConnectionSuccess = true
			out[i] = dest
		}
		return out, nil
	}

	key := "inventory:destinations:" + strings.ToUpper(environment)
	if s.opts.Cache != nil {
		if cached, found := s.opts.Cache.Get(key); found {
			return cached.([]models.ExistingInstance), nil
		}
	}

	v, err := s.shared(ctx, key, func(sctx context.Context) (interface{}, error) {
		results := make([]models.ExistingInstance, len(targets))

		g, gctx := errgroup.WithContext(sctx)
		g.SetLimit(s.opts.Concurrency)
		for i, dest := range targets {
			g.Go(func() error {
				results[i] = s.probe(gctx, dest)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := sctx.Err(); err != nil {
			return nil, err
		}

		if s.opts.Cache != nil {
			s.opts.Cache.SetWithTTL(key, results, s.opts.CacheTTL)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ExistingInstance), nil
}

// shared runs fn once per key for all concurrent callers. The scan is detached
// from any one caller's cancellation; each caller stops waiting on its own ctx.
func (s *InventoryService) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ScanTimeout)
		defer cancel()
		return fn(sctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *InventoryService) probe(ctx context.Context, dest models.ExistingInstance) models.ExistingInstance {
	inst, err := s.opts.Scanner.ProbeInstance(ctx, dest.Name)
	observeScan("destination", err)
	inst.Name = dest.Name
	inst.Environment = dest.Environment
	if err != nil {
		slog.Warn("Destination instance unreachable", "instance", dest.Name, "error", err)
		inst.ConnectionSuccess = false
		inst.ConnectionError = err.Error()
		return inst
	}

	if s.opts.Disks != nil {
		count, err := s.opts.Disks.DataDiskCount(ctx, dest.Name)
		if err != nil {
			slog.Warn("Data disk count unavailable", "instance", dest.Name, "error", err)
		} else if count > 0 {
			inst.CurrentDataDiskCount = count
		}
	}
	return inst
}

// Naming resolves the naming source for new instances in an environment
// from every destination name known to the inventory.
func (s *InventoryService) Naming(environment string) models.NamingSource {
	names := make([]string, 0, len(s.inventory.Destinations))
	for _, dest := range s.inventory.Destinations {
		names = append(names, dest.Name)
	}
	return ResolveNaming(s.opts.NamePrefix, environment, names)
}

// Refresh drops cached scan results
func (s *InventoryService) Refresh() {
	if s.opts.Cache == nil {
		return
	}
	for _, key := range s.opts.Cache.Keys("inventory:") {
		s.opts.Cache.Clear(key)
	}
}
