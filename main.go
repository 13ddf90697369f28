// ABOUTME: Entry point for the SQL Nova migration planner service
// ABOUTME: Serves inventory, distribution simulation, and planning session APIs

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/handlers"
	"github.com/sqlnova/migration-planner/logger"
	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting SQL Nova Migration Planner")

	// Initialize cache
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	c := cache.New(cacheTTL)
	slog.Info("Cache initialized", "ttl", cacheTTL)

	inventory, vsphere, err := buildInventory(cfg, c)
	if err != nil {
		slog.Error("Failed to load inventory", "error", err)
		os.Exit(1)
	}

	h := handlers.NewHandler(cfg, c)
	h.SetInventoryService(inventory)

	mux := handlers.NewRouter(cfg, h)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	if vsphere != nil {
		if err := vsphere.Disconnect(shutdownCtx); err != nil {
			slog.Warn("vSphere logout failed", "error", err)
		}
	}
}

// buildInventory loads the inventory file and attaches the live scanners that are configured
func buildInventory(cfg *config.Config, c *cache.Cache) (*services.InventoryService, *services.VSphereClient, error) {
	var inv models.Inventory
	if cfg.InventoryFile != "" {
		loaded, err := services.LoadInventoryFile(cfg.InventoryFile)
		if err != nil {
			return nil, nil, err
		}
		inv = loaded
	} else {
		slog.Warn("INVENTORY_FILE not set, inventory endpoints will be empty")
	}

	opts := services.InventoryOptions{
		Cache:       c,
		CacheTTL:    time.Duration(cfg.CacheTTL) * time.Second,
		Concurrency: cfg.ScanConcurrency,
		NamePrefix:  cfg.InstanceNamePrefix,
	}

	if cfg.SQLServerConfigured() {
		opts.Scanner = services.NewSQLServerClient(services.SQLServerCredentials{
			Username:   cfg.SQLServerUsername,
			Password:   cfg.SQLServerPassword,
			DomainAuth: cfg.SQLServerDomainAuth,
			Encrypt:    cfg.SQLServerEncrypt,
			Timeout:    cfg.SQLServerTimeout,
			AllProxy:   cfg.SQLServerAllProxy,
		})
		slog.Info("SQL Server scanning enabled", "proxied", cfg.SQLServerAllProxy != "")
	} else {
		slog.Info("SQL Server not configured, using static inventory snapshot")
	}

	var vsphere *services.VSphereClient
	if cfg.VSphereConfigured() {
		vsphere = services.NewVSphereClient(services.VSphereCredentials{
			Host:       cfg.VSphereHost,
			Username:   cfg.VSphereUsername,
			Password:   cfg.VSpherePassword,
			Datacenter: cfg.VSphereDatacenter,
			Insecure:   cfg.VSphereInsecure,
		})
		opts.Disks = vsphere
		slog.Info("vSphere configured", "host", cfg.VSphereHost, "datacenter", cfg.VSphereDatacenter)
	} else {
		slog.Info("vSphere not configured, disk counts come from SQL Server drive letters")
	}

	return services.NewInventoryService(inv, opts), vsphere, nil
}
