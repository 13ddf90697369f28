// ABOUTME: vSphere client for observed data disk counts via govmomi
// ABOUTME: Counts virtual disks on the VM backing an existing destination instance

package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// nonDataDisks is the number of virtual disks on a destination VM that never hold
// user data: the system disk and the H: log disk.
const nonDataDisks = 2

// VSphereCredentials holds vCenter connection info
type VSphereCredentials struct {
	Host       string
	Username   string
	Password   string
	Datacenter string
	Insecure   bool
}

// VSphereClient wraps govmomi client for destination VM discovery
type VSphereClient struct {
	creds  VSphereCredentials
	client *govmomi.Client
	finder *find.Finder
	mu     sync.Mutex
}

// NewVSphereClient creates a new vSphere client
func NewVSphereClient(creds VSphereCredentials) *VSphereClient {
	return &VSphereClient{
		creds: creds,
	}
}

// Connect establishes connection to vCenter
func (v *VSphereClient) Connect(ctx context.Context) error {
	host := v.creds.Host
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}

	u, err := url.Parse(host + "/sdk")
	if err != nil {
		return fmt.Errorf("invalid vCenter URL '%s': %w", v.creds.Host, err)
	}
	u.User = url.UserPassword(v.creds.Username, v.creds.Password)

	client, err := govmomi.NewClient(ctx, u, v.creds.Insecure)
	if err != nil {
		return describeConnectError(v.creds.Host, err)
	}

	finder := find.NewFinder(client.Client, true)
	dc, err := finder.Datacenter(ctx, v.creds.Datacenter)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("datacenter '%s' not found - verify the datacenter name", v.creds.Datacenter)
		}
		return fmt.Errorf("error accessing datacenter '%s': %w", v.creds.Datacenter, err)
	}
	finder.SetDatacenter(dc)

	v.client = client
	v.finder = finder

	slog.Info("vSphere connected successfully")
	slog.Debug("vSphere connection details", "host", v.creds.Host, "datacenter", v.creds.Datacenter)
	return nil
}

// describeConnectError turns common govmomi failures into actionable messages
func describeConnectError(host string, err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("connection refused to vCenter at %s - verify the host is reachable", host)
	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf("cannot resolve vCenter hostname '%s' - verify DNS", host)
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "Cannot complete login"):
		return fmt.Errorf("authentication failed - verify username and password")
	case strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "timeout"):
		return fmt.Errorf("connection timeout to vCenter at %s - check network connectivity", host)
	case strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509"):
		return fmt.Errorf("SSL certificate error connecting to %s - try setting VSPHERE_INSECURE=true", host)
	default:
		return fmt.Errorf("failed to connect to vCenter at %s: %w", host, err)
	}
}

// Disconnect closes the vCenter connection
func (v *VSphereClient) Disconnect(ctx context.Context) error {
	if v.client != nil {
		return v.client.Logout(ctx)
	}
	return nil
}

// IsConnected returns true if client has an active connection
func (v *VSphereClient) IsConnected() bool {
	return v.client != nil && v.client.Valid()
}

// DataDiskCount returns the number of data disks attached to the VM that hosts
// the given SQL Server instance. The VM name is the host part of the instance name.
func (v *VSphereClient) DataDiskCount(ctx context.Context, instanceName string) (int, error) {
	finder, err := v.session(ctx)
	if err != nil {
		return 0, err
	}

	vmName := vmNameForInstance(instanceName)
	vm, err := finder.VirtualMachine(ctx, vmName)
	if err != nil {
		return 0, fmt.Errorf("finding VM %s: %w", vmName, err)
	}

	var vmMo mo.VirtualMachine
	if err := vm.Properties(ctx, vm.Reference(), []string{"config.hardware.device"}, &vmMo); err != nil {
		return 0, fmt.Errorf("reading devices of VM %s: %w", vmName, err)
	}
	if vmMo.Config == nil {
		return 0, fmt.Errorf("VM %s has no configuration", vmName)
	}

	devices := object.VirtualDeviceList(vmMo.Config.Hardware.Device)
	disks := devices.SelectByType((*types.VirtualDisk)(nil))

	count := dataDisksFromVirtualDisks(len(disks))
	slog.Debug("Observed data disks", "instance", instanceName, "vm", vmName, "virtual_disks", len(disks), "data_disks", count)
	return count, nil
}

// session connects on first use and returns the shared finder. Only connection
// setup is serialized; lookups run concurrently on the returned finder.
func (v *VSphereClient) session(ctx context.Context) (*find.Finder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.IsConnected() {
		if err := v.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return v.finder, nil
}

// vmNameForInstance strips the named-instance suffix, port, and domain from an instance name
func vmNameForInstance(instanceName string) string {
	name := instanceName
	if i := strings.IndexAny(name, `\,`); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}

func dataDisksFromVirtualDisks(virtualDisks int) int {
	count := virtualDisks - nonDataDisks
	if count < 0 {
		return 0
	}
	return count
}
