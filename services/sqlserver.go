// ABOUTME: SQL Server client for database and destination inventory
// ABOUTME: Reads file sizes from sys.master_files, optionally through an SSH+SOCKS5 jumpbox

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/sqlnova/migration-planner/models"
)

const appName = "sqlnova-planner"

// databaseSizesQuery returns one row per user database with data and log sizes in MB.
// sys.master_files reports size in 8 KB pages.
const databaseSizesQuery = `
SELECT d.name,
       d.state_desc,
       d.recovery_model_desc,
       COALESCE(d.collation_name, ''),
       CAST(SUM(CASE WHEN mf.type = 0 THEN mf.size ELSE 0 END) AS float) * 8 / 1024,
       CAST(SUM(CASE WHEN mf.type = 1 THEN mf.size ELSE 0 END) AS float) * 8 / 1024
FROM sys.databases d
JOIN sys.master_files mf ON mf.database_id = d.database_id
WHERE d.database_id > 4
GROUP BY d.name, d.state_desc, d.recovery_model_desc, d.collation_name
ORDER BY d.name`

// dataDriveQuery returns the distinct drive letters holding user data files
const dataDriveQuery = `
SELECT DISTINCT UPPER(LEFT(mf.physical_name, 1))
FROM sys.master_files mf
WHERE mf.type = 0 AND mf.database_id > 4`

// SQLServerCredentials holds the login used for every scanned instance
type SQLServerCredentials struct {
	Username   string
	Password   string
	DomainAuth bool
	Encrypt    string
	Timeout    time.Duration
	AllProxy   string
}

// SQLServerClient scans SQL Server instances for databases and current load
type SQLServerClient struct {
	creds  SQLServerCredentials
	dialer mssql.Dialer
	open   func(ctx context.Context, server string) (*sql.DB, error)
}

// NewSQLServerClient creates a client. When AllProxy is set, every connection
// is tunnelled through the jumpbox.
func NewSQLServerClient(creds SQLServerCredentials) *SQLServerClient {
	if creds.Timeout <= 0 {
		creds.Timeout = 15 * time.Second
	}
	if creds.Encrypt == "" {
		creds.Encrypt = "true"
	}

	c := &SQLServerClient{creds: creds}

	if creds.AllProxy != "" {
		if dial := createSOCKS5DialContextFunc(creds.AllProxy); dial != nil {
			c.dialer = dialContextFunc(dial)
		}
	}

	c.open = c.openDB
	return c
}

// dialContextFunc adapts a dial function to the driver's Dialer interface
type dialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialContextFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// DSN builds the sqlserver:// connection string for an instance.
// "HOST\INSTANCE" names map to the URL path, "HOST,PORT" to an explicit port.
func (c *SQLServerClient) DSN(server string) string {
	host, instance := server, ""
	if i := strings.Index(server, `\`); i >= 0 {
		host, instance = server[:i], server[i+1:]
	}
	if i := strings.Index(host, ","); i >= 0 {
		host = host[:i] + ":" + host[i+1:]
	}

	query := url.Values{}
	query.Set("database", "master")
	query.Set("encrypt", c.creds.Encrypt)
	query.Set("dial timeout", strconv.Itoa(int(c.creds.Timeout.Seconds())))
	query.Set("connection timeout", strconv.Itoa(int(c.creds.Timeout.Seconds())))
	query.Set("app name", appName)
	if c.creds.DomainAuth {
		query.Set("authenticator", "ntlm")
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.creds.Username, c.creds.Password),
		Host:     host,
		Path:     instance,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (c *SQLServerClient) openDB(ctx context.Context, server string) (*sql.DB, error) {
	if err := ValidateServerName(server); err != nil {
		return nil, err
	}

	connector, err := mssql.NewConnector(c.DSN(server))
	if err != nil {
		return nil, fmt.Errorf("building connector for %s: %w", server, err)
	}
	if c.dialer != nil {
		connector.Dialer = c.dialer
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, c.creds.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", server, err)
	}
	return db, nil
}

// ListDatabases returns the user databases of a source instance
func (c *SQLServerClient) ListDatabases(ctx context.Context, server string) ([]models.SourceDatabase, error) {
	db, err := c.open(ctx, server)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return queryDatabases(ctx, db, server)
}

// ProbeInstance reads the current load of a destination instance
func (c *SQLServerClient) ProbeInstance(ctx context.Context, server string) (models.ExistingInstance, error) {
	inst := models.ExistingInstance{Name: server}

	db, err := c.open(ctx, server)
	if err != nil {
		return inst, err
	}
	defer db.Close()

	dbs, err := queryDatabases(ctx, db, server)
	if err != nil {
		return inst, err
	}
	for _, d := range dbs {
		inst.CurrentDataSizeMB += d.DataSizeMB
		inst.CurrentLogSizeMB += d.LogSizeMB
		inst.CurrentDatabaseNames = append(inst.CurrentDatabaseNames, d.Name)
	}
	inst.CurrentDatabaseCount = len(dbs)

	drives, err := queryDataDrives(ctx, db)
	if err != nil {
		slog.Warn("Failed to read data drives", "server", server, "error", err)
	} else {
		inst.CurrentDataDiskCount = countDataDrives(drives)
	}

	inst.ConnectionSuccess = true
	return inst, nil
}

func queryDatabases(ctx context.Context, db *sql.DB, server string) ([]models.SourceDatabase, error) {
	rows, err := db.QueryContext(ctx, databaseSizesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying databases on %s: %w", server, err)
	}
	defer rows.Close()

	var dbs []models.SourceDatabase
	for rows.Next() {
		d := models.SourceDatabase{InstanceName: server}
		if err := rows.Scan(&d.Name, &d.State, &d.RecoveryModel, &d.Collation, &d.DataSizeMB, &d.LogSizeMB); err != nil {
			return nil, fmt.Errorf("reading database row on %s: %w", server, err)
		}
		d.TotalSizeMB = d.DataSizeMB + d.LogSizeMB
		dbs = append(dbs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating databases on %s: %w", server, err)
	}

	slog.Debug("Scanned databases", "server", server, "count", len(dbs))
	return dbs, nil
}

func queryDataDrives(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, dataDriveQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drives []string
	for rows.Next() {
		var drive string
		if err := rows.Scan(&drive); err != nil {
			return nil, err
		}
		drives = append(drives, drive)
	}
	return drives, rows.Err()
}

// countDataDrives counts the data disk letters (I..Z) that hold user data files
func countDataDrives(drives []string) int {
	seen := make(map[string]bool)
	for _, drive := range drives {
		letter := strings.ToUpper(strings.TrimSpace(drive))
		for _, valid := range models.DataDiskLetters {
			if letter == valid {
				seen[letter] = true
				break
			}
		}
	}
	return len(seen)
}

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
func createSOCKS5DialContextFunc(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	// Strip ssh+ prefix if present
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		slog.Error("Failed to parse SQLSERVER_ALL_PROXY URL", "error", err)
		return nil
	}

	queryMap, err := url.ParseQuery(proxyURL.RawQuery)
	if err != nil {
		slog.Error("Failed to parse SQLSERVER_ALL_PROXY query params", "error", err)
		return nil
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	proxySSHKeyPath := queryMap.Get("private-key")
	if proxySSHKeyPath == "" {
		slog.Error("SQLSERVER_ALL_PROXY missing required 'private-key' query param")
		return nil
	}

	proxySSHKey, err := os.ReadFile(proxySSHKeyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", proxySSHKeyPath, "error", err)
		return nil
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		haveDialer := dialer != nil
		mut.RUnlock()

		if haveDialer {
			return dialer(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(proxySSHKey), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}
}
