// Package app wires the founding workflow runtime: storage, the
// provisioning client, notification delivery, expiry timers, and the
// health server.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/hearthhold/hearthhold/internal/platform/grpc"
	"github.com/hearthhold/hearthhold/internal/platform/timeouts"
	"github.com/hearthhold/hearthhold/internal/services/founding/domain"
	"github.com/hearthhold/hearthhold/internal/services/founding/notify"
	"github.com/hearthhold/hearthhold/internal/services/founding/provision"
	foundingsqlite "github.com/hearthhold/hearthhold/internal/services/founding/storage/sqlite"
)

// RuntimeConfig controls founding runtime startup and loop behavior.
type RuntimeConfig struct {
	Port               int
	DBPath             string
	ProvisionerBaseURL string
	ProvisionerToken   string
	SweepInterval      time.Duration
}

const (
	defaultFoundingPort  = 8090
	defaultFoundingDB    = "data/founding.db"
	defaultSweepInterval = 30 * time.Second
	rearmBatchSize       = 500
	expireFireTimeout    = 10 * time.Second
)

// Run starts founding runtime dependencies and the expiry sweep loop.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.ProvisionerBaseURL) == "" {
		return fmt.Errorf("provisioner base url is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultFoundingPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultFoundingDB
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create founding storage dir: %w", err)
		}
	}

	foundingStore, err := foundingsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open founding sqlite store: %w", err)
	}
	defer func() {
		if closeErr := foundingStore.Close(); closeErr != nil {
			log.Printf("close founding sqlite store: %v", closeErr)
		}
	}()

	provisionerClient, err := provision.NewClient(provision.Config{
		BaseURL: cfg.ProvisionerBaseURL,
		Token:   cfg.ProvisionerToken,
	})
	if err != nil {
		return fmt.Errorf("build provisioner client: %w", err)
	}

	var signer *domain.GrantSigner
	if strings.TrimSpace(os.Getenv("HEARTHHOLD_FOUNDING_GRANT_PRIVATE_KEY")) != "" {
		signer, err = domain.LoadGrantSignerFromEnv(nil)
		if err != nil {
			return fmt.Errorf("load founding grant signer: %w", err)
		}
	} else {
		log.Printf("founding grant signing disabled: no private key configured")
	}

	inbox := notify.NewInbox(notify.InboxDeps{Store: foundingStore})

	var svc *domain.Service
	timers := domain.NewTimers(time.Now, func(requestID string) {
		fireCtx, cancel := context.WithTimeout(context.Background(), expireFireTimeout)
		defer cancel()
		if expireErr := svc.ExpireIfDue(fireCtx, requestID); expireErr != nil {
			log.Printf("expire founding request request_id=%s err=%v", requestID, expireErr)
		}
	})
	defer timers.Stop()

	svc = domain.NewService(domain.ServiceDeps{
		Store:       newDomainStoreAdapter(foundingStore),
		Provisioner: newProvisionerAdapter(provisionerClient),
		Dispatcher:  inbox,
		Scheduler:   timers,
		Memberships: newMembershipsAdapter(foundingStore),
		Signer:      signer,
	})

	// In-memory timers do not survive restarts; re-arm from persisted
	// pending requests before accepting traffic.
	pending, err := foundingStore.ListPendingRequests(ctx, rearmBatchSize)
	if err != nil {
		return fmt.Errorf("list pending founding requests: %w", err)
	}
	for _, record := range pending {
		timers.Arm(record.ID, record.ExpiresAt)
	}
	if len(pending) > 0 {
		log.Printf("re-armed founding expiry timers count=%d", len(pending))
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on founding port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer, healthServer := platformgrpc.NewHealthServer("founding.workflow")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeouts.Shutdown):
			grpcServer.Stop()
		}
		<-serveErr
	}()

	log.Printf("founding server listening at %v", listener.Addr())
	return runSweepLoop(ctx, svc, cfg.SweepInterval)
}

// runSweepLoop reconciles lapsed requests until the context is done.
// Timers handle the common case; the sweep catches requests whose
// timers were lost to a crash or missed their window under load.
func runSweepLoop(ctx context.Context, svc *domain.Service, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			expired, err := svc.RunExpirySweep(ctx)
			if err != nil {
				log.Printf("founding expiry sweep err=%v", err)
				continue
			}
			if expired > 0 {
				log.Printf("founding expiry sweep expired=%d", expired)
			}
		}
	}
}
