package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/config"
	"github.com/marmos91/dittoacl/pkg/directory"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend/memory"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend/xattr"
	"github.com/marmos91/dittoacl/pkg/filesystem/guard"
	"github.com/marmos91/dittoacl/pkg/filesystem/propagate"
	"github.com/marmos91/dittoacl/pkg/job"
	badgerstore "github.com/marmos91/dittoacl/pkg/job/badger"
	"github.com/marmos91/dittoacl/pkg/metrics"
)

// InitLogger initializes the structured logger from configuration. The
// --log-level flag overrides the configured level.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if logLevel != "" {
		loggerCfg.Level = strings.ToUpper(logLevel)
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// app holds the components wired from configuration.
type app struct {
	cfg     *config.Config
	service *filesystem.Service
	runner  *job.Runner
	checker *access.Checker
	pools   directory.PoolLister
	domain  defaults.DomainStateProvider
	store   job.Store
}

// loadApp loads configuration, initializes logging and wires components.
func loadApp() (*app, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return newApp(cfg)
}

// newApp wires components from cfg. Callers must Close the app.
func newApp(cfg *config.Config) (*app, error) {
	pools := newPoolLister(cfg)
	domain := newDomain(cfg)
	resolver := directory.NewResolver()

	var m *filesystem.Metrics
	if metrics.IsEnabled() {
		m = filesystem.NewMetrics(metrics.GetRegistry())
	}

	svc := filesystem.New(filesystem.Deps{
		Guard:     guard.New(cfg.Filesystem.Root, pools),
		Backend:   newBackend(cfg),
		Helper:    propagate.NewExecPropagator(cfg.Filesystem.Helper, cfg.Filesystem.HelperTimeout),
		Templates: defaults.NewBuilder(domain, resolver, cfg.Directory.AdminGroup),
		Metrics:   m,
	})

	store, err := newJobStore(cfg)
	if err != nil {
		return nil, err
	}

	prober, err := access.NewExecProber("")
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		service: svc,
		runner:  job.NewRunner(store, job.NewLocks(cfg.Jobs.LockDir), cfg.Jobs.Retention),
		checker: access.NewChecker(resolver, prober, m),
		pools:   pools,
		domain:  domain,
		store:   store,
	}, nil
}

// Close releases the job store.
func (a *app) Close() error {
	return a.store.Close()
}

func newBackend(cfg *config.Config) backend.Backend {
	if cfg.Filesystem.Backend == "memory" {
		return memory.New()
	}
	return xattr.New(cfg.Filesystem.XattrName)
}

func newPoolLister(cfg *config.Config) directory.PoolLister {
	if cfg.Pools.Source == "static" {
		return directory.StaticPoolsFromPaths(cfg.Pools.Paths)
	}
	return directory.NewZpoolLister(cfg.Pools.ZpoolBinary, cfg.Filesystem.Root)
}

func newDomain(cfg *config.Config) defaults.DomainStateProvider {
	if cfg.Directory.DomainSource == "winbind" {
		return directory.NewWinbindDomain(cfg.Directory.WbinfoBinary)
	}
	return directory.StaticDomain(cfg.Directory.DomainState)
}

func newJobStore(cfg *config.Config) (job.Store, error) {
	if cfg.Jobs.Store != "badger" {
		return job.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Jobs.BadgerPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job store directory: %w", err)
	}
	store, err := badgerstore.Open(badgerstore.Config{Path: cfg.Jobs.BadgerPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	return store, nil
}

// progressPrinter writes job checkpoints to stderr.
type progressPrinter struct{}

func (progressPrinter) SetProgress(percent int, description string) {
	fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, description)
}

// mutate runs a permission change, printing progress to stderr, and
// prints the finished job.
func mutate(method, path string, run func(progress job.Reporter) (*job.Job, error)) error {
	j, err := run(progressPrinter{})
	if err != nil {
		return err
	}

	p, err := printer()
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(j)
	}
	p.Success(fmt.Sprintf("%s on %s finished (job %s)", method, path, j.ID))
	return nil
}

// tee fans progress out to two reporters.
type tee [2]job.Reporter

func (t tee) SetProgress(percent int, description string) {
	t[0].SetProgress(percent, description)
	t[1].SetProgress(percent, description)
}

// ownershipFlags turns --uid/--gid values into an Ownership. Negative
// values mean unset.
func ownershipFlags(uid, gid int) filesystem.Ownership {
	var o filesystem.Ownership
	if uid >= 0 {
		o.UID = &uid
	}
	if gid >= 0 {
		o.GID = &gid
	}
	return o
}
