package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/lifecycle"
	"github.com/oraops/oradbctl/internal/locator"
	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/plan"
	"github.com/oraops/oradbctl/internal/provision"
	"github.com/oraops/oradbctl/internal/session"
	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

// DefaultSettleDelay is how long the driver waits after a mount before it
// issues further administrative statements. Mount completion races listener
// registration, so this is a deliberate wait, not a timeout.
const DefaultSettleDelay = 10 * time.Second

// Locator resolves the requested database against the instance registry.
type Locator interface {
	Locate(ctx context.Context, req locator.Request) (model.InstanceIdentity, error)
}

// Inspector reads live state through an open session.
type Inspector interface {
	Observe(ctx context.Context, s session.Session) (model.ObservedProperties, error)
	Topology(ctx context.Context, s session.Session) (model.Topology, error)
}

// Provisioner creates and removes databases.
type Provisioner interface {
	Create(ctx context.Context, req provision.CreateRequest) error
	Remove(ctx context.Context, id model.InstanceIdentity, topo model.Topology, sysPassword string) error
}

// Options wires a Driver together. Config, Locator, Sessions, Backend,
// Provisioner, and Inspector are required.
type Options struct {
	Config      *config.Config
	Pass        model.Pass
	Locator     Locator
	Sessions    session.Factory
	Backend     lifecycle.Backend
	Provisioner Provisioner
	Inspector   Inspector
	Logger      *logger.Logger
	Events      Sink
	SettleDelay time.Duration
	DryRun      bool
}

// Driver runs one reconciliation pass: locate, diff, and converge the
// database onto its declared state. A Driver is single-use per pass and
// holds no state once Run returns.
type Driver struct {
	cfg     *config.Config
	pass    model.Pass
	loc     Locator
	factory session.Factory
	backend lifecycle.Backend
	prov    Provisioner
	insp    Inspector
	log     *logger.Logger
	sink    Sink
	settle  time.Duration
	dryRun  bool
}

// New creates a Driver from Options.
func New(opts Options) *Driver {
	settle := opts.SettleDelay
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{
		cfg:     opts.Config,
		pass:    opts.Pass,
		loc:     opts.Locator,
		factory: opts.Sessions,
		backend: opts.Backend,
		prov:    opts.Provisioner,
		insp:    opts.Inspector,
		log:     log.WithComponent("reconcile").WithPass(opts.Pass.ID).WithDatabase(opts.Config.Database.Name),
		sink:    opts.Events,
		settle:  settle,
		dryRun:  opts.DryRun,
	}
}

// Run executes the pass and returns its terminal outcome. Any component
// failure is terminal; nothing is retried.
func (d *Driver) Run(ctx context.Context) (model.Outcome, error) {
	d.emit(StageLocate, StatusRunning, "")
	id, err := d.locate(ctx)
	if err != nil {
		var nfErr *oraerrors.NotFoundError
		if errors.As(err, &nfErr) {
			d.emit(StageLocate, StatusDone, "not registered")
			return d.runMissing(ctx)
		}
		d.emit(StageLocate, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	d.emit(StageLocate, StatusDone, string(id.Mode))

	switch d.cfg.Database.State {
	case "absent":
		return d.remove(ctx, id)
	case "started":
		return d.start(ctx, id)
	default:
		return d.converge(ctx, id, false)
	}
}

// runMissing handles every target state for a database that is not
// registered at all.
func (d *Driver) runMissing(ctx context.Context) (model.Outcome, error) {
	name := d.cfg.Database.Name

	switch d.cfg.Database.State {
	case "absent":
		return model.Outcome{Message: fmt.Sprintf("Database %s doesn't exist", name)}, nil

	case "started":
		return model.Outcome{}, oraerrors.NewNotFoundError(name)

	default:
		if d.cfg.Database.MustExist {
			return model.Outcome{}, oraerrors.NewNotFoundError(name)
		}
		if d.dryRun {
			return model.Outcome{Changed: true, Created: true,
				Message: fmt.Sprintf("Database %s would be created", name)}, nil
		}

		d.emit(StageCreate, StatusRunning, "")
		if err := d.prov.Create(ctx, d.createRequest()); err != nil {
			d.emit(StageCreate, StatusFailed, err.Error())
			return model.Outcome{}, err
		}
		d.emit(StageCreate, StatusDone, "")

		id := model.InstanceIdentity{
			Name:       name,
			UniqueName: d.cfg.Database.UniqueName,
			SID:        d.cfg.Database.SID,
			Mode:       d.pass.Mode,
			Home:       d.pass.Home,
		}
		return d.converge(ctx, id, true)
	}
}

// converge observes, plans, and executes until the database matches its
// declared properties. The session stays open for the whole convergence and
// is closed on every exit path.
func (d *Driver) converge(ctx context.Context, id model.InstanceIdentity, created bool) (model.Outcome, error) {
	name := d.cfg.Database.Name
	declared := d.cfg.Properties

	sess, err := d.openSession(ctx)
	if err != nil {
		d.emit(StageObserve, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	defer sess.Close()

	d.emit(StageObserve, StatusRunning, "")
	obs, err := d.insp.Observe(ctx, sess)
	if err != nil {
		d.emit(StageObserve, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	d.emit(StageObserve, StatusDone, "")

	d.emit(StagePlan, StatusRunning, "")
	p := plan.Build(declared, obs)
	d.emit(StagePlan, StatusDone, fmt.Sprintf("%d pending action(s)", p.Len()))

	if p.Empty() {
		if created {
			return model.Outcome{Changed: true, Created: true, Message: createdMessage(name, declared)}, nil
		}
		return model.Outcome{Message: fmt.Sprintf(
			"Database %s already exists and is in the intended state - Archivelog: %v, Force Logging: %v, Flashback: %v",
			name, declared.Archivelog, declared.ForceLogging, declared.Flashback)}, nil
	}

	if d.dryRun {
		return model.Outcome{Changed: true, Created: created, Message: fmt.Sprintf(
			"Database %s would be put in the intended state - %d pending action(s)", name, p.Len())}, nil
	}

	if p.Order == model.ImmediateFirst {
		if err := d.applyImmediate(ctx, sess, p.Immediate); err != nil {
			return model.Outcome{}, err
		}
		if len(p.Restart) > 0 {
			if err := d.restartBatch(ctx, sess, id, obs.Topology, p.Restart); err != nil {
				return model.Outcome{}, err
			}
		}
	} else {
		if len(p.Restart) > 0 {
			if err := d.restartBatch(ctx, sess, id, obs.Topology, p.Restart); err != nil {
				return model.Outcome{}, err
			}
			// The pre-restart snapshot is stale now. Re-plan the immediate
			// batch from a fresh observation.
			obs, err = d.insp.Observe(ctx, sess)
			if err != nil {
				d.emit(StageApply, StatusFailed, err.Error())
				return model.Outcome{}, err
			}
			p = plan.Build(declared, obs)
		}
		if err := d.applyImmediate(ctx, sess, p.Immediate); err != nil {
			return model.Outcome{}, err
		}
	}

	d.emit(StageVerify, StatusRunning, "")
	final, err := d.insp.Observe(ctx, sess)
	if err != nil {
		d.emit(StageVerify, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	if residual := plan.Build(declared, final); !residual.Empty() {
		err := fmt.Errorf("database %s still diverges on %s after convergence", name, propertyList(residual))
		d.emit(StageVerify, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	d.emit(StageVerify, StatusDone, "")

	msg := fmt.Sprintf(
		"Database %s has been put in the intended state - Archivelog: %v, Force Logging: %v, Flashback: %v",
		name, declared.Archivelog, declared.ForceLogging, declared.Flashback)
	if created {
		msg = createdMessage(name, declared)
	}
	return model.Outcome{Changed: true, Created: created, Message: msg}, nil
}

// applyImmediate executes the immediate batch on the open database.
func (d *Driver) applyImmediate(ctx context.Context, sess session.Session, actions []model.Action) error {
	if len(actions) == 0 {
		return nil
	}

	d.emit(StageApply, StatusRunning, "")
	for _, act := range actions {
		d.log.WithFields(map[string]any{"statement": act.Statement}).Info("applying change")
		if err := sess.Exec(ctx, act.Statement); err != nil {
			d.emit(StageApply, StatusFailed, err.Error())
			return err
		}
	}
	d.emit(StageApply, StatusDone, fmt.Sprintf("%d action(s)", len(actions)))
	return nil
}

// restartBatch runs the stop → mount → apply → stop → start cycle. A failure
// anywhere is terminal and may leave the instance stopped; that condition is
// surfaced to the operator, never rolled back.
func (d *Driver) restartBatch(ctx context.Context, sess session.Session, id model.InstanceIdentity, topo model.Topology, actions []model.Action) error {
	d.emit(StageRestart, StatusRunning, "")

	fail := func(err error) error {
		d.emit(StageRestart, StatusFailed, err.Error())
		return err
	}

	if err := d.backend.Stop(ctx, id); err != nil {
		return fail(err)
	}
	if err := d.backend.StartMount(ctx, id, topo); err != nil {
		return fail(fmt.Errorf("instance may be left stopped: %w", err))
	}
	if err := d.settleWait(ctx); err != nil {
		return fail(err)
	}
	for _, act := range actions {
		d.log.WithFields(map[string]any{"statement": act.Statement}).Info("applying change in mount state")
		if err := sess.Exec(ctx, act.Statement); err != nil {
			return fail(err)
		}
	}
	if err := d.backend.Stop(ctx, id); err != nil {
		return fail(err)
	}
	if err := d.backend.Start(ctx, id); err != nil {
		return fail(fmt.Errorf("instance may be left stopped: %w", err))
	}

	d.emit(StageRestart, StatusDone, "")
	return nil
}

// remove deletes a registered database.
func (d *Driver) remove(ctx context.Context, id model.InstanceIdentity) (model.Outcome, error) {
	name := d.cfg.Database.Name

	if d.dryRun {
		return model.Outcome{Changed: true,
			Message: fmt.Sprintf("Database %s would be removed", name)}, nil
	}

	d.emit(StageRemove, StatusRunning, "")

	// Removal targeting needs the topology, which only a live session can
	// provide.
	sess, err := d.openSession(ctx)
	if err != nil {
		d.emit(StageRemove, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	topo, err := d.insp.Topology(ctx, sess)
	closeErr := sess.Close()
	if err != nil {
		d.emit(StageRemove, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	if closeErr != nil {
		d.log.Warn("session close failed before removal")
	}

	if err := d.prov.Remove(ctx, id, topo, d.cfg.Connection.Password); err != nil {
		d.emit(StageRemove, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	d.emit(StageRemove, StatusDone, "")

	return model.Outcome{Changed: true, Message: fmt.Sprintf("Successfully removed database %s", name)}, nil
}

// start opens a registered database without reconciling properties.
func (d *Driver) start(ctx context.Context, id model.InstanceIdentity) (model.Outcome, error) {
	if d.dryRun {
		return model.Outcome{Changed: true,
			Message: fmt.Sprintf("Database %s would be started", d.cfg.Database.Name)}, nil
	}

	d.emit(StageStart, StatusRunning, "")
	if err := d.backend.Start(ctx, id); err != nil {
		d.emit(StageStart, StatusFailed, err.Error())
		return model.Outcome{}, err
	}
	d.emit(StageStart, StatusDone, "")

	return model.Outcome{Changed: true, Message: "Database started."}, nil
}

// CheckReport is the read-only result of Check: where the database stands
// relative to its declared state, with the plan that would converge it.
type CheckReport struct {
	Found    bool
	Identity model.InstanceIdentity
	Observed model.ObservedProperties
	Plan     model.ActionPlan
}

// Check locates and observes without mutating anything.
func (d *Driver) Check(ctx context.Context) (CheckReport, error) {
	id, err := d.locate(ctx)
	if err != nil {
		var nfErr *oraerrors.NotFoundError
		if errors.As(err, &nfErr) {
			return CheckReport{}, nil
		}
		return CheckReport{}, err
	}

	sess, err := d.openSession(ctx)
	if err != nil {
		return CheckReport{}, err
	}
	defer sess.Close()

	obs, err := d.insp.Observe(ctx, sess)
	if err != nil {
		return CheckReport{}, err
	}

	return CheckReport{
		Found:    true,
		Identity: id,
		Observed: obs,
		Plan:     plan.Build(d.cfg.Properties, obs),
	}, nil
}

func (d *Driver) locate(ctx context.Context) (model.InstanceIdentity, error) {
	return d.loc.Locate(ctx, locator.Request{
		Name:       d.cfg.Database.Name,
		UniqueName: d.cfg.Database.UniqueName,
		SID:        d.cfg.Database.SID,
		Home:       d.pass.Home,
		Mode:       d.pass.Mode,
	})
}

func (d *Driver) openSession(ctx context.Context) (session.Session, error) {
	service := d.cfg.Database.UniqueName
	if service == "" {
		service = d.cfg.Database.Name
	}
	return d.factory.Open(ctx, session.Params{
		Host:     d.cfg.Connection.Host,
		Port:     d.cfg.Connection.Port,
		Service:  service,
		User:     d.cfg.Connection.User,
		Password: d.cfg.Connection.Password,
		AsSysdba: d.cfg.Connection.Sysdba(),
	})
}

func (d *Driver) createRequest() provision.CreateRequest {
	return provision.CreateRequest{
		Name:        d.cfg.Database.Name,
		SID:         d.cfg.Database.SID,
		UniqueName:  d.cfg.Database.UniqueName,
		Home:        d.pass.Home,
		Version:     d.pass.Version,
		SysPassword: d.cfg.Connection.Password,
		Options:     *d.cfg.Create,
	}
}

func (d *Driver) settleWait(ctx context.Context) error {
	d.log.Debug("waiting for listener registration")
	t := time.NewTimer(d.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Driver) emit(stage Stage, status Status, detail string) {
	d.log.WithFields(map[string]any{"stage": string(stage), "status": string(status)}).Debug("stage transition")
	if d.sink == nil {
		return
	}
	d.sink(Event{Stage: stage, Status: status, Detail: detail})
}

func createdMessage(name string, declared config.Properties) string {
	mode := "NOARCHIVELOG"
	if declared.Archivelog {
		mode = "ARCHIVELOG"
	}
	return fmt.Sprintf("Database %s successfully created (%s)", name, mode)
}

func propertyList(p model.ActionPlan) string {
	names := make([]string, 0, p.Len())
	for _, act := range p.Ordered() {
		names = append(names, string(act.Property))
	}
	return strings.Join(names, ", ")
}
