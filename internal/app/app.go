package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"pomoclock/internal/collector"
	"pomoclock/internal/collector/x11"
	"pomoclock/internal/config"
	"pomoclock/internal/event"
	"pomoclock/internal/ipc"
	"pomoclock/internal/notify"
	"pomoclock/internal/pomodoro"
	"pomoclock/internal/storage"

	sqlitestore "pomoclock/internal/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg      *config.Config
	storage  storage.Storage
	focus    collector.FocusProbe
	signaler pomodoro.Signaler
	clock    clockwork.Clock
	engine   *pomodoro.Engine
	runner   *pomodoro.Runner
	runID    string

	socketPath string
	listener   *net.UnixListener

	eventChan chan event.Event

	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Latest view pushed by the engine, for logging.
	statusMutex sync.RWMutex
	lastView    pomodoro.View
}

type Option func(*App)

func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithStorage uses an already initialized store instead of opening
// cfg.DatabasePath.
func WithStorage(s storage.Storage) Option {
	return func(a *App) { a.storage = s }
}

func WithSignaler(s pomodoro.Signaler) Option {
	return func(a *App) { a.signaler = s }
}

func WithFocusProbe(p collector.FocusProbe) Option {
	return func(a *App) { a.focus = p }
}

func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		runID:      uuid.NewString(),
		socketPath: cfg.SocketPath,
		eventChan:  make(chan event.Event, 100),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.socketPath == "" {
		a.socketPath = ipc.DefaultSocketPath
	}

	if a.storage == nil {
		a.storage = sqlitestore.NewSQLiteStore(cfg.DatabasePath)
		if err := a.storage.Init(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	if a.focus == nil && cfg.FocusTracking {
		probe, err := x11.NewProbe()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize X11 focus probe, focus tracking disabled")
		} else {
			a.focus = probe
		}
	}

	if a.signaler == nil {
		a.signaler = notify.New(cfg.Notifications, cfg.Sound)
	}

	a.engine = pomodoro.NewEngine(cfg.Durations(), a.clock.Now(),
		pomodoro.WithDisplay(a),
		pomodoro.WithSignaler(a.signaler),
		pomodoro.WithRecorder(a),
	)
	a.lastView = a.engine.View()
	a.restore()

	a.runner = pomodoro.NewRunner(a.engine, a.clock, cfg.TickInterval(), pomodoro.WithPersist(a.persist))
	return a, nil
}

// restore applies the persisted timer record according to the resume policy.
// Missing or corrupt records leave the fresh default state in place.
func (a *App) restore() {
	policy := a.cfg.Policy()
	if policy == pomodoro.PolicyFresh {
		log.Debug().Msg("Resume policy is fresh, ignoring persisted timer state")
		return
	}

	data, err := a.storage.LoadState(a.ctx, pomodoro.StateKey)
	if errors.Is(err, storage.ErrStateNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load persisted timer state")
		return
	}
	snap, err := pomodoro.DecodeSnapshot(data)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring corrupt timer state")
		return
	}

	a.engine.Restore(snap, a.clock.Now(), policy)
	v := a.engine.View()
	log.Info().Str("policy", string(policy)).Str("phase", v.PhaseLabel).Str("remaining", v.FormattedTime).
		Bool("running", v.Running).Msg("Restored timer state")
}

// persist runs on the runner goroutine after state-changing commands and
// phase changes.
func (a *App) persist(snap pomodoro.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode timer state")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.storage.SaveState(ctx, pomodoro.StateKey, data); err != nil {
		log.Warn().Err(err).Msg("Failed to persist timer state")
	}
}

// Render implements pomodoro.Display.
func (a *App) Render(v pomodoro.View) {
	a.statusMutex.Lock()
	prev := a.lastView
	a.lastView = v
	a.statusMutex.Unlock()

	if prev.PhaseLabel != v.PhaseLabel || prev.Running != v.Running {
		log.Info().Str("phase", v.PhaseLabel).Str("remaining", v.FormattedTime).Bool("running", v.Running).Msg("Timer")
	} else {
		log.Trace().Str("remaining", v.FormattedTime).Float64("progress", v.ProgressPercent).Msg("tick")
	}
}

// LastView is the most recent view rendered by the engine.
func (a *App) LastView() pomodoro.View {
	a.statusMutex.RLock()
	defer a.statusMutex.RUnlock()
	return a.lastView
}

// RecordTransition implements pomodoro.Recorder. Completed work phases are
// tagged with the focused window when focus tracking is on.
func (a *App) RecordTransition(tr pomodoro.Transition) {
	e := event.Event{
		Timestamp: tr.At,
		Type:      event.EventTypePhaseComplete,
		RunID:     a.runID,
		Mode:      string(tr.From),
		Cycle:     tr.FromCycle,
		Value:     float64(tr.Seconds),
		Notes:     fmt.Sprintf("%s -> %s", pomodoro.Label(tr.From, tr.FromCycle), pomodoro.Label(tr.To, tr.ToCycle)),
	}
	if tr.CatchUp {
		e.Type = event.EventTypePhaseSkipped
		if tr.Phases > 1 {
			e.Notes = fmt.Sprintf("%d phases skipped, cycle %d to %d", tr.Phases, tr.FromCycle, tr.ToCycle)
		}
	}

	if !tr.CatchUp && tr.From == pomodoro.ModeWork && a.focus != nil {
		if focus, err := a.focus.CurrentFocus(); err != nil {
			log.Debug().Err(err).Msg("Focus probe failed")
		} else {
			e.AppName = focus.AppName
			e.WindowTitle = focus.Title
		}
	}

	log.Info().Str("type", string(e.Type)).Str("from", string(tr.From)).Str("to", string(tr.To)).
		Int("cycle", tr.ToCycle).Int("phases", tr.Phases).Msg("Phase transition")
	a.enqueue(e)
}

func (a *App) enqueue(e event.Event) {
	select {
	case a.eventChan <- e:
	default:
		log.Warn().Str("type", string(e.Type)).Msg("Event queue full, dropping event")
	}
}

// setupSocket checks for existing socket and creates the listener
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Info().Str("socket", a.socketPath).Msg("Stale socket file found, removing")
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}
	if err := os.Chmod(a.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set permissions on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Info().Str("socket", a.socketPath).Msg("Listening for commands")
	return nil
}

// listenForCommands accepts connections and handles them
func (a *App) listenForCommands() {
	defer log.Debug().Msg("Socket command listener stopped")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("Failed to accept connection")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		a.wg.Go(func() { a.handleConnection(conn) })
	}
}

// handleConnection reads one command, processes it, and sends the response.
func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Warn().Err(err).Msg("Failed to decode command")
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	log.Debug().Str("command", cmd.Name).Msg("Received command")

	ctx, cancel := context.WithTimeout(a.ctx, 3*time.Second)
	defer cancel()
	response := a.processCommand(ctx, cmd)

	if err := encoder.Encode(response); err != nil {
		log.Warn().Err(err).Msg("Failed to send response")
	}
}

// processCommand routes the command to the runner. Guarded no-ops succeed
// with Applied=false; malformed requests fail.
func (a *App) processCommand(ctx context.Context, cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdToggle:
		res, err := a.runner.Toggle(ctx)
		if err != nil {
			return failure(cmd.Name, err)
		}
		msg := "Timer paused"
		if res.View.Running {
			msg = "Timer started"
		}
		a.recordCommand(res, msg)
		return ok(msg, res)

	case ipc.CmdReset:
		res, err := a.runner.Reset(ctx)
		if err != nil {
			return failure(cmd.Name, err)
		}
		a.recordCommand(res, "Timer reset")
		return ok("Timer reset", res)

	case ipc.CmdAdjust:
		var args ipc.AdjustArgs
		if err := ipc.Decode(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		mode, err := pomodoro.ParseMode(args.Mode)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		if args.DeltaSeconds == 0 {
			return ipc.Response{Success: false, Message: "delta_seconds must be non-zero"}
		}

		res, err := a.runner.Adjust(ctx, mode, args.DeltaSeconds)
		if err != nil {
			return failure(cmd.Name, err)
		}
		if !res.Applied {
			var reason string
			switch {
			case res.View.Running:
				reason = "pause the timer first"
			case args.DeltaSeconds%pomodoro.DurationStep != 0:
				reason = fmt.Sprintf("change durations in steps of %d seconds", pomodoro.DurationStep)
			default:
				reason = fmt.Sprintf("%s cannot go below %d minute", mode, pomodoro.MinDuration/60)
			}
			return ok("Adjustment ignored: "+reason, res)
		}
		msg := fmt.Sprintf("%s duration set to %d min", mode, res.Durations.Seconds(mode)/60)
		a.recordCommand(res, msg)
		return ok(msg, res)

	case ipc.CmdGetStatus:
		res, err := a.runner.Status(ctx)
		if err != nil {
			return failure(cmd.Name, err)
		}
		return ok("", res)

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

func ok(msg string, res pomodoro.Result) ipc.Response {
	return ipc.Response{Success: true, Message: msg, Data: ipc.NewStatusData(res)}
}

func failure(name string, err error) ipc.Response {
	if errors.Is(err, pomodoro.ErrRunnerStopped) || errors.Is(err, context.Canceled) {
		return ipc.Response{Success: false, Message: "App is shutting down"}
	}
	return ipc.Response{Success: false, Message: fmt.Sprintf("%s failed: %v", name, err)}
}

func (a *App) recordCommand(res pomodoro.Result, notes string) {
	a.enqueue(event.Event{
		Timestamp: a.clock.Now(),
		Type:      event.EventTypeCommand,
		RunID:     a.runID,
		Mode:      string(res.View.Mode),
		Cycle:     res.View.CycleCount,
		Value:     float64(res.View.RemainingSeconds),
		Notes:     notes,
	})
}

func (a *App) Run() error {
	defer a.cleanup()

	log.Info().Str("run_id", a.runID).Msg("Starting pomoclock daemon")
	log.Info().Bool("focus_tracking", a.focus != nil).Dur("tick", a.runner.Interval()).
		Str("resume_policy", a.cfg.ResumePolicy).Msg("Timer configuration")

	if err := a.setupSocket(); err != nil {
		return fmt.Errorf("failed to set up socket: %w", err)
	}

	a.handleSignals()
	a.start()
	a.wg.Go(a.listenForCommands)

	if _, err := a.storage.SaveEvent(a.ctx, event.Event{Timestamp: a.clock.Now(), Type: event.EventTypeAppStart, RunID: a.runID}); err != nil {
		log.Warn().Err(err).Msg("Failed to save AppStart event")
	}

	log.Info().Msg("pomoclock daemon running. Send commands via pomoclock-cli or socket.")
	<-a.ctx.Done()

	log.Info().Msg("Shutdown signal received, waiting for components...")

	// Closing the listener unblocks AcceptUnix.
	if err := a.listener.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing socket listener")
	}
	a.wait()

	log.Info().Msg("pomoclock daemon finished.")
	return nil
}

// start launches the runner and the event writer.
func (a *App) start() {
	a.wg.Go(a.processEvents)
	a.wg.Go(func() {
		if err := a.runner.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Timer runner stopped")
		}
	})
}

// Stop requests shutdown.
func (a *App) Stop() { a.cancel() }

func (a *App) wait() {
	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Debug().Msg("All application goroutines finished")
	case <-time.After(shutdownTimeout):
		log.Warn().Msg("Timeout waiting for application goroutines to stop")
	}
}

// processEvents writes queued events. Pending events are flushed on shutdown.
func (a *App) processEvents() {
	defer log.Debug().Msg("Event processor stopped")

	for {
		select {
		case <-a.ctx.Done():
			a.flushEvents()
			return
		case e := <-a.eventChan:
			a.saveEvent(a.ctx, e)
		}
	}
}

func (a *App) flushEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case e := <-a.eventChan:
			a.saveEvent(ctx, e)
		default:
			return
		}
	}
}

func (a *App) saveEvent(ctx context.Context, e event.Event) {
	if _, err := a.storage.SaveEvent(ctx, e); err != nil {
		log.Warn().Err(err).Str("type", string(e.Type)).Msg("Error saving event")
		return
	}
	if e.AppName != "" {
		log.Debug().Str("type", string(e.Type)).Str("app", e.AppName).
			Str("title", collector.Truncate(e.WindowTitle, 80)).Msg("Event saved")
	}
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Initiating shutdown")
			a.cancel()
		case <-a.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

func (a *App) cleanup() {
	a.cancel()

	v := a.LastView()
	log.Info().Str("phase", v.PhaseLabel).Str("remaining", v.FormattedTime).Msg("Timer state at shutdown")

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer saveCancel()
	if _, err := a.storage.SaveEvent(saveCtx, event.Event{Timestamp: a.clock.Now(), Type: event.EventTypeAppStop, RunID: a.runID}); err != nil {
		log.Warn().Err(err).Msg("Failed to save AppStop event")
	}

	if a.focus != nil {
		if err := a.focus.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing focus probe")
		}
	}

	if err := a.storage.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing storage")
	}

	// Only remove the socket this process created.
	if a.listener != nil {
		if _, err := os.Stat(a.socketPath); err == nil {
			if err := os.Remove(a.socketPath); err != nil {
				log.Warn().Err(err).Str("socket", a.socketPath).Msg("Failed to remove socket file")
			}
		}
	}
}
