package router

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"weatherbot/internal/eventbus"
	"weatherbot/internal/observability/metrics"
	rtsup "weatherbot/internal/runtime/supervisor"
	kit "weatherbot/internal/transport"
	"weatherbot/pkg/logx"
)

type Command struct {
	// Name is the bare command word, e.g. "subscribe".
	Name        string
	Description string
	// Hidden commands are routed but left out of the Telegram menu.
	Hidden bool
	// AnyState commands still run while the user is mid-conversation; the
	// conversation keeps its state. Other commands are then treated as text.
	AnyState bool
	Timeout  time.Duration
	Handle   HandlerFunc
}

type Request struct {
	Update  kit.Update
	Message *kit.Message
	Chat    kit.ChatTarget
	FromID  int64
	Command string // empty for plain text
	Args    []string
	ReqID   string

	Adapter kit.Adapter
	Logger  logx.Logger
}

// ConversationState reports whether a user is inside a multi-step dialog.
// Messages from such users go to Text unless they invoke an AnyState command.
type ConversationState interface {
	Active(userID string) bool
}

type Options struct {
	Adapter kit.Adapter
	Log     logx.Logger
	Bus     eventbus.Bus
	Metrics *metrics.Metrics
	Convo   ConversationState
	// Text handles plain text, non-text messages and messages from users
	// with an active conversation.
	Text        HandlerFunc
	TextTimeout time.Duration
	// Lanes is the number of ordered per-user queues; <=0 means 4.
	Lanes int
	// LaneBuffer is the queue depth per lane; <=0 means 64.
	LaneBuffer int
}

// Router turns inbound updates into handler calls. Updates from one user are
// always handled in arrival order; different users proceed in parallel.
type Router struct {
	mu    sync.RWMutex
	cmds  map[string]Command
	order []Command

	opt   Options
	log   logx.Logger
	lanes []chan func()
}

func New(opt Options) *Router {
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	if opt.Lanes <= 0 {
		opt.Lanes = 4
	}
	if opt.LaneBuffer <= 0 {
		opt.LaneBuffer = 64
	}
	r := &Router{
		cmds: map[string]Command{},
		opt:  opt,
		log:  opt.Log.With(logx.String("comp", "telegram.router")),
	}
	r.lanes = make([]chan func(), opt.Lanes)
	for i := range r.lanes {
		r.lanes[i] = make(chan func(), opt.LaneBuffer)
	}
	return r
}

// SetCommands replaces the command registry. Menu order follows cmds.
func (r *Router) SetCommands(cmds []Command) {
	reg := make(map[string]Command, len(cmds))
	order := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		if _, dup := reg[name]; dup {
			r.log.Warn("duplicate command ignored", logx.String("cmd", name))
			continue
		}
		reg[name] = c
		order = append(order, c)
		if sa := sanitizeTelegramCommand(name); sa != "" && sa != name {
			if _, exists := reg[sa]; !exists {
				reg[sa] = c
			}
		}
	}
	r.mu.Lock()
	r.cmds = reg
	r.order = order
	r.mu.Unlock()
}

// Menu returns the Telegram command menu for the registered commands.
func (r *Router) Menu() []kit.BotCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return buildTelegramMenuCommands(r.order)
}

// PublishMenu pushes Menu to the adapter when it supports command menus.
func (r *Router) PublishMenu(ctx context.Context) error {
	up, ok := r.opt.Adapter.(kit.CommandMenuUpdater)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return up.UpdateMenuCommands(ctx, r.Menu())
}

// DispatchLoop consumes updates until ctx is canceled or updates is closed.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := rtsup.NewSupervisor(ctx, rtsup.WithLogger(r.log), rtsup.WithCancelOnError(false))

	for i, lane := range r.lanes {
		lane := lane
		idx := i
		sup.GoRestart("lane."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job := <-lane:
					job()
				}
			}
		}, rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}
	r.log.Info("dispatcher started", logx.Int("lanes", len(r.lanes)), logx.Int("lane_cap", r.opt.LaneBuffer))

	defer func() {
		sup.Cancel()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		r.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.route(sup.Context(), up)
		}
	}
}

func (r *Router) route(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	if r.opt.Bus != nil {
		r.opt.Bus.Publish(eventbus.Event{Type: eventbus.ChatMessage, Time: msg.Time, Data: *msg})
	}

	lane := r.lanes[laneFor(msg.FromID, len(r.lanes))]
	select {
	case lane <- func() { r.handle(ctx, up) }:
	default:
		r.opt.Metrics.Update("dropped")
		r.log.Warn("lane full, update dropped", logx.Int64("from_id", msg.FromID), logx.Int("update_id", up.ID))
	}
}

func laneFor(userID int64, n int) int {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % uint32(n))
}

// handle runs inside the user's lane, so the conversation check and the
// handler it selects see a consistent state.
func (r *Router) handle(ctx context.Context, up kit.Update) {
	msg := up.Message
	userID := strconv.FormatInt(msg.FromID, 10)

	word, args, isCmd := parseCommand(msg.Text)
	if r.opt.Convo != nil && r.opt.Convo.Active(userID) {
		if cmd, ok := r.lookup(word); isCmd && ok && cmd.AnyState {
			r.opt.Metrics.Update("command")
			r.run(ctx, up, cmd.Name, args, cmd.Handle, cmd.Timeout)
			return
		}
		r.opt.Metrics.Update("text")
		r.runText(ctx, up)
		return
	}

	if !isCmd {
		if msg.Text == "" {
			r.opt.Metrics.Update("other")
		} else {
			r.opt.Metrics.Update("text")
		}
		r.runText(ctx, up)
		return
	}

	cmd, ok := r.lookup(word)
	if !ok {
		r.opt.Metrics.Update("unknown_command")
		r.log.Debug("unknown command", logx.String("cmd", word), logx.Int64("from_id", msg.FromID))
		return
	}
	r.opt.Metrics.Update("command")
	r.run(ctx, up, cmd.Name, args, cmd.Handle, cmd.Timeout)
}

func (r *Router) lookup(word string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[word]
	return cmd, ok
}

func (r *Router) runText(ctx context.Context, up kit.Update) {
	if r.opt.Text == nil {
		return
	}
	r.run(ctx, up, "", nil, r.opt.Text, r.opt.TextTimeout)
}

func (r *Router) run(ctx context.Context, up kit.Update, name string, args []string, h HandlerFunc, timeout time.Duration) {
	msg := up.Message
	rid := uuid.NewString()[:8]
	req := &Request{
		Update:  up,
		Message: msg,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID},
		FromID:  msg.FromID,
		Command: name,
		Args:    args,
		ReqID:   rid,
		Adapter: r.opt.Adapter,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
		),
	}
	final := Chain(h,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(timeout),
	)
	_ = final(ctx, req)
}

// parseCommand splits "/cmd@bot a b" into ("cmd", [a b], true).
func parseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	parts := strings.Fields(text)
	word := strings.TrimPrefix(parts[0], "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	if word == "" {
		return "", nil, false
	}
	return strings.ToLower(word), parts[1:], true
}
