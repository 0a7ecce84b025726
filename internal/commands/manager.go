// Package commands routes chat commands to handlers through a bounded worker pool.
package commands

import (
	"context"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	kit "csgobot/internal/transport"
	logx "csgobot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	// AccessOwnerOnly restricts the command to telegram.owner_user_ids when that list is set.
	AccessOwnerOnly
)

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Access      Access
	Timeout     time.Duration
	Handle      HandlerFunc
}

type Request struct {
	Message *kit.Message
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string
	ReqID   string
	Log     logx.Logger

	sender kit.Sender
}

// Reply sends text back to the chat the command came from.
func (r *Request) Reply(ctx context.Context, text string) error {
	_, err := r.sender.SendText(ctx, r.Chat, text, &kit.SendOptions{DisablePreview: true})
	return err
}

// ReplyPhoto sends a PNG back to the chat the command came from.
func (r *Request) ReplyPhoto(ctx context.Context, png []byte, caption string) error {
	_, err := r.sender.SendPhoto(ctx, r.Chat, png, caption, nil)
	return err
}

type Manager struct {
	mu     sync.RWMutex
	cmds   map[string]*Command
	alias  map[string]*Command
	owners []int64

	log    logx.Logger
	sender kit.Sender
	jobs   chan func()
}

func NewManager(sender kit.Sender, owners []int64, log logx.Logger) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{
		cmds:   map[string]*Command{},
		alias:  map[string]*Command{},
		owners: append([]int64(nil), owners...),
		log:    log,
		sender: sender,
		jobs:   make(chan func(), 64),
	}
}

// SetOwners updates the owner list. Safe to call during hot reload.
func (m *Manager) SetOwners(owners []int64) {
	cp := append([]int64(nil), owners...)
	m.mu.Lock()
	m.owners = cp
	m.mu.Unlock()
}

// SetRegistry replaces the command set. /help is always added.
func (m *Manager) SetRegistry(cmds []Command) {
	cmds = append(cmds, Command{
		Name:        "help",
		Aliases:     []string{"h", "start"},
		Description: "show help",
		Usage:       "/help [cmd]",
		Handle: func(ctx context.Context, req *Request) error {
			return req.Reply(ctx, m.helpText(req.Args))
		},
	})
	byName := map[string]*Command{}
	alias := map[string]*Command{}
	for i := range cmds {
		c := &cmds[i]
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		byName[name] = c
		for _, a := range c.Aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				alias[a] = c
			}
		}
	}
	m.mu.Lock()
	m.cmds, m.alias = byName, alias
	m.mu.Unlock()
}

// Menu lists commands for the Telegram command menu, sorted by name.
func (m *Manager) Menu() []kit.BotCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]kit.BotCommand, 0, len(m.cmds))
	for _, c := range m.cmds {
		out = append(out, kit.BotCommand{Command: c.Name, Description: c.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

func (m *Manager) lookup(word string) (*Command, []int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cmds[word]
	if !ok {
		c = m.alias[word]
	}
	return c, m.owners
}

// DispatchLoop consumes updates until ctx is done or updates is closed.
func (m *Manager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := max(runtime.NumCPU(), 2)
	m.log.Info("command dispatcher started", logx.Int("workers", workers), logx.Int("job_queue_cap", cap(m.jobs)))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.log.Error("panic in command worker", logx.Int("worker", idx), logx.Any("panic", r), logx.Stack(string(debug.Stack())))
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-m.jobs:
					job()
				}
			}
		}(i)
	}
	defer func() {
		wg.Wait()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind == kit.UpdateMessage && up.Message != nil {
				m.route(ctx, up.Message)
			}
		}
	}
}

func (m *Manager) route(ctx context.Context, msg *kit.Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	parts := tokenizeCommandLine(text)
	if len(parts) == 0 {
		return
	}
	word := commandWord(parts[0])
	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}

	cmd, owners := m.lookup(word)
	if cmd == nil {
		// groups see other bots' commands too; only answer in private chats
		if !msg.IsGroup {
			_, _ = m.sender.SendText(ctx, chat, "unknown command. try /help", nil)
		}
		return
	}
	if cmd.Access == AccessOwnerOnly && len(owners) > 0 && !isOwner(msg.FromID, owners) {
		_, _ = m.sender.SendText(ctx, chat, "unauthorized", nil)
		return
	}

	rid := newReqID()
	req := &Request{
		Message: msg,
		Chat:    chat,
		FromID:  msg.FromID,
		Command: cmd.Name,
		Args:    parts[1:],
		ReqID:   rid,
		Log: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", cmd.Name),
		),
		sender: m.sender,
	}
	final := Chain(cmd.Handle, MWPanicRecover(), MWRequestLog(), MWTimeout(cmd.Timeout))

	select {
	case m.jobs <- func() { _ = final(ctx, req) }:
	default:
		_, _ = m.sender.SendText(ctx, chat, "busy, try again", nil)
	}
}

func (m *Manager) helpText(args []string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(args) > 0 {
		word := commandWord(args[0])
		c, ok := m.cmds[word]
		if !ok {
			c, ok = m.alias[word]
		}
		if !ok {
			return "command not found. try /help"
		}
		lines := []string{"/" + c.Name + " - " + c.Description}
		if c.Usage != "" {
			lines = append(lines, "Usage: "+c.Usage)
		}
		if len(c.Aliases) > 0 {
			lines = append(lines, "Aliases: /"+strings.Join(c.Aliases, ", /"))
		}
		return strings.Join(lines, "\n")
	}
	names := make([]string, 0, len(m.cmds))
	for n := range m.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	lines := []string{"Commands (use /help <cmd>):"}
	for _, n := range names {
		lines = append(lines, "/"+n+" - "+m.cmds[n].Description)
	}
	return strings.Join(lines, "\n")
}

func isOwner(id int64, owners []int64) bool {
	for _, o := range owners {
		if o == id {
			return true
		}
	}
	return false
}
