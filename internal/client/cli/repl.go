package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Tabs(ctx context.Context) error
	Open(ctx context.Context, key string) error
	Send(ctx context.Context, text string) error
	Reply(ctx context.Context, id, text string) error
	Del(ctx context.Context, id string) error
	Show(ctx context.Context) error
	Sync(ctx context.Context) error
	ActiveKey() string
}

// runREPL starts a simple read–eval–print loop for the chat client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, context cancellation, or
// when the user types "exit" or "quit".
//
// Commands
//
//	help                — show available commands
//	tabs | list         — list conversations with unread counters
//	open <key>          — switch to a conversation ("all", "group:<name>" or a username)
//	send <text...>      — send to the active conversation
//	reply <id> <text..> — send a threaded reply
//	del <id>            — delete a message from the active conversation
//	show                — print the active conversation history
//	sync                — force an immediate poll cycle
//	exit | quit         — leave the program
//
// Any errors returned by command handlers are printed here; the loop itself
// never aborts on a handler error.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("chat [%s]> ", a.ActiveKey()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: tabs, open <key>, send <text>, reply <id> <text>, del <id>, show, sync, exit")

		case "tabs", "list":
			err = a.Tabs(ctx)

		case "open":
			if len(args) != 1 {
				printlnFn("Usage: open <key>")
				continue
			}
			err = a.Open(ctx, args[0])

		case "send":
			if len(args) == 0 {
				printlnFn("Usage: send <text>")
				continue
			}
			err = a.Send(ctx, strings.Join(args, " "))

		case "reply":
			if len(args) < 2 {
				printlnFn("Usage: reply <id> <text>")
				continue
			}
			err = a.Reply(ctx, args[0], strings.Join(args[1:], " "))

		case "del":
			if len(args) != 1 {
				printlnFn("Usage: del <id>")
				continue
			}
			err = a.Del(ctx, args[0])

		case "show":
			err = a.Show(ctx)

		case "sync":
			err = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
