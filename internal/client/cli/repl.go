package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	hasWallet() bool
	identityEnabled() bool

	Status(ctx context.Context) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Unlock(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	DeleteProfile(ctx context.Context) error
	Sponsor(ctx context.Context, args []string) error
	SponsorClear(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	Upload(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Address(ctx context.Context) error
	History(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit". Handlers print their own errors; the loop ignores them.
//
//	No wallet:
//	  create <name>    create a sponsored wallet
//	  unlock           unlock the stored sponsored wallet
//	  connect          connect an external wallet through the agent
//	  delete-profile   delete the stored profile
//
//	Wallet ready:
//	  address          show the wallet address
//	  select <path>    choose the file to upload
//	  upload           upload the selected file
//	  dismiss          clear a finished upload
//	  sponsor <addr>   save a sponsor address
//	  sponsor-clear    forget the sponsor address
//	  disconnect       drop the wallet
//
//	Always: help, status, history, login [remember], logout [wipe], exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tu %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "status":
			_ = a.Status(ctx)

		case "login":
			_ = a.Login(ctx, args)

		case "logout":
			_ = a.Logout(ctx, args)

		case "create":
			_ = a.Create(ctx, args)

		case "unlock":
			_ = a.Unlock(ctx)

		case "connect":
			_ = a.Connect(ctx)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "delete-profile":
			_ = a.DeleteProfile(ctx)

		case "sponsor":
			_ = a.Sponsor(ctx, args)

		case "sponsor-clear":
			_ = a.SponsorClear(ctx)

		case "select":
			_ = a.Select(ctx, args)

		case "upload":
			_ = a.Upload(ctx)

		case "dismiss":
			_ = a.Dismiss(ctx)

		case "address":
			_ = a.Address(ctx)

		case "history":
			_ = a.History(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func helpText(a execIface) string {
	var cmds []string
	if a.hasWallet() {
		cmds = []string{"address", "select <path>", "upload", "dismiss", "sponsor <addr>", "sponsor-clear", "disconnect"}
	} else {
		cmds = []string{"create <name>", "unlock", "connect", "delete-profile"}
	}
	if a.identityEnabled() {
		cmds = append(cmds, "login [remember]", "logout [wipe]")
	}
	cmds = append(cmds, "status", "history", "exit")
	return "Available commands: " + strings.Join(cmds, ", ")
}
