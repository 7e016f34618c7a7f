package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rajivgeraev/aqar/internal/app"
	"github.com/rajivgeraev/aqar/internal/config"
	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/session"
)

const usage = `usage: aqar [-config path] [-log-level level] <command> [args]

commands:
  prefs [get|set <key> <value>|reset]
  visit <route>
  history [clear]
  search [list|add <term>|clear]
  filters [show|set <key>=<value>...|save <key>=<value>...|reset]
  resume
  run
  login <telegram-init-data>
  logout
  whoami
  fav [list|add <id>|remove <id>|toggle <id>|check <id>|watch]
`

func main() {
	configPath := flag.String("config", config.DefaultClientPath(), "client config file")
	logLevel := flag.String("log-level", "", "override log level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logs, err := logging.NewManager(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	logs.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.New(ctx, cfg, app.Deps{
		Prompter: session.NewStdinPrompter(os.Stdin, os.Stdout),
		Notifier: favorites.NotifierFunc(printNotice),
		Logger:   logs.Logger("client"),
	})
	if err != nil {
		log.Fatalf("start: %v", err)
	}

	cmdErr := dispatch(ctx, client, flag.Arg(0), flag.Args()[1:])
	if n := client.StoreFailures.Total(); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d device storage operation(s) failed: %v\n", n, client.StoreFailures.LastError())
	}
	if err := client.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, "error:", cmdErr)
		os.Exit(1)
	}
}

func printNotice(n favorites.Notice) {
	if n.Level == favorites.LevelError {
		fmt.Fprintln(os.Stderr, "!", n.Message)
		return
	}
	fmt.Fprintln(os.Stderr, "*", n.Message)
}

func dispatch(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "prefs":
		return runPrefs(a, args)
	case "visit":
		if len(args) != 1 {
			return errUsage
		}
		route := a.Visit(args[0])
		fmt.Println(route.String())
		return nil
	case "history":
		return runHistory(a, args)
	case "search":
		return runSearch(a, args)
	case "filters":
		return runFilters(a, args)
	case "resume":
		fmt.Println(a.Resume(ctx))
		fmt.Println(a.Router.Current().String())
		return nil
	case "run":
		return a.Run(ctx)
	case "login":
		if len(args) != 1 {
			return errUsage
		}
		userID, err := a.Login(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println("signed in as", userID)
		return nil
	case "logout":
		a.Logout()
		return nil
	case "whoami":
		if user := a.Identity.Current(); user != "" {
			fmt.Println(user)
			return nil
		}
		fmt.Println("signed out")
		return nil
	case "fav":
		return runFavorites(ctx, a, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
