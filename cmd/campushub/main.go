// Command campushub is the CLI front end for the campus feed client core.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"campushub/internal/api"
	"campushub/internal/app"
	"campushub/internal/config"
	"campushub/internal/store"
	"campushub/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
			if saveErr := cfg.Save(); saveErr != nil {
				logger.Warn("could not save default config", "error", saveErr)
			}
		} else {
			logger.Warn("could not load config, using defaults", "error", err)
			cfg = config.Default()
		}
	}
	cfg.ApplyEnv()

	dbPath, err := config.DatabasePath()
	if err != nil {
		fatal("resolve database path: %v", err)
	}
	local, err := store.New(dbPath)
	if err != nil {
		fatal("open local store: %v", err)
	}
	defer local.Close()

	a, err := app.New(cfg, local, logger)
	if err != nil {
		fatal("initialize: %v", err)
	}

	ctx := context.Background()
	a.Start(ctx)

	if err := run(ctx, a, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: campushub login <email> <password>")
		}
		if err := a.Session().Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", a.Session().User().Nickname)
		return nil

	case "register":
		if len(args) < 3 {
			return fmt.Errorf("usage: campushub register <nickname> <email> <password>")
		}
		return a.Session().Register(ctx, api.RegisterRequest{
			Nickname: args[0],
			Email:    args[1],
			Password: args[2],
		})

	case "logout":
		a.Session().Logout()
		fmt.Println("logged out")
		return nil

	case "me":
		user := a.Session().User()
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s> (id %d)\n", user.Nickname, user.Email, user.ID)
		return nil

	case "posts":
		for _, p := range a.Feed().Posts() {
			fmt.Printf("#%d [%s] %s — %s (%d likes)\n", p.ID, p.Category, p.Title, authorName(p.Author), p.Likes)
		}
		return nil

	case "items":
		for _, it := range a.Feed().Items() {
			fmt.Printf("#%d [%s] %s ¥%d — %s\n", it.ID, it.Status, it.Title, it.Price, authorName(it.Owner))
		}
		return nil

	case "post":
		if len(args) < 2 {
			return fmt.Errorf("usage: campushub post <title> <content> [category]")
		}
		category := types.CategoryOther
		if len(args) > 2 {
			category = args[2]
		}
		return a.Feed().AddPost(ctx, types.PostDraft{
			Title:    args[0],
			Content:  args[1],
			Category: category,
		})

	case "sell":
		if len(args) < 2 {
			return fmt.Errorf("usage: campushub sell <title> <price> [description]")
		}
		price, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", args[1])
		}
		draft := types.ItemDraft{Title: args[0], Price: price, Status: types.ItemStatusSelling}
		if len(args) > 2 {
			draft.Description = args[2]
		}
		return a.Feed().AddItem(ctx, draft)

	case "like":
		id, err := parseID(args, "post")
		if err != nil {
			return err
		}
		return a.Feed().ToggleLike(ctx, id)

	case "fav":
		id, err := parseID(args, "post")
		if err != nil {
			return err
		}
		return a.Feed().ToggleFavorite(ctx, id)

	case "follow":
		id, err := parseID(args, "user")
		if err != nil {
			return err
		}
		return a.Feed().ToggleFollowUser(ctx, id)

	case "badges":
		badges, err := a.Client().MyBadges(ctx)
		if err != nil {
			return err
		}
		for _, b := range badges {
			fmt.Printf("%s %s — %s\n", b.Badge.Icon, b.Badge.Name, b.Badge.Description)
		}
		return nil

	case "chat":
		return runChat(ctx, a, args)

	case "watch":
		if err := a.StartRefreshing(); err != nil {
			return err
		}
		fmt.Println("watching feed; press Ctrl-C to stop")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		a.Stop()
		return nil

	case "dismiss-install":
		return a.DismissInstallPrompt()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// runChat shows an item thread, or sends one message with "chat send".
func runChat(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 && args[0] == "send" {
		if len(args) < 3 {
			return fmt.Errorf("usage: campushub chat send <item-id> <text> [buyer-id]")
		}
		itemID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", args[1])
		}
		var buyerID int64
		if len(args) > 3 {
			if buyerID, err = strconv.ParseInt(args[3], 10, 64); err != nil {
				return fmt.Errorf("invalid buyer id %q", args[3])
			}
		}
		conv := a.OpenConversation(itemID, buyerID)
		if err := conv.Activate(ctx); err != nil {
			return err
		}
		return conv.SendMessage(ctx, args[2])
	}

	if len(args) < 1 {
		return fmt.Errorf("usage: campushub chat <item-id> [buyer-id]")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	var buyerID int64
	if len(args) > 1 {
		if buyerID, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("invalid buyer id %q", args[1])
		}
	}

	conv := a.OpenConversation(itemID, buyerID)
	if err := conv.Activate(ctx); err != nil {
		return err
	}
	for _, m := range conv.Messages() {
		who := "them"
		if m.Mine {
			who = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.SentAt.Format("15:04"), who, m.Text)
	}
	return nil
}

func parseID(args []string, what string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("a %s id is required", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", what, args[0])
	}
	return id, nil
}

func authorName(u *types.User) string {
	if u == nil {
		return "anonymous"
	}
	return u.Nickname
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "campushub: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	lines := []string{
		"Usage: campushub <command>",
		"",
		"Commands:",
		"  login <email> <password>        Log in and store the session token",
		"  register <nick> <email> <pass>  Create an account",
		"  logout                          Clear the stored session",
		"  me                              Show the logged-in identity",
		"  posts                           List feed posts",
		"  items                           List marketplace items",
		"  post <title> <content> [cat]    Create a post",
		"  sell <title> <price> [desc]     List an item for sale",
		"  like <post-id>                  Toggle a like",
		"  fav <post-id>                   Toggle a favorite",
		"  follow <user-id>                Toggle following a user",
		"  badges                          List your badges",
		"  chat <item-id> [buyer-id]       Show an item conversation",
		"  chat send <item-id> <text> [buyer-id]",
		"  watch                           Poll the feed until interrupted",
		"  dismiss-install                 Dismiss the install suggestion",
	}
	fmt.Println(strings.Join(lines, "\n"))
}
