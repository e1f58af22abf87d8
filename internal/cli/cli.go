package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trip-tales-client/internal/models"
	"trip-tales-client/internal/services"
	"trip-tales-client/internal/session"

	"github.com/chzyer/readline"
)

// CLI is the interactive shell driving the client. It is a thin layer: every
// command maps onto one session or sync operation.
type CLI struct {
	rl      *readline.Instance
	session *session.Manager
	groups  *services.GroupService
	posts   *services.PostService
	timeout time.Duration
}

// New creates a new CLI
func New(sessionMgr *session.Manager, groups *services.GroupService, posts *services.PostService, timeout time.Duration) (*CLI, error) {
	rl, err := readline.New("triptales> ")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &CLI{
		rl:      rl,
		session: sessionMgr,
		groups:  groups,
		posts:   posts,
		timeout: timeout,
	}, nil
}

// Run reads and executes commands until exit or EOF.
func (c *CLI) Run() error {
	defer c.rl.Close()

	fmt.Println("TripTales client. Type 'help' for commands, 'exit' to quit.")
	if user := c.session.CurrentUser(); user != nil {
		fmt.Printf("Logged in as %s\n", user.Username)
	}

	for {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		args := parseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		if err := c.execute(args); err != nil {
			if errors.Is(err, services.ErrInFlight) {
				continue // duplicate of a running operation, silently dropped
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		c.printNotices()
	}
}

func (c *CLI) execute(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	switch args[0] {
	case "help":
		printHelp()
		return nil
	case "login":
		return c.login(ctx, args[1:])
	case "register":
		return c.register(ctx, args[1:])
	case "logout":
		return c.session.Logout()
	case "whoami":
		return c.whoami()
	case "groups":
		return c.listGroups(ctx)
	case "group":
		return c.group(ctx, args[1:])
	case "invitations":
		return c.listInvitations(ctx)
	case "invitation":
		return c.invitation(ctx, args[1:])
	case "posts":
		return c.listPosts(ctx, args[1:])
	case "post":
		return c.post(ctx, args[1:])
	case "like":
		return c.like(ctx, args[1:])
	case "comments":
		return c.listComments(ctx, args[1:])
	case "comment":
		return c.comment(ctx, args[1:])
	case "photo":
		return c.photo(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (c *CLI) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <username> <password>")
	}
	if err := c.session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", args[0])
	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: register <username> <email> <password>")
	}
	if err := c.session.Register(ctx, args[0], args[1], args[2]); err != nil {
		return err
	}
	fmt.Println("Registered. Log in to continue.")
	return nil
}

func (c *CLI) whoami() error {
	user := c.session.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s> (id %d)\n", user.Username, user.Email, user.ID)
	return nil
}

func (c *CLI) listGroups(ctx context.Context) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if err := c.groups.FetchGroups(ctx); err != nil {
		return err
	}
	groups := c.groups.Groups()
	if len(groups) == 0 {
		fmt.Println("No groups.")
		return nil
	}
	for _, g := range groups {
		fmt.Printf("[%d] %s — %s (by %s)\n", g.ID, g.Name, g.Description, g.Creator.Username)
	}
	return nil
}

func (c *CLI) group(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: group create|delete|members|invite ...")
	}
	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: group create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = strings.Join(args[2:], " ")
		}
		_, err := c.groups.CreateGroup(ctx, args[1], description)
		return err
	case "delete":
		id, err := parseID(args, 1, "group id")
		if err != nil {
			return err
		}
		return c.groups.DeleteGroup(ctx, id)
	case "members":
		id, err := parseID(args, 1, "group id")
		if err != nil {
			return err
		}
		members, err := c.groups.Members(ctx, id)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Printf("[%d] %s <%s>\n", m.ID, m.Username, m.Email)
		}
		return nil
	case "invite":
		if len(args) != 3 {
			return fmt.Errorf("usage: group invite <group-id> <email>")
		}
		id, err := parseID(args, 1, "group id")
		if err != nil {
			return err
		}
		_, err = c.groups.Invite(ctx, id, args[2])
		return err
	default:
		return fmt.Errorf("unknown group subcommand: %s", args[0])
	}
}

func (c *CLI) listInvitations(ctx context.Context) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if err := c.groups.FetchInvitations(ctx); err != nil {
		return err
	}
	invitations := c.groups.Invitations()
	if len(invitations) == 0 {
		fmt.Println("No invitations.")
		return nil
	}
	for _, inv := range invitations {
		fmt.Printf("[%d] %s invited you to %q (%s)\n",
			inv.ID, inv.Sender.Username, inv.Group.Name, inv.Status)
	}
	return nil
}

func (c *CLI) invitation(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if len(args) != 2 || (args[0] != "accept" && args[0] != "reject") {
		return fmt.Errorf("usage: invitation accept|reject <id>")
	}
	id, err := parseID(args, 1, "invitation id")
	if err != nil {
		return err
	}
	return c.groups.RespondToInvitation(ctx, id, args[0] == "accept")
}

func (c *CLI) listPosts(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	groupID, err := parseID(args, 0, "group id")
	if err != nil {
		return err
	}
	if err := c.posts.FetchGroupPosts(ctx, groupID); err != nil {
		return err
	}
	posts := c.posts.Posts()
	if len(posts) == 0 {
		fmt.Println("No posts.")
		return nil
	}
	for _, p := range posts {
		liked := " "
		if p.UserHasLiked {
			liked = "*"
		}
		fmt.Printf("[%d] %s: %s  (%s%d likes, %d comments, %d photos)\n",
			p.ID, p.Author.Username, p.Text, liked, p.LikesCount, len(p.Comments), len(p.Photos))
	}
	return nil
}

func (c *CLI) post(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: post create|delete ...")
	}
	switch args[0] {
	case "create":
		if len(args) < 3 {
			return fmt.Errorf("usage: post create <group-id> <text>")
		}
		groupID, err := parseID(args, 1, "group id")
		if err != nil {
			return err
		}
		_, err = c.posts.CreatePost(ctx, groupID, strings.Join(args[2:], " "))
		return err
	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: post delete <post-id> <group-id>")
		}
		postID, err := parseID(args, 1, "post id")
		if err != nil {
			return err
		}
		groupID, err := parseID(args, 2, "group id")
		if err != nil {
			return err
		}
		return c.posts.DeletePost(ctx, postID, groupID)
	default:
		return fmt.Errorf("unknown post subcommand: %s", args[0])
	}
}

func (c *CLI) like(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	postID, err := parseID(args, 0, "post id")
	if err != nil {
		return err
	}
	if err := c.posts.ToggleLike(ctx, postID); err != nil {
		return err
	}
	if post, ok := findPost(c.posts, postID); ok {
		fmt.Printf("Post %d: liked=%v, %d likes\n", post.ID, post.UserHasLiked, post.LikesCount)
	}
	return nil
}

func (c *CLI) listComments(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	postID, err := parseID(args, 0, "post id")
	if err != nil {
		return err
	}
	if err := c.posts.FetchComments(ctx, postID); err != nil {
		return err
	}
	comments := c.posts.Comments()
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return nil
	}
	for _, cm := range comments {
		fmt.Printf("[%d] %s: %s\n", cm.ID, cm.Author.Username, cm.Text)
	}
	return nil
}

func (c *CLI) comment(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: comment add|delete ...")
	}
	switch args[0] {
	case "add":
		if len(args) < 4 {
			return fmt.Errorf("usage: comment add <post-id> <group-id> <text>")
		}
		postID, err := parseID(args, 1, "post id")
		if err != nil {
			return err
		}
		groupID, err := parseID(args, 2, "group id")
		if err != nil {
			return err
		}
		return c.posts.CreateComment(ctx, postID, strings.Join(args[3:], " "), groupID)
	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: comment delete <comment-id> <post-id>")
		}
		commentID, err := parseID(args, 1, "comment id")
		if err != nil {
			return err
		}
		postID, err := parseID(args, 2, "post id")
		if err != nil {
			return err
		}
		return c.posts.DeleteComment(ctx, commentID, postID)
	default:
		return fmt.Errorf("unknown comment subcommand: %s", args[0])
	}
}

func (c *CLI) photo(ctx context.Context, args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if len(args) < 4 || args[0] != "upload" {
		return fmt.Errorf("usage: photo upload <post-id> <group-id> <file> [lat lng]")
	}
	postID, err := parseID(args, 1, "post id")
	if err != nil {
		return err
	}
	groupID, err := parseID(args, 2, "group id")
	if err != nil {
		return err
	}

	file, err := os.Open(args[3])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var latitude, longitude *float64
	if len(args) == 6 {
		lat, err := strconv.ParseFloat(args[4], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %q", args[4])
		}
		lng, err := strconv.ParseFloat(args[5], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %q", args[5])
		}
		latitude, longitude = &lat, &lng
	}

	_, err = c.posts.UploadPhoto(ctx, postID, groupID, file, filepath.Base(args[3]), latitude, longitude)
	return err
}

func (c *CLI) requireLogin() error {
	if !c.session.IsLoggedIn() {
		return fmt.Errorf("not logged in")
	}
	return nil
}

// printNotices prints and dismisses any pending service notices.
func (c *CLI) printNotices() {
	for _, board := range []interface {
		Notice() *services.Notice
		ClearNotice()
	}{c.groups, c.posts} {
		if n := board.Notice(); n != nil {
			fmt.Printf("[%s] %s\n", n.Kind, n.Text)
			board.ClearNotice()
		}
	}
}

func findPost(posts *services.PostService, postID int) (models.Post, bool) {
	for _, candidate := range posts.Posts() {
		if candidate.ID == postID {
			return candidate, true
		}
	}
	return models.Post{}, false
}

func parseID(args []string, index int, name string) (int, error) {
	if len(args) <= index {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.Atoi(args[index])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, args[index])
	}
	return id, nil
}

// parseArgs splits a command line into arguments, honoring double quotes.
func parseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, char := range input {
		switch char {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes {
				if current.Len() > 0 {
					args = append(args, current.String())
					current.Reset()
				}
			} else {
				current.WriteRune(char)
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func printHelp() {
	fmt.Print(`Commands:
  login <username> <password>
  register <username> <email> <password>
  logout
  whoami
  groups
  group create <name> [description]
  group delete <id>
  group members <id>
  group invite <group-id> <email>
  invitations
  invitation accept|reject <id>
  posts <group-id>
  post create <group-id> <text>
  post delete <post-id> <group-id>
  like <post-id>
  comments <post-id>
  comment add <post-id> <group-id> <text>
  comment delete <comment-id> <post-id>
  photo upload <post-id> <group-id> <file> [lat lng]
  exit
`)
}
