// Package admincli implements the command-line administration client for
// the account service.
package admincli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/rpc"
	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Client is the subset of rpc.Client the commands use.
type Client interface {
	ListUsers(ctx context.Context, in *rpc.ListUsersRequest, opts ...grpc.CallOption) (*rpc.ListUsersResponse, error)
	GetUser(ctx context.Context, in *rpc.GetUserRequest, opts ...grpc.CallOption) (*rpc.GetUserResponse, error)
	CreateUser(ctx context.Context, in *rpc.CreateUserRequest, opts ...grpc.CallOption) (*rpc.CreateUserResponse, error)
	UpdateUser(ctx context.Context, in *rpc.UpdateUserRequest, opts ...grpc.CallOption) (*rpc.UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in *rpc.DeleteUserRequest, opts ...grpc.CallOption) (*rpc.DeleteUserResponse, error)
	Authenticate(ctx context.Context, in *rpc.AuthenticateRequest, opts ...grpc.CallOption) (*rpc.AuthenticateResponse, error)
	UpdatePassword(ctx context.Context, in *rpc.UpdatePasswordRequest, opts ...grpc.CallOption) (*rpc.UpdatePasswordResponse, error)
	RefreshToken(ctx context.Context, in *rpc.RefreshTokenRequest, opts ...grpc.CallOption) (*rpc.RefreshTokenResponse, error)
	Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error)
}

var _ Client = (*rpc.Client)(nil)

var ErrUsage = errors.New("usage")

const Usage = `commands:
  ping
  list
  get <id>
  create <name> [configuration-json]
  update <id> <name> [configuration-json]
  delete <id>                 (needs -token)
  login <id>                  prints an access/refresh token pair
  passwd <id>
  reset <id>                  (needs -token; an empty password clears it)
  refresh <refresh-token>`

type App struct {
	client Client
	token  string
	out    io.Writer
}

func NewApp(c Client, token string, out io.Writer) *App {
	return &App{client: c, token: token, out: out}
}

func (a *App) withToken(ctx context.Context) context.Context {
	if a.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, a.token)
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) password(prompt string) (string, error) {
	if _, err := fmt.Fprint(a.out, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%w: expected %d argument(s)", ErrUsage, n)
	}
	return nil
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command", ErrUsage)
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "ping":
		resp, err := a.client.Ping(ctx, &rpc.PingRequest{})
		if err != nil {
			return err
		}
		return a.print(resp)

	case "list":
		resp, err := a.client.ListUsers(ctx, &rpc.ListUsersRequest{})
		if err != nil {
			return err
		}
		return a.print(resp.Users)

	case "get":
		if err := need(args, 1); err != nil {
			return err
		}
		resp, err := a.client.GetUser(ctx, &rpc.GetUserRequest{ID: args[0]})
		if err != nil {
			return err
		}
		return a.print(resp.User)

	case "create":
		if err := need(args, 1); err != nil {
			return err
		}
		req := &rpc.CreateUserRequest{Name: args[0]}
		if c := arg(args, 1); c != "" {
			req.Configuration = json.RawMessage(c)
		}
		resp, err := a.client.CreateUser(ctx, req)
		if err != nil {
			return err
		}
		return a.print(resp.User)

	case "update":
		if err := need(args, 2); err != nil {
			return err
		}
		req := &rpc.UpdateUserRequest{ID: args[0], Name: args[1]}
		if c := arg(args, 2); c != "" {
			req.Configuration = json.RawMessage(c)
		}
		resp, err := a.client.UpdateUser(ctx, req)
		if err != nil {
			return err
		}
		return a.print(resp.User)

	case "delete":
		if err := need(args, 1); err != nil {
			return err
		}
		if _, err := a.client.DeleteUser(a.withToken(ctx), &rpc.DeleteUserRequest{ID: args[0]}); err != nil {
			return err
		}
		_, err := fmt.Fprintln(a.out, "deleted")
		return err

	case "login":
		if err := need(args, 1); err != nil {
			return err
		}
		pw, err := a.password("Enter password: ")
		if err != nil {
			return err
		}
		resp, err := a.client.Authenticate(ctx, &rpc.AuthenticateRequest{ID: args[0], Password: pw})
		if err != nil {
			return err
		}
		return a.print(resp)

	case "passwd":
		if err := need(args, 1); err != nil {
			return err
		}
		current, err := a.password("Current password: ")
		if err != nil {
			return err
		}
		next, err := a.password("New password: ")
		if err != nil {
			return err
		}
		req := &rpc.UpdatePasswordRequest{ID: args[0], CurrentPassword: current, NewPassword: next}
		if _, err := a.client.UpdatePassword(ctx, req); err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, "password changed")
		return err

	case "reset":
		if err := need(args, 1); err != nil {
			return err
		}
		next, err := a.password("New password (empty to clear): ")
		if err != nil {
			return err
		}
		req := &rpc.UpdatePasswordRequest{ID: args[0], NewPassword: next, ResetPassword: true}
		if _, err := a.client.UpdatePassword(a.withToken(ctx), req); err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, "password reset")
		return err

	case "refresh":
		if err := need(args, 1); err != nil {
			return err
		}
		resp, err := a.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: args[0]})
		if err != nil {
			return err
		}
		return a.print(resp)
	}

	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}
