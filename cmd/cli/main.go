// Command acct is a CLI client for the account service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "accounts")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "accounts")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	var tf tokenFile
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tf, err
	}
	if err := json.Unmarshal(b, &tf); err != nil {
		return tf, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tf, errors.New("no valid token (login required)")
	}
	return tf, nil
}

// tokenExpiry reads exp from a JWT without verifying it; the server owns the key.
func tokenExpiry(access string, fallback time.Duration) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(fallback)
}

// ---- http ----

// apiResponse mirrors the server reply body.
type apiResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
}

// statusError is returned for non-2xx replies.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return fmt.Sprintf("%d: %s", e.code, e.msg) }

type client struct {
	base string
	hc   *http.Client
}

func (c *client) call(ctx context.Context, method, path string, body any) (apiResponse, error) {
	var out apiResponse
	b, err := json.Marshal(body)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.base, "/")+path, bytes.NewReader(b))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return out, fmt.Errorf("decode reply (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &statusError{code: resp.StatusCode, msg: out.Message}
	}
	return out, nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `acct CLI
Usage:
  acct -addr http://HOST:PORT <cmd> [args]

Commands:
  version
  register   -u <username> -e <email> -p <password>
  login      -u <username> -p <password>                 (saves token)
  update     -u <username> -p <password> [-new-username x | -new-email x | -new-password x]
  whoami                                                 (shows cached token)
`)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches subcommands and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// global flags
	fs := flag.NewFlagSet("acct", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "http://localhost:8080", "server base URL")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	c := &client{base: *addr, hc: &http.Client{}}

	fail := func(err error) int {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "acct %s (%s)\n", version, buildDate)

	case "register":
		sub := flag.NewFlagSet("register", flag.ContinueOnError)
		sub.SetOutput(stderr)
		u := sub.String("u", "", "username")
		e := sub.String("e", "", "email")
		p := sub.String("p", "", "password")
		if err := sub.Parse(rest); err != nil {
			return 2
		}
		out, err := c.call(ctx, http.MethodPost, "/auth/register/", map[string]string{
			"username": *u, "email": *e, "password": *p,
		})
		if err != nil {
			return fail(err)
		}
		printJSON(stdout, out)

	case "login":
		sub := flag.NewFlagSet("login", flag.ContinueOnError)
		sub.SetOutput(stderr)
		u := sub.String("u", "", "username")
		p := sub.String("p", "", "password")
		if err := sub.Parse(rest); err != nil {
			return 2
		}
		out, err := c.call(ctx, http.MethodPost, "/auth/login/", map[string]string{
			"username": *u, "password": *p,
		})
		if err != nil {
			return fail(err)
		}
		tf := tokenFile{
			AccessToken: out.AccessToken,
			Username:    out.Username,
			ExpiresAt:   tokenExpiry(out.AccessToken, 15*time.Minute),
		}
		if err := saveToken(tf); err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout, out.Message)

	case "update":
		sub := flag.NewFlagSet("update", flag.ContinueOnError)
		sub.SetOutput(stderr)
		u := sub.String("u", "", "username")
		p := sub.String("p", "", "current password")
		nu := sub.String("new-username", "", "new username")
		ne := sub.String("new-email", "", "new email")
		np := sub.String("new-password", "", "new password")
		if err := sub.Parse(rest); err != nil {
			return 2
		}
		out, err := c.call(ctx, http.MethodPut, "/auth/user/", map[string]string{
			"username": *u, "password": *p,
			"new_username": *nu, "new_email": *ne, "new_password": *np,
		})
		if err != nil {
			return fail(err)
		}
		printJSON(stdout, out)

	case "whoami":
		tf, err := loadToken()
		if err != nil {
			return fail(err)
		}
		var claims jwt.RegisteredClaims
		_, _, _ = jwt.NewParser().ParseUnverified(tf.AccessToken, &claims)
		printJSON(stdout, map[string]any{
			"subject":    claims.Subject,
			"username":   tf.Username,
			"expires_at": tf.ExpiresAt,
		})

	default:
		usage(stderr)
		return 2
	}
	return 0
}
