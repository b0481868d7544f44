package youtube

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
)

const (
	DefaultCallbackAddr = "localhost:8085"
	consentTimeout      = 5 * time.Minute

	successPage = "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>"
	errorPage   = "<html><body><h1>Error</h1><p>%s</p></body></html>"
)

var ErrConsentTimeout = errors.New("authentication timed out")

// Consent runs the one-time browser OAuth flow: it serves the redirect
// target locally, opens the consent page and exchanges the returned code.
type Consent struct {
	auth    *Auth
	addr    string
	timeout time.Duration
	openURL func(url string) error
	prompt  func(authURL string)
}

func NewConsent(auth *Auth, prompt func(authURL string)) *Consent {
	if prompt == nil {
		prompt = func(string) {}
	}
	return &Consent{
		auth:    auth,
		addr:    DefaultCallbackAddr,
		timeout: consentTimeout,
		openURL: browser.OpenURL,
		prompt:  prompt,
	}
}

func (c *Consent) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	c.auth.setRedirectURL(fmt.Sprintf("http://localhost:%d/callback", port))

	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("state") != state:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, errorPage, "State mismatch.")
			sendErr(errChan, errors.New("state mismatch in callback"))
		case query.Get("error") != "":
			_, _ = fmt.Fprintf(w, errorPage, "Access was denied.")
			sendErr(errChan, fmt.Errorf("consent denied: %s", query.Get("error")))
		case query.Get("code") == "":
			_, _ = fmt.Fprintf(w, errorPage, "No authorization code received.")
			sendErr(errChan, errors.New("no code in callback"))
		default:
			select {
			case codeChan <- query.Get("code"):
			default:
			}
			_, _ = fmt.Fprint(w, successPage)
		}
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errChan, err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := c.auth.GetAuthURL(state)
	c.prompt(authURL)
	_ = c.openURL(authURL)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case code := <-codeChan:
		return c.auth.Exchange(ctx, code)
	case err := <-errChan:
		return err
	case <-timer.C:
		return ErrConsentTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
