package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/gameshelf/internal/client/models"
)

// HTTPClient implements Client over the hosted service's JSON contract:
// token-based auth endpoints under /auth/v1 and table endpoints under
// /rest/v1. Every request carries the project API key; authenticated
// requests additionally carry the session's bearer token.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client

	// restoreHTTP carries no timeout. The boot-time session restore must be
	// allowed to resolve however long it takes; it answers the "is there a
	// session" question the whole boot sequence hangs on.
	restoreHTTP *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	subs         map[int]func(AuthEvent, *Session)
	nextSubID    int
}

// NewHTTPClient builds a client for the service at baseURL. The timeout
// applies per request, except the session restore's refresh grant, which is
// issued without one.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		http:        &http.Client{Timeout: timeout},
		restoreHTTP: &http.Client{},
		subs:        make(map[int]func(AuthEvent, *Session)),
	}
}

// Close releases idle connections. Safe to call more than once.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	c.restoreHTTP.CloseIdleConnections()
	return nil
}

// OnAuthStateChange registers fn and returns its unsubscribe function.
// Listeners are invoked synchronously, outside the client's lock.
func (c *HTTPClient) OnAuthStateChange(fn func(AuthEvent, *Session)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *HTTPClient) emit(ev AuthEvent, sess *Session) {
	c.mu.Lock()
	fns := make([]func(AuthEvent, *Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev, sess)
	}
}

func (c *HTTPClient) setSession(s *Session) {
	c.mu.Lock()
	c.accessToken = s.AccessToken
	c.refreshToken = s.RefreshToken
	c.mu.Unlock()
}

func (c *HTTPClient) clearSession() {
	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.mu.Unlock()
}

// roundTrip performs one request and returns the raw outcome. Transport
// failures map to ErrUnavailable; HTTP-level errors are left to the caller's
// mapper since auth and table endpoints shape their bodies differently.
func (c *HTTPClient) roundTrip(ctx context.Context, hc *http.Client, method, path string, headers map[string]string, body any) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, resp.Header, data, nil
}

// errorBody is the union of the error shapes the auth and table endpoints
// produce. Only the populated fields matter.
type errorBody struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e *errorBody) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// doAuth issues a request against an /auth/v1 endpoint on hc. Credential
// failures come back as *AuthError carrying the service's message.
func (c *HTTPClient) doAuth(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	status, _, data, err := c.roundTrip(ctx, hc, method, path, nil, body)
	if err != nil {
		return err
	}
	if status >= 400 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		if status == http.StatusUnauthorized && eb.text() == "" {
			return ErrUnauthorized
		}
		msg := eb.text()
		if msg == "" {
			msg = fmt.Sprintf("auth request failed (%d)", status)
		}
		return &AuthError{Message: msg}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return nil
}

// doREST issues a request against a /rest/v1 table endpoint. "No matching
// row" outcomes (the single-object 406, or the service's PGRST116 code) map
// to ErrNotFound so callers can tell repairable absence from real failure.
func (c *HTTPClient) doREST(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	status, _, data, err := c.roundTrip(ctx, c.http, method, path, headers, body)
	if err != nil {
		return err
	}
	if status >= 400 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		switch {
		case eb.Code == "PGRST116" || status == http.StatusNotAcceptable || status == http.StatusNotFound:
			return ErrNotFound
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return ErrUnauthorized
		default:
			msg := eb.text()
			if msg == "" {
				msg = "request failed"
			}
			return fmt.Errorf("backend error (%d): %s", status, msg)
		}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// tokenUser is the user object embedded in auth responses.
type tokenUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	ConfirmedAt      string         `json:"confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         *tokenUser `json:"user"`

	// Sign-up responses that require verification return the bare user
	// object instead of a token pair; its id then sits at the top level.
	ID string `json:"id"`
}

// SignInWithPassword exchanges credentials for a session. The SIGNED_IN
// event is only emitted for confirmed accounts; an unconfirmed session is
// returned to the caller (which is expected to discard it) without ever
// becoming visible to auth-state listeners.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var tr tokenResponse
	err := c.doAuth(ctx, c.http, http.MethodPost, "/auth/v1/token?grant_type=password",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		return nil, err
	}

	sess, err := sessionFromTokens(tr.AccessToken, tr.RefreshToken)
	if err != nil {
		return nil, err
	}
	if tr.User != nil {
		sess.EmailConfirmed = tr.User.EmailConfirmedAt != "" || tr.User.ConfirmedAt != ""
		if sess.Email == "" {
			sess.Email = tr.User.Email
		}
	}

	c.setSession(sess)
	if sess.EmailConfirmed {
		c.emit(AuthSignedIn, sess)
	}
	return sess, nil
}

// SignUp registers a new account. When the service withholds the token pair,
// email verification is pending and the result carries no session.
func (c *HTTPClient) SignUp(ctx context.Context, email, password, username string) (*SignUpResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]any{"username": username},
	}
	var tr tokenResponse
	if err := c.doAuth(ctx, c.http, http.MethodPost, "/auth/v1/signup", body, &tr); err != nil {
		return nil, err
	}

	res := &SignUpResult{UserID: tr.ID}
	if tr.User != nil && tr.User.ID != "" {
		res.UserID = tr.User.ID
	}
	if tr.AccessToken == "" {
		return res, nil
	}

	sess, err := sessionFromTokens(tr.AccessToken, tr.RefreshToken)
	if err != nil {
		return nil, err
	}
	c.setSession(sess)
	c.emit(AuthSignedIn, sess)
	res.Session = sess
	return res, nil
}

// SignOut revokes the session server-side and drops local credentials. The
// local side is cleared and SIGNED_OUT emitted even when the revocation call
// fails: a sign-out must never leave a half-authenticated client behind.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	err := c.doAuth(ctx, c.http, http.MethodPost, "/auth/v1/logout", nil, nil)
	c.clearSession()
	c.emit(AuthSignedOut, nil)
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}
	return nil
}

// RestoreSession re-establishes a persisted session. An expired access token
// is exchanged via the refresh grant; a missing refresh token makes the
// stored pair unusable and maps to ErrUnauthorized.
func (c *HTTPClient) RestoreSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	sess, err := sessionFromTokens(accessToken, refreshToken)
	if err != nil {
		return nil, err
	}

	if sess.Expired() {
		if refreshToken == "" {
			return nil, ErrUnauthorized
		}
		var tr tokenResponse
		err := c.doAuth(ctx, c.restoreHTTP, http.MethodPost, "/auth/v1/token?grant_type=refresh_token",
			map[string]string{"refresh_token": refreshToken}, &tr)
		if err != nil {
			return nil, err
		}
		sess, err = sessionFromTokens(tr.AccessToken, tr.RefreshToken)
		if err != nil {
			return nil, err
		}
	}

	c.setSession(sess)
	c.emit(AuthSignedIn, sess)
	return sess, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(userID)
	headers := map[string]string{"Accept": "application/vnd.pgrst.object+json"}

	var p models.Profile
	if err := c.doREST(ctx, http.MethodGet, path, headers, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) InsertProfile(ctx context.Context, profile *models.Profile) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.doREST(ctx, http.MethodPost, "/rest/v1/profiles", headers, profile, nil)
}

func (c *HTTPClient) ListLibrary(ctx context.Context, userID string) ([]string, error) {
	path := "/rest/v1/user_library?select=game_id&user_id=eq." + url.QueryEscape(userID)

	var rows []struct {
		GameID string `json:"game_id"`
	}
	if err := c.doREST(ctx, http.MethodGet, path, nil, nil, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GameID)
	}
	return ids, nil
}

func (c *HTTPClient) InsertLibraryEntry(ctx context.Context, userID, gameID string) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	body := map[string]string{"user_id": userID, "game_id": gameID}
	return c.doREST(ctx, http.MethodPost, "/rest/v1/user_library", headers, body, nil)
}

func (c *HTTPClient) ListGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := c.doREST(ctx, http.MethodGet, "/rest/v1/games?select=*&order=downloads.desc", nil, nil, &games)
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (c *HTTPClient) InsertGame(ctx context.Context, game *models.Game) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.doREST(ctx, http.MethodPost, "/rest/v1/games", headers, game, nil)
}

// UpdateGame patches the listing's editable columns only. The download
// counter belongs to the increment procedure; writing it back from a local
// snapshot would clobber bumps that landed remotely since the last fetch.
func (c *HTTPClient) UpdateGame(ctx context.Context, game *models.Game) error {
	path := "/rest/v1/games?id=eq." + url.QueryEscape(game.ID)
	headers := map[string]string{"Prefer": "return=minimal"}
	body := map[string]string{
		"title":        game.Title,
		"description":  game.Description,
		"genre":        game.Genre,
		"platform":     game.Platform,
		"image_url":    game.ImageURL,
		"download_url": game.DownloadURL,
	}
	return c.doREST(ctx, http.MethodPatch, path, headers, body, nil)
}

func (c *HTTPClient) DeleteGame(ctx context.Context, id string) error {
	path := "/rest/v1/games?id=eq." + url.QueryEscape(id)
	return c.doREST(ctx, http.MethodDelete, path, nil, nil, nil)
}

// IncrementDownloads bumps the download counter atomically via a stored
// procedure; a read-modify-write from the client would race other users.
func (c *HTTPClient) IncrementDownloads(ctx context.Context, gameID string) error {
	body := map[string]string{"row_id": gameID}
	return c.doREST(ctx, http.MethodPost, "/rest/v1/rpc/increment_downloads", nil, body, nil)
}

// CountPendingReports asks for an exact count without fetching rows: a
// zero-width range plus the count preference puts the total in the
// Content-Range header ("0-0/N").
func (c *HTTPClient) CountPendingReports(ctx context.Context) (int, error) {
	headers := map[string]string{
		"Prefer":     "count=exact",
		"Range-Unit": "items",
		"Range":      "0-0",
	}
	status, respHeaders, data, err := c.roundTrip(ctx, c.http, http.MethodGet,
		"/rest/v1/reports?select=id&status=eq.pending", headers, nil)
	if err != nil {
		return 0, err
	}
	if status >= 400 && status != http.StatusRequestedRangeNotSatisfiable {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return 0, fmt.Errorf("backend error (%d): %s", status, eb.text())
	}

	cr := respHeaders.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", cr)
	}
	total := cr[idx+1:]
	if total == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("bad count in Content-Range %q: %w", cr, err)
	}
	return n, nil
}

func (c *HTTPClient) ListReports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := c.doREST(ctx, http.MethodGet,
		"/rest/v1/reports?select=*&status=eq.pending&order=created_at.desc", nil, nil, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *HTTPClient) ResolveReport(ctx context.Context, id string) error {
	path := "/rest/v1/reports?id=eq." + url.QueryEscape(id)
	headers := map[string]string{"Prefer": "return=minimal"}
	body := map[string]string{"status": models.ReportStatusResolved}
	return c.doREST(ctx, http.MethodPatch, path, headers, body, nil)
}
