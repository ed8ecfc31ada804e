package bluesky

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/lysyi3m/rss-bsky/app/post"
)

// Client publishes posts to a PDS through indigo's XRPC client. The
// session is guarded so status readers can inspect it while the publish
// loop runs.
type Client struct {
	host       string
	httpClient *http.Client
	userAgent  string
	langs      []string
	now        func() time.Time

	mu   sync.RWMutex
	auth *xrpc.AuthInfo
}

var _ post.Publisher = (*Client)(nil)

// NewClient targets host, or DefaultHost when host is empty
func NewClient(host string, httpClient *http.Client, userAgent string, lang string) *Client {
	c := &Client{
		host:       strings.TrimRight(cmp.Or(host, DefaultHost), "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
		now:        time.Now,
	}
	if lang != "" {
		c.langs = []string{lang}
	}
	return c
}

// Login creates a session for identifier (handle or DID) with an app password
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	out, err := comatproto.ServerCreateSession(ctx, c.xrpcClient(nil), &comatproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.setAuth(&xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	})

	slog.Info("Logged in to Bluesky", "handle", out.Handle, "did", out.Did)
	return nil
}

func (c *Client) Session() *xrpc.AuthInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Publish creates an app.bsky.feed.post record with an external link card.
// An expired access token is refreshed once before giving up.
func (c *Client) Publish(ctx context.Context, text string, preview post.LinkPreview) error {
	auth := c.Session()
	if auth == nil {
		return fmt.Errorf("not logged in")
	}

	record := &appbsky.FeedPost{
		LexiconTypeID: PostCollection,
		Text:          text,
		CreatedAt:     c.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Langs:         c.langs,
		Embed: &appbsky.FeedPost_Embed{
			EmbedExternal: &appbsky.EmbedExternal{
				LexiconTypeID: ExternalEmbed,
				External: &appbsky.EmbedExternal_External{
					Uri:         preview.URI,
					Title:       preview.Title,
					Description: preview.Description,
				},
			},
		},
	}

	input := &comatproto.RepoCreateRecord_Input{
		Repo:       auth.Did,
		Collection: PostCollection,
		Record:     &lexutil.LexiconTypeDecoder{Val: record},
	}

	out, err := comatproto.RepoCreateRecord(ctx, c.xrpcClient(auth), input)
	if isExpiredToken(err) {
		slog.Debug("Access token expired, refreshing session")
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			return fmt.Errorf("failed to create record: %w", refreshErr)
		}
		out, err = comatproto.RepoCreateRecord(ctx, c.xrpcClient(c.Session()), input)
	}
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	slog.Debug("Post record created", "uri", out.Uri, "cid", out.Cid)
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	auth := c.Session()
	if auth == nil {
		return fmt.Errorf("not logged in")
	}

	// refreshSession authenticates with the refresh JWT
	out, err := comatproto.ServerRefreshSession(ctx, c.xrpcClient(&xrpc.AuthInfo{
		AccessJwt:  auth.RefreshJwt,
		RefreshJwt: auth.RefreshJwt,
		Handle:     auth.Handle,
		Did:        auth.Did,
	}))
	if err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}

	c.setAuth(&xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	})

	return nil
}

func (c *Client) setAuth(auth *xrpc.AuthInfo) {
	c.mu.Lock()
	c.auth = auth
	c.mu.Unlock()
}

func (c *Client) xrpcClient(auth *xrpc.AuthInfo) *xrpc.Client {
	return &xrpc.Client{
		Client:    c.httpClient,
		Host:      c.host,
		UserAgent: &c.userAgent,
		Auth:      auth,
	}
}

func isExpiredToken(err error) bool {
	var xrpcErr *xrpc.XRPCError
	return errors.As(err, &xrpcErr) && xrpcErr.ErrStr == expiredTokenError
}
