package folio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// recentRepoWindow is how many of the newest repositories contribute to the
// primary-language tally.
const recentRepoWindow = 5

// GitHub mediates the OAuth code exchange and the read-only profile/stats
// fetches against the GitHub REST API.
type GitHub struct {
	oauth   oauth2.Config
	apiBase string
	client  *http.Client
}

// NewGitHub builds a client for the real GitHub endpoints.
func NewGitHub(clientID, clientSecret string) *GitHub {
	return &GitHub{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githuboauth.Endpoint,
			Scopes:       []string{"read:user"},
		},
		apiBase: "https://api.github.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewGitHubForTest points the client at stub OAuth and API servers.
func NewGitHubForTest(authURL, tokenURL, apiBase string) *GitHub {
	return &GitHub{
		oauth: oauth2.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		apiBase: apiBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL returns the provider authorization URL for the given CSRF
// state and callback URL.
func (g *GitHub) AuthCodeURL(state, redirectURL string) string {
	cfg := g.oauth
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state)
}

// Exchange swaps an authorization code for an access token.
func (g *GitHub) Exchange(ctx context.Context, code, redirectURL string) (string, error) {
	cfg := g.oauth
	cfg.RedirectURL = redirectURL
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	return tok.AccessToken, nil
}

func (g *GitHub) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github: GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchProfile resolves the authenticated user's profile. Nullable provider
// fields are defaulted here, once, at the boundary: name falls back to the
// login handle, email and bio to "".
func (g *GitHub) FetchProfile(ctx context.Context, token string) (GitHubProfile, error) {
	var raw struct {
		ID        int64   `json:"id"`
		Login     string  `json:"login"`
		Name      *string `json:"name"`
		Email     *string `json:"email"`
		AvatarURL string  `json:"avatar_url"`
		Bio       *string `json:"bio"`
	}
	if err := g.get(ctx, token, "/user", &raw); err != nil {
		return GitHubProfile{}, err
	}
	p := GitHubProfile{
		ID:        raw.ID,
		Login:     raw.Login,
		Name:      raw.Login,
		AvatarURL: raw.AvatarURL,
	}
	if raw.Name != nil && *raw.Name != "" {
		p.Name = *raw.Name
	}
	if raw.Email != nil {
		p.Email = *raw.Email
	}
	if raw.Bio != nil {
		p.Bio = *raw.Bio
	}
	return p, nil
}

// FetchStats aggregates the insights card numbers: public repo count,
// followers, following, account-creation date, and the top 3 primary
// languages across the most recent repositories.
func (g *GitHub) FetchStats(ctx context.Context, token, login string) (*GitHubStats, error) {
	var user struct {
		PublicRepos int    `json:"public_repos"`
		Followers   int    `json:"followers"`
		Following   int    `json:"following"`
		CreatedAt   string `json:"created_at"`
	}
	if err := g.get(ctx, token, "/users/"+login, &user); err != nil {
		return nil, err
	}

	var repos []struct {
		Language *string `json:"language"`
	}
	path := fmt.Sprintf("/users/%s/repos?sort=created&per_page=%d", login, recentRepoWindow)
	if err := g.get(ctx, token, path, &repos); err != nil {
		return nil, err
	}

	tally := make(map[string]int)
	for _, r := range repos {
		if r.Language != nil && *r.Language != "" {
			tally[*r.Language]++
		}
	}
	langs := make([]LanguageCount, 0, len(tally))
	for name, count := range tally {
		langs = append(langs, LanguageCount{Name: name, Count: count})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Count != langs[j].Count {
			return langs[i].Count > langs[j].Count
		}
		return langs[i].Name < langs[j].Name
	})
	if len(langs) > 3 {
		langs = langs[:3]
	}

	memberSince := user.CreatedAt
	if len(memberSince) >= 10 {
		memberSince = memberSince[:10]
	}
	return &GitHubStats{
		PublicRepos:  user.PublicRepos,
		Followers:    user.Followers,
		Following:    user.Following,
		MemberSince:  memberSince,
		TopLanguages: langs,
	}, nil
}
