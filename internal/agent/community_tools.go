package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/aitrader/internal/clients/community"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/sourcegraph/conc/pool"
)

// Boards read by get_dcinside_community_posts
var popularGalleries = []string{"bitcoins_new1", "chartanalysis"}

const (
	popularPostLimit     = 25
	searchContentMaxRune = 100
)

// CommunitySource reads coin community boards
type CommunitySource interface {
	GalleryList(ctx context.Context, galleryID string, page int) ([]community.Gallery, error)
	Search(ctx context.Context, keyword string) (*community.SearchResult, error)
}

// get_dcinside_community_posts

type popularPostsTool struct {
	community CommunitySource
}

func (t *popularPostsTool) Name() string { return "get_dcinside_community_posts" }

func (t *popularPostsTool) Definition() openai.Tool {
	return functionTool(t.Name(), "디시인사이드 가상화폐 게시판 인기 게시글 조회", noParams)
}

func (t *popularPostsTool) Call(ctx context.Context, _ string) (string, error) {
	p := pool.NewWithResults[[]community.Gallery]().WithContext(ctx)
	for _, id := range popularGalleries {
		p.Go(func(ctx context.Context) ([]community.Gallery, error) {
			posts, err := t.community.GalleryList(ctx, id, 1)
			if err != nil {
				return nil, fmt.Errorf("gallery %s: %w", id, err)
			}
			return posts, nil
		})
	}
	pages, err := p.Wait()
	if err != nil {
		return "", fmt.Errorf("failed to list community posts: %w", err)
	}

	var posts []community.Gallery
	for _, page := range pages {
		posts = append(posts, page...)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return hitCount(posts[i]) > hitCount(posts[j])
	})
	if len(posts) > popularPostLimit {
		posts = posts[:popularPostLimit]
	}

	lines := make([]string, 0, len(posts))
	for _, post := range posts {
		lines = append(lines, fmt.Sprintf("게시글 제목: %s / 조회수: %s", post.Subject, post.Hit))
	}
	return strings.Join(lines, "\n"), nil
}

func hitCount(g community.Gallery) int {
	n, err := strconv.Atoi(strings.TrimSpace(g.Hit))
	if err != nil {
		return 0
	}
	return n
}

// search_dcinside_community_posts

type searchPostsTool struct {
	community CommunitySource
}

type searchPostsArgs struct {
	Keyword string `json:"keyword"`
}

func (t *searchPostsTool) Name() string { return "search_dcinside_community_posts" }

func (t *searchPostsTool) Definition() openai.Tool {
	return functionTool(t.Name(), "디시인사이드 커뮤니티 게시글 검색. 코인 이름을 포함해주세요", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"keyword": {Type: jsonschema.String, Description: "검색어 (한글로)"},
		},
		Required: []string{"keyword"},
	})
}

func (t *searchPostsTool) Call(ctx context.Context, arguments string) (string, error) {
	var args searchPostsArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	keyword := strings.TrimSpace(args.Keyword)
	if keyword == "" {
		return "", domain.NewUserError("검색어를 입력해주세요.")
	}

	result, err := t.community.Search(ctx, keyword)
	if err != nil {
		return "", fmt.Errorf("failed to search community posts: %w", err)
	}

	entries := make([]string, 0, len(result.Board))
	for _, post := range result.Board {
		entries = append(entries, fmt.Sprintf("제목: %s / 내용: %s", post.Title, truncateRunes(post.Content, searchContentMaxRune)))
	}
	return fmt.Sprintf("%s검색 결과:\n", keyword) + strings.Join(entries, "\n------\n"), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
